package renderpass

import (
	"fmt"
	col "image/color"
	"strconv"
	"strings"

	"compositor/color"
)

type FilterKind int

const (
	Grayscale FilterKind = iota
	Sepia
	Saturate
	HueRotate
	Invert
	Brightness
	Contrast
	Opacity
	Blur
	DropShadow
)

var filterNames = map[string]FilterKind{
	"grayscale":   Grayscale,
	"sepia":       Sepia,
	"saturate":    Saturate,
	"hue-rotate":  HueRotate,
	"invert":      Invert,
	"brightness":  Brightness,
	"contrast":    Contrast,
	"opacity":     Opacity,
	"blur":        Blur,
	"drop-shadow": DropShadow,
}

func (k FilterKind) String() string {
	for name, kind := range filterNames {
		if kind == k {
			return name
		}
	}
	return "unknown"
}

type FilterOperation struct {
	Kind FilterKind
	// Amount is a fraction for the colour filters, degrees for hue-rotate
	// and a radius in pixels for blur and drop-shadow.
	Amount  float64
	OffsetX float64
	OffsetY float64
	Color   col.RGBA
}

func (f FilterOperation) String() string {
	if f.Kind == DropShadow {
		return fmt.Sprintf("drop-shadow(%gpx %gpx %gpx %s)", f.OffsetX, f.OffsetY, f.Amount, color.String(f.Color))
	}
	return fmt.Sprintf("%s(%g)", f.Kind, f.Amount)
}

type FilterOperations []FilterOperation

func (f FilterOperations) IsEmpty() bool {
	return len(f) == 0
}

// HasFilterThatMovesPixels reports whether an output pixel may depend on
// input pixels other than the one at the same position.
func (f FilterOperations) HasFilterThatMovesPixels() bool {
	for _, op := range f {
		if op.Kind == Blur || op.Kind == DropShadow {
			return true
		}
	}
	return false
}

func (f FilterOperations) String() string {
	parts := make([]string, len(f))
	for i, op := range f {
		parts[i] = op.String()
	}
	return strings.Join(parts, " ")
}

// ParseFilters reads a CSS-like filter list such as
// "grayscale(0.5) blur(3px) drop-shadow(2px 2px 4px black)". Percentages
// are converted to fractions.
func ParseFilters(s string) (FilterOperations, error) {
	var ops FilterOperations
	rest := strings.TrimSpace(s)
	for rest != "" {
		open := strings.IndexByte(rest, '(')
		end := strings.IndexByte(rest, ')')
		if open <= 0 || end < open {
			return nil, fmt.Errorf("renderpass: parse filter %q: malformed", rest)
		}
		name := strings.TrimSpace(rest[:open])
		kind, ok := filterNames[name]
		if !ok {
			return nil, fmt.Errorf("renderpass: parse filter %q: unknown filter", name)
		}
		op, err := parseArgs(kind, strings.Fields(rest[open+1:end]))
		if err != nil {
			return nil, fmt.Errorf("renderpass: parse filter %q: %w", name, err)
		}
		ops = append(ops, op)
		rest = strings.TrimSpace(rest[end+1:])
	}
	return ops, nil
}

func parseArgs(kind FilterKind, args []string) (FilterOperation, error) {
	op := FilterOperation{Kind: kind}
	if kind == DropShadow {
		if len(args) != 4 {
			return op, fmt.Errorf("want 4 arguments, got %d", len(args))
		}
		values := make([]float64, 3)
		for i := range values {
			v, err := parseLength(args[i])
			if err != nil {
				return op, err
			}
			values[i] = v
		}
		c, err := color.Parse(args[3])
		if err != nil {
			return op, err
		}
		op.OffsetX, op.OffsetY, op.Amount, op.Color = values[0], values[1], values[2], c
		return op, nil
	}
	if len(args) != 1 {
		return op, fmt.Errorf("want 1 argument, got %d", len(args))
	}
	v, err := parseLength(args[0])
	if err != nil {
		return op, err
	}
	op.Amount = v
	return op, nil
}

func parseLength(s string) (float64, error) {
	scale := 1.0
	switch {
	case strings.HasSuffix(s, "%"):
		s, scale = strings.TrimSuffix(s, "%"), 0.01
	case strings.HasSuffix(s, "px"):
		s = strings.TrimSuffix(s, "px")
	case strings.HasSuffix(s, "deg"):
		s = strings.TrimSuffix(s, "deg")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return v * scale, nil
}
