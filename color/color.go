package color

import (
	"fmt"
	col "image/color"

	"github.com/mazznoer/csscolorparser"
)

var (
	Transparent = col.RGBA{}
	White       = col.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// ParseColor parses any CSS colour string, falling back to black like the
// paint code always has.
func ParseColor(color string) col.RGBA {
	c, err := Parse(color)
	if err != nil {
		return col.RGBA{A: 255}
	}
	return c
}

// Parse converts a CSS colour string to non-premultiplied RGBA.
func Parse(color string) (col.RGBA, error) {
	c, err := csscolorparser.Parse(color)
	if err != nil {
		return col.RGBA{}, fmt.Errorf("color: parse %q: %w", color, err)
	}
	r, g, b, a := c.RGBA255()
	return col.RGBA{R: r, G: g, B: b, A: a}, nil
}

func IsOpaque(c col.RGBA) bool {
	return c.A == 255
}

// WithOpacity scales the alpha channel of a non-premultiplied colour.
func WithOpacity(c col.RGBA, opacity float64) col.RGBA {
	opacity = max(0, min(1, opacity))
	c.A = uint8(float64(c.A)*opacity + 0.5)
	return c
}

// Premultiplied converts a non-premultiplied colour for image/draw.
func Premultiplied(c col.RGBA) col.RGBA {
	return col.RGBA{
		R: uint8(uint16(c.R) * uint16(c.A) / 255),
		G: uint8(uint16(c.G) * uint16(c.A) / 255),
		B: uint8(uint16(c.B) * uint16(c.A) / 255),
		A: c.A,
	}
}

func String(c col.RGBA) string {
	return fmt.Sprintf("rgba(%d, %d, %d, %.3g)", c.R, c.G, c.B, float64(c.A)/255)
}
