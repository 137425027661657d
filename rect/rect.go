package rect

import (
	"fmt"
	"image"
	"math"
)

type Point struct {
	X, Y float64
}

type Size struct {
	Width, Height float64
}

func (s Size) IsEmpty() bool {
	return s.Width <= 0 || s.Height <= 0
}

type Rect struct {
	Left, Top, Right, Bottom float64
}

func NewRect(left, top, right, bottom float64) Rect {
	return Rect{
		Left:   left,
		Top:    top,
		Right:  right,
		Bottom: bottom,
	}
}

// XYWH builds a rect from an origin and a size.
func XYWH(x, y, width, height float64) Rect {
	return Rect{Left: x, Top: y, Right: x + width, Bottom: y + height}
}

// FromSize returns the rect at the origin with the given size.
func FromSize(s Size) Rect {
	return XYWH(0, 0, s.Width, s.Height)
}

func (r Rect) Union(other Rect) Rect {
	if r.IsEmpty() && other.IsEmpty() {
		return Rect{}
	} else if r.IsEmpty() {
		return other
	} else if other.IsEmpty() {
		return r
	}
	return Rect{
		Left:   min(r.Left, other.Left),
		Top:    min(r.Top, other.Top),
		Right:  max(r.Right, other.Right),
		Bottom: max(r.Bottom, other.Bottom),
	}
}

func (r Rect) Intersect(other Rect) Rect {
	left := math.Max(r.Left, other.Left)
	top := math.Max(r.Top, other.Top)
	right := math.Min(r.Right, other.Right)
	bottom := math.Min(r.Bottom, other.Bottom)
	if left < right && top < bottom {
		return NewRect(left, top, right, bottom)
	}
	return Rect{}
}

func (r Rect) Inflate(dx, dy float64) Rect {
	return Rect{
		Left:   r.Left - dx,
		Top:    r.Top - dy,
		Right:  r.Right + dx,
		Bottom: r.Bottom + dy,
	}
}

func (r Rect) Offset(dx, dy float64) Rect {
	return Rect{
		Left:   r.Left + dx,
		Top:    r.Top + dy,
		Right:  r.Right + dx,
		Bottom: r.Bottom + dy,
	}
}

// Scale multiplies every edge, so the origin scales too.
func (r Rect) Scale(sx, sy float64) Rect {
	return Rect{
		Left:   r.Left * sx,
		Top:    r.Top * sy,
		Right:  r.Right * sx,
		Bottom: r.Bottom * sy,
	}
}

func (r Rect) IsEmpty() bool {
	return r.Left >= r.Right || r.Top >= r.Bottom
}

// RoundOut returns the smallest rect with integral edges enclosing r.
func (r Rect) RoundOut() Rect {
	if r.IsEmpty() {
		return Rect{}
	}
	return Rect{
		Left:   math.Floor(r.Left),
		Top:    math.Floor(r.Top),
		Right:  math.Ceil(r.Right),
		Bottom: math.Ceil(r.Bottom),
	}
}

// RoundIn returns the largest rect with integral edges enclosed by r.
func (r Rect) RoundIn() Rect {
	out := Rect{
		Left:   math.Ceil(r.Left),
		Top:    math.Ceil(r.Top),
		Right:  math.Floor(r.Right),
		Bottom: math.Floor(r.Bottom),
	}
	if out.IsEmpty() {
		return Rect{}
	}
	return out
}

func (r Rect) RoundOutToInt() image.Rectangle {
	return image.Rect(
		int(math.Floor(r.Left)),
		int(math.Floor(r.Top)),
		int(math.Ceil(r.Right)),
		int(math.Ceil(r.Bottom)),
	)
}

func (r Rect) Width() float64 {
	return r.Right - r.Left
}

func (r Rect) Height() float64 {
	return r.Bottom - r.Top
}

func (r Rect) Size() Size {
	return Size{Width: r.Width(), Height: r.Height()}
}

func (r Rect) Origin() Point {
	return Point{X: r.Left, Y: r.Top}
}

func (r Rect) Area() float64 {
	if r.IsEmpty() {
		return 0
	}
	return r.Width() * r.Height()
}

func (r Rect) Intersects(other Rect) bool {
	return r.Left < other.Right && r.Right > other.Left &&
		r.Top < other.Bottom && r.Bottom > other.Top
}

// Contains reports whether other lies entirely inside r. An empty rect is
// contained by anything.
func (r Rect) Contains(other Rect) bool {
	if other.IsEmpty() {
		return true
	}
	return other.Left >= r.Left && other.Right <= r.Right &&
		other.Top >= r.Top && other.Bottom <= r.Bottom
}

func (r Rect) ContainsPoint(x, y float64) bool {
	return x >= r.Left && x < r.Right &&
		y >= r.Top && y < r.Bottom
}

func (r Rect) String() string {
	return fmt.Sprintf("Rect(left=%.2f, top=%.2f, right=%.2f, bottom=%.2f)", r.Left, r.Top, r.Right, r.Bottom)
}
