// Package transform holds the 2D affine transforms used to move content
// between layer, surface and screen space.
//
// Composition follows the column-vector convention: a.Concat(b) maps a point
// through b first and then through a.
package transform

import (
	"fmt"
	"math"

	"compositor/rect"

	"github.com/fogleman/gg"
	"golang.org/x/image/math/f64"
)

const epsilon = 1e-9

type Transform struct {
	m gg.Matrix
}

func Identity() Transform {
	return Transform{m: gg.Identity()}
}

func Translation(x, y float64) Transform {
	return Transform{m: gg.Translate(x, y)}
}

func Scaling(x, y float64) Transform {
	return Transform{m: gg.Scale(x, y)}
}

// Rotation rotates clockwise in screen space by degrees.
func Rotation(degrees float64) Transform {
	return Transform{m: gg.Rotate(gg.Radians(degrees))}
}

// FromMatrix builds a transform from the row-major 2x3 coefficients
// [a b tx; c d ty].
func FromMatrix(a, b, c, d, tx, ty float64) Transform {
	return Transform{m: gg.Matrix{XX: a, XY: b, YX: c, YY: d, X0: tx, Y0: ty}}
}

// Concat returns t·u.
func (t Transform) Concat(u Transform) Transform {
	return Transform{m: u.m.Multiply(t.m)}
}

// Translate returns t·Translation(x, y).
func (t Transform) Translate(x, y float64) Transform {
	return Transform{m: t.m.Translate(x, y)}
}

// Scale returns t·Scaling(x, y).
func (t Transform) Scale(x, y float64) Transform {
	return Transform{m: t.m.Scale(x, y)}
}

func (t Transform) MapPoint(x, y float64) (float64, float64) {
	return t.m.TransformPoint(x, y)
}

// MapRect returns the bounding box of r after mapping its corners.
func (t Transform) MapRect(r rect.Rect) rect.Rect {
	if r.IsEmpty() {
		return rect.Rect{}
	}
	if t.IsIdentityOrTranslation() {
		return r.Offset(t.m.X0, t.m.Y0)
	}
	xs := [4]float64{}
	ys := [4]float64{}
	xs[0], ys[0] = t.m.TransformPoint(r.Left, r.Top)
	xs[1], ys[1] = t.m.TransformPoint(r.Right, r.Top)
	xs[2], ys[2] = t.m.TransformPoint(r.Right, r.Bottom)
	xs[3], ys[3] = t.m.TransformPoint(r.Left, r.Bottom)
	return rect.NewRect(
		min(xs[0], xs[1], xs[2], xs[3]),
		min(ys[0], ys[1], ys[2], ys[3]),
		max(xs[0], xs[1], xs[2], xs[3]),
		max(ys[0], ys[1], ys[2], ys[3]),
	)
}

// MapQuad returns the four mapped corners of r, clockwise from the top left.
func (t Transform) MapQuad(r rect.Rect) [4]rect.Point {
	var q [4]rect.Point
	q[0].X, q[0].Y = t.m.TransformPoint(r.Left, r.Top)
	q[1].X, q[1].Y = t.m.TransformPoint(r.Right, r.Top)
	q[2].X, q[2].Y = t.m.TransformPoint(r.Right, r.Bottom)
	q[3].X, q[3].Y = t.m.TransformPoint(r.Left, r.Bottom)
	return q
}

func (t Transform) Determinant() float64 {
	return t.m.XX*t.m.YY - t.m.XY*t.m.YX
}

func (t Transform) IsInvertible() bool {
	return math.Abs(t.Determinant()) > epsilon
}

func (t Transform) Inverse() (Transform, bool) {
	det := t.Determinant()
	if math.Abs(det) <= epsilon {
		return Identity(), false
	}
	m := t.m
	inv := gg.Matrix{
		XX: m.YY / det,
		XY: -m.XY / det,
		YX: -m.YX / det,
		YY: m.XX / det,
	}
	inv.X0 = -(inv.XX*m.X0 + inv.XY*m.Y0)
	inv.Y0 = -(inv.YX*m.X0 + inv.YY*m.Y0)
	return Transform{m: inv}, true
}

func (t Transform) IsIdentity() bool {
	return t.IsIdentityOrTranslation() && near(t.m.X0, 0) && near(t.m.Y0, 0)
}

func (t Transform) IsIdentityOrTranslation() bool {
	return near(t.m.XX, 1) && near(t.m.YY, 1) && near(t.m.XY, 0) && near(t.m.YX, 0)
}

// PreservesAxisAlignment reports whether axis-aligned rects stay axis aligned.
func (t Transform) PreservesAxisAlignment() bool {
	return (near(t.m.XY, 0) && near(t.m.YX, 0)) || (near(t.m.XX, 0) && near(t.m.YY, 0))
}

func (t Transform) TranslationComponent() (float64, float64) {
	return t.m.X0, t.m.Y0
}

// ScaleComponents returns the lengths of the mapped unit axes.
func (t Transform) ScaleComponents() (float64, float64) {
	return math.Hypot(t.m.XX, t.m.YX), math.Hypot(t.m.XY, t.m.YY)
}

func (t Transform) Equal(u Transform) bool {
	return near(t.m.XX, u.m.XX) && near(t.m.XY, u.m.XY) && near(t.m.YX, u.m.YX) &&
		near(t.m.YY, u.m.YY) && near(t.m.X0, u.m.X0) && near(t.m.Y0, u.m.Y0)
}

// Aff3 converts t for use with golang.org/x/image/draw transformers.
func (t Transform) Aff3() f64.Aff3 {
	return f64.Aff3{t.m.XX, t.m.XY, t.m.X0, t.m.YX, t.m.YY, t.m.Y0}
}

func (t Transform) String() string {
	return fmt.Sprintf("Transform(%.3g, %.3g, %.3g, %.3g, %.3g, %.3g)", t.m.XX, t.m.XY, t.m.YX, t.m.YY, t.m.X0, t.m.Y0)
}

func near(a, b float64) bool {
	return math.Abs(a-b) <= epsilon
}
