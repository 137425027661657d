// Package quad holds the drawable primitives a render pass is made of.
package quad

import (
	"compositor/rect"
	"compositor/transform"
)

type Material int

const (
	Invalid Material = iota
	Checkerboard
	DebugBorder
	RenderPass
	SolidColor
	Texture
	TiledContent
	YUVVideoContent
)

func (m Material) String() string {
	switch m {
	case Checkerboard:
		return "Checkerboard"
	case DebugBorder:
		return "DebugBorder"
	case RenderPass:
		return "RenderPass"
	case SolidColor:
		return "SolidColor"
	case Texture:
		return "Texture"
	case TiledContent:
		return "TiledContent"
	case YUVVideoContent:
		return "YUVVideoContent"
	default:
		return "Invalid"
	}
}

// DrawQuad is one primitive in a pass. The kinds are the *XxxQuad types in
// this package; each embeds Quad for the fields every kind shares.
type DrawQuad interface {
	Base() *Quad
	Material() Material
	// Copy returns a copy of the quad bound to sqs.
	Copy(sqs *SharedQuadState) DrawQuad
	String() string
}

type Quad struct {
	Rect        rect.Rect
	OpaqueRect  rect.Rect
	VisibleRect rect.Rect
	// NeedsBlending forces blending even when the quad is fully opaque.
	NeedsBlending   bool
	SharedQuadState *SharedQuadState
}

func newQuad(sqs *SharedQuadState, r, opaque rect.Rect) Quad {
	return Quad{Rect: r, OpaqueRect: opaque, VisibleRect: r, SharedQuadState: sqs}
}

func (q *Quad) Base() *Quad {
	return q
}

func (q *Quad) QuadTransform() transform.Transform {
	return q.SharedQuadState.ContentToTargetTransform
}

func (q *Quad) Opacity() float64 {
	return q.SharedQuadState.Opacity
}

func (q *Quad) IsClipped() bool {
	return q.SharedQuadState.IsClipped
}

func (q *Quad) ClipRect() rect.Rect {
	return q.SharedQuadState.ClipRect
}

func (q *Quad) ClippedRectInTarget() rect.Rect {
	return q.SharedQuadState.ClippedRectInTarget
}

func (q *Quad) ShouldDrawWithBlending() bool {
	return q.NeedsBlending || q.Opacity() < 1 || !q.OpaqueRect.Contains(q.VisibleRect)
}
