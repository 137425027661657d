package quad

import (
	"fmt"

	"compositor/rect"
	"compositor/transform"
)

// SharedQuadState is the transform, clip and opacity shared by a run of
// quads in one pass. It is filled once with SetAll; anything that needs
// different values takes a Copy.
type SharedQuadState struct {
	// ID is the position of the state within its pass.
	ID int

	ContentToTargetTransform transform.Transform
	VisibleContentRect       rect.Rect
	ClippedRectInTarget      rect.Rect
	ClipRect                 rect.Rect
	IsClipped                bool
	Opacity                  float64
}

func NewSharedQuadState() *SharedQuadState {
	return &SharedQuadState{ContentToTargetTransform: transform.Identity(), Opacity: 1}
}

func (s *SharedQuadState) SetAll(
	contentToTarget transform.Transform,
	visibleContentRect rect.Rect,
	clippedRectInTarget rect.Rect,
	clipRect rect.Rect,
	isClipped bool,
	opacity float64,
) {
	s.ContentToTargetTransform = contentToTarget
	s.VisibleContentRect = visibleContentRect
	s.ClippedRectInTarget = clippedRectInTarget
	s.ClipRect = clipRect
	s.IsClipped = isClipped
	s.Opacity = opacity
}

func (s *SharedQuadState) Copy() *SharedQuadState {
	c := *s
	return &c
}

func (s *SharedQuadState) String() string {
	return fmt.Sprint("SharedQuadState(transform=", s.ContentToTargetTransform,
		", clipped=", s.ClippedRectInTarget, ", opacity=", s.Opacity, ")")
}
