package layer

import (
	"fmt"

	"compositor/debug"
	"compositor/quad"
	"compositor/rect"
	"compositor/renderpass"
	"compositor/transform"
)

// RenderSurface is the offscreen target of a layer whose subtree has to be
// composited on its own. It is owned by exactly one layer.
type RenderSurface struct {
	owner *Layer

	contentRect rect.Rect
	// An empty clip rect means the surface does not clip.
	clipRect  rect.Rect
	isClipped bool

	DrawTransform               transform.Transform
	ReplicaDrawTransform        transform.Transform
	ScreenSpaceTransform        transform.Transform
	ReplicaScreenSpaceTransform transform.Transform
	DrawOpacity                 float64
	DrawOpacityIsAnimating      bool

	// LayerList holds, back to front, the layers drawing into the surface
	// and the owners of surfaces contributing to it.
	LayerList []*Layer

	contributingDelegated []*Layer
	damageTracker         *DamageTracker
	propertyChanged       bool
}

func newRenderSurface(owner *Layer) *RenderSurface {
	return &RenderSurface{
		owner:                       owner,
		DrawTransform:               transform.Identity(),
		ReplicaDrawTransform:        transform.Identity(),
		ScreenSpaceTransform:        transform.Identity(),
		ReplicaScreenSpaceTransform: transform.Identity(),
		DrawOpacity:                 1,
		damageTracker:               NewDamageTracker(),
	}
}

func (s *RenderSurface) Owner() *Layer {
	return s.owner
}

func (s *RenderSurface) RenderPassID() renderpass.ID {
	return renderpass.ID{LayerID: s.owner.id, Index: 0}
}

func (s *RenderSurface) ContentRect() rect.Rect {
	return s.contentRect
}

func (s *RenderSurface) SetContentRect(r rect.Rect) {
	if s.contentRect == r {
		return
	}
	s.propertyChanged = true
	s.contentRect = r
}

func (s *RenderSurface) ClipRect() rect.Rect {
	return s.clipRect
}

func (s *RenderSurface) IsClipped() bool {
	return s.isClipped
}

func (s *RenderSurface) SetClipRect(r rect.Rect, clipped bool) {
	if s.clipRect == r && s.isClipped == clipped {
		return
	}
	s.propertyChanged = true
	s.clipRect = r
	s.isClipped = clipped
}

// DrawableContentRect is the area the surface covers in its target,
// including its replica.
func (s *RenderSurface) DrawableContentRect() rect.Rect {
	drawable := s.DrawTransform.MapRect(s.contentRect)
	if s.owner.HasReplica() {
		drawable = drawable.Union(s.ReplicaDrawTransform.MapRect(s.contentRect))
	}
	if s.isClipped {
		drawable = drawable.Intersect(s.clipRect)
	}
	return drawable
}

func (s *RenderSurface) DamageTracker() *DamageTracker {
	return s.damageTracker
}

// ContentsChanged reports whether anything in the surface was damaged this
// frame, which rules out reusing a cached texture.
func (s *RenderSurface) ContentsChanged() bool {
	return !s.damageTracker.CurrentDamageRect().IsEmpty()
}

// SurfacePropertyChanged reports a change to the clip or content rect, or
// a change on the owner (or an ancestor up to the next surface) that
// alters how the surface is composited.
func (s *RenderSurface) SurfacePropertyChanged() bool {
	return s.propertyChanged || s.owner.LayerPropertyChanged() || s.owner.LayerSurfacePropertyChanged()
}

// SurfacePropertyChangedOnlyFromDescendant reports a content or clip rect
// change the owner did not cause itself.
func (s *RenderSurface) SurfacePropertyChangedOnlyFromDescendant() bool {
	return s.propertyChanged && !s.owner.LayerPropertyChanged()
}

func (s *RenderSurface) ResetPropertyChangedFlag() {
	s.propertyChanged = false
}

func (s *RenderSurface) addContributingDelegatedRenderPassLayer(l *Layer) {
	s.contributingDelegated = append(s.contributingDelegated, l)
}

func (s *RenderSurface) clearLayerLists() {
	s.LayerList = s.LayerList[:0]
	s.contributingDelegated = s.contributingDelegated[:0]
}

// AppendRenderPasses appends the passes spliced in by delegated layers
// drawing into the surface, then the surface's own pass.
func (s *RenderSurface) AppendRenderPasses(sink renderpass.Sink) {
	for _, l := range s.contributingDelegated {
		l.AppendContributingRenderPasses(sink)
	}
	pass := renderpass.New(s.RenderPassID(), s.contentRect, s.damageTracker.CurrentDamageRect(), s.ScreenSpaceTransform)
	pass.Filters = append(renderpass.FilterOperations(nil), s.owner.Filters()...)
	pass.BackgroundFilters = append(renderpass.FilterOperations(nil), s.owner.BackgroundFilters()...)
	sink.AppendRenderPass(pass)
}

func (s *RenderSurface) clippedRectInTarget() rect.Rect {
	target := s.owner.Parent().RenderTarget().renderSurface
	switch {
	case s.owner.BackgroundFilters().HasFilterThatMovesPixels():
		// a tight scissor would cut off what the filter samples
		return target.contentRect
	case !s.isClipped || s.clipRect.IsEmpty():
		return target.contentRect.Intersect(s.DrawableContentRect()).RoundOut()
	default:
		return s.clipRect.Intersect(s.DrawableContentRect())
	}
}

func usableMask(l *Layer) *Layer {
	if l == nil || !l.DrawsContent() || l.Bounds().IsEmpty() {
		return nil
	}
	return l
}

// AppendQuads composites the surface into its target: one shared quad
// state, an optional debug border and one render pass quad for passID.
func (s *RenderSurface) AppendQuads(sink quad.Sink, data *quad.AppendData, forReplica bool, passID renderpass.ID) {
	if forReplica && !s.owner.HasReplica() {
		panic(fmt.Sprint("layer ", s.owner.id, " has no replica"))
	}
	drawTransform := s.DrawTransform
	if forReplica {
		drawTransform = s.ReplicaDrawTransform
	}
	sqs := quad.NewSharedQuadState()
	sqs.SetAll(drawTransform, s.contentRect, s.clippedRectInTarget(), s.clipRect, s.isClipped, s.DrawOpacity)
	sqs = sink.UseSharedQuadState(sqs)

	mask := usableMask(s.owner.MaskLayer())
	if mask == nil && forReplica {
		mask = usableMask(s.owner.ReplicaLayer().MaskLayer())
	}

	contentsChanged := rect.Rect{}
	if s.ContentsChanged() {
		contentsChanged = s.contentRect
	}
	q := quad.NewRenderPass(sqs, s.contentRect, passID, forReplica, 0, contentsChanged)
	if mask != nil {
		cb := mask.ContentBounds()
		scaleX := s.contentRect.Width() / cb.Width
		scaleY := s.contentRect.Height() / cb.Height
		q.MaskResourceID = mask.ContentsResourceID()
		q.SetMaskTexCoords(scaleX, scaleY,
			s.contentRect.Left/s.contentRect.Width()*scaleX,
			s.contentRect.Top/s.contentRect.Height()*scaleY)
	}
	sink.Append(q, data)

	if s.owner.tree.settings.ShowDebugBorders {
		c := debug.SurfaceBorderColor
		if forReplica {
			c = debug.SurfaceReplicaBorderColor
		}
		sink.Append(quad.NewDebugBorder(sqs, s.contentRect, c, debug.SurfaceBorderWidth), data)
	}
}

func (s *RenderSurface) String() string {
	return fmt.Sprint("RenderSurface(owner=", s.owner.id, ", content=", s.contentRect, ")")
}
