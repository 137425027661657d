package layer

import (
	"compositor/rect"
	"compositor/transform"
)

// Occlusion is what hides a layer at the moment it appends its quads: the
// opaque area in front of it within its target surface, and on screen.
type Occlusion struct {
	inTarget       rect.Region
	inScreen       rect.Region
	targetToScreen transform.Transform
}

// Unoccluded returns the part of r, a rect mapped into the target by
// contentToTarget, that is inside the clip and not hidden. It also reports
// whether occlusion from outside the target surface removed anything.
func (o *Occlusion) Unoccluded(r rect.Rect, contentToTarget transform.Transform, clip rect.Rect, clipped bool) (rect.Rect, bool) {
	if o == nil || r.IsEmpty() || !contentToTarget.PreservesAxisAlignment() {
		return r, false
	}
	inverse, ok := contentToTarget.Inverse()
	if !ok {
		return r, false
	}
	inTarget := contentToTarget.MapRect(r)
	if clipped {
		inTarget = inTarget.Intersect(clip)
	}
	region := rect.NewRegion(inTarget)
	region.SubtractRegion(o.inTarget)
	unoccluded := region.Bounds()

	visible := unoccluded
	hadOutside := false
	if !unoccluded.IsEmpty() && !o.inScreen.IsEmpty() && o.targetToScreen.PreservesAxisAlignment() {
		if toTarget, ok := o.targetToScreen.Inverse(); ok {
			screen := rect.NewRegion(o.targetToScreen.MapRect(unoccluded))
			screen.SubtractRegion(o.inScreen)
			visible = toTarget.MapRect(screen.Bounds()).Intersect(unoccluded)
			hadOutside = visible != unoccluded
		}
	}
	if visible.IsEmpty() {
		return rect.Rect{}, hadOutside
	}
	return inverse.MapRect(visible).Intersect(r), hadOutside
}

type occlusionEntry struct {
	target   *Layer
	inTarget rect.Region
	inScreen rect.Region
}

// OcclusionTracker gathers occlusion while walking steps front to back.
type OcclusionTracker struct {
	screenRect          rect.Rect
	minimumTrackingSize rect.Size
	stack               []*occlusionEntry
	metrics             *OverdrawMetrics

	occludingScreenSpaceRects    *[]rect.Rect
	nonOccludingScreenSpaceRects *[]rect.Rect
}

func NewOcclusionTracker(screenRect rect.Rect, minimumTrackingSize rect.Size) *OcclusionTracker {
	return &OcclusionTracker{
		screenRect:          screenRect,
		minimumTrackingSize: minimumTrackingSize,
		metrics:             &OverdrawMetrics{},
	}
}

func (o *OcclusionTracker) OverdrawMetrics() *OverdrawMetrics {
	return o.metrics
}

// SetScreenSpaceRectsContainers makes the tracker record the screen rect
// of every layer it visits, split by whether the layer occludes.
func (o *OcclusionTracker) SetScreenSpaceRectsContainers(occluding, nonOccluding *[]rect.Rect) {
	o.occludingScreenSpaceRects = occluding
	o.nonOccludingScreenSpaceRects = nonOccluding
}

func (o *OcclusionTracker) top() *occlusionEntry {
	if len(o.stack) == 0 {
		return nil
	}
	return o.stack[len(o.stack)-1]
}

func (o *OcclusionTracker) enterTarget(target *Layer) *occlusionEntry {
	top := o.top()
	if top != nil && top.target == target {
		return top
	}
	entry := &occlusionEntry{target: target}
	if top != nil {
		entry.inScreen = top.inScreen.Clone()
	}
	o.stack = append(o.stack, entry)
	return entry
}

// EnterLayer returns the occlusion that applies to the quads of step.
func (o *OcclusionTracker) EnterLayer(step Step) *Occlusion {
	if step.Kind == TargetSurface {
		return nil
	}
	entry := o.enterTarget(step.Target)
	return &Occlusion{
		inTarget:       entry.inTarget.Clone(),
		inScreen:       entry.inScreen.Clone(),
		targetToScreen: step.Target.renderSurface.ScreenSpaceTransform,
	}
}

// LeaveLayer adds what step hides to the tracked occlusion.
func (o *OcclusionTracker) LeaveLayer(step Step) {
	switch step.Kind {
	case Itself:
		if !o.markOccludedBehindLayer(step.Layer) && o.nonOccludingScreenSpaceRects != nil {
			if screen := o.screenRectOf(step); !screen.IsEmpty() {
				*o.nonOccludingScreenSpaceRects = append(*o.nonOccludingScreenSpaceRects, screen)
			}
		}
	case TargetSurface:
		if step.Layer.Parent() != nil && step.Layer.renderTarget == step.Layer.id {
			o.finishedRenderTarget(step.Layer)
		}
	}
}

func (o *OcclusionTracker) finishedRenderTarget(owner *Layer) {
	child := o.top()
	if child == nil || child.target != owner {
		return
	}
	o.stack = o.stack[:len(o.stack)-1]
	parentTarget := owner.Parent().RenderTarget()
	if parentTarget == nil {
		return
	}
	parent := o.enterTarget(parentTarget)

	s := owner.renderSurface
	if s == nil || s.DrawOpacity < 1 || s.DrawOpacityIsAnimating || owner.MaskLayer() != nil || !owner.Filters().IsEmpty() {
		return
	}
	merge := func(t transform.Transform) {
		if !t.PreservesAxisAlignment() {
			return
		}
		for _, r := range child.inTarget.Rects() {
			mapped := t.MapRect(r)
			if s.isClipped {
				mapped = mapped.Intersect(s.clipRect)
			}
			parent.inTarget.Union(mapped.RoundIn())
		}
	}
	merge(s.DrawTransform)
	if r := owner.ReplicaLayer(); r != nil && r.MaskLayer() == nil {
		merge(s.ReplicaDrawTransform)
	}
	parent.inScreen = child.inScreen
}

// opaqueContentRect is the part of the layer, in content space, known to
// be opaque.
func opaqueContentRect(l *Layer) rect.Rect {
	bounds := rect.FromSize(l.ContentBounds())
	if l.ContentsOpaque() {
		return bounds
	}
	switch l.content.(type) {
	case *SolidColor:
		if l.BackgroundColor().A == 0xff {
			return bounds
		}
	case *Video:
		return bounds
	}
	return rect.Rect{}
}

func (o *OcclusionTracker) screenRectOf(step Step) rect.Rect {
	toScreen := step.Target.renderSurface.ScreenSpaceTransform
	return toScreen.MapRect(step.Layer.drawableContentRect).Intersect(o.screenRect)
}

// markOccludedBehindLayer reports whether l added to the occlusion.
func (o *OcclusionTracker) markOccludedBehindLayer(l *Layer) bool {
	entry := o.top()
	if entry == nil || l.drawOpacity < 1 || l.drawOpacityIsAnimating || l.drawTransformIsAnimating {
		return false
	}
	if !l.drawTransform.PreservesAxisAlignment() {
		return false
	}
	opaque := opaqueContentRect(l).Intersect(l.visibleContentRect)
	if opaque.IsEmpty() {
		return false
	}
	inTarget := l.drawTransform.MapRect(opaque)
	if l.isClipped {
		inTarget = inTarget.Intersect(l.clipRect)
	}
	inTarget = inTarget.RoundIn()
	if inTarget.Width() < o.minimumTrackingSize.Width || inTarget.Height() < o.minimumTrackingSize.Height {
		return false
	}
	entry.inTarget.Union(inTarget)

	toScreen := entry.target.renderSurface.ScreenSpaceTransform
	if toScreen.PreservesAxisAlignment() && !l.screenSpaceTransformIsAnimating {
		inScreen := toScreen.MapRect(inTarget).Intersect(o.screenRect).RoundIn()
		entry.inScreen.Union(inScreen)
		if o.occludingScreenSpaceRects != nil && !inScreen.IsEmpty() {
			*o.occludingScreenSpaceRects = append(*o.occludingScreenSpaceRects, inScreen)
		}
	}
	return true
}

// UnoccludedScreenRegion is the screen area nothing opaque covers, once
// every step has been left.
func (o *OcclusionTracker) UnoccludedScreenRegion() rect.Region {
	region := rect.NewRegion(o.screenRect)
	if len(o.stack) > 0 {
		region.SubtractRegion(o.stack[0].inScreen)
	}
	return region
}

// OverdrawMetrics counts target-space pixels drawn and culled in a frame.
type OverdrawMetrics struct {
	PixelsDrawnOpaque      float64
	PixelsDrawnTranslucent float64
	PixelsCulled           float64
}

func (m *OverdrawMetrics) didCull(t transform.Transform, before, after rect.Rect) {
	if m == nil {
		return
	}
	m.PixelsCulled += t.MapRect(before).Area() - t.MapRect(after).Area()
}

func (m *OverdrawMetrics) didDraw(t transform.Transform, visible, opaque rect.Rect) {
	if m == nil {
		return
	}
	total := t.MapRect(visible).Area()
	opaqueArea := t.MapRect(visible.Intersect(opaque)).Area()
	m.PixelsDrawnOpaque += opaqueArea
	m.PixelsDrawnTranslucent += total - opaqueArea
}
