package layer

import (
	"compositor/rect"
	"compositor/renderpass"
)

// DamageTracker accumulates, for one render surface, the area of the
// surface that changed since the previous frame.
type DamageTracker struct {
	currentDamageRect rect.Rect
	// Target-space rects of every contributing layer and surface, keyed by
	// layer ID, as of the previous and the current update.
	previousRects map[int]rect.Rect
	currentRects  map[int]rect.Rect

	forceFullDamageNextUpdate bool
}

func NewDamageTracker() *DamageTracker {
	return &DamageTracker{
		previousRects: make(map[int]rect.Rect),
		currentRects:  make(map[int]rect.Rect),
	}
}

func (d *DamageTracker) CurrentDamageRect() rect.Rect {
	return d.currentDamageRect
}

func (d *DamageTracker) ForceFullDamageNextUpdate() {
	d.forceFullDamageNextUpdate = true
}

// DidDrawDamagedArea clears the damage once it has been drawn.
func (d *DamageTracker) DidDrawDamagedArea() {
	d.currentDamageRect = rect.Rect{}
}

// UpdateDamageTrackingState recomputes the damage of the surface owned by
// targetID from the layers drawing into it.
func (d *DamageTracker) UpdateDamageTrackingState(
	layers []*Layer,
	targetID int,
	propertyChangedOnlyFromDescendant bool,
	contentRect rect.Rect,
	mask *Layer,
	filters renderpass.FilterOperations,
) {
	fromLayers := d.trackDamageFromActiveLayers(layers, targetID)
	fromMask := trackDamageFromSurfaceMask(mask)
	fromLeftovers := d.trackDamageFromLeftoverRects()

	var damage rect.Rect
	if d.forceFullDamageNextUpdate || propertyChangedOnlyFromDescendant {
		damage = contentRect
		d.forceFullDamageNextUpdate = false
	} else {
		damage = fromLayers.Union(fromMask).Union(fromLeftovers)
		damage = expandDamageForFilters(damage, filters)
	}

	d.previousRects, d.currentRects = d.currentRects, d.previousRects
	clear(d.currentRects)
	d.currentDamageRect = damage
}

// removeRectFromCurrentFrame takes the rect saved for id last frame, so
// whatever is left afterwards belongs to layers that went away.
func (d *DamageTracker) removeRectFromCurrentFrame(id int) (rect.Rect, bool) {
	r, ok := d.previousRects[id]
	delete(d.previousRects, id)
	return r, !ok
}

func (d *DamageTracker) saveRectForNextFrame(id int, r rect.Rect) {
	d.currentRects[id] = r
}

func (d *DamageTracker) trackDamageFromActiveLayers(layers []*Layer, targetID int) rect.Rect {
	var damage rect.Rect
	for _, l := range layers {
		if l.renderSurface != nil && l.id != targetID {
			damage = d.extendDamageForRenderSurface(l, damage)
		} else {
			damage = d.extendDamageForLayer(l, l.id != targetID, damage)
		}
	}
	return damage
}

func trackDamageFromSurfaceMask(mask *Layer) rect.Rect {
	if mask == nil {
		return rect.Rect{}
	}
	if mask.LayerPropertyChanged() || !mask.UpdateRect().IsEmpty() {
		return rect.FromSize(mask.Bounds())
	}
	return rect.Rect{}
}

func (d *DamageTracker) trackDamageFromLeftoverRects() rect.Rect {
	var damage rect.Rect
	for _, r := range d.previousRects {
		damage = damage.Union(r)
	}
	clear(d.previousRects)
	return damage
}

// extendDamageForLayer adds the damage of a layer drawing into the
// surface. Surface properties of the owner only damage the target it is
// composited into, not its own surface.
func (d *DamageTracker) extendDamageForLayer(l *Layer, composited bool, damage rect.Rect) rect.Rect {
	old, isNew := d.removeRectFromCurrentFrame(l.id)
	rectInTarget := l.drawTransform.MapRect(rect.FromSize(l.ContentBounds()))
	d.saveRectForNextFrame(l.id, rectInTarget)

	switch {
	case isNew || l.LayerPropertyChanged() || (composited && l.LayerSurfacePropertyChanged()):
		damage = damage.Union(rectInTarget)
		if !isNew {
			damage = damage.Union(old)
		}
	case !l.UpdateRect().IsEmpty():
		updateContentRect := layerRectToContentRect(l, l.UpdateRect())
		damage = damage.Union(l.drawTransform.MapRect(updateContentRect))
	}
	return damage
}

func (d *DamageTracker) extendDamageForRenderSurface(l *Layer, damage rect.Rect) rect.Rect {
	s := l.renderSurface
	surfaceRectInTarget := s.DrawableContentRect()
	old, isNew := d.removeRectFromCurrentFrame(l.id)
	d.saveRectForNextFrame(l.id, surfaceRectInTarget)

	var local rect.Rect
	if isNew || s.SurfacePropertyChanged() || l.LayerSurfacePropertyChanged() {
		local = s.contentRect
		damage = damage.Union(old)
	} else {
		local = s.damageTracker.CurrentDamageRect()
	}
	damage = damage.Union(s.DrawTransform.MapRect(local))

	if replica := l.ReplicaLayer(); replica != nil {
		damage = damage.Union(s.ReplicaDrawTransform.MapRect(local))

		if mask := replica.MaskLayer(); mask != nil {
			oldMask, maskIsNew := d.removeRectFromCurrentFrame(mask.id)
			maskRect := s.ReplicaDrawTransform.MapRect(rect.FromSize(mask.Bounds()))
			d.saveRectForNextFrame(mask.id, maskRect)
			if maskIsNew || mask.LayerPropertyChanged() || !mask.UpdateRect().IsEmpty() {
				damage = damage.Union(maskRect).Union(oldMask)
			}
		}
	}

	if l.BackgroundFilters().HasFilterThatMovesPixels() {
		damage = expandDamageInsideRectForFilters(damage, surfaceRectInTarget, l.BackgroundFilters())
	}
	return damage
}

func layerRectToContentRect(l *Layer, r rect.Rect) rect.Rect {
	bounds, content := l.Bounds(), l.ContentBounds()
	if bounds.IsEmpty() {
		return r
	}
	return r.Scale(content.Width/bounds.Width, content.Height/bounds.Height).RoundOut()
}

// filterOutset is how far a filter can spread a changed pixel.
func filterOutset(filters renderpass.FilterOperations) (dx, dy float64) {
	for _, f := range filters {
		switch f.Kind {
		case renderpass.Blur:
			dx += 3 * f.Amount
			dy += 3 * f.Amount
		case renderpass.DropShadow:
			dx += 3*f.Amount + max(f.OffsetX, -f.OffsetX)
			dy += 3*f.Amount + max(f.OffsetY, -f.OffsetY)
		}
	}
	return dx, dy
}

func expandDamageForFilters(damage rect.Rect, filters renderpass.FilterOperations) rect.Rect {
	if damage.IsEmpty() || !filters.HasFilterThatMovesPixels() {
		return damage
	}
	dx, dy := filterOutset(filters)
	return damage.Inflate(dx, dy)
}

// expandDamageInsideRectForFilters grows damage where it overlaps r, for a
// background filter reading what is behind r.
func expandDamageInsideRectForFilters(damage, r rect.Rect, filters renderpass.FilterOperations) rect.Rect {
	inside := damage.Intersect(r)
	if inside.IsEmpty() {
		return damage
	}
	dx, dy := filterOutset(filters)
	return damage.Union(inside.Inflate(dx, dy).Intersect(r))
}

// TrackDamageForAllSurfaces updates the damage of every surface in
// surfaceLayers, as returned by CalculateDrawProperties. Contributing
// surfaces are updated before the surfaces they draw into.
func TrackDamageForAllSurfaces(surfaceLayers []*Layer) {
	for i := len(surfaceLayers) - 1; i >= 0; i-- {
		l := surfaceLayers[i]
		s := l.renderSurface
		s.damageTracker.UpdateDamageTrackingState(s.LayerList, l.id,
			s.SurfacePropertyChangedOnlyFromDescendant(), s.contentRect, l.MaskLayer(), l.Filters())
	}
}
