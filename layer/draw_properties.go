package layer

import (
	"compositor/rect"
	"compositor/transform"
)

type drawPropertiesWalk struct {
	root           *Layer
	maxTextureSize float64
	surfaceLayers  []*Layer
}

// drawContext is what a layer inherits from its parent during the walk.
type drawContext struct {
	// parentMatrix maps the parent's sublayer space into the current
	// target; fullHierarchyMatrix maps it to the screen.
	parentMatrix        transform.Transform
	fullHierarchyMatrix transform.Transform

	clipRect      rect.Rect
	ancestorClips bool

	target    *Layer
	layerList *[]*Layer

	opacity          float64
	opacityAnimating bool

	transformAnimatingInTarget bool
	transformAnimatingInScreen bool

	parentPreserves3D bool
}

// CalculateDrawProperties computes transforms, opacities, clips, render
// surfaces and per-surface layer lists for the tree under root. It returns
// the layers owning a render surface, each before the surfaces it
// contains, with root first.
func CalculateDrawProperties(root *Layer, viewport rect.Size, maxTextureSize int) []*Layer {
	if root == nil {
		return nil
	}
	w := &drawPropertiesWalk{root: root, maxTextureSize: float64(maxTextureSize)}

	viewportRect := rect.FromSize(viewport)
	s := root.createRenderSurface()
	s.clearLayerLists()
	s.DrawTransform = transform.Identity()
	s.ScreenSpaceTransform = transform.Identity()
	s.DrawOpacity = 1
	s.SetContentRect(viewportRect)
	s.SetClipRect(viewportRect, true)
	w.surfaceLayers = append(w.surfaceLayers, root)

	w.visit(root, drawContext{
		parentMatrix:        transform.Identity(),
		fullHierarchyMatrix: transform.Identity(),
		clipRect:            viewportRect,
		ancestorClips:       true,
		target:              root,
		layerList:           &s.LayerList,
		opacity:             1,
	})

	for _, sl := range w.surfaceLayers {
		for _, l := range sl.renderSurface.LayerList {
			if l.renderSurface != nil && l != sl {
				continue
			}
			l.visibleContentRect = calculateVisibleContentRect(l)
		}
	}
	return w.surfaceLayers
}

func localTransform(position, anchor rect.Point, bounds rect.Size, t transform.Transform) transform.Transform {
	ax, ay := anchor.X*bounds.Width, anchor.Y*bounds.Height
	return transform.Translation(position.X+ax, position.Y+ay).Concat(t).Concat(transform.Translation(-ax, -ay))
}

func contentScale(l *Layer) transform.Transform {
	bounds, cb := l.Bounds(), l.ContentBounds()
	if bounds.IsEmpty() || cb.IsEmpty() {
		return transform.Identity()
	}
	return transform.Scaling(bounds.Width/cb.Width, bounds.Height/cb.Height)
}

func (l *Layer) drawsContentOrDescendant() (drawing int) {
	if l.DrawsContent() && !l.Bounds().IsEmpty() {
		drawing++
	}
	for _, c := range l.Children() {
		drawing += c.drawsContentOrDescendant()
		if drawing > 1 {
			return drawing
		}
	}
	return drawing
}

func (w *drawPropertiesWalk) needsRenderSurface(l *Layer, ctx drawContext, combined transform.Transform) bool {
	if l.ForceRenderSurface() || l.MaskLayer() != nil || l.ReplicaLayer() != nil {
		return true
	}
	if !l.Filters().IsEmpty() || !l.BackgroundFilters().IsEmpty() {
		return true
	}
	descendants := 0
	for _, c := range l.Children() {
		descendants += c.drawsContentOrDescendant()
	}
	if descendants == 0 {
		return false
	}
	// flattening a 3D rendering context
	if ctx.parentPreserves3D && !l.Preserves3D() {
		return true
	}
	translucent := l.Opacity() < 1 || l.OpacityIsAnimating()
	if translucent && !l.Preserves3D() && (l.DrawsContent() || descendants > 1) {
		return true
	}
	if l.MasksToBounds() && !combined.PreservesAxisAlignment() {
		return true
	}
	return false
}

func (w *drawPropertiesWalk) visit(l *Layer, ctx drawContext) rect.Rect {
	isRoot := l == w.root
	local := localTransform(l.Position(), l.AnchorPoint(), l.Bounds(), l.Transform())
	combined := ctx.parentMatrix.Concat(local)
	screen := ctx.fullHierarchyMatrix.Concat(local)
	scale := contentScale(l)

	if !isRoot && ((l.Opacity() == 0 && !l.OpacityIsAnimating()) || !combined.IsInvertible()) {
		l.ClearRenderSurface()
		return rect.Rect{}
	}

	accumulatedOpacity := ctx.opacity * l.Opacity()
	opacityAnimating := ctx.opacityAnimating || l.OpacityIsAnimating()
	l.drawTransformIsAnimating = ctx.transformAnimatingInTarget || l.TransformIsAnimating()
	l.screenSpaceTransformIsAnimating = ctx.transformAnimatingInScreen || l.TransformIsAnimating()

	next := ctx
	next.parentPreserves3D = l.Preserves3D()
	next.transformAnimatingInTarget = l.drawTransformIsAnimating
	next.transformAnimatingInScreen = l.screenSpaceTransformIsAnimating

	ownSurface := !isRoot && w.needsRenderSurface(l, ctx, combined)
	switch {
	case isRoot:
		l.drawTransform = combined.Concat(scale)
		l.screenSpaceTransform = screen.Concat(scale)
		l.drawOpacity = accumulatedOpacity
		l.drawOpacityIsAnimating = opacityAnimating
		l.renderTarget = l.id
		l.clipRect, l.isClipped = ctx.clipRect, true
		next.parentMatrix, next.fullHierarchyMatrix = combined, screen
		next.opacity, next.opacityAnimating = accumulatedOpacity, opacityAnimating

	case ownSurface:
		s := l.createRenderSurface()
		s.clearLayerLists()
		s.DrawTransform = combined
		s.ScreenSpaceTransform = screen
		s.DrawOpacity = accumulatedOpacity
		s.DrawOpacityIsAnimating = opacityAnimating
		if r := l.ReplicaLayer(); r != nil {
			replicaLocal := localTransform(r.Position(), l.AnchorPoint(), l.Bounds(), r.Transform())
			s.ReplicaDrawTransform = combined.Concat(replicaLocal)
			s.ReplicaScreenSpaceTransform = screen.Concat(replicaLocal)
		}
		if ctx.ancestorClips {
			s.SetClipRect(ctx.clipRect, true)
		} else {
			s.SetClipRect(rect.Rect{}, false)
		}
		w.surfaceLayers = append(w.surfaceLayers, l)

		l.drawTransform = scale
		l.screenSpaceTransform = screen.Concat(scale)
		l.drawOpacity = 1
		l.drawOpacityIsAnimating = false
		l.renderTarget = l.id
		l.clipRect, l.isClipped = rect.Rect{}, false

		next.parentMatrix, next.fullHierarchyMatrix = transform.Identity(), screen
		next.clipRect, next.ancestorClips = rect.Rect{}, false
		next.target = l
		next.layerList = &s.LayerList
		next.opacity, next.opacityAnimating = 1, false
		next.transformAnimatingInTarget = false

	default:
		l.ClearRenderSurface()
		l.drawTransform = combined.Concat(scale)
		l.screenSpaceTransform = screen.Concat(scale)
		l.drawOpacity = accumulatedOpacity
		l.drawOpacityIsAnimating = opacityAnimating
		l.renderTarget = ctx.target.id
		l.clipRect, l.isClipped = ctx.clipRect, ctx.ancestorClips
		if !ctx.ancestorClips {
			l.clipRect = rect.Rect{}
		}
		next.parentMatrix, next.fullHierarchyMatrix = combined, screen
		next.opacity, next.opacityAnimating = accumulatedOpacity, opacityAnimating
	}

	if l.MasksToBounds() {
		boundsInTarget := next.parentMatrix.MapRect(rect.FromSize(l.Bounds()))
		if next.ancestorClips {
			next.clipRect = next.clipRect.Intersect(boundsInTarget)
		} else {
			next.clipRect = boundsInTarget
		}
		next.ancestorClips = true
	}

	bounds := l.Bounds()
	ax, ay := l.AnchorPoint().X*bounds.Width, l.AnchorPoint().Y*bounds.Height
	sublayer := transform.Translation(ax, ay).Concat(l.SublayerTransform()).Concat(transform.Translation(-ax, -ay))
	next.parentMatrix = next.parentMatrix.Concat(sublayer)
	next.fullHierarchyMatrix = next.fullHierarchyMatrix.Concat(sublayer)

	if l.DrawsContent() && !bounds.IsEmpty() {
		*next.layerList = append(*next.layerList, l)
		if l.HasContributingDelegatedRenderPasses() {
			next.target.renderSurface.addContributingDelegatedRenderPassLayer(l)
		}
	}

	children := l.Children()
	if l.Preserves3D() {
		SortLayers(children)
	}
	var subtree rect.Rect
	for _, c := range children {
		subtree = subtree.Union(w.visit(c, next))
	}

	l.drawableContentRect = rect.Rect{}
	if l.DrawsContent() {
		l.drawableContentRect = l.drawTransform.MapRect(rect.FromSize(l.ContentBounds()))
		if l.isClipped {
			l.drawableContentRect = l.drawableContentRect.Intersect(l.clipRect)
		}
	}
	subtree = subtree.Union(l.drawableContentRect)

	if !ownSurface {
		return subtree
	}

	s := l.renderSurface
	if len(s.LayerList) == 0 {
		// nothing draws into it, so it is not needed
		l.ClearRenderSurface()
		w.surfaceLayers = w.surfaceLayers[:len(w.surfaceLayers)-1]
		return rect.Rect{}
	}
	content := subtree
	if s.isClipped {
		if inverse, ok := s.DrawTransform.Inverse(); ok {
			content = content.Intersect(inverse.MapRect(s.clipRect))
		}
	}
	if w.maxTextureSize > 0 {
		content.Right = min(content.Right, content.Left+w.maxTextureSize)
		content.Bottom = min(content.Bottom, content.Top+w.maxTextureSize)
	}
	s.SetContentRect(content.RoundOut())

	*ctx.layerList = append(*ctx.layerList, l)
	return s.DrawableContentRect()
}

// calculateVisibleContentRect returns the part of the layer's content,
// in content space, that is inside its target surface and clip.
func calculateVisibleContentRect(l *Layer) rect.Rect {
	bounds := rect.FromSize(l.ContentBounds())
	target := l.RenderTarget()
	if target == nil || target.renderSurface == nil {
		return rect.Rect{}
	}
	visible := l.drawableContentRect.Intersect(target.renderSurface.contentRect)
	if visible.IsEmpty() {
		return rect.Rect{}
	}
	inverse, ok := l.drawTransform.Inverse()
	if !ok {
		return bounds
	}
	return inverse.MapRect(visible).Intersect(bounds).RoundOut()
}
