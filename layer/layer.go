package layer

import (
	"fmt"
	col "image/color"
	"slices"

	"compositor/animate"
	"compositor/debug"
	"compositor/quad"
	"compositor/rect"
	"compositor/renderpass"
	"compositor/resource"
	"compositor/transform"
)

type Layer struct {
	tree *Tree
	id   int

	parent   int
	children []int
	mask     int
	replica  int

	content Content

	position          property[rect.Point]
	anchorPoint       property[rect.Point]
	bounds            property[rect.Size]
	contentBounds     property[rect.Size]
	transform         property[transform.Transform]
	sublayerTransform property[transform.Transform]
	opacity           property[float64]
	drawsContent      property[bool]
	contentsOpaque    property[bool]
	masksToBounds     property[bool]
	preserves3D       property[bool]
	backgroundColor   property[col.RGBA]
	depth             property[float64]

	filters            renderpass.FilterOperations
	backgroundFilters  renderpass.FilterOperations
	forceRenderSurface bool

	// updateRect is in layer space.
	updateRect                  rect.Rect
	layerPropertyChanged        bool
	layerSurfacePropertyChanged bool

	animations *animate.Controller

	// Computed by CalculateDrawProperties.
	drawTransform                   transform.Transform
	screenSpaceTransform            transform.Transform
	drawOpacity                     float64
	drawOpacityIsAnimating          bool
	drawTransformIsAnimating        bool
	screenSpaceTransformIsAnimating bool
	visibleContentRect              rect.Rect
	drawableContentRect             rect.Rect
	clipRect                        rect.Rect
	isClipped                       bool
	renderTarget                    int
	renderSurface                   *RenderSurface

	betweenWillDrawAndDidDraw bool
}

func newLayer(tree *Tree, id int, content Content) *Layer {
	l := &Layer{tree: tree, id: id, content: content, drawOpacity: 1}
	l.position = newProperty(rect.Point{}, subtreeChanged{l})
	l.anchorPoint = newProperty(rect.Point{}, subtreeChanged{l})
	l.bounds = newProperty(rect.Size{}, subtreeChanged{l})
	l.contentBounds = newProperty(rect.Size{}, layerChanged{l})
	l.transform = newProperty(transform.Identity(), surfaceChanged{l})
	l.sublayerTransform = newProperty(transform.Identity(), subtreeChanged{l})
	l.opacity = newProperty(1.0, surfaceChanged{l})
	l.drawsContent = newProperty(false, layerChanged{l})
	l.contentsOpaque = newProperty(false, layerChanged{l})
	l.masksToBounds = newProperty(false, subtreeChanged{l})
	l.preserves3D = newProperty(false, subtreeChanged{l})
	l.backgroundColor = newProperty(col.RGBA{}, layerChanged{l})
	l.depth = newProperty(0.0, layerChanged{l})
	l.drawTransform = transform.Identity()
	l.screenSpaceTransform = transform.Identity()
	return l
}

func (l *Layer) ID() int {
	return l.id
}

func (l *Layer) Tree() *Tree {
	return l.tree
}

func (l *Layer) Content() Content {
	return l.content
}

// TypeName names the layer kind for debugging and tracing.
func (l *Layer) TypeName() string {
	switch l.content.(type) {
	case *SolidColor:
		return "SolidColorLayer"
	case *Tiled:
		return "TiledLayer"
	case *Texture:
		return "TextureLayer"
	case *Video:
		return "VideoLayer"
	case *Delegated:
		return "DelegatedRendererLayer"
	default:
		return "Layer"
	}
}

func (l *Layer) String() string {
	return fmt.Sprint(l.TypeName(), "(id=", l.id, ", bounds=", l.Bounds(), ")")
}

// Hierarchy

func (l *Layer) Parent() *Layer {
	return l.tree.Layer(l.parent)
}

func (l *Layer) Children() []*Layer {
	out := make([]*Layer, 0, len(l.children))
	for _, id := range l.children {
		if c := l.tree.Layer(id); c != nil {
			out = append(out, c)
		}
	}
	return out
}

func (l *Layer) AddChild(child *Layer) {
	child.RemoveFromParent()
	child.parent = l.id
	l.children = append(l.children, child.id)
	child.noteLayerPropertyChangedForSubtree()
}

func (l *Layer) RemoveFromParent() {
	parent := l.Parent()
	l.parent = 0
	if parent == nil {
		return
	}
	if i := slices.Index(parent.children, l.id); i >= 0 {
		parent.children = slices.Delete(parent.children, i, i+1)
	}
	// the parent's surface now has less content
	parent.noteLayerPropertyChangedForSubtree()
}

func (l *Layer) MaskLayer() *Layer {
	return l.tree.Layer(l.mask)
}

func (l *Layer) SetMaskLayer(m *Layer) {
	id := 0
	if m != nil {
		id = m.id
	}
	if id == l.mask {
		return
	}
	l.mask = id
	l.noteLayerPropertyChangedForSubtree()
}

func (l *Layer) ReplicaLayer() *Layer {
	return l.tree.Layer(l.replica)
}

func (l *Layer) SetReplicaLayer(r *Layer) {
	id := 0
	if r != nil {
		id = r.id
		r.parent = l.id
	}
	if id == l.replica {
		return
	}
	l.replica = id
	l.noteLayerPropertyChangedForSubtree()
}

func (l *Layer) HasReplica() bool {
	return l.ReplicaLayer() != nil
}

// Attributes

func (l *Layer) Position() rect.Point        { return l.position.Get() }
func (l *Layer) SetPosition(p rect.Point)    { l.position.Set(p) }
func (l *Layer) AnchorPoint() rect.Point     { return l.anchorPoint.Get() }
func (l *Layer) SetAnchorPoint(p rect.Point) { l.anchorPoint.Set(p) }
func (l *Layer) Bounds() rect.Size           { return l.bounds.Get() }
func (l *Layer) SetBounds(s rect.Size)       { l.bounds.Set(s) }

// ContentBounds is the size the layer rasterises at. It falls back to
// Bounds when unset.
func (l *Layer) ContentBounds() rect.Size {
	if cb := l.contentBounds.Get(); !cb.IsEmpty() {
		return cb
	}
	return l.Bounds()
}

func (l *Layer) SetContentBounds(s rect.Size)                   { l.contentBounds.Set(s) }
func (l *Layer) Transform() transform.Transform                 { return l.transform.Get() }
func (l *Layer) SetTransform(t transform.Transform)             { l.transform.Set(t) }
func (l *Layer) SublayerTransform() transform.Transform         { return l.sublayerTransform.Get() }
func (l *Layer) SetSublayerTransform(t transform.Transform)     { l.sublayerTransform.Set(t) }
func (l *Layer) Opacity() float64                               { return l.opacity.Get() }
func (l *Layer) SetOpacity(o float64)                           { l.opacity.Set(o) }
func (l *Layer) DrawsContent() bool                             { return l.drawsContent.Get() }
func (l *Layer) SetDrawsContent(d bool)                         { l.drawsContent.Set(d) }
func (l *Layer) ContentsOpaque() bool                           { return l.contentsOpaque.Get() }
func (l *Layer) SetContentsOpaque(o bool)                       { l.contentsOpaque.Set(o) }
func (l *Layer) MasksToBounds() bool                            { return l.masksToBounds.Get() }
func (l *Layer) SetMasksToBounds(m bool)                        { l.masksToBounds.Set(m) }
func (l *Layer) Preserves3D() bool                              { return l.preserves3D.Get() }
func (l *Layer) SetPreserves3D(p bool)                          { l.preserves3D.Set(p) }
func (l *Layer) BackgroundColor() col.RGBA                      { return l.backgroundColor.Get() }
func (l *Layer) SetBackgroundColor(c col.RGBA)                  { l.backgroundColor.Set(c) }
func (l *Layer) Depth() float64                                 { return l.depth.Get() }
func (l *Layer) SetDepth(z float64)                             { l.depth.Set(z) }
func (l *Layer) Filters() renderpass.FilterOperations           { return l.filters }
func (l *Layer) BackgroundFilters() renderpass.FilterOperations { return l.backgroundFilters }
func (l *Layer) ForceRenderSurface() bool                       { return l.forceRenderSurface }
func (l *Layer) SetForceRenderSurface(f bool)                   { l.forceRenderSurface = f }

func (l *Layer) SetFilters(f renderpass.FilterOperations) {
	if slices.Equal(l.filters, f) {
		return
	}
	l.filters = f
	l.noteLayerPropertyChangedForSubtree()
}

func (l *Layer) SetBackgroundFilters(f renderpass.FilterOperations) {
	if slices.Equal(l.backgroundFilters, f) {
		return
	}
	l.backgroundFilters = f
	l.layerPropertyChanged = true
}

// Change tracking

func (l *Layer) UpdateRect() rect.Rect {
	return l.updateRect
}

// AddUpdateRect adds r, in layer space, to the area redrawn this frame.
func (l *Layer) AddUpdateRect(r rect.Rect) {
	l.updateRect = l.updateRect.Union(r)
}

func (l *Layer) LayerPropertyChanged() bool {
	return l.layerPropertyChanged
}

// LayerSurfacePropertyChanged also reports changes on ancestors up to the
// nearest one with a render surface, since layers in between are not
// visited by damage tracking.
func (l *Layer) LayerSurfacePropertyChanged() bool {
	if l.layerSurfacePropertyChanged {
		return true
	}
	for current := l.Parent(); current != nil && current.renderSurface == nil; current = current.Parent() {
		if current.layerSurfacePropertyChanged {
			return true
		}
	}
	return false
}

func (l *Layer) noteLayerPropertyChangedForSubtree() {
	l.layerPropertyChanged = true
	for _, c := range l.Children() {
		c.noteLayerPropertyChangedForSubtree()
	}
}

// ResetAllChangeTrackingForSubtree clears the property-changed flags and
// update rects of l, its surface, mask, replica and descendants.
func (l *Layer) ResetAllChangeTrackingForSubtree() {
	walk(l, func(d *Layer) {
		d.layerPropertyChanged = false
		d.layerSurfacePropertyChanged = false
		d.updateRect = rect.Rect{}
		if d.renderSurface != nil {
			d.renderSurface.ResetPropertyChangedFlag()
		}
	})
}

// Animation

func (l *Layer) Animations() *animate.Controller {
	if l.animations == nil {
		l.animations = animate.NewController()
	}
	return l.animations
}

func (l *Layer) SetOpacityFromAnimation(o float64) {
	l.SetOpacity(o)
}

func (l *Layer) SetTranslationFromAnimation(x, y float64) {
	l.SetTransform(transform.Translation(x, y))
}

// TickAnimations advances the layer's animations by one frame and reports
// whether any was running.
func (l *Layer) TickAnimations() bool {
	if !l.animations.HasActiveAnimation() {
		return false
	}
	l.animations.Tick(l)
	return true
}

func (l *Layer) OpacityIsAnimating() bool {
	return l.animations.IsAnimating(animate.Opacity)
}

func (l *Layer) TransformIsAnimating() bool {
	return l.animations.IsAnimating(animate.Transform)
}

// Draw properties

func (l *Layer) DrawTransform() transform.Transform        { return l.drawTransform }
func (l *Layer) ScreenSpaceTransform() transform.Transform { return l.screenSpaceTransform }
func (l *Layer) DrawOpacity() float64                      { return l.drawOpacity }
func (l *Layer) DrawOpacityIsAnimating() bool              { return l.drawOpacityIsAnimating }
func (l *Layer) DrawTransformIsAnimating() bool            { return l.drawTransformIsAnimating }
func (l *Layer) ScreenSpaceTransformIsAnimating() bool     { return l.screenSpaceTransformIsAnimating }
func (l *Layer) VisibleContentRect() rect.Rect             { return l.visibleContentRect }
func (l *Layer) DrawableContentRect() rect.Rect            { return l.drawableContentRect }
func (l *Layer) ClipRect() rect.Rect                       { return l.clipRect }
func (l *Layer) IsClipped() bool                           { return l.isClipped }
func (l *Layer) RenderSurface() *RenderSurface             { return l.renderSurface }

// RenderTarget is the layer owning the surface this layer draws into. A
// layer with its own surface is its own target.
func (l *Layer) RenderTarget() *Layer {
	return l.tree.Layer(l.renderTarget)
}

func (l *Layer) createRenderSurface() *RenderSurface {
	if l.renderSurface == nil {
		l.renderSurface = newRenderSurface(l)
	}
	return l.renderSurface
}

func (l *Layer) ClearRenderSurface() {
	l.renderSurface = nil
}

// Drawing

// WillDraw prepares per-frame resources. It must be balanced by DidDraw
// before the next WillDraw.
func (l *Layer) WillDraw(p *resource.Provider) {
	if l.betweenWillDrawAndDidDraw {
		panic(fmt.Sprint("layer ", l.id, ": WillDraw called twice without DidDraw"))
	}
	l.betweenWillDrawAndDidDraw = true
	if v, ok := l.content.(*Video); ok {
		v.willDraw(p)
	}
}

func (l *Layer) DidDraw(p *resource.Provider) {
	if !l.betweenWillDrawAndDidDraw {
		panic(fmt.Sprint("layer ", l.id, ": DidDraw called without WillDraw"))
	}
	l.betweenWillDrawAndDidDraw = false
	if v, ok := l.content.(*Video); ok {
		v.didDraw(p)
	}
}

// CreateSharedQuadState captures the layer's draw properties for the quads
// it is about to append.
func (l *Layer) CreateSharedQuadState() *quad.SharedQuadState {
	sqs := quad.NewSharedQuadState()
	sqs.SetAll(l.drawTransform, l.visibleContentRect, l.drawableContentRect, l.clipRect, l.isClipped, l.drawOpacity)
	return sqs
}

func (l *Layer) appendDebugBorderQuad(sink quad.Sink, sqs *quad.SharedQuadState, data *quad.AppendData) {
	if !l.tree.settings.ShowDebugBorders {
		return
	}
	r := rect.FromSize(l.ContentBounds())
	sink.Append(quad.NewDebugBorder(sqs, r, debug.LayerBorder(l.TypeName()), debug.LayerBorderWidth), data)
}

// AppendQuads emits the layer's quads into sink, back to front.
func (l *Layer) AppendQuads(sink quad.Sink, data *quad.AppendData) {
	switch c := l.content.(type) {
	case *Container:
		sqs := sink.UseSharedQuadState(l.CreateSharedQuadState())
		l.appendDebugBorderQuad(sink, sqs, data)
	case *SolidColor:
		c.appendQuads(l, sink, data)
	case *Tiled:
		c.appendQuads(l, sink, data)
	case *Texture:
		c.appendQuads(l, sink, data)
	case *Video:
		c.appendQuads(l, sink, data)
	case *Delegated:
		c.appendQuads(l, sink, data)
	}
}

// ContentsResourceID is the resource a mask layer is sampled from.
func (l *Layer) ContentsResourceID() resource.ID {
	switch c := l.content.(type) {
	case *Texture:
		return c.resourceID
	case *Tiled:
		return c.contentsResourceID()
	}
	return resource.None
}

// PushResources uploads content that is not yet backed by a resource.
func (l *Layer) PushResources(p *resource.Provider) error {
	switch c := l.content.(type) {
	case *Texture:
		return c.pushResources(p)
	case *Tiled:
		return c.pushResources(l, p)
	}
	return nil
}

// DidLoseContext drops every resource ID the layer holds.
func (l *Layer) DidLoseContext() {
	switch c := l.content.(type) {
	case *Texture:
		c.resourceID = resource.None
	case *Tiled:
		clear(c.tiles)
	case *Video:
		c.planes = [3]resource.ID{}
	case *Delegated:
		c.clearRenderPasses()
	}
}

// HasContributingDelegatedRenderPasses reports whether AppendRenderPasses
// of the target surface must ask this layer for extra passes.
func (l *Layer) HasContributingDelegatedRenderPasses() bool {
	d, ok := l.content.(*Delegated)
	return ok && len(d.passes) > 1
}
