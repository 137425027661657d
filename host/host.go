// Package host turns a layer tree into the render passes of a frame and
// hands them to a Renderer.
package host

import (
	col "image/color"

	"compositor/config"
	"compositor/debug"
	"compositor/layer"
	"compositor/quad"
	"compositor/rect"
	"compositor/renderpass"
	"compositor/resource"
	"compositor/trace"
	"compositor/transform"
)

// Host drives frames for one layer tree on the compositor thread. Every
// PrepareToDraw, successful or not, must be followed by DidDrawAllLayers.
type Host struct {
	tree      *layer.Tree
	renderer  Renderer
	resources *resource.Provider
	tracer    *trace.Tracer

	viewport    rect.Size
	insideFrame bool
	frameNumber int

	lastOverdraw layer.OverdrawMetrics
}

func New(tree *layer.Tree) *Host {
	return &Host{tree: tree}
}

func (h *Host) Tree() *layer.Tree {
	return h.tree
}

func (h *Host) Settings() config.Settings {
	return h.tree.Settings()
}

func (h *Host) SetTracer(t *trace.Tracer) {
	h.tracer = t
}

func (h *Host) Renderer() Renderer {
	return h.renderer
}

func (h *Host) ResourceProvider() *resource.Provider {
	return h.resources
}

func (h *Host) FrameNumber() int {
	return h.frameNumber
}

// LastOverdrawMetrics returns the pixel counts of the last prepared frame.
func (h *Host) LastOverdrawMetrics() layer.OverdrawMetrics {
	return h.lastOverdraw
}

func (h *Host) ViewportSize() rect.Size {
	return h.viewport
}

func (h *Host) SetViewportSize(size rect.Size) {
	if size == h.viewport {
		return
	}
	h.viewport = size
	h.setFullRootLayerDamage()
}

func (h *Host) setFullRootLayerDamage() {
	if root := h.tree.Root(); root != nil && root.RenderSurface() != nil {
		root.RenderSurface().DamageTracker().ForceFullDamageNextUpdate()
	}
}

// InitializeRenderer installs a renderer and the resource provider of its
// context. Any previous context is treated as lost: layers drop their
// resources and render surfaces. It reports false if the new context is
// unusable.
func (h *Host) InitializeRenderer(r Renderer, resources *resource.Provider) bool {
	if h.renderer != nil {
		h.sendDidLoseContextRecursive()
		h.clearRenderSurfaces()
	}
	h.renderer, h.resources = nil, nil
	if r == nil || resources == nil || r.IsContextLost() || resources.IsContextLost() {
		debug.Logger().Warn("renderer initialization failed")
		return false
	}
	h.renderer, h.resources = r, resources
	h.setFullRootLayerDamage()
	return true
}

// IsContextLost reports whether the renderer lost its context. The embedder
// recovers by calling InitializeRenderer with a new renderer.
func (h *Host) IsContextLost() bool {
	return h.renderer != nil && h.renderer.IsContextLost()
}

func (h *Host) sendDidLoseContextRecursive() {
	h.tree.Walk(func(l *layer.Layer) {
		l.DidLoseContext()
	})
}

func (h *Host) clearRenderSurfaces() {
	h.tree.Walk(func(l *layer.Layer) {
		l.ClearRenderSurface()
	})
}

// CanDraw reports whether a frame can be drawn at all.
func (h *Host) CanDraw() bool {
	reason := ""
	switch {
	case h.tree.Root() == nil:
		reason = "no root layer"
	case h.viewport.IsEmpty():
		reason = "empty viewport"
	case h.renderer == nil:
		reason = "no renderer"
	case h.renderer.IsContextLost():
		reason = "context lost"
	}
	if reason != "" {
		debug.Logger().Debug("cannot draw", "reason", reason)
		return false
	}
	return true
}

// Animate advances every layer animation by one frame. It reports whether
// any animation is still running afterwards.
func (h *Host) Animate() bool {
	running := false
	h.tree.Walk(func(l *layer.Layer) {
		if l.TickAnimations() && l.Animations().HasActiveAnimation() {
			running = true
		}
	})
	return running
}

// PrepareToDraw fills frame with the render passes for the current state
// of the tree. It reports false when the frame should not be drawn; the
// caller must still call DidDrawAllLayers.
func (h *Host) PrepareToDraw(frame *FrameData) bool {
	defer h.tracer.Scoped("PrepareToDraw")()
	if h.insideFrame {
		panic("host: PrepareToDraw called again before DidDrawAllLayers")
	}
	h.insideFrame = true
	h.frameNumber++
	frame.reset()

	if !h.CanDraw() {
		return false
	}
	if !h.calculateRenderPasses(frame) {
		debug.Logger().Debug("frame vetoed", "frame", h.frameNumber, "reason", "missing tiles on animating layer")
		return false
	}
	return true
}

func (h *Host) pushResources() {
	h.tree.Walk(func(l *layer.Layer) {
		if err := l.PushResources(h.resources); err != nil {
			debug.Logger().Warn("resource upload failed", "layer", l.ID(), "err", err)
		}
	})
}

func (h *Host) calculateRenderPasses(frame *FrameData) bool {
	defer h.tracer.Scoped("CalculateRenderPasses")()
	settings := h.Settings()
	root := h.tree.Root()

	h.pushResources()
	frame.RenderSurfaceLayerList = layer.CalculateDrawProperties(root, h.viewport, settings.MaxTextureSize)
	layer.TrackDamageForAllSurfaces(frame.RenderSurfaceLayerList)

	// contributing passes before the passes drawing them
	for i := len(frame.RenderSurfaceLayerList) - 1; i >= 0; i-- {
		frame.RenderSurfaceLayerList[i].RenderSurface().AppendRenderPasses(frame)
	}

	steps := layer.FrontToBack(root)
	tracker := layer.NewOcclusionTracker(root.RenderSurface().ContentRect(), settings.MinimumOcclusionTrackingSize())
	tracker.SetScreenSpaceRectsContainers(&frame.OccludingScreenSpaceRects, &frame.NonOccludingScreenSpaceRects)
	occlusion := make([]*layer.Occlusion, len(steps))
	for i, step := range steps {
		occlusion[i] = tracker.EnterLayer(step)
		tracker.LeaveLayer(step)
	}

	drawFrame := true
	for i := len(steps) - 1; i >= 0; i-- {
		step := steps[i]
		if step.Kind == layer.TargetSurface {
			continue
		}
		targetPass := frame.FindRenderPass(step.Target.RenderSurface().RenderPassID())
		data := quad.NewAppendData(targetPass.ID)
		culler := layer.NewQuadCuller(targetPass, occlusion[i], settings.ShowCullingWithDebugBorderQuads, tracker.OverdrawMetrics())

		if step.Kind == layer.ContributingSurface {
			appendQuadsForRenderSurfaceLayer(culler, data, step.Layer)
		} else if !h.appendQuadsForLayer(frame, culler, data, step.Layer) {
			continue
		}

		if data.HadOcclusionFromOutsideTargetSurface {
			targetPass.HasOcclusionFromOutsideTargetSurface = true
		}
		if data.HadMissingTiles {
			l := step.Layer
			if l.OpacityIsAnimating() || l.DrawTransformIsAnimating() || l.ScreenSpaceTransformIsAnimating() {
				drawFrame = false
			}
		}
	}

	if !settings.HasTransparentBackground {
		rootPass := frame.RenderPasses.Root()
		rootPass.HasTransparentBackground = false
		appendQuadsToFillScreen(rootPass, settings.Background(), tracker.UnoccludedScreenRegion())
	}

	h.lastOverdraw = *tracker.OverdrawMetrics()
	if settings.ShowOverdrawInTracing {
		h.tracer.Counter("overdraw", map[string]any{
			"opaque":      h.lastOverdraw.PixelsDrawnOpaque,
			"translucent": h.lastOverdraw.PixelsDrawnTranslucent,
			"culled":      h.lastOverdraw.PixelsCulled,
		})
	}

	RemoveRenderPasses(CullRenderPassesWithNoQuads{}, frame)
	h.renderer.DecideRenderPassAllocationsForFrame(frame.RenderPasses)
	RemoveRenderPasses(CullRenderPassesWithCachedTextures{Renderer: h.renderer, Tracer: h.tracer}, frame)
	return drawFrame
}

func appendQuadsForRenderSurfaceLayer(sink quad.Sink, data *quad.AppendData, l *layer.Layer) {
	s := l.RenderSurface()
	// the replica sits behind the surface
	if l.HasReplica() {
		s.AppendQuads(sink, data, true, s.RenderPassID())
	}
	s.AppendQuads(sink, data, false, s.RenderPassID())
}

// appendQuadsForLayer reports false if the layer is not drawn this frame.
func (h *Host) appendQuadsForLayer(frame *FrameData, sink quad.Sink, data *quad.AppendData, l *layer.Layer) bool {
	if l.VisibleContentRect().IsEmpty() {
		return false
	}
	l.WillDraw(h.resources)
	frame.WillDrawLayers = append(frame.WillDrawLayers, l)

	if l.HasContributingDelegatedRenderPasses() {
		for id := l.FirstContributingRenderPassID(); ; id = l.NextContributingRenderPassID(id) {
			pass := frame.FindRenderPass(id)
			if pass == nil {
				break
			}
			l.AppendQuads(layer.NewQuadCuller(pass, nil, false, nil), quad.NewAppendData(id))
		}
	}
	l.AppendQuads(sink, data)
	return true
}

// appendQuadsToFillScreen puts solid quads in the background colour behind
// everything else in the root pass, over the screen area nothing opaque
// covers.
func appendQuadsToFillScreen(rootPass *renderpass.RenderPass, background col.RGBA, unoccluded rect.Region) {
	if unoccluded.IsEmpty() {
		return
	}
	screen := rootPass.OutputRect
	sqs := quad.NewSharedQuadState()
	sqs.SetAll(transform.Identity(), screen, screen, screen, false, 1)
	sqs = rootPass.AppendSharedQuadState(sqs)

	fill := make([]quad.DrawQuad, 0, len(unoccluded.Rects())+len(rootPass.QuadList))
	for _, r := range unoccluded.Rects() {
		fill = append(fill, quad.NewSolidColor(sqs, r, background))
	}
	rootPass.QuadList = append(fill, rootPass.QuadList...)
}

// DrawLayers draws the prepared frame.
func (h *Host) DrawLayers(frame *FrameData) {
	defer h.tracer.Scoped("DrawLayers")()
	if !h.insideFrame {
		panic("host: DrawLayers called without PrepareToDraw")
	}
	if len(frame.RenderPasses) == 0 {
		return
	}
	h.renderer.DrawFrame(frame.RenderPasses, frame.RenderPassesByID)
}

// DidDrawAllLayers closes the frame opened by PrepareToDraw, whether or not
// it was drawn. The frame's damage is consumed either way.
func (h *Host) DidDrawAllLayers(frame *FrameData) {
	if !h.insideFrame {
		panic("host: DidDrawAllLayers called without PrepareToDraw")
	}
	h.insideFrame = false
	for _, l := range frame.WillDrawLayers {
		l.DidDraw(h.resources)
	}
	frame.WillDrawLayers = nil

	for _, l := range frame.RenderSurfaceLayerList {
		if s := l.RenderSurface(); s != nil {
			s.DamageTracker().DidDrawDamagedArea()
		}
	}
	if root := h.tree.Root(); root != nil {
		root.ResetAllChangeTrackingForSubtree()
	}
	if h.resources != nil {
		h.resources.MarkPendingUploadsAsNonBlocking()
	}
}
