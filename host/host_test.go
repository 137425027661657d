package host_test

import (
	"bytes"
	"encoding/json"
	"image"
	col "image/color"
	"testing"

	"compositor/animate"
	"compositor/config"
	"compositor/host"
	"compositor/layer"
	"compositor/quad"
	"compositor/rect"
	"compositor/renderpass"
	"compositor/resource"
	"compositor/trace"
	"compositor/transform"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/draw"
)

var viewport = rect.Size{Width: 100, Height: 100}

type fakeRenderer struct {
	cached  map[renderpass.ID]bool
	lost    bool
	decided [][]renderpass.ID
	drawn   [][]renderpass.ID
}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{cached: make(map[renderpass.ID]bool)}
}

func (r *fakeRenderer) IsContextLost() bool { return r.lost }

func (r *fakeRenderer) HaveCachedResourcesForRenderPassID(id renderpass.ID) bool {
	return r.cached[id]
}

func (r *fakeRenderer) DecideRenderPassAllocationsForFrame(passes renderpass.List) {
	r.decided = append(r.decided, passes.IDs())
}

func (r *fakeRenderer) DrawFrame(passes renderpass.List, _ renderpass.IDMap) {
	r.drawn = append(r.drawn, passes.IDs())
}

func newHost(t *testing.T, settings config.Settings) (*host.Host, *layer.Layer, *fakeRenderer) {
	t.Helper()
	tree := layer.NewTree(settings)
	root := tree.NewLayer(&layer.Container{})
	root.SetBounds(viewport)
	tree.SetRoot(root)

	h := host.New(tree)
	h.SetViewportSize(viewport)
	r := newFakeRenderer()
	require.True(t, h.InitializeRenderer(r, resource.NewProvider(settings.MaxTextureSize)))
	return h, root, r
}

func transparentSettings() config.Settings {
	s := config.Default()
	s.HasTransparentBackground = true
	return s
}

func addSolidLayer(parent *layer.Layer, x, y, w, h float64, c col.RGBA) *layer.Layer {
	l := parent.Tree().NewLayer(&layer.SolidColor{})
	l.SetPosition(rect.Point{X: x, Y: y})
	l.SetBounds(rect.Size{Width: w, Height: h})
	l.SetDrawsContent(true)
	l.SetBackgroundColor(c)
	parent.AddChild(l)
	return l
}

func solidImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(red), image.Point{}, draw.Src)
	return img
}

// drawFrame runs one full frame and returns whether it was drawn.
func drawFrame(h *host.Host, frame *host.FrameData) bool {
	ok := h.PrepareToDraw(frame)
	if ok {
		h.DrawLayers(frame)
	}
	h.DidDrawAllLayers(frame)
	return ok
}

var (
	red  = col.RGBA{R: 255, A: 255}
	blue = col.RGBA{B: 255, A: 128}
)

func TestSingleLayerFrame(t *testing.T) {
	h, root, r := newHost(t, config.Default())
	child := addSolidLayer(root, 10, 10, 20, 20, blue)

	frame := host.NewFrameData()
	require.True(t, drawFrame(h, frame))

	require.Len(t, frame.RenderPasses, 1)
	pass := frame.RenderPasses.Root()
	assert.Equal(t, root.RenderSurface().RenderPassID(), pass.ID)
	assert.False(t, pass.HasTransparentBackground)
	require.Len(t, pass.QuadList, 2)

	fill := pass.QuadList[0].(*quad.SolidColorQuad)
	assert.Equal(t, rect.FromSize(viewport), fill.Rect)
	assert.Equal(t, col.RGBA{R: 255, G: 255, B: 255, A: 255}, fill.Color)

	q := pass.QuadList[1].(*quad.SolidColorQuad)
	assert.Equal(t, rect.XYWH(0, 0, 20, 20), q.Rect)
	assert.True(t, q.QuadTransform().Equal(transform.Translation(10, 10)))
	assert.Empty(t, frame.WillDrawLayers)

	assert.Equal(t, [][]renderpass.ID{{pass.ID}}, r.drawn)
	// the new layer damages the frame, and drawing leaves that on the pass
	assert.False(t, pass.DamageRect.IsEmpty())
	assert.True(t, pass.DamageRect.Contains(rect.XYWH(10, 10, 20, 20)), "got %v", pass.DamageRect)
	assert.Equal(t, 1, h.FrameNumber())
	assert.False(t, child.LayerPropertyChanged())
}

func TestBackgroundFillSkipsOccludedArea(t *testing.T) {
	h, root, _ := newHost(t, config.Default())
	addSolidLayer(root, 0, 0, 100, 50, red)

	frame := host.NewFrameData()
	require.True(t, drawFrame(h, frame))

	pass := frame.RenderPasses.Root()
	require.Len(t, pass.QuadList, 2)
	assert.Equal(t, rect.XYWH(0, 50, 100, 50), pass.QuadList[0].Base().Rect)
	assert.Equal(t, []rect.Rect{rect.XYWH(0, 0, 100, 50)}, frame.OccludingScreenSpaceRects)
}

func TestTransparentBackgroundHasNoFill(t *testing.T) {
	h, root, _ := newHost(t, transparentSettings())
	addSolidLayer(root, 10, 10, 20, 20, blue)

	frame := host.NewFrameData()
	require.True(t, drawFrame(h, frame))

	pass := frame.RenderPasses.Root()
	assert.True(t, pass.HasTransparentBackground)
	assert.Len(t, pass.QuadList, 1)
	assert.Equal(t, []rect.Rect{rect.XYWH(10, 10, 20, 20)}, frame.NonOccludingScreenSpaceRects)
}

func TestOccludedLayerIsCulled(t *testing.T) {
	h, root, _ := newHost(t, transparentSettings())
	addSolidLayer(root, 10, 10, 20, 20, red)
	addSolidLayer(root, 0, 0, 50, 50, red)

	frame := host.NewFrameData()
	require.True(t, drawFrame(h, frame))

	pass := frame.RenderPasses.Root()
	require.Len(t, pass.QuadList, 1)
	assert.Equal(t, rect.XYWH(0, 0, 50, 50), pass.QuadList[0].Base().Rect)
	assert.InDelta(t, 400, h.LastOverdrawMetrics().PixelsCulled, 1e-9)
}

// newDelegatedHost builds a root with two surfaces: owner, holding a
// delegated layer with a three-pass frame, and sibling after it.
func newDelegatedHost(t *testing.T) (h *host.Host, r *fakeRenderer, owner, delegated, sibling *layer.Layer) {
	h, root, r := newHost(t, transparentSettings())
	tree := h.Tree()

	owner = addSolidLayer(root, 5, 5, 15, 15, red)
	owner.SetForceRenderSurface(true)

	delegated = tree.NewLayer(&layer.Delegated{})
	delegated.SetPosition(rect.Point{X: 3, Y: 3})
	delegated.SetBounds(rect.Size{Width: 10, Height: 10})
	delegated.SetDrawsContent(true)
	delegated.SetTransform(transform.Translation(1, 1))
	owner.AddChild(delegated)

	sibling = addSolidLayer(root, 20, 20, 14, 14, red)
	sibling.SetForceRenderSurface(true)

	var passes renderpass.List
	newPass := func(index int, output rect.Rect) *renderpass.RenderPass {
		p := renderpass.New(renderpass.ID{LayerID: 9, Index: index}, output, rect.Rect{}, transform.Identity())
		passes = append(passes, p)
		return p
	}
	addSolid := func(p *renderpass.RenderPass, r rect.Rect) {
		sqs := p.AppendSharedQuadState(quad.NewSharedQuadState())
		p.AppendQuad(quad.NewSolidColor(sqs, r, red))
	}
	addRenderPassQuad := func(p, drawn *renderpass.RenderPass) {
		sqs := p.AppendSharedQuadState(quad.NewSharedQuadState())
		p.AppendQuad(quad.NewRenderPass(sqs, drawn.OutputRect, drawn.ID, false, resource.None, rect.Rect{}))
	}
	pass1 := newPass(6, rect.XYWH(6, 6, 6, 6))
	addSolid(pass1, rect.XYWH(0, 0, 6, 6))
	pass2 := newPass(7, rect.XYWH(7, 7, 7, 7))
	addSolid(pass2, rect.XYWH(0, 0, 7, 7))
	addRenderPassQuad(pass2, pass1)
	pass3 := newPass(8, rect.XYWH(8, 8, 8, 8))
	addRenderPassQuad(pass3, pass2)
	delegated.SetRenderPasses(passes)
	return h, r, owner, delegated, sibling
}

func TestDelegatedPassesAreSplicedIntoFrame(t *testing.T) {
	h, _, owner, delegated, sibling := newDelegatedHost(t)

	frame := host.NewFrameData()
	require.True(t, drawFrame(h, frame))

	root := h.Tree().Root()
	d := delegated.ID()
	require.Equal(t, []renderpass.ID{
		{LayerID: sibling.ID()},
		{LayerID: d, Index: 1},
		{LayerID: d, Index: 2},
		{LayerID: owner.ID()},
		{LayerID: root.ID()},
	}, frame.RenderPasses.IDs())

	pass1 := frame.RenderPasses[1]
	assert.Equal(t, rect.XYWH(6, 6, 6, 6), pass1.OutputRect)
	require.Len(t, pass1.QuadList, 1)
	assert.True(t, pass1.QuadList[0].Base().QuadTransform().IsIdentity())

	pass2 := frame.RenderPasses[2]
	assert.Equal(t, rect.XYWH(7, 7, 7, 7), pass2.OutputRect)
	require.Len(t, pass2.QuadList, 2)
	assert.Equal(t, renderpass.ID{LayerID: d, Index: 1}, pass2.QuadList[1].(*quad.RenderPassQuad).RenderPassID)

	ownerPass := frame.RenderPasses[3]
	require.Len(t, ownerPass.QuadList, 2)
	assert.Equal(t, rect.XYWH(0, 0, 15, 15), ownerPass.QuadList[0].Base().Rect)
	merged := ownerPass.QuadList[1].(*quad.RenderPassQuad)
	assert.Equal(t, renderpass.ID{LayerID: d, Index: 2}, merged.RenderPassID)
	assert.Equal(t, rect.XYWH(7, 7, 7, 7), merged.Rect)
	assert.True(t, merged.QuadTransform().Equal(transform.Translation(4, 4)), "got %v", merged.QuadTransform())

	rootPass := frame.RenderPasses[4]
	require.Len(t, rootPass.QuadList, 2)
	assert.Equal(t, owner.RenderSurface().RenderPassID(), rootPass.QuadList[0].(*quad.RenderPassQuad).RenderPassID)
	assert.Equal(t, sibling.RenderSurface().RenderPassID(), rootPass.QuadList[1].(*quad.RenderPassQuad).RenderPassID)
}

func TestCachedSurfaceDropsItsDelegatedPasses(t *testing.T) {
	h, r, owner, _, sibling := newDelegatedHost(t)
	require.True(t, drawFrame(h, host.NewFrameData()))

	r.cached[owner.RenderSurface().RenderPassID()] = true
	frame := host.NewFrameData()
	require.True(t, drawFrame(h, frame))

	root := h.Tree().Root()
	assert.Equal(t, []renderpass.ID{{LayerID: sibling.ID()}, {LayerID: root.ID()}}, frame.RenderPasses.IDs())
	rootPass := frame.RenderPasses.Root()
	require.Len(t, rootPass.CachedQuads, 1)
	assert.Equal(t, owner.RenderSurface().RenderPassID(), rootPass.CachedQuads[0].Quad.RenderPassID)
	assert.Equal(t, 0, rootPass.CachedQuads[0].Index)
	assert.Len(t, r.decided[1], 5)
}

func TestChangedSurfaceIsNotTakenFromCache(t *testing.T) {
	h, r, owner, _, _ := newDelegatedHost(t)
	require.True(t, drawFrame(h, host.NewFrameData()))

	r.cached[owner.RenderSurface().RenderPassID()] = true
	owner.AddUpdateRect(rect.XYWH(0, 0, 1, 1))
	frame := host.NewFrameData()
	require.True(t, drawFrame(h, frame))

	assert.Len(t, frame.RenderPasses, 5)
	assert.Empty(t, frame.RenderPasses.Root().CachedQuads)
}

func TestEmptySurfacePassIsCulled(t *testing.T) {
	h, root, _ := newHost(t, transparentSettings())
	owner := root.Tree().NewLayer(&layer.Tiled{SkipsDraw: true, TileSize: 256})
	owner.SetBounds(rect.Size{Width: 20, Height: 20})
	owner.SetDrawsContent(true)
	owner.SetForceRenderSurface(true)
	root.AddChild(owner)

	frame := host.NewFrameData()
	require.True(t, drawFrame(h, frame))

	assert.Equal(t, []renderpass.ID{{LayerID: root.ID()}}, frame.RenderPasses.IDs())
	assert.Empty(t, frame.RenderPasses.Root().QuadList)
}

func newMissingTileLayer(root *layer.Layer) (*layer.Layer, *layer.Tiled) {
	tiled := layer.NewTiled(nil, 256)
	tiled.SetTileMissing(0, 0, true)
	l := root.Tree().NewLayer(tiled)
	l.SetBounds(rect.Size{Width: 50, Height: 50})
	l.SetDrawsContent(true)
	root.AddChild(l)
	return l, tiled
}

func TestMissingTilesOnAnimatingLayerVetoFrame(t *testing.T) {
	tests := []struct {
		name    string
		animate func(root, l *layer.Layer)
	}{
		{"opacity", func(_, l *layer.Layer) {
			l.Animations().Add(animate.NewNumericAnimation(animate.Opacity, 0.5, 1, 10))
		}},
		{"translate", func(_, l *layer.Layer) {
			l.Animations().Add(animate.NewTranslateAnimation(0, 0, 20, 0, 10))
		}},
		{"ancestor translate", func(root, _ *layer.Layer) {
			root.Animations().Add(animate.NewTranslateAnimation(0, 0, 0, 20, 10))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, root, r := newHost(t, config.Default())
			l, _ := newMissingTileLayer(root)
			tt.animate(root, l)

			frame := host.NewFrameData()
			assert.False(t, h.PrepareToDraw(frame))
			h.DidDrawAllLayers(frame)
			assert.Empty(t, r.drawn)
		})
	}
}

func TestMissingTilesWithoutAnimationDraw(t *testing.T) {
	h, root, _ := newHost(t, config.Default())
	newMissingTileLayer(root)

	frame := host.NewFrameData()
	require.True(t, drawFrame(h, frame))

	var checkerboards int
	for _, q := range frame.RenderPasses.Root().QuadList {
		if _, ok := q.(*quad.CheckerboardQuad); ok {
			checkerboards++
		}
	}
	assert.Equal(t, 1, checkerboards)
}

func TestLayerThatSkipsDrawNeverVetoes(t *testing.T) {
	h, root, _ := newHost(t, config.Default())
	l, tiled := newMissingTileLayer(root)
	tiled.SkipsDraw = true
	l.Animations().Add(animate.NewNumericAnimation(animate.Opacity, 0.5, 1, 10))

	assert.True(t, drawFrame(h, host.NewFrameData()))
}

func TestFrameCallsOutOfOrderPanic(t *testing.T) {
	h, _, _ := newHost(t, config.Default())
	frame := host.NewFrameData()

	assert.Panics(t, func() { h.DrawLayers(frame) })
	assert.Panics(t, func() { h.DidDrawAllLayers(frame) })

	h.PrepareToDraw(frame)
	assert.Panics(t, func() { h.PrepareToDraw(frame) })
	h.DidDrawAllLayers(frame)
	assert.NotPanics(t, func() { drawFrame(h, frame) })
}

func TestCannotDrawWithoutViewport(t *testing.T) {
	h, root, r := newHost(t, config.Default())
	addSolidLayer(root, 0, 0, 10, 10, red)
	h.SetViewportSize(rect.Size{})

	frame := host.NewFrameData()
	assert.False(t, drawFrame(h, frame))
	assert.Empty(t, frame.RenderPasses)
	assert.Empty(t, r.drawn)
}

func TestCannotDrawWithoutRenderer(t *testing.T) {
	tree := layer.NewTree(config.Default())
	root := tree.NewLayer(&layer.Container{})
	tree.SetRoot(root)
	h := host.New(tree)
	h.SetViewportSize(viewport)

	assert.False(t, h.CanDraw())
	assert.False(t, h.InitializeRenderer(nil, resource.NewProvider(0)))
	assert.Nil(t, h.Renderer())
}

func TestContextLossAndRecovery(t *testing.T) {
	h, root, r := newHost(t, config.Default())
	owner := addSolidLayer(root, 0, 0, 20, 20, red)
	owner.SetForceRenderSurface(true)
	texture := &layer.Texture{Image: solidImage(4, 4)}
	textured := root.Tree().NewLayer(texture)
	textured.SetBounds(rect.Size{Width: 4, Height: 4})
	textured.SetDrawsContent(true)
	root.AddChild(textured)
	require.True(t, drawFrame(h, host.NewFrameData()))
	require.NotEqual(t, resource.None, texture.ResourceID())

	r.lost = true
	assert.True(t, h.IsContextLost())
	assert.False(t, drawFrame(h, host.NewFrameData()))

	lostProvider := resource.NewProvider(0)
	lostProvider.LoseContext()
	assert.False(t, h.InitializeRenderer(newFakeRenderer(), lostProvider))
	assert.Equal(t, resource.None, texture.ResourceID())
	assert.Nil(t, owner.RenderSurface())

	fresh := newFakeRenderer()
	require.True(t, h.InitializeRenderer(fresh, resource.NewProvider(0)))
	assert.False(t, h.IsContextLost())
	require.True(t, drawFrame(h, host.NewFrameData()))
	assert.NotEqual(t, resource.None, texture.ResourceID())
	assert.Len(t, fresh.drawn, 1)
}

func TestAnimateAdvancesLayers(t *testing.T) {
	h, root, _ := newHost(t, config.Default())
	l := addSolidLayer(root, 0, 0, 10, 10, red)
	l.Animations().Add(animate.NewNumericAnimation(animate.Opacity, 0, 1, 2))

	assert.True(t, h.Animate())
	assert.InDelta(t, 0.5, l.Opacity(), 1e-9)
	assert.False(t, h.Animate())
	assert.InDelta(t, 1, l.Opacity(), 1e-9)
	assert.False(t, h.Animate())
}

func TestFrameStagesAreTraced(t *testing.T) {
	settings := config.Default()
	settings.ShowOverdrawInTracing = true
	h, root, _ := newHost(t, settings)
	addSolidLayer(root, 0, 0, 10, 10, red)
	var buf bytes.Buffer
	tracer := trace.New(&buf)
	h.SetTracer(tracer)

	require.True(t, drawFrame(h, host.NewFrameData()))
	require.NoError(t, tracer.Finish())

	var doc struct {
		TraceEvents []struct {
			Name  string `json:"name"`
			Phase string `json:"ph"`
		} `json:"traceEvents"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	names := make(map[string]bool)
	for _, e := range doc.TraceEvents {
		names[e.Name+"/"+e.Phase] = true
	}
	for _, want := range []string{"PrepareToDraw/B", "PrepareToDraw/E", "CalculateRenderPasses/B", "DrawLayers/E", "overdraw/C"} {
		assert.True(t, names[want], want)
	}
}
