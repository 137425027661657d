package layer

import (
	"testing"

	"compositor/quad"
	"compositor/rect"
	"compositor/renderpass"
	"compositor/resource"
	"compositor/transform"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newSurfaceScene puts a surface owner at (10,10) under a root; the owner
// draws nothing itself and holds one drawing child at (4,6).
func newSurfaceScene() (root, owner, child *Layer) {
	tree := newTestTree()
	root = newTestRoot(tree)
	owner = tree.NewLayer(&Container{})
	owner.SetPosition(rect.Point{X: 10, Y: 10})
	owner.SetBounds(rect.Size{Width: 20, Height: 20})
	owner.SetForceRenderSurface(true)
	root.AddChild(owner)
	child = newDrawingLayer(tree, &SolidColor{}, 4, 6, 8, 8)
	owner.AddChild(child)
	return root, owner, child
}

func appendSurfaceQuads(s *RenderSurface, forReplica bool) *renderpass.RenderPass {
	target := renderpass.New(renderpass.ID{LayerID: 1}, rect.FromSize(testViewport), rect.Rect{}, transform.Identity())
	s.AppendQuads(NewQuadCuller(target, nil, false, nil), quad.NewAppendData(target.ID), forReplica, s.RenderPassID())
	return target
}

func TestSurfaceContentRectIsSubtreeBounds(t *testing.T) {
	root, owner, _ := newSurfaceScene()
	CalculateDrawProperties(root, testViewport, 4096)

	s := owner.RenderSurface()
	require.NotNil(t, s)
	assert.Equal(t, rect.XYWH(4, 6, 8, 8), s.ContentRect())
	assert.Equal(t, rect.XYWH(14, 16, 8, 8), s.DrawableContentRect())
	assert.Equal(t, renderpass.ID{LayerID: owner.ID()}, s.RenderPassID())
}

func TestMaskTexCoordsCoverContentRect(t *testing.T) {
	root, owner, _ := newSurfaceScene()
	mask := newDrawingLayer(owner.Tree(), &Container{}, 0, 0, 16, 16)
	owner.SetMaskLayer(mask)
	CalculateDrawProperties(root, testViewport, 4096)

	pass := appendSurfaceQuads(owner.RenderSurface(), false)

	require.Len(t, pass.QuadList, 1)
	q := pass.QuadList[0].(*quad.RenderPassQuad)
	assert.Equal(t, rect.XYWH(4, 6, 8, 8), q.Rect)
	assert.InDelta(t, 0.5, q.MaskTexCoordScaleX, 1e-9)
	assert.InDelta(t, 0.5, q.MaskTexCoordScaleY, 1e-9)
	assert.InDelta(t, 0.25, q.MaskTexCoordOffsetX, 1e-9)
	assert.InDelta(t, 0.375, q.MaskTexCoordOffsetY, 1e-9)
	assert.False(t, q.IsReplica)
}

// withMaskedReplica gives owner a replica at (30,0) whose mask is a 16x16
// texture backed by resource 7.
func withMaskedReplica(owner *Layer) (mask *Layer) {
	tree := owner.Tree()
	replica := tree.NewLayer(nil)
	replica.SetPosition(rect.Point{X: 30, Y: 0})
	owner.SetReplicaLayer(replica)
	mask = newDrawingLayer(tree, &Texture{resourceID: 7}, 0, 0, 16, 16)
	replica.SetMaskLayer(mask)
	return mask
}

func TestReplicaQuadFallsBackToReplicaMask(t *testing.T) {
	root, owner, _ := newSurfaceScene()
	withMaskedReplica(owner)
	CalculateDrawProperties(root, testViewport, 4096)

	replicaQuad := appendSurfaceQuads(owner.RenderSurface(), true).QuadList[0].(*quad.RenderPassQuad)
	assert.Equal(t, resource.ID(7), replicaQuad.MaskResourceID)
	assert.InDelta(t, 0.5, replicaQuad.MaskTexCoordScaleX, 1e-9)
	assert.InDelta(t, 0.5, replicaQuad.MaskTexCoordScaleY, 1e-9)

	surfaceQuad := appendSurfaceQuads(owner.RenderSurface(), false).QuadList[0].(*quad.RenderPassQuad)
	assert.Equal(t, resource.None, surfaceQuad.MaskResourceID)
	assert.Equal(t, 1.0, surfaceQuad.MaskTexCoordScaleX)
}

func TestUnusableMaskIsIgnored(t *testing.T) {
	tests := []struct {
		name    string
		disable func(mask *Layer)
	}{
		{"empty bounds", func(mask *Layer) { mask.SetBounds(rect.Size{}) }},
		{"draws nothing", func(mask *Layer) { mask.SetDrawsContent(false) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, owner, _ := newSurfaceScene()
			tt.disable(withMaskedReplica(owner))
			CalculateDrawProperties(root, testViewport, 4096)

			q := appendSurfaceQuads(owner.RenderSurface(), true).QuadList[0].(*quad.RenderPassQuad)
			assert.Equal(t, resource.None, q.MaskResourceID)
			assert.Equal(t, 1.0, q.MaskTexCoordScaleX)
		})
	}
}

func TestContentsChangedFollowsDamage(t *testing.T) {
	root, owner, _ := newSurfaceScene()
	surfaces := CalculateDrawProperties(root, testViewport, 4096)
	TrackDamageForAllSurfaces(surfaces)

	s := owner.RenderSurface()
	require.True(t, s.ContentsChanged())
	q := appendSurfaceQuads(s, false).QuadList[0].(*quad.RenderPassQuad)
	assert.Equal(t, s.ContentRect(), q.ContentsChangedSinceLastFrame)

	for _, l := range surfaces {
		l.RenderSurface().DamageTracker().DidDrawDamagedArea()
	}
	root.ResetAllChangeTrackingForSubtree()
	surfaces = CalculateDrawProperties(root, testViewport, 4096)
	TrackDamageForAllSurfaces(surfaces)

	assert.False(t, s.ContentsChanged())
	q = appendSurfaceQuads(s, false).QuadList[0].(*quad.RenderPassQuad)
	assert.True(t, q.ContentsChangedSinceLastFrame.IsEmpty())
}

func TestReplicaQuadsWithoutReplicaPanic(t *testing.T) {
	root, owner, _ := newSurfaceScene()
	CalculateDrawProperties(root, testViewport, 4096)

	assert.Panics(t, func() { appendSurfaceQuads(owner.RenderSurface(), true) })
}

func TestReplicaQuadUsesReplicaTransform(t *testing.T) {
	root, owner, _ := newSurfaceScene()
	replica := owner.Tree().NewLayer(nil)
	replica.SetPosition(rect.Point{X: 30, Y: 0})
	owner.SetReplicaLayer(replica)
	CalculateDrawProperties(root, testViewport, 4096)

	pass := appendSurfaceQuads(owner.RenderSurface(), true)

	q := pass.QuadList[0].(*quad.RenderPassQuad)
	assert.True(t, q.IsReplica)
	assert.True(t, q.QuadTransform().Equal(transform.Translation(40, 10)), "got %v", q.QuadTransform())
}

func TestBackgroundFilterWidensClippedRectToTarget(t *testing.T) {
	root, owner, _ := newSurfaceScene()
	CalculateDrawProperties(root, testViewport, 4096)
	plain := appendSurfaceQuads(owner.RenderSurface(), false).QuadList[0].Base()
	assert.Equal(t, rect.XYWH(14, 16, 8, 8), plain.ClippedRectInTarget())

	owner.SetBackgroundFilters(renderpass.FilterOperations{{Kind: renderpass.Blur, Amount: 2}})
	CalculateDrawProperties(root, testViewport, 4096)
	blurred := appendSurfaceQuads(owner.RenderSurface(), false).QuadList[0].Base()
	assert.Equal(t, rect.FromSize(testViewport), blurred.ClippedRectInTarget())
}

func TestAppendRenderPassesCarriesFilters(t *testing.T) {
	root, owner, _ := newSurfaceScene()
	owner.SetFilters(renderpass.FilterOperations{{Kind: renderpass.Grayscale, Amount: 1}})
	CalculateDrawProperties(root, testViewport, 4096)

	collector := renderpass.NewCollector()
	owner.RenderSurface().AppendRenderPasses(collector)

	require.Len(t, collector.Passes, 1)
	p := collector.Passes[0]
	assert.Equal(t, owner.RenderSurface().ContentRect(), p.OutputRect)
	assert.Equal(t, owner.Filters(), p.Filters)
	assert.True(t, p.TransformToRootTarget.Equal(transform.Translation(10, 10)))
}
