package layer

import (
	"testing"

	"compositor/rect"
	"compositor/renderpass"
	"compositor/transform"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testViewport = rect.Size{Width: 100, Height: 100}

func newTestRoot(tree *Tree) *Layer {
	root := tree.NewLayer(nil)
	root.SetBounds(testViewport)
	tree.SetRoot(root)
	return root
}

func TestDrawTransformCombinesPositionAndTransform(t *testing.T) {
	tree := newTestTree()
	root := newTestRoot(tree)
	child := newDrawingLayer(tree, nil, 3, 3, 10, 10)
	child.SetTransform(transform.Translation(1, 1))
	root.AddChild(child)

	surfaces := CalculateDrawProperties(root, testViewport, 4096)

	require.Equal(t, []*Layer{root}, surfaces)
	assert.True(t, child.DrawTransform().Equal(transform.Translation(4, 4)), "got %v", child.DrawTransform())
	assert.Same(t, root, child.RenderTarget())
	assert.Equal(t, rect.XYWH(4, 4, 10, 10), child.DrawableContentRect())
	assert.Equal(t, rect.XYWH(0, 0, 10, 10), child.VisibleContentRect())
	assert.Equal(t, []*Layer{child}, root.RenderSurface().LayerList)
}

func TestTransformAppliesAboutAnchorPoint(t *testing.T) {
	tree := newTestTree()
	root := newTestRoot(tree)
	child := newDrawingLayer(tree, nil, 0, 0, 10, 10)
	child.SetAnchorPoint(rect.Point{X: 0.5, Y: 0.5})
	child.SetTransform(transform.Scaling(2, 2))
	root.AddChild(child)

	CalculateDrawProperties(root, testViewport, 4096)

	// (-5,-5)-(15,15) clipped by the viewport
	assert.Equal(t, rect.NewRect(0, 0, 15, 15), child.DrawableContentRect())
	assert.Equal(t, rect.NewRect(2, 2, 10, 10), child.VisibleContentRect())
}

func TestContentScaleIsPartOfDrawTransform(t *testing.T) {
	tree := newTestTree()
	root := newTestRoot(tree)
	child := newDrawingLayer(tree, nil, 0, 0, 10, 10)
	child.SetContentBounds(rect.Size{Width: 20, Height: 20})
	root.AddChild(child)

	CalculateDrawProperties(root, testViewport, 4096)

	assert.True(t, child.DrawTransform().Equal(transform.Scaling(0.5, 0.5)))
	assert.Equal(t, rect.XYWH(0, 0, 10, 10), child.DrawableContentRect())
	assert.Equal(t, rect.XYWH(0, 0, 20, 20), child.VisibleContentRect())
}

func TestRenderSurfaceRules(t *testing.T) {
	tests := []struct {
		name  string
		setup func(tree *Tree, l *Layer)
		want  bool
	}{
		{"plain layer", func(*Tree, *Layer) {}, false},
		{"forced", func(_ *Tree, l *Layer) { l.SetForceRenderSurface(true) }, true},
		{"mask", func(tree *Tree, l *Layer) { l.SetMaskLayer(newDrawingLayer(tree, nil, 0, 0, 5, 5)) }, true},
		{"replica", func(tree *Tree, l *Layer) { l.SetReplicaLayer(tree.NewLayer(nil)) }, true},
		{"filter", func(_ *Tree, l *Layer) {
			l.SetFilters(renderpass.FilterOperations{{Kind: renderpass.Grayscale, Amount: 1}})
		}, true},
		{"translucent with drawing child", func(tree *Tree, l *Layer) {
			l.SetOpacity(0.5)
			l.AddChild(newDrawingLayer(tree, nil, 1, 1, 5, 5))
		}, true},
		{"translucent leaf", func(_ *Tree, l *Layer) { l.SetOpacity(0.5) }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := newTestTree()
			root := newTestRoot(tree)
			l := newDrawingLayer(tree, nil, 10, 10, 20, 20)
			root.AddChild(l)
			tt.setup(tree, l)

			surfaces := CalculateDrawProperties(root, testViewport, 4096)

			assert.Equal(t, tt.want, l.RenderSurface() != nil)
			if tt.want {
				assert.Equal(t, []*Layer{root, l}, surfaces)
				assert.Same(t, l, l.RenderTarget())
			} else {
				assert.Equal(t, []*Layer{root}, surfaces)
			}
		})
	}
}

func TestRenderSurfaceTakesTransformAndOpacity(t *testing.T) {
	tree := newTestTree()
	root := newTestRoot(tree)
	owner := newDrawingLayer(tree, nil, 10, 10, 20, 20)
	owner.SetOpacity(0.5)
	owner.SetForceRenderSurface(true)
	child := newDrawingLayer(tree, nil, 5, 5, 10, 10)
	owner.AddChild(child)
	root.AddChild(owner)

	CalculateDrawProperties(root, testViewport, 4096)

	s := owner.RenderSurface()
	require.NotNil(t, s)
	assert.True(t, s.DrawTransform.Equal(transform.Translation(10, 10)))
	assert.Equal(t, 0.5, s.DrawOpacity)
	assert.Equal(t, 1.0, owner.DrawOpacity())
	assert.Equal(t, 1.0, child.DrawOpacity())
	assert.True(t, owner.DrawTransform().IsIdentity())
	assert.True(t, child.DrawTransform().Equal(transform.Translation(5, 5)))
	assert.Equal(t, rect.XYWH(0, 0, 20, 20), s.ContentRect())
	assert.Equal(t, rect.XYWH(10, 10, 20, 20), s.DrawableContentRect())
	assert.Equal(t, []*Layer{owner, child}, s.LayerList)
	assert.Equal(t, []*Layer{owner}, root.RenderSurface().LayerList)
}

func TestOpacityWithoutSurfaceAccumulates(t *testing.T) {
	tree := newTestTree()
	root := newTestRoot(tree)
	parent := tree.NewLayer(nil)
	parent.SetOpacity(0.5)
	child := newDrawingLayer(tree, nil, 0, 0, 10, 10)
	child.SetOpacity(0.5)
	parent.AddChild(child)
	root.AddChild(parent)

	CalculateDrawProperties(root, testViewport, 4096)

	assert.Nil(t, parent.RenderSurface())
	assert.Equal(t, 0.25, child.DrawOpacity())
}

func TestEmptySurfaceIsDropped(t *testing.T) {
	tree := newTestTree()
	root := newTestRoot(tree)
	l := tree.NewLayer(nil)
	l.SetBounds(rect.Size{Width: 10, Height: 10})
	l.SetForceRenderSurface(true)
	root.AddChild(l)

	surfaces := CalculateDrawProperties(root, testViewport, 4096)

	assert.Equal(t, []*Layer{root}, surfaces)
	assert.Nil(t, l.RenderSurface())
	assert.Empty(t, root.RenderSurface().LayerList)
}

func TestTransparentSubtreeIsSkipped(t *testing.T) {
	tree := newTestTree()
	root := newTestRoot(tree)
	parent := newDrawingLayer(tree, nil, 0, 0, 10, 10)
	parent.SetOpacity(0)
	parent.AddChild(newDrawingLayer(tree, nil, 0, 0, 10, 10))
	root.AddChild(parent)

	CalculateDrawProperties(root, testViewport, 4096)

	assert.Empty(t, root.RenderSurface().LayerList)
}

func TestMasksToBoundsClipsDescendants(t *testing.T) {
	tree := newTestTree()
	root := newTestRoot(tree)
	parent := tree.NewLayer(nil)
	parent.SetBounds(rect.Size{Width: 10, Height: 10})
	parent.SetMasksToBounds(true)
	child := newDrawingLayer(tree, nil, 5, 5, 10, 10)
	parent.AddChild(child)
	root.AddChild(parent)

	CalculateDrawProperties(root, testViewport, 4096)

	assert.True(t, child.IsClipped())
	assert.Equal(t, rect.XYWH(0, 0, 10, 10), child.ClipRect())
	assert.Equal(t, rect.XYWH(5, 5, 5, 5), child.DrawableContentRect())
	assert.Equal(t, rect.XYWH(0, 0, 5, 5), child.VisibleContentRect())
}

func TestPreserves3DChildrenDrawInDepthOrder(t *testing.T) {
	tree := newTestTree()
	root := newTestRoot(tree)
	context := tree.NewLayer(nil)
	context.SetPreserves3D(true)
	far := newDrawingLayer(tree, nil, 0, 0, 10, 10)
	far.SetDepth(-1)
	near := newDrawingLayer(tree, nil, 0, 0, 10, 10)
	near.SetDepth(1)
	context.AddChild(near)
	context.AddChild(far)
	root.AddChild(context)

	CalculateDrawProperties(root, testViewport, 4096)

	assert.Equal(t, []*Layer{far, near}, root.RenderSurface().LayerList)
	// tree order is untouched
	assert.Equal(t, []*Layer{near, far}, context.Children())
}

func TestSurfaceContentRectIsLimitedByMaxTextureSize(t *testing.T) {
	tree := newTestTree()
	root := newTestRoot(tree)
	owner := newDrawingLayer(tree, nil, 0, 0, 80, 80)
	owner.SetForceRenderSurface(true)
	root.AddChild(owner)

	CalculateDrawProperties(root, testViewport, 50)

	assert.Equal(t, rect.XYWH(0, 0, 50, 50), owner.RenderSurface().ContentRect())
}
