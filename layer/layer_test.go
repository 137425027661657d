package layer

import (
	"image"
	"testing"

	"compositor/config"
	"compositor/rect"
	"compositor/transform"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTree() *Tree {
	return NewTree(config.Default())
}

// newDrawingLayer returns a layer at pos that draws content of the given size.
func newDrawingLayer(tree *Tree, content Content, x, y, w, h float64) *Layer {
	l := tree.NewLayer(content)
	l.SetPosition(rect.Point{X: x, Y: y})
	l.SetBounds(rect.Size{Width: w, Height: h})
	l.SetDrawsContent(true)
	return l
}

func TestPropertySetterMarksOnlyOnChange(t *testing.T) {
	tree := newTestTree()
	l := tree.NewLayer(nil)

	l.SetOpacity(1)
	assert.False(t, l.LayerSurfacePropertyChanged())

	l.SetOpacity(0.5)
	assert.True(t, l.LayerSurfacePropertyChanged())
	assert.False(t, l.LayerPropertyChanged())

	l.SetDrawsContent(true)
	assert.True(t, l.LayerPropertyChanged())
}

func TestSubtreePropertyMarksDescendants(t *testing.T) {
	tree := newTestTree()
	parent := tree.NewLayer(nil)
	child := tree.NewLayer(nil)
	grandchild := tree.NewLayer(nil)
	parent.AddChild(child)
	child.AddChild(grandchild)
	parent.ResetAllChangeTrackingForSubtree()
	require.False(t, grandchild.LayerPropertyChanged())

	parent.SetPosition(rect.Point{X: 1, Y: 2})
	assert.True(t, parent.LayerPropertyChanged())
	assert.True(t, child.LayerPropertyChanged())
	assert.True(t, grandchild.LayerPropertyChanged())
}

func TestSurfacePropertyChangedSeenUpToNearestSurface(t *testing.T) {
	tree := newTestTree()
	root := tree.NewLayer(nil)
	mid := tree.NewLayer(nil)
	leaf := tree.NewLayer(nil)
	root.AddChild(mid)
	mid.AddChild(leaf)
	root.ResetAllChangeTrackingForSubtree()

	mid.SetTransform(transform.Translation(5, 0))
	assert.True(t, leaf.LayerSurfacePropertyChanged())
	assert.False(t, root.LayerSurfacePropertyChanged())

	// a surface on mid absorbs the change
	mid.createRenderSurface()
	assert.False(t, leaf.LayerSurfacePropertyChanged())
}

func TestResetAllChangeTrackingCoversMaskAndReplica(t *testing.T) {
	tree := newTestTree()
	l := tree.NewLayer(nil)
	mask := tree.NewLayer(nil)
	replica := tree.NewLayer(nil)
	l.SetMaskLayer(mask)
	l.SetReplicaLayer(replica)
	mask.SetDrawsContent(true)
	replica.SetOpacity(0.5)
	l.AddUpdateRect(rect.XYWH(0, 0, 4, 4))
	s := l.createRenderSurface()
	s.SetContentRect(rect.XYWH(0, 0, 10, 10))

	l.ResetAllChangeTrackingForSubtree()

	assert.False(t, l.LayerPropertyChanged())
	assert.True(t, l.UpdateRect().IsEmpty())
	assert.False(t, mask.LayerPropertyChanged())
	assert.False(t, replica.LayerSurfacePropertyChanged())
	assert.False(t, s.SurfacePropertyChanged())
}

func TestAddUpdateRectAccumulates(t *testing.T) {
	l := newTestTree().NewLayer(nil)
	l.AddUpdateRect(rect.XYWH(0, 0, 2, 2))
	l.AddUpdateRect(rect.XYWH(5, 5, 1, 1))
	assert.Equal(t, rect.NewRect(0, 0, 6, 6), l.UpdateRect())
}

func TestWillDrawDidDrawMustAlternate(t *testing.T) {
	l := newTestTree().NewLayer(&Video{})

	assert.Panics(t, func() { l.DidDraw(nil) })
	l.WillDraw(nil)
	assert.Panics(t, func() { l.WillDraw(nil) })
	assert.NotPanics(t, func() { l.DidDraw(nil) })
}

func TestTypeName(t *testing.T) {
	tree := newTestTree()
	tests := []struct {
		content Content
		want    string
	}{
		{nil, "Layer"},
		{&SolidColor{}, "SolidColorLayer"},
		{NewTiled(image.NewRGBA(image.Rect(0, 0, 1, 1)), 16), "TiledLayer"},
		{&Texture{}, "TextureLayer"},
		{&Video{}, "VideoLayer"},
		{&Delegated{}, "DelegatedRendererLayer"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tree.NewLayer(tt.content).TypeName())
	}
}

func TestDestroyRemovesWholeSubtree(t *testing.T) {
	tree := newTestTree()
	root := tree.NewLayer(nil)
	child := tree.NewLayer(nil)
	root.AddChild(child)
	child.SetMaskLayer(tree.NewLayer(nil))
	child.SetReplicaLayer(tree.NewLayer(nil))
	child.AddChild(tree.NewLayer(nil))
	tree.SetRoot(root)
	require.Equal(t, 5, tree.Len())

	tree.Destroy(child)

	assert.Equal(t, 1, tree.Len())
	assert.Empty(t, root.Children())
	assert.Same(t, root, tree.Root())
}

func TestWalkVisitsMaskAndReplicaAfterOwner(t *testing.T) {
	tree := newTestTree()
	root := tree.NewLayer(nil)
	child := tree.NewLayer(nil)
	mask := tree.NewLayer(nil)
	replica := tree.NewLayer(nil)
	root.AddChild(child)
	root.SetMaskLayer(mask)
	root.SetReplicaLayer(replica)
	tree.SetRoot(root)

	var order []int
	tree.Walk(func(l *Layer) { order = append(order, l.ID()) })
	assert.Equal(t, []int{root.ID(), mask.ID(), replica.ID(), child.ID()}, order)
}

func TestContentBoundsFallsBackToBounds(t *testing.T) {
	l := newTestTree().NewLayer(nil)
	l.SetBounds(rect.Size{Width: 10, Height: 20})
	assert.Equal(t, rect.Size{Width: 10, Height: 20}, l.ContentBounds())
	l.SetContentBounds(rect.Size{Width: 20, Height: 40})
	assert.Equal(t, rect.Size{Width: 20, Height: 40}, l.ContentBounds())
}

func TestSortLayersByDepthIsStable(t *testing.T) {
	tree := newTestTree()
	a, b, c := tree.NewLayer(nil), tree.NewLayer(nil), tree.NewLayer(nil)
	a.SetDepth(2)
	b.SetDepth(1)
	c.SetDepth(2)
	layers := []*Layer{a, b, c}
	SortLayers(layers)
	assert.Equal(t, []*Layer{b, a, c}, layers)
}
