package layer

import (
	"cmp"
	"slices"
)

// SortLayers orders the layers of one 3D rendering context back to front by
// depth. Layers at equal depth keep their tree order.
func SortLayers(layers []*Layer) {
	slices.SortStableFunc(layers, func(a, b *Layer) int {
		return cmp.Compare(a.Depth(), b.Depth())
	})
}
