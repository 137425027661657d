package quad

import "fmt"

// RenderPassID names a render pass within one frame. Index 0 is the pass of
// the owning layer's own render surface; delegated layers use Index > 0 for
// the passes they splice in.
type RenderPassID struct {
	LayerID int
	Index   int
}

func (id RenderPassID) Less(other RenderPassID) bool {
	if id.LayerID != other.LayerID {
		return id.LayerID < other.LayerID
	}
	return id.Index < other.Index
}

// Compare orders IDs by layer id then index, for slices.SortFunc.
func Compare(a, b RenderPassID) int {
	switch {
	case a.Less(b):
		return -1
	case b.Less(a):
		return 1
	}
	return 0
}

func (id RenderPassID) String() string {
	return fmt.Sprintf("(%d, %d)", id.LayerID, id.Index)
}
