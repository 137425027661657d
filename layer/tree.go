// Package layer is the retained layer tree the compositor prepares frames
// from: layers, their render surfaces, draw properties, damage and
// occlusion tracking.
package layer

import (
	"fmt"

	"compositor/config"
)

// Tree owns every layer by ID. Layers refer to each other by ID, so the
// parent, mask, replica and render-target links never form owning cycles.
type Tree struct {
	layers   map[int]*Layer
	root     int
	nextID   int
	settings config.Settings
}

func NewTree(settings config.Settings) *Tree {
	return &Tree{layers: make(map[int]*Layer), nextID: 1, settings: settings}
}

func (t *Tree) Settings() config.Settings {
	return t.settings
}

func (t *Tree) SetSettings(s config.Settings) {
	t.settings = s
}

// NewLayer creates a detached layer with the given content. A nil content
// makes a container.
func (t *Tree) NewLayer(content Content) *Layer {
	if content == nil {
		content = &Container{}
	}
	l := newLayer(t, t.nextID, content)
	t.layers[l.id] = l
	t.nextID++
	return l
}

// Layer returns nil for 0 and for IDs of destroyed layers.
func (t *Tree) Layer(id int) *Layer {
	if id == 0 {
		return nil
	}
	return t.layers[id]
}

func (t *Tree) Len() int {
	return len(t.layers)
}

func (t *Tree) Root() *Layer {
	return t.Layer(t.root)
}

func (t *Tree) SetRoot(l *Layer) {
	if l == nil {
		t.root = 0
		return
	}
	if l.tree != t {
		panic(fmt.Sprint("layer ", l.id, " belongs to another tree"))
	}
	t.root = l.id
	l.noteLayerPropertyChangedForSubtree()
}

// Destroy removes l and its whole subtree, including mask and replica
// layers, from the tree.
func (t *Tree) Destroy(l *Layer) {
	l.RemoveFromParent()
	if t.root == l.id {
		t.root = 0
	}
	walk(l, func(d *Layer) {
		delete(t.layers, d.id)
	})
}

// walk visits l and its subtree depth first, parents before children, with
// mask and replica layers right after their owner.
func walk(l *Layer, fn func(*Layer)) {
	if l == nil {
		return
	}
	fn(l)
	walk(l.MaskLayer(), fn)
	walk(l.ReplicaLayer(), fn)
	for _, c := range l.Children() {
		walk(c, fn)
	}
}

// Walk visits every layer reachable from the root.
func (t *Tree) Walk(fn func(*Layer)) {
	walk(t.Root(), fn)
}
