package passscript

import "compositor/renderpass"

// Renderer only knows which passes have cached textures. It stands in for
// a real renderer when culling scripted pass lists.
type Renderer struct {
	cached map[renderpass.ID]bool
}

func NewRenderer() *Renderer {
	return &Renderer{cached: make(map[renderpass.ID]bool)}
}

func (r *Renderer) SetHaveCachedResourcesForRenderPassID(id renderpass.ID) {
	r.cached[id] = true
}

func (r *Renderer) HaveCachedResourcesForRenderPassID(id renderpass.ID) bool {
	return r.cached[id]
}

func (r *Renderer) IsContextLost() bool {
	return false
}

func (r *Renderer) DecideRenderPassAllocationsForFrame(renderpass.List) {}

func (r *Renderer) DrawFrame(renderpass.List, renderpass.IDMap) {}
