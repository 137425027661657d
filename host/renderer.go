package host

import "compositor/renderpass"

// Renderer draws the passes a Host prepares.
type Renderer interface {
	IsContextLost() bool
	// HaveCachedResourcesForRenderPassID reports whether a complete
	// texture from an earlier frame can stand in for the pass.
	HaveCachedResourcesForRenderPassID(id renderpass.ID) bool
	// DecideRenderPassAllocationsForFrame releases textures of passes that
	// are not in passes or changed size.
	DecideRenderPassAllocationsForFrame(passes renderpass.List)
	DrawFrame(passes renderpass.List, byID renderpass.IDMap)
}
