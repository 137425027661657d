package host

import (
	"slices"

	"compositor/debug"
	"compositor/quad"
	"compositor/renderpass"
	"compositor/trace"
)

// RenderPassCuller is a policy for RemoveRenderPasses: which render pass
// quads can be dropped, and the order passes are visited in.
type RenderPassCuller interface {
	ShouldRemoveRenderPass(q *quad.RenderPassQuad, frame *FrameData) bool

	RenderPassListBegin(list renderpass.List) int
	RenderPassListEnd(list renderpass.List) int
	RenderPassListNext(it int) int
}

// drawsFromCache is implemented by policies whose dropped quads are still
// drawn, from the renderer's texture cache.
type drawsFromCache interface {
	drawsFromCache()
}

// CullRenderPassesWithCachedTextures drops passes the renderer still holds
// a complete texture for and whose contents did not change. Passes are
// visited from the root down, so a cached pass takes its whole subtree
// with it.
type CullRenderPassesWithCachedTextures struct {
	Renderer Renderer
	Tracer   *trace.Tracer
}

func (c CullRenderPassesWithCachedTextures) ShouldRemoveRenderPass(q *quad.RenderPassQuad, _ *FrameData) bool {
	args := map[string]any{"pass": q.RenderPassID.String()}
	if !q.ContentsChangedSinceLastFrame.IsEmpty() {
		c.Tracer.Instant("have damage", args)
		return false
	}
	if !c.Renderer.HaveCachedResourcesForRenderPassID(q.RenderPassID) {
		c.Tracer.Instant("have no texture", args)
		return false
	}
	c.Tracer.Instant("dropped!", args)
	return true
}

func (CullRenderPassesWithCachedTextures) drawsFromCache() {}

func (CullRenderPassesWithCachedTextures) RenderPassListBegin(list renderpass.List) int {
	return len(list) - 1
}

func (CullRenderPassesWithCachedTextures) RenderPassListEnd(renderpass.List) int {
	return -1
}

func (CullRenderPassesWithCachedTextures) RenderPassListNext(it int) int {
	return it - 1
}

// CullRenderPassesWithNoQuads drops passes that draw nothing. Passes are
// visited leaves first, so a pass left empty by the removal of its
// children is dropped in the same run.
type CullRenderPassesWithNoQuads struct{}

func (CullRenderPassesWithNoQuads) ShouldRemoveRenderPass(q *quad.RenderPassQuad, frame *FrameData) bool {
	pass := frame.FindRenderPass(q.RenderPassID)
	if pass == nil {
		return false
	}
	return len(pass.QuadList) == 0 && len(pass.CachedQuads) == 0
}

func (CullRenderPassesWithNoQuads) RenderPassListBegin(renderpass.List) int {
	return 0
}

func (CullRenderPassesWithNoQuads) RenderPassListEnd(list renderpass.List) int {
	return len(list)
}

func (CullRenderPassesWithNoQuads) RenderPassListNext(it int) int {
	return it + 1
}

// RemoveRenderPasses drops the render pass quads culler votes out, then
// erases every pass that was drawn by some quad and no longer is, along
// with what only it drew. The root pass is never erased.
//
// All quads of one pass that draw the same pass, such as a surface and its
// replica, are dropped together or not at all. Quads dropped because their
// pass is cached move to the pass's CachedQuads.
func RemoveRenderPasses[C RenderPassCuller](culler C, frame *FrameData) {
	list := frame.RenderPasses
	if len(list) == 0 {
		return
	}
	root := list.Root().ID

	liveReferences := make(map[renderpass.ID]int)
	for _, p := range list {
		for _, q := range p.RenderPassQuads() {
			liveReferences[q.RenderPassID]++
		}
	}
	referenced := make(map[renderpass.ID]bool, len(liveReferences))
	for id := range liveReferences {
		referenced[id] = true
	}

	_, fromCache := any(culler).(drawsFromCache)
	removed := 0
	for it := culler.RenderPassListBegin(list); it != culler.RenderPassListEnd(list); it = culler.RenderPassListNext(it) {
		pass := list[it]
		quads := pass.RenderPassQuads()
		if len(quads) == 0 {
			continue
		}
		if pass.ID != root && referenced[pass.ID] && liveReferences[pass.ID] == 0 {
			// nothing draws this pass any more, so neither do its quads
			for _, q := range quads {
				liveReferences[q.RenderPassID]--
			}
			continue
		}

		remove := make(map[renderpass.ID]bool, len(quads))
		for _, q := range quads {
			vote := culler.ShouldRemoveRenderPass(q, frame)
			if previous, seen := remove[q.RenderPassID]; seen {
				vote = vote && previous
			}
			remove[q.RenderPassID] = vote
		}

		kept := make([]quad.DrawQuad, 0, len(pass.QuadList))
		for _, q := range pass.QuadList {
			rp, ok := q.(*quad.RenderPassQuad)
			if !ok || !remove[rp.RenderPassID] {
				kept = append(kept, q)
				continue
			}
			liveReferences[rp.RenderPassID]--
			removed++
			if fromCache {
				pass.CachedQuads = append(pass.CachedQuads, renderpass.CachedQuad{Index: len(kept), Quad: rp})
			}
		}
		pass.QuadList = kept
	}
	if removed == 0 {
		return
	}

	reachable := map[renderpass.ID]bool{root: true}
	survivors := make(renderpass.List, 0, len(list))
	for i := len(list) - 1; i >= 0; i-- {
		p := list[i]
		if p.ID != root && referenced[p.ID] && !reachable[p.ID] {
			delete(frame.RenderPassesByID, p.ID)
			continue
		}
		for _, q := range p.RenderPassQuads() {
			reachable[q.RenderPassID] = true
		}
		survivors = append(survivors, p)
	}
	slices.Reverse(survivors)
	debug.Logger().Debug("culled render passes", "quads", removed, "passes", len(list)-len(survivors))
	frame.RenderPasses = survivors
}
