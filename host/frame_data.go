package host

import (
	"fmt"

	"compositor/layer"
	"compositor/rect"
	"compositor/renderpass"
)

// FrameData carries one frame from PrepareToDraw through DrawLayers to
// DidDrawAllLayers.
type FrameData struct {
	RenderSurfaceLayerList []*layer.Layer
	// RenderPasses is in draw order: every pass comes after the passes it
	// draws, and the root pass is last.
	RenderPasses     renderpass.List
	RenderPassesByID renderpass.IDMap
	WillDrawLayers   []*layer.Layer

	OccludingScreenSpaceRects    []rect.Rect
	NonOccludingScreenSpaceRects []rect.Rect
}

func NewFrameData() *FrameData {
	return &FrameData{RenderPassesByID: make(renderpass.IDMap)}
}

func (f *FrameData) reset() {
	f.RenderSurfaceLayerList = nil
	f.RenderPasses = nil
	f.RenderPassesByID = make(renderpass.IDMap)
	f.WillDrawLayers = nil
	f.OccludingScreenSpaceRects = nil
	f.NonOccludingScreenSpaceRects = nil
}

// AppendRenderPass makes FrameData the renderpass.Sink surfaces append
// their passes into.
func (f *FrameData) AppendRenderPass(p *renderpass.RenderPass) {
	if _, ok := f.RenderPassesByID[p.ID]; ok {
		panic(fmt.Sprint("host: render pass ", p.ID, " appended twice"))
	}
	f.RenderPasses = append(f.RenderPasses, p)
	f.RenderPassesByID[p.ID] = p
}

func (f *FrameData) FindRenderPass(id renderpass.ID) *renderpass.RenderPass {
	return f.RenderPassesByID[id]
}
