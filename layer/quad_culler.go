package layer

import (
	"compositor/debug"
	"compositor/quad"
	"compositor/renderpass"
)

// QuadCuller is the quad.Sink layers append into. It shrinks each quad to
// its unoccluded part and drops quads that are hidden entirely.
type QuadCuller struct {
	pass                 *renderpass.RenderPass
	occlusion            *Occlusion
	showCullingWithQuads bool
	metrics              *OverdrawMetrics
	current              *quad.SharedQuadState
}

// NewQuadCuller returns a culler appending to pass. A nil occlusion culls
// nothing.
func NewQuadCuller(pass *renderpass.RenderPass, occlusion *Occlusion, showCullingWithQuads bool, metrics *OverdrawMetrics) *QuadCuller {
	return &QuadCuller{pass: pass, occlusion: occlusion, showCullingWithQuads: showCullingWithQuads, metrics: metrics}
}

func (c *QuadCuller) UseSharedQuadState(sqs *quad.SharedQuadState) *quad.SharedQuadState {
	if sqs == c.current {
		return sqs
	}
	c.current = c.pass.AppendSharedQuadState(sqs)
	return c.current
}

func (c *QuadCuller) Append(q quad.DrawQuad, data *quad.AppendData) bool {
	b := q.Base()
	t := b.QuadTransform()
	visible, hadOutside := c.occlusion.Unoccluded(b.Rect, t, b.ClipRect(), b.IsClipped())
	if hadOutside {
		data.HadOcclusionFromOutsideTargetSurface = true
	}

	c.metrics.didCull(t, b.Rect, visible)
	if visible.IsEmpty() {
		if c.showCullingWithQuads {
			c.pass.AppendQuad(quad.NewDebugBorder(b.SharedQuadState, b.Rect, debug.CulledTileBorderColor, debug.TileBorderWidth))
		}
		return false
	}
	b.VisibleRect = visible
	c.metrics.didDraw(t, visible, b.OpaqueRect)
	c.pass.AppendQuad(q)
	return true
}
