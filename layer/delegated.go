package layer

import (
	"fmt"

	"compositor/quad"
	"compositor/rect"
	"compositor/renderpass"
)

// Delegated draws a frame produced by another compositor. The last pass of
// that frame is its root and is merged into the layer's target; the others
// are spliced into this frame under IDs owned by the layer.
type Delegated struct {
	passes    renderpass.List
	indexByID map[renderpass.ID]int
}

func (*Delegated) isContent() {}

func (d *Delegated) RenderPasses() renderpass.List {
	return d.passes
}

func (d *Delegated) clearRenderPasses() {
	d.passes = nil
	d.indexByID = nil
}

func (l *Layer) delegated() *Delegated {
	d, ok := l.content.(*Delegated)
	if !ok {
		panic(fmt.Sprint("layer ", l.id, " is a ", l.TypeName(), ", not a delegated renderer layer"))
	}
	return d
}

// SetRenderPasses takes ownership of passes, in draw order, and returns
// the emptied list for the caller to reuse. The damage of the new root pass
// is widened by the damage of the old one.
func (l *Layer) SetRenderPasses(passes renderpass.List) renderpass.List {
	d := l.delegated()

	rootDamage := d.rootDamage()
	d.passes = make(renderpass.List, 0, len(passes))
	d.indexByID = make(map[renderpass.ID]int, len(passes))
	for i, p := range passes {
		d.indexByID[p.ID] = i
		d.passes = append(d.passes, p)
		passes[i] = nil
	}
	if root := d.passes.Root(); root != nil {
		rootDamage = rootDamage.Union(root.DamageRect)
		root.DamageRect = rootDamage
	}
	l.AddUpdateRect(rootDamage)
	return passes[:0]
}

func (d *Delegated) rootDamage() rect.Rect {
	if root := d.passes.Root(); root != nil {
		return root.DamageRect
	}
	return rect.Rect{}
}

// ConvertDelegatedRenderPassID maps the ID of a pass in the delegated frame
// to the ID it has in this frame.
func (l *Layer) ConvertDelegatedRenderPassID(delegated renderpass.ID) renderpass.ID {
	d := l.delegated()
	index, ok := d.indexByID[delegated]
	if !ok {
		panic(fmt.Sprint("layer ", l.id, " has no delegated render pass ", delegated))
	}
	return renderpass.ID{LayerID: l.id, Index: index + 1}
}

func (l *Layer) FirstContributingRenderPassID() renderpass.ID {
	return renderpass.ID{LayerID: l.id, Index: 1}
}

func (l *Layer) NextContributingRenderPassID(previous renderpass.ID) renderpass.ID {
	return renderpass.ID{LayerID: previous.LayerID, Index: previous.Index + 1}
}

// AppendContributingRenderPasses appends empty copies of every delegated
// pass but the root, renamed into this frame. Their quads follow through
// AppendQuads.
func (l *Layer) AppendContributingRenderPasses(sink renderpass.Sink) {
	d := l.delegated()
	for _, p := range d.passes[:max(len(d.passes)-1, 0)] {
		sink.AppendRenderPass(p.Copy(l.ConvertDelegatedRenderPassID(p.ID)))
	}
}

func (d *Delegated) appendQuads(l *Layer, sink quad.Sink, data *quad.AppendData) {
	if len(d.passes) == 0 {
		return
	}
	target := data.RenderPassID
	if target.Index == 0 {
		// our root merges into a pass made by this compositor
		if rt := l.RenderTarget(); rt != nil && target.LayerID != rt.ID() {
			panic(fmt.Sprint("layer ", l.id, ": root pass appended to ", target, ", not its target"))
		}
		d.appendRenderPassQuads(l, sink, data, d.passes.Root())
		return
	}
	if target.LayerID != l.id {
		panic(fmt.Sprint("layer ", l.id, ": appending to foreign pass ", target))
	}
	d.appendRenderPassQuads(l, sink, data, d.passes[target.Index-1])
}

func (d *Delegated) appendRenderPassQuads(l *Layer, sink quad.Sink, data *quad.AppendData, pass *renderpass.RenderPass) {
	// quads drawn straight into another layer's pass need our position
	intoForeignTarget := data.RenderPassID.LayerID != l.id
	var current, copied *quad.SharedQuadState
	for _, q := range pass.QuadList {
		if sqs := q.Base().SharedQuadState; sqs != current {
			current = sqs
			c := sqs.Copy()
			if intoForeignTarget {
				c.SetAll(l.drawTransform.Concat(sqs.ContentToTargetTransform), sqs.VisibleContentRect,
					sqs.ClippedRectInTarget, sqs.ClipRect, sqs.IsClipped, sqs.Opacity*l.drawOpacity)
			}
			copied = sink.UseSharedQuadState(c)
		}
		if rp, ok := q.(*quad.RenderPassQuad); ok {
			id := l.ConvertDelegatedRenderPassID(rp.RenderPassID)
			if id == data.RenderPassID {
				panic(fmt.Sprint("layer ", l.id, ": render pass ", id, " draws into itself"))
			}
			sink.Append(rp.CopyWithID(copied, id), data)
			continue
		}
		sink.Append(q.Copy(copied), data)
	}
}
