// Package renderpass groups quads into the passes a frame is drawn in.
package renderpass

import (
	"fmt"
	"strings"

	"compositor/quad"
	"compositor/rect"
	"compositor/transform"
)

type ID = quad.RenderPassID

// RenderPass is an ordered, back-to-front list of quads drawn into one
// target. Quads reference other passes by ID, never by pointer.
type RenderPass struct {
	ID                    ID
	OutputRect            rect.Rect
	DamageRect            rect.Rect
	TransformToRootTarget transform.Transform

	HasTransparentBackground             bool
	HasOcclusionFromOutsideTargetSurface bool

	// Filters apply to the pass output, BackgroundFilters to what is behind
	// it in the target.
	Filters           FilterOperations
	BackgroundFilters FilterOperations

	QuadList            []quad.DrawQuad
	SharedQuadStateList []*quad.SharedQuadState

	// CachedQuads were taken out of QuadList because the pass they draw
	// is served from a cached texture.
	CachedQuads []CachedQuad
}

// CachedQuad is drawn right before QuadList[Index], or after the last quad
// when Index is len(QuadList).
type CachedQuad struct {
	Index int
	Quad  *quad.RenderPassQuad
}

func New(id ID, outputRect, damageRect rect.Rect, transformToRootTarget transform.Transform) *RenderPass {
	return &RenderPass{
		ID:                       id,
		OutputRect:               outputRect,
		DamageRect:               damageRect,
		TransformToRootTarget:    transformToRootTarget,
		HasTransparentBackground: true,
	}
}

// Copy returns a pass with the same properties under newID. Quads and
// shared quad states are not copied.
func (p *RenderPass) Copy(newID ID) *RenderPass {
	c := &RenderPass{
		ID:                                   newID,
		OutputRect:                           p.OutputRect,
		DamageRect:                           p.DamageRect,
		TransformToRootTarget:                p.TransformToRootTarget,
		HasTransparentBackground:             p.HasTransparentBackground,
		HasOcclusionFromOutsideTargetSurface: p.HasOcclusionFromOutsideTargetSurface,
		Filters:                              append(FilterOperations(nil), p.Filters...),
		BackgroundFilters:                    append(FilterOperations(nil), p.BackgroundFilters...),
	}
	return c
}

func (p *RenderPass) AppendSharedQuadState(sqs *quad.SharedQuadState) *quad.SharedQuadState {
	sqs.ID = len(p.SharedQuadStateList)
	p.SharedQuadStateList = append(p.SharedQuadStateList, sqs)
	return sqs
}

func (p *RenderPass) AppendQuad(q quad.DrawQuad) {
	p.QuadList = append(p.QuadList, q)
}

// RenderPassQuads returns the quads that composite other passes, in order.
func (p *RenderPass) RenderPassQuads() []*quad.RenderPassQuad {
	var out []*quad.RenderPassQuad
	for _, q := range p.QuadList {
		if rp, ok := q.(*quad.RenderPassQuad); ok {
			out = append(out, rp)
		}
	}
	return out
}

func (p *RenderPass) String() string {
	return fmt.Sprint("RenderPass(id=", p.ID, ", output=", p.OutputRect, ", damage=", p.DamageRect,
		", quads=", len(p.QuadList), ")")
}

// List is in draw order: every pass comes before the passes that composite
// it, so the root pass is last.
type List []*RenderPass

func (l List) Root() *RenderPass {
	if len(l) == 0 {
		return nil
	}
	return l[len(l)-1]
}

func (l List) IDs() []ID {
	ids := make([]ID, len(l))
	for i, p := range l {
		ids[i] = p.ID
	}
	return ids
}

func (l List) String() string {
	parts := make([]string, len(l))
	for i, p := range l {
		parts[i] = p.String()
	}
	return strings.Join(parts, "\n")
}

type IDMap map[ID]*RenderPass

// Index maps every pass in l by ID.
func Index(l List) IDMap {
	m := make(IDMap, len(l))
	for _, p := range l {
		m[p.ID] = p
	}
	return m
}

// Sink receives passes in draw order.
type Sink interface {
	AppendRenderPass(p *RenderPass)
}

// Collector is a Sink that keeps passes in a List and an IDMap.
type Collector struct {
	Passes List
	ByID   IDMap
}

func NewCollector() *Collector {
	return &Collector{ByID: make(IDMap)}
}

func (c *Collector) AppendRenderPass(p *RenderPass) {
	if _, ok := c.ByID[p.ID]; ok {
		panic(fmt.Sprint("render pass ", p.ID, " appended twice"))
	}
	c.Passes = append(c.Passes, p)
	c.ByID[p.ID] = p
}
