// Package passscript reads and writes render pass lists in a compact text
// form, one pass per line:
//
//	R0ssssA0[ct]
//	A0ss
//
// A line starts with the two-character ID of its pass; the first line is
// the root pass. Each 's' is a solid colour quad. An upper-case letter and
// a second character form a render pass quad drawing that pass, optionally
// followed by flags in brackets: 'c' marks the pass contents as unchanged
// and 't' says a cached texture of the pass exists.
package passscript

import (
	"fmt"
	"strings"

	"compositor/color"
	"compositor/quad"
	"compositor/rect"
	"compositor/renderpass"
	"compositor/transform"
)

// Script is a parsed pass list.
type Script struct {
	// Passes is in draw order, so the root pass, written first, is last.
	Passes   renderpass.List
	ByID     renderpass.IDMap
	Renderer *Renderer
}

func parseID(line []rune, pos int) (renderpass.ID, error) {
	if pos+1 >= len(line) {
		return renderpass.ID{}, fmt.Errorf("render pass ID cut short at column %d", pos+1)
	}
	return renderpass.ID{LayerID: int(line[pos]), Index: int(line[pos+1])}, nil
}

func formatID(id renderpass.ID) string {
	return string([]rune{rune(id.LayerID), rune(id.Index)})
}

// Parse builds the passes a script describes. Every pass gets one shared
// quad state for all its quads. The first render pass quad drawing a pass
// is the surface, later ones are replicas.
func Parse(src string) (*Script, error) {
	s := &Script{ByID: make(renderpass.IDMap), Renderer: NewRenderer()}
	pending := make(map[renderpass.ID]*renderpass.RenderPass)
	referenced := make(map[renderpass.ID]bool)
	var root renderpass.ID

	newPass := func(id renderpass.ID) *renderpass.RenderPass {
		return renderpass.New(id, rect.Rect{}, rect.Rect{}, transform.Identity())
	}

	lines := strings.Split(strings.TrimRight(src, "\n"), "\n")
	for n, text := range lines {
		line := []rune(text)
		if len(line) == 0 {
			return nil, fmt.Errorf("passscript: line %d: empty line", n+1)
		}
		id, err := parseID(line, 0)
		if err != nil {
			return nil, fmt.Errorf("passscript: line %d: %w", n+1, err)
		}
		if n == 0 {
			root = id
		}
		if _, ok := s.ByID[id]; ok {
			return nil, fmt.Errorf("passscript: line %d: pass %s defined twice", n+1, formatID(id))
		}
		pass, ok := pending[id]
		if !ok {
			pass = newPass(id)
		}
		delete(pending, id)
		sqs := pass.AppendSharedQuadState(quad.NewSharedQuadState())

		for pos := 2; pos < len(line); {
			switch c := line[pos]; {
			case c == 's':
				pass.AppendQuad(quad.NewSolidColor(sqs, rect.XYWH(0, 0, 10, 10), color.White))
				pos++

			case c >= 'A' && c <= 'Z':
				target, err := parseID(line, pos)
				if err != nil {
					return nil, fmt.Errorf("passscript: line %d: %w", n+1, err)
				}
				if target == root {
					return nil, fmt.Errorf("passscript: line %d: quad draws the root pass", n+1)
				}
				pos += 2
				contentsChanged, hasTexture := true, false
				if pos < len(line) && line[pos] == '[' {
					for pos++; pos < len(line) && line[pos] != ']'; pos++ {
						switch line[pos] {
						case 'c':
							contentsChanged = false
						case 't':
							hasTexture = true
						default:
							return nil, fmt.Errorf("passscript: line %d: unknown flag %q", n+1, line[pos])
						}
					}
					if pos == len(line) {
						return nil, fmt.Errorf("passscript: line %d: unterminated flags", n+1)
					}
					pos++
				}

				if _, defined := s.ByID[target]; !defined {
					if _, ok := pending[target]; !ok {
						pending[target] = newPass(target)
					}
				}
				if hasTexture {
					s.Renderer.SetHaveCachedResourcesForRenderPassID(target)
				}
				r := rect.XYWH(0, 0, 1, 1)
				changed := rect.Rect{}
				if contentsChanged {
					changed = r
				}
				pass.AppendQuad(quad.NewRenderPass(sqs, r, target, referenced[target], 0, changed))
				referenced[target] = true

			default:
				return nil, fmt.Errorf("passscript: line %d: unexpected %q at column %d", n+1, c, pos+1)
			}
		}

		s.Passes = append(renderpass.List{pass}, s.Passes...)
		s.ByID[id] = pass
	}
	return s, nil
}

// Dump writes passes back in script form, root first. Quads other than
// solid colour and render pass quads are written as 'x'.
func Dump(passes renderpass.List) string {
	var b strings.Builder
	for i := len(passes) - 1; i >= 0; i-- {
		p := passes[i]
		b.WriteString(formatID(p.ID))
		for _, q := range p.QuadList {
			switch q := q.(type) {
			case *quad.SolidColorQuad:
				b.WriteByte('s')
			case *quad.RenderPassQuad:
				b.WriteString(formatID(q.RenderPassID))
			default:
				b.WriteByte('x')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
