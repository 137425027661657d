package rect

// Region is a set of points stored as non-overlapping rects.
type Region struct {
	rects []Rect
}

func NewRegion(rects ...Rect) Region {
	var r Region
	for _, rc := range rects {
		r.Union(rc)
	}
	return r
}

func (g *Region) IsEmpty() bool {
	return len(g.rects) == 0
}

func (g *Region) Rects() []Rect {
	return append([]Rect(nil), g.rects...)
}

func (g *Region) Clone() Region {
	return Region{rects: append([]Rect(nil), g.rects...)}
}

func (g *Region) Bounds() Rect {
	var b Rect
	for _, r := range g.rects {
		b = b.Union(r)
	}
	return b
}

// Union adds r, keeping the stored rects disjoint.
func (g *Region) Union(r Rect) {
	if r.IsEmpty() {
		return
	}
	pieces := []Rect{r}
	for _, existing := range g.rects {
		next := pieces[:0:0]
		for _, p := range pieces {
			next = append(next, subtract(p, existing)...)
		}
		pieces = next
		if len(pieces) == 0 {
			return
		}
	}
	g.rects = append(g.rects, pieces...)
}

func (g *Region) UnionRegion(other Region) {
	for _, r := range other.rects {
		g.Union(r)
	}
}

func (g *Region) Subtract(r Rect) {
	if r.IsEmpty() || len(g.rects) == 0 {
		return
	}
	next := make([]Rect, 0, len(g.rects))
	for _, existing := range g.rects {
		next = append(next, subtract(existing, r)...)
	}
	g.rects = next
}

func (g *Region) SubtractRegion(other Region) {
	for _, r := range other.rects {
		g.Subtract(r)
	}
}

func (g *Region) Intersect(r Rect) {
	next := g.rects[:0]
	for _, existing := range g.rects {
		if i := existing.Intersect(r); !i.IsEmpty() {
			next = append(next, i)
		}
	}
	g.rects = next
}

// Contains reports whether every point of r is inside the region.
func (g *Region) Contains(r Rect) bool {
	if r.IsEmpty() {
		return true
	}
	rest := []Rect{r}
	for _, existing := range g.rects {
		next := rest[:0:0]
		for _, p := range rest {
			next = append(next, subtract(p, existing)...)
		}
		rest = next
		if len(rest) == 0 {
			return true
		}
	}
	return false
}

// Area is the covered area; the stored rects never overlap.
func (g *Region) Area() float64 {
	var a float64
	for _, r := range g.rects {
		a += r.Area()
	}
	return a
}

// subtract returns a minus b as up to four disjoint rects.
func subtract(a, b Rect) []Rect {
	i := a.Intersect(b)
	if i.IsEmpty() {
		return []Rect{a}
	}
	out := make([]Rect, 0, 4)
	if a.Top < i.Top {
		out = append(out, NewRect(a.Left, a.Top, a.Right, i.Top))
	}
	if i.Bottom < a.Bottom {
		out = append(out, NewRect(a.Left, i.Bottom, a.Right, a.Bottom))
	}
	if a.Left < i.Left {
		out = append(out, NewRect(a.Left, i.Top, i.Left, i.Bottom))
	}
	if i.Right < a.Right {
		out = append(out, NewRect(i.Right, i.Top, a.Right, i.Bottom))
	}
	return out
}
