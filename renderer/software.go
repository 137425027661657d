// Package renderer rasterises render passes on the CPU.
package renderer

import (
	"image"
	col "image/color"

	"compositor/color"
	"compositor/config"
	"compositor/debug"
	"compositor/quad"
	"compositor/rect"
	"compositor/renderpass"
	"compositor/resource"
	"compositor/transform"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"
)

// cachedTexture is the output of a non-root pass, kept across frames.
type cachedTexture struct {
	image             *image.RGBA
	outputRect        rect.Rect
	filters           renderpass.FilterOperations
	backgroundFilters renderpass.FilterOperations
	// complete is false when occlusion from outside the pass left parts of
	// it undrawn.
	complete bool
}

// Software draws frames into an in-memory RGBA image, standing in for a
// graphics context.
type Software struct {
	resources *resource.Provider
	settings  config.Settings

	output      *image.RGBA
	textures    map[renderpass.ID]*cachedTexture
	contextLost bool
	framesDrawn int
}

func NewSoftware(resources *resource.Provider, settings config.Settings) *Software {
	return &Software{
		resources: resources,
		settings:  settings,
		textures:  make(map[renderpass.ID]*cachedTexture),
	}
}

// Output is the image the last frame was drawn into. It persists between
// frames, so with partial swap only the damaged area is redrawn.
func (s *Software) Output() *image.RGBA {
	return s.output
}

func (s *Software) FramesDrawn() int {
	return s.framesDrawn
}

func (s *Software) IsContextLost() bool {
	return s.contextLost
}

// LoseContext simulates losing the graphics context: every texture and
// resource is gone and nothing is drawn until a new renderer is made.
func (s *Software) LoseContext() {
	s.contextLost = true
	clear(s.textures)
	s.resources.LoseContext()
}

func (s *Software) HaveCachedResourcesForRenderPassID(id renderpass.ID) bool {
	if !s.settings.CacheRenderPassContents {
		return false
	}
	t, ok := s.textures[id]
	return ok && t.image != nil && t.complete
}

func textureSize(p *renderpass.RenderPass) image.Point {
	return p.OutputRect.RoundOutToInt().Size()
}

func (s *Software) DecideRenderPassAllocationsForFrame(passes renderpass.List) {
	inFrame := renderpass.Index(passes)
	for id, t := range s.textures {
		p, ok := inFrame[id]
		if !ok {
			delete(s.textures, id)
			continue
		}
		if t.image != nil && t.image.Bounds().Size() != textureSize(p) {
			debug.Logger().Debug("render pass texture resized", "pass", id)
			t.image = nil
			t.complete = false
		}
	}
	root := passes.Root()
	for _, p := range passes {
		if p == root {
			continue
		}
		if _, ok := s.textures[p.ID]; !ok {
			s.textures[p.ID] = &cachedTexture{}
		}
	}
}

// target is an image a pass is drawn into. Pass space maps to image
// pixels by subtracting origin; nothing outside scissor is touched.
type target struct {
	img     *image.RGBA
	origin  rect.Point
	scissor image.Rectangle
}

func (t *target) toImage(tr transform.Transform) transform.Transform {
	return transform.Translation(-t.origin.X, -t.origin.Y).Concat(tr)
}

// region is the part of the image a quad may touch.
func (t *target) region(b *quad.Quad) image.Rectangle {
	r := t.toImage(b.QuadTransform()).MapRect(b.VisibleRect)
	if b.IsClipped() {
		r = r.Intersect(b.ClipRect().Offset(-t.origin.X, -t.origin.Y))
	}
	return r.RoundOutToInt().Intersect(t.scissor)
}

func (s *Software) DrawFrame(passes renderpass.List, byID renderpass.IDMap) {
	if s.contextLost || len(passes) == 0 {
		return
	}
	root := passes.Root()
	fullRedraw := false
	if size := textureSize(root); s.output == nil || s.output.Bounds().Size() != size {
		s.output = image.NewRGBA(image.Rectangle{Max: size})
		fullRedraw = true
	}
	for _, p := range passes {
		if p == root {
			s.drawRootPass(p, fullRedraw)
		} else {
			s.drawOffscreenPass(p)
		}
	}
	s.framesDrawn++
}

func (s *Software) drawRootPass(p *renderpass.RenderPass, fullRedraw bool) {
	t := &target{img: s.output, origin: p.OutputRect.Origin(), scissor: s.output.Bounds()}
	if s.settings.PartialSwapEnabled && !fullRedraw {
		t.scissor = p.DamageRect.Offset(-t.origin.X, -t.origin.Y).RoundOutToInt().Intersect(t.scissor)
		if t.scissor.Empty() {
			return
		}
	}
	draw.Draw(t.img, t.scissor, image.Transparent, image.Point{}, draw.Src)
	s.drawQuads(t, p)
}

func (s *Software) drawOffscreenPass(p *renderpass.RenderPass) {
	tex, ok := s.textures[p.ID]
	if !ok {
		tex = &cachedTexture{}
		s.textures[p.ID] = tex
	}
	size := textureSize(p)
	if tex.image == nil || tex.image.Bounds().Size() != size {
		debug.Logger().Debug("allocating render pass texture", "pass", p.ID, "size", size)
		tex.image = image.NewRGBA(image.Rectangle{Max: size})
	} else {
		draw.Draw(tex.image, tex.image.Bounds(), image.Transparent, image.Point{}, draw.Src)
	}
	tex.outputRect = p.OutputRect
	tex.filters = append(renderpass.FilterOperations(nil), p.Filters...)
	tex.backgroundFilters = append(renderpass.FilterOperations(nil), p.BackgroundFilters...)
	tex.complete = !p.HasOcclusionFromOutsideTargetSurface

	s.drawQuads(&target{img: tex.image, origin: p.OutputRect.Origin(), scissor: tex.image.Bounds()}, p)
}

// drawQuads draws the pass back to front, cached render pass quads in the
// places they were culled from.
func (s *Software) drawQuads(t *target, p *renderpass.RenderPass) {
	cached := p.CachedQuads
	for i, q := range p.QuadList {
		for len(cached) > 0 && cached[0].Index <= i {
			s.drawRenderPassQuad(t, cached[0].Quad)
			cached = cached[1:]
		}
		s.drawQuad(t, q)
	}
	for _, c := range cached {
		s.drawRenderPassQuad(t, c.Quad)
	}
}

func (s *Software) drawQuad(t *target, q quad.DrawQuad) {
	switch q := q.(type) {
	case *quad.SolidColorQuad:
		s.fillQuad(t, q.Base(), gg.NewSolidPattern(nrgba(q.Color, q.Opacity())))
	case *quad.CheckerboardQuad:
		s.fillQuad(t, q.Base(), checkerboardPattern(q.Color, q.Opacity()))
	case *quad.DebugBorderQuad:
		s.strokeQuad(t, q)
	case *quad.TextureQuad:
		s.drawTextureQuad(t, q)
	case *quad.TileQuad:
		s.drawTileQuad(t, q)
	case *quad.YUVVideoQuad:
		s.drawYUVVideoQuad(t, q)
	case *quad.RenderPassQuad:
		s.drawRenderPassQuad(t, q)
	default:
		debug.Logger().Warn("cannot draw quad", "material", q.Material())
	}
}

func nrgba(c col.RGBA, opacity float64) col.NRGBA {
	return col.NRGBA(color.WithOpacity(c, opacity))
}

func (s *Software) context(t *target, clip image.Rectangle) *gg.Context {
	dc := gg.NewContextForRGBA(t.img)
	dc.DrawRectangle(float64(clip.Min.X), float64(clip.Min.Y), float64(clip.Dx()), float64(clip.Dy()))
	dc.Clip()
	return dc
}

func tracePolygon(dc *gg.Context, corners [4]rect.Point) {
	dc.MoveTo(corners[0].X, corners[0].Y)
	for _, p := range corners[1:] {
		dc.LineTo(p.X, p.Y)
	}
	dc.ClosePath()
}

func (s *Software) fillQuad(t *target, b *quad.Quad, fill gg.Pattern) {
	clip := t.region(b)
	if clip.Empty() {
		return
	}
	dc := s.context(t, clip)
	tracePolygon(dc, t.toImage(b.QuadTransform()).MapQuad(b.VisibleRect))
	dc.SetFillStyle(fill)
	dc.Fill()
}

func (s *Software) strokeQuad(t *target, q *quad.DebugBorderQuad) {
	b := q.Base()
	clip := t.scissor
	if b.IsClipped() {
		clip = b.ClipRect().Offset(-t.origin.X, -t.origin.Y).RoundOutToInt().Intersect(clip)
	}
	if clip.Empty() {
		return
	}
	dc := s.context(t, clip)
	tracePolygon(dc, t.toImage(b.QuadTransform()).MapQuad(b.Rect))
	dc.SetColor(nrgba(q.Color, b.Opacity()))
	dc.SetLineWidth(q.Width)
	dc.Stroke()
}

const checkerSize = 8

func checkerboardPattern(c col.RGBA, opacity float64) gg.Pattern {
	light := nrgba(c, opacity)
	dark := light
	dark.R, dark.G, dark.B = dark.R-dark.R/16, dark.G-dark.G/16, dark.B-dark.B/16
	cells := image.NewNRGBA(image.Rect(0, 0, 2*checkerSize, 2*checkerSize))
	for y := 0; y < 2*checkerSize; y++ {
		for x := 0; x < 2*checkerSize; x++ {
			if (x/checkerSize+y/checkerSize)%2 == 0 {
				cells.SetNRGBA(x, y, light)
			} else {
				cells.SetNRGBA(x, y, dark)
			}
		}
	}
	return gg.NewSurfacePattern(cells, gg.RepeatBoth)
}

// composite draws sr of src so that it covers r, in the quad's content
// space, inside the quad's region.
func (s *Software) composite(t *target, b *quad.Quad, r rect.Rect, src image.Image, sr image.Rectangle, flipped bool, mask image.Image) {
	clip := t.region(b)
	if clip.Empty() || sr.Empty() || r.IsEmpty() {
		return
	}
	sx := r.Width() / float64(sr.Dx())
	sy := r.Height() / float64(sr.Dy())
	placement := transform.Translation(r.Left, r.Top).Concat(transform.Scaling(sx, sy))
	if flipped {
		placement = transform.Translation(r.Left, r.Bottom).Concat(transform.Scaling(sx, -sy))
	}
	s2d := t.toImage(b.QuadTransform()).Concat(placement).Concat(transform.Translation(-float64(sr.Min.X), -float64(sr.Min.Y)))

	opts := &draw.Options{}
	switch {
	case mask != nil:
		opts.SrcMask = mask
	case b.Opacity() < 1:
		opts.SrcMask = image.NewUniform(col.Alpha{A: uint8(b.Opacity()*255 + 0.5)})
	}
	dst := t.img.SubImage(clip).(*image.RGBA)
	draw.BiLinear.Transform(dst, s2d.Aff3(), src, sr, draw.Over, opts)
}

func (s *Software) resourceImage(id resource.ID) *image.RGBA {
	if id == resource.None {
		return nil
	}
	img := s.resources.Image(id)
	if img == nil {
		debug.Logger().Debug("missing resource", "id", id)
	}
	return img
}

func (s *Software) drawTextureQuad(t *target, q *quad.TextureQuad) {
	img := s.resourceImage(q.ResourceID)
	if img == nil {
		return
	}
	size := img.Bounds().Size()
	uv := q.UVRect.Scale(float64(size.X), float64(size.Y)).RoundOutToInt().Add(img.Bounds().Min)
	s.composite(t, q.Base(), q.Rect, img, uv.Intersect(img.Bounds()), q.Flipped, nil)
}

func (s *Software) drawTileQuad(t *target, q *quad.TileQuad) {
	img := s.resourceImage(q.ResourceID)
	if img == nil {
		return
	}
	sr := q.TexCoordRect.RoundOutToInt().Add(img.Bounds().Min).Intersect(img.Bounds())
	s.composite(t, q.Base(), q.Rect, img, sr, false, nil)
}

func (s *Software) drawYUVVideoQuad(t *target, q *quad.YUVVideoQuad) {
	y, u, v := s.resourceImage(q.YPlane), s.resourceImage(q.UPlane), s.resourceImage(q.VPlane)
	if y == nil || u == nil || v == nil {
		return
	}
	rgb := yuvToRGBA(y, u, v)
	s.composite(t, q.Base(), q.Rect, rgb, rgb.Bounds(), false, nil)
}

// yuvToRGBA converts planes uploaded as grey images, chroma planes possibly
// subsampled, to one RGBA frame.
func yuvToRGBA(y, u, v *image.RGBA) *image.RGBA {
	yb, cb := y.Bounds(), u.Bounds()
	out := image.NewRGBA(image.Rectangle{Max: yb.Size()})
	for py := 0; py < yb.Dy(); py++ {
		cy := cb.Min.Y + py*cb.Dy()/yb.Dy()
		for px := 0; px < yb.Dx(); px++ {
			cx := cb.Min.X + px*cb.Dx()/yb.Dx()
			r, g, b := col.YCbCrToRGB(y.RGBAAt(yb.Min.X+px, yb.Min.Y+py).R, u.RGBAAt(cx, cy).R, v.RGBAAt(cx, cy).R)
			out.SetRGBA(px, py, col.RGBA{R: r, G: g, B: b, A: 255})
		}
	}
	return out
}

func (s *Software) drawRenderPassQuad(t *target, q *quad.RenderPassQuad) {
	tex, ok := s.textures[q.RenderPassID]
	if !ok || tex.image == nil {
		debug.Logger().Debug("no texture for render pass quad", "pass", q.RenderPassID)
		return
	}
	b := q.Base()
	if !tex.backgroundFilters.IsEmpty() {
		s.filterBackground(t, b, tex.backgroundFilters)
	}
	var src image.Image = tex.image
	if !tex.filters.IsEmpty() {
		src = applyFilters(tex.image, tex.filters)
	}
	var mask image.Image
	if q.MaskResourceID != resource.None {
		if m := s.resourceImage(q.MaskResourceID); m != nil {
			mask = maskAlpha(q, m, src.Bounds(), b.Opacity())
		}
	}
	s.composite(t, b, q.Rect, src, src.Bounds(), false, mask)
}

// filterBackground replaces what is already drawn under the quad with its
// filtered version.
func (s *Software) filterBackground(t *target, b *quad.Quad, filters renderpass.FilterOperations) {
	area := t.region(b)
	if area.Empty() {
		return
	}
	filtered := applyFilters(t.img.SubImage(area), filters)
	draw.Draw(t.img, area, filtered, filtered.Bounds().Min, draw.Src)
}

// maskAlpha samples the mask over the pass texture using the quad's mask
// texture coordinates, folding in opacity.
func maskAlpha(q *quad.RenderPassQuad, mask *image.RGBA, bounds image.Rectangle, opacity float64) *image.Alpha {
	out := image.NewAlpha(bounds)
	mb := mask.Bounds()
	w, h := float64(bounds.Dx()), float64(bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		v := (float64(y-bounds.Min.Y) + 0.5) / h
		my := mb.Min.Y + int((v*q.MaskTexCoordScaleY+q.MaskTexCoordOffsetY)*float64(mb.Dy()))
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			u := (float64(x-bounds.Min.X) + 0.5) / w
			mx := mb.Min.X + int((u*q.MaskTexCoordScaleX+q.MaskTexCoordOffsetX)*float64(mb.Dx()))
			if !image.Pt(mx, my).In(mb) {
				continue
			}
			out.SetAlpha(x, y, col.Alpha{A: uint8(float64(mask.RGBAAt(mx, my).A)*opacity + 0.5)})
		}
	}
	return out
}
