package layer

import (
	"image"

	"compositor/debug"
	"compositor/quad"
	"compositor/rect"
	"compositor/resource"

	"golang.org/x/image/draw"
)

// Content is what a layer draws. The set of kinds is fixed: Container,
// SolidColor, Tiled, Texture, Video and Delegated.
type Content interface {
	isContent()
}

// Container draws nothing itself.
type Container struct{}

func (*Container) isContent() {}

// SolidColor fills the layer with its background colour, split into tiles
// so occlusion can cull part of it.
type SolidColor struct {
	TileSize int
}

func (*SolidColor) isContent() {}

func (c *SolidColor) appendQuads(l *Layer, sink quad.Sink, data *quad.AppendData) {
	sqs := sink.UseSharedQuadState(l.CreateSharedQuadState())

	tileSize := c.TileSize
	if tileSize <= 0 {
		tileSize = l.tree.settings.DefaultTileSize
	}
	size := l.ContentBounds()
	ts := float64(tileSize)
	for x := 0.0; x < size.Width; x += ts {
		for y := 0.0; y < size.Height; y += ts {
			r := rect.XYWH(x, y, min(size.Width-x, ts), min(size.Height-y, ts))
			sink.Append(quad.NewSolidColor(sqs, r, l.BackgroundColor()), data)
		}
	}
	l.appendDebugBorderQuad(sink, sqs, data)
}

type tileIndex struct {
	I, J int
}

// Tiled draws Source, rasterised at content bounds, as a grid of square
// tiles. Tiles without a resource are drawn as checkerboards.
type Tiled struct {
	Source   image.Image
	TileSize int
	// SkipsDraw makes the layer emit nothing, so it never reports missing
	// tiles.
	SkipsDraw       bool
	ContentsSwizzle bool

	tiles   map[tileIndex]resource.ID
	missing map[tileIndex]bool
}

func NewTiled(src image.Image, tileSize int) *Tiled {
	return &Tiled{
		Source:   src,
		TileSize: tileSize,
		tiles:    make(map[tileIndex]resource.ID),
		missing:  make(map[tileIndex]bool),
	}
}

func (*Tiled) isContent() {}

// SetTileMissing keeps tile (i, j) from being uploaded, as if it had not
// been rasterised yet.
func (t *Tiled) SetTileMissing(i, j int, missing bool) {
	idx := tileIndex{i, j}
	if t.missing == nil {
		t.missing = make(map[tileIndex]bool)
	}
	if missing {
		t.missing[idx] = true
		delete(t.tiles, idx)
	} else {
		delete(t.missing, idx)
	}
}

func (t *Tiled) HasResourceForTile(i, j int) bool {
	return t.tiles[tileIndex{i, j}] != resource.None
}

func (t *Tiled) tileBounds(i, j int) rect.Rect {
	ts := float64(t.TileSize)
	return rect.XYWH(float64(i)*ts, float64(j)*ts, ts, ts)
}

// tileRange returns the inclusive indices of tiles touching r.
func (t *Tiled) tileRange(r rect.Rect) (left, top, right, bottom int) {
	ts := float64(t.TileSize)
	return int(r.Left / ts), int(r.Top / ts), int((r.Right - 1) / ts), int((r.Bottom - 1) / ts)
}

func (t *Tiled) contentsResourceID() resource.ID {
	return t.tiles[tileIndex{}]
}

func (t *Tiled) pushResources(l *Layer, p *resource.Provider) error {
	bounds := rect.FromSize(l.ContentBounds())
	if bounds.IsEmpty() || t.TileSize <= 0 {
		return nil
	}
	if t.tiles == nil {
		t.tiles = make(map[tileIndex]resource.ID)
	}
	left, top, right, bottom := t.tileRange(bounds)
	for j := top; j <= bottom; j++ {
		for i := left; i <= right; i++ {
			idx := tileIndex{i, j}
			if t.missing[idx] || t.tiles[idx] != resource.None {
				continue
			}
			tileRect := t.tileBounds(i, j).Intersect(bounds).RoundOutToInt()
			pixels := image.NewRGBA(image.Rectangle{Max: tileRect.Size()})
			if t.Source != nil {
				draw.Draw(pixels, pixels.Bounds(), t.Source, t.Source.Bounds().Min.Add(tileRect.Min), draw.Src)
			} else {
				draw.Draw(pixels, pixels.Bounds(), image.NewUniform(l.BackgroundColor()), image.Point{}, draw.Src)
			}
			id, err := p.CreateFromImage(pixels)
			if err != nil {
				return err
			}
			t.tiles[idx] = id
		}
	}
	return nil
}

func (t *Tiled) appendQuads(l *Layer, sink quad.Sink, data *quad.AppendData) {
	sqs := sink.UseSharedQuadState(l.CreateSharedQuadState())
	settings := l.tree.settings
	contentRect := l.visibleContentRect
	if t.SkipsDraw || contentRect.IsEmpty() || t.TileSize <= 0 {
		l.appendDebugBorderQuad(sink, sqs, data)
		return
	}

	left, top, right, bottom := t.tileRange(contentRect)
	for j := top; j <= bottom; j++ {
		for i := left; i <= right; i++ {
			displayRect := t.tileBounds(i, j)
			tileRect := displayRect.Intersect(contentRect)
			if tileRect.IsEmpty() {
				continue
			}
			id := t.tiles[tileIndex{i, j}]
			if id == resource.None {
				data.NumMissingTiles++
				if settings.DrawCheckerboardForMissingTiles {
					sink.Append(quad.NewCheckerboard(sqs, tileRect, debug.CheckerboardColor), data)
					data.HadMissingTiles = true
				} else if sink.Append(quad.NewSolidColor(sqs, tileRect, l.BackgroundColor()), data) {
					data.HadMissingTiles = true
				}
				continue
			}

			opaque := rect.Rect{}
			if l.ContentsOpaque() {
				opaque = tileRect
			}
			offsetX, offsetY := tileRect.Left-displayRect.Left, tileRect.Top-displayRect.Top
			texCoords := rect.XYWH(offsetX, offsetY, tileRect.Width(), tileRect.Height())
			textureSize := rect.Size{Width: float64(t.TileSize), Height: float64(t.TileSize)}
			q := quad.NewTile(sqs, tileRect, opaque, id, texCoords, textureSize, t.ContentsSwizzle)
			q.LeftEdgeAA, q.TopEdgeAA = i == 0, j == 0
			sink.Append(q, data)
		}
	}

	if settings.ShowDebugBorders {
		for j := top; j <= bottom; j++ {
			for i := left; i <= right; i++ {
				tileRect := t.tileBounds(i, j).Intersect(contentRect)
				if tileRect.IsEmpty() {
					continue
				}
				c := debug.TiledContentBorderColor
				if !t.HasResourceForTile(i, j) {
					c = debug.MissingTileBorderColor
				}
				sink.Append(quad.NewDebugBorder(sqs, tileRect, c, debug.TileBorderWidth), data)
			}
		}
	}
	l.appendDebugBorderQuad(sink, sqs, data)
}

// Texture draws one externally produced image stretched over the layer.
type Texture struct {
	Image         image.Image
	Premultiplied bool
	Flipped       bool
	// UVRect defaults to the whole texture when empty.
	UVRect rect.Rect

	resourceID resource.ID
}

func (*Texture) isContent() {}

func (t *Texture) ResourceID() resource.ID {
	return t.resourceID
}

func (t *Texture) pushResources(p *resource.Provider) error {
	if t.resourceID != resource.None || t.Image == nil {
		return nil
	}
	id, err := p.CreateFromImage(t.Image)
	if err != nil {
		return err
	}
	t.resourceID = id
	return nil
}

func (t *Texture) appendQuads(l *Layer, sink quad.Sink, data *quad.AppendData) {
	sqs := sink.UseSharedQuadState(l.CreateSharedQuadState())
	if t.resourceID != resource.None {
		r := rect.FromSize(l.ContentBounds())
		opaque := rect.Rect{}
		if l.ContentsOpaque() {
			opaque = r
		}
		uv := t.UVRect
		if uv.IsEmpty() {
			uv = rect.XYWH(0, 0, 1, 1)
		}
		sink.Append(quad.NewTexture(sqs, r, opaque, t.resourceID, t.Premultiplied, uv, t.Flipped), data)
	}
	l.appendDebugBorderQuad(sink, sqs, data)
}

// Video draws the current frame. Its planes only live between WillDraw and
// DidDraw.
type Video struct {
	Frame *image.YCbCr

	planes [3]resource.ID
}

func (*Video) isContent() {}

func (v *Video) willDraw(p *resource.Provider) {
	if v.Frame == nil || p == nil {
		return
	}
	f := v.Frame
	ySize := f.Rect.Size()
	chroma := chromaSize(ySize, f.SubsampleRatio)
	y0 := f.YOffset(f.Rect.Min.X, f.Rect.Min.Y)
	c0 := f.COffset(f.Rect.Min.X, f.Rect.Min.Y)
	planes := []*image.Gray{
		{Pix: f.Y[y0:], Stride: f.YStride, Rect: image.Rectangle{Max: ySize}},
		{Pix: f.Cb[c0:], Stride: f.CStride, Rect: image.Rectangle{Max: chroma}},
		{Pix: f.Cr[c0:], Stride: f.CStride, Rect: image.Rectangle{Max: chroma}},
	}
	for i, plane := range planes {
		id, err := p.CreateFromImage(plane)
		if err != nil {
			debug.Logger().Warn("video plane upload failed", "plane", i, "err", err)
			v.releasePlanes(p)
			return
		}
		v.planes[i] = id
	}
}

func chromaSize(luma image.Point, ratio image.YCbCrSubsampleRatio) image.Point {
	w, h := luma.X, luma.Y
	switch ratio {
	case image.YCbCrSubsampleRatio422:
		return image.Pt((w+1)/2, h)
	case image.YCbCrSubsampleRatio420:
		return image.Pt((w+1)/2, (h+1)/2)
	case image.YCbCrSubsampleRatio440:
		return image.Pt(w, (h+1)/2)
	case image.YCbCrSubsampleRatio411:
		return image.Pt((w+3)/4, h)
	case image.YCbCrSubsampleRatio410:
		return image.Pt((w+3)/4, (h+1)/2)
	}
	return luma
}

func (v *Video) didDraw(p *resource.Provider) {
	v.releasePlanes(p)
}

func (v *Video) releasePlanes(p *resource.Provider) {
	for i, id := range v.planes {
		if id != resource.None && p != nil {
			p.Delete(id)
		}
		v.planes[i] = resource.None
	}
}

func (v *Video) appendQuads(l *Layer, sink quad.Sink, data *quad.AppendData) {
	sqs := sink.UseSharedQuadState(l.CreateSharedQuadState())
	if v.planes[0] != resource.None {
		r := rect.FromSize(l.ContentBounds())
		texScale := rect.Size{Width: 1, Height: 1}
		sink.Append(quad.NewYUVVideo(sqs, r, r, texScale, v.planes[0], v.planes[1], v.planes[2]), data)
	}
	l.appendDebugBorderQuad(sink, sqs, data)
}
