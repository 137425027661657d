package quad

import (
	"fmt"
	col "image/color"

	"compositor/color"
	"compositor/rect"
	"compositor/resource"
)

type CheckerboardQuad struct {
	Quad
	Color col.RGBA
}

func NewCheckerboard(sqs *SharedQuadState, r rect.Rect, c col.RGBA) *CheckerboardQuad {
	return &CheckerboardQuad{Quad: newQuad(sqs, r, r), Color: c}
}

func (q *CheckerboardQuad) Material() Material { return Checkerboard }

func (q *CheckerboardQuad) Copy(sqs *SharedQuadState) DrawQuad {
	c := *q
	c.SharedQuadState = sqs
	return &c
}

func (q *CheckerboardQuad) String() string {
	return fmt.Sprint("Checkerboard(rect=", q.Rect, ")")
}

type DebugBorderQuad struct {
	Quad
	Color col.RGBA
	Width float64
}

func NewDebugBorder(sqs *SharedQuadState, r rect.Rect, c col.RGBA, width float64) *DebugBorderQuad {
	q := &DebugBorderQuad{Quad: newQuad(sqs, r, rect.Rect{}), Color: c, Width: width}
	q.NeedsBlending = !color.IsOpaque(c)
	return q
}

func (q *DebugBorderQuad) Material() Material { return DebugBorder }

func (q *DebugBorderQuad) Copy(sqs *SharedQuadState) DrawQuad {
	c := *q
	c.SharedQuadState = sqs
	return &c
}

func (q *DebugBorderQuad) String() string {
	return fmt.Sprint("DebugBorder(rect=", q.Rect, ", color=", color.String(q.Color), ")")
}

type SolidColorQuad struct {
	Quad
	Color col.RGBA
}

func NewSolidColor(sqs *SharedQuadState, r rect.Rect, c col.RGBA) *SolidColorQuad {
	opaque := rect.Rect{}
	if color.IsOpaque(c) {
		opaque = r
	}
	return &SolidColorQuad{Quad: newQuad(sqs, r, opaque), Color: c}
}

func (q *SolidColorQuad) Material() Material { return SolidColor }

func (q *SolidColorQuad) Copy(sqs *SharedQuadState) DrawQuad {
	c := *q
	c.SharedQuadState = sqs
	return &c
}

func (q *SolidColorQuad) String() string {
	return fmt.Sprint("SolidColor(rect=", q.Rect, ", color=", color.String(q.Color), ")")
}

// RenderPassQuad composites the output of another pass into this one.
type RenderPassQuad struct {
	Quad
	RenderPassID   RenderPassID
	IsReplica      bool
	MaskResourceID resource.ID
	// ContentsChangedSinceLastFrame is empty when a cached texture of the
	// referenced pass can be reused as is.
	ContentsChangedSinceLastFrame rect.Rect

	MaskTexCoordScaleX  float64
	MaskTexCoordScaleY  float64
	MaskTexCoordOffsetX float64
	MaskTexCoordOffsetY float64
}

func NewRenderPass(sqs *SharedQuadState, r rect.Rect, id RenderPassID, isReplica bool, mask resource.ID, contentsChanged rect.Rect) *RenderPassQuad {
	return &RenderPassQuad{
		Quad:                          newQuad(sqs, r, rect.Rect{}),
		RenderPassID:                  id,
		IsReplica:                     isReplica,
		MaskResourceID:                mask,
		ContentsChangedSinceLastFrame: contentsChanged,
		MaskTexCoordScaleX:            1,
		MaskTexCoordScaleY:            1,
	}
}

func (q *RenderPassQuad) SetMaskTexCoords(scaleX, scaleY, offsetX, offsetY float64) {
	q.MaskTexCoordScaleX, q.MaskTexCoordScaleY = scaleX, scaleY
	q.MaskTexCoordOffsetX, q.MaskTexCoordOffsetY = offsetX, offsetY
}

func (q *RenderPassQuad) Material() Material { return RenderPass }

func (q *RenderPassQuad) Copy(sqs *SharedQuadState) DrawQuad {
	return q.CopyWithID(sqs, q.RenderPassID)
}

// CopyWithID is Copy for quads whose referenced pass has been renamed.
func (q *RenderPassQuad) CopyWithID(sqs *SharedQuadState, id RenderPassID) *RenderPassQuad {
	c := *q
	c.SharedQuadState = sqs
	c.RenderPassID = id
	return &c
}

func (q *RenderPassQuad) String() string {
	return fmt.Sprint("RenderPass(rect=", q.Rect, ", pass=", q.RenderPassID, ", replica=", q.IsReplica, ")")
}

type TextureQuad struct {
	Quad
	ResourceID         resource.ID
	PremultipliedAlpha bool
	// UVRect is in normalised texture coordinates.
	UVRect  rect.Rect
	Flipped bool
}

func NewTexture(sqs *SharedQuadState, r, opaque rect.Rect, id resource.ID, premultiplied bool, uv rect.Rect, flipped bool) *TextureQuad {
	return &TextureQuad{
		Quad:               newQuad(sqs, r, opaque),
		ResourceID:         id,
		PremultipliedAlpha: premultiplied,
		UVRect:             uv,
		Flipped:            flipped,
	}
}

func (q *TextureQuad) Material() Material { return Texture }

func (q *TextureQuad) Copy(sqs *SharedQuadState) DrawQuad {
	c := *q
	c.SharedQuadState = sqs
	return &c
}

func (q *TextureQuad) String() string {
	return fmt.Sprint("Texture(rect=", q.Rect, ", resource=", q.ResourceID, ")")
}

type TileQuad struct {
	Quad
	ResourceID resource.ID
	// TexCoordRect is in texel space of the tile resource.
	TexCoordRect    rect.Rect
	TextureSize     rect.Size
	SwizzleContents bool

	LeftEdgeAA   bool
	TopEdgeAA    bool
	RightEdgeAA  bool
	BottomEdgeAA bool
}

func NewTile(sqs *SharedQuadState, r, opaque rect.Rect, id resource.ID, texCoords rect.Rect, textureSize rect.Size, swizzle bool) *TileQuad {
	return &TileQuad{
		Quad:            newQuad(sqs, r, opaque),
		ResourceID:      id,
		TexCoordRect:    texCoords,
		TextureSize:     textureSize,
		SwizzleContents: swizzle,
	}
}

func (q *TileQuad) IsAntialiased() bool {
	return q.LeftEdgeAA || q.TopEdgeAA || q.RightEdgeAA || q.BottomEdgeAA
}

func (q *TileQuad) Material() Material { return TiledContent }

func (q *TileQuad) Copy(sqs *SharedQuadState) DrawQuad {
	c := *q
	c.SharedQuadState = sqs
	return &c
}

func (q *TileQuad) String() string {
	return fmt.Sprint("Tile(rect=", q.Rect, ", resource=", q.ResourceID, ")")
}

// YUVVideoQuad is a video frame stored as three planes. The software
// renderer expects them at full resolution.
type YUVVideoQuad struct {
	Quad
	TexScale rect.Size
	YPlane   resource.ID
	UPlane   resource.ID
	VPlane   resource.ID
}

func NewYUVVideo(sqs *SharedQuadState, r, opaque rect.Rect, texScale rect.Size, y, u, v resource.ID) *YUVVideoQuad {
	return &YUVVideoQuad{Quad: newQuad(sqs, r, opaque), TexScale: texScale, YPlane: y, UPlane: u, VPlane: v}
}

func (q *YUVVideoQuad) Material() Material { return YUVVideoContent }

func (q *YUVVideoQuad) Copy(sqs *SharedQuadState) DrawQuad {
	c := *q
	c.SharedQuadState = sqs
	return &c
}

func (q *YUVVideoQuad) String() string {
	return fmt.Sprint("YUVVideo(rect=", q.Rect, ")")
}
