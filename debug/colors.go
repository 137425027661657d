package debug

import (
	col "image/color"

	"compositor/color"
)

// Border colours and widths for the debug quads layers and surfaces emit
// when debug borders are enabled.
var (
	ContainerLayerBorderColor = color.ParseColor("rgba(255, 255, 0, 0.75)")
	SurfaceBorderColor        = color.ParseColor("rgba(0, 0, 255, 0.4)")
	SurfaceReplicaBorderColor = color.ParseColor("rgba(160, 0, 255, 0.4)")
	TiledContentBorderColor   = color.ParseColor("rgba(255, 128, 0, 0.5)")
	MissingTileBorderColor    = color.ParseColor("rgba(255, 0, 0, 0.25)")
	TextureLayerBorderColor   = color.ParseColor("rgba(0, 192, 0, 0.75)")
	VideoLayerBorderColor     = color.ParseColor("rgba(0, 192, 192, 0.75)")
	DelegatedBorderColor      = color.ParseColor("rgba(255, 0, 255, 0.75)")
	CulledTileBorderColor     = color.ParseColor("rgba(64, 64, 64, 0.5)")

	CheckerboardColor = color.ParseColor("rgb(241, 241, 241)")
)

const (
	LayerBorderWidth   = 2
	SurfaceBorderWidth = 2
	TileBorderWidth    = 1
)

// LayerBorder returns the border colour for a layer kind name.
func LayerBorder(kind string) col.RGBA {
	switch kind {
	case "TiledLayer":
		return TiledContentBorderColor
	case "TextureLayer":
		return TextureLayerBorderColor
	case "VideoLayer":
		return VideoLayerBorderColor
	case "DelegatedRendererLayer":
		return DelegatedBorderColor
	default:
		return ContainerLayerBorderColor
	}
}
