package config

import (
	"fmt"
	col "image/color"
	"os"

	"compositor/color"
	"compositor/rect"

	"github.com/BurntSushi/toml"
)

// Settings controls how a host prepares and draws frames.
type Settings struct {
	// Debug visualisation
	ShowDebugBorders                bool `toml:"show_debug_borders"`
	ShowCullingWithDebugBorderQuads bool `toml:"show_culling_with_debug_border_quads"`
	ShowOverdrawInTracing           bool `toml:"show_overdraw_in_tracing"`

	// Caching and swap
	CacheRenderPassContents bool `toml:"cache_render_pass_contents"`
	PartialSwapEnabled      bool `toml:"partial_swap_enabled"`

	// Occlusion rects smaller than this in either dimension are not tracked.
	MinimumOcclusionTrackingWidth  float64 `toml:"minimum_occlusion_tracking_width"`
	MinimumOcclusionTrackingHeight float64 `toml:"minimum_occlusion_tracking_height"`

	// Content
	DefaultTileSize                 int    `toml:"default_tile_size"`
	DrawCheckerboardForMissingTiles bool   `toml:"draw_checkerboard_for_missing_tiles"`
	MaxTextureSize                  int    `toml:"max_texture_size"`
	BackgroundColor                 string `toml:"background_color"`
	HasTransparentBackground        bool   `toml:"has_transparent_background"`
}

func Default() Settings {
	return Settings{
		CacheRenderPassContents:         true,
		PartialSwapEnabled:              false,
		MinimumOcclusionTrackingWidth:   0,
		MinimumOcclusionTrackingHeight:  0,
		DefaultTileSize:                 256,
		DrawCheckerboardForMissingTiles: true,
		MaxTextureSize:                  4096,
		BackgroundColor:                 "white",
	}
}

// Load reads a TOML settings file. Keys missing from the file keep their
// defaults.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	s, err := Parse(string(data))
	if err != nil {
		return Settings{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return s, nil
}

func Parse(data string) (Settings, error) {
	s := Default()
	if _, err := toml.Decode(data, &s); err != nil {
		return Settings{}, err
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func (s Settings) Validate() error {
	if s.DefaultTileSize <= 0 {
		return fmt.Errorf("default_tile_size must be positive, got %d", s.DefaultTileSize)
	}
	if s.MaxTextureSize <= 0 {
		return fmt.Errorf("max_texture_size must be positive, got %d", s.MaxTextureSize)
	}
	if _, err := color.Parse(s.BackgroundColor); err != nil {
		return err
	}
	return nil
}

func (s Settings) Background() col.RGBA {
	return color.ParseColor(s.BackgroundColor)
}

func (s Settings) MinimumOcclusionTrackingSize() rect.Size {
	return rect.Size{Width: s.MinimumOcclusionTrackingWidth, Height: s.MinimumOcclusionTrackingHeight}
}
