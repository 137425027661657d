// Package scene builds a layer tree from a TOML description.
//
//	viewport = [200, 150]
//
//	[root]
//	kind = "container"
//	bounds = [200, 150]
//
//	[[root.children]]
//	kind = "solid"
//	position = [10, 10]
//	bounds = [50, 50]
//	color = "rebeccapurple"
//	force_surface = true
//	filters = "blur(2px)"
//
// Image paths are relative to the scene file.
package scene

import (
	"fmt"
	"image"
	col "image/color"
	"os"
	"path/filepath"

	"compositor/animate"
	"compositor/color"
	"compositor/config"
	"compositor/layer"
	"compositor/passscript"
	"compositor/rect"
	"compositor/renderpass"
	"compositor/resource"
	"compositor/transform"

	"github.com/BurntSushi/toml"
)

// Scene is a loaded layer tree and the viewport to draw it in.
type Scene struct {
	Tree     *layer.Tree
	Viewport rect.Size
}

type file struct {
	Viewport [2]float64 `toml:"viewport"`
	Root     *LayerSpec `toml:"root"`
}

// LayerSpec describes one layer and its subtree.
type LayerSpec struct {
	Kind          string         `toml:"kind"`
	Position      [2]float64     `toml:"position"`
	Bounds        [2]float64     `toml:"bounds"`
	Anchor        [2]float64     `toml:"anchor"`
	ContentBounds [2]float64     `toml:"content_bounds"`
	Transform     *TransformSpec `toml:"transform"`
	Sublayer      *TransformSpec `toml:"sublayer_transform"`
	Opacity       *float64       `toml:"opacity"`
	Color         string         `toml:"color"`

	ContentsOpaque bool    `toml:"contents_opaque"`
	MasksToBounds  bool    `toml:"masks_to_bounds"`
	Preserves3D    bool    `toml:"preserves_3d"`
	Depth          float64 `toml:"depth"`
	ForceSurface   bool    `toml:"force_surface"`

	Filters           string `toml:"filters"`
	BackgroundFilters string `toml:"background_filters"`

	// Content
	Image        string   `toml:"image"`
	TileSize     int      `toml:"tile_size"`
	MissingTiles [][2]int `toml:"missing_tiles"`
	SkipsDraw    bool     `toml:"skips_draw"`
	Passes       string   `toml:"passes"`

	Animations []AnimationSpec `toml:"animations"`
	Children   []*LayerSpec    `toml:"children"`
	Mask       *LayerSpec      `toml:"mask"`
	Replica    *LayerSpec      `toml:"replica"`
}

// TransformSpec is applied as translate, then rotate, then scale.
type TransformSpec struct {
	Translate [2]float64 `toml:"translate"`
	Rotate    float64    `toml:"rotate"`
	Scale     [2]float64 `toml:"scale"`
}

// AnimationSpec animates "opacity" (From[0] to To[0]) or "translate".
type AnimationSpec struct {
	Property string     `toml:"property"`
	From     [2]float64 `toml:"from"`
	To       [2]float64 `toml:"to"`
	Frames   int        `toml:"frames"`
}

// Load reads and builds the scene at path.
func Load(path string, settings config.Settings) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scene: read %s: %w", path, err)
	}
	s, err := Decode(string(data), filepath.Dir(path), settings)
	if err != nil {
		return nil, fmt.Errorf("scene: load %s: %w", path, err)
	}
	return s, nil
}

// Decode builds a scene from TOML. Relative image paths are resolved
// against dir.
func Decode(data, dir string, settings config.Settings) (*Scene, error) {
	var f file
	md, err := toml.Decode(data, &f)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %s", undecoded[0])
	}
	if f.Root == nil {
		return nil, fmt.Errorf("no root layer")
	}

	b := builder{tree: layer.NewTree(settings), dir: dir}
	root, err := b.build(f.Root, "root")
	if err != nil {
		return nil, err
	}
	b.tree.SetRoot(root)

	viewport := rect.Size{Width: f.Viewport[0], Height: f.Viewport[1]}
	if viewport.IsEmpty() {
		viewport = root.Bounds()
	}
	return &Scene{Tree: b.tree, Viewport: viewport}, nil
}

type builder struct {
	tree *layer.Tree
	dir  string
}

func (b *builder) build(spec *LayerSpec, path string) (*layer.Layer, error) {
	content, err := b.content(spec)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	l := b.tree.NewLayer(content)
	if err := b.apply(l, spec); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if spec.Mask != nil {
		m, err := b.build(spec.Mask, path+".mask")
		if err != nil {
			return nil, err
		}
		l.SetMaskLayer(m)
	}
	if spec.Replica != nil {
		r, err := b.build(spec.Replica, path+".replica")
		if err != nil {
			return nil, err
		}
		l.SetReplicaLayer(r)
	}
	for i, cs := range spec.Children {
		c, err := b.build(cs, fmt.Sprintf("%s.children[%d]", path, i))
		if err != nil {
			return nil, err
		}
		l.AddChild(c)
	}

	// passes are sized to the layer, so they come after apply
	if _, ok := content.(*layer.Delegated); ok && spec.Passes != "" {
		passes, err := delegatedPasses(spec.Passes, l.Bounds())
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		l.SetRenderPasses(passes)
	}
	return l, nil
}

func (b *builder) content(spec *LayerSpec) (layer.Content, error) {
	switch spec.Kind {
	case "", "container":
		return &layer.Container{}, nil
	case "solid":
		return &layer.SolidColor{TileSize: spec.TileSize}, nil
	case "delegated":
		return &layer.Delegated{}, nil
	}

	if spec.Image == "" {
		return nil, fmt.Errorf("%s layer needs an image", spec.Kind)
	}
	path := spec.Image
	if !filepath.IsAbs(path) {
		path = filepath.Join(b.dir, path)
	}
	img, err := resource.DecodeFile(path)
	if err != nil {
		return nil, err
	}

	switch spec.Kind {
	case "tiled":
		tileSize := spec.TileSize
		if tileSize <= 0 {
			tileSize = b.tree.Settings().DefaultTileSize
		}
		t := layer.NewTiled(img, tileSize)
		t.SkipsDraw = spec.SkipsDraw
		for _, ij := range spec.MissingTiles {
			t.SetTileMissing(ij[0], ij[1], true)
		}
		return t, nil
	case "texture":
		return &layer.Texture{Image: img}, nil
	case "video":
		return &layer.Video{Frame: toYCbCr(img)}, nil
	}
	return nil, fmt.Errorf("unknown layer kind %q", spec.Kind)
}

func (b *builder) apply(l *layer.Layer, spec *LayerSpec) error {
	l.SetPosition(rect.Point{X: spec.Position[0], Y: spec.Position[1]})
	l.SetAnchorPoint(rect.Point{X: spec.Anchor[0], Y: spec.Anchor[1]})
	bounds := rect.Size{Width: spec.Bounds[0], Height: spec.Bounds[1]}
	if bounds.IsEmpty() && spec.Image != "" {
		if img := imageOf(l.Content()); img != nil {
			size := img.Bounds().Size()
			bounds = rect.Size{Width: float64(size.X), Height: float64(size.Y)}
		}
	}
	l.SetBounds(bounds)
	if cb := spec.ContentBounds; cb[0] > 0 && cb[1] > 0 {
		l.SetContentBounds(rect.Size{Width: cb[0], Height: cb[1]})
	}
	l.SetTransform(spec.Transform.transform())
	l.SetSublayerTransform(spec.Sublayer.transform())
	if spec.Opacity != nil {
		l.SetOpacity(*spec.Opacity)
	}
	if spec.Color != "" {
		c, err := color.Parse(spec.Color)
		if err != nil {
			return err
		}
		l.SetBackgroundColor(c)
	}
	l.SetContentsOpaque(spec.ContentsOpaque)
	l.SetMasksToBounds(spec.MasksToBounds)
	l.SetPreserves3D(spec.Preserves3D)
	l.SetDepth(spec.Depth)
	l.SetForceRenderSurface(spec.ForceSurface)
	l.SetDrawsContent(spec.Kind != "" && spec.Kind != "container")

	if spec.Filters != "" {
		f, err := renderpass.ParseFilters(spec.Filters)
		if err != nil {
			return err
		}
		l.SetFilters(f)
	}
	if spec.BackgroundFilters != "" {
		f, err := renderpass.ParseFilters(spec.BackgroundFilters)
		if err != nil {
			return err
		}
		l.SetBackgroundFilters(f)
	}

	for _, a := range spec.Animations {
		switch a.Property {
		case "opacity":
			l.Animations().Add(animate.NewNumericAnimation(animate.Opacity, a.From[0], a.To[0], a.Frames))
		case "translate":
			l.Animations().Add(animate.NewTranslateAnimation(a.From[0], a.From[1], a.To[0], a.To[1], a.Frames))
		default:
			return fmt.Errorf("unknown animated property %q", a.Property)
		}
	}
	return nil
}

func imageOf(c layer.Content) image.Image {
	switch c := c.(type) {
	case *layer.Tiled:
		return c.Source
	case *layer.Texture:
		return c.Image
	case *layer.Video:
		return c.Frame
	}
	return nil
}

func (t *TransformSpec) transform() transform.Transform {
	if t == nil {
		return transform.Identity()
	}
	m := transform.Translation(t.Translate[0], t.Translate[1])
	if t.Rotate != 0 {
		m = m.Concat(transform.Rotation(t.Rotate))
	}
	if t.Scale != [2]float64{} {
		m = m.Scale(t.Scale[0], t.Scale[1])
	}
	return m
}

// delegatedPasses parses a pass script as a frame from another compositor.
// Every pass covers the layer, and so does every quad drawing one.
func delegatedPasses(script string, bounds rect.Size) (renderpass.List, error) {
	s, err := passscript.Parse(script)
	if err != nil {
		return nil, err
	}
	output := rect.FromSize(bounds)
	for _, p := range s.Passes {
		p.OutputRect = output
		p.DamageRect = output
		for _, q := range p.RenderPassQuads() {
			q.Rect = output
			q.VisibleRect = output
			if !q.ContentsChangedSinceLastFrame.IsEmpty() {
				q.ContentsChangedSinceLastFrame = output
			}
		}
	}
	return s.Passes, nil
}

// toYCbCr converts img to a 4:4:4 frame the video layer can split into
// planes.
func toYCbCr(img image.Image) *image.YCbCr {
	if f, ok := img.(*image.YCbCr); ok {
		return f
	}
	r := img.Bounds()
	f := image.NewYCbCr(image.Rect(0, 0, r.Dx(), r.Dy()), image.YCbCrSubsampleRatio444)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c := col.YCbCrModel.Convert(img.At(x, y)).(col.YCbCr)
			px, py := x-r.Min.X, y-r.Min.Y
			f.Y[f.YOffset(px, py)] = c.Y
			ci := f.COffset(px, py)
			f.Cb[ci] = c.Cb
			f.Cr[ci] = c.Cr
		}
	}
	return f
}
