// Package resource hands out opaque IDs for bitmap-backed content such as
// tiles, textures, video planes and masks. The compositor core only passes
// IDs around; renderers look the pixels up.
package resource

import (
	"fmt"
	"image"

	"compositor/debug"

	"golang.org/x/image/draw"
)

type ID uint32

// None is never allocated.
const None ID = 0

type Resource struct {
	Size    image.Point
	Pixels  *image.RGBA
	pending bool
}

// Provider owns every resource for one graphics context. Losing the
// context invalidates every ID it ever handed out.
type Provider struct {
	next        ID
	resources   map[ID]*Resource
	contextLost bool
	maxSize     int
}

func NewProvider(maxTextureSize int) *Provider {
	return &Provider{
		next:      1,
		resources: make(map[ID]*Resource),
		maxSize:   maxTextureSize,
	}
}

// Create allocates an empty resource of the given size.
func (p *Provider) Create(size image.Point) (ID, error) {
	if p.contextLost {
		return None, fmt.Errorf("resource: create %v: context lost", size)
	}
	if size.X <= 0 || size.Y <= 0 {
		return None, fmt.Errorf("resource: create %v: empty size", size)
	}
	if p.maxSize > 0 && (size.X > p.maxSize || size.Y > p.maxSize) {
		return None, fmt.Errorf("resource: create %v: exceeds max texture size %d", size, p.maxSize)
	}
	id := p.next
	p.next++
	p.resources[id] = &Resource{Size: size, Pixels: image.NewRGBA(image.Rectangle{Max: size})}
	return id, nil
}

// Upload copies src into the resource, anchored at the resource origin.
// The upload stays pending until MarkPendingUploadsAsNonBlocking.
func (p *Provider) Upload(id ID, src image.Image) error {
	r, ok := p.resources[id]
	if !ok {
		return fmt.Errorf("resource: upload %d: unknown resource", id)
	}
	draw.Draw(r.Pixels, r.Pixels.Bounds(), src, src.Bounds().Min, draw.Src)
	r.pending = true
	return nil
}

// CreateFromImage allocates a resource sized to img and uploads it.
func (p *Provider) CreateFromImage(img image.Image) (ID, error) {
	id, err := p.Create(img.Bounds().Size())
	if err != nil {
		return None, err
	}
	if err := p.Upload(id, img); err != nil {
		return None, err
	}
	return id, nil
}

func (p *Provider) Get(id ID) (*Resource, bool) {
	r, ok := p.resources[id]
	return r, ok
}

// Image returns the pixels of a resource, or nil when the ID is unknown.
func (p *Provider) Image(id ID) *image.RGBA {
	if r, ok := p.resources[id]; ok {
		return r.Pixels
	}
	return nil
}

func (p *Provider) Delete(id ID) {
	delete(p.resources, id)
}

func (p *Provider) Len() int {
	return len(p.resources)
}

func (p *Provider) HasPendingUploads() bool {
	for _, r := range p.resources {
		if r.pending {
			return true
		}
	}
	return false
}

// MarkPendingUploadsAsNonBlocking is called once a frame has been drawn.
func (p *Provider) MarkPendingUploadsAsNonBlocking() {
	for _, r := range p.resources {
		r.pending = false
	}
}

func (p *Provider) IsContextLost() bool {
	return p.contextLost
}

// LoseContext drops every resource. Layers must reallocate after the
// compositor propagates the loss to them.
func (p *Provider) LoseContext() {
	debug.Logger().Warn("resource provider lost its context", "resources", len(p.resources))
	p.contextLost = true
	clear(p.resources)
}
