package resource

import (
	"fmt"
	"image"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	_ "golang.org/x/image/webp"
)

// DecodeFile reads a png, webp or tga image from disk.
func DecodeFile(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("resource: open %s: %w", path, err)
	}
	defer file.Close()

	var img image.Image
	// tga has no magic number, so image.Decode cannot sniff it
	if strings.EqualFold(filepath.Ext(path), ".tga") {
		img, err = tga.Decode(file)
	} else {
		img, _, err = image.Decode(file)
	}
	if err != nil {
		return nil, fmt.Errorf("resource: decode %s: %w", path, err)
	}
	return img, nil
}

// LoadFile decodes path and uploads it as a new resource.
func (p *Provider) LoadFile(path string) (ID, error) {
	img, err := DecodeFile(path)
	if err != nil {
		return None, err
	}
	id, err := p.CreateFromImage(img)
	if err != nil {
		return None, fmt.Errorf("resource: upload %s: %w", path, err)
	}
	return id, nil
}
