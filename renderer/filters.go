package renderer

import (
	"image"
	col "image/color"

	"compositor/color"
	"compositor/renderpass"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/blend"
	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	"golang.org/x/image/draw"
)

// applyFilters runs ops over img in order and returns a new image with
// bounds at the origin.
func applyFilters(img image.Image, ops renderpass.FilterOperations) *image.RGBA {
	out := toRGBA(img)
	for _, op := range ops {
		out = applyFilter(out, op)
	}
	return out
}

func applyFilter(img *image.RGBA, op renderpass.FilterOperation) *image.RGBA {
	amount := op.Amount
	switch op.Kind {
	case renderpass.Grayscale:
		return mix(img, effect.Grayscale(img), amount)
	case renderpass.Sepia:
		return mix(img, effect.Sepia(img), amount)
	case renderpass.Invert:
		return mix(img, effect.Invert(img), amount)
	case renderpass.Saturate:
		return adjust.Saturation(img, clampChange(amount-1))
	case renderpass.HueRotate:
		return adjust.Hue(img, int(amount))
	case renderpass.Brightness:
		return adjust.Brightness(img, clampChange(amount-1))
	case renderpass.Contrast:
		return adjust.Contrast(img, clampChange(amount-1))
	case renderpass.Opacity:
		return mix(image.NewRGBA(img.Bounds()), img, amount)
	case renderpass.Blur:
		if amount <= 0 {
			return img
		}
		return blur.Gaussian(img, amount)
	case renderpass.DropShadow:
		return dropShadow(img, op)
	}
	return img
}

// mix blends from towards to by amount, the way CSS filter amounts below
// one work.
func mix(from, to image.Image, amount float64) *image.RGBA {
	switch {
	case amount >= 1:
		return toRGBA(to)
	case amount <= 0:
		return toRGBA(from)
	}
	return blend.Opacity(from, to, amount)
}

func clampChange(c float64) float64 {
	return max(-1, min(1, c))
}

func dropShadow(img *image.RGBA, op renderpass.FilterOperation) *image.RGBA {
	b := img.Bounds()
	shadowColor := color.Premultiplied(op.Color)
	shadow := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			a := uint32(img.RGBAAt(x, y).A)
			shadow.SetRGBA(x, y, col.RGBA{
				R: uint8(uint32(shadowColor.R) * a / 255),
				G: uint8(uint32(shadowColor.G) * a / 255),
				B: uint8(uint32(shadowColor.B) * a / 255),
				A: uint8(uint32(shadowColor.A) * a / 255),
			})
		}
	}
	var blurred image.Image = shadow
	if op.Amount > 0 {
		blurred = blur.Gaussian(shadow, op.Amount)
	}

	out := image.NewRGBA(image.Rectangle{Max: b.Size()})
	offset := image.Pt(int(op.OffsetX), int(op.OffsetY))
	draw.Draw(out, out.Bounds().Add(offset), blurred, blurred.Bounds().Min, draw.Over)
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Over)
	return out
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	out := image.NewRGBA(image.Rectangle{Max: img.Bounds().Size()})
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Src)
	return out
}
