package enhance

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
)

// Resizer shrinks images to fit inside a MaxSize x MaxSize box.
//
// It never enlarges, and an image that already fits is returned unchanged, so
// running a Resizer twice with the same MaxSize is a no-op the second time.
type Resizer struct {
	// MaxSize bounds the longer side. Zero disables resizing.
	MaxSize int

	// Filter picks the resampler: "lanczos" (default), "box" (area average),
	// "catmullrom", or "nfnt" (nfnt/resize Lanczos3).
	Filter string
}

// Name returns the stage name used in logs.
func (r Resizer) Name() string { return "resize" }

// Apply downsizes img when its longer side exceeds MaxSize.
func (r Resizer) Apply(img *image.RGBA) *image.RGBA {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	dw, dh := FitDimensions(w, h, r.MaxSize)
	if dw == w && dh == h {
		return img
	}

	var dst *image.RGBA
	switch r.Filter {
	case "nfnt":
		out := resize.Resize(uint(dw), uint(dh), img, resize.Lanczos3)
		if rgba, ok := out.(*image.RGBA); ok {
			setOpaque(rgba.Pix)
			dst = rgba
		} else {
			dst = opaque(imaging.Clone(out))
		}
	default:
		dst = opaque(imaging.Resize(img, dw, dh, resampleFilter(r.Filter)))
	}
	return dst
}

// FitDimensions returns the size of a w x h image scaled to fit inside a
// maxSize square, preserving aspect ratio and rounding to the nearest pixel
// (never below 1). Sizes that already fit, or maxSize <= 0, are returned as is.
func FitDimensions(w, h, maxSize int) (int, int) {
	longer := w
	if h > longer {
		longer = h
	}
	if maxSize <= 0 || longer <= maxSize {
		return w, h
	}

	ratio := float64(maxSize) / float64(longer)
	dw := int(math.Max(1, math.Round(float64(w)*ratio)))
	dh := int(math.Max(1, math.Round(float64(h)*ratio)))
	// Pin the longer side so rounding can never overshoot the bound.
	if w >= h {
		dw = maxSize
	} else {
		dh = maxSize
	}
	return dw, dh
}

func resampleFilter(name string) imaging.ResampleFilter {
	switch name {
	case "box":
		return imaging.Box
	case "catmullrom":
		return imaging.CatmullRom
	}
	return imaging.Lanczos
}

// opaque forces full alpha on a resampled image and reinterprets it as RGBA.
func opaque(img *image.NRGBA) *image.RGBA {
	setOpaque(img.Pix)
	return &image.RGBA{Pix: img.Pix, Stride: img.Stride, Rect: img.Rect}
}

func setOpaque(pix []uint8) {
	for i := 3; i < len(pix); i += 4 {
		pix[i] = 0xff
	}
}
