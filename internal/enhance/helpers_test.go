package enhance

import (
	"image"
	"image/color"
	"testing"
)

// createSolidImage creates an opaque image filled with one color.
func createSolidImage(width, height int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = 0xff
	}
	return img
}

// createFullRangeImage creates a 256-wide image in which every channel takes
// every value 0-255, so auto-contrast without cutoff has nothing to stretch.
func createFullRangeImage(height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 256, height))
	for y := 0; y < height; y++ {
		for x := 0; x < 256; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8(x), uint8(255 - x), uint8((x*7 + y*31) % 256), 255})
		}
	}
	return img
}

// createRangeImage creates a horizontal gray ramp from lo to hi.
func createRangeImage(width, height int, lo, hi uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := uint8(int(lo) + (int(hi)-int(lo))*x/(width-1))
			img.SetRGBA(x, y, color.RGBA{v, v, v, 255})
		}
	}
	return img
}

// meanLuma returns the unrounded average luminance of img.
func meanLuma(img *image.RGBA) float64 {
	var sum float64
	w, h := img.Rect.Dx(), img.Rect.Dy()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			o := y*img.Stride + x*4
			sum += float64(Luma(img.Pix[o], img.Pix[o+1], img.Pix[o+2]))
		}
	}
	return sum / float64(w*h)
}

// assertOpaque fails the test if any alpha byte is not 255.
func assertOpaque(t *testing.T, img *image.RGBA) {
	t.Helper()
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 0xff {
			t.Fatalf("alpha at byte %d: got %d, want 255", i, img.Pix[i])
		}
	}
}

func pixelsEqual(a, b *image.RGBA) bool {
	if a.Rect.Dx() != b.Rect.Dx() || a.Rect.Dy() != b.Rect.Dy() {
		return false
	}
	for y := 0; y < a.Rect.Dy(); y++ {
		ra := a.Pix[y*a.Stride : y*a.Stride+a.Rect.Dx()*4]
		rb := b.Pix[y*b.Stride : y*b.Stride+b.Rect.Dx()*4]
		for i := range ra {
			if ra[i] != rb[i] {
				return false
			}
		}
	}
	return true
}

func cloneRGBA(img *image.RGBA) *image.RGBA {
	c := image.NewRGBA(img.Rect)
	copy(c.Pix, img.Pix)
	return c
}
