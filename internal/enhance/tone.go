package enhance

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/convolution"
	"github.com/anthonynsimon/bild/histogram"
	"github.com/anthonynsimon/bild/parallel"
)

// ToneAdjuster is the "safe" global tone stage.
//
// It runs, in order: auto-contrast, color, contrast, brightness and
// sharpness. Each factor is a multiplier where 1.0 leaves the image as is,
// values above 1 strengthen the effect and values between 0 and 1 weaken it.
type ToneAdjuster struct {
	Cutoff     float64
	Color      float64
	Contrast   float64
	Brightness float64
	Sharpness  float64
}

// Name returns the stage name used in logs.
func (t ToneAdjuster) Name() string { return "tone" }

// Apply runs the full tone sequence on an opaque RGB image.
func (t ToneAdjuster) Apply(img *image.RGBA) *image.RGBA {
	img = AutoContrast(img, t.Cutoff)
	img = AdjustColor(img, t.Color)
	img = AdjustContrast(img, t.Contrast)
	img = AdjustBrightness(img, t.Brightness)
	return AdjustSharpness(img, t.Sharpness)
}

// AutoContrast stretches each channel so its populated range spans 0-255.
//
// cutoff is the percentage of pixels discarded from each end of every channel
// histogram before the range is measured. A channel whose remaining range is
// a single value is left unchanged.
//
// The adjustment functions in this file never modify img. They return img
// itself when the operation is an identity and a new image otherwise.
func AutoContrast(img *image.RGBA, cutoff float64) *image.RGBA {
	hist := histogram.NewRGBAHistogram(img)
	luts := [3][256]uint8{
		autoContrastLUT(hist.R.Bins, cutoff),
		autoContrastLUT(hist.G.Bins, cutoff),
		autoContrastLUT(hist.B.Bins, cutoff),
	}
	if isIdentity(luts[0]) && isIdentity(luts[1]) && isIdentity(luts[2]) {
		return img
	}
	return applyLUT(img, luts)
}

func autoContrastLUT(bins []int, cutoff float64) [256]uint8 {
	var h [256]int
	n := 0
	for i := 0; i < len(bins) && i < 256; i++ {
		h[i] = bins[i]
		n += bins[i]
	}

	if cutoff > 0 {
		cut := int(float64(n) * cutoff / 100)
		for lo := 0; lo < 256 && cut > 0; lo++ {
			if cut > h[lo] {
				cut -= h[lo]
				h[lo] = 0
			} else {
				h[lo] -= cut
				cut = 0
			}
		}
		cut = int(float64(n) * cutoff / 100)
		for hi := 255; hi >= 0 && cut > 0; hi-- {
			if cut > h[hi] {
				cut -= h[hi]
				h[hi] = 0
			} else {
				h[hi] -= cut
				cut = 0
			}
		}
	}

	lo, hi := 0, 255
	for lo < 256 && h[lo] == 0 {
		lo++
	}
	for hi >= 0 && h[hi] == 0 {
		hi--
	}

	var lut [256]uint8
	if hi <= lo {
		for i := range lut {
			lut[i] = uint8(i)
		}
		return lut
	}

	for i := range lut {
		switch {
		case i <= lo:
			lut[i] = 0
		case i >= hi:
			lut[i] = 255
		default:
			lut[i] = uint8((i - lo) * 255 / (hi - lo))
		}
	}
	return lut
}

func isIdentity(lut [256]uint8) bool {
	for i, v := range lut {
		if int(v) != i {
			return false
		}
	}
	return true
}

// applyLUT maps every R, G and B byte through its channel table.
func applyLUT(img *image.RGBA, luts [3][256]uint8) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, img.Rect.Dx(), img.Rect.Dy()))
	w := dst.Rect.Dx()

	parallel.Line(dst.Rect.Dy(), func(start, end int) {
		for y := start; y < end; y++ {
			src := img.Pix[y*img.Stride:]
			out := dst.Pix[y*dst.Stride:]
			for x := 0; x < w*4; x += 4 {
				out[x] = luts[0][src[x]]
				out[x+1] = luts[1][src[x+1]]
				out[x+2] = luts[2][src[x+2]]
				out[x+3] = 0xff
			}
		}
	})
	return dst
}

// mix interpolates from degenerate toward src by factor, extrapolating when
// factor > 1, and clamps the result.
func mix(degenerate, src, factor float64) uint8 {
	return clampUint8(degenerate + factor*(src-degenerate))
}

// AdjustColor scales saturation by blending each pixel with its own
// luminance gray. 0 yields a grayscale image.
func AdjustColor(img *image.RGBA, factor float64) *image.RGBA {
	if factor == 1 {
		return img
	}
	return blendPixels(img, func(px []uint8) (float64, float64, float64) {
		l := float64(Luma(px[0], px[1], px[2]))
		return l, l, l
	}, factor)
}

// AdjustContrast scales contrast by blending with a solid gray at the image's
// mean luminance. 0 yields that flat gray.
func AdjustContrast(img *image.RGBA, factor float64) *image.RGBA {
	if factor == 1 {
		return img
	}
	mean := float64(MeanLuma(img))
	return blendPixels(img, func([]uint8) (float64, float64, float64) {
		return mean, mean, mean
	}, factor)
}

// AdjustBrightness multiplies every channel by factor. 0 yields black.
func AdjustBrightness(img *image.RGBA, factor float64) *image.RGBA {
	if factor == 1 {
		return img
	}
	return blendPixels(img, func([]uint8) (float64, float64, float64) {
		return 0, 0, 0
	}, factor)
}

// AdjustSharpness blends with a 3x3 smoothed copy of the image. Factors above
// 1 sharpen (unsharp mask), below 1 soften. The one-pixel border is kept as is.
func AdjustSharpness(img *image.RGBA, factor float64) *image.RGBA {
	if factor == 1 {
		return img
	}
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if w < 3 || h < 3 {
		return img
	}

	smooth := convolution.Convolve(img, smoothKernel(), &convolution.Options{Wrap: false, KeepAlpha: true})
	dst := image.NewRGBA(image.Rect(0, 0, w, h))

	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			src := img.Pix[y*img.Stride:]
			blur := smooth.Pix[y*smooth.Stride:]
			out := dst.Pix[y*dst.Stride:]
			border := y == 0 || y == h-1
			for x := 0; x < w; x++ {
				o := x * 4
				if border || x == 0 || x == w-1 {
					copy(out[o:o+3], src[o:o+3])
				} else {
					out[o] = mix(float64(blur[o]), float64(src[o]), factor)
					out[o+1] = mix(float64(blur[o+1]), float64(src[o+1]), factor)
					out[o+2] = mix(float64(blur[o+2]), float64(src[o+2]), factor)
				}
				out[o+3] = 0xff
			}
		}
	})
	return dst
}

// smoothKernel is the classic 3x3 "smooth" filter: a heavy center tap with
// unit neighbours, normalized to 1.
func smoothKernel() *convolution.Kernel {
	k := convolution.NewKernel(3, 3)
	for i := range k.Matrix {
		k.Matrix[i] = 1.0 / 13
	}
	k.Matrix[4] = 5.0 / 13
	return k
}

func blendPixels(img *image.RGBA, degenerate func(px []uint8) (float64, float64, float64), factor float64) *image.RGBA {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))

	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			src := img.Pix[y*img.Stride:]
			out := dst.Pix[y*dst.Stride:]
			for x := 0; x < w*4; x += 4 {
				dr, dg, db := degenerate(src[x : x+3])
				out[x] = mix(dr, float64(src[x]), factor)
				out[x+1] = mix(dg, float64(src[x+1]), factor)
				out[x+2] = mix(db, float64(src[x+2]), factor)
				out[x+3] = 0xff
			}
		}
	})
	return dst
}

// MeanLuma returns the image's average luminance rounded to the nearest level.
func MeanLuma(img *image.RGBA) uint8 {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if w == 0 || h == 0 {
		return 0
	}
	var sum uint64
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < w*4; x += 4 {
			sum += uint64(Luma(row[x], row[x+1], row[x+2]))
		}
	}
	return uint8(math.Floor(float64(sum)/float64(w*h) + 0.5))
}
