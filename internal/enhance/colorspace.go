package enhance

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/parallel"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// srgbToLinear caches the sRGB decoding curve for every 8-bit value.
var srgbToLinear = func() [256]float64 {
	var t [256]float64
	for i := range t {
		r, _, _ := colorful.Color{R: float64(i) / 255}.LinearRgb()
		t[i] = r
	}
	return t
}()

// LabImage is a CIE L*a*b* (D65) rendition of an RGB image.
//
// Lightness is quantized to 256 levels (0 = L* 0, 255 = L* 100) so it can be
// histogram-equalized directly; the chroma planes keep full precision so an
// unmodified lightness plane converts back without a visible color shift.
type LabImage struct {
	Width  int
	Height int
	L      []uint8
	A      []float32
	B      []float32
}

// ToLab converts an opaque RGB image to Lab.
func ToLab(img *image.RGBA) *LabImage {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	lab := &LabImage{
		Width:  w,
		Height: h,
		L:      make([]uint8, w*h),
		A:      make([]float32, w*h),
		B:      make([]float32, w*h),
	}

	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			row := img.Pix[y*img.Stride:]
			for x := 0; x < w; x++ {
				px := row[x*4 : x*4+3]
				X, Y, Z := colorful.LinearRgbToXyz(srgbToLinear[px[0]], srgbToLinear[px[1]], srgbToLinear[px[2]])
				l, a, bb := colorful.XyzToLab(X, Y, Z)
				i := y*w + x
				lab.L[i] = clampUint8(l * 255)
				lab.A[i] = float32(a)
				lab.B[i] = float32(bb)
			}
		}
	})

	return lab
}

// ToRGB converts the Lab planes back to an opaque sRGB image, clamping
// out-of-gamut colors.
func (lab *LabImage) ToRGB() *image.RGBA {
	w, h := lab.Width, lab.Height
	dst := image.NewRGBA(image.Rect(0, 0, w, h))

	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			row := dst.Pix[y*dst.Stride:]
			for x := 0; x < w; x++ {
				i := y*w + x
				X, Y, Z := colorful.LabToXyz(float64(lab.L[i])/255, float64(lab.A[i]), float64(lab.B[i]))
				r, g, b := colorful.LinearRgb(colorful.XyzToLinearRgb(X, Y, Z)).Clamped().RGB255()
				row[x*4] = r
				row[x*4+1] = g
				row[x*4+2] = b
				row[x*4+3] = 0xff
			}
		}
	})

	return dst
}

// Luma returns the ITU-R 601 luminance of an 8-bit RGB triple.
func Luma(r, g, b uint8) uint8 {
	return uint8((uint32(r)*19595 + uint32(g)*38470 + uint32(b)*7471 + 0x8000) >> 16)
}

func clampUint8(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
