package enhance

import (
	"image"
	"math"
)

// GammaTable is a precomputed 8-bit gamma curve.
//
// Build it once with NewGammaTable and reuse it for every pixel of every
// image in a batch. A GammaTable is read-only after construction and safe for
// concurrent use.
type GammaTable [256]uint8

// NewGammaTable computes table[v] = round(255 * (v/255)^(1/gamma)).
//
// gamma > 1 lifts midtones, gamma == 1 is the identity and 0 < gamma < 1
// darkens. gamma must be positive; New rejects other values before a table
// is ever built.
func NewGammaTable(gamma float64) *GammaTable {
	var t GammaTable
	inv := 1 / gamma
	for v := range t {
		t[v] = clampUint8(255 * math.Pow(float64(v)/255, inv))
	}
	return &t
}

// GammaCorrector is the exposure stage of the "pro" pipeline.
type GammaCorrector struct {
	Table *GammaTable
}

// Name returns the stage name used in logs.
func (g GammaCorrector) Name() string { return "gamma" }

// Apply maps R, G and B of every pixel through the table.
func (g GammaCorrector) Apply(img *image.RGBA) *image.RGBA {
	t := [256]uint8(*g.Table)
	return applyLUT(img, [3][256]uint8{t, t, t})
}
