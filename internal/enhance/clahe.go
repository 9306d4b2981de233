package enhance

import (
	"image"

	"github.com/anthonynsimon/bild/parallel"
)

// LocalContrast is the "pro" adaptive contrast stage: contrast limited
// adaptive histogram equalization (CLAHE) on Lab lightness.
//
// Chroma is carried through untouched, so local contrast rises without the
// global saturation boost ToneAdjuster applies.
type LocalContrast struct {
	// ClipLimit caps each tile histogram bin at ClipLimit times the bin
	// height of a perfectly flat histogram. Zero disables the cap.
	ClipLimit float64

	// TileRows and TileCols set the tile grid. Both are reduced to the image
	// height and width when the image is smaller than the grid.
	TileRows int
	TileCols int
}

// Name returns the stage name used in logs.
func (lc LocalContrast) Name() string { return "clahe" }

// Apply equalizes lightness tile by tile and converts back to RGB.
func (lc LocalContrast) Apply(img *image.RGBA) *image.RGBA {
	lab := ToLab(img)
	lab.L = CLAHE(lab.L, lab.Width, lab.Height, lc.ClipLimit, lc.TileRows, lc.TileCols)
	return lab.ToRGB()
}

// CLAHE equalizes an 8-bit plane of w*h samples and returns a new plane.
//
// # Algorithm
//
//  1. Split the plane into rows x cols tiles of (nearly) equal size.
//  2. Build each tile's 256-bin histogram. With clipLimit > 0, clip every bin
//     at max(1, clipLimit*area/256) and spread the clipped total evenly over
//     all bins; any remainder goes one count at a time to bins at a fixed
//     stride.
//  3. Turn each histogram into a mapping table from its cumulative sum.
//  4. Map every sample through the four tables whose tile centers surround
//     it and blend bilinearly. Samples outside the outermost centers use the
//     nearest tables.
func CLAHE(plane []uint8, w, h int, clipLimit float64, rows, cols int) []uint8 {
	out := make([]uint8, len(plane))
	if w == 0 || h == 0 {
		return out
	}
	if rows > h {
		rows = h
	}
	if cols > w {
		cols = w
	}
	if rows < 1 {
		rows = 1
	}
	if cols < 1 {
		cols = 1
	}

	tileH := float64(h) / float64(rows)
	tileW := float64(w) / float64(cols)
	luts := make([][256]uint8, rows*cols)

	parallel.Line(rows*cols, func(start, end int) {
		for t := start; t < end; t++ {
			ty, tx := t/cols, t%cols
			y0, y1 := ty*h/rows, (ty+1)*h/rows
			x0, x1 := tx*w/cols, (tx+1)*w/cols
			luts[t] = tileLUT(plane, w, x0, y0, x1, y1, clipLimit)
		}
	})

	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			ty0, ty1, fy := neighbours(y, tileH, rows)
			for x := 0; x < w; x++ {
				tx0, tx1, fx := neighbours(x, tileW, cols)
				v := plane[y*w+x]

				top := (1-fx)*float64(luts[ty0*cols+tx0][v]) + fx*float64(luts[ty0*cols+tx1][v])
				bottom := (1-fx)*float64(luts[ty1*cols+tx0][v]) + fx*float64(luts[ty1*cols+tx1][v])
				out[y*w+x] = clampUint8((1-fy)*top + fy*bottom)
			}
		}
	})

	return out
}

// neighbours locates the two tiles whose centers bracket pos along one axis
// and the blend weight toward the second.
func neighbours(pos int, tileSize float64, n int) (int, int, float64) {
	f := (float64(pos)+0.5)/tileSize - 0.5
	if f <= 0 {
		return 0, 0, 0
	}
	if f >= float64(n-1) {
		return n - 1, n - 1, 0
	}
	i := int(f)
	return i, i + 1, f - float64(i)
}

func tileLUT(plane []uint8, stride, x0, y0, x1, y1 int, clipLimit float64) [256]uint8 {
	var hist [256]int
	for y := y0; y < y1; y++ {
		for _, v := range plane[y*stride+x0 : y*stride+x1] {
			hist[v]++
		}
	}

	area := (x1 - x0) * (y1 - y0)
	var lut [256]uint8
	if area == 0 {
		for i := range lut {
			lut[i] = uint8(i)
		}
		return lut
	}

	if clipLimit > 0 {
		clipHistogram(&hist, area, clipLimit)
	}

	scale := 255.0 / float64(area)
	sum := 0
	for i := range hist {
		sum += hist[i]
		lut[i] = clampUint8(float64(sum) * scale)
	}
	return lut
}

func clipHistogram(hist *[256]int, area int, clipLimit float64) {
	limit := int(clipLimit * float64(area) / 256)
	if limit < 1 {
		limit = 1
	}

	excess := 0
	for i := range hist {
		if hist[i] > limit {
			excess += hist[i] - limit
			hist[i] = limit
		}
	}
	if excess == 0 {
		return
	}

	batch := excess / 256
	residual := excess - batch*256
	for i := range hist {
		hist[i] += batch
	}
	if residual > 0 {
		step := 256 / residual
		if step < 1 {
			step = 1
		}
		for i := 0; i < 256 && residual > 0; i += step {
			hist[i]++
			residual--
		}
	}
}
