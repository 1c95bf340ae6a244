package mask

import (
	"image"

	"gonum.org/v1/gonum/mat"
)

// FloatMap is a per-pixel score field over a rectangular window. A backend
// fills one with its confidence values and the pipeline thresholds it into
// bitmaps. Backed by a dense matrix so tests can compare fields with gonum's
// approximate equality.
type FloatMap struct {
	bounds image.Rectangle
	dense  *mat.Dense
}

// NewFloatMap returns a zero-valued score field over the given window.
func NewFloatMap(bounds image.Rectangle) *FloatMap {
	bounds = bounds.Canon()
	fm := &FloatMap{bounds: bounds}
	if !bounds.Empty() {
		fm.dense = mat.NewDense(bounds.Dy(), bounds.Dx(), nil)
	}
	return fm
}

// Bounds returns the window this field covers.
func (fm *FloatMap) Bounds() image.Rectangle {
	return fm.bounds
}

// At returns the score at (x, y), 0 outside the window.
func (fm *FloatMap) At(x, y int) float64 {
	if fm.dense == nil || !(image.Point{x, y}).In(fm.bounds) {
		return 0
	}
	return fm.dense.At(y-fm.bounds.Min.Y, x-fm.bounds.Min.X)
}

// Set stores a score at (x, y). Points outside the window are ignored.
func (fm *FloatMap) Set(x, y int, v float64) {
	if fm.dense == nil || !(image.Point{x, y}).In(fm.bounds) {
		return
	}
	fm.dense.Set(y-fm.bounds.Min.Y, x-fm.bounds.Min.X, v)
}

// Dense returns the backing matrix, row-indexed by y offset within the
// window. Nil for an empty window.
func (fm *FloatMap) Dense() *mat.Dense {
	return fm.dense
}

// Threshold returns the bitmap of pixels whose score is strictly greater
// than t.
func (fm *FloatMap) Threshold(t float64) *Bitmap {
	bm := NewBitmap(fm.bounds)
	if fm.dense == nil {
		return bm
	}
	for y := fm.bounds.Min.Y; y < fm.bounds.Max.Y; y++ {
		for x := fm.bounds.Min.X; x < fm.bounds.Max.X; x++ {
			if fm.At(x, y) > t {
				bm.Set(x, y)
			}
		}
	}
	return bm
}

// StabilityScore measures how robust the field's thresholded mask is to
// perturbation of the cutoff: the area at the raised cutoff t+offset divided
// by the area at the lowered cutoff t-offset. 1 means the mask does not react
// to the perturbation at all. A field empty at both cutoffs scores 1.
func (fm *FloatMap) StabilityScore(t, offset float64) float64 {
	hi := 0
	lo := 0
	if fm.dense != nil {
		for y := fm.bounds.Min.Y; y < fm.bounds.Max.Y; y++ {
			for x := fm.bounds.Min.X; x < fm.bounds.Max.X; x++ {
				v := fm.At(x, y)
				if v > t+offset {
					hi++
				}
				if v > t-offset {
					lo++
				}
			}
		}
	}
	if lo == 0 {
		return 1
	}
	return float64(hi) / float64(lo)
}
