// Package mask provides binary masks and per-pixel score fields over image
// windows, shared by the segmentation backends and the mask generation
// pipeline.
package mask

import (
	"fmt"
	"image"
)

// Bitmap is a binary mask over a rectangular window of an image. Storage is
// one bit per pixel of the window, so a mask over a small bounding box stays
// small no matter how large the source raster is.
type Bitmap struct {
	bounds image.Rectangle
	words  []uint64
	area   int
}

// NewBitmap returns an empty bitmap covering the given window.
func NewBitmap(bounds image.Rectangle) *Bitmap {
	bounds = bounds.Canon()
	n := bounds.Dx() * bounds.Dy()
	return &Bitmap{
		bounds: bounds,
		words:  make([]uint64, (n+63)/64),
	}
}

// Bounds returns the window this bitmap covers.
func (bm *Bitmap) Bounds() image.Rectangle {
	return bm.bounds
}

func (bm *Bitmap) index(x, y int) int {
	return (y-bm.bounds.Min.Y)*bm.bounds.Dx() + (x - bm.bounds.Min.X)
}

// Get returns whether the pixel at (x, y) is set. Pixels outside the window
// are never set.
func (bm *Bitmap) Get(x, y int) bool {
	if !(image.Point{x, y}).In(bm.bounds) {
		return false
	}
	i := bm.index(x, y)
	return bm.words[i/64]&(1<<(uint(i)%64)) != 0
}

// Set marks the pixel at (x, y).
func (bm *Bitmap) Set(x, y int) {
	if !(image.Point{x, y}).In(bm.bounds) {
		panic(fmt.Errorf("point (%d, %d) outside of bitmap bounds %v", x, y, bm.bounds))
	}
	i := bm.index(x, y)
	w, b := i/64, uint64(1)<<(uint(i)%64)
	if bm.words[w]&b == 0 {
		bm.words[w] |= b
		bm.area++
	}
}

// Area returns the number of set pixels.
func (bm *Bitmap) Area() int {
	return bm.area
}

// Empty returns whether no pixels are set.
func (bm *Bitmap) Empty() bool {
	return bm.area == 0
}

// Each calls f for every set pixel in row-major order.
func (bm *Bitmap) Each(f func(x, y int)) {
	for y := bm.bounds.Min.Y; y < bm.bounds.Max.Y; y++ {
		for x := bm.bounds.Min.X; x < bm.bounds.Max.X; x++ {
			if bm.Get(x, y) {
				f(x, y)
			}
		}
	}
}

// Clone returns a copy that shares no storage with the original.
func (bm *Bitmap) Clone() *Bitmap {
	words := make([]uint64, len(bm.words))
	copy(words, bm.words)
	return &Bitmap{bounds: bm.bounds, words: words, area: bm.area}
}

// Offset returns a copy of the bitmap with its window translated by delta.
// Set pixels move with the window.
func (bm *Bitmap) Offset(delta image.Point) *Bitmap {
	out := bm.Clone()
	out.bounds = bm.bounds.Add(delta)
	return out
}

// Intersection returns the number of pixels set in both bitmaps.
func (bm *Bitmap) Intersection(other *Bitmap) int {
	overlap := bm.bounds.Intersect(other.bounds)
	if overlap.Empty() {
		return 0
	}
	count := 0
	for y := overlap.Min.Y; y < overlap.Max.Y; y++ {
		for x := overlap.Min.X; x < overlap.Max.X; x++ {
			if bm.Get(x, y) && other.Get(x, y) {
				count++
			}
		}
	}
	return count
}

// IoU returns the intersection over union of the two masks, 0 when both
// are empty.
func (bm *Bitmap) IoU(other *Bitmap) float64 {
	inter := bm.Intersection(other)
	union := bm.area + other.area - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// Compact returns a copy of the bitmap whose window is the tight bounding box
// of the set pixels. An empty bitmap compacts to the zero rectangle.
func (bm *Bitmap) Compact() *Bitmap {
	if bm.area == 0 {
		return NewBitmap(image.Rectangle{})
	}
	x0, y0 := bm.bounds.Max.X, bm.bounds.Max.Y
	x1, y1 := bm.bounds.Min.X, bm.bounds.Min.Y
	bm.Each(func(x, y int) {
		if x < x0 {
			x0 = x
		}
		if x > x1 {
			x1 = x
		}
		if y < y0 {
			y0 = y
		}
		if y > y1 {
			y1 = y
		}
	})
	out := NewBitmap(image.Rect(x0, y0, x1+1, y1+1))
	bm.Each(func(x, y int) {
		out.Set(x, y)
	})
	return out
}
