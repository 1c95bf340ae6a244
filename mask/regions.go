package mask

import (
	"image"
)

// Regions returns the 4-connected components of the set pixels, one bitmap
// per component, ordered by each component's first pixel in row-major order.
func Regions(bm *Bitmap) []*Bitmap {
	b := bm.Bounds()
	w := b.Dx()
	if w == 0 || b.Dy() == 0 {
		return nil
	}
	seen := make([]bool, w*b.Dy())
	regions := []*Bitmap{}
	queue := []image.Point{}
	for j := b.Min.Y; j < b.Max.Y; j++ {
		for i := b.Min.X; i < b.Max.X; i++ {
			indx := (j-b.Min.Y)*w + (i - b.Min.X)
			if seen[indx] {
				continue
			}
			seen[indx] = true
			if !bm.Get(i, j) {
				continue
			}
			region := NewBitmap(b)
			queue = append(queue, image.Point{i, j})
			for len(queue) != 0 {
				pt := queue[0]
				queue = queue[1:]
				region.Set(pt.X, pt.Y)
				fourPoints := [4]image.Point{{pt.X, pt.Y - 1}, {pt.X, pt.Y + 1}, {pt.X - 1, pt.Y}, {pt.X + 1, pt.Y}}
				for _, p := range fourPoints {
					if !p.In(b) {
						continue
					}
					pIndx := (p.Y-b.Min.Y)*w + (p.X - b.Min.X)
					if seen[pIndx] {
						continue
					}
					if bm.Get(p.X, p.Y) {
						seen[pIndx] = true
						queue = append(queue, p)
					}
				}
			}
			regions = append(regions, region)
		}
	}
	return regions
}

// RemoveSmallRegions drops every connected component smaller than minArea
// pixels, returning the cleaned mask and the number of dropped components.
// minArea <= 1 is a no-op.
func RemoveSmallRegions(bm *Bitmap, minArea int) (*Bitmap, int) {
	if minArea <= 1 {
		return bm, 0
	}
	out := NewBitmap(bm.Bounds())
	removed := 0
	for _, region := range Regions(bm) {
		if region.Area() < minArea {
			removed++
			continue
		}
		region.Each(func(x, y int) {
			out.Set(x, y)
		})
	}
	return out, removed
}

// FillSmallHoles merges every hole smaller than minArea pixels into the mask,
// returning the filled mask and the number of filled holes. A hole is a
// connected component of unset pixels that does not touch the window frame;
// unset regions reaching the frame are background, not holes. minArea <= 1 is
// a no-op.
func FillSmallHoles(bm *Bitmap, minArea int) (*Bitmap, int) {
	if minArea <= 1 {
		return bm, 0
	}
	b := bm.Bounds()
	inverse := NewBitmap(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if !bm.Get(x, y) {
				inverse.Set(x, y)
			}
		}
	}
	out := bm.Clone()
	filled := 0
	for _, hole := range Regions(inverse) {
		if hole.Area() >= minArea || touchesFrame(hole) {
			continue
		}
		hole.Each(func(x, y int) {
			out.Set(x, y)
		})
		filled++
	}
	return out, filled
}

func touchesFrame(bm *Bitmap) bool {
	b := bm.Bounds()
	touches := false
	bm.Each(func(x, y int) {
		if x == b.Min.X || x == b.Max.X-1 || y == b.Min.Y || y == b.Max.Y-1 {
			touches = true
		}
	})
	return touches
}
