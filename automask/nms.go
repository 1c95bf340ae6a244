package automask

import "sort"

// SuppressDuplicates greedily removes masks that overlap an already-kept
// mask with IoU strictly above thresh. Candidates are visited best-first
// according to better; ties keep their discovery order. Survivors come back
// in their original slice order.
func SuppressDuplicates(masks []*Mask, thresh float64, better func(a, b *Mask) bool) []*Mask {
	if len(masks) <= 1 {
		return masks
	}
	order := make([]int, len(masks))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return better(masks[order[i]], masks[order[j]])
	})

	suppressed := make([]bool, len(masks))
	for pos, i := range order {
		if suppressed[i] {
			continue
		}
		for _, j := range order[pos+1:] {
			if suppressed[j] {
				continue
			}
			if masks[i].Bitmap.IoU(masks[j].Bitmap) > thresh {
				suppressed[j] = true
			}
		}
	}

	out := make([]*Mask, 0, len(masks))
	for i, m := range masks {
		if !suppressed[i] {
			out = append(out, m)
		}
	}
	return out
}

// ByQuality ranks masks by predicted quality, then stability.
func ByQuality(a, b *Mask) bool {
	if a.PredictedIoU != b.PredictedIoU {
		return a.PredictedIoU > b.PredictedIoU
	}
	if a.StabilityScore != b.StabilityScore {
		return a.StabilityScore > b.StabilityScore
	}
	return false
}

// PreferSmallerCrops ranks masks from deeper crop layers first, since a
// zoomed-in window sees an object's boundary at higher resolution, then by
// quality.
func PreferSmallerCrops(a, b *Mask) bool {
	if a.CropLayer != b.CropLayer {
		return a.CropLayer > b.CropLayer
	}
	return ByQuality(a, b)
}
