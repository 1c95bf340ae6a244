package prompt

import (
	"image"

	"github.com/montanaflynn/stats"

	"github.com/overheadlabs/geomask/mask"
)

// BoundaryStats walks the 4-connected boundary of a region. Every edge from
// a region pixel to a non-region pixel inside imgBounds contributes one
// contrast sample via dist; edges leaving imgBounds are counted separately
// as frame contact.
func BoundaryStats(
	region *mask.Bitmap,
	imgBounds image.Rectangle,
	dist func(a, b image.Point) float64,
) (contrasts []float64, frameEdges int) {
	region.Each(func(x, y int) {
		for _, n := range []image.Point{{x - 1, y}, {x + 1, y}, {x, y - 1}, {x, y + 1}} {
			if !n.In(imgBounds) {
				frameEdges++
				continue
			}
			if region.Get(n.X, n.Y) {
				continue
			}
			contrasts = append(contrasts, dist(image.Point{x, y}, n))
		}
	})
	return contrasts, frameEdges
}

// EstimatePredictedIoU folds boundary contrast and frame contact into a mask
// quality estimate in [0, 1]. Contrast is judged against contrastScale: a
// boundary whose mean contrast equals the scale lands at 0.5, stronger
// boundaries saturate toward 1. Frame contact discounts the estimate by the
// fraction of the boundary that leaves the image, so a region hugging the
// image edge can never look like a confidently delineated object.
func EstimatePredictedIoU(contrasts []float64, frameEdges int, contrastScale float64) float64 {
	total := len(contrasts) + frameEdges
	if total == 0 || len(contrasts) == 0 || contrastScale <= 0 {
		return 0
	}
	mean, err := stats.Mean(contrasts)
	if err != nil {
		return 0
	}
	sig, err := stats.Sigmoid([]float64{4 * (mean/contrastScale - 1)})
	if err != nil || len(sig) == 0 {
		return 0
	}
	frameFrac := float64(frameEdges) / float64(total)
	return sig[0] * (1 - frameFrac)
}
