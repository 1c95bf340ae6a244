package prompt_test

import (
	"image"
	"testing"

	"go.viam.com/test"

	"github.com/overheadlabs/geomask/mask"
	"github.com/overheadlabs/geomask/prompt"
)

func constantDist(d float64) func(a, b image.Point) float64 {
	return func(image.Point, image.Point) float64 { return d }
}

func TestBoundaryStats(t *testing.T) {
	bounds := image.Rect(0, 0, 4, 4)

	// interior 2x2 block: eight boundary edges, none leaving the image
	inner := mask.NewBitmap(image.Rect(1, 1, 3, 3))
	inner.Set(1, 1)
	inner.Set(2, 1)
	inner.Set(1, 2)
	inner.Set(2, 2)
	contrasts, frameEdges := prompt.BoundaryStats(inner, bounds, constantDist(0.3))
	test.That(t, contrasts, test.ShouldHaveLength, 8)
	test.That(t, frameEdges, test.ShouldEqual, 0)
	test.That(t, contrasts[0], test.ShouldEqual, 0.3)

	// corner 2x2 block: four edges leave the image, four stay inside
	corner := mask.NewBitmap(image.Rect(0, 0, 2, 2))
	corner.Set(0, 0)
	corner.Set(1, 0)
	corner.Set(0, 1)
	corner.Set(1, 1)
	contrasts, frameEdges = prompt.BoundaryStats(corner, bounds, constantDist(0.3))
	test.That(t, contrasts, test.ShouldHaveLength, 4)
	test.That(t, frameEdges, test.ShouldEqual, 4)
}

func TestEstimatePredictedIoU(t *testing.T) {
	test.That(t, prompt.EstimatePredictedIoU(nil, 0, 0.12), test.ShouldEqual, 0)
	test.That(t, prompt.EstimatePredictedIoU(nil, 10, 0.12), test.ShouldEqual, 0)
	test.That(t, prompt.EstimatePredictedIoU([]float64{0.5}, 0, 0), test.ShouldEqual, 0)

	// strong contrast, no frame contact: confident
	strong := prompt.EstimatePredictedIoU([]float64{0.6, 0.6, 0.6, 0.6}, 0, 0.12)
	test.That(t, strong, test.ShouldBeGreaterThan, 0.95)

	// contrast equal to the scale lands at the sigmoid midpoint
	mid := prompt.EstimatePredictedIoU([]float64{0.12, 0.12}, 0, 0.12)
	test.That(t, mid, test.ShouldAlmostEqual, 0.5, 1e-9)

	// frame contact discounts proportionally
	half := prompt.EstimatePredictedIoU([]float64{0.6, 0.6}, 2, 0.12)
	full := prompt.EstimatePredictedIoU([]float64{0.6, 0.6}, 0, 0.12)
	test.That(t, half, test.ShouldAlmostEqual, full/2, 1e-9)

	// weak contrast: unconvincing even without frame contact
	weak := prompt.EstimatePredictedIoU([]float64{0.01, 0.01}, 0, 0.12)
	test.That(t, weak, test.ShouldBeLessThan, 0.1)
}
