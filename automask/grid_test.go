package automask_test

import (
	"image"
	"testing"

	"go.viam.com/test"

	"github.com/overheadlabs/geomask/automask"
)

func TestPointGrid(t *testing.T) {
	points := automask.PointGrid(image.Rect(0, 0, 64, 64), 8)
	test.That(t, points, test.ShouldHaveLength, 64)
	test.That(t, points[0], test.ShouldResemble, image.Point{X: 4, Y: 4})
	test.That(t, points[1], test.ShouldResemble, image.Point{X: 12, Y: 4})
	test.That(t, points[8], test.ShouldResemble, image.Point{X: 4, Y: 12})
	test.That(t, points[63], test.ShouldResemble, image.Point{X: 60, Y: 60})
	for _, pt := range points {
		test.That(t, pt.In(image.Rect(0, 0, 64, 64)), test.ShouldBeTrue)
	}
}

func TestPointGridOffsetWindow(t *testing.T) {
	points := automask.PointGrid(image.Rect(10, 20, 74, 84), 2)
	test.That(t, points, test.ShouldResemble, []image.Point{
		{X: 26, Y: 36}, {X: 58, Y: 36},
		{X: 26, Y: 68}, {X: 58, Y: 68},
	})
}

func TestPointGridSingle(t *testing.T) {
	points := automask.PointGrid(image.Rect(0, 0, 7, 5), 1)
	test.That(t, points, test.ShouldResemble, []image.Point{{X: 3, Y: 2}})
}

func TestPointGridDegenerate(t *testing.T) {
	test.That(t, automask.PointGrid(image.Rect(0, 0, 64, 64), 0), test.ShouldBeNil)
	test.That(t, automask.PointGrid(image.Rectangle{}, 8), test.ShouldBeNil)
}

func TestSideForLayer(t *testing.T) {
	// factor 1 keeps every layer at full density
	test.That(t, automask.SideForLayer(32, 1, 0), test.ShouldEqual, 32)
	test.That(t, automask.SideForLayer(32, 1, 3), test.ShouldEqual, 32)

	test.That(t, automask.SideForLayer(32, 2, 0), test.ShouldEqual, 32)
	test.That(t, automask.SideForLayer(32, 2, 1), test.ShouldEqual, 16)
	test.That(t, automask.SideForLayer(32, 2, 2), test.ShouldEqual, 8)
	test.That(t, automask.SideForLayer(32, 2, 5), test.ShouldEqual, 1)
	test.That(t, automask.SideForLayer(32, 2, 6), test.ShouldEqual, 1)

	test.That(t, automask.SideForLayer(32, 4, 1), test.ShouldEqual, 8)
	test.That(t, automask.SideForLayer(32, 4, 2), test.ShouldEqual, 2)
	test.That(t, automask.SideForLayer(1, 2, 3), test.ShouldEqual, 1)
}
