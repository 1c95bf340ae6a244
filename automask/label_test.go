package automask_test

import (
	"image"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/overheadlabs/geomask/automask"
	"github.com/overheadlabs/geomask/raster"
	"github.com/overheadlabs/geomask/raster/rastertest"
)

func twoMaskSet(georef *raster.GeoReference) *automask.MaskSet {
	first := filledMask(image.Rect(1, 1, 3, 3), 0.9, 1, 0)
	first.Label = 1
	second := filledMask(image.Rect(2, 2, 5, 5), 0.8, 1, 0)
	second.Label = 2
	return automask.NewMaskSet([]*automask.Mask{first, second}, image.Rect(0, 0, 6, 6), georef)
}

func TestToRasterUnique(t *testing.T) {
	georef := rastertest.DefaultGeoReference()
	ms := twoMaskSet(georef)
	lab, err := ms.ToRaster(automask.OutputModeUnique)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, lab.Bounds(), test.ShouldResemble, ms.Bounds())
	test.That(t, lab.DType(), test.ShouldEqual, raster.DTypeUint16)
	test.That(t, lab.Bands(), test.ShouldEqual, 1)
	test.That(t, lab.GeoReference().Equal(georef), test.ShouldBeTrue)
	nodata, ok := lab.Nodata()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, nodata, test.ShouldEqual, 0.0)

	test.That(t, lab.Value(0, 0, 0), test.ShouldEqual, 0.0)
	test.That(t, lab.Value(1, 1, 0), test.ShouldEqual, 1.0)
	test.That(t, lab.Value(4, 4, 0), test.ShouldEqual, 2.0)
	// where masks overlap, the later mask wins
	test.That(t, lab.Value(2, 2, 0), test.ShouldEqual, 2.0)
}

func TestToRasterForeground(t *testing.T) {
	ms := twoMaskSet(rastertest.DefaultGeoReference())
	lab, err := ms.ToRaster(automask.OutputModeForeground)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, lab.Value(1, 1, 0), test.ShouldEqual, 1.0)
	test.That(t, lab.Value(4, 4, 0), test.ShouldEqual, 1.0)
	test.That(t, lab.Value(0, 0, 0), test.ShouldEqual, 0.0)
}

func TestToRasterNoGeoReference(t *testing.T) {
	ms := twoMaskSet(nil)
	lab, err := ms.ToRaster(automask.OutputModeUnique)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, lab.GeoReference(), test.ShouldBeNil)
}

func TestToRasterBadMode(t *testing.T) {
	ms := twoMaskSet(nil)
	_, err := ms.ToRaster(automask.OutputMode("sideways"))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, automask.ErrInvalidConfig), test.ShouldBeTrue)
}
