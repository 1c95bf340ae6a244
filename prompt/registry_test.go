package prompt_test

import (
	"context"
	"image"
	"testing"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/overheadlabs/geomask/prompt"
	"github.com/overheadlabs/geomask/raster"
	"github.com/overheadlabs/geomask/utils"
)

func TestRegisterModel(t *testing.T) {
	constructor := func(conf utils.AttributeMap, logger golog.Logger) (prompt.Model, error) {
		return nil, errors.New("not a real model")
	}

	prompt.RegisterModel("registry-test-model", prompt.Registration{Constructor: constructor})
	test.That(t, func() {
		prompt.RegisterModel("registry-test-model", prompt.Registration{Constructor: constructor})
	}, test.ShouldPanic)
	test.That(t, func() {
		prompt.RegisterModel("no-constructor", prompt.Registration{})
	}, test.ShouldPanic)
	test.That(t, func() {
		prompt.RegisterModel("bad name!", prompt.Registration{Constructor: constructor})
	}, test.ShouldPanic)
}

func TestModelLookup(t *testing.T) {
	test.That(t, prompt.ModelLookup("no-such-model"), test.ShouldBeNil)

	reg := prompt.ModelLookup(prompt.ModelGradientWalk)
	test.That(t, reg, test.ShouldNotBeNil)
	test.That(t, reg.Constructor, test.ShouldNotBeNil)
	test.That(t, reg.Parameters, test.ShouldContain, utils.TypedName{Name: "color_threshold", Type: "float64"})

	names := prompt.RegisteredModelNames()
	test.That(t, names, test.ShouldContain, prompt.ModelGradientWalk)
	test.That(t, names, test.ShouldContain, prompt.ModelQuantize)
}

func TestImageCache(t *testing.T) {
	imgA, err := raster.FromStdImage(image.NewGray(image.Rect(0, 0, 2, 2)), nil)
	test.That(t, err, test.ShouldBeNil)
	imgB, err := raster.FromStdImage(image.NewGray(image.Rect(0, 0, 2, 2)), nil)
	test.That(t, err, test.ShouldBeNil)

	cache := prompt.NewImageCache(100)
	_, ok := cache.Get(imgA)
	test.That(t, ok, test.ShouldBeFalse)

	test.That(t, cache.Put(imgA, "a", 60), test.ShouldBeNil)
	v, ok := cache.Get(imgA)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, v, test.ShouldEqual, "a")
	test.That(t, cache.UsedBytes(), test.ShouldEqual, 60)

	// storing the same image again does not double count
	test.That(t, cache.Put(imgA, "a2", 60), test.ShouldBeNil)
	test.That(t, cache.UsedBytes(), test.ShouldEqual, 60)

	err = cache.Put(imgB, "b", 60)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, prompt.ErrResourceExhausted), test.ShouldBeTrue)
	_, ok = cache.Get(imgB)
	test.That(t, ok, test.ShouldBeFalse)

	cache.Release()
	test.That(t, cache.UsedBytes(), test.ShouldEqual, 0)
	test.That(t, cache.Put(imgB, "b", 60), test.ShouldBeNil)
}

func TestImageCacheDefaultBudget(t *testing.T) {
	img, err := raster.FromStdImage(image.NewGray(image.Rect(0, 0, 1, 1)), nil)
	test.That(t, err, test.ShouldBeNil)

	cache := prompt.NewImageCache(0)
	test.That(t, cache.Put(img, "v", prompt.DefaultCacheBytes-1), test.ShouldBeNil)
}

func TestModelReleaseKeepsModelUsable(t *testing.T) {
	logger := golog.NewTestLogger(t)
	ctx := context.Background()
	model, err := prompt.NewGradientWalk(prompt.GradientWalkConfig{
		ColorThreshold: prompt.DefaultColorThreshold,
		StepThreshold:  prompt.DefaultStepThreshold,
	}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, model.Release(ctx), test.ShouldBeNil)
	test.That(t, model.Release(ctx), test.ShouldBeNil)
	test.That(t, model.Close(ctx), test.ShouldBeNil)
}
