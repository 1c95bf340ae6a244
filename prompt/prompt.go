// Package prompt defines promptable mask models: given an image and a seed
// point, a model proposes soft masks for whatever object covers that point.
// Models register themselves by name so that pipelines can construct them
// from configuration alone.
package prompt

import (
	"context"
	"image"

	"github.com/pkg/errors"

	"github.com/overheadlabs/geomask/mask"
	"github.com/overheadlabs/geomask/raster"
)

// ErrResourceExhausted means a model hit its memory budget. Releasing the
// model's cached state and retrying is the expected recovery.
var ErrResourceExhausted = errors.New("prompt model resources exhausted")

// A Proposal is one soft mask suggested for a seed point.
type Proposal struct {
	// Scores holds per-pixel confidence. Accepted pixels score in (0.5, 1],
	// everything else 0, so thresholding at 0.5 recovers the proposed region.
	Scores *mask.FloatMap
	// PredictedIoU is the model's own estimate of how well the proposal
	// matches a real object boundary, in [0, 1].
	PredictedIoU float64
}

// Model proposes masks for seed points. Implementations may cache expensive
// per-image state between calls; callers that prompt many seeds on one image
// rely on that.
type Model interface {
	// Name returns the registered name this model was constructed from.
	Name() string

	// Prompt proposes masks for the object covering seed. The seed must lie
	// within the image bounds. An empty slice means the model has no
	// proposal for this point.
	Prompt(ctx context.Context, img *raster.Image, seed image.Point) ([]Proposal, error)

	// Release drops cached per-image state, freeing the model's memory
	// budget. The model remains usable.
	Release(ctx context.Context) error

	// Close releases all resources. The model must not be used afterwards.
	Close(ctx context.Context) error
}

func checkPromptArgs(img *raster.Image, seed image.Point) error {
	if img == nil {
		return errors.Wrap(raster.ErrInvalidInput, "nil image")
	}
	if !seed.In(img.Bounds()) {
		return errors.Wrapf(raster.ErrInvalidInput, "seed %v outside image bounds %v", seed, img.Bounds())
	}
	return nil
}
