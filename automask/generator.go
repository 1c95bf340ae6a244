package automask

import (
	"context"
	"image"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"
	"go.uber.org/multierr"

	"github.com/overheadlabs/geomask/mask"
	"github.com/overheadlabs/geomask/prompt"
	"github.com/overheadlabs/geomask/raster"
	"github.com/overheadlabs/geomask/utils"
)

// masks binarize at this score cutoff; proposals score accepted pixels
// strictly above it
const binarizeCutoff = 0.5

// Generator runs the mask generation pipeline with one model and one
// configuration. A generator may be reused across images; per-image model
// state accumulates in the model's cache until Release.
type Generator struct {
	conf   Config
	model  prompt.Model
	logger golog.Logger
}

// NewGenerator validates the config, constructs its model, and returns a
// generator ready to run. Every configuration problem surfaces here, never
// midway through a run.
func NewGenerator(conf Config, logger golog.Logger) (*Generator, error) {
	if err := conf.CheckValid(); err != nil {
		return nil, err
	}
	params := utils.AttributeMap{}
	for k, v := range conf.ModelParameters {
		params[k] = v
	}
	if conf.MaxCacheBytes != 0 && !params.Has("max_cache_bytes") {
		params["max_cache_bytes"] = conf.MaxCacheBytes
	}
	model, err := prompt.ModelLookup(conf.Model).Constructor(params, logger)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidConfig, "constructing model %q: %s", conf.Model, err)
	}
	return &Generator{conf: conf, model: model, logger: logger}, nil
}

// NewGeneratorFromAttributes builds a generator from free-form attributes
// applied over DefaultConfig.
func NewGeneratorFromAttributes(attributes utils.AttributeMap, logger golog.Logger) (*Generator, error) {
	conf, err := ConfigFromAttributes(attributes)
	if err != nil {
		return nil, err
	}
	return NewGenerator(conf, logger)
}

// Config returns the generator's configuration.
func (g *Generator) Config() Config {
	return g.conf
}

// Model returns the underlying prompt model.
func (g *Generator) Model() prompt.Model {
	return g.model
}

// Generate segments the raster into a mask set. The run is deterministic
// for a given image and configuration, whether or not model caches are warm.
func (g *Generator) Generate(ctx context.Context, img *raster.Image) (*MaskSet, error) {
	ctx, span := trace.StartSpan(ctx, "automask::Generate")
	defer span.End()

	if img == nil {
		return nil, errors.Wrap(raster.ErrInvalidInput, "nil image")
	}
	if img.Width() == 0 || img.Height() == 0 {
		return nil, errors.Wrap(raster.ErrInvalidInput, "empty image")
	}
	defer utils.SlowLogger(ctx, "mask generation still running", "model", g.model.Name(), g.logger)()

	windows := CropWindows(img.Bounds(), g.conf.CropNLayers, g.conf.CropOverlapRatio)
	var all []*Mask
	for _, window := range windows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cropMasks, err := g.generateForCrop(ctx, img, window)
		if err != nil {
			return nil, err
		}
		all = append(all, cropMasks...)
	}

	if g.conf.CropNLayers > 0 {
		all = SuppressDuplicates(all, g.conf.CropNMSThresh, PreferSmallerCrops)
	}
	all = g.cleanup(all)
	if len(all) > MaxLabels {
		return nil, errors.Errorf("generated %d masks, more than the %d a label raster can hold",
			len(all), MaxLabels)
	}
	for i, m := range all {
		m.Label = uint16(i + 1)
	}

	g.logger.Debugw("generated mask set",
		"model", g.model.Name(),
		"crops", len(windows),
		"masks", len(all),
	)
	return &MaskSet{Masks: all, bounds: img.Bounds(), georef: img.GeoReference().Clone()}, nil
}

// generateForCrop prompts the seed grid of one window in batches and
// deduplicates the surviving masks within the window.
func (g *Generator) generateForCrop(ctx context.Context, img *raster.Image, window CropWindow) ([]*Mask, error) {
	ctx, span := trace.StartSpan(ctx, "automask::generateForCrop")
	defer span.End()

	crop, err := ExtractCrop(img, window)
	if err != nil {
		return nil, err
	}
	side := SideForLayer(g.conf.PointsPerSide, g.conf.CropNPointsDownscaleFactor, window.Layer)
	seeds := PointGrid(window.Rect, side)

	var kept []*Mask
	for start := 0; start < len(seeds); start += g.conf.PointsPerBatch {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		batch := seeds[start:utils.MinInt(start+g.conf.PointsPerBatch, len(seeds))]
		results := make([][]prompt.Proposal, len(batch))
		promptErrs := make([]error, len(batch))
		if err := utils.GroupWorkParallel(
			ctx,
			len(batch),
			func(numGroups int) {},
			func(groupNum, groupSize, from, to int) (utils.MemberWorkFunc, utils.GroupWorkDoneFunc) {
				return func(memberNum, workNum int) {
					proposals, err := g.model.Prompt(ctx, crop, batch[workNum])
					results[workNum] = proposals
					promptErrs[workNum] = err
				}, func() {}
			},
		); err != nil {
			return nil, err
		}
		if err := multierr.Combine(promptErrs...); err != nil {
			return nil, err
		}
		for i, proposals := range results {
			for _, prop := range proposals {
				if m := g.acceptProposal(prop, batch[i], window.Layer); m != nil {
					kept = append(kept, m)
				}
			}
		}
	}

	return SuppressDuplicates(kept, g.conf.BoxNMSThresh, ByQuality), nil
}

// acceptProposal applies the quality gates to one proposal and binarizes it.
func (g *Generator) acceptProposal(prop prompt.Proposal, seed image.Point, layer int) *Mask {
	if prop.Scores == nil {
		return nil
	}
	if g.conf.PredIoUThresh > 0 && !(prop.PredictedIoU > g.conf.PredIoUThresh) {
		return nil
	}
	stability := prop.Scores.StabilityScore(binarizeCutoff, g.conf.StabilityScoreOffset)
	if g.conf.StabilityScoreThresh > 0 && stability < g.conf.StabilityScoreThresh {
		return nil
	}
	region := prop.Scores.Threshold(binarizeCutoff).Compact()
	if region.Empty() {
		return nil
	}
	return &Mask{
		Bitmap:         region,
		BBox:           region.Bounds(),
		PredictedIoU:   prop.PredictedIoU,
		StabilityScore: stability,
		Seed:           seed,
		CropLayer:      layer,
	}
}

// cleanup fills small holes and removes small specks in every surviving
// mask. It runs after deduplication and never re-deduplicates, so raising
// min_mask_region_area can only thin or drop masks, not resurrect a
// suppressed one.
func (g *Generator) cleanup(masks []*Mask) []*Mask {
	if g.conf.MinMaskRegionArea <= 1 {
		return masks
	}
	out := make([]*Mask, 0, len(masks))
	for _, m := range masks {
		filled, holes := mask.FillSmallHoles(m.Bitmap, g.conf.MinMaskRegionArea)
		cleaned, specks := mask.RemoveSmallRegions(filled, g.conf.MinMaskRegionArea)
		if holes > 0 || specks > 0 {
			cleaned = cleaned.Compact()
		}
		if cleaned.Empty() {
			continue
		}
		m.Bitmap = cleaned
		m.BBox = cleaned.Bounds()
		out = append(out, m)
	}
	return out
}

// Release drops the model's cached per-image state, freeing its memory
// budget. The generator remains usable.
func (g *Generator) Release(ctx context.Context) error {
	return g.model.Release(ctx)
}

// Close shuts the model down. The generator must not be used afterwards.
func (g *Generator) Close(ctx context.Context) error {
	return g.model.Close(ctx)
}
