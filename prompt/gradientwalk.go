package prompt

import (
	"context"
	"image"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/overheadlabs/geomask/mask"
	"github.com/overheadlabs/geomask/raster"
	"github.com/overheadlabs/geomask/utils"
)

// ModelGradientWalk names the gradient walk model in the registry.
const ModelGradientWalk = "gradient_walk"

// Defaults for GradientWalkConfig.
const (
	DefaultColorThreshold = 0.12
	DefaultStepThreshold  = 0.06
)

// GradientWalkConfig configures the gradient walk model.
type GradientWalkConfig struct {
	// ColorThreshold bounds how far, in Lab distance, an accepted pixel may
	// drift from the seed color.
	ColorThreshold float64 `json:"color_threshold"`
	// StepThreshold bounds the Lab distance between adjacent accepted
	// pixels, so the walk can ride smooth gradients but not cross edges.
	StepThreshold float64 `json:"step_threshold"`
	// MaxCacheBytes caps the per-image feature cache, DefaultCacheBytes
	// when 0.
	MaxCacheBytes int64 `json:"max_cache_bytes"`
}

func init() {
	RegisterModel(ModelGradientWalk, Registration{
		Constructor: func(conf utils.AttributeMap, logger golog.Logger) (Model, error) {
			cfg := GradientWalkConfig{
				ColorThreshold: DefaultColorThreshold,
				StepThreshold:  DefaultStepThreshold,
			}
			unused, err := utils.MergeAttributeMap(conf, &cfg)
			if err != nil {
				return nil, err
			}
			if len(unused) != 0 {
				return nil, errors.Errorf("unknown %s parameters: %v", ModelGradientWalk, unused)
			}
			return NewGradientWalk(cfg, logger)
		},
		Parameters: utils.JSONTags(GradientWalkConfig{}),
	})
}

type gradientWalk struct {
	cfg    GradientWalkConfig
	logger golog.Logger
	cache  *ImageCache
}

// NewGradientWalk returns a model that grows a region outward from the seed,
// accepting a neighbor while its distance to the seed color and its step
// distance from the pixel it was reached through both stay under threshold.
func NewGradientWalk(cfg GradientWalkConfig, logger golog.Logger) (Model, error) {
	if cfg.ColorThreshold <= 0 {
		return nil, errors.New("color_threshold must be positive")
	}
	if cfg.StepThreshold <= 0 {
		return nil, errors.New("step_threshold must be positive")
	}
	if cfg.MaxCacheBytes < 0 {
		return nil, errors.New("max_cache_bytes cannot be negative")
	}
	return &gradientWalk{
		cfg:    cfg,
		logger: logger,
		cache:  NewImageCache(cfg.MaxCacheBytes),
	}, nil
}

func (gw *gradientWalk) Name() string {
	return ModelGradientWalk
}

func (gw *gradientWalk) features(img *raster.Image) (*labPlane, error) {
	if v, ok := gw.cache.Get(img); ok {
		return utils.AssertType[*labPlane](v)
	}
	plane := newLabPlane(img)
	if err := gw.cache.Put(img, plane, plane.sizeBytes()); err != nil {
		return nil, err
	}
	return plane, nil
}

func (gw *gradientWalk) Prompt(ctx context.Context, img *raster.Image, seed image.Point) ([]Proposal, error) {
	if err := checkPromptArgs(img, seed); err != nil {
		return nil, err
	}
	plane, err := gw.features(img)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	w := b.Dx()
	index := func(p image.Point) int {
		return (p.Y-b.Min.Y)*w + (p.X - b.Min.X)
	}
	seedLab := plane.at(seed.X, seed.Y)

	// Breadth-first walk from the seed. Each pixel is considered at most
	// once, through whichever accepted neighbor reaches it first.
	visited := make([]bool, w*b.Dy())
	visited[index(seed)] = true
	accepted := []image.Point{seed}
	seedDists := []float64{0}
	queue := []image.Point{seed}
	x0, y0, x1, y1 := seed.X, seed.Y, seed.X, seed.Y
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		pLab := plane.at(p.X, p.Y)
		for _, n := range []image.Point{{p.X - 1, p.Y}, {p.X + 1, p.Y}, {p.X, p.Y - 1}, {p.X, p.Y + 1}} {
			if !n.In(b) || visited[index(n)] {
				continue
			}
			visited[index(n)] = true
			nLab := plane.at(n.X, n.Y)
			d := labDist(seedLab, nLab)
			if d >= gw.cfg.ColorThreshold || labDist(pLab, nLab) >= gw.cfg.StepThreshold {
				continue
			}
			accepted = append(accepted, n)
			seedDists = append(seedDists, d)
			queue = append(queue, n)
			x0, y0 = utils.MinInt(x0, n.X), utils.MinInt(y0, n.Y)
			x1, y1 = utils.MaxInt(x1, n.X), utils.MaxInt(y1, n.Y)
		}
	}

	// Seed distance stays strictly under the threshold, so every accepted
	// pixel scores strictly above 0.5 and thresholding at 0.5 recovers
	// exactly the walked region.
	window := image.Rect(x0, y0, x1+1, y1+1)
	scores := mask.NewFloatMap(window)
	region := mask.NewBitmap(window)
	for i, p := range accepted {
		region.Set(p.X, p.Y)
		scores.Set(p.X, p.Y, 1-0.5*seedDists[i]/gw.cfg.ColorThreshold)
	}
	contrasts, frameEdges := BoundaryStats(region, b, func(a, c image.Point) float64 {
		return labDist(plane.at(a.X, a.Y), plane.at(c.X, c.Y))
	})
	quality := EstimatePredictedIoU(contrasts, frameEdges, gw.cfg.ColorThreshold)
	return []Proposal{{Scores: scores, PredictedIoU: quality}}, nil
}

func (gw *gradientWalk) Release(ctx context.Context) error {
	gw.logger.Debugw("releasing gradient walk cache", "used_bytes", gw.cache.UsedBytes())
	gw.cache.Release()
	return nil
}

func (gw *gradientWalk) Close(ctx context.Context) error {
	return gw.Release(ctx)
}
