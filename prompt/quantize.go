package prompt

import (
	"context"
	"image"
	"math"

	"github.com/edaniels/golog"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/nfnt/resize"
	"github.com/pkg/errors"

	"github.com/overheadlabs/geomask/mask"
	"github.com/overheadlabs/geomask/raster"
	"github.com/overheadlabs/geomask/utils"
)

// ModelQuantize names the palette quantization model in the registry.
const ModelQuantize = "quantize"

// Defaults for QuantizeConfig.
const (
	DefaultQuantizeClusters   = 5
	DefaultQuantizeIterations = 30
	DefaultThumbnailSize      = 64
)

// QuantizeConfig configures the palette quantization model.
type QuantizeConfig struct {
	// Clusters is the palette size the image is quantized to.
	Clusters int `json:"clusters"`
	// MaxIterations bounds the Lloyd refinement of the palette.
	MaxIterations int `json:"max_iterations"`
	// ThumbnailSize is the long side of the downsample the palette is
	// learned from. The full image is then assigned against that palette.
	ThumbnailSize int `json:"thumbnail_size"`
	// MaxCacheBytes caps the per-image feature cache, DefaultCacheBytes
	// when 0.
	MaxCacheBytes int64 `json:"max_cache_bytes"`
}

func init() {
	RegisterModel(ModelQuantize, Registration{
		Constructor: func(conf utils.AttributeMap, logger golog.Logger) (Model, error) {
			cfg := QuantizeConfig{
				Clusters:      DefaultQuantizeClusters,
				MaxIterations: DefaultQuantizeIterations,
				ThumbnailSize: DefaultThumbnailSize,
			}
			unused, err := utils.MergeAttributeMap(conf, &cfg)
			if err != nil {
				return nil, err
			}
			if len(unused) != 0 {
				return nil, errors.Errorf("unknown %s parameters: %v", ModelQuantize, unused)
			}
			return NewQuantize(cfg, logger)
		},
		Parameters: utils.JSONTags(QuantizeConfig{}),
	})
}

type quantize struct {
	cfg    QuantizeConfig
	logger golog.Logger
	cache  *ImageCache
}

type quantizeFeatures struct {
	plane *labPlane
	class []int32
	dist  []float64
}

// NewQuantize returns a model that quantizes the image to a small Lab
// palette and proposes, for a seed, the connected run of pixels sharing the
// seed's palette class.
func NewQuantize(cfg QuantizeConfig, logger golog.Logger) (Model, error) {
	if cfg.Clusters <= 0 {
		return nil, errors.New("clusters must be positive")
	}
	if cfg.MaxIterations <= 0 {
		return nil, errors.New("max_iterations must be positive")
	}
	if cfg.ThumbnailSize <= 0 {
		return nil, errors.New("thumbnail_size must be positive")
	}
	if cfg.MaxCacheBytes < 0 {
		return nil, errors.New("max_cache_bytes cannot be negative")
	}
	return &quantize{
		cfg:    cfg,
		logger: logger,
		cache:  NewImageCache(cfg.MaxCacheBytes),
	}, nil
}

func (q *quantize) Name() string {
	return ModelQuantize
}

// palette learns cluster centers in Lab space from a thumbnail of the image.
func (q *quantize) palette(img *raster.Image) ([][3]float64, error) {
	size := uint(q.cfg.ThumbnailSize)
	thumb := resize.Thumbnail(size, size, img.Std(), resize.Bilinear)
	tb := thumb.Bounds()
	obs := make(clusters.Observations, 0, tb.Dx()*tb.Dy())
	for y := tb.Min.Y; y < tb.Max.Y; y++ {
		for x := tb.Min.X; x < tb.Max.X; x++ {
			c, ok := colorful.MakeColor(thumb.At(x, y))
			if !ok {
				continue
			}
			l, labA, labB := c.Lab()
			obs = append(obs, clusters.Coordinates{l, labA, labB})
		}
	}
	if len(obs) == 0 {
		return nil, errors.Wrap(raster.ErrInvalidInput, "no opaque pixels to build a palette from")
	}

	k := utils.MinInt(q.cfg.Clusters, len(obs))
	cc := seededClusters(k, obs)
	for iter := 0; iter < q.cfg.MaxIterations; iter++ {
		cc.Reset()
		for _, o := range obs {
			cc[cc.Nearest(o)].Append(o)
		}
		moved := false
		for i := range cc {
			prev := append(clusters.Coordinates(nil), cc[i].Center...)
			cc[i].Recenter()
			if !coordinatesEqual(prev, cc[i].Center) {
				moved = true
			}
		}
		if !moved {
			break
		}
	}

	centers := make([][3]float64, len(cc))
	for i, c := range cc {
		centers[i] = [3]float64{c.Center[0], c.Center[1], c.Center[2]}
	}
	return centers, nil
}

// seededClusters places the initial centers deterministically: the first
// observation, then repeatedly the observation farthest from every chosen
// center. clusters.New seeds from math/rand, and identical runs must
// produce identical palettes.
func seededClusters(k int, obs clusters.Observations) clusters.Clusters {
	centers := make([]clusters.Coordinates, 1, k)
	centers[0] = obs[0].Coordinates()
	for len(centers) < k {
		bestIdx := 0
		bestDist := -1.0
		for i, o := range obs {
			nearest := math.MaxFloat64
			for _, c := range centers {
				if d := o.Distance(c); d < nearest {
					nearest = d
				}
			}
			if nearest > bestDist {
				bestDist = nearest
				bestIdx = i
			}
		}
		centers = append(centers, obs[bestIdx].Coordinates())
	}
	cc := make(clusters.Clusters, k)
	for i := range cc {
		cc[i].Center = centers[i]
	}
	return cc
}

func coordinatesEqual(a, b clusters.Coordinates) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (q *quantize) features(img *raster.Image) (*quantizeFeatures, error) {
	if v, ok := q.cache.Get(img); ok {
		return utils.AssertType[*quantizeFeatures](v)
	}
	centers, err := q.palette(img)
	if err != nil {
		return nil, err
	}
	plane := newLabPlane(img)
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	feats := &quantizeFeatures{
		plane: plane,
		class: make([]int32, w*h),
		dist:  make([]float64, w*h),
	}
	utils.ParallelForEachPixel(image.Point{X: w, Y: h}, func(x, y int) {
		lab := plane.lab[y*w+x]
		best := 0
		bestD := math.MaxFloat64
		for ci, center := range centers {
			dl := lab[0] - center[0]
			da := lab[1] - center[1]
			db := lab[2] - center[2]
			if d := dl*dl + da*da + db*db; d < bestD {
				bestD = d
				best = ci
			}
		}
		feats.class[y*w+x] = int32(best)
		feats.dist[y*w+x] = math.Sqrt(bestD)
	})
	size := int64(w) * int64(h) * (bytesPerLab + 4 + 8)
	if err := q.cache.Put(img, feats, size); err != nil {
		return nil, err
	}
	return feats, nil
}

func (q *quantize) Prompt(ctx context.Context, img *raster.Image, seed image.Point) ([]Proposal, error) {
	if err := checkPromptArgs(img, seed); err != nil {
		return nil, err
	}
	feats, err := q.features(img)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	w := b.Dx()
	index := func(p image.Point) int {
		return (p.Y-b.Min.Y)*w + (p.X - b.Min.X)
	}
	class := feats.class[index(seed)]

	visited := make([]bool, len(feats.class))
	visited[index(seed)] = true
	accepted := []image.Point{seed}
	queue := []image.Point{seed}
	x0, y0, x1, y1 := seed.X, seed.Y, seed.X, seed.Y
	minD, maxD := feats.dist[index(seed)], feats.dist[index(seed)]
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		for _, n := range []image.Point{{p.X - 1, p.Y}, {p.X + 1, p.Y}, {p.X, p.Y - 1}, {p.X, p.Y + 1}} {
			if !n.In(b) || visited[index(n)] || feats.class[index(n)] != class {
				continue
			}
			visited[index(n)] = true
			accepted = append(accepted, n)
			queue = append(queue, n)
			d := feats.dist[index(n)]
			minD = math.Min(minD, d)
			maxD = math.Max(maxD, d)
			x0, y0 = utils.MinInt(x0, n.X), utils.MinInt(y0, n.Y)
			x1, y1 = utils.MaxInt(x1, n.X), utils.MaxInt(y1, n.Y)
		}
	}

	// Scores are scaled into [0.55, 1] by distance to the palette color, so
	// thresholding at 0.5 keeps the whole component while the stability
	// perturbation still reacts to poorly matched pixels.
	window := image.Rect(x0, y0, x1+1, y1+1)
	scores := mask.NewFloatMap(window)
	region := mask.NewBitmap(window)
	span := maxD - minD
	for _, p := range accepted {
		region.Set(p.X, p.Y)
		score := 1.0
		if span > 0 {
			score = 1 - 0.45*(feats.dist[index(p)]-minD)/span
		}
		scores.Set(p.X, p.Y, score)
	}
	contrasts, frameEdges := BoundaryStats(region, b, func(a, c image.Point) float64 {
		return labDist(feats.plane.at(a.X, a.Y), feats.plane.at(c.X, c.Y))
	})
	quality := EstimatePredictedIoU(contrasts, frameEdges, DefaultColorThreshold)
	return []Proposal{{Scores: scores, PredictedIoU: quality}}, nil
}

func (q *quantize) Release(ctx context.Context) error {
	q.logger.Debugw("releasing quantize cache", "used_bytes", q.cache.UsedBytes())
	q.cache.Release()
	return nil
}

func (q *quantize) Close(ctx context.Context) error {
	return q.Release(ctx)
}
