// Package automask generates whole-image mask sets from georeferenced
// rasters: it seeds a promptable model over a point grid, optionally across
// overlapping crops, filters the proposals by quality, deduplicates them,
// and labels the survivors into a raster aligned with the input.
package automask

import (
	"encoding/json"

	"github.com/a8m/envsubst"
	"github.com/pkg/errors"

	"github.com/overheadlabs/geomask/prompt"
	"github.com/overheadlabs/geomask/utils"
)

// ErrInvalidConfig is the class of configuration errors. Every bad setting
// is reported at construction, never midway through a run. Test with
// errors.Is.
var ErrInvalidConfig = errors.New("invalid mask generation config")

// OutputMode selects how a mask set is rendered into a label raster.
type OutputMode string

const (
	// OutputModeUnique assigns each mask its own positive label value.
	OutputModeUnique = OutputMode("unique")
	// OutputModeForeground writes a single foreground value for all masks.
	OutputModeForeground = OutputMode("foreground")
)

// Config holds every knob of the mask generation pipeline. Zero values are
// not usable defaults; start from DefaultConfig.
type Config struct {
	// Model names the registered prompt model to drive.
	Model string `json:"model"`
	// ModelParameters passes free-form attributes to the model constructor.
	ModelParameters utils.AttributeMap `json:"model_parameters"`
	// PointsPerSide is the seed grid resolution per crop side.
	PointsPerSide int `json:"points_per_side"`
	// PointsPerBatch is how many seeds are prompted per scheduling batch.
	// It trades peak memory against parallelism and never changes results.
	PointsPerBatch int `json:"points_per_batch"`
	// PredIoUThresh drops proposals whose predicted quality is below it.
	PredIoUThresh float64 `json:"pred_iou_thresh"`
	// StabilityScoreThresh drops proposals whose mask reacts too strongly
	// to perturbing the binarization cutoff by StabilityScoreOffset.
	StabilityScoreThresh float64 `json:"stability_score_thresh"`
	StabilityScoreOffset float64 `json:"stability_score_offset"`
	// BoxNMSThresh deduplicates masks within one crop at this IoU.
	BoxNMSThresh float64 `json:"box_nms_thresh"`
	// CropNLayers adds zoomed-in crop passes: layer n cuts the image into
	// 2^n by 2^n overlapping windows.
	CropNLayers int `json:"crop_n_layers"`
	// CropNPointsDownscaleFactor thins the seed grid on deeper layers: layer
	// n uses PointsPerSide divided by factor^n points per side.
	CropNPointsDownscaleFactor int `json:"crop_n_points_downscale_factor"`
	// CropNMSThresh deduplicates masks across crops at this IoU.
	CropNMSThresh float64 `json:"crop_nms_thresh"`
	// CropOverlapRatio controls how much neighboring crops overlap.
	CropOverlapRatio float64 `json:"crop_overlap_ratio"`
	// MinMaskRegionArea removes disconnected specks and fills holes smaller
	// than this area, in pixels, after deduplication.
	MinMaskRegionArea int `json:"min_mask_region_area"`
	// OutputMode selects the label raster rendering.
	OutputMode OutputMode `json:"output_mode"`
	// MaxCacheBytes caps the model's feature cache, model default when 0.
	MaxCacheBytes int64 `json:"max_cache_bytes"`
}

// DefaultConfig returns the settings a fresh deployment starts from.
func DefaultConfig() Config {
	return Config{
		Model:                      prompt.ModelGradientWalk,
		PointsPerSide:              32,
		PointsPerBatch:             64,
		PredIoUThresh:              0.88,
		StabilityScoreThresh:       0.95,
		StabilityScoreOffset:       0.05,
		BoxNMSThresh:               0.7,
		CropNLayers:                0,
		CropNPointsDownscaleFactor: 1,
		CropNMSThresh:              0.7,
		CropOverlapRatio:           512.0 / 1500.0,
		MinMaskRegionArea:          0,
		OutputMode:                 OutputModeUnique,
	}
}

// CheckValid returns the first configuration problem found, wrapped in
// ErrInvalidConfig.
func (c *Config) CheckValid() error {
	if c == nil {
		return errors.Wrap(ErrInvalidConfig, "nil config")
	}
	if c.Model == "" {
		return errors.Wrap(ErrInvalidConfig, "model cannot be empty")
	}
	if prompt.ModelLookup(c.Model) == nil {
		return errors.Wrapf(ErrInvalidConfig, "unknown model %q, registered models: %v",
			c.Model, prompt.RegisteredModelNames())
	}
	if c.PointsPerSide <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "points_per_side must be positive, got %d", c.PointsPerSide)
	}
	if c.PointsPerBatch <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "points_per_batch must be positive, got %d", c.PointsPerBatch)
	}
	if c.PredIoUThresh < 0 || c.PredIoUThresh > 1 {
		return errors.Wrapf(ErrInvalidConfig, "pred_iou_thresh must be within [0, 1], got %v", c.PredIoUThresh)
	}
	if c.StabilityScoreThresh < 0 || c.StabilityScoreThresh > 1 {
		return errors.Wrapf(ErrInvalidConfig,
			"stability_score_thresh must be within [0, 1], got %v", c.StabilityScoreThresh)
	}
	if c.StabilityScoreOffset <= 0 || c.StabilityScoreOffset >= 0.5 {
		return errors.Wrapf(ErrInvalidConfig,
			"stability_score_offset must be within (0, 0.5), got %v", c.StabilityScoreOffset)
	}
	if c.BoxNMSThresh < 0 || c.BoxNMSThresh > 1 {
		return errors.Wrapf(ErrInvalidConfig, "box_nms_thresh must be within [0, 1], got %v", c.BoxNMSThresh)
	}
	if c.CropNLayers < 0 || c.CropNLayers > 6 {
		return errors.Wrapf(ErrInvalidConfig, "crop_n_layers must be within [0, 6], got %d", c.CropNLayers)
	}
	if c.CropNPointsDownscaleFactor < 1 {
		return errors.Wrapf(ErrInvalidConfig,
			"crop_n_points_downscale_factor must be at least 1, got %d", c.CropNPointsDownscaleFactor)
	}
	if c.CropNMSThresh < 0 || c.CropNMSThresh > 1 {
		return errors.Wrapf(ErrInvalidConfig, "crop_nms_thresh must be within [0, 1], got %v", c.CropNMSThresh)
	}
	if c.CropOverlapRatio < 0 || c.CropOverlapRatio >= 1 {
		return errors.Wrapf(ErrInvalidConfig,
			"crop_overlap_ratio must be within [0, 1), got %v", c.CropOverlapRatio)
	}
	if c.MinMaskRegionArea < 0 {
		return errors.Wrapf(ErrInvalidConfig,
			"min_mask_region_area cannot be negative, got %d", c.MinMaskRegionArea)
	}
	switch c.OutputMode {
	case OutputModeUnique, OutputModeForeground:
	default:
		return errors.Wrapf(ErrInvalidConfig, "output_mode must be %q or %q, got %q",
			OutputModeUnique, OutputModeForeground, c.OutputMode)
	}
	if c.MaxCacheBytes < 0 {
		return errors.Wrapf(ErrInvalidConfig, "max_cache_bytes cannot be negative, got %d", c.MaxCacheBytes)
	}
	return nil
}

// ConfigFromAttributes builds a Config by applying free-form attributes over
// DefaultConfig. Unknown attribute names are rejected, not ignored.
func ConfigFromAttributes(attributes utils.AttributeMap) (Config, error) {
	conf := DefaultConfig()
	unused, err := utils.MergeAttributeMap(attributes, &conf)
	if err != nil {
		return Config{}, errors.Wrapf(ErrInvalidConfig, "parsing attributes: %s", err)
	}
	if len(unused) != 0 {
		return Config{}, errors.Wrapf(ErrInvalidConfig, "unknown attributes: %v", unused)
	}
	if err := conf.CheckValid(); err != nil {
		return Config{}, err
	}
	return conf, nil
}

// ReadConfigFile reads a JSON config from disk, substituting ${ENV_VAR}
// references before parsing.
func ReadConfigFile(path string) (Config, error) {
	buf, err := envsubst.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(ErrInvalidConfig, "reading %s: %s", path, err)
	}
	var attributes utils.AttributeMap
	if err := json.Unmarshal(buf, &attributes); err != nil {
		return Config{}, errors.Wrapf(ErrInvalidConfig, "parsing %s: %s", path, err)
	}
	return ConfigFromAttributes(attributes)
}
