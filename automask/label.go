package automask

import (
	"github.com/pkg/errors"

	"github.com/overheadlabs/geomask/raster"
)

// MaxLabels is the most masks a 16-bit label raster can hold, since 0 is
// reserved for background.
const MaxLabels = 65535

// ForegroundLabel is the value every mask renders as in foreground mode.
const ForegroundLabel = uint16(1)

// ToRaster renders the mask set into a label raster aligned with the
// source: same dimensions, same georeference, 16-bit samples, nodata 0.
// Unique mode writes each mask's Label, foreground mode writes 1 for every
// mask. Where masks overlap, the later mask wins.
func (ms *MaskSet) ToRaster(mode OutputMode) (*raster.Image, error) {
	switch mode {
	case OutputModeUnique, OutputModeForeground:
	default:
		return nil, errors.Wrapf(ErrInvalidConfig, "output_mode must be %q or %q, got %q",
			OutputModeUnique, OutputModeForeground, mode)
	}
	if len(ms.Masks) > MaxLabels {
		return nil, errors.Errorf("%d masks exceed the %d labels a 16-bit raster can hold",
			len(ms.Masks), MaxLabels)
	}

	canvas := raster.NewLabelImage(ms.bounds.Dx(), ms.bounds.Dy(), ms.georef.Clone())
	off := ms.bounds.Min
	for _, m := range ms.Masks {
		value := m.Label
		if mode == OutputModeForeground {
			value = ForegroundLabel
		}
		m.Bitmap.Each(func(x, y int) {
			canvas.SetLabel(x-off.X, y-off.Y, value)
		})
	}
	return canvas.Image(), nil
}
