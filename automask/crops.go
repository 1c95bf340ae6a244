package automask

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"

	"github.com/overheadlabs/geomask/raster"
	"github.com/overheadlabs/geomask/utils"
)

// A CropWindow is one window of the source raster a generation pass runs
// over.
type CropWindow struct {
	// Rect is the window in full-image pixel coordinates.
	Rect image.Rectangle
	// Layer is the zoom level, 0 being the single full-image window.
	Layer int
}

// CropWindows lays out the windows for every layer. Layer n tiles the image
// with 2^n by 2^n windows, each widened so that neighbors overlap by
// 2*overlapRatio*shortSide/2^n pixels; the trailing row and column are
// clipped to the image.
func CropWindows(bounds image.Rectangle, layers int, overlapRatio float64) []CropWindow {
	windows := []CropWindow{{Rect: bounds, Layer: 0}}
	shortSide := utils.MinInt(bounds.Dx(), bounds.Dy())
	for layer := 1; layer <= layers; layer++ {
		n := 1 << uint(layer)
		overlap := int(overlapRatio * float64(shortSide) * 2 / float64(n))
		cropW := ceilDiv(overlap*(n-1)+bounds.Dx(), n)
		cropH := ceilDiv(overlap*(n-1)+bounds.Dy(), n)
		for row := 0; row < n; row++ {
			y0 := bounds.Min.Y + row*(cropH-overlap)
			for col := 0; col < n; col++ {
				x0 := bounds.Min.X + col*(cropW-overlap)
				rect := image.Rect(x0, y0, x0+cropW, y0+cropH).Intersect(bounds)
				windows = append(windows, CropWindow{Rect: rect, Layer: layer})
			}
		}
	}
	return windows
}

func ceilDiv(a, b int) int {
	return int(math.Ceil(float64(a) / float64(b)))
}

// ExtractCrop copies one window out of the raster. The copy keeps
// full-image pixel coordinates, so masks found in a crop line up with the
// source without any translation. The layer-0 window returns the source
// itself, uncopied.
func ExtractCrop(img *raster.Image, window CropWindow) (*raster.Image, error) {
	if window.Rect == img.Bounds() {
		return img, nil
	}
	if window.Rect.Empty() {
		return nil, errors.Wrapf(raster.ErrInvalidInput, "empty crop window %v", window.Rect)
	}
	var cropped image.Image
	switch std := img.Std().(type) {
	case *image.Gray:
		cropped = std.SubImage(window.Rect)
	case *image.Gray16:
		cropped = std.SubImage(window.Rect)
	default:
		// imaging returns the window at the origin; shift it back into the
		// full-image frame.
		nrgba := imaging.Crop(std, window.Rect)
		nrgba.Rect = nrgba.Rect.Add(window.Rect.Min)
		cropped = nrgba
	}
	return raster.FromStdImage(cropped, nil)
}
