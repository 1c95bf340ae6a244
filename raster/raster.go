// Package raster provides georeferenced raster images: an immutable image
// model carrying spatial metadata, and file readers and writers that keep
// that metadata intact.
package raster

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/pkg/errors"
)

// ErrInvalidInput is the class of errors for rasters this library cannot
// consume: unreadable or malformed files, unsupported layouts, or missing
// georeferencing where one is required. Test with errors.Is.
var ErrInvalidInput = errors.New("invalid raster input")

// DType identifies the per-band sample type of a raster.
type DType string

const (
	// DTypeUint8 is 8 bits per sample.
	DTypeUint8 = DType("uint8")
	// DTypeUint16 is 16 bits per sample.
	DTypeUint16 = DType("uint16")
)

// Image is an immutable 2D raster with one or more bands and optional
// spatial metadata. Pixels are held in a decoded standard library image;
// Value exposes them band-by-band as float64.
type Image struct {
	std    image.Image
	bands  int
	dtype  DType
	georef *GeoReference
	nodata *float64
}

// FromStdImage wraps a decoded image, attaching the given georeference
// (which may be nil for imagery with no spatial metadata). Gray images carry
// one band, color images three. Image types without a direct band mapping
// are converted to NRGBA up front.
func FromStdImage(img image.Image, georef *GeoReference) (*Image, error) {
	if img == nil {
		return nil, errors.Wrap(ErrInvalidInput, "nil image")
	}
	out := &Image{std: img, georef: georef}
	switch img.(type) {
	case *image.Gray:
		out.bands, out.dtype = 1, DTypeUint8
	case *image.Gray16:
		out.bands, out.dtype = 1, DTypeUint16
	case *image.RGBA, *image.NRGBA, *image.YCbCr:
		out.bands, out.dtype = 3, DTypeUint8
	default:
		converted := image.NewNRGBA(img.Bounds())
		draw.Draw(converted, converted.Bounds(), img, img.Bounds().Min, draw.Src)
		out.std = converted
		out.bands, out.dtype = 3, DTypeUint8
	}
	return out, nil
}

// WithNodata returns a copy of the image that declares the given nodata
// value. The pixels are shared, not copied.
func (i *Image) WithNodata(v float64) *Image {
	out := *i
	out.nodata = &v
	return &out
}

// Width returns the raster width in pixels.
func (i *Image) Width() int {
	return i.std.Bounds().Dx()
}

// Height returns the raster height in pixels.
func (i *Image) Height() int {
	return i.std.Bounds().Dy()
}

// Bounds returns the pixel-space extent.
func (i *Image) Bounds() image.Rectangle {
	return i.std.Bounds()
}

// Bands returns the number of bands.
func (i *Image) Bands() int {
	return i.bands
}

// DType returns the per-band sample type.
func (i *Image) DType() DType {
	return i.dtype
}

// GeoReference returns the spatial metadata, nil when the raster has none.
func (i *Image) GeoReference() *GeoReference {
	return i.georef
}

// Nodata returns the declared nodata value, if any.
func (i *Image) Nodata() (float64, bool) {
	if i.nodata == nil {
		return 0, false
	}
	return *i.nodata, true
}

// Std returns the backing standard library image. Callers must not mutate it.
func (i *Image) Std() image.Image {
	return i.std
}

// Value returns the sample of one band at (x, y) in the sample's native
// range: 0-255 for uint8 bands, 0-65535 for uint16. Out-of-bounds
// coordinates and bands return 0.
func (i *Image) Value(x, y, band int) float64 {
	if band < 0 || band >= i.bands || !(image.Point{x, y}).In(i.Bounds()) {
		return 0
	}
	switch img := i.std.(type) {
	case *image.Gray:
		return float64(img.GrayAt(x, y).Y)
	case *image.Gray16:
		return float64(img.Gray16At(x, y).Y)
	case *image.RGBA:
		c := img.RGBAAt(x, y)
		return float64([3]uint8{c.R, c.G, c.B}[band])
	case *image.NRGBA:
		c := img.NRGBAAt(x, y)
		return float64([3]uint8{c.R, c.G, c.B}[band])
	default:
		c := color.NRGBAModel.Convert(i.std.At(x, y)).(color.NRGBA)
		return float64([3]uint8{c.R, c.G, c.B}[band])
	}
}
