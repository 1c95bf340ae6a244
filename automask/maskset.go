package automask

import (
	"image"

	"github.com/overheadlabs/geomask/mask"
	"github.com/overheadlabs/geomask/raster"
)

// A Mask is one segmented region of the source raster.
type Mask struct {
	// Bitmap holds the region over its tight bounding box, in full-image
	// pixel coordinates.
	Bitmap *mask.Bitmap
	// BBox is the tight pixel bounding box, equal to Bitmap.Bounds().
	BBox image.Rectangle
	// PredictedIoU is the model's quality estimate the mask survived with.
	PredictedIoU float64
	// StabilityScore measures robustness to the binarization cutoff.
	StabilityScore float64
	// Seed is the grid point that prompted the mask.
	Seed image.Point
	// CropLayer is the crop zoom level the mask was found in.
	CropLayer int
	// Label is the mask's value in a unique-mode label raster, assigned
	// 1..n in final order.
	Label uint16
}

// A MaskSet is the result of one generation run over one raster.
type MaskSet struct {
	Masks  []*Mask
	bounds image.Rectangle
	georef *raster.GeoReference
}

// NewMaskSet assembles a mask set over the given extent. Most callers get
// one from a Generator instead.
func NewMaskSet(masks []*Mask, bounds image.Rectangle, georef *raster.GeoReference) *MaskSet {
	return &MaskSet{Masks: masks, bounds: bounds, georef: georef.Clone()}
}

// Len returns the number of masks.
func (ms *MaskSet) Len() int {
	return len(ms.Masks)
}

// Bounds returns the pixel bounds of the source raster.
func (ms *MaskSet) Bounds() image.Rectangle {
	return ms.bounds
}

// GeoReference returns the spatial metadata inherited from the source, nil
// when the source had none.
func (ms *MaskSet) GeoReference() *raster.GeoReference {
	return ms.georef
}
