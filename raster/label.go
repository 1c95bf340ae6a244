package raster

import (
	"image"
	"image/color"
)

// A LabelImage is a mutable 16-bit single-band canvas for rendering label
// values, 0 meaning background. Finish with Image to get an immutable raster
// that declares 0 as nodata.
type LabelImage struct {
	gray   *image.Gray16
	georef *GeoReference
}

// NewLabelImage returns a label canvas of the given size with every pixel at
// the background value 0. The georeference may be nil.
func NewLabelImage(w, h int, georef *GeoReference) *LabelImage {
	return &LabelImage{gray: image.NewGray16(image.Rect(0, 0, w, h)), georef: georef}
}

// Bounds returns the canvas extent.
func (li *LabelImage) Bounds() image.Rectangle {
	return li.gray.Bounds()
}

// SetLabel writes a label at (x, y). Writes outside the canvas are ignored.
func (li *LabelImage) SetLabel(x, y int, label uint16) {
	if !(image.Point{x, y}).In(li.gray.Bounds()) {
		return
	}
	li.gray.SetGray16(x, y, color.Gray16{Y: label})
}

// Label returns the label at (x, y), 0 outside the canvas.
func (li *LabelImage) Label(x, y int) uint16 {
	if !(image.Point{x, y}).In(li.gray.Bounds()) {
		return 0
	}
	return li.gray.Gray16At(x, y).Y
}

// Image returns the finished raster. The canvas's pixels are shared, not
// copied; the canvas should not be written afterwards.
func (li *LabelImage) Image() *Image {
	nodata := 0.0
	return &Image{
		std:    li.gray,
		bands:  1,
		dtype:  DTypeUint16,
		georef: li.georef,
		nodata: &nodata,
	}
}
