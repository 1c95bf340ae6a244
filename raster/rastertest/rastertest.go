// Package rastertest builds small synthetic scenes for exercising mask
// generation and vectorization without real aerial imagery on disk.
package rastertest

import (
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/fogleman/gg"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/overheadlabs/geomask/raster"
)

// Scene paints flat-colored shapes onto a background. Rectangles drawn at
// integer coordinates come out crisp, with no anti-aliased fringe, so a
// shape is a single flat region of exactly its nominal size.
type Scene struct {
	dc *gg.Context
}

// NewScene returns a scene of the given size filled with the background color.
func NewScene(width, height int, background color.Color) *Scene {
	dc := gg.NewContext(width, height)
	dc.SetColor(background)
	dc.Clear()
	return &Scene{dc: dc}
}

// AddRect paints an axis-aligned rectangle with its top-left corner at (x, y).
func (s *Scene) AddRect(x, y, width, height int, c color.Color) {
	s.dc.SetColor(c)
	s.dc.DrawRectangle(float64(x), float64(y), float64(width), float64(height))
	s.dc.Fill()
}

// AddCircle paints a filled circle. Circle edges are anti-aliased.
func (s *Scene) AddCircle(cx, cy, radius float64, c color.Color) {
	s.dc.SetColor(c)
	s.dc.DrawCircle(cx, cy, radius)
	s.dc.Fill()
}

// StdImage returns the rendered scene.
func (s *Scene) StdImage() image.Image {
	return s.dc.Image()
}

// Image wraps the rendered scene as a raster with the given georeference.
func (s *Scene) Image(georef *raster.GeoReference) *raster.Image {
	img, err := raster.FromStdImage(s.dc.Image(), georef)
	if err != nil {
		panic(err)
	}
	return img
}

// DefaultGeoReference is a north-up half-meter grid in a UTM zone, the kind
// of transform a typical aerial tile carries.
func DefaultGeoReference() *raster.GeoReference {
	return &raster.GeoReference{
		Transform: [6]float64{500000, 0.5, 0, 4650000, 0, -0.5},
		CRS:       "EPSG:32633",
	}
}

// WarmPalette returns n distinct warm colors, all far from a dark background
// in perceptual distance.
func WarmPalette(n int) []color.Color {
	out := make([]color.Color, 0, n)
	for _, c := range colorful.FastWarmPalette(n) {
		out = append(out, c)
	}
	return out
}

// TwoSquares is the canonical two-blob scene: a dark background with two
// well-separated bright squares, each 12x12 at (8,8) and (40,40).
func TwoSquares(width, height int) *raster.Image {
	scene := NewScene(width, height, color.NRGBA{R: 30, G: 30, B: 35, A: 255})
	palette := WarmPalette(2)
	scene.AddRect(8, 8, 12, 12, palette[0])
	scene.AddRect(40, 40, 12, 12, palette[1])
	return scene.Image(DefaultGeoReference())
}

// WritePNG dumps an image to disk, handy for eyeballing failing scenes.
func WritePNG(path string, img image.Image) error {
	f, err := os.Create(path) //nolint:gosec
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close() //nolint:errcheck,gosec
		return err
	}
	return f.Close()
}
