package raster

import (
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
)

// GeoReference ties pixel coordinates to world coordinates through an affine
// geotransform plus a coordinate reference system identifier.
//
// The transform uses the common six-coefficient layout, applied to pixel
// (col, row) with (0, 0) at the top-left corner of the top-left pixel:
//
//	world X = Transform[0] + col*Transform[1] + row*Transform[2]
//	world Y = Transform[3] + col*Transform[4] + row*Transform[5]
//
// For north-up imagery Transform[2] and Transform[4] are 0 and Transform[5]
// is negative. CRS is carried verbatim, either an "EPSG:nnnn" code or a
// citation string; this library never reprojects.
type GeoReference struct {
	Transform [6]float64 `json:"transform"`
	CRS       string     `json:"crs"`
}

// CheckValid returns an error unless the geotransform is invertible.
func (g *GeoReference) CheckValid() error {
	if g == nil {
		return errors.Wrap(ErrInvalidInput, "nil georeference")
	}
	if g.det() == 0 {
		return errors.Wrap(ErrInvalidInput, "geotransform is not invertible (zero determinant)")
	}
	return nil
}

func (g *GeoReference) det() float64 {
	return g.Transform[1]*g.Transform[5] - g.Transform[2]*g.Transform[4]
}

// PixelToWorld maps a pixel-space coordinate to world coordinates. Integer
// (col, row) values address pixel corners; add 0.5 to address a pixel center.
func (g *GeoReference) PixelToWorld(col, row float64) r2.Point {
	return r2.Point{
		X: g.Transform[0] + col*g.Transform[1] + row*g.Transform[2],
		Y: g.Transform[3] + col*g.Transform[4] + row*g.Transform[5],
	}
}

// WorldToPixel maps world coordinates back to fractional pixel-space
// (col, row). The zero transform maps everything to the origin; call
// CheckValid first when the transform is untrusted.
func (g *GeoReference) WorldToPixel(pt r2.Point) (float64, float64) {
	det := g.det()
	if det == 0 {
		return 0, 0
	}
	dx := pt.X - g.Transform[0]
	dy := pt.Y - g.Transform[3]
	col := (dx*g.Transform[5] - dy*g.Transform[2]) / det
	row := (dy*g.Transform[1] - dx*g.Transform[4]) / det
	return col, row
}

// Equal reports exact equality of transform and CRS. Spatial metadata is
// copied verbatim between rasters, so comparison is exact, not approximate.
func (g *GeoReference) Equal(other *GeoReference) bool {
	if g == nil || other == nil {
		return g == other
	}
	return g.Transform == other.Transform && g.CRS == other.CRS
}

// Clone returns a copy, nil for nil.
func (g *GeoReference) Clone() *GeoReference {
	if g == nil {
		return nil
	}
	out := *g
	return &out
}
