package vectorize

import (
	"encoding/json"
	"io"
)

type geoJSONGeometry struct {
	Type        string         `json:"type"`
	Coordinates [][][2]float64 `json:"coordinates"`
}

type geoJSONFeature struct {
	Type       string                 `json:"type"`
	Geometry   geoJSONGeometry        `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

type geoJSONCRS struct {
	Type       string            `json:"type"`
	Properties map[string]string `json:"properties"`
}

type geoJSONCollection struct {
	Type     string           `json:"type"`
	CRS      *geoJSONCRS      `json:"crs,omitempty"`
	Features []geoJSONFeature `json:"features"`
}

// WriteGeoJSON serializes polygons as a GeoJSON FeatureCollection, closing
// each ring explicitly. A non-empty crs is recorded as the legacy top-level
// crs member. Each feature carries its label and pixel_area as properties.
func WriteGeoJSON(w io.Writer, polys []Polygon, crs string) error {
	fc := geoJSONCollection{
		Type:     "FeatureCollection",
		Features: make([]geoJSONFeature, 0, len(polys)),
	}
	if crs != "" {
		fc.CRS = &geoJSONCRS{Type: "name", Properties: map[string]string{"name": crs}}
	}
	for _, poly := range polys {
		coords := make([][][2]float64, 0, len(poly.Rings))
		for _, ring := range poly.Rings {
			closed := make([][2]float64, 0, len(ring)+1)
			for _, pt := range ring {
				closed = append(closed, [2]float64{pt.X, pt.Y})
			}
			if len(ring) > 0 {
				closed = append(closed, [2]float64{ring[0].X, ring[0].Y})
			}
			coords = append(coords, closed)
		}
		fc.Features = append(fc.Features, geoJSONFeature{
			Type:     "Feature",
			Geometry: geoJSONGeometry{Type: "Polygon", Coordinates: coords},
			Properties: map[string]interface{}{
				"label":      int(poly.Label),
				"pixel_area": poly.PixelArea,
			},
		})
	}
	return json.NewEncoder(w).Encode(&fc)
}
