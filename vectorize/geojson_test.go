package vectorize_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"testing"

	"github.com/edaniels/golog"
	"go.viam.com/test"

	"github.com/overheadlabs/geomask/automask"
	"github.com/overheadlabs/geomask/raster/rastertest"
	"github.com/overheadlabs/geomask/vectorize"
)

func TestWriteGeoJSON(t *testing.T) {
	img := labelRaster(t, 6, 6, nil, func(set func(x, y int, label uint16)) {
		fillRect(set, image.Rect(1, 1, 4, 4), 1)
	})
	polys, err := vectorize.Polygons(context.Background(), img)
	test.That(t, err, test.ShouldBeNil)

	var buf bytes.Buffer
	test.That(t, vectorize.WriteGeoJSON(&buf, polys, "EPSG:32633"), test.ShouldBeNil)

	var fc map[string]interface{}
	test.That(t, json.Unmarshal(buf.Bytes(), &fc), test.ShouldBeNil)
	test.That(t, fc["type"], test.ShouldEqual, "FeatureCollection")

	crs := fc["crs"].(map[string]interface{})
	test.That(t, crs["type"], test.ShouldEqual, "name")
	test.That(t, crs["properties"].(map[string]interface{})["name"], test.ShouldEqual, "EPSG:32633")

	features := fc["features"].([]interface{})
	test.That(t, features, test.ShouldHaveLength, 1)
	feature := features[0].(map[string]interface{})
	test.That(t, feature["type"], test.ShouldEqual, "Feature")

	props := feature["properties"].(map[string]interface{})
	test.That(t, props["label"], test.ShouldEqual, 1.0)
	test.That(t, props["pixel_area"], test.ShouldEqual, 9.0)

	geom := feature["geometry"].(map[string]interface{})
	test.That(t, geom["type"], test.ShouldEqual, "Polygon")
	rings := geom["coordinates"].([]interface{})
	test.That(t, rings, test.ShouldHaveLength, 1)
	ring := rings[0].([]interface{})
	// four corners plus the explicit closing point
	test.That(t, ring, test.ShouldHaveLength, 5)
	test.That(t, ring[0], test.ShouldResemble, ring[len(ring)-1])
}

func TestWriteGeoJSONNoCRS(t *testing.T) {
	var buf bytes.Buffer
	test.That(t, vectorize.WriteGeoJSON(&buf, nil, ""), test.ShouldBeNil)

	var fc map[string]interface{}
	test.That(t, json.Unmarshal(buf.Bytes(), &fc), test.ShouldBeNil)
	_, hasCRS := fc["crs"]
	test.That(t, hasCRS, test.ShouldBeFalse)
	test.That(t, fc["features"].([]interface{}), test.ShouldBeEmpty)
}

func TestPolygonsFromGeneratedMasks(t *testing.T) {
	img := rastertest.TwoSquares(64, 64)
	conf := automask.DefaultConfig()
	conf.PointsPerSide = 8
	gen, err := automask.NewGenerator(conf, golog.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	defer func() {
		test.That(t, gen.Close(context.Background()), test.ShouldBeNil)
	}()

	ms, err := gen.Generate(context.Background(), img)
	test.That(t, err, test.ShouldBeNil)
	lab, err := ms.ToRaster(automask.OutputModeUnique)
	test.That(t, err, test.ShouldBeNil)

	polys, err := vectorize.Polygons(context.Background(), lab)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, polys, test.ShouldHaveLength, 2)
	test.That(t, polys[0].Label, test.ShouldEqual, uint16(1))
	test.That(t, polys[0].PixelArea, test.ShouldEqual, 144)
	test.That(t, polys[0].Rings, test.ShouldHaveLength, 1)
	test.That(t, polys[0].Rings[0], test.ShouldHaveLength, 4)
	test.That(t, polys[1].Label, test.ShouldEqual, uint16(2))
	test.That(t, polys[1].PixelArea, test.ShouldEqual, 144)

	// corners land on the georeferenced half-meter grid
	first := polys[0].Rings[0]
	xs := map[float64]bool{}
	ys := map[float64]bool{}
	for _, pt := range first {
		xs[pt.X] = true
		ys[pt.Y] = true
	}
	test.That(t, xs, test.ShouldResemble, map[float64]bool{500004: true, 500010: true})
	test.That(t, ys, test.ShouldResemble, map[float64]bool{4649990: true, 4649996: true})

	var buf bytes.Buffer
	crs := lab.GeoReference().CRS
	test.That(t, crs, test.ShouldEqual, "EPSG:32633")
	test.That(t, vectorize.WriteGeoJSON(&buf, polys, crs), test.ShouldBeNil)
	var fc map[string]interface{}
	test.That(t, json.Unmarshal(buf.Bytes(), &fc), test.ShouldBeNil)
	test.That(t, fc["features"].([]interface{}), test.ShouldHaveLength, 2)
}
