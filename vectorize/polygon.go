// Package vectorize turns label rasters into polygon geometries: each
// connected run of one label becomes a polygon whose rings follow the pixel
// boundaries, mapped through the raster's georeference.
package vectorize

import (
	"context"
	"image"
	"runtime"
	"sort"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"
	"golang.org/x/sync/errgroup"

	"github.com/overheadlabs/geomask/mask"
	"github.com/overheadlabs/geomask/raster"
	"github.com/overheadlabs/geomask/utils"
)

// Polygon is one connected region of one label. Rings[0] is the exterior,
// wound counterclockwise in the output coordinate frame; any following
// rings are holes, wound clockwise. The closing point is implicit.
// Coordinates are world coordinates, or pixel corners when the raster
// carries no georeference.
type Polygon struct {
	Label     uint16
	Rings     [][]r2.Point
	PixelArea int
}

// Polygons traces every labeled region of a label raster. Value 0 and the
// raster's nodata value are background. A label split across several
// disconnected regions yields several polygons, ordered by label and then
// by each region's first pixel.
func Polygons(ctx context.Context, img *raster.Image) ([]Polygon, error) {
	ctx, span := trace.StartSpan(ctx, "vectorize::Polygons")
	defer span.End()

	if img == nil {
		return nil, errors.Wrap(raster.ErrInvalidInput, "nil image")
	}
	switch img.Std().(type) {
	case *image.Gray, *image.Gray16:
	default:
		return nil, errors.Wrapf(raster.ErrInvalidInput,
			"vectorizing needs a label raster: %s", utils.NewUnexpectedTypeError(&image.Gray16{}, img.Std()))
	}

	b := img.Bounds()
	skip := map[uint16]bool{0: true}
	if nodata, ok := img.Nodata(); ok {
		skip[uint16(nodata)] = true
	}
	bitmaps := map[uint16]*mask.Bitmap{}
	var labels []uint16
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			v := uint16(img.Value(x, y, 0))
			if skip[v] {
				continue
			}
			bm, ok := bitmaps[v]
			if !ok {
				bm = mask.NewBitmap(b)
				bitmaps[v] = bm
				labels = append(labels, v)
			}
			bm.Set(x, y)
		}
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })

	georef := img.GeoReference()
	perLabel := make([][]Polygon, len(labels))
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(runtime.GOMAXPROCS(0))
	for i, label := range labels {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for _, region := range mask.Regions(bitmaps[label]) {
				perLabel[i] = append(perLabel[i], regionPolygon(label, region, georef))
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	var out []Polygon
	for _, polys := range perLabel {
		out = append(out, polys...)
	}
	return out, nil
}

func regionPolygon(label uint16, region *mask.Bitmap, georef *raster.GeoReference) Polygon {
	pixelRings := traceRings(region)
	// a connected region traces to exactly one enclosing ring, negative
	// under the y-down pixel shoelace, plus one ring per hole
	rings := make([][]r2.Point, 0, len(pixelRings))
	for _, ring := range pixelRings {
		if shoelace(ring) < 0 {
			rings = append(rings, orientRing(worldRing(ring, georef), true))
		}
	}
	for _, ring := range pixelRings {
		if shoelace(ring) >= 0 {
			rings = append(rings, orientRing(worldRing(ring, georef), false))
		}
	}
	return Polygon{Label: label, Rings: rings, PixelArea: region.Area()}
}

type boundaryEdge struct {
	from, to image.Point
}

// traceRings walks the directed boundary edges of a region into closed
// rings of pixel corners. Edges are directed with the region on the
// walker's left, so every vertex pairs incomings with outgoings and the
// walk always closes.
func traceRings(region *mask.Bitmap) [][]image.Point {
	var edges []boundaryEdge
	outgoing := map[image.Point][]int{}
	add := func(from, to image.Point) {
		outgoing[from] = append(outgoing[from], len(edges))
		edges = append(edges, boundaryEdge{from, to})
	}
	region.Each(func(x, y int) {
		if !region.Get(x, y-1) {
			add(image.Point{X: x + 1, Y: y}, image.Point{X: x, Y: y})
		}
		if !region.Get(x, y+1) {
			add(image.Point{X: x, Y: y + 1}, image.Point{X: x + 1, Y: y + 1})
		}
		if !region.Get(x-1, y) {
			add(image.Point{X: x, Y: y}, image.Point{X: x, Y: y + 1})
		}
		if !region.Get(x+1, y) {
			add(image.Point{X: x + 1, Y: y + 1}, image.Point{X: x + 1, Y: y})
		}
	})

	used := make([]bool, len(edges))
	var rings [][]image.Point
	for start := range edges {
		if used[start] {
			continue
		}
		var ring []image.Point
		cur := start
		for {
			used[cur] = true
			ring = append(ring, edges[cur].from)
			next := nextEdge(edges, outgoing, used, cur)
			if next < 0 {
				break
			}
			cur = next
		}
		rings = append(rings, simplifyRing(ring))
	}
	return rings
}

func nextEdge(edges []boundaryEdge, outgoing map[image.Point][]int, used []bool, cur int) int {
	e := edges[cur]
	candidates := outgoing[e.to]
	var chosen int
	switch len(candidates) {
	case 1:
		chosen = candidates[0]
	case 2:
		// Four boundary edges meet where background pixels touch
		// diagonally. Turn toward the background corner so the two
		// background components trace as separate rings, matching the
		// 4-connected hole semantics of the mask package.
		in := e.to.Sub(e.from)
		out0 := edges[candidates[0]].to.Sub(edges[candidates[0]].from)
		if in.X*out0.Y-in.Y*out0.X > 0 {
			chosen = candidates[0]
		} else {
			chosen = candidates[1]
		}
	default:
		return -1
	}
	if used[chosen] {
		return -1
	}
	return chosen
}

// simplifyRing drops vertices along straight runs, keeping corners only.
func simplifyRing(ring []image.Point) []image.Point {
	n := len(ring)
	out := make([]image.Point, 0, n)
	for i := 0; i < n; i++ {
		prev := ring[(i-1+n)%n]
		next := ring[(i+1)%n]
		if ring[i].Sub(prev) != next.Sub(ring[i]) {
			out = append(out, ring[i])
		}
	}
	return out
}

// shoelace returns twice the signed area of a pixel-corner ring in y-down
// raster coordinates.
func shoelace(ring []image.Point) int {
	sum := 0
	for i, p := range ring {
		q := ring[(i+1)%len(ring)]
		sum += p.X*q.Y - q.X*p.Y
	}
	return sum
}

func worldRing(ring []image.Point, georef *raster.GeoReference) []r2.Point {
	out := make([]r2.Point, len(ring))
	for i, p := range ring {
		if georef != nil {
			out[i] = georef.PixelToWorld(float64(p.X), float64(p.Y))
		} else {
			out[i] = r2.Point{X: float64(p.X), Y: float64(p.Y)}
		}
	}
	return out
}

// ringArea returns the signed area with the usual y-up convention, positive
// for counterclockwise rings.
func ringArea(ring []r2.Point) float64 {
	sum := 0.0
	for i, p := range ring {
		q := ring[(i+1)%len(ring)]
		sum += p.X*q.Y - q.X*p.Y
	}
	return sum / 2
}

func orientRing(ring []r2.Point, ccw bool) []r2.Point {
	if (ringArea(ring) > 0) == ccw {
		return ring
	}
	for i, j := 0, len(ring)-1; i < j; i, j = i+1, j-1 {
		ring[i], ring[j] = ring[j], ring[i]
	}
	return ring
}
