package prompt

import (
	"image"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/overheadlabs/geomask/raster"
	"github.com/overheadlabs/geomask/utils"
)

// three float64 Lab components per pixel
const bytesPerLab = 3 * 8

// labPlane caches the perceptual Lab coordinates of every pixel, the
// representation both models measure color distance in.
type labPlane struct {
	rect image.Rectangle
	lab  [][3]float64
}

func newLabPlane(img *raster.Image) *labPlane {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	plane := &labPlane{rect: b, lab: make([][3]float64, w*h)}
	scale := 255.0
	if img.DType() == raster.DTypeUint16 {
		scale = 65535.0
	}
	utils.ParallelForEachPixel(image.Point{X: w, Y: h}, func(x, y int) {
		px, py := x+b.Min.X, y+b.Min.Y
		var c colorful.Color
		if img.Bands() == 1 {
			v := img.Value(px, py, 0) / scale
			c = colorful.Color{R: v, G: v, B: v}
		} else {
			c = colorful.Color{
				R: img.Value(px, py, 0) / 255.0,
				G: img.Value(px, py, 1) / 255.0,
				B: img.Value(px, py, 2) / 255.0,
			}
		}
		l, labA, labB := c.Lab()
		plane.lab[y*w+x] = [3]float64{l, labA, labB}
	})
	return plane
}

func (p *labPlane) at(x, y int) [3]float64 {
	return p.lab[(y-p.rect.Min.Y)*p.rect.Dx()+(x-p.rect.Min.X)]
}

func (p *labPlane) sizeBytes() int64 {
	return int64(len(p.lab)) * bytesPerLab
}

func labDist(a, b [3]float64) float64 {
	return math.Sqrt(utils.Square(a[0]-b[0]) + utils.Square(a[1]-b[1]) + utils.Square(a[2]-b[2]))
}
