package automask

import "image"

// PointGrid returns the seed points for one window: the cell centers of a
// side by side grid laid over it, in row-major order.
func PointGrid(rect image.Rectangle, side int) []image.Point {
	if side <= 0 || rect.Empty() {
		return nil
	}
	points := make([]image.Point, 0, side*side)
	for row := 0; row < side; row++ {
		y := rect.Min.Y + (2*row+1)*rect.Dy()/(2*side)
		for col := 0; col < side; col++ {
			x := rect.Min.X + (2*col+1)*rect.Dx()/(2*side)
			points = append(points, image.Point{X: x, Y: y})
		}
	}
	return points
}

// SideForLayer thins the seed grid on deeper crop layers: layer n uses the
// base side divided by factor^n, never below 1. Layer n holds 4^n crops, so
// a factor of 2 keeps the total seed count per layer roughly constant.
func SideForLayer(pointsPerSide, factor, layer int) int {
	if factor < 1 {
		factor = 1
	}
	side := pointsPerSide
	for i := 0; i < layer && side > 1; i++ {
		side /= factor
	}
	if side < 1 {
		return 1
	}
	return side
}
