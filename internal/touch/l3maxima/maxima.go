package l3maxima

import (
	"github.com/banshee-data/touchd/internal/touch"
	"github.com/banshee-data/touchd/internal/touch/l2heatmap"
)

// Find returns every local maximum of g whose value is strictly greater than
// threshold. The order of the result is unspecified.
func Find[T l2heatmap.Scalar](g *l2heatmap.Grid[T], threshold T) []touch.Point {
	return FindInto(g, threshold, nil)
}

// FindInto is Find writing into dst[:0], so that a per-cycle caller can reuse
// the same backing array.
func FindInto[T l2heatmap.Scalar](g *l2heatmap.Grid[T], threshold T, dst []touch.Point) []touch.Point {
	dst = dst[:0]

	rows, cols := g.Rows(), g.Cols()
	if rows == 0 || cols == 0 {
		return dst
	}

	data := g.Data()
	for y := 0; y < rows; y++ {
		row := data[y*cols : (y+1)*cols]

		var up, down []T
		if y > 0 {
			up = data[(y-1)*cols : y*cols]
		}
		if y < rows-1 {
			down = data[(y+1)*cols : (y+2)*cols]
		}

		for x, v := range row {
			// Cheap rejection first; it does not change which cells qualify.
			if !(v > threshold) {
				continue
			}
			if isMaximum(row, up, down, x, v) {
				dst = append(dst, touch.Point{X: x, Y: y})
			}
		}
	}
	return dst
}

// isMaximum applies the comparison kernel to the cell at column x of row.
// up and down are nil at the top and bottom edge.
func isMaximum[T l2heatmap.Scalar](row, up, down []T, x int, v T) bool {
	left := x > 0
	right := x < len(row)-1

	if left && !(row[x-1] < v) {
		return false
	}
	if right && !(row[x+1] <= v) {
		return false
	}

	if up != nil {
		if !(up[x] < v) {
			return false
		}
		if left && !(up[x-1] < v) {
			return false
		}
		if right && !(up[x+1] <= v) {
			return false
		}
	}

	if down != nil {
		if !(down[x] <= v) {
			return false
		}
		if left && !(down[x-1] < v) {
			return false
		}
		if right && !(down[x+1] <= v) {
			return false
		}
	}

	return true
}

// Detector is a reusable maxima search that keeps its result buffer between
// cycles. It is not safe for concurrent use.
type Detector[T l2heatmap.Scalar] struct {
	points []touch.Point
}

// Search runs the maxima search over g. The returned slice is owned by the
// detector and overwritten by the next call.
func (d *Detector[T]) Search(g *l2heatmap.Grid[T], threshold T) []touch.Point {
	d.points = FindInto(g, threshold, d.points)
	return d.points
}
