package l2heatmap

import "math"

// Kernel3 is a 3x3 convolution kernel in row-major order.
type Kernel3 [9]float64

// GaussianKernel3 returns a normalized 3x3 gaussian kernel.
func GaussianKernel3(sigma float64) Kernel3 {
	var k Kernel3
	var sum float64
	for y := -1; y <= 1; y++ {
		for x := -1; x <= 1; x++ {
			v := math.Exp(-float64(x*x+y*y) / (2 * sigma * sigma))
			k[(y+1)*3+(x+1)] = v
			sum += v
		}
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// DefaultBlurKernel is the kernel applied to heatmaps before the maxima
// search.
var DefaultBlurKernel = GaussianKernel3(0.75)

// Convolve3 convolves src with k and writes the result into dst, resizing
// it to the extents of src. Samples outside the grid take the value of the
// nearest edge sample. src and dst must not be the same grid.
func Convolve3(src *Grid[float64], k Kernel3, dst *Grid[float64]) {
	dst.Resize(src.rows, src.cols)
	if src.Empty() {
		return
	}

	maxX := src.cols - 1
	maxY := src.rows - 1

	for y := 0; y <= maxY; y++ {
		for x := 0; x <= maxX; x++ {
			var acc float64
			for ky := -1; ky <= 1; ky++ {
				sy := clamp(y+ky, 0, maxY)
				row := src.data[sy*src.cols:]
				for kx := -1; kx <= 1; kx++ {
					sx := clamp(x+kx, 0, maxX)
					acc += row[sx] * k[(ky+1)*3+(kx+1)]
				}
			}
			dst.data[y*dst.cols+x] = acc
		}
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
