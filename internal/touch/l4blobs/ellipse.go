package l4blobs

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/touchd/internal/touch"
	"github.com/banshee-data/touchd/internal/touch/l2heatmap"
)

// ellipseScale converts the standard deviation along an axis into the
// reported diameter (two standard deviations to each side).
const ellipseScale = 4

// ellipse is the result of fitting a cluster.
type ellipse struct {
	mean        touch.Vec2
	size        touch.Vec2 // minor, major diameter
	orientation float64    // angle of the major axis in [0, pi)
}

// fitEllipse fits an ellipse to the samples of g inside box, using the
// sample values as weights. The 2x2 weighted covariance is decomposed into
// its principal axes. ok is false if the box carries no weight.
func fitEllipse(g *l2heatmap.Grid[float64], box Box) (e ellipse, ok bool) {
	var sum, sx, sy float64
	for y := box.Min.Y; y <= box.Max.Y; y++ {
		for x := box.Min.X; x <= box.Max.X; x++ {
			w := g.At(x, y)
			if w <= 0 {
				continue
			}
			sum += w
			sx += w * float64(x)
			sy += w * float64(y)
		}
	}
	if sum <= 0 {
		return ellipse{}, false
	}

	mx, my := sx/sum, sy/sum

	// Covariance = [cxx cxy]
	//              [cxy cyy]
	var cxx, cxy, cyy float64
	for y := box.Min.Y; y <= box.Max.Y; y++ {
		for x := box.Min.X; x <= box.Max.X; x++ {
			w := g.At(x, y)
			if w <= 0 {
				continue
			}
			dx := float64(x) - mx
			dy := float64(y) - my
			cxx += w * dx * dx
			cxy += w * dx * dy
			cyy += w * dy * dy
		}
	}
	cxx /= sum
	cxy /= sum
	cyy /= sum

	var eig mat.EigenSym
	if !eig.Factorize(mat.NewSymDense(2, []float64{cxx, cxy, cxy, cyy}), true) {
		return ellipse{}, false
	}

	// Eigenvalues are in ascending order: minor axis first.
	values := eig.Values(nil)
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	return ellipse{
		mean: touch.Vec2{X: mx, Y: my},
		size: touch.Vec2{
			X: ellipseScale * math.Sqrt(math.Max(values[0], 0)),
			Y: ellipseScale * math.Sqrt(math.Max(values[1], 0)),
		},
		orientation: axisAngle(vectors.At(0, 1), vectors.At(1, 1)),
	}, true
}

// axisAngle returns the angle of the axis (x, y) in [0, pi).
func axisAngle(x, y float64) float64 {
	a := math.Atan2(y, x)
	if a < 0 {
		a += math.Pi
	}
	if a >= math.Pi {
		a -= math.Pi
	}
	return a
}
