package l4blobs

import (
	"math"

	"github.com/banshee-data/touchd/internal/touch"
	"github.com/banshee-data/touchd/internal/touch/l2heatmap"
	"github.com/banshee-data/touchd/internal/touch/l3maxima"
)

const (
	// mergePasses bounds the number of overlap merge passes per cycle.
	mergePasses = 5

	// A new cluster needs at least newClusterSize samples per axis after
	// extension. A cluster seen in the previous cycle survives down to
	// edgeClusterSize, so contacts do not flicker at the size boundary.
	newClusterSize  = 4
	edgeClusterSize = 3
)

// BasicDetector finds contacts by spanning clusters around the local
// maxima of the blurred heatmap and fitting an ellipse to each cluster.
// It is not safe for concurrent use.
type BasicDetector struct {
	config Config

	heatmap *l2heatmap.Grid[float64]
	neutral *l2heatmap.Grid[float64]
	blurred *l2heatmap.Grid[float64]
	kernel  l2heatmap.Kernel3

	maxima  l3maxima.Detector[float64]
	spanner spanner

	// Seeds of the clusters accepted last cycle, on a heatmap of
	// lastRows x lastCols samples.
	lastSeeds []touch.Point
	seeds     []touch.Point
	lastRows  int
	lastCols  int

	clusters []Box
	scratch  []Box

	counter      int
	neutralValue float64

	contacts touch.Frame
}

// NewBasicDetector validates config and returns a detector.
func NewBasicDetector(config Config) (*BasicDetector, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.NeutralBackoff < 1 {
		config.NeutralBackoff = 1
	}
	return &BasicDetector{
		config:  config,
		heatmap: l2heatmap.NewGrid[float64](0, 0),
		neutral: l2heatmap.NewGrid[float64](0, 0),
		blurred: l2heatmap.NewGrid[float64](0, 0),
		kernel:  l2heatmap.DefaultBlurKernel,
	}, nil
}

// Buffer returns the heatmap that the next Search operates on.
func (d *BasicDetector) Buffer() *l2heatmap.Grid[float64] {
	return d.heatmap
}

// Blurred returns the preprocessed heatmap of the last Search.
func (d *BasicDetector) Blurred() *l2heatmap.Grid[float64] {
	return d.blurred
}

// NeutralValue returns the neutral value used by the last Search.
func (d *BasicDetector) NeutralValue() float64 {
	return d.neutralValue
}

// Reset drops the clusters carried over from the last cycle and forces a
// neutral value recalculation on the next Search.
func (d *BasicDetector) Reset() {
	d.lastSeeds = d.lastSeeds[:0]
	d.lastRows, d.lastCols = 0, 0
	d.counter = 0
}

// Search detects contacts in the current buffer.
func (d *BasicDetector) Search() touch.Frame {
	d.contacts = d.contacts[:0]
	d.clusters = d.clusters[:0]
	d.seeds = d.seeds[:0]

	rows, cols := d.heatmap.Rows(), d.heatmap.Cols()
	if rows != d.lastRows || cols != d.lastCols {
		d.Reset()
		d.lastRows, d.lastCols = rows, cols
	}
	if rows == 0 || cols == 0 {
		return d.contacts
	}

	if d.counter == 0 {
		// The algorithm was validated at construction.
		d.neutralValue, _ = l2heatmap.Neutral(d.heatmap, d.config.NeutralAlgorithm, d.config.NeutralOffset)
	}
	d.counter = (d.counter + 1) % d.config.NeutralBackoff

	l2heatmap.SubtractNeutral(d.heatmap, d.neutralValue, d.neutral)
	l2heatmap.Convolve3(d.neutral, d.kernel, d.blurred)

	athresh := d.config.ActivationThreshold
	dthresh := d.config.DeactivationThreshold

	// Clusters from the last cycle that shrank to the edge size are kept.
	for _, p := range d.lastSeeds {
		box, ok := d.spanner.span(d.blurred, p, dthresh)
		if !ok {
			continue
		}
		box = box.Extend(1, rows, cols)
		w, h := box.Width(), box.Height()
		if w < edgeClusterSize || h < edgeClusterSize {
			continue
		}
		if w >= newClusterSize && h >= newClusterSize {
			continue
		}
		d.seeds = append(d.seeds, p)
		d.clusters = append(d.clusters, box)
	}

	for _, p := range d.maxima.Search(d.blurred, athresh) {
		box, ok := d.spanner.span(d.blurred, p, dthresh)
		if !ok {
			continue
		}
		box = box.Extend(1, rows, cols)
		if box.Width() < newClusterSize || box.Height() < newClusterSize {
			continue
		}
		d.seeds = append(d.seeds, p)
		d.clusters = append(d.clusters, box)
	}
	d.lastSeeds, d.seeds = d.seeds, d.lastSeeds

	d.clusters, d.scratch = mergeOverlaps(d.clusters, d.scratch, mergePasses)

	for _, box := range d.clusters {
		e, ok := fitEllipse(d.blurred, box)
		if !ok {
			continue
		}
		d.contacts = append(d.contacts, d.contact(e, rows, cols))
	}
	return d.contacts
}

func (d *BasicDetector) contact(e ellipse, rows, cols int) touch.Contact {
	c := touch.Contact{
		Mean:        e.mean,
		Size:        e.size,
		Orientation: e.orientation,
		Normalized:  d.config.Normalize,
	}
	if !d.config.Normalize {
		return c
	}

	w := float64(max(cols-1, 1))
	h := float64(max(rows-1, 1))
	diagonal := math.Hypot(w, h)

	c.Mean = touch.Vec2{X: c.Mean.X / w, Y: c.Mean.Y / h}
	c.Size = touch.Vec2{X: c.Size.X / diagonal, Y: c.Size.Y / diagonal}
	c.Orientation /= math.Pi
	if c.Orientation >= 1 {
		c.Orientation = 0
	}
	return c
}
