package pipeline

import (
	"fmt"

	"github.com/banshee-data/touchd/internal/touch"
	"github.com/banshee-data/touchd/internal/touch/l2heatmap"
	"github.com/banshee-data/touchd/internal/touch/l4blobs"
	"github.com/banshee-data/touchd/internal/touch/l5tracks"
	"github.com/banshee-data/touchd/internal/touch/l6stability"
)

// FinderConfig bundles the configuration of every stage of a Finder.
type FinderConfig struct {
	Detector   l4blobs.Config
	Tracker    l5tracks.Config
	Stabilizer l6stability.StabilizerConfig
	Validator  l6stability.ValidatorConfig
}

// DefaultFinderConfig returns a configuration that detects, tracks and
// stabilizes normalized contacts.
func DefaultFinderConfig() FinderConfig {
	detector := l4blobs.DefaultConfig()
	detector.Normalize = true
	return FinderConfig{
		Detector: detector,
		Tracker:  l5tracks.Config{MaxDistance: 0.2},
		Stabilizer: l6stability.StabilizerConfig{
			TemporalWindow:         3,
			CheckTemporalStability: true,
			SizeThreshold:          &l6stability.Band{Lower: 0.005, Upper: 0.05},
			PositionThreshold:      &l6stability.Band{Lower: 0.002, Upper: 0.1},
			OrientationThreshold:   &l6stability.Band{Lower: 0.02, Upper: 0.2},
		},
	}
}

// Finder runs detection, tracking, stabilization and validation in that
// order. It is not safe for concurrent use.
type Finder struct {
	detector   l4blobs.Detector
	tracker    *l5tracks.Tracker
	stabilizer *l6stability.Stabilizer
	validator  *l6stability.Validator
}

// NewFinder builds a Finder around a BasicDetector.
func NewFinder(config FinderConfig) (*Finder, error) {
	detector, err := l4blobs.NewBasicDetector(config.Detector)
	if err != nil {
		return nil, fmt.Errorf("detector: %w", err)
	}
	return NewFinderWithDetector(detector, config)
}

// NewFinderWithDetector builds a Finder around any Detector. The detector
// section of config is ignored.
func NewFinderWithDetector(detector l4blobs.Detector, config FinderConfig) (*Finder, error) {
	tracker, err := l5tracks.NewTracker(config.Tracker)
	if err != nil {
		return nil, fmt.Errorf("tracker: %w", err)
	}
	stabilizer, err := l6stability.NewStabilizer(config.Stabilizer)
	if err != nil {
		return nil, fmt.Errorf("stabilizer: %w", err)
	}
	validator, err := l6stability.NewValidator(config.Validator)
	if err != nil {
		return nil, fmt.Errorf("validator: %w", err)
	}
	return &Finder{
		detector:   detector,
		tracker:    tracker,
		stabilizer: stabilizer,
		validator:  validator,
	}, nil
}

// Buffer returns the heatmap buffer to fill before calling Search.
func (f *Finder) Buffer() *l2heatmap.Grid[float64] {
	return f.detector.Buffer()
}

// Detector returns the underlying detector.
func (f *Finder) Detector() l4blobs.Detector {
	return f.detector
}

// Search processes the heatmap in Buffer. The returned frame is owned by
// the Finder and valid until the next call.
func (f *Finder) Search() touch.Frame {
	frame := f.detector.Search()
	f.tracker.Track(frame)
	f.stabilizer.Stabilize(frame)
	f.validator.Validate(frame)
	return frame
}

// Reset forgets all per-stream state, as after a device reconnect.
func (f *Finder) Reset() {
	if r, ok := f.detector.(l4blobs.Resetter); ok {
		r.Reset()
	}
	f.tracker.Reset()
	f.stabilizer.Reset()
	f.validator.Reset()
}
