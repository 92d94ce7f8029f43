package l4blobs

import (
	"errors"
	"fmt"

	"github.com/banshee-data/touchd/internal/touch"
	"github.com/banshee-data/touchd/internal/touch/l2heatmap"
)

// ErrInvalidConfig is returned for detector configurations that cannot be
// used.
var ErrInvalidConfig = errors.New("invalid detector configuration")

// Detector turns a heatmap into raw contacts.
//
// Callers write the heatmap of the current cycle into Buffer and then call
// Search. Implementations own both the buffer and the returned frame; the
// frame is only valid until the next call to Search.
type Detector interface {
	// Buffer returns the mutable input heatmap.
	Buffer() *l2heatmap.Grid[float64]

	// Search detects contacts in the current contents of Buffer.
	Search() touch.Frame
}

// Resetter is implemented by detectors that carry state between cycles.
type Resetter interface {
	Reset()
}

// Config holds the parameters of a BasicDetector.
type Config struct {
	// Normalize scales mean and size into [0, 1] and orientation into
	// [0, 1) instead of heatmap pixels and radians.
	Normalize bool

	// NeutralAlgorithm selects how the resting level of the heatmap is
	// estimated. NeutralOffset is added to the result; for NeutralConstant
	// it is the neutral value.
	NeutralAlgorithm l2heatmap.NeutralAlgorithm
	NeutralOffset    float64

	// NeutralBackoff is the number of cycles between neutral value
	// recalculations. Values below 1 recalculate every cycle.
	NeutralBackoff int

	// A maximum above ActivationThreshold starts a cluster, which grows over
	// neighbouring samples above DeactivationThreshold.
	ActivationThreshold   float64
	DeactivationThreshold float64
}

// DefaultConfig returns parameters suitable for heatmaps normalized to
// [0, 1].
func DefaultConfig() Config {
	return Config{
		NeutralAlgorithm:      l2heatmap.NeutralMode,
		NeutralBackoff:        1,
		ActivationThreshold:   0.1,
		DeactivationThreshold: 0.08,
	}
}

// Validate checks the thresholds and the neutral algorithm.
func (c Config) Validate() error {
	if !c.NeutralAlgorithm.Valid() {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, l2heatmap.ErrInvalidNeutralMode)
	}
	if c.DeactivationThreshold > c.ActivationThreshold {
		return fmt.Errorf("%w: deactivation threshold %g exceeds activation threshold %g",
			ErrInvalidConfig, c.DeactivationThreshold, c.ActivationThreshold)
	}
	return nil
}
