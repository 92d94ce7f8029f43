package l6stability

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfig is returned for configurations that cannot be used.
var ErrInvalidConfig = errors.New("invalid stability configuration")

// Band is a hysteresis band. A change below Lower is treated as noise, a
// change above Upper as instability; anything in between is genuine motion.
type Band struct {
	Lower float64 `json:"lower" yaml:"lower"`
	Upper float64 `json:"upper" yaml:"upper"`
}

// Validate checks that the band is ordered and finite enough to compare.
func (b Band) Validate() error {
	if math.IsNaN(b.Lower) || math.IsNaN(b.Upper) {
		return fmt.Errorf("%w: band bounds must not be NaN", ErrInvalidConfig)
	}
	if b.Lower > b.Upper {
		return fmt.Errorf("%w: band lower %g exceeds upper %g", ErrInvalidConfig, b.Lower, b.Upper)
	}
	return nil
}

// Contains reports whether lower <= v <= upper.
func (b Band) Contains(v float64) bool {
	return v >= b.Lower && v <= b.Upper
}

// StabilizerConfig configures a Stabilizer. A nil threshold disables the
// corresponding hysteresis check.
type StabilizerConfig struct {
	// TemporalWindow is the number of preceding frames a contact must appear
	// in to be considered temporally stable. At least one frame is kept.
	TemporalWindow int

	// CheckTemporalStability enables the temporal check. It has no effect
	// with a window below 2.
	CheckTemporalStability bool

	SizeThreshold        *Band
	PositionThreshold    *Band
	OrientationThreshold *Band
}

// HistoryLength returns the number of frames the stabilizer retains.
func (c StabilizerConfig) HistoryLength() int {
	return max(c.TemporalWindow, 1)
}

// Validate rejects negative windows and malformed bands.
func (c StabilizerConfig) Validate() error {
	if c.TemporalWindow < 0 {
		return fmt.Errorf("%w: temporal window must not be negative, got %d", ErrInvalidConfig, c.TemporalWindow)
	}

	bands := []struct {
		name string
		band *Band
	}{
		{"size", c.SizeThreshold},
		{"position", c.PositionThreshold},
		{"orientation", c.OrientationThreshold},
	}
	for _, b := range bands {
		if b.band == nil {
			continue
		}
		if err := b.band.Validate(); err != nil {
			return fmt.Errorf("%s threshold: %w", b.name, err)
		}
	}
	return nil
}

// ValidatorConfig configures a Validator. A nil limit disables the check.
type ValidatorConfig struct {
	// TrackValidity keeps a contact invalid for as long as it stays tracked
	// once it has been rejected.
	TrackValidity bool

	// AspectLimits bounds the ratio of the major to the minor axis.
	AspectLimits *Band

	// SizeLimits bounds the length of the major axis.
	SizeLimits *Band
}

// Validate rejects malformed limits.
func (c ValidatorConfig) Validate() error {
	if c.AspectLimits != nil {
		if err := c.AspectLimits.Validate(); err != nil {
			return fmt.Errorf("aspect limits: %w", err)
		}
	}
	if c.SizeLimits != nil {
		if err := c.SizeLimits.Validate(); err != nil {
			return fmt.Errorf("size limits: %w", err)
		}
	}
	return nil
}
