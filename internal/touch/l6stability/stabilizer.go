package l6stability

import (
	"math"

	"github.com/banshee-data/touchd/internal/touch"
)

// minOrientationAspect is the major/minor ratio below which a contact is
// considered round and its orientation meaningless.
const minOrientationAspect = 1.1

// Stabilizer suppresses jitter in tracked contacts and flags contacts whose
// attributes are not trustworthy.
type Stabilizer struct {
	config  StabilizerConfig
	history *History
}

// NewStabilizer validates config and returns a stabilizer with an empty
// history of config.HistoryLength() frames.
func NewStabilizer(config StabilizerConfig) (*Stabilizer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Stabilizer{
		config:  config,
		history: NewHistory(config.HistoryLength()),
	}, nil
}

// Config returns the configuration the stabilizer was built with.
func (s *Stabilizer) Config() StabilizerConfig {
	return s.config
}

// History exposes the retained frames for inspection.
func (s *Stabilizer) History() *History {
	return s.history
}

// Reset discards all temporal context. Call it whenever contact tracking is
// discontinuous, e.g. after the device re-synced.
func (s *Stabilizer) Reset() {
	s.history.Reset()
}

// Stabilize updates frame in place and commits it to the history. It must be
// called exactly once per sampling cycle.
func (s *Stabilizer) Stabilize(frame touch.Frame) {
	last := s.history.Newest()
	for i := range frame {
		s.stabilizeContact(&frame[i], last)
	}
	s.history.Commit(frame)
}

func (s *Stabilizer) stabilizeContact(c *touch.Contact, last touch.Frame) {
	// Untracked contacts are left alone, including their Stable flag.
	if c.Index == nil {
		return
	}
	index := *c.Index

	if s.config.CheckTemporalStability && s.config.TemporalWindow >= 2 {
		c.Stable = s.temporallyStable(index)
	} else {
		c.Stable = true
	}

	if s.config.TemporalWindow < 2 {
		return
	}

	prior, ok := last.Find(index)
	if !ok {
		return
	}

	if s.config.SizeThreshold != nil {
		stabilizeSize(c, prior, *s.config.SizeThreshold)
	}
	if s.config.PositionThreshold != nil {
		stabilizePosition(c, prior, *s.config.PositionThreshold)
	}
	if s.config.OrientationThreshold != nil {
		stabilizeOrientation(c, prior, *s.config.OrientationThreshold)
	}
}

// temporallyStable reports whether index is present in every retained frame.
func (s *Stabilizer) temporallyStable(index int) bool {
	stable := true
	s.history.Each(func(f touch.Frame) bool {
		stable = f.Contains(index)
		return stable
	})
	return stable
}

func stabilizeSize(c *touch.Contact, prior touch.Contact, band Band) {
	dx := math.Abs(c.Size.X - prior.Size.X)
	dy := math.Abs(c.Size.Y - prior.Size.Y)

	if dx < band.Lower {
		c.Size.X = prior.Size.X
	} else if dx > band.Upper {
		c.Stable = false
	}

	if dy < band.Lower {
		c.Size.Y = prior.Size.Y
	} else if dy > band.Upper {
		c.Stable = false
	}
}

func stabilizePosition(c *touch.Contact, prior touch.Contact, band Band) {
	d := c.Mean.Sub(prior.Mean).Norm()

	if d < band.Lower {
		c.Mean = prior.Mean
	} else if d > band.Upper {
		c.Stable = false
	}
}

func stabilizeOrientation(c *touch.Contact, prior touch.Contact, band Band) {
	aspect := c.Size.Max() / c.Size.Min()
	if aspect < minOrientationAspect {
		c.Orientation = 0
		return
	}

	// Orientation is an axis, so the distance wraps around the modulus.
	d1 := math.Abs(c.Orientation - prior.Orientation)
	d2 := c.OrientationModulus() - d1
	delta := d1
	if d2 < d1 {
		delta = d2
	}

	if delta < band.Lower {
		c.Orientation = prior.Orientation
	} else if delta > band.Upper {
		c.Stable = false
	}
}
