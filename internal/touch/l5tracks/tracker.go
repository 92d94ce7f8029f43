package l5tracks

import (
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/touchd/internal/touch"
)

// ErrInvalidConfig is returned for tracker configurations that cannot be
// used.
var ErrInvalidConfig = errors.New("invalid tracker configuration")

// Config holds the tracker parameters.
type Config struct {
	// MaxDistance is the largest centroid movement between two cycles that
	// still counts as the same contact, in the units of Contact.Mean.
	// Zero disables gating.
	MaxDistance float64
}

// Validate rejects negative or NaN distances.
func (c Config) Validate() error {
	if math.IsNaN(c.MaxDistance) || c.MaxDistance < 0 {
		return fmt.Errorf("%w: max distance must be >= 0, got %g", ErrInvalidConfig, c.MaxDistance)
	}
	return nil
}

// Tracker assigns persistent indices to contacts. It is not safe for
// concurrent use.
type Tracker struct {
	config Config
	last   touch.Frame

	solver solver
	cost   []float64
	taken  []bool
}

// NewTracker validates config and returns a tracker.
func NewTracker(config Config) (*Tracker, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Tracker{config: config}, nil
}

// Reset forgets every index; the next frame is numbered from zero.
func (t *Tracker) Reset() {
	t.last = t.last[:0]
}

// Track sets Index on every contact of frame. Contacts matched to a
// contact of the previous frame inherit its index, the others receive the
// lowest index not in use in this frame.
func (t *Tracker) Track(frame touch.Frame) {
	n, m := len(frame), len(t.last)

	// Indices stay small since a fresh index is always the lowest free one.
	t.taken = zeroed(t.taken, n+m+1)

	if n > 0 && m > 0 {
		gate := t.config.MaxDistance * t.config.MaxDistance
		t.cost = resize(t.cost, n*m)
		for i := range frame {
			for j := range t.last {
				d := frame[i].Mean.Sub(t.last[j].Mean)
				cost := d.X*d.X + d.Y*d.Y
				if t.last[j].Index == nil || (gate > 0 && cost > gate) {
					cost = forbidden
				}
				t.cost[i*m+j] = cost
			}
		}

		assignment := t.solver.assign(t.cost, n, m)
		for i, j := range assignment {
			if j < 0 {
				frame[i].Index = nil
				continue
			}
			index := *t.last[j].Index
			frame[i].Index = touch.IndexOf(index)
			t.take(index)
		}
	} else {
		for i := range frame {
			frame[i].Index = nil
		}
	}

	next := 0
	for i := range frame {
		if frame[i].Index != nil {
			continue
		}
		for next < len(t.taken) && t.taken[next] {
			next++
		}
		frame[i].Index = touch.IndexOf(next)
		t.take(next)
	}

	t.last = frame.CopyInto(t.last)
}

func (t *Tracker) take(index int) {
	if index >= len(t.taken) {
		grown := make([]bool, index+1)
		copy(grown, t.taken)
		t.taken = grown
	}
	t.taken[index] = true
}
