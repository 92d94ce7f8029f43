package l6stability

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/touchd/internal/touch"
)

func tracked(index int, mean, size touch.Vec2, orientation float64) touch.Contact {
	return touch.Contact{
		Index:       touch.IndexOf(index),
		Mean:        mean,
		Size:        size,
		Orientation: orientation,
	}
}

func at(index int) touch.Contact {
	return tracked(index, touch.Vec2{X: 10, Y: 10}, touch.Vec2{X: 2, Y: 4}, 0.5)
}

func mustStabilizer(t *testing.T, cfg StabilizerConfig) *Stabilizer {
	t.Helper()
	s, err := NewStabilizer(cfg)
	require.NoError(t, err)
	return s
}

func TestStabilizerConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     StabilizerConfig
		wantErr bool
	}{
		{"zero value", StabilizerConfig{}, false},
		{"full", StabilizerConfig{
			TemporalWindow:         3,
			CheckTemporalStability: true,
			SizeThreshold:          &Band{Lower: 1, Upper: 5},
			PositionThreshold:      &Band{Lower: 0.2, Upper: 0.2},
			OrientationThreshold:   &Band{Lower: 0.1, Upper: 1},
		}, false},
		{"negative window", StabilizerConfig{TemporalWindow: -1}, true},
		{"inverted size band", StabilizerConfig{SizeThreshold: &Band{Lower: 5, Upper: 1}}, true},
		{"inverted position band", StabilizerConfig{PositionThreshold: &Band{Lower: 2, Upper: 1}}, true},
		{"NaN orientation band", StabilizerConfig{OrientationThreshold: &Band{Lower: math.NaN(), Upper: 1}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
				_, nerr := NewStabilizer(tt.cfg)
				assert.ErrorIs(t, nerr, ErrInvalidConfig)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestHistoryLength(t *testing.T) {
	for window, want := range map[int]int{0: 1, 1: 1, 2: 2, 5: 5} {
		s := mustStabilizer(t, StabilizerConfig{TemporalWindow: window})
		assert.Equal(t, want, s.History().Len(), "window %d", window)
	}
}

func TestTemporalConfirmation(t *testing.T) {
	cfg := StabilizerConfig{TemporalWindow: 3, CheckTemporalStability: true}

	t.Run("present in every retained frame", func(t *testing.T) {
		s := mustStabilizer(t, cfg)
		var stable []bool
		for i := 0; i < 4; i++ {
			f := touch.Frame{at(1)}
			s.Stabilize(f)
			stable = append(stable, f[0].Stable)
		}
		// The first three cycles still see empty history slots.
		assert.Equal(t, []bool{false, false, false, true}, stable)
	})

	t.Run("missing from one retained frame", func(t *testing.T) {
		s := mustStabilizer(t, cfg)
		s.Stabilize(touch.Frame{at(1)})
		s.Stabilize(touch.Frame{at(2)})
		s.Stabilize(touch.Frame{at(1)})

		f := touch.Frame{at(1)}
		s.Stabilize(f)
		assert.False(t, f[0].Stable)

		// Once the gap leaves the window the contact is confirmed again.
		s.Stabilize(touch.Frame{at(1)})
		f = touch.Frame{at(1)}
		s.Stabilize(f)
		assert.True(t, f[0].Stable)
	})
}

func TestTemporalCheckNeedsWindowOfTwo(t *testing.T) {
	for _, window := range []int{0, 1} {
		s := mustStabilizer(t, StabilizerConfig{
			TemporalWindow:         window,
			CheckTemporalStability: true,
			SizeThreshold:          &Band{Lower: 100, Upper: 200},
		})

		s.Stabilize(touch.Frame{tracked(1, touch.Vec2{}, touch.Vec2{X: 1, Y: 1}, 0)})
		f := touch.Frame{tracked(1, touch.Vec2{}, touch.Vec2{X: 5, Y: 5}, 0)}
		s.Stabilize(f)

		assert.True(t, f[0].Stable, "window %d", window)
		// No hysteresis is applied without a second frame of context.
		assert.Equal(t, touch.Vec2{X: 5, Y: 5}, f[0].Size, "window %d", window)
	}
}

func TestSizeHysteresis(t *testing.T) {
	tests := []struct {
		name       string
		current    touch.Vec2
		wantSize   touch.Vec2
		wantStable bool
	}{
		{"below lower snaps to prior", touch.Vec2{X: 10.5, Y: 10.5}, touch.Vec2{X: 10, Y: 10}, true},
		{"above upper is unstable", touch.Vec2{X: 17, Y: 17}, touch.Vec2{X: 17, Y: 17}, false},
		{"within band passes through", touch.Vec2{X: 13, Y: 13}, touch.Vec2{X: 13, Y: 13}, true},
		{"axes are independent", touch.Vec2{X: 10.5, Y: 13}, touch.Vec2{X: 10, Y: 13}, true},
		{"one abrupt axis is enough", touch.Vec2{X: 10.5, Y: 3}, touch.Vec2{X: 10, Y: 3}, false},
		{"upper bound is inclusive", touch.Vec2{X: 15, Y: 15}, touch.Vec2{X: 15, Y: 15}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := mustStabilizer(t, StabilizerConfig{
				TemporalWindow: 2,
				SizeThreshold:  &Band{Lower: 1, Upper: 5},
			})
			s.Stabilize(touch.Frame{tracked(7, touch.Vec2{}, touch.Vec2{X: 10, Y: 10}, 0)})

			f := touch.Frame{tracked(7, touch.Vec2{}, tt.current, 0)}
			s.Stabilize(f)

			assert.Equal(t, tt.wantSize, f[0].Size)
			assert.Equal(t, tt.wantStable, f[0].Stable)
		})
	}
}

func TestPositionHysteresis(t *testing.T) {
	tests := []struct {
		name       string
		current    touch.Vec2
		wantMean   touch.Vec2
		wantStable bool
	}{
		{"below lower snaps to prior", touch.Vec2{X: 0.3, Y: 0.4}, touch.Vec2{}, true},
		{"on upper passes through", touch.Vec2{X: 3, Y: 4}, touch.Vec2{X: 3, Y: 4}, true},
		{"above upper is unstable", touch.Vec2{X: 6, Y: 8}, touch.Vec2{X: 6, Y: 8}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := mustStabilizer(t, StabilizerConfig{
				TemporalWindow:    2,
				PositionThreshold: &Band{Lower: 1, Upper: 5},
			})
			s.Stabilize(touch.Frame{tracked(1, touch.Vec2{}, touch.Vec2{X: 1, Y: 1}, 0)})

			f := touch.Frame{tracked(1, tt.current, touch.Vec2{X: 1, Y: 1}, 0)}
			s.Stabilize(f)

			assert.Equal(t, tt.wantMean, f[0].Mean)
			assert.Equal(t, tt.wantStable, f[0].Stable)
		})
	}
}

func TestOrientationWraparound(t *testing.T) {
	elongated := touch.Vec2{X: 2, Y: 4}

	tests := []struct {
		name       string
		normalized bool
		prior      float64
		current    float64
		band       Band
		wantOrient float64
		wantStable bool
	}{
		// Raw difference is pi-0.1, which would be unstable; the wrapped
		// difference of 0.1 is below the lower bound.
		{"radians snap across zero", false, 0.05, math.Pi - 0.05, Band{Lower: 0.2, Upper: 0.5}, 0.05, true},
		{"radians pass through across zero", false, 0.05, math.Pi - 0.05, Band{Lower: 0.05, Upper: 0.2}, math.Pi - 0.05, true},
		{"radians abrupt change", false, 0.2, 1.4, Band{Lower: 0.05, Upper: 0.2}, 1.4, false},
		{"normalized snap across zero", true, 0.98, 0.01, Band{Lower: 0.05, Upper: 0.1}, 0.98, true},
		{"normalized abrupt change", true, 0.1, 0.5, Band{Lower: 0.05, Upper: 0.1}, 0.5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			band := tt.band
			s := mustStabilizer(t, StabilizerConfig{TemporalWindow: 2, OrientationThreshold: &band})

			prior := tracked(3, touch.Vec2{}, elongated, tt.prior)
			prior.Normalized = tt.normalized
			s.Stabilize(touch.Frame{prior})

			cur := tracked(3, touch.Vec2{}, elongated, tt.current)
			cur.Normalized = tt.normalized
			f := touch.Frame{cur}
			s.Stabilize(f)

			assert.InDelta(t, tt.wantOrient, f[0].Orientation, 1e-12)
			assert.Equal(t, tt.wantStable, f[0].Stable)
		})
	}
}

func TestRoundContactOrientationIsZeroed(t *testing.T) {
	s := mustStabilizer(t, StabilizerConfig{
		TemporalWindow:       2,
		OrientationThreshold: &Band{Lower: 0, Upper: 0},
	})
	s.Stabilize(touch.Frame{tracked(1, touch.Vec2{}, touch.Vec2{X: 3, Y: 3}, 0.1)})

	f := touch.Frame{tracked(1, touch.Vec2{}, touch.Vec2{X: 3, Y: 3.2}, 2.5)}
	s.Stabilize(f)

	assert.Zero(t, f[0].Orientation)
	// The band would have flagged the jump; round contacts skip it.
	assert.True(t, f[0].Stable)
}

func TestNoHysteresisWithoutPriorMatch(t *testing.T) {
	s := mustStabilizer(t, StabilizerConfig{
		TemporalWindow: 2,
		SizeThreshold:  &Band{Lower: 1, Upper: 5},
	})
	s.Stabilize(touch.Frame{tracked(1, touch.Vec2{}, touch.Vec2{X: 10, Y: 10}, 0)})

	f := touch.Frame{tracked(2, touch.Vec2{}, touch.Vec2{X: 10.5, Y: 10.5}, 0)}
	s.Stabilize(f)

	assert.Equal(t, touch.Vec2{X: 10.5, Y: 10.5}, f[0].Size)
	assert.True(t, f[0].Stable)
}

func TestUntrackedContactPassesThrough(t *testing.T) {
	s := mustStabilizer(t, StabilizerConfig{
		TemporalWindow:         3,
		CheckTemporalStability: true,
		SizeThreshold:          &Band{Lower: 1, Upper: 5},
		PositionThreshold:      &Band{Lower: 1, Upper: 5},
		OrientationThreshold:   &Band{Lower: 0.1, Upper: 0.5},
	})

	untracked := []touch.Contact{
		{Mean: touch.Vec2{X: 1, Y: 2}, Size: touch.Vec2{X: 3, Y: 3}, Orientation: 0.7},
		{Mean: touch.Vec2{X: 5, Y: 6}, Size: touch.Vec2{X: 1, Y: 9}, Orientation: 2, Stable: true, Valid: true},
		{Normalized: true, Orientation: 0.99, Size: touch.Vec2{X: 0.1, Y: 0.3}},
	}

	for i := 0; i < 4; i++ {
		f := append(touch.Frame{at(1)}, untracked...)
		s.Stabilize(f)
		if diff := cmp.Diff([]touch.Contact(untracked), []touch.Contact(f[1:])); diff != "" {
			t.Fatalf("cycle %d: untracked contacts modified (-want +got):\n%s", i, diff)
		}
	}
}

// New contacts are expected to start with Stable == false; the stabilizer
// does not default the flag for contacts it cannot judge.
func TestUntrackedStableFlagIsNotDefaulted(t *testing.T) {
	s := mustStabilizer(t, StabilizerConfig{TemporalWindow: 2})

	f := touch.Frame{{Stable: false}, {Stable: true}}
	s.Stabilize(f)

	assert.False(t, f[0].Stable)
	assert.True(t, f[1].Stable)
}

func TestHistoryEviction(t *testing.T) {
	const window = 3
	s := mustStabilizer(t, StabilizerConfig{TemporalWindow: window})

	for i := 1; i <= window; i++ {
		s.Stabilize(touch.Frame{at(i)})
	}
	assert.True(t, s.History().Oldest().Contains(1))
	assert.True(t, s.History().Newest().Contains(window))

	s.Stabilize(touch.Frame{at(window + 1)})
	assert.True(t, s.History().Oldest().Contains(2))
	assert.True(t, s.History().Newest().Contains(window+1))

	var order []int
	s.History().Each(func(f touch.Frame) bool {
		order = append(order, *f[0].Index)
		return true
	})
	assert.Equal(t, []int{4, 3, 2}, order)
}

func TestHistoryStoresCopies(t *testing.T) {
	s := mustStabilizer(t, StabilizerConfig{TemporalWindow: 2})

	f := touch.Frame{at(1)}
	s.Stabilize(f)

	f[0].Mean = touch.Vec2{X: -1, Y: -1}
	*f[0].Index = 99

	stored := s.History().Newest()
	require.Len(t, stored, 1)
	assert.Equal(t, touch.Vec2{X: 10, Y: 10}, stored[0].Mean)
	assert.True(t, stored.Contains(1))
}

func TestResetIsIdempotent(t *testing.T) {
	cfg := StabilizerConfig{TemporalWindow: 2, CheckTemporalStability: true}
	s := mustStabilizer(t, cfg)

	for i := 0; i < 3; i++ {
		s.Stabilize(touch.Frame{at(1)})
	}

	s.Reset()
	once := snapshot(s.History())
	s.Reset()
	twice := snapshot(s.History())

	assert.Equal(t, once, twice)
	assert.Equal(t, 2, s.History().Len())
	for _, n := range twice {
		assert.Zero(t, n)
	}

	f := touch.Frame{at(1)}
	s.Stabilize(f)
	assert.False(t, f[0].Stable, "temporal confirmation must fail right after reset")
}

func snapshot(h *History) []int {
	var sizes []int
	h.Each(func(f touch.Frame) bool {
		sizes = append(sizes, len(f))
		return true
	})
	return sizes
}

func TestNaNFallsThroughComparisons(t *testing.T) {
	s := mustStabilizer(t, StabilizerConfig{
		TemporalWindow: 2,
		SizeThreshold:  &Band{Lower: 1, Upper: 5},
	})
	s.Stabilize(touch.Frame{tracked(1, touch.Vec2{}, touch.Vec2{X: 10, Y: 10}, 0)})

	f := touch.Frame{tracked(1, touch.Vec2{}, touch.Vec2{X: math.NaN(), Y: 10.5}, 0)}
	s.Stabilize(f)

	// Neither snapped nor flagged: every comparison against NaN is false.
	assert.True(t, math.IsNaN(f[0].Size.X))
	assert.Equal(t, 10.0, f[0].Size.Y)
	assert.True(t, f[0].Stable)
}
