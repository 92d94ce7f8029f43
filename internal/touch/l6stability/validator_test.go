package l6stability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/touchd/internal/touch"
)

func mustValidator(t *testing.T, cfg ValidatorConfig) *Validator {
	t.Helper()
	v, err := NewValidator(cfg)
	require.NoError(t, err)
	return v
}

func sized(index *int, x, y float64, stable bool) touch.Contact {
	return touch.Contact{Index: index, Size: touch.Vec2{X: x, Y: y}, Stable: stable}
}

func TestValidatorLimits(t *testing.T) {
	v := mustValidator(t, ValidatorConfig{
		SizeLimits:   &Band{Lower: 1, Upper: 10},
		AspectLimits: &Band{Lower: 1, Upper: 3},
	})

	f := touch.Frame{
		sized(touch.IndexOf(0), 2, 4, true),  // ok
		sized(touch.IndexOf(1), 8, 12, true), // major axis too long
		sized(touch.IndexOf(2), 1, 4, true),  // too elongated
		sized(nil, 0.2, 0.5, false),          // untracked contacts are checked too
	}
	v.Validate(f)

	assert.Equal(t, []bool{true, false, false, false}, validity(f))
}

func TestValidatorSkipsUnstableTrackedContacts(t *testing.T) {
	v := mustValidator(t, ValidatorConfig{SizeLimits: &Band{Lower: 1, Upper: 2}})

	f := touch.Frame{sized(touch.IndexOf(0), 5, 5, false)}
	v.Validate(f)

	assert.True(t, f[0].Valid)
}

func TestValidatorTracksValidity(t *testing.T) {
	v := mustValidator(t, ValidatorConfig{
		TrackValidity: true,
		SizeLimits:    &Band{Lower: 1, Upper: 10},
	})

	f := touch.Frame{sized(touch.IndexOf(4), 5, 20, true)}
	v.Validate(f)
	require.False(t, f[0].Valid)

	// The contact shrinks back into range but stays rejected while tracked.
	f = touch.Frame{sized(touch.IndexOf(4), 5, 6, true)}
	v.Validate(f)
	assert.False(t, f[0].Valid)

	// A different identity is judged on its own.
	f = touch.Frame{sized(touch.IndexOf(5), 5, 6, true)}
	v.Validate(f)
	assert.True(t, f[0].Valid)

	v.Reset()
	f = touch.Frame{sized(touch.IndexOf(4), 5, 6, true)}
	v.Validate(f)
	assert.True(t, f[0].Valid)
}

func TestValidatorWithoutTracking(t *testing.T) {
	v := mustValidator(t, ValidatorConfig{SizeLimits: &Band{Lower: 1, Upper: 10}})

	v.Validate(touch.Frame{sized(touch.IndexOf(4), 5, 20, true)})

	f := touch.Frame{sized(touch.IndexOf(4), 5, 6, true)}
	v.Validate(f)
	assert.True(t, f[0].Valid)
}

func TestValidatorConfigValidate(t *testing.T) {
	assert.NoError(t, ValidatorConfig{}.Validate())
	assert.ErrorIs(t, ValidatorConfig{AspectLimits: &Band{Lower: 3, Upper: 1}}.Validate(), ErrInvalidConfig)
	assert.ErrorIs(t, ValidatorConfig{SizeLimits: &Band{Lower: 3, Upper: 1}}.Validate(), ErrInvalidConfig)

	_, err := NewValidator(ValidatorConfig{SizeLimits: &Band{Lower: 3, Upper: 1}})
	assert.Error(t, err)
}

func validity(f touch.Frame) []bool {
	out := make([]bool, len(f))
	for i, c := range f {
		out[i] = c.Valid
	}
	return out
}
