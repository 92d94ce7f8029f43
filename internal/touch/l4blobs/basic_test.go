package l4blobs

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/touchd/internal/touch"
	"github.com/banshee-data/touchd/internal/touch/l2heatmap"
)

func testConfig() Config {
	return Config{
		NeutralAlgorithm:      l2heatmap.NeutralConstant,
		NeutralBackoff:        1,
		ActivationThreshold:   0.1,
		DeactivationThreshold: 0.05,
	}
}

func newDetector(t *testing.T, cfg Config, rows, cols int) *BasicDetector {
	t.Helper()
	d, err := NewBasicDetector(cfg)
	require.NoError(t, err)
	d.Buffer().Resize(rows, cols)
	return d
}

// paint adds an elliptical gaussian blob with peak 1, standard deviations
// su along the axis at angle and sv across it.
func paint(g *l2heatmap.Grid[float64], cx, cy, su, sv, angle float64) {
	cos, sin := math.Cos(angle), math.Sin(angle)
	for y := 0; y < g.Rows(); y++ {
		for x := 0; x < g.Cols(); x++ {
			dx, dy := float64(x)-cx, float64(y)-cy
			u := dx*cos + dy*sin
			v := -dx*sin + dy*cos
			g.Set(x, y, g.At(x, y)+math.Exp(-(u*u/(2*su*su)+v*v/(2*sv*sv))))
		}
	}
}

// axisDistance is the distance between two axis angles in radians.
func axisDistance(a, b float64) float64 {
	d := math.Abs(a - b)
	return math.Min(d, math.Pi-d)
}

func TestBasicDetectorSingleBlob(t *testing.T) {
	d := newDetector(t, testConfig(), 20, 28)
	paint(d.Buffer(), 12, 9, 2, 2, 0)

	frame := d.Search()
	require.Len(t, frame, 1)

	c := frame[0]
	assert.InDelta(t, 12, c.Mean.X, 0.05)
	assert.InDelta(t, 9, c.Mean.Y, 0.05)
	assert.Nil(t, c.Index)
	assert.False(t, c.Stable)
	assert.False(t, c.Normalized)
	assert.Greater(t, c.Size.X, 0.0)
	assert.LessOrEqual(t, c.Size.X, c.Size.Y, "size is ordered minor, major")
	assert.Less(t, c.Size.Y/c.Size.X, 1.1, "round blob")
}

func TestBasicDetectorSeparateBlobs(t *testing.T) {
	d := newDetector(t, testConfig(), 24, 40)
	paint(d.Buffer(), 8, 8, 1.5, 1.5, 0)
	paint(d.Buffer(), 30, 16, 1.5, 1.5, 0)

	frame := d.Search()
	require.Len(t, frame, 2)

	centres := []touch.Vec2{{X: 8, Y: 8}, {X: 30, Y: 16}}
	for _, want := range centres {
		found := false
		for _, c := range frame {
			if c.Mean.Sub(want).Norm() < 0.1 {
				found = true
			}
		}
		assert.True(t, found, "no contact near %v in %+v", want, frame)
	}
}

func TestBasicDetectorOrientation(t *testing.T) {
	tests := []struct {
		name  string
		angle float64
	}{
		{"horizontal", 0},
		{"diagonal", math.Pi / 4},
		{"vertical", math.Pi / 2},
		{"anti-diagonal", 3 * math.Pi / 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDetector(t, testConfig(), 32, 32)
			paint(d.Buffer(), 16, 16, 3, 1.2, tt.angle)

			frame := d.Search()
			require.Len(t, frame, 1)
			c := frame[0]

			assert.Less(t, axisDistance(c.Orientation, tt.angle), 0.1,
				"orientation %f, want %f", c.Orientation, tt.angle)
			assert.GreaterOrEqual(t, c.Orientation, 0.0)
			assert.Less(t, c.Orientation, math.Pi)
			assert.Greater(t, c.Size.Y/c.Size.X, 1.5)
		})
	}
}

func TestBasicDetectorNormalize(t *testing.T) {
	cfg := testConfig()
	cfg.Normalize = true
	d := newDetector(t, cfg, 21, 41)
	paint(d.Buffer(), 10, 10, 3, 1.2, math.Pi/2)

	frame := d.Search()
	require.Len(t, frame, 1)
	c := frame[0]

	assert.True(t, c.Normalized)
	assert.InDelta(t, 10.0/40, c.Mean.X, 0.01)
	assert.InDelta(t, 10.0/20, c.Mean.Y, 0.01)
	assert.InDelta(t, 0.5, c.Orientation, 0.05)
	assert.Less(t, c.Size.Y, 1.0)
}

func TestBasicDetectorNothingToFind(t *testing.T) {
	d := newDetector(t, testConfig(), 10, 10)
	assert.Empty(t, d.Search())

	d.Buffer().Fill(0.04)
	assert.Empty(t, d.Search())

	d.Buffer().Resize(0, 0)
	assert.Empty(t, d.Search())
}

func TestBasicDetectorRejectsTinyClusters(t *testing.T) {
	d := newDetector(t, testConfig(), 12, 12)
	// A single warm sample spans a 3x3 box after extension, too small for a
	// new contact, although its blurred peak is above the activation
	// threshold.
	d.Buffer().Set(6, 6, 0.38)

	assert.Empty(t, d.Search())
}

func TestBasicDetectorNeutralBackoff(t *testing.T) {
	cfg := testConfig()
	cfg.NeutralAlgorithm = l2heatmap.NeutralAverage
	cfg.NeutralBackoff = 3
	d := newDetector(t, cfg, 4, 4)

	d.Buffer().Fill(0.2)
	d.Search()
	assert.InDelta(t, 0.2, d.NeutralValue(), 1e-12)

	d.Buffer().Fill(0.5)
	d.Search()
	d.Search()
	assert.InDelta(t, 0.2, d.NeutralValue(), 1e-12, "cached for the backoff period")

	d.Search()
	assert.InDelta(t, 0.5, d.NeutralValue(), 1e-12)
}

func TestBasicDetectorNeutralSubtraction(t *testing.T) {
	cfg := testConfig()
	cfg.NeutralAlgorithm = l2heatmap.NeutralMode
	d := newDetector(t, cfg, 40, 40)

	// A raised floor is removed by the neutral value.
	d.Buffer().Fill(0.3)
	paint(d.Buffer(), 12, 12, 1.5, 1.5, 0)

	frame := d.Search()
	require.Len(t, frame, 1)
	assert.InDelta(t, 12, frame[0].Mean.X, 0.05)
	assert.InDelta(t, 0.3, d.NeutralValue(), 1e-9)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.DeactivationThreshold = cfg.ActivationThreshold + 1
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = DefaultConfig()
	cfg.NeutralAlgorithm = l2heatmap.NeutralAlgorithm(9)
	err := cfg.Validate()
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.ErrorIs(t, err, l2heatmap.ErrInvalidNeutralMode)

	_, err = NewBasicDetector(cfg)
	assert.Error(t, err)
}

func TestDetectorInterface(t *testing.T) {
	var det Detector
	d, err := NewBasicDetector(testConfig())
	require.NoError(t, err)
	det = d

	det.Buffer().Resize(16, 16)
	paint(det.Buffer(), 8, 8, 2, 2, 0)
	assert.Len(t, det.Search(), 1)
}

func TestBasicDetectorHeatmapResize(t *testing.T) {
	d := newDetector(t, testConfig(), 20, 28)
	paint(d.Buffer(), 24, 16, 2, 2, 0)
	require.Len(t, d.Search(), 1)

	// The seed of the last cycle lies outside the smaller heatmap.
	d.Buffer().Resize(8, 8)
	var frame touch.Frame
	require.NotPanics(t, func() { frame = d.Search() })
	assert.Empty(t, frame)

	paint(d.Buffer(), 4, 4, 1.5, 1.5, 0)
	require.NotPanics(t, func() { frame = d.Search() })
	require.Len(t, frame, 1)
	assert.InDelta(t, 4, frame[0].Mean.X, 0.5)
	assert.InDelta(t, 4, frame[0].Mean.Y, 0.5)
}

func TestBasicDetectorResizeRecomputesNeutral(t *testing.T) {
	cfg := testConfig()
	cfg.NeutralAlgorithm = l2heatmap.NeutralAverage
	cfg.NeutralBackoff = 10
	d := newDetector(t, cfg, 4, 4)

	d.Buffer().Fill(0.2)
	d.Search()
	assert.InDelta(t, 0.2, d.NeutralValue(), 1e-12)

	d.Buffer().Resize(6, 6)
	d.Buffer().Fill(0.4)
	d.Search()
	assert.InDelta(t, 0.4, d.NeutralValue(), 1e-12)
}

func TestBasicDetectorReset(t *testing.T) {
	cfg := testConfig()
	cfg.NeutralAlgorithm = l2heatmap.NeutralAverage
	cfg.NeutralBackoff = 10
	d := newDetector(t, cfg, 16, 16)

	paint(d.Buffer(), 8, 8, 2, 2, 0)
	require.Len(t, d.Search(), 1)
	assert.NotEmpty(t, d.lastSeeds)

	d.Reset()
	assert.Empty(t, d.lastSeeds)

	d.Buffer().Fill(0.25)
	d.Search()
	assert.InDelta(t, 0.25, d.NeutralValue(), 1e-12, "recomputed after Reset")
}

func TestBasicDetectorIsResetter(t *testing.T) {
	d, err := NewBasicDetector(testConfig())
	require.NoError(t, err)
	var det Detector = d
	_, ok := det.(Resetter)
	assert.True(t, ok)
}
