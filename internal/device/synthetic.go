package device

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/banshee-data/touchd/internal/timeutil"
	"github.com/banshee-data/touchd/internal/touch/l1reports"
)

// Synthetic source defaults, sized like a small laptop digitizer.
const (
	DefaultSyntheticRows    = 44
	DefaultSyntheticColumns = 64
)

// SyntheticSource produces heatmap reports of two simulated fingers: one
// resting and one circling the centre of the panel. The first report is a
// metadata frame. It backs dev mode and end-to-end tests.
type SyntheticSource struct {
	// Interval paces reports when positive. Clock defaults to the real
	// clock.
	Interval time.Duration
	Clock    timeutil.Clock

	dim     l1reports.Dimensions
	encoder l1reports.Encoder
	heatmap []byte
	frame   int
	ticker  timeutil.Ticker

	closeOnce sync.Once
	done      chan struct{}
}

// NewSyntheticSource creates a synthetic digitizer. Non-positive or
// oversized dimensions fall back to the defaults.
func NewSyntheticSource(rows, columns int) *SyntheticSource {
	if rows <= 0 || rows > math.MaxUint8 {
		rows = DefaultSyntheticRows
	}
	if columns <= 0 || columns > math.MaxUint8 {
		columns = DefaultSyntheticColumns
	}
	return &SyntheticSource{
		dim: l1reports.Dimensions{
			Rows:    uint8(rows),
			Columns: uint8(columns),
			XMax:    uint8(columns - 1),
			YMax:    uint8(rows - 1),
			ZMax:    math.MaxUint8,
		},
		encoder: l1reports.Encoder{ReportID: 0x40},
		heatmap: make([]byte, rows*columns),
		done:    make(chan struct{}),
	}
}

// Metadata returns the metadata announced by the first report.
func (s *SyntheticSource) Metadata() l1reports.Metadata {
	return l1reports.Metadata{
		Rows:    int(s.dim.Rows),
		Columns: int(s.dim.Columns),
		Width:   float64(s.dim.Columns) * 0.4,
		Height:  float64(s.dim.Rows) * 0.4,
	}
}

// ReadReport returns the next synthetic report.
func (s *SyntheticSource) ReadReport(ctx context.Context) ([]byte, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	s.encoder.Timestamp = uint16(s.frame)
	if s.frame == 0 {
		s.frame++
		return s.encoder.MetadataFrame(s.Metadata()), nil
	}

	s.render(s.frame)
	s.frame++
	return s.encoder.HeatmapReport(s.dim, s.heatmap), nil
}

func (s *SyntheticSource) wait(ctx context.Context) error {
	select {
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if s.Interval <= 0 {
		return nil
	}

	if s.ticker == nil {
		clock := s.Clock
		if clock == nil {
			clock = timeutil.RealClock{}
		}
		s.ticker = clock.NewTicker(s.Interval)
	}
	select {
	case <-s.ticker.C():
		return nil
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// render draws the fingers of frame n as an inverted heatmap.
func (s *SyntheticSource) render(n int) {
	rows, cols := float64(s.dim.Rows), float64(s.dim.Columns)
	phase := float64(n) * 2 * math.Pi / 120

	fingers := [...]struct{ x, y float64 }{
		{cols * 0.25, rows * 0.5},
		{cols*0.6 + cols*0.15*math.Cos(phase), rows*0.5 + rows*0.25*math.Sin(phase)},
	}

	const (
		peak  = 0.6
		floor = 0.02
		sigma = 1.4
	)
	for y := 0; y < int(s.dim.Rows); y++ {
		for x := 0; x < int(s.dim.Columns); x++ {
			v := floor
			for _, f := range fingers {
				dx, dy := float64(x)-f.x, float64(y)-f.y
				v += peak * math.Exp(-(dx*dx+dy*dy)/(2*sigma*sigma))
			}
			v = min(v, 1)
			s.heatmap[y*int(s.dim.Columns)+x] = uint8(math.Round((1 - v) * math.MaxUint8))
		}
	}
}

// Close stops the source and unblocks a pending read.
func (s *SyntheticSource) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.ticker != nil {
			s.ticker.Stop()
		}
	})
	return nil
}
