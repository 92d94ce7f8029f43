package pipeline

import (
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/touchd/internal/monitoring"
	"github.com/banshee-data/touchd/internal/timeutil"
	"github.com/banshee-data/touchd/internal/touch"
	"github.com/banshee-data/touchd/internal/touch/l1reports"
	"github.com/banshee-data/touchd/internal/touch/l2heatmap"
)

// ErrParse wraps report decoding failures returned by Process.
var ErrParse = errors.New("report decoding failed")

// Config holds the options of an Application.
type Config struct {
	Finder FinderConfig

	// InvertX and InvertY mirror the contact coordinates. They are combined
	// with the inversion announced by the device metadata: a panel that is
	// already mirrored by its firmware is mirrored back.
	InvertX bool
	InvertY bool

	// HeaderSize is the size of the leading report header skipped before
	// the HID frame. Zero selects l1reports.HIDReportHeaderSize.
	HeaderSize int
}

// Application decodes device reports and runs the Finder for every touch
// sample. It is not safe for concurrent use.
type Application struct {
	config Config
	finder *Finder
	parser l1reports.Parser
	sinks  []Sink

	clock timeutil.Clock
	stats *monitoring.Stats

	metadata    *l1reports.Metadata
	seq         uint64
	sinkErr     error
	stylusSinks []StylusSink
}

// Option customises an Application.
type Option func(*Application)

// WithClock sets the clock used to timestamp cycles.
func WithClock(c timeutil.Clock) Option {
	return func(a *Application) { a.clock = c }
}

// WithStats sets the counters updated by every cycle.
func WithStats(s *monitoring.Stats) Option {
	return func(a *Application) { a.stats = s }
}

// WithSinks appends sinks receiving every processed frame.
func WithSinks(sinks ...Sink) Option {
	return func(a *Application) {
		for _, s := range sinks {
			a.AddSink(s)
		}
	}
}

// WithFinder replaces the Finder built from the configuration.
func WithFinder(f *Finder) Option {
	return func(a *Application) { a.finder = f }
}

// NewApplication builds an Application and its Finder.
func NewApplication(config Config, opts ...Option) (*Application, error) {
	a := &Application{
		config: config,
		clock:  timeutil.RealClock{},
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.finder == nil {
		finder, err := NewFinder(config.Finder)
		if err != nil {
			return nil, err
		}
		a.finder = finder
	}
	if a.stats == nil {
		a.stats = &monitoring.Stats{}
	}

	a.parser.OnTouch = a.onTouch
	a.parser.OnStylus = a.onStylus
	a.parser.OnMetadata = a.onMetadata
	return a, nil
}

// AddSink registers a sink. Sinks are called in registration order.
func (a *Application) AddSink(s Sink) {
	if s == nil {
		return
	}
	a.sinks = append(a.sinks, s)
	if ss, ok := s.(StylusSink); ok {
		a.stylusSinks = append(a.stylusSinks, ss)
	}
}

// Stats returns the counters of the application.
func (a *Application) Stats() *monitoring.Stats {
	return a.stats
}

// Finder returns the finder driven by the application.
func (a *Application) Finder() *Finder {
	return a.finder
}

// Metadata returns the last metadata announced by the device.
func (a *Application) Metadata() (l1reports.Metadata, bool) {
	if a.metadata == nil {
		return l1reports.Metadata{}, false
	}
	return *a.metadata, true
}

// Process decodes one device report and runs a cycle for every touch
// sample it contains. A decoding error aborts the report and is returned
// wrapped in ErrParse; samples decoded before the error have already been
// processed. Sink errors are logged and do not abort the cycle.
func (a *Application) Process(report []byte) error {
	a.stats.RecordReport()

	header := a.config.HeaderSize
	if header == 0 {
		header = l1reports.HIDReportHeaderSize
	}
	if err := a.parser.ParseWithHeader(report, header); err != nil {
		a.stats.RecordParseError()
		return fmt.Errorf("%w: %w", ErrParse, err)
	}
	return nil
}

// Reset forgets all per-stream state of the finder.
func (a *Application) Reset() {
	a.finder.Reset()
	a.stats.RecordReset()
}

func (a *Application) onTouch(sample l1reports.TouchSample) {
	start := a.clock.Now()

	heatmap := a.finder.Buffer()
	if !l2heatmap.Normalize(sample, heatmap) {
		monitoring.Debugf("skipping empty touch sample %dx%d", sample.Rows, sample.Columns)
		return
	}

	contacts := a.finder.Search()
	a.invert(contacts, heatmap.Rows(), heatmap.Cols())

	a.stats.RecordFrame(len(contacts), contacts.StableCount(), a.clock.Since(start), start)
	a.seq++

	out := Output{
		Seq:      a.seq,
		Time:     start,
		Contacts: contacts,
		Heatmap:  heatmap,
		Metadata: a.metadata,
	}
	for _, s := range a.sinks {
		if err := s.Consume(out); err != nil {
			a.logSinkError(err)
		}
	}
}

func (a *Application) onStylus(sample l1reports.StylusSample) {
	invertX, invertY := a.inversion()
	if invertX {
		sample.X = 1 - sample.X
	}
	if invertY {
		sample.Y = 1 - sample.Y
	}
	for _, s := range a.stylusSinks {
		if err := s.ConsumeStylus(sample); err != nil {
			a.logSinkError(err)
		}
	}
}

// onMetadata stores the metadata and resets the finder when the panel
// geometry changed, as happens when a device is swapped or reinitialised.
func (a *Application) onMetadata(m l1reports.Metadata) {
	if a.metadata != nil && (a.metadata.Rows != m.Rows || a.metadata.Columns != m.Columns) {
		monitoring.Logf("device geometry changed from %dx%d to %dx%d, resetting",
			a.metadata.Rows, a.metadata.Columns, m.Rows, m.Columns)
		a.Reset()
	}
	a.metadata = &m
}

// logSinkError logs a sink failure once until a different error occurs.
func (a *Application) logSinkError(err error) {
	if a.sinkErr != nil && a.sinkErr.Error() == err.Error() {
		return
	}
	a.sinkErr = err
	monitoring.Logf("sink error: %v", err)
}

func (a *Application) inversion() (x, y bool) {
	x, y = a.config.InvertX, a.config.InvertY
	if a.metadata != nil {
		x = x != a.metadata.InvertX
		y = y != a.metadata.InvertY
	}
	return x, y
}

// invert mirrors contacts along the configured axes. Mirroring exactly one
// axis also mirrors the orientation.
func (a *Application) invert(contacts touch.Frame, rows, cols int) {
	invertX, invertY := a.inversion()
	if !invertX && !invertY {
		return
	}

	for i := range contacts {
		c := &contacts[i]
		width, height := float64(cols-1), float64(rows-1)
		if c.Normalized {
			width, height = 1, 1
		}
		if invertX {
			c.Mean.X = width - c.Mean.X
		}
		if invertY {
			c.Mean.Y = height - c.Mean.Y
		}
		if invertX != invertY {
			c.Orientation = mirrorOrientation(c.Orientation, c.OrientationModulus())
		}
	}
}

func mirrorOrientation(o, modulus float64) float64 {
	o = modulus - o
	if o >= modulus || math.Abs(o-modulus) < 1e-12 {
		return 0
	}
	return o
}
