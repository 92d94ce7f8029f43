package pipeline

import (
	"time"

	"github.com/banshee-data/touchd/internal/touch"
	"github.com/banshee-data/touchd/internal/touch/l1reports"
	"github.com/banshee-data/touchd/internal/touch/l2heatmap"
)

// Output is the result of one processing cycle.
//
// Contacts and Heatmap are owned by the pipeline and only valid during the
// call to Consume. Sinks that keep them must copy them.
type Output struct {
	Seq      uint64
	Time     time.Time
	Contacts touch.Frame
	Heatmap  *l2heatmap.Grid[float64]

	// Metadata is the last metadata announced by the device, if any.
	Metadata *l1reports.Metadata
}

// Sink consumes processed frames. Consume is called from the processing
// loop and must not block for long.
type Sink interface {
	Consume(out Output) error
}

// StylusSink is implemented by sinks that also want stylus samples.
type StylusSink interface {
	ConsumeStylus(sample l1reports.StylusSample) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Output) error

func (f SinkFunc) Consume(out Output) error { return f(out) }
