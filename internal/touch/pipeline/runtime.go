package pipeline

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/banshee-data/touchd/internal/device"
	"github.com/banshee-data/touchd/internal/monitoring"
	"github.com/banshee-data/touchd/internal/timeutil"
)

// Retry delays after a failed device read.
const (
	DefaultRetryDelay    = 100 * time.Millisecond
	DefaultMaxRetryDelay = 5 * time.Second
)

// Runtime pulls reports from a device source and feeds them to an
// Application.
type Runtime struct {
	Source device.Source
	App    *Application

	// Clock paces retries. Defaults to the real clock.
	Clock timeutil.Clock

	// RetryDelay is the first delay after a failed read; it doubles up to
	// MaxRetryDelay while reads keep failing. A negative RetryDelay makes
	// the first read error fatal.
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration

	// OnHealth, if set, is called whenever the source changes between
	// delivering reports and failing.
	OnHealth func(healthy bool)
}

// Run processes reports until ctx is cancelled, the source is closed or a
// finite source reaches its end. Parse errors are counted and skipped. It
// returns nil on a clean end of input.
//
// Cancelling ctx closes the source so that a read blocked on an idle device
// returns.
func (r *Runtime) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		if err := r.Source.Close(); err != nil {
			monitoring.Logf("closing device source: %v", err)
		}
	})
	defer stop()

	clock := r.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	delay := r.RetryDelay
	if delay == 0 {
		delay = DefaultRetryDelay
	}
	maxDelay := r.MaxRetryDelay
	if maxDelay <= 0 {
		maxDelay = DefaultMaxRetryDelay
	}

	var (
		healthy bool
		known   bool
		backoff = delay
	)
	setHealth := func(h bool) {
		if known && healthy == h {
			return
		}
		known, healthy = true, h
		if r.OnHealth != nil {
			r.OnHealth(h)
		}
	}

	for {
		report, err := r.Source.ReadReport(ctx)
		switch {
		case err == nil:
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, io.EOF), errors.Is(err, device.ErrClosed):
			setHealth(false)
			return nil
		default:
			r.App.Stats().RecordSourceError()
			setHealth(false)
			if delay < 0 {
				return err
			}
			monitoring.Logf("device read failed, retrying in %v: %v", backoff, err)
			select {
			case <-ctx.Done():
				return nil
			case <-clock.After(backoff):
			}
			backoff = min(backoff*2, maxDelay)
			continue
		}

		setHealth(true)
		backoff = delay
		if err := r.App.Process(report); err != nil {
			monitoring.Debugf("%v", err)
		}
	}
}
