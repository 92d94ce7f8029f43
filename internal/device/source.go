// Package device reads raw reports from touch digitizers and from
// recordings of them.
//
// Every producer implements Source. Reports are returned as raw buffers in
// the wire format decoded by l1reports; this package never interprets them
// beyond the framing of its transport.
package device

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// MaxReportSize bounds the size of a single report. Larger frames are
// treated as corruption of the transport.
const MaxReportSize = 1 << 20

var (
	// ErrReportTooLarge is returned when a frame header announces more than
	// MaxReportSize bytes.
	ErrReportTooLarge = errors.New("device: report too large")

	// ErrClosed is returned by reads on a closed source.
	ErrClosed = errors.New("device: source closed")

	// ErrUnknownKind is returned by ParseKind and Open.
	ErrUnknownKind = errors.New("device: unknown source kind")
)

// Source produces raw device reports.
//
// ReadReport blocks until a report is available. The returned buffer is
// only valid until the next call. At the end of a finite recording it
// returns io.EOF. Close unblocks a pending ReadReport.
type Source interface {
	ReadReport(ctx context.Context) ([]byte, error)
	Close() error
}

// Kind names a type of source on the command line and in configuration.
type Kind string

const (
	KindHidraw    Kind = "hidraw"
	KindSerial    Kind = "serial"
	KindDump      Kind = "dump"
	KindPcap      Kind = "pcap"
	KindSynthetic Kind = "synthetic"
)

// ParseKind parses a source kind, case-insensitively.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case KindHidraw, KindSerial, KindDump, KindPcap, KindSynthetic:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Options carries the parameters of every source kind. Only the fields
// relevant to the selected kind are used.
type Options struct {
	Kind Kind
	Path string

	Serial PortOptions
	Pcap   PcapFilter

	// Synthetic source geometry and pacing.
	Rows     int
	Columns  int
	Interval time.Duration
}

// Open opens the source described by opts.
func Open(opts Options) (Source, error) {
	var (
		src Source
		err error
	)
	switch opts.Kind {
	case KindHidraw:
		src, err = asSource(OpenHidraw(opts.Path))
	case KindSerial:
		src, err = asSource(OpenSerial(opts.Path, opts.Serial))
	case KindDump:
		src, err = asSource(OpenDump(opts.Path))
	case KindPcap:
		src, err = asSource(OpenPcap(opts.Path, opts.Pcap))
	case KindSynthetic:
		synthetic := NewSyntheticSource(opts.Rows, opts.Columns)
		synthetic.Interval = opts.Interval
		src = synthetic
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownKind, opts.Kind)
	}
	if err != nil {
		return nil, err
	}
	return src, nil
}

// asSource keeps typed nil pointers out of the returned interface.
func asSource[S Source](s S, err error) (Source, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}
