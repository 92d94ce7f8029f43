package device

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// DumpVersion is the format version written by DumpWriter.
const DumpVersion = 1

var dumpMagic = [4]byte{'T', 'D', 'M', 'P'}

// ErrBadDump is returned when a dump file has an unknown magic or version.
var ErrBadDump = errors.New("device: not a touch dump")

// DumpWriter records raw reports. The file starts with the magic "TDMP"
// and a u32 version, followed by u32 length prefixed reports.
type DumpWriter struct {
	w     *bufio.Writer
	c     io.Closer
	count int
}

// CreateDump creates (or truncates) a dump file at path.
func CreateDump(path string) (*DumpWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create dump %s: %w", path, err)
	}
	d, err := NewDumpWriter(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	d.c = f
	return d, nil
}

// NewDumpWriter writes the dump header to w.
func NewDumpWriter(w io.Writer) (*DumpWriter, error) {
	bw := bufio.NewWriter(w)
	var header [8]byte
	copy(header[:4], dumpMagic[:])
	binary.LittleEndian.PutUint32(header[4:], DumpVersion)
	if _, err := bw.Write(header[:]); err != nil {
		return nil, fmt.Errorf("write dump header: %w", err)
	}
	return &DumpWriter{w: bw}, nil
}

// Write appends one report.
func (d *DumpWriter) Write(report []byte) error {
	if err := WriteFrame(d.w, report); err != nil {
		return err
	}
	d.count++
	return nil
}

// Count returns the number of reports written.
func (d *DumpWriter) Count() int { return d.count }

// Close flushes buffered reports and closes the underlying file, if any.
func (d *DumpWriter) Close() error {
	err := d.w.Flush()
	if d.c != nil {
		if cerr := d.c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// DumpSource replays a dump. It returns io.EOF after the last report.
type DumpSource struct {
	r   *bufio.Reader
	c   io.Closer
	buf []byte

	mu     sync.Mutex
	closed bool
}

// OpenDump opens a dump file for replay.
func OpenDump(path string) (*DumpSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dump %s: %w", path, err)
	}
	d, err := NewDumpSource(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	d.c = f
	return d, nil
}

// NewDumpSource reads and checks the dump header from r.
func NewDumpSource(r io.Reader) (*DumpSource, error) {
	br := bufio.NewReader(r)
	var header [8]byte
	if _, err := io.ReadFull(br, header[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadDump, err)
	}
	if !bytes.Equal(header[:4], dumpMagic[:]) {
		return nil, fmt.Errorf("%w: magic %q", ErrBadDump, header[:4])
	}
	if v := binary.LittleEndian.Uint32(header[4:]); v != DumpVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadDump, v)
	}
	return &DumpSource{r: br}, nil
}

// ReadReport returns the next recorded report.
func (d *DumpSource) ReadReport(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	var header [4]byte
	if _, err := io.ReadFull(d.r, header[:]); err != nil {
		return nil, err
	}
	size := binary.LittleEndian.Uint32(header[:])
	if size > MaxReportSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrReportTooLarge, size)
	}
	if cap(d.buf) < int(size) {
		d.buf = make([]byte, size)
	}
	d.buf = d.buf[:size]
	if _, err := io.ReadFull(d.r, d.buf); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return d.buf, nil
}

// Close closes the dump.
func (d *DumpSource) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	if d.c != nil {
		return d.c.Close()
	}
	return nil
}

// TeeSource records every report read from Source into Dump. Close may be
// called concurrently with ReadReport and more than once.
type TeeSource struct {
	Source Source
	Dump   *DumpWriter

	mu     sync.Mutex
	closed bool
}

func (t *TeeSource) ReadReport(ctx context.Context) ([]byte, error) {
	report, err := t.Source.ReadReport(ctx)
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, ErrClosed
	}
	if err := t.Dump.Write(report); err != nil {
		return nil, fmt.Errorf("record report: %w", err)
	}
	return report, nil
}

// Close closes the source and flushes the dump.
func (t *TeeSource) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	return errors.Join(t.Source.Close(), t.Dump.Close())
}
