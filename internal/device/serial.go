package device

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.bug.st/serial"
)

// Port is the subset of a serial port used by SerialSource.
type Port interface {
	io.Reader
	io.Closer
}

// PortOpener opens a serial port. It is a variable so tests can substitute a
// mock port.
var PortOpener = func(path string, mode *serial.Mode) (Port, error) {
	return serial.Open(path, mode)
}

// SerialSource reads length-prefixed reports from a serial link: every
// report is preceded by its size as a little endian u32.
type SerialSource struct {
	port Port
	r    *bufio.Reader
	buf  []byte

	closeOnce sync.Once
	closeErr  error
}

// OpenSerial opens the port at path with the given options.
func OpenSerial(path string, opts PortOptions) (*SerialSource, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}
	port, err := PortOpener(path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", path, err)
	}
	return NewSerialSource(port), nil
}

// NewSerialSource reads reports from an already open port.
func NewSerialSource(port Port) *SerialSource {
	return &SerialSource{port: port, r: bufio.NewReaderSize(port, 64*1024)}
}

// ReadReport reads the next framed report.
func (s *SerialSource) ReadReport(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var header [4]byte
	if _, err := io.ReadFull(s.r, header[:]); err != nil {
		return nil, s.readError(err)
	}

	size := binary.LittleEndian.Uint32(header[:])
	if size > MaxReportSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrReportTooLarge, size)
	}

	if cap(s.buf) < int(size) {
		s.buf = make([]byte, size)
	}
	s.buf = s.buf[:size]
	if _, err := io.ReadFull(s.r, s.buf); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, s.readError(err)
	}
	return s.buf, nil
}

func (s *SerialSource) readError(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return err
	}
	return fmt.Errorf("serial read: %w", err)
}

// Close closes the port. It is safe to call more than once.
func (s *SerialSource) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.port.Close()
	})
	return s.closeErr
}

// WriteFrame writes report to w with the framing read by SerialSource.
func WriteFrame(w io.Writer, report []byte) error {
	if len(report) > MaxReportSize {
		return fmt.Errorf("%w: %d bytes", ErrReportTooLarge, len(report))
	}
	var header [4]byte
	binary.LittleEndian.PutUint32(header[:], uint32(len(report)))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	_, err := w.Write(report)
	return err
}
