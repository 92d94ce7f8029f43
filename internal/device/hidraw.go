package device

import (
	"context"
	"fmt"
	"os"
	"sync"
)

// hidrawBufferSize fits the largest report of the supported digitizers.
const hidrawBufferSize = 64 * 1024

// HidrawSource reads reports from a Linux hidraw character device. Each
// read returns exactly one report.
type HidrawSource struct {
	f   *os.File
	buf []byte

	closeOnce sync.Once
	closeErr  error
}

// OpenHidraw opens the hidraw device at path for reading.
func OpenHidraw(path string) (*HidrawSource, error) {
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open hidraw device %s: %w", path, err)
	}
	return &HidrawSource{f: f, buf: make([]byte, hidrawBufferSize)}, nil
}

// ReadReport reads the next report.
func (h *HidrawSource) ReadReport(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n, err := h.f.Read(h.buf)
	if err != nil {
		return nil, fmt.Errorf("hidraw read: %w", err)
	}
	return h.buf[:n], nil
}

// Close closes the device, unblocking a pending read.
func (h *HidrawSource) Close() error {
	h.closeOnce.Do(func() {
		h.closeErr = h.f.Close()
	})
	return h.closeErr
}
