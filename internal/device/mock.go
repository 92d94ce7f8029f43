package device

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
)

// MockPort is a serial port with configurable behaviour for testing.
type MockPort struct {
	mu sync.Mutex

	// ReadBuffer holds data to be returned by Read calls
	ReadBuffer *bytes.Buffer

	// ReadError is returned by the next Read call if set
	ReadError error

	// CloseError is returned by Close if set
	CloseError error

	// Closed indicates whether Close was called
	Closed bool

	// ReadCalls records the number of Read calls
	ReadCalls int

	// BlockReads causes Read to block until data is added or Close is called.
	// Without it an empty buffer reads as io.EOF.
	BlockReads bool

	readCond *sync.Cond
}

// NewMockPort creates a MockPort with an empty read buffer.
func NewMockPort() *MockPort {
	m := &MockPort{ReadBuffer: bytes.NewBuffer(nil)}
	m.readCond = sync.NewCond(&m.mu)
	return m
}

// Read reads from the read buffer.
func (m *MockPort) Read(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ReadCalls++
	if m.Closed {
		return 0, errors.New("serial port closed")
	}
	if m.ReadError != nil {
		err := m.ReadError
		m.ReadError = nil
		return 0, err
	}

	if m.BlockReads {
		for !m.Closed && m.ReadBuffer.Len() == 0 {
			m.readCond.Wait()
		}
		if m.Closed {
			return 0, errors.New("serial port closed")
		}
	}
	return m.ReadBuffer.Read(p)
}

// AddReadData appends data to the read buffer and wakes blocked readers.
func (m *MockPort) AddReadData(data []byte) {
	m.mu.Lock()
	m.ReadBuffer.Write(data)
	m.mu.Unlock()
	m.readCond.Broadcast()
}

// AddFrame appends a length-prefixed report.
func (m *MockPort) AddFrame(report []byte) {
	var buf bytes.Buffer
	_ = WriteFrame(&buf, report)
	m.AddReadData(buf.Bytes())
}

// Close marks the port closed and wakes blocked readers.
func (m *MockPort) Close() error {
	m.mu.Lock()
	m.Closed = true
	err := m.CloseError
	m.mu.Unlock()
	m.readCond.Broadcast()
	return err
}

// IsClosed reports whether Close was called.
func (m *MockPort) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Closed
}

// MockSource replays a fixed list of reports, then returns io.EOF. Errors
// in Errors are returned in place of the report at the same position.
type MockSource struct {
	mu      sync.Mutex
	Reports [][]byte
	Errors  map[int]error
	reads   int
	closed  bool
}

// NewMockSource creates a MockSource over reports.
func NewMockSource(reports ...[]byte) *MockSource {
	return &MockSource{Reports: reports, Errors: map[int]error{}}
}

func (m *MockSource) ReadReport(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	i := m.reads
	if i >= len(m.Reports) {
		return nil, io.EOF
	}
	m.reads++
	if err, ok := m.Errors[i]; ok {
		return nil, err
	}
	return m.Reports[i], nil
}

// Reads returns the number of reports handed out.
func (m *MockSource) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

func (m *MockSource) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
