package l1reports

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Reader errors. Callers match them with errors.Is; the returned errors are
// wrapped with the byte counts involved.
var (
	ErrEndOfData   = errors.New("reports: no data left")
	ErrInvalidRead = errors.New("reports: read exceeds available data")
	ErrInvalidSeek = errors.New("reports: seek past end of data")
)

// Reader is a cursor over a byte buffer. Every read is bounds-checked and
// fails instead of truncating.
type Reader struct {
	data  []byte
	index int
}

// NewReader returns a reader positioned at the start of data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Index returns the current position inside the data.
func (r *Reader) Index() int {
	return r.index
}

// Size returns the number of unread bytes.
func (r *Reader) Size() int {
	return len(r.data) - r.index
}

// Seek moves the cursor to index, which may equal the data length.
func (r *Reader) Seek(index int) error {
	if index < 0 || index > len(r.data) {
		return fmt.Errorf("%w: position %d, max %d", ErrInvalidSeek, index, len(r.data))
	}
	r.index = index
	return nil
}

func (r *Reader) check(n int) error {
	if r.Size() == 0 {
		return fmt.Errorf("%w: tried to read %d bytes", ErrEndOfData, n)
	}
	if n < 0 || n > r.Size() {
		return fmt.Errorf("%w: tried to read %d bytes with only %d available", ErrInvalidRead, n, r.Size())
	}
	return nil
}

// Read fills dst with the bytes at the current position.
func (r *Reader) Read(dst []byte) error {
	src, err := r.Subspan(len(dst))
	if err != nil {
		return err
	}
	copy(dst, src)
	return nil
}

// Skip advances the cursor by n bytes.
func (r *Reader) Skip(n int) error {
	if err := r.check(n); err != nil {
		return err
	}
	r.index += n
	return nil
}

// Subspan splits off the next n bytes without copying them.
func (r *Reader) Subspan(n int) ([]byte, error) {
	if err := r.check(n); err != nil {
		return nil, err
	}
	b := r.data[r.index : r.index+n : r.index+n]
	r.index += n
	return b, nil
}

// Sub splits off the next n bytes as a new reader.
func (r *Reader) Sub(n int) (*Reader, error) {
	b, err := r.Subspan(n)
	if err != nil {
		return nil, err
	}
	return NewReader(b), nil
}

// U8 reads one byte.
func (r *Reader) U8() (uint8, error) {
	b, err := r.Subspan(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// U16 reads a little endian uint16.
func (r *Reader) U16() (uint16, error) {
	b, err := r.Subspan(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// U32 reads a little endian uint32.
func (r *Reader) U32() (uint32, error) {
	b, err := r.Subspan(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// F32 reads a little endian IEEE 754 float32.
func (r *Reader) F32() (float32, error) {
	v, err := r.U32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}
