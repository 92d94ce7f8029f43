package l2heatmap

// Scalar is the set of sample types a Grid can hold.
type Scalar interface {
	~uint8 | ~uint16 | ~int | ~int32 | ~float32 | ~float64
}

// Grid is a dense rows x cols buffer of samples stored in row-major order.
//
// A Grid handed to a search function is borrowed for the duration of the
// call and must not be mutated concurrently.
type Grid[T Scalar] struct {
	rows int
	cols int
	data []T
}

// NewGrid allocates a zeroed grid. Negative extents are treated as zero.
func NewGrid[T Scalar](rows, cols int) *Grid[T] {
	g := &Grid[T]{}
	g.Resize(rows, cols)
	return g
}

// FromRows builds a grid from a slice of equally sized rows. It is mostly
// useful in tests. Rows shorter than the first one are zero padded.
func FromRows[T Scalar](rows [][]T) *Grid[T] {
	if len(rows) == 0 {
		return NewGrid[T](0, 0)
	}
	g := NewGrid[T](len(rows), len(rows[0]))
	for y, row := range rows {
		copy(g.data[y*g.cols:(y+1)*g.cols], row)
	}
	return g
}

// Wrap creates a grid view over an existing row-major buffer without copying.
// It returns false if data is too short for the requested extents.
func Wrap[T Scalar](rows, cols int, data []T) (*Grid[T], bool) {
	if rows < 0 || cols < 0 || len(data) < rows*cols {
		return nil, false
	}
	return &Grid[T]{rows: rows, cols: cols, data: data[:rows*cols]}, true
}

// Rows returns the number of rows.
func (g *Grid[T]) Rows() int { return g.rows }

// Cols returns the number of columns.
func (g *Grid[T]) Cols() int { return g.cols }

// Len returns the number of cells.
func (g *Grid[T]) Len() int { return g.rows * g.cols }

// Empty reports whether the grid has no cells.
func (g *Grid[T]) Empty() bool { return g.rows == 0 || g.cols == 0 }

// At returns the sample at column x, row y. Bounds are not checked beyond
// the slice bounds check.
func (g *Grid[T]) At(x, y int) T {
	return g.data[y*g.cols+x]
}

// Set stores v at column x, row y.
func (g *Grid[T]) Set(x, y int, v T) {
	g.data[y*g.cols+x] = v
}

// Data exposes the underlying row-major buffer.
func (g *Grid[T]) Data() []T {
	return g.data
}

// Resize changes the extents of the grid, reusing the backing buffer when it
// is large enough. Contents are zeroed when the extents change.
func (g *Grid[T]) Resize(rows, cols int) {
	if rows < 0 {
		rows = 0
	}
	if cols < 0 {
		cols = 0
	}
	if rows == g.rows && cols == g.cols && g.data != nil {
		return
	}

	n := rows * cols
	if cap(g.data) >= n {
		g.data = g.data[:n]
		clear(g.data)
	} else {
		g.data = make([]T, n)
	}
	g.rows = rows
	g.cols = cols
}

// Fill sets every cell to v.
func (g *Grid[T]) Fill(v T) {
	for i := range g.data {
		g.data[i] = v
	}
}

// CopyFrom resizes g to the extents of src and copies its samples.
func (g *Grid[T]) CopyFrom(src *Grid[T]) {
	g.Resize(src.rows, src.cols)
	copy(g.data, src.data)
}

// MinMax returns the smallest and largest sample. Both are zero for an
// empty grid.
func (g *Grid[T]) MinMax() (lo, hi T) {
	if len(g.data) == 0 {
		return lo, hi
	}
	lo, hi = g.data[0], g.data[0]
	for _, v := range g.data[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
