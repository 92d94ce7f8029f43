package l5tracks

import "math"

// forbidden marks a cost matrix entry that must never be selected.
const forbidden = 1e18

// solver solves rectangular assignment problems with the Kuhn-Munkres
// algorithm (Jonker-Volgenant potentials) in O(n^3). Its buffers are kept
// between calls, so a solver must not be shared between goroutines.
type solver struct {
	c    []float64 // padded square matrix, row-major
	u, v []float64 // row and column potentials
	p    []int     // p[j] is the row assigned to column j
	way  []int     // way[j] is the previous column on the augmenting path
	minv []float64
	used []bool
	out  []int
}

// assign returns, for every row of the rows x cols matrix cost, the column
// assigned to it or -1. Entries >= forbidden are never assigned. The result
// is owned by the solver.
func (s *solver) assign(cost []float64, rows, cols int) []int {
	s.out = resize(s.out, rows)
	if rows == 0 {
		return s.out
	}
	if cols == 0 {
		for i := range s.out {
			s.out[i] = -1
		}
		return s.out
	}

	dim := max(rows, cols)
	s.c = resize(s.c, dim*dim)
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			if i < rows && j < cols {
				s.c[i*dim+j] = cost[i*cols+j]
			} else {
				s.c[i*dim+j] = forbidden
			}
		}
	}

	// 1-indexed; column 0 is the virtual start of each augmenting path.
	s.u = zeroed(s.u, dim+1)
	s.v = zeroed(s.v, dim+1)
	s.p = zeroed(s.p, dim+1)
	s.way = zeroed(s.way, dim+1)
	s.minv = resize(s.minv, dim+1)
	s.used = resize(s.used, dim+1)

	const inf = math.MaxFloat64 / 2

	for i := 1; i <= dim; i++ {
		s.p[0] = i
		j0 := 0
		for j := range s.minv {
			s.minv[j] = inf
			s.used[j] = false
		}

		for {
			s.used[j0] = true
			i0 := s.p[j0]
			delta := inf
			j1 := -1

			for j := 1; j <= dim; j++ {
				if s.used[j] {
					continue
				}
				cur := s.c[(i0-1)*dim+j-1] - s.u[i0] - s.v[j]
				if cur < s.minv[j] {
					s.minv[j] = cur
					s.way[j] = j0
				}
				if s.minv[j] < delta {
					delta = s.minv[j]
					j1 = j
				}
			}
			if j1 < 0 {
				break
			}

			for j := 0; j <= dim; j++ {
				if s.used[j] {
					s.u[s.p[j]] += delta
					s.v[j] -= delta
				} else {
					s.minv[j] -= delta
				}
			}

			j0 = j1
			if s.p[j0] == 0 {
				break
			}
		}

		for j0 != 0 {
			s.p[j0] = s.p[s.way[j0]]
			j0 = s.way[j0]
		}
	}

	for i := range s.out {
		s.out[i] = -1
	}
	for j := 1; j <= dim; j++ {
		row, col := s.p[j]-1, j-1
		if row < 0 || row >= rows || col >= cols {
			continue
		}
		if cost[row*cols+col] >= forbidden {
			continue
		}
		s.out[row] = col
	}
	return s.out
}

func resize[T any](s []T, n int) []T {
	if cap(s) < n {
		return make([]T, n)
	}
	return s[:n]
}

func zeroed[T any](s []T, n int) []T {
	s = resize(s, n)
	clear(s)
	return s
}
