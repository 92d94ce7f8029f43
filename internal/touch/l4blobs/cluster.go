package l4blobs

import (
	"github.com/banshee-data/touchd/internal/touch"
	"github.com/banshee-data/touchd/internal/touch/l2heatmap"
)

// Box is an axis aligned region of the heatmap. Min and Max are inclusive.
type Box struct {
	Min touch.Point
	Max touch.Point
}

// Width returns the number of columns covered by b.
func (b Box) Width() int { return b.Max.X - b.Min.X + 1 }

// Height returns the number of rows covered by b.
func (b Box) Height() int { return b.Max.Y - b.Min.Y + 1 }

// Extend grows b by n samples on every side, clamped to a grid of the
// given extents.
func (b Box) Extend(n, rows, cols int) Box {
	return Box{
		Min: touch.Point{X: max(b.Min.X-n, 0), Y: max(b.Min.Y-n, 0)},
		Max: touch.Point{X: min(b.Max.X+n, cols-1), Y: min(b.Max.Y+n, rows-1)},
	}
}

// Overlaps reports whether a and b share at least one sample.
func (b Box) Overlaps(o Box) bool {
	return b.Min.X <= o.Max.X && o.Min.X <= b.Max.X &&
		b.Min.Y <= o.Max.Y && o.Min.Y <= b.Max.Y
}

// Union returns the smallest box containing b and o.
func (b Box) Union(o Box) Box {
	return Box{
		Min: touch.Point{X: min(b.Min.X, o.Min.X), Y: min(b.Min.Y, o.Min.Y)},
		Max: touch.Point{X: max(b.Max.X, o.Max.X), Y: max(b.Max.Y, o.Max.Y)},
	}
}

// spanner grows clusters by flood fill. Visited samples are tracked with a
// generation stamp so the mark buffer never needs clearing.
type spanner struct {
	marks []uint32
	gen   uint32
	stack []touch.Point
}

// span returns the bounding box of the 8-connected region of samples above
// threshold that contains start. ok is false if start itself is not above
// threshold.
func (s *spanner) span(g *l2heatmap.Grid[float64], start touch.Point, threshold float64) (box Box, ok bool) {
	if !(g.At(start.X, start.Y) > threshold) {
		return Box{}, false
	}

	if len(s.marks) != g.Len() {
		s.marks = make([]uint32, g.Len())
		s.gen = 0
	}
	s.gen++
	if s.gen == 0 {
		clear(s.marks)
		s.gen = 1
	}

	rows, cols := g.Rows(), g.Cols()
	data := g.Data()

	box = Box{Min: start, Max: start}
	s.marks[start.Y*cols+start.X] = s.gen
	s.stack = append(s.stack[:0], start)

	for len(s.stack) > 0 {
		p := s.stack[len(s.stack)-1]
		s.stack = s.stack[:len(s.stack)-1]

		box.Min.X = min(box.Min.X, p.X)
		box.Min.Y = min(box.Min.Y, p.Y)
		box.Max.X = max(box.Max.X, p.X)
		box.Max.Y = max(box.Max.Y, p.Y)

		for dy := -1; dy <= 1; dy++ {
			y := p.Y + dy
			if y < 0 || y >= rows {
				continue
			}
			for dx := -1; dx <= 1; dx++ {
				x := p.X + dx
				if x < 0 || x >= cols {
					continue
				}
				i := y*cols + x
				if s.marks[i] == s.gen || !(data[i] > threshold) {
					continue
				}
				s.marks[i] = s.gen
				s.stack = append(s.stack, touch.Point{X: x, Y: y})
			}
		}
	}
	return box, true
}

// mergeOverlaps replaces overlapping boxes by their union. A union can
// create new overlaps, so the pass repeats until nothing changes or
// maxPasses is reached. tmp is scratch space. Both backing arrays are
// handed back, merged boxes first, so callers can keep reusing them.
func mergeOverlaps(boxes, tmp []Box, maxPasses int) (merged, scratch []Box) {
	for pass := 0; pass < maxPasses; pass++ {
		tmp = tmp[:0]
		changed := false

		for _, b := range boxes {
			absorbed := false
			for i := range tmp {
				if tmp[i].Overlaps(b) {
					tmp[i] = tmp[i].Union(b)
					absorbed = true
					changed = true
					break
				}
			}
			if !absorbed {
				tmp = append(tmp, b)
			}
		}

		boxes, tmp = tmp, boxes
		if !changed {
			break
		}
	}
	return boxes, tmp
}
