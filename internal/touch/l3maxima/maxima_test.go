package l3maxima

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/touchd/internal/touch"
	"github.com/banshee-data/touchd/internal/touch/l2heatmap"
)

// referenceMaxima evaluates the kernel cell by cell with explicit offsets.
func referenceMaxima(g *l2heatmap.Grid[int], threshold int) []touch.Point {
	type rule struct {
		dx, dy int
		strict bool
	}
	rules := []rule{
		{-1, -1, true}, {0, -1, true}, {1, -1, false},
		{-1, 0, true}, {1, 0, false},
		{-1, 1, true}, {0, 1, false}, {1, 1, false},
	}

	var out []touch.Point
	for y := 0; y < g.Rows(); y++ {
		for x := 0; x < g.Cols(); x++ {
			v := g.At(x, y)
			if v <= threshold {
				continue
			}
			ok := true
			for _, r := range rules {
				nx, ny := x+r.dx, y+r.dy
				if nx < 0 || ny < 0 || nx >= g.Cols() || ny >= g.Rows() {
					continue
				}
				n := g.At(nx, ny)
				if (r.strict && n >= v) || (!r.strict && n > v) {
					ok = false
					break
				}
			}
			if ok {
				out = append(out, touch.Point{X: x, Y: y})
			}
		}
	}
	return out
}

func sorted(points []touch.Point) []touch.Point {
	out := append([]touch.Point(nil), points...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		return out[i].X < out[j].X
	})
	return out
}

func TestFindMatchesReference(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for iter := 0; iter < 200; iter++ {
		rows := 1 + rng.Intn(12)
		cols := 1 + rng.Intn(12)
		g := l2heatmap.NewGrid[int](rows, cols)
		for i := range g.Data() {
			// A small value range produces plenty of plateaus.
			g.Data()[i] = rng.Intn(4)
		}
		threshold := rng.Intn(3)

		got := sorted(Find(g, threshold))
		want := sorted(referenceMaxima(g, threshold))
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("iteration %d (%dx%d, threshold %d) mismatch (-want +got):\n%s",
				iter, rows, cols, threshold, diff)
		}
	}
}

func TestFindSinglePeak(t *testing.T) {
	g := l2heatmap.FromRows([][]float64{
		{0, 0, 0, 0},
		{0, 0.2, 0.9, 0},
		{0, 0.1, 0.3, 0},
	})

	assert.Equal(t, []touch.Point{{X: 2, Y: 1}}, Find(g, 0.05))
}

func TestFindPlateauReportsOnce(t *testing.T) {
	tests := []struct {
		name string
		grid [][]int
		want touch.Point
	}{
		{"horizontal pair", [][]int{{0, 5, 5, 0}}, touch.Point{X: 1, Y: 0}},
		{"vertical pair", [][]int{{0}, {5}, {5}, {0}}, touch.Point{X: 0, Y: 1}},
		{"diagonal pair", [][]int{{5, 0}, {0, 5}}, touch.Point{X: 0, Y: 0}},
		{"anti-diagonal pair", [][]int{{0, 5}, {5, 0}}, touch.Point{X: 0, Y: 1}},
		{"block", [][]int{
			{0, 0, 0, 0, 0},
			{0, 7, 7, 7, 0},
			{0, 7, 7, 7, 0},
			{0, 0, 0, 0, 0},
		}, touch.Point{X: 1, Y: 1}},
		{"whole grid", [][]int{{3, 3, 3}, {3, 3, 3}}, touch.Point{X: 0, Y: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Find(l2heatmap.FromRows(tt.grid), 1)
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0])
		})
	}
}

func TestFindThresholdIsStrict(t *testing.T) {
	g := l2heatmap.FromRows([][]int{{5}})

	assert.Equal(t, []touch.Point{{X: 0, Y: 0}}, Find(g, 4))
	assert.Empty(t, Find(g, 5))
}

func TestFindEmptyGrid(t *testing.T) {
	assert.Empty(t, Find(l2heatmap.NewGrid[float32](0, 0), 0))
	assert.Empty(t, Find(l2heatmap.NewGrid[float32](0, 5), 0))
}

func TestFindBelowThresholdEverywhere(t *testing.T) {
	g := l2heatmap.FromRows([][]uint8{{1, 2, 1}, {2, 3, 2}})
	assert.Empty(t, Find(g, 3))
}

func TestFindIntoReusesBuffer(t *testing.T) {
	g := l2heatmap.FromRows([][]int{{9, 0, 9}, {0, 0, 0}, {9, 0, 9}})

	buf := make([]touch.Point, 0, 8)
	got := FindInto(g, 0, buf)
	require.Len(t, got, 4)
	assert.Same(t, &buf[:1][0], &got[0])

	// A second call overwrites rather than appends.
	got = FindInto(g, 0, got)
	assert.Len(t, got, 4)
}

func TestDetectorSearch(t *testing.T) {
	var d Detector[float64]

	first := d.Search(l2heatmap.FromRows([][]float64{{0, 1, 0}}), 0)
	assert.Equal(t, []touch.Point{{X: 1, Y: 0}}, first)

	second := d.Search(l2heatmap.FromRows([][]float64{{1, 0, 0, 2}}), 0)
	assert.ElementsMatch(t, []touch.Point{{X: 0, Y: 0}, {X: 3, Y: 0}}, second)
}

func TestFindNoDuplicates(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	g := l2heatmap.NewGrid[int](16, 16)
	for i := range g.Data() {
		g.Data()[i] = rng.Intn(3)
	}

	seen := map[touch.Point]bool{}
	for _, p := range Find(g, 0) {
		if seen[p] {
			t.Fatalf("point %v reported twice", p)
		}
		seen[p] = true
	}
}
