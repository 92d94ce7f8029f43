package monitor

import (
	"errors"
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/touchd/internal/touch"
	"github.com/banshee-data/touchd/internal/touch/l2heatmap"
)

// ErrNoHeatmap is returned when there is nothing to render.
var ErrNoHeatmap = errors.New("no heatmap available")

// PlotSize is the edge length of rendered heatmap images.
const PlotSize = 6 * vg.Inch

// heatGrid adapts a heatmap to plotter.GridXYZ. Rows are flipped so that
// row 0 is drawn at the top, as on the panel.
type heatGrid struct {
	g *l2heatmap.Grid[float64]
}

func (h heatGrid) Dims() (c, r int)   { return h.g.Cols(), h.g.Rows() }
func (h heatGrid) X(c int) float64    { return float64(c) }
func (h heatGrid) Y(r int) float64    { return float64(r) }
func (h heatGrid) Z(c, r int) float64 { return h.g.At(c, h.g.Rows()-1-r) }

// contactPoints maps contact centres to plot coordinates of grid.
func contactPoints(g *l2heatmap.Grid[float64], frame touch.Frame) (stable, unstable plotter.XYs) {
	for _, c := range frame {
		x, y := gridPosition(g, c)
		p := plotter.XY{X: x, Y: float64(g.Rows()-1) - y}
		if c.Stable {
			stable = append(stable, p)
		} else {
			unstable = append(unstable, p)
		}
	}
	return stable, unstable
}

// gridPosition returns the centre of c in grid cell units.
func gridPosition(g *l2heatmap.Grid[float64], c touch.Contact) (x, y float64) {
	if !c.Normalized {
		return c.Mean.X, c.Mean.Y
	}
	return c.Mean.X * float64(g.Cols()-1), c.Mean.Y * float64(g.Rows()-1)
}

// NewHeatmapPlot builds a plot of the heatmap with the contact centres
// drawn on top: stable contacts as filled circles, the rest as crosses.
func NewHeatmapPlot(g *l2heatmap.Grid[float64], frame touch.Frame, title string) (*plot.Plot, error) {
	if g == nil || g.Empty() {
		return nil, ErrNoHeatmap
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "column"
	p.Y.Label.Text = "row"

	lo, hi := g.MinMax()
	hm := plotter.NewHeatMap(heatGrid{g}, palette.Heat(64, 1))
	hm.Min, hm.Max = lo, hi
	if lo == hi {
		hm.Max = lo + 1
	}
	p.Add(hm)

	stable, unstable := contactPoints(g, frame)
	if len(stable) > 0 {
		s, err := plotter.NewScatter(stable)
		if err != nil {
			return nil, fmt.Errorf("stable contacts: %w", err)
		}
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		s.GlyphStyle.Color = color.RGBA{R: 0, G: 200, B: 255, A: 255}
		s.GlyphStyle.Radius = vg.Points(4)
		p.Add(s)
		p.Legend.Add("stable", s)
	}
	if len(unstable) > 0 {
		s, err := plotter.NewScatter(unstable)
		if err != nil {
			return nil, fmt.Errorf("unstable contacts: %w", err)
		}
		s.GlyphStyle.Shape = draw.CrossGlyph{}
		s.GlyphStyle.Color = color.White
		s.GlyphStyle.Radius = vg.Points(4)
		p.Add(s)
		p.Legend.Add("unstable", s)
	}

	p.X.Min, p.X.Max = -0.5, float64(g.Cols())-0.5
	p.Y.Min, p.Y.Max = -0.5, float64(g.Rows())-0.5
	return p, nil
}

// RenderHeatmapPNG writes a PNG rendering of the heatmap and its contacts.
func RenderHeatmapPNG(w io.Writer, g *l2heatmap.Grid[float64], frame touch.Frame, title string) error {
	p, err := NewHeatmapPlot(g, frame, title)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(PlotSize, PlotSize, "png")
	if err != nil {
		return fmt.Errorf("failed to create png writer: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to render png: %w", err)
	}
	return nil
}
