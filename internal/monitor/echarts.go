package monitor

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// echartsAssetsHost serves the echarts javascript. Override it to point at a
// local copy on machines without internet access.
var echartsAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

var viridis = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

// renderHeatmapChart writes an interactive heatmap page of snap with the
// contact centres overlaid as a scatter series.
func renderHeatmapChart(w io.Writer, snap Snapshot) error {
	g := snap.Heatmap
	if g == nil || g.Empty() {
		return ErrNoHeatmap
	}

	xs := make([]string, g.Cols())
	for i := range xs {
		xs[i] = strconv.Itoa(i)
	}
	// Category axes grow upwards; list rows in reverse to draw row 0 on top.
	ys := make([]string, g.Rows())
	for i := range ys {
		ys[i] = strconv.Itoa(g.Rows() - 1 - i)
	}

	data := make([]opts.HeatMapData, 0, g.Len())
	for y := 0; y < g.Rows(); y++ {
		for x := 0; x < g.Cols(); x++ {
			data = append(data, opts.HeatMapData{Value: [3]interface{}{x, g.Rows() - 1 - y, g.At(x, y)}})
		}
	}

	lo, hi := g.MinMax()
	if lo == hi {
		hi = lo + 1
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "touchd heatmap", Theme: "dark", Width: "900px", Height: "700px", AssetsHost: echartsAssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Heatmap", Subtitle: fmt.Sprintf("seq=%d contacts=%d stable=%d", snap.Seq, len(snap.Contacts), snap.Contacts.StableCount())}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Data: xs, Name: "column"}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: ys, Name: "row"}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(lo),
			Max:        float32(hi),
			InRange:    &opts.VisualMapInRange{Color: viridis},
		}),
	)
	hm.AddSeries("heatmap", data)

	if len(snap.Contacts) > 0 {
		points := make([]opts.ScatterData, 0, len(snap.Contacts))
		for _, c := range snap.Contacts {
			x, y := gridPosition(g, c)
			name := "untracked"
			if c.Index != nil {
				name = fmt.Sprintf("#%d", *c.Index)
			}
			points = append(points, opts.ScatterData{Name: name, Value: []interface{}{x, float64(g.Rows()-1) - y}})
		}
		overlay := charts.NewScatter()
		overlay.AddSeries("contacts", points, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 12}))
		hm.Overlap(overlay)
	}

	return hm.Render(w)
}
