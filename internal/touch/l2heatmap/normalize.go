package l2heatmap

import "github.com/banshee-data/touchd/internal/touch/l1reports"

// Normalize maps a device heatmap into dst with values in [0, 1], where 1
// means strongest contact. Devices report low values for touched cells, so
// the scale is inverted. Samples outside [Min, Max] are clamped.
//
// It returns false and leaves dst untouched when the sample has no cells.
func Normalize(sample l1reports.TouchSample, dst *Grid[float64]) bool {
	rows := int(sample.Rows)
	cols := int(sample.Columns)
	if rows == 0 || cols == 0 || len(sample.Heatmap) < rows*cols {
		return false
	}

	dst.Resize(rows, cols)

	lo := float64(sample.Min)
	hi := float64(sample.Max)
	span := hi - lo
	if span <= 0 {
		span = 1
	}

	for i, raw := range sample.Heatmap[:rows*cols] {
		v := 1 - (float64(raw)-lo)/span
		if v < 0 {
			v = 0
		} else if v > 1 {
			v = 1
		}
		dst.data[i] = v
	}
	return true
}
