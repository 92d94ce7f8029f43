package l2heatmap

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidNeutralMode is returned for an unknown neutral value algorithm.
var ErrInvalidNeutralMode = errors.New("heatmap: invalid neutral mode")

// NeutralAlgorithm selects how the neutral value of a heatmap is computed.
// The neutral value marks areas without contact; everything below it is noise.
type NeutralAlgorithm uint8

const (
	// NeutralMode uses the most common sample (statistical mode).
	NeutralMode NeutralAlgorithm = iota
	// NeutralAverage uses the mean of all samples.
	NeutralAverage
	// NeutralConstant uses the configured offset alone.
	NeutralConstant
)

func (a NeutralAlgorithm) String() string {
	switch a {
	case NeutralMode:
		return "mode"
	case NeutralAverage:
		return "average"
	case NeutralConstant:
		return "constant"
	default:
		return fmt.Sprintf("NeutralAlgorithm(%d)", uint8(a))
	}
}

// Valid reports whether a names a known algorithm.
func (a NeutralAlgorithm) Valid() bool {
	return a <= NeutralConstant
}

// ParseNeutralAlgorithm parses the configuration spelling of an algorithm.
func ParseNeutralAlgorithm(s string) (NeutralAlgorithm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "mode":
		return NeutralMode, nil
	case "average", "mean":
		return NeutralAverage, nil
	case "constant":
		return NeutralConstant, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidNeutralMode, s)
	}
}

// Neutral calculates the neutral value of g with the given algorithm and
// adds offset to it. With NeutralConstant the offset is the neutral value.
func Neutral[T Scalar](g *Grid[T], algorithm NeutralAlgorithm, offset float64) (float64, error) {
	switch algorithm {
	case NeutralMode:
		return statisticalMode(g) + offset, nil
	case NeutralAverage:
		return mean(g) + offset, nil
	case NeutralConstant:
		return offset, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrInvalidNeutralMode, uint8(algorithm))
	}
}

// statisticalMode returns the first sample (in row-major order) to reach the
// highest occurrence count.
func statisticalMode[T Scalar](g *Grid[T]) float64 {
	counts := make(map[T]int)

	var best T
	bestCount := 0
	for _, v := range g.data {
		counts[v]++
		if c := counts[v]; c > bestCount {
			bestCount = c
			best = v
		}
	}
	return float64(best)
}

func mean[T Scalar](g *Grid[T]) float64 {
	if len(g.data) == 0 {
		return 0
	}
	var sum float64
	for _, v := range g.data {
		sum += float64(v)
	}
	return sum / float64(len(g.data))
}

// SubtractNeutral writes max(src - neutral, 0) into dst, resizing it to the
// extents of src.
func SubtractNeutral(src *Grid[float64], neutral float64, dst *Grid[float64]) {
	dst.Resize(src.rows, src.cols)
	for i, v := range src.data {
		v -= neutral
		if v < 0 {
			v = 0
		}
		dst.data[i] = v
	}
}
