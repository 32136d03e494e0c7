package analysis

import (
	"math"
)

// Histogram is an equal-width binning of one numeric column. BinEdges holds the
// left edge of each bin; the last bin is closed on the right at the column max.
type Histogram struct {
	Column   string    `json:"column" yaml:"column"`
	BinEdges []float64 `json:"binEdges" yaml:"binEdges"`
	Counts   []int     `json:"counts" yaml:"counts"`
	Width    float64   `json:"width" yaml:"width"`
}

// Total returns the number of binned values.
func (h Histogram) Total() int {
	n := 0
	for _, c := range h.Counts {
		n += c
	}
	return n
}

// BuildHistogram bins values into the given number of bins over [min, max].
// When every value is equal the width is 0 and all values land in bin 0.
func BuildHistogram(column string, values []float64, bins int) Histogram {
	if bins <= 0 {
		bins = 1
	}
	h := Histogram{Column: column, BinEdges: make([]float64, bins), Counts: make([]int, bins)}
	if len(values) == 0 {
		return h
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	h.Width = (hi - lo) / float64(bins)
	for i := range h.BinEdges {
		h.BinEdges[i] = lo + float64(i)*h.Width
	}
	for _, v := range values {
		idx := 0
		if h.Width > 0 {
			idx = int(math.Floor((v - lo) / h.Width))
		}
		if idx < 0 {
			idx = 0
		}
		if idx > bins-1 {
			idx = bins - 1
		}
		h.Counts[idx]++
	}
	return h
}
