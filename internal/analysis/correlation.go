package analysis

import (
	"math"

	"github.com/KaramelBytes/edaloom-cli/internal/dataset"
	"github.com/aclements/go-moremath/stats"
)

// ColumnPair is an ordered pair of numeric columns, A declared before B.
type ColumnPair struct {
	A string `json:"a" yaml:"a"`
	B string `json:"b" yaml:"b"`
}

// Key renders the pair as "A__B".
func (p ColumnPair) Key() string { return p.A + "__" + p.B }

// CorrelationEntry is Pearson's r for one pair. R is NaN when either column has no variance.
type CorrelationEntry struct {
	Pair ColumnPair `json:"pair" yaml:"pair"`
	R    float64    `json:"r" yaml:"r"`
}

// Defined reports whether r is a number.
func (e CorrelationEntry) Defined() bool { return !math.IsNaN(e.R) }

// Correlations lists every numeric pair in header order.
type Correlations []CorrelationEntry

// Lookup returns r for the unordered pair {a, b}.
func (c Correlations) Lookup(a, b string) (float64, bool) {
	for _, e := range c {
		if (e.Pair.A == a && e.Pair.B == b) || (e.Pair.A == b && e.Pair.B == a) {
			return e.R, true
		}
	}
	return 0, false
}

// Keyed returns the correlations keyed by "A__B".
func (c Correlations) Keyed() map[string]float64 {
	m := make(map[string]float64, len(c))
	for _, e := range c {
		m[e.Pair.Key()] = e.R
	}
	return m
}

// Pearson computes the population correlation of x and y over their common prefix.
// It returns NaN for fewer than one pair or zero variance in either input.
func Pearson(x, y []float64) float64 {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	if n == 0 || constant(x[:n]) || constant(y[:n]) {
		return math.NaN()
	}
	var mx, my float64
	for i := 0; i < n; i++ {
		mx += x[i]
		my += y[i]
	}
	mx /= float64(n)
	my /= float64(n)
	var sxy, sxx, syy float64
	for i := 0; i < n; i++ {
		dx := x[i] - mx
		dy := y[i] - my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return math.NaN()
	}
	r := sxy / math.Sqrt(sxx*syy)
	// clamp rounding drift
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return r
}

// constant reports whether every value is equal. Summed deviations of a
// constant non-integer column are not exactly zero, so compare the bounds.
func constant(v []float64) bool {
	lo, hi := stats.Bounds(v)
	return lo == hi
}

// correlate computes r for every numeric pair i < j using rows where both cells parse.
func correlate(t *dataset.Table, numeric []int) Correlations {
	out := Correlations{}
	for a := 0; a < len(numeric); a++ {
		for b := a + 1; b < len(numeric); b++ {
			ci, cj := numeric[a], numeric[b]
			var xs, ys []float64
			for r := range t.Rows {
				x, okx := dataset.ParseNumber(t.Cell(r, ci))
				y, oky := dataset.ParseNumber(t.Cell(r, cj))
				if okx && oky {
					xs = append(xs, x)
					ys = append(ys, y)
				}
			}
			out = append(out, CorrelationEntry{
				Pair: ColumnPair{A: t.Headers[ci], B: t.Headers[cj]},
				R:    Pearson(xs, ys),
			})
		}
	}
	return out
}
