package analysis

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/KaramelBytes/edaloom-cli/internal/dataset"
	"github.com/aclements/go-moremath/stats"
)

// ColumnStats is the per-column summary. Exactly one of Numeric, Categorical or
// Date is set, matching Type.
type ColumnStats struct {
	Name        string              `json:"name" yaml:"name"`
	Type        dataset.ColumnType  `json:"type" yaml:"type"`
	Missing     int                 `json:"missing" yaml:"missing"`
	Numeric     *NumericSummary     `json:"numeric,omitempty" yaml:"numeric,omitempty"`
	Categorical *CategoricalSummary `json:"categorical,omitempty" yaml:"categorical,omitempty"`
	Date        *DateSummary        `json:"date,omitempty" yaml:"date,omitempty"`
}

// NumericSummary describes a numeric column. Std is the population standard
// deviation and is 0 for a single value or a constant column.
type NumericSummary struct {
	Count      int     `json:"count" yaml:"count"`
	Mean       float64 `json:"mean" yaml:"mean"`
	Median     float64 `json:"median" yaml:"median"`
	Std        float64 `json:"std" yaml:"std"`
	Min        float64 `json:"min" yaml:"min"`
	Max        float64 `json:"max" yaml:"max"`
	Q1         float64 `json:"q1" yaml:"q1"`
	Q3         float64 `json:"q3" yaml:"q3"`
	IQR        float64 `json:"iqr" yaml:"iqr"`
	LowerFence float64 `json:"lowerFence" yaml:"lowerFence"`
	UpperFence float64 `json:"upperFence" yaml:"upperFence"`
	Outliers   int     `json:"outliers" yaml:"outliers"`
}

// CategoricalSummary counts distinct raw values, case-sensitive.
type CategoricalSummary struct {
	Count     int             `json:"count" yaml:"count"`
	Unique    int             `json:"unique" yaml:"unique"`
	TopValues []CategoryCount `json:"topValues" yaml:"topValues"`
}

// DateSummary describes a date column.
type DateSummary struct {
	Count    int       `json:"count" yaml:"count"`
	Unique   int       `json:"unique" yaml:"unique"`
	Earliest time.Time `json:"earliest" yaml:"earliest"`
	Latest   time.Time `json:"latest" yaml:"latest"`
}

type CategoryCount struct {
	Value string `json:"value" yaml:"value"`
	Count int    `json:"count" yaml:"count"`
}

// numericColumn holds the parsed values of one column with the rows they came from.
type numericColumn struct {
	name   string
	index  int
	values []float64
	rows   []int
}

func extractNumeric(t *dataset.Table, col int) numericColumn {
	nc := numericColumn{name: t.Headers[col], index: col}
	for r := range t.Rows {
		if v, ok := dataset.ParseNumber(t.Cell(r, col)); ok {
			nc.values = append(nc.values, v)
			nc.rows = append(nc.rows, r)
		}
	}
	return nc
}

// Describe computes the numeric summary of values using the IQR multiplier m.
// It returns nil for an empty slice.
func Describe(values []float64, m float64) *NumericSummary {
	n := len(values)
	if n == 0 {
		return nil
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	s := &NumericSummary{Count: n}
	s.Mean = stats.Mean(values)
	s.Min, s.Max = stats.Bounds(values)
	s.Median = median(sorted)
	s.Std = populationStd(values, s.Mean)
	s.Q1 = rankQuantile(sorted, 0.25)
	s.Q3 = rankQuantile(sorted, 0.75)
	s.IQR = s.Q3 - s.Q1
	s.LowerFence = s.Q1 - m*s.IQR
	s.UpperFence = s.Q3 + m*s.IQR
	for _, v := range values {
		if v < s.LowerFence || v > s.UpperFence {
			s.Outliers++
		}
	}
	return s
}

// Fence reports where v lies relative to the summary's IQR fences.
func (s *NumericSummary) Fence(v float64) FenceStatus {
	switch {
	case v < s.LowerFence:
		return FenceBelow
	case v > s.UpperFence:
		return FenceAbove
	default:
		return FenceNone
	}
}

// ZScore returns |v - mean| / std, or 0 when the column has no spread.
func (s *NumericSummary) ZScore(v float64) float64 {
	if s.Std == 0 {
		return 0
	}
	return math.Abs(v-s.Mean) / s.Std
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func populationStd(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var ss float64
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)))
}

// rankQuantile indexes sorted at floor(n*p), clamped to the last element.
func rankQuantile(sorted []float64, p float64) float64 {
	i := int(math.Floor(float64(len(sorted)) * p))
	if i >= len(sorted) {
		i = len(sorted) - 1
	}
	if i < 0 {
		i = 0
	}
	return sorted[i]
}

func describeCategorical(values []string, top int) *CategoricalSummary {
	counts := make(map[string]int)
	for _, v := range values {
		counts[v]++
	}
	tv := make([]CategoryCount, 0, len(counts))
	for k, c := range counts {
		tv = append(tv, CategoryCount{Value: k, Count: c})
	}
	sort.Slice(tv, func(i, j int) bool {
		if tv[i].Count == tv[j].Count {
			return tv[i].Value < tv[j].Value
		}
		return tv[i].Count > tv[j].Count
	})
	if len(tv) > top {
		tv = tv[:top]
	}
	return &CategoricalSummary{Count: len(values), Unique: len(counts), TopValues: tv}
}

func describeDates(values []string) *DateSummary {
	ds := &DateSummary{}
	seen := make(map[string]struct{})
	for _, v := range values {
		ts, ok := dataset.ParseDate(v)
		if !ok {
			continue
		}
		if ds.Count == 0 || ts.Before(ds.Earliest) {
			ds.Earliest = ts
		}
		if ds.Count == 0 || ts.After(ds.Latest) {
			ds.Latest = ts
		}
		ds.Count++
		seen[strings.TrimSpace(v)] = struct{}{}
	}
	ds.Unique = len(seen)
	return ds
}

func countMissing(values []string) int {
	n := 0
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			n++
		}
	}
	return n
}

// columnStats builds the stats entry for column col of type typ.
func columnStats(t *dataset.Table, col int, typ dataset.ColumnType, opt Options) ColumnStats {
	values := t.Column(col)
	cs := ColumnStats{Name: t.Headers[col], Type: typ, Missing: countMissing(values)}
	switch typ {
	case dataset.Numeric:
		cs.Numeric = Describe(extractNumeric(t, col).values, opt.IQRMultiplier)
		if cs.Numeric == nil {
			cs.Numeric = &NumericSummary{}
		}
	case dataset.Date:
		cs.Date = describeDates(values)
	default:
		cs.Categorical = describeCategorical(values, opt.TopValues)
	}
	return cs
}
