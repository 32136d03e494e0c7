package analysis

import (
	"sort"

	"github.com/KaramelBytes/edaloom-cli/internal/dataset"
)

// FenceStatus is the position of a value relative to the IQR fences.
type FenceStatus string

const (
	FenceNone  FenceStatus = "none"
	FenceBelow FenceStatus = "below"
	FenceAbove FenceStatus = "above"
)

// Severity grades a flagged value by its z-score.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
)

// OutlierRecord is one flagged cell together with its full row.
type OutlierRecord struct {
	Row      int               `json:"row" yaml:"row"`
	Column   string            `json:"column" yaml:"column"`
	Value    float64           `json:"value" yaml:"value"`
	ZScore   float64           `json:"zScore" yaml:"zScore"`
	Fence    FenceStatus       `json:"fence" yaml:"fence"`
	Severity Severity          `json:"severity" yaml:"severity"`
	RowData  map[string]string `json:"rowData" yaml:"rowData"`
}

// ColumnOutliers groups the records of one column, highest z first.
type ColumnOutliers struct {
	Column  string          `json:"column" yaml:"column"`
	Records []OutlierRecord `json:"records" yaml:"records"`
}

func severity(z float64, opt Options) Severity {
	switch {
	case z > opt.SevereZThreshold:
		return SeverityHigh
	case z > opt.OutlierZThreshold:
		return SeverityModerate
	default:
		return SeverityLow
	}
}

// detectOutliers flags each value whose z-score exceeds the threshold or that
// falls outside the IQR fences. Columns without records are omitted.
func detectOutliers(t *dataset.Table, nc numericColumn, s *NumericSummary, opt Options) []OutlierRecord {
	if s == nil {
		return nil
	}
	var recs []OutlierRecord
	for i, v := range nc.values {
		z := s.ZScore(v)
		fence := s.Fence(v)
		if z <= opt.OutlierZThreshold && fence == FenceNone {
			continue
		}
		recs = append(recs, OutlierRecord{
			Row:      nc.rows[i],
			Column:   nc.name,
			Value:    v,
			ZScore:   z,
			Fence:    fence,
			Severity: severity(z, opt),
			RowData:  t.RowMap(nc.rows[i]),
		})
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].ZScore > recs[j].ZScore })
	return recs
}

// outlierRows returns the distinct flagged row indices in ascending order.
func outlierRows(groups []ColumnOutliers) []int {
	seen := make(map[int]struct{})
	out := []int{}
	for _, g := range groups {
		for _, r := range g.Records {
			if _, ok := seen[r.Row]; ok {
				continue
			}
			seen[r.Row] = struct{}{}
			out = append(out, r.Row)
		}
	}
	sort.Ints(out)
	return out
}
