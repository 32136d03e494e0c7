package dataset

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// ColumnType is the inferred kind of a column.
type ColumnType string

const (
	Numeric     ColumnType = "numeric"
	Date        ColumnType = "date"
	Categorical ColumnType = "categorical"
)

var dateLayouts = []string{
	time.RFC3339, "2006-01-02", "2006/01/02", "02/01/2006", "01/02/2006",
	"2006-01-02 15:04", "2006-01-02 15:04:05", "1/2/2006 15:04", "1/2/2006 15:04:05",
	"Jan 2, 2006", "2 Jan 2006",
}

// ParseNumber parses a trimmed cell as a finite float.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ParseDate parses a trimmed cell against the supported date layouts.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// InferType classifies a column. Empty cells do not take part in the decision;
// a column with no non-empty cell is categorical.
func InferType(values []string) ColumnType {
	seen := 0
	numeric, date := true, true
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		seen++
		if numeric {
			if _, ok := ParseNumber(v); !ok {
				numeric = false
			}
		}
		if date {
			if _, ok := ParseDate(v); !ok {
				date = false
			}
		}
		if !numeric && !date {
			return Categorical
		}
	}
	switch {
	case seen == 0:
		return Categorical
	case numeric:
		return Numeric
	case date:
		return Date
	default:
		return Categorical
	}
}

// InferTypes classifies every column of t in header order.
func InferTypes(t *Table) []ColumnType {
	out := make([]ColumnType, t.NumCols())
	for c := range t.Headers {
		out[c] = InferType(t.Column(c))
	}
	return out
}
