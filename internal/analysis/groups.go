package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/edaloom-cli/internal/dataset"
	"github.com/aclements/go-moremath/stats"
)

// GroupComparison summarizes a numeric measure per category of a categorical column.
type GroupComparison struct {
	Category string          `json:"category" yaml:"category"`
	Measure  string          `json:"measure" yaml:"measure"`
	Groups   []CategoryGroup `json:"groups" yaml:"groups"`
}

// CategoryGroup is the five-number summary of the measure within one category.
type CategoryGroup struct {
	Key    string    `json:"key" yaml:"key"`
	Count  int       `json:"count" yaml:"count"`
	Min    float64   `json:"min" yaml:"min"`
	Q1     float64   `json:"q1" yaml:"q1"`
	Median float64   `json:"median" yaml:"median"`
	Q3     float64   `json:"q3" yaml:"q3"`
	Max    float64   `json:"max" yaml:"max"`
	Mean   float64   `json:"mean" yaml:"mean"`
	Values []float64 `json:"values" yaml:"values"`
}

// pickGroupColumns resolves the category and measure columns. Explicit names in
// opt must exist and have the right type.
func pickGroupColumns(t *dataset.Table, types []dataset.ColumnType, opt Options) (cat, measure int, err error) {
	cat, measure = -1, -1
	find := func(name string, want dataset.ColumnType) (int, error) {
		i := t.Index(name)
		if i < 0 {
			return -1, fmt.Errorf("group column %q not found", name)
		}
		if types[i] != want {
			return -1, fmt.Errorf("group column %q is %s, want %s", name, types[i], want)
		}
		return i, nil
	}
	if opt.GroupBy != "" {
		if cat, err = find(opt.GroupBy, dataset.Categorical); err != nil {
			return -1, -1, err
		}
	}
	if opt.GroupMeasure != "" {
		if measure, err = find(opt.GroupMeasure, dataset.Numeric); err != nil {
			return -1, -1, err
		}
	}
	for i, typ := range types {
		if cat < 0 && typ == dataset.Categorical {
			cat = i
		}
		if measure < 0 && typ == dataset.Numeric {
			measure = i
		}
	}
	return cat, measure, nil
}

// compareGroups builds the category-vs-measure comparison. Categories keep
// first-appearance order; rows whose measure does not parse are skipped.
func compareGroups(t *dataset.Table, cat, measure int) *GroupComparison {
	if cat < 0 || measure < 0 {
		return nil
	}
	byKey := map[string][]float64{}
	var order []string
	for r := range t.Rows {
		v, ok := dataset.ParseNumber(t.Cell(r, measure))
		if !ok {
			continue
		}
		key := strings.TrimSpace(t.Cell(r, cat))
		if _, seen := byKey[key]; !seen {
			order = append(order, key)
		}
		byKey[key] = append(byKey[key], v)
	}
	gc := &GroupComparison{Category: t.Headers[cat], Measure: t.Headers[measure]}
	for _, key := range order {
		vals := byKey[key]
		sorted := append([]float64(nil), vals...)
		sort.Float64s(sorted)
		gc.Groups = append(gc.Groups, CategoryGroup{
			Key:    key,
			Count:  len(vals),
			Min:    sorted[0],
			Q1:     rankQuantile(sorted, 0.25),
			Median: median(sorted),
			Q3:     rankQuantile(sorted, 0.75),
			Max:    sorted[len(sorted)-1],
			Mean:   stats.Mean(vals),
			Values: vals,
		})
	}
	return gc
}
