package analysis

import (
	"fmt"

	"github.com/KaramelBytes/edaloom-cli/internal/dataset"
)

// Stage names a pipeline step, used to locate failures.
type Stage string

const (
	StageInfer       Stage = "infer"
	StageStats       Stage = "stats"
	StageCorrelation Stage = "correlation"
	StageHistogram   Stage = "histogram"
	StageOutliers    Stage = "outliers"
	StageClustering  Stage = "clustering"
	StageGroups      Stage = "groups"
	StageInsights    Stage = "insights"
)

// AnalysisError reports an internal failure in one stage of Analyze.
type AnalysisError struct {
	Stage  Stage
	Column string
	Err    error
}

func (e *AnalysisError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("analysis %s (column %q): %v", e.Stage, e.Column, e.Err)
	}
	return fmt.Sprintf("analysis %s: %v", e.Stage, e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

// Analyze runs the full pipeline over t. Degenerate input produces empty or
// partial sections plus warnings; an error means a stage failed unexpectedly.
func Analyze(t *dataset.Table, opt Options) (rep *Report, err error) {
	opt = opt.withDefaults()
	if t == nil {
		t = &dataset.Table{}
	}
	stage, column := StageInfer, ""
	defer func() {
		if p := recover(); p != nil {
			perr, ok := p.(error)
			if !ok {
				perr = fmt.Errorf("%v", p)
			}
			rep, err = nil, &AnalysisError{Stage: stage, Column: column, Err: perr}
		}
	}()

	rep = &Report{
		Rows:         t.NumRows(),
		Headers:      append([]string{}, t.Headers...),
		Stats:        []ColumnStats{},
		Correlations: Correlations{},
		Histograms:   []Histogram{},
		Outliers:     []ColumnOutliers{},
		OutlierRows:  []int{},
	}
	if t.Empty() {
		rep.Types = []dataset.ColumnType{}
		rep.Warnings = append(rep.Warnings, "dataset has no header row")
		rep.Insights = generateInsights(rep, opt)
		return rep, nil
	}
	if ragged := t.Ragged(); len(ragged) > 0 {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("%d rows do not match the header width (first at row %d)", len(ragged), ragged[0]+1))
	}

	rep.Types = dataset.InferTypes(t)
	var numeric []int
	for i, typ := range rep.Types {
		if typ == dataset.Numeric {
			numeric = append(numeric, i)
		}
	}

	stage = StageStats
	for i, typ := range rep.Types {
		column = t.Headers[i]
		rep.Stats = append(rep.Stats, columnStats(t, i, typ, opt))
	}
	column = ""

	stage = StageCorrelation
	rep.Correlations = correlate(t, numeric)

	cols := make([]numericColumn, len(numeric))
	for j, c := range numeric {
		cols[j] = extractNumeric(t, c)
	}

	stage = StageHistogram
	for _, nc := range cols {
		column = nc.name
		rep.Histograms = append(rep.Histograms, BuildHistogram(nc.name, nc.values, opt.HistogramBins))
	}

	stage = StageOutliers
	for _, nc := range cols {
		column = nc.name
		s := rep.Stats[nc.index].Numeric
		if recs := detectOutliers(t, nc, s, opt); len(recs) > 0 {
			rep.Outliers = append(rep.Outliers, ColumnOutliers{Column: nc.name, Records: recs})
		}
	}
	column = ""
	rep.OutlierRows = outlierRows(rep.Outliers)

	stage = StageClustering
	rep.Clusters = cluster(t, numeric, opt)
	switch {
	case len(numeric) < 2:
		rep.Warnings = append(rep.Warnings, "clustering skipped: fewer than 2 numeric columns")
	case rep.Clusters == nil:
		rep.Warnings = append(rep.Warnings, "clustering skipped: no row has every numeric column filled")
	}
	if len(numeric) == 0 {
		rep.Warnings = append(rep.Warnings, "no numeric columns: correlations and histograms are empty")
	}

	stage = StageGroups
	cat, measure, gerr := pickGroupColumns(t, rep.Types, opt)
	if gerr != nil {
		rep.Warnings = append(rep.Warnings, "group comparison skipped: "+gerr.Error())
	} else {
		rep.Groups = compareGroups(t, cat, measure)
	}

	n := opt.SampleRows
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	for i := 0; i < n; i++ {
		rep.Samples = append(rep.Samples, append([]string(nil), t.Rows[i]...))
	}

	stage = StageInsights
	rep.Insights = generateInsights(rep, opt)
	return rep, nil
}
