package analysis

import (
	"github.com/KaramelBytes/edaloom-cli/internal/dataset"
)

// Options controls analysis behavior for tabular data.
type Options struct {
	// HistogramBins is the number of equal-width bins per numeric column.
	HistogramBins int
	// Clusters is k for k-means; the effective k never exceeds the participating rows.
	Clusters int
	// KMeansIterations is the fixed number of assign/update rounds. There is no convergence check.
	KMeansIterations int
	// OutlierZThreshold flags values with |z| strictly above it.
	OutlierZThreshold float64
	// SevereZThreshold marks flagged values as high severity when |z| is above it.
	SevereZThreshold float64
	// IQRMultiplier scales the IQR when computing the lower and upper fences.
	IQRMultiplier float64
	// CorrelationThreshold is the |r| above which a correlation insight is produced.
	CorrelationThreshold float64
	// StrongCorrelationThreshold splits moderate from strong correlation insights.
	StrongCorrelationThreshold float64
	// TopValues caps the categorical top-value list.
	TopValues int
	// SampleRows determines how many example rows to include in the report; 0 disables, negative uses the default.
	SampleRows int
	// GroupBy and GroupMeasure pick the category-vs-measure comparison columns.
	// Empty means the first categorical and the first numeric column.
	GroupBy      string
	GroupMeasure string
}

// DefaultOptions returns reasonable defaults for dataset analysis.
func DefaultOptions() Options {
	return Options{
		HistogramBins:              10,
		Clusters:                   3,
		KMeansIterations:           5,
		OutlierZThreshold:          2.5,
		SevereZThreshold:           3,
		IQRMultiplier:              1.5,
		CorrelationThreshold:       0.7,
		StrongCorrelationThreshold: 0.8,
		TopValues:                  8,
		SampleRows:                 5,
	}
}

// withDefaults replaces unset or non-positive tunables with their defaults.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.HistogramBins <= 0 {
		o.HistogramBins = d.HistogramBins
	}
	if o.Clusters <= 0 {
		o.Clusters = d.Clusters
	}
	if o.KMeansIterations <= 0 {
		o.KMeansIterations = d.KMeansIterations
	}
	if o.OutlierZThreshold <= 0 {
		o.OutlierZThreshold = d.OutlierZThreshold
	}
	if o.SevereZThreshold <= 0 {
		o.SevereZThreshold = d.SevereZThreshold
	}
	if o.IQRMultiplier <= 0 {
		o.IQRMultiplier = d.IQRMultiplier
	}
	if o.CorrelationThreshold <= 0 {
		o.CorrelationThreshold = d.CorrelationThreshold
	}
	if o.StrongCorrelationThreshold <= 0 {
		o.StrongCorrelationThreshold = d.StrongCorrelationThreshold
	}
	if o.TopValues <= 0 {
		o.TopValues = d.TopValues
	}
	if o.SampleRows < 0 {
		o.SampleRows = d.SampleRows
	}
	return o
}

// Report is the full analysis of a tabular dataset. It is built once by Analyze and not mutated afterwards.
type Report struct {
	Name         string               `json:"name,omitempty" yaml:"name,omitempty"`
	Rows         int                  `json:"rows" yaml:"rows"`
	Headers      []string             `json:"headers" yaml:"headers"`
	Types        []dataset.ColumnType `json:"types" yaml:"types"`
	Stats        []ColumnStats        `json:"stats" yaml:"stats"`
	Correlations Correlations         `json:"correlations" yaml:"correlations"`
	Histograms   []Histogram          `json:"histograms" yaml:"histograms"`
	Outliers     []ColumnOutliers     `json:"outliers" yaml:"outliers"`
	OutlierRows  []int                `json:"outlierRows" yaml:"outlierRows"`
	Clusters     *ClusterResult       `json:"clusters" yaml:"clusters"`
	Groups       *GroupComparison     `json:"groups,omitempty" yaml:"groups,omitempty"`
	Insights     []Insight            `json:"insights" yaml:"insights"`
	Samples      [][]string           `json:"samples,omitempty" yaml:"samples,omitempty"`
	Warnings     []string             `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// StatsFor returns the stats of the named column.
func (r *Report) StatsFor(name string) (ColumnStats, bool) {
	for _, s := range r.Stats {
		if s.Name == name {
			return s, true
		}
	}
	return ColumnStats{}, false
}

// HistogramFor returns the histogram of the named numeric column.
func (r *Report) HistogramFor(name string) (Histogram, bool) {
	for _, h := range r.Histograms {
		if h.Column == name {
			return h, true
		}
	}
	return Histogram{}, false
}

// OutliersFor returns the outlier records of the named column.
func (r *Report) OutliersFor(name string) []OutlierRecord {
	for _, o := range r.Outliers {
		if o.Column == name {
			return o.Records
		}
	}
	return nil
}

// NumericColumns returns the numeric headers in header order.
func (r *Report) NumericColumns() []string {
	var out []string
	for i, t := range r.Types {
		if t == dataset.Numeric {
			out = append(out, r.Headers[i])
		}
	}
	return out
}
