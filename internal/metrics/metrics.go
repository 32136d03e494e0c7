// Package metrics exposes prometheus collectors for dataset analyses.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

var (
	// AnalysesTotal counts analyses by source (cli, batch, http) and status.
	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edaloom_analyses_total",
			Help: "Total number of dataset analyses",
		},
		[]string{"source", "status"},
	)

	// RowsAnalyzed counts data rows fed into successful analyses.
	RowsAnalyzed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edaloom_rows_analyzed_total",
			Help: "Total number of data rows analyzed",
		},
		[]string{"source"},
	)

	// AnalysisDuration tracks parse-plus-analyze latency.
	AnalysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "edaloom_analysis_duration_seconds",
			Help:    "Time spent parsing and analyzing a dataset",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		},
		[]string{"source"},
	)
)

// Observe records one finished analysis.
func Observe(source string, rows int, d time.Duration, err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	AnalysesTotal.WithLabelValues(source, status).Inc()
	AnalysisDuration.WithLabelValues(source).Observe(d.Seconds())
	if err == nil {
		RowsAnalyzed.WithLabelValues(source).Add(float64(rows))
	}
}
