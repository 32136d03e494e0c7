package analysis

import (
	"fmt"
	"math"
)

// InsightKind tags the variant carried by an Insight.
type InsightKind string

const (
	InsightGeneral     InsightKind = "general"
	InsightCorrelation InsightKind = "correlation"
	InsightOutlier     InsightKind = "outlier"
	InsightCluster     InsightKind = "cluster"
)

// Insight is a rendered observation. Exactly one payload is set, matching Kind.
type Insight struct {
	Kind        InsightKind         `json:"kind" yaml:"kind"`
	Message     string              `json:"message" yaml:"message"`
	General     *GeneralInsight     `json:"general,omitempty" yaml:"general,omitempty"`
	Correlation *CorrelationInsight `json:"correlation,omitempty" yaml:"correlation,omitempty"`
	Outlier     *OutlierInsight     `json:"outlier,omitempty" yaml:"outlier,omitempty"`
	Cluster     *ClusterInsight     `json:"cluster,omitempty" yaml:"cluster,omitempty"`
}

type GeneralInsight struct {
	Rows    int `json:"rows" yaml:"rows"`
	Columns int `json:"columns" yaml:"columns"`
}

type CorrelationInsight struct {
	Pair      ColumnPair `json:"pair" yaml:"pair"`
	R         float64    `json:"r" yaml:"r"`
	Strength  string     `json:"strength" yaml:"strength"`
	Direction string     `json:"direction" yaml:"direction"`
}

type OutlierInsight struct {
	Column string `json:"column" yaml:"column"`
	Count  int    `json:"count" yaml:"count"`
}

type ClusterInsight struct {
	Clusters int `json:"clusters" yaml:"clusters"`
}

// Visit dispatches on the insight variant. Every kind must be handled.
func (in Insight) Visit(v InsightVisitor) {
	switch in.Kind {
	case InsightGeneral:
		v.General(in, *in.General)
	case InsightCorrelation:
		v.Correlation(in, *in.Correlation)
	case InsightOutlier:
		v.Outlier(in, *in.Outlier)
	case InsightCluster:
		v.Cluster(in, *in.Cluster)
	default:
		panic(fmt.Sprintf("analysis: unknown insight kind %q", in.Kind))
	}
}

// InsightVisitor handles each insight variant.
type InsightVisitor interface {
	General(Insight, GeneralInsight)
	Correlation(Insight, CorrelationInsight)
	Outlier(Insight, OutlierInsight)
	Cluster(Insight, ClusterInsight)
}

func newGeneralInsight(rows, cols int) Insight {
	return Insight{
		Kind:    InsightGeneral,
		Message: fmt.Sprintf("Dataset contains %d rows and %d columns", rows, cols),
		General: &GeneralInsight{Rows: rows, Columns: cols},
	}
}

func newCorrelationInsight(e CorrelationEntry, opt Options) Insight {
	strength := "moderate"
	if math.Abs(e.R) > opt.StrongCorrelationThreshold {
		strength = "strong"
	}
	direction := "positive"
	if e.R < 0 {
		direction = "negative"
	}
	return Insight{
		Kind: InsightCorrelation,
		Message: fmt.Sprintf("%s and %s have a %s %s correlation (r = %.2f)",
			e.Pair.A, e.Pair.B, strength, direction, e.R),
		Correlation: &CorrelationInsight{Pair: e.Pair, R: e.R, Strength: strength, Direction: direction},
	}
}

func newOutlierInsight(column string, n int) Insight {
	return Insight{
		Kind:    InsightOutlier,
		Message: fmt.Sprintf("%d outliers detected in %s", n, column),
		Outlier: &OutlierInsight{Column: column, Count: n},
	}
}

func newClusterInsight(k int) Insight {
	return Insight{
		Kind:    InsightCluster,
		Message: fmt.Sprintf("%d distinct clusters identified in the data", k),
		Cluster: &ClusterInsight{Clusters: k},
	}
}

// generateInsights renders insights in order: general, correlations, per-column
// outliers, clusters.
func generateInsights(r *Report, opt Options) []Insight {
	out := []Insight{newGeneralInsight(r.Rows, len(r.Headers))}
	for _, e := range r.Correlations {
		if e.Defined() && math.Abs(e.R) > opt.CorrelationThreshold {
			out = append(out, newCorrelationInsight(e, opt))
		}
	}
	for _, s := range r.Stats {
		if s.Numeric != nil && s.Numeric.Outliers > 0 {
			out = append(out, newOutlierInsight(s.Name, s.Numeric.Outliers))
		}
	}
	if r.Clusters != nil {
		out = append(out, newClusterInsight(r.Clusters.K))
	}
	return out
}
