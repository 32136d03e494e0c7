package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/edaloom-cli/internal/dataset"
)

// MarkdownCorrelationFloor is the |r| below which correlations are left out of the Markdown report.
const MarkdownCorrelationFloor = 0.5

// Markdown renders a compact report suitable for standalone docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(r.Headers)))

	b.WriteString("[SCHEMA]\n")
	for _, s := range r.Stats {
		b.WriteString(fmt.Sprintf("- %s: %s", safeName(s.Name), s.Type))
		if s.Missing > 0 {
			b.WriteString(fmt.Sprintf(" (missing %d)", s.Missing))
		}
		switch {
		case s.Numeric != nil:
			n := s.Numeric
			b.WriteString(fmt.Sprintf(" - mean %.4g, median %.4g, std %.4g, min %.4g, max %.4g; IQR outliers: %d",
				n.Mean, n.Median, n.Std, n.Min, n.Max, n.Outliers))
		case s.Date != nil && s.Date.Count > 0:
			b.WriteString(fmt.Sprintf(" - %s to %s; unique=%d",
				s.Date.Earliest.Format("2006-01-02"), s.Date.Latest.Format("2006-01-02"), s.Date.Unique))
		case s.Categorical != nil:
			b.WriteString(fmt.Sprintf(" - unique=%d", s.Categorical.Unique))
			if len(s.Categorical.TopValues) > 0 {
				b.WriteString("; top: ")
				for i, kv := range s.Categorical.TopValues {
					if i > 0 {
						b.WriteString(", ")
					}
					b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
				}
			}
		}
		b.WriteString("\n")
	}

	if len(r.Correlations) > 0 {
		pairs := make([]CorrelationEntry, 0, len(r.Correlations))
		var undefined []string
		for _, e := range r.Correlations {
			if !e.Defined() {
				undefined = append(undefined, e.Pair.A+" ~ "+e.Pair.B)
				continue
			}
			if math.Abs(e.R) > MarkdownCorrelationFloor {
				pairs = append(pairs, e)
			}
		}
		sort.SliceStable(pairs, func(i, j int) bool { return math.Abs(pairs[i].R) > math.Abs(pairs[j].R) })
		if len(pairs) > 0 || len(undefined) > 0 {
			b.WriteString("\n[CORRELATIONS]\n")
			for _, p := range pairs {
				b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f\n", p.Pair.A, p.Pair.B, p.R))
			}
			for _, u := range undefined {
				b.WriteString(fmt.Sprintf("- %s: undefined (zero variance)\n", u))
			}
		}
	}

	if len(r.Histograms) > 0 {
		b.WriteString("\n[HISTOGRAMS]\n")
		for _, h := range r.Histograms {
			parts := make([]string, len(h.Counts))
			for i, c := range h.Counts {
				parts[i] = fmt.Sprintf("%.4g:%d", h.BinEdges[i], c)
			}
			b.WriteString(fmt.Sprintf("- %s (width %.4g): %s\n", safeName(h.Column), h.Width, strings.Join(parts, " ")))
		}
	}

	if len(r.Outliers) > 0 {
		b.WriteString("\n[OUTLIERS]\n")
		for _, g := range r.Outliers {
			b.WriteString(fmt.Sprintf("- %s: %d flagged\n", safeName(g.Column), len(g.Records)))
			lim := min(5, len(g.Records))
			for _, rec := range g.Records[:lim] {
				b.WriteString(fmt.Sprintf("  • row %d: %.4g (|z|=%.2f, fence %s, %s)\n",
					rec.Row+1, rec.Value, rec.ZScore, rec.Fence, rec.Severity))
			}
		}
	}

	if r.Clusters != nil {
		b.WriteString("\n[CLUSTERS]\n")
		b.WriteString(fmt.Sprintf("k=%d over %s (%d rows, %d iterations)\n",
			r.Clusters.K, strings.Join(r.Clusters.Columns, ", "), len(r.Clusters.Points), r.Clusters.Iterations))
		sizes := r.Clusters.Sizes()
		for i, c := range r.Clusters.Centroids {
			vals := make([]string, len(c))
			for j, v := range c {
				vals[j] = fmt.Sprintf("%.4g", v)
			}
			b.WriteString(fmt.Sprintf("- cluster %d (n=%d): [%s]\n", i+1, sizes[i], strings.Join(vals, ", ")))
		}
	}

	if r.Groups != nil && len(r.Groups.Groups) > 0 {
		b.WriteString(fmt.Sprintf("\n[GROUPS]\n%s by %s\n", safeName(r.Groups.Measure), safeName(r.Groups.Category)))
		maxg := min(12, len(r.Groups.Groups))
		for _, g := range r.Groups.Groups[:maxg] {
			b.WriteString(fmt.Sprintf("- %s (n=%d): min %.4g, q1 %.4g, median %.4g, q3 %.4g, max %.4g\n",
				safeVal(g.Key), g.Count, g.Min, g.Q1, g.Median, g.Q3, g.Max))
		}
	}

	if len(r.Insights) > 0 {
		b.WriteString("\n[INSIGHTS]\n")
		for _, in := range r.Insights {
			b.WriteString("- ")
			b.WriteString(in.Message)
			b.WriteString("\n")
		}
	}

	if len(r.Samples) > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n")
		b.WriteString("| ")
		for i, h := range r.Headers {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(safeName(h))
		}
		b.WriteString(" |\n")
		b.WriteString("| ")
		for i := range r.Headers {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString("---")
		}
		b.WriteString(" |\n")
		for _, row := range r.Samples {
			b.WriteString("| ")
			for i := range r.Headers {
				if i > 0 {
					b.WriteString(" | ")
				}
				val := ""
				if i < len(row) {
					val = row[i]
				}
				if rs := []rune(val); len(rs) > 80 {
					val = string(rs[:77]) + "..."
				}
				b.WriteString(safeVal(val))
			}
			b.WriteString(" |\n")
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// TypeOf returns the inferred type of the named column.
func (r *Report) TypeOf(name string) (dataset.ColumnType, bool) {
	for i, h := range r.Headers {
		if h == name {
			return r.Types[i], true
		}
	}
	return "", false
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}
func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
