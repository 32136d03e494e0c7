// Package report serializes analysis results into the supported output formats.
package report

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/KaramelBytes/edaloom-cli/internal/analysis"
	"github.com/KaramelBytes/edaloom-cli/internal/dataset"
	gojson "github.com/goccy/go-json"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// Format is an output encoding for a report.
type Format string

const (
	Markdown Format = "markdown"
	JSON     Format = "json"
	YAML     Format = "yaml"
	MsgPack  Format = "msgpack"
)

// ParseFormat accepts a format name or common alias. Empty means Markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "md", "markdown":
		return Markdown, nil
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	case "msgpack", "mp", "messagepack":
		return MsgPack, nil
	default:
		return "", fmt.Errorf("unsupported format: %s (use markdown|json|yaml|msgpack)", s)
	}
}

// Extension returns the file extension for f, including the dot.
func (f Format) Extension() string {
	switch f {
	case JSON:
		return ".json"
	case YAML:
		return ".yaml"
	case MsgPack:
		return ".msgpack"
	default:
		return ".md"
	}
}

// ContentType returns the HTTP media type for f.
func (f Format) ContentType() string {
	switch f {
	case JSON:
		return "application/json; charset=UTF-8"
	case YAML:
		return "application/yaml"
	case MsgPack:
		return "application/msgpack"
	default:
		return "text/markdown; charset=UTF-8"
	}
}

// Document is the wire shape of a report. Per-column sections are keyed by
// header and correlations by "A__B"; an undefined correlation encodes as null.
type Document struct {
	Name         string                              `json:"name,omitempty" yaml:"name,omitempty"`
	Rows         int                                 `json:"rows" yaml:"rows"`
	Headers      []string                            `json:"headers" yaml:"headers"`
	Types        []dataset.ColumnType                `json:"types" yaml:"types"`
	Stats        map[string]analysis.ColumnStats     `json:"stats" yaml:"stats"`
	Correlations map[string]*float64                 `json:"correlations" yaml:"correlations"`
	Histograms   map[string]analysis.Histogram       `json:"histograms" yaml:"histograms"`
	Outliers     map[string][]analysis.OutlierRecord `json:"outliers" yaml:"outliers"`
	OutlierRows  []int                               `json:"outlierRows" yaml:"outlierRows"`
	Clusters     *analysis.ClusterResult             `json:"clusters" yaml:"clusters"`
	Groups       *analysis.GroupComparison           `json:"groups,omitempty" yaml:"groups,omitempty"`
	Insights     []analysis.Insight                  `json:"insights" yaml:"insights"`
	Samples      [][]string                          `json:"samples,omitempty" yaml:"samples,omitempty"`
	Warnings     []string                            `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// NewDocument converts a report into its wire shape.
func NewDocument(r *analysis.Report) *Document {
	d := &Document{
		Name:         r.Name,
		Rows:         r.Rows,
		Headers:      r.Headers,
		Types:        r.Types,
		Stats:        make(map[string]analysis.ColumnStats, len(r.Stats)),
		Correlations: make(map[string]*float64, len(r.Correlations)),
		Histograms:   make(map[string]analysis.Histogram, len(r.Histograms)),
		Outliers:     make(map[string][]analysis.OutlierRecord, len(r.Outliers)),
		OutlierRows:  r.OutlierRows,
		Clusters:     r.Clusters,
		Groups:       r.Groups,
		Insights:     r.Insights,
		Samples:      r.Samples,
		Warnings:     r.Warnings,
	}
	for _, s := range r.Stats {
		d.Stats[s.Name] = s
	}
	for _, e := range r.Correlations {
		if math.IsNaN(e.R) {
			d.Correlations[e.Pair.Key()] = nil
			continue
		}
		v := e.R
		d.Correlations[e.Pair.Key()] = &v
	}
	for _, h := range r.Histograms {
		d.Histograms[h.Column] = h
	}
	for _, o := range r.Outliers {
		d.Outliers[o.Column] = o.Records
	}
	return d
}

// Encode writes r to w in format f.
func Encode(w io.Writer, r *analysis.Report, f Format) error {
	if f == Markdown || f == "" {
		_, err := io.WriteString(w, r.Markdown())
		return err
	}
	doc := NewDocument(r)
	switch f {
	case JSON:
		enc := gojson.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
	case MsgPack:
		enc := msgpack.NewEncoder(w)
		enc.SetSortMapKeys(true)
		enc.SetCustomStructTag("json")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode msgpack: %w", err)
		}
	default:
		return fmt.Errorf("unsupported format: %s", f)
	}
	return nil
}

// Render is Encode into a byte slice.
func Render(r *analysis.Report, f Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, r, f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
