package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/KaramelBytes/edaloom-cli/internal/analysis"
	"github.com/KaramelBytes/edaloom-cli/internal/logging"
	"github.com/KaramelBytes/edaloom-cli/internal/metrics"
	"github.com/KaramelBytes/edaloom-cli/internal/parser"
	"github.com/KaramelBytes/edaloom-cli/internal/report"
	"github.com/KaramelBytes/edaloom-cli/internal/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// analyzeFlags holds the flags shared by analyze and analyze-batch.
type analyzeFlags struct {
	format        string
	delimiter     string
	sheetName     string
	sheetIndex    int
	bins          int
	clusters      int
	iterations    int
	zThreshold    float64
	iqrMultiplier float64
	sampleRows    int
	groupBy       string
	groupMeasure  string
}

func (f *analyzeFlags) register(c *cobra.Command) {
	fs := c.Flags()
	fs.StringVarP(&f.format, "format", "f", "", "output format: markdown|json|yaml|msgpack (default from config)")
	fs.StringVar(&f.delimiter, "delimiter", "", "delimiter for text input: ',' | ';' | 'tab' | any single character (auto if omitted)")
	fs.StringVar(&f.sheetName, "sheet-name", "", "XLSX: sheet name to analyze")
	fs.IntVar(&f.sheetIndex, "sheet-index", 0, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
	fs.IntVar(&f.bins, "bins", 0, "histogram bins per numeric column")
	fs.IntVar(&f.clusters, "clusters", 0, "number of k-means clusters")
	fs.IntVar(&f.iterations, "iterations", 0, "k-means iterations")
	fs.Float64Var(&f.zThreshold, "z-threshold", 0, "z-score above which a value is an outlier")
	fs.Float64Var(&f.iqrMultiplier, "iqr-multiplier", 0, "IQR fence multiplier")
	fs.IntVar(&f.sampleRows, "sample-rows", 0, "number of sample rows to include (0 disables samples)")
	fs.StringVar(&f.groupBy, "group-by", "", "categorical column for the group comparison")
	fs.StringVar(&f.groupMeasure, "group-measure", "", "numeric column for the group comparison")
}

// resolve layers changed flags over the loaded configuration.
func (f *analyzeFlags) resolve(c *cobra.Command) (analysis.Options, parser.Options, report.Format, error) {
	base := cfg
	if base == nil {
		loadConfig()
		base = cfg
	}
	opt := base.AnalysisOptions()
	fs := c.Flags()
	if fs.Changed("bins") {
		opt.HistogramBins = f.bins
	}
	if fs.Changed("clusters") {
		opt.Clusters = f.clusters
	}
	if fs.Changed("iterations") {
		opt.KMeansIterations = f.iterations
	}
	if fs.Changed("z-threshold") {
		opt.OutlierZThreshold = f.zThreshold
	}
	if fs.Changed("iqr-multiplier") {
		opt.IQRMultiplier = f.iqrMultiplier
	}
	if fs.Changed("sample-rows") {
		opt.SampleRows = f.sampleRows
	}
	opt.GroupBy = f.groupBy
	opt.GroupMeasure = f.groupMeasure

	delimName := base.Delimiter
	if fs.Changed("delimiter") {
		delimName = f.delimiter
	}
	delim, err := parser.ParseDelimiter(delimName)
	if err != nil {
		return opt, parser.Options{}, "", err
	}
	popt := parser.Options{Delimiter: delim, SheetName: f.sheetName, SheetIndex: f.sheetIndex}

	formatName := base.OutputFormat
	if fs.Changed("format") {
		formatName = f.format
	}
	format, err := report.ParseFormat(formatName)
	if err != nil {
		return opt, popt, "", err
	}
	return opt, popt, format, nil
}

// analyzeFile parses and analyzes one dataset, recording metrics under source.
func analyzeFile(source, path string, popt parser.Options, opt analysis.Options) (*analysis.Report, error) {
	log := logging.With(zap.String("file", path))
	start := time.Now()
	tbl, err := parser.ParseFile(path, popt)
	if err != nil {
		metrics.Observe(source, 0, time.Since(start), err)
		return nil, err
	}
	rep, err := analysis.Analyze(tbl, opt)
	metrics.Observe(source, tbl.NumRows(), time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	rep.Name = filepath.Base(path)
	for _, w := range rep.Warnings {
		log.Warn(w)
	}
	log.Debug("analyzed dataset",
		zap.Int("rows", rep.Rows),
		zap.Int("columns", len(rep.Headers)),
		zap.Int("insights", len(rep.Insights)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return rep, nil
}

var (
	anaFlags      analyzeFlags
	anaOutputPath string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Analyze a CSV/TSV/XLSX dataset and print an EDA report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opt, popt, format, err := anaFlags.resolve(cmd)
		if err != nil {
			return err
		}
		rep, err := analyzeFile("cli", args[0], popt, opt)
		if err != nil {
			return err
		}
		out, err := report.Render(rep, format)
		if err != nil {
			return err
		}

		// Decide where to write: --output path or stdout
		if anaOutputPath != "" {
			if dir := filepath.Dir(anaOutputPath); dir != "." {
				if err := utils.EnsureDir(dir); err != nil {
					return fmt.Errorf("create output dir: %w", err)
				}
			}
			if err := utils.SafeWriteFile(anaOutputPath, out); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote analysis to %s\n", anaOutputPath)
			return nil
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	anaFlags.register(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write the report")
}
