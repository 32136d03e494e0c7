package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/KaramelBytes/edaloom-cli/internal/logging"
	"github.com/KaramelBytes/edaloom-cli/internal/report"
	"github.com/KaramelBytes/edaloom-cli/internal/utils"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	abFlags       analyzeFlags
	abOutputDir   string
	abConcurrency int
	abQuiet       bool
	abFailFast    bool
)

// batchResult is the outcome of one dataset in a batch, kept in input order.
type batchResult struct {
	path string
	out  []byte
	err  error
}

// expandInputs resolves globs and literal paths into a sorted, de-duplicated file list.
func expandInputs(args []string) []string {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files
}

var analyzeBatchCmd = &cobra.Command{
	Use:   "analyze-batch <files...>",
	Short: "Analyze multiple CSV/TSV/XLSX files concurrently with progress output",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := expandInputs(args)
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}
		opt, popt, format, err := abFlags.resolve(cmd)
		if err != nil {
			return err
		}
		limit := abConcurrency
		if !cmd.Flags().Changed("concurrency") {
			limit = cfg.BatchConcurrency
		}
		if limit < 1 {
			limit = 1
		}
		if abOutputDir != "" {
			if err := utils.EnsureDir(abOutputDir); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
		}

		log := logging.With(zap.String("batch_id", uuid.NewString()))
		log.Info("starting batch", zap.Int("files", len(files)), zap.Int("concurrency", limit))

		total := len(files)
		results := make([]batchResult, total)
		var progressMu sync.Mutex
		g, ctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(limit)
		for i, path := range files {
			i, path := i, path
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					results[i] = batchResult{path: path, err: context.Cause(ctx)}
					return nil
				}
				if !abQuiet {
					progressMu.Lock()
					fmt.Fprintf(cmd.ErrOrStderr(), "[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
					progressMu.Unlock()
				}
				res := batchResult{path: path}
				rep, err := analyzeFile("batch", path, popt, opt)
				if err == nil {
					res.out, err = report.Render(rep, format)
				}
				res.err = err
				results[i] = res
				if err != nil && abFailFast {
					return err
				}
				return nil
			})
		}
		firstErr := g.Wait()

		// Emit in input order so output is deterministic regardless of scheduling
		failed := 0
		w := cmd.OutOrStdout()
		for _, res := range results {
			if res.err != nil {
				failed++
				log.Error("dataset failed", zap.String("file", res.path), zap.Error(res.err))
				fmt.Fprintf(cmd.ErrOrStderr(), "✗ %s: %v\n", filepath.Base(res.path), res.err)
				continue
			}
			if abOutputDir != "" {
				outFile := utils.UniquePath(filepath.Join(abOutputDir, utils.ReportName(res.path, format.Extension())))
				if err := utils.SafeWriteFile(outFile, res.out); err != nil {
					return fmt.Errorf("write report: %w", err)
				}
				if !abQuiet {
					fmt.Fprintf(w, "✓ Wrote analysis of %s to %s\n", filepath.Base(res.path), outFile)
				}
				continue
			}
			if format == report.Markdown {
				fmt.Fprintf(w, "# %s\n\n", res.path)
			}
			if _, err := w.Write(res.out); err != nil {
				return err
			}
			fmt.Fprintln(w)
		}
		log.Info("batch finished", zap.Int("files", total), zap.Int("failed", failed))
		if firstErr != nil {
			return firstErr
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d datasets failed", failed, total)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeBatchCmd)
	abFlags.register(analyzeBatchCmd)
	analyzeBatchCmd.Flags().StringVar(&abOutputDir, "output-dir", "", "directory to write one report per dataset (stdout if omitted)")
	analyzeBatchCmd.Flags().IntVar(&abConcurrency, "concurrency", 0, "datasets analyzed in parallel (default from config)")
	analyzeBatchCmd.Flags().BoolVar(&abQuiet, "quiet", false, "suppress progress and non-essential output")
	analyzeBatchCmd.Flags().BoolVar(&abFailFast, "fail-fast", false, "stop scheduling new datasets after the first failure")
}
