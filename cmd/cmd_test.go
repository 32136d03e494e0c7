package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	cfgpkg "github.com/KaramelBytes/edaloom-cli/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const peopleCSV = "age,income,city\n25,30000,Paris\n35,45000,Lyon\n45,50000,Paris\n"

// resetFlags clears sticky flag values and Changed state left by earlier invocations.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCmd executes the root command with args and returns what it wrote to stdout.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func writeData(t *testing.T, dir, name, body string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestAnalyze_MarkdownToStdout(t *testing.T) {
	home := isolate(t)
	p := writeData(t, home, "people.csv", peopleCSV)

	out, err := runCmd(t, "analyze", p)
	require.NoError(t, err)
	assert.Contains(t, out, "[DATASET SUMMARY]")
	assert.Contains(t, out, "[INSIGHTS]")
	assert.Contains(t, out, "Dataset contains 3 rows and 3 columns")
}

func TestAnalyze_JSONToFile(t *testing.T) {
	home := isolate(t)
	p := writeData(t, home, "people.csv", peopleCSV)
	outPath := filepath.Join(home, "reports", "people.json")

	out, err := runCmd(t, "analyze", p, "--format", "json", "-o", outPath, "--bins", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Wrote analysis to "+outPath)

	b, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var doc struct {
		Name       string `json:"name"`
		Rows       int    `json:"rows"`
		Histograms map[string]struct {
			Counts []int `json:"counts"`
		} `json:"histograms"`
	}
	require.NoError(t, json.Unmarshal(b, &doc))
	assert.Equal(t, "people.csv", doc.Name)
	assert.Equal(t, 3, doc.Rows)
	require.Contains(t, doc.Histograms, "age")
	assert.Len(t, doc.Histograms["age"].Counts, 4)
}

func TestAnalyze_ConfigFileSetsFormat(t *testing.T) {
	home := isolate(t)
	p := writeData(t, home, "people.tsv", strings.ReplaceAll(peopleCSV, ",", "\t"))
	cfgPath := writeData(t, home, "edaloom.yaml", "output_format: yaml\n")

	out, err := runCmd(t, "--config", cfgPath, "analyze", p)
	require.NoError(t, err)
	assert.Contains(t, out, "rows: 3")
	assert.Contains(t, out, "age__income")
}

func TestAnalyze_Errors(t *testing.T) {
	home := isolate(t)
	p := writeData(t, home, "people.csv", peopleCSV)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "missing file", args: []string{"analyze", filepath.Join(home, "nope.csv")}, want: "read file"},
		{name: "bad format", args: []string{"analyze", p, "--format", "pdf"}, want: "unsupported format"},
		{name: "bad delimiter", args: []string{"analyze", p, "--delimiter", "ab"}, want: "invalid delimiter"},
		{name: "legacy xls", args: []string{"analyze", writeData(t, home, "old.xls", "x")}, want: "unsupported dataset format"},
		{name: "bad group column", args: []string{"analyze", p, "--group-by", "nope"}, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCmd(t, tt.args...)
			if tt.want == "" {
				// group comparison problems degrade to a report warning
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestAnalyzeBatch_OutputDirAndSuppressSamples(t *testing.T) {
	home := isolate(t)

	// Two CSV files with the same basename in different directories
	writeData(t, filepath.Join(home, "d1"), "metrics.csv", "col1,col2\nA,1\nB,2\nC,3\n")
	writeData(t, filepath.Join(home, "d2"), "metrics.csv", "col1,col2\nA,1\nB,2\nC,3\n")
	outDir := filepath.Join(home, "out")

	_, err := runCmd(t, "analyze-batch", filepath.Join(home, "d*", "metrics.csv"),
		"--output-dir", outDir, "--sample-rows", "0", "--quiet", "--concurrency", "2")
	require.NoError(t, err)

	b1 := filepath.Join(outDir, "metrics.report.md")
	b2 := filepath.Join(outDir, "metrics.report__2.md")
	for _, p := range []string{b1, b2} {
		body, err := os.ReadFile(p)
		require.NoError(t, err, p)
		assert.Contains(t, string(body), "[DATASET SUMMARY]")
		assert.NotContains(t, string(body), "[HEAD AND SAMPLE ROWS]")
	}
}

func TestAnalyzeBatch_StdoutInInputOrder(t *testing.T) {
	home := isolate(t)
	a := writeData(t, home, "a.csv", "x,y\n1,2\n2,4\n3,7\n")
	b := writeData(t, home, "b.csv", "x,y\n1,1\n2,1\n3,2\n")

	out, err := runCmd(t, "analyze-batch", b, a, "--quiet")
	require.NoError(t, err)
	ia := strings.Index(out, "# "+a)
	ib := strings.Index(out, "# "+b)
	require.True(t, ia >= 0 && ib >= 0, out)
	assert.Less(t, ia, ib)
}

func TestAnalyzeBatch_PartialFailure(t *testing.T) {
	home := isolate(t)
	good := writeData(t, home, "good.csv", peopleCSV)
	bad := writeData(t, home, "legacy.xls", "x")

	out, err := runCmd(t, "analyze-batch", good, bad, "--format", "json", "--quiet")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 datasets failed")
	assert.Contains(t, out, `"name": "good.csv"`)
}

func TestAnalyzeBatch_NoMatches(t *testing.T) {
	home := isolate(t)
	_, err := runCmd(t, "analyze-batch", filepath.Join(home, "*.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no input files matched")
}

func TestConfig_SetThenShow(t *testing.T) {
	home := isolate(t)

	out, err := runCmd(t, "config", "set", "clusters", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "Saved config")
	_, err = os.Stat(filepath.Join(home, ".edaloom", "config.yaml"))
	require.NoError(t, err)

	out, err = runCmd(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "clusters: 4")
	assert.Contains(t, out, "histogram_bins: 10")

	_, err = runCmd(t, "config", "set", "clusters", "0")
	assert.Error(t, err)
	_, err = runCmd(t, "config", "set", "nonsense", "1")
	assert.Error(t, err)
}

func TestSetConfigValue(t *testing.T) {
	tests := []struct {
		key, val string
		wantErr  bool
		check    func(t *testing.T, c *cfgpkg.Global)
	}{
		{key: "histogram_bins", val: "20", check: func(t *testing.T, c *cfgpkg.Global) { assert.Equal(t, 20, c.HistogramBins) }},
		{key: "outlier_z_threshold", val: "3.1", check: func(t *testing.T, c *cfgpkg.Global) { assert.Equal(t, 3.1, c.OutlierZThreshold) }},
		{key: "correlation_threshold", val: "0.5", check: func(t *testing.T, c *cfgpkg.Global) { assert.Equal(t, 0.5, c.CorrelationThreshold) }},
		{key: "sample_rows", val: "0", check: func(t *testing.T, c *cfgpkg.Global) { assert.Equal(t, 0, c.SampleRows) }},
		{key: "delimiter", val: "tab", check: func(t *testing.T, c *cfgpkg.Global) { assert.Equal(t, "tab", c.Delimiter) }},
		{key: "output_format", val: "yml", check: func(t *testing.T, c *cfgpkg.Global) { assert.Equal(t, "yaml", c.OutputFormat) }},
		{key: "log_level", val: "DEBUG", check: func(t *testing.T, c *cfgpkg.Global) { assert.Equal(t, "debug", c.LogLevel) }},
		{key: "server_body_limit", val: "8M", check: func(t *testing.T, c *cfgpkg.Global) { assert.Equal(t, "8M", c.ServerBodyLimit) }},
		{key: "correlation_threshold", val: "1.5", wantErr: true},
		{key: "iqr_multiplier", val: "-1", wantErr: true},
		{key: "sample_rows", val: "-2", wantErr: true},
		{key: "log_level", val: "loud", wantErr: true},
		{key: "log_encoding", val: "xml", wantErr: true},
		{key: "server_body_limit", val: "lots", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.val, func(t *testing.T) {
			c := cfgpkg.Defaults()
			err := setConfigValue(c, tt.key, tt.val)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, c)
		})
	}
}

func TestExpandInputs(t *testing.T) {
	dir := t.TempDir()
	a := writeData(t, dir, "a.csv", "x\n1\n")
	b := writeData(t, dir, "b.csv", "x\n1\n")
	got := expandInputs([]string{filepath.Join(dir, "*.csv"), a, filepath.Join(dir, "missing.csv")})
	assert.Equal(t, []string{a, b}, got)
}
