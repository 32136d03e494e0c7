package cmd

import (
	"fmt"
	"strconv"
	"strings"

	cfgpkg "github.com/KaramelBytes/edaloom-cli/internal/config"
	"github.com/KaramelBytes/edaloom-cli/internal/parser"
	"github.com/KaramelBytes/edaloom-cli/internal/report"
	"github.com/labstack/gommon/bytes"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set EDALoom configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "No config loaded")
			return nil
		}
		b, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(b)
		return err
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		if err := setConfigValue(cfg, args[0], args[1]); err != nil {
			return err
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

// setConfigValue validates val for key and stores it on c.
func setConfigValue(c *cfgpkg.Global, key, val string) error {
	positiveInts := map[string]*int{
		"histogram_bins":           &c.HistogramBins,
		"clusters":                 &c.Clusters,
		"kmeans_iterations":        &c.KMeansIterations,
		"top_values":               &c.TopValues,
		"server_read_timeout_sec":  &c.ServerReadTimeoutSec,
		"server_write_timeout_sec": &c.ServerWriteTimeoutSec,
		"batch_concurrency":        &c.BatchConcurrency,
	}
	positiveFloats := map[string]*float64{
		"outlier_z_threshold": &c.OutlierZThreshold,
		"severe_z_threshold":  &c.SevereZThreshold,
		"iqr_multiplier":      &c.IQRMultiplier,
	}
	unitFloats := map[string]*float64{
		"correlation_threshold":        &c.CorrelationThreshold,
		"strong_correlation_threshold": &c.StrongCorrelationThreshold,
	}

	if p, ok := positiveInts[key]; ok {
		i, err := strconv.Atoi(val)
		if err != nil || i < 1 {
			return fmt.Errorf("invalid positive int for %s: %v", key, val)
		}
		*p = i
		return nil
	}
	if p, ok := positiveFloats[key]; ok {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f <= 0 {
			return fmt.Errorf("invalid positive float for %s: %v", key, val)
		}
		*p = f
		return nil
	}
	if p, ok := unitFloats[key]; ok {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f < 0 || f > 1 {
			return fmt.Errorf("invalid float for %s: %v (use 0..1)", key, val)
		}
		*p = f
		return nil
	}

	switch key {
	case "sample_rows":
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid int for sample_rows: %v", val)
		}
		c.SampleRows = i
	case "delimiter":
		if _, err := parser.ParseDelimiter(val); err != nil {
			return err
		}
		c.Delimiter = val
	case "output_format":
		f, err := report.ParseFormat(val)
		if err != nil {
			return err
		}
		c.OutputFormat = string(f)
	case "log_level":
		if _, err := zapcore.ParseLevel(val); err != nil {
			return fmt.Errorf("invalid log_level: %s (use debug|info|warn|error)", val)
		}
		c.LogLevel = strings.ToLower(val)
	case "log_encoding":
		switch strings.ToLower(val) {
		case "json", "console":
			c.LogEncoding = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid log_encoding: %s (use json or console)", val)
		}
	case "server_addr":
		c.ServerAddr = val
	case "server_body_limit":
		if _, err := bytes.Parse(val); err != nil {
			return fmt.Errorf("invalid server_body_limit: %s (e.g. 32M)", val)
		}
		c.ServerBodyLimit = val
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}
