package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/KaramelBytes/edaloom-cli/internal/analysis"
	"github.com/KaramelBytes/edaloom-cli/internal/logging"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Analysis tunables
	HistogramBins              int     `mapstructure:"histogram_bins" yaml:"histogram_bins"`
	Clusters                   int     `mapstructure:"clusters" yaml:"clusters"`
	KMeansIterations           int     `mapstructure:"kmeans_iterations" yaml:"kmeans_iterations"`
	OutlierZThreshold          float64 `mapstructure:"outlier_z_threshold" yaml:"outlier_z_threshold"`
	SevereZThreshold           float64 `mapstructure:"severe_z_threshold" yaml:"severe_z_threshold"`
	IQRMultiplier              float64 `mapstructure:"iqr_multiplier" yaml:"iqr_multiplier"`
	CorrelationThreshold       float64 `mapstructure:"correlation_threshold" yaml:"correlation_threshold"`
	StrongCorrelationThreshold float64 `mapstructure:"strong_correlation_threshold" yaml:"strong_correlation_threshold"`
	TopValues                  int     `mapstructure:"top_values" yaml:"top_values"`
	SampleRows                 int     `mapstructure:"sample_rows" yaml:"sample_rows"`

	// Input/output
	Delimiter    string `mapstructure:"delimiter" yaml:"delimiter"`
	OutputFormat string `mapstructure:"output_format" yaml:"output_format"`

	// Logging
	LogLevel    string `mapstructure:"log_level" yaml:"log_level"`
	LogEncoding string `mapstructure:"log_encoding" yaml:"log_encoding"`

	// HTTP server
	ServerAddr            string `mapstructure:"server_addr" yaml:"server_addr"`
	ServerBodyLimit       string `mapstructure:"server_body_limit" yaml:"server_body_limit"`
	ServerReadTimeoutSec  int    `mapstructure:"server_read_timeout_sec" yaml:"server_read_timeout_sec"`
	ServerWriteTimeoutSec int    `mapstructure:"server_write_timeout_sec" yaml:"server_write_timeout_sec"`

	// Batch
	BatchConcurrency int `mapstructure:"batch_concurrency" yaml:"batch_concurrency"`
}

// AnalysisOptions maps the analysis tunables onto analysis.Options.
func (c *Global) AnalysisOptions() analysis.Options {
	return analysis.Options{
		HistogramBins:              c.HistogramBins,
		Clusters:                   c.Clusters,
		KMeansIterations:           c.KMeansIterations,
		OutlierZThreshold:          c.OutlierZThreshold,
		SevereZThreshold:           c.SevereZThreshold,
		IQRMultiplier:              c.IQRMultiplier,
		CorrelationThreshold:       c.CorrelationThreshold,
		StrongCorrelationThreshold: c.StrongCorrelationThreshold,
		TopValues:                  c.TopValues,
		SampleRows:                 c.SampleRows,
	}
}

// LoggingConfig maps the logging keys onto logging.Config.
func (c *Global) LoggingConfig(debug bool) logging.Config {
	lc := logging.Config{Level: c.LogLevel, Encoding: c.LogEncoding}
	if debug {
		lc.Level = "debug"
		lc.Development = true
		lc.Encoding = "console"
	}
	return lc
}

// ReadTimeout returns the server read timeout.
func (c *Global) ReadTimeout() time.Duration {
	return time.Duration(c.ServerReadTimeoutSec) * time.Second
}

// WriteTimeout returns the server write timeout.
func (c *Global) WriteTimeout() time.Duration {
	return time.Duration(c.ServerWriteTimeoutSec) * time.Second
}

// Defaults returns the built-in configuration.
func Defaults() *Global {
	d := analysis.DefaultOptions()
	return &Global{
		HistogramBins:              d.HistogramBins,
		Clusters:                   d.Clusters,
		KMeansIterations:           d.KMeansIterations,
		OutlierZThreshold:          d.OutlierZThreshold,
		SevereZThreshold:           d.SevereZThreshold,
		IQRMultiplier:              d.IQRMultiplier,
		CorrelationThreshold:       d.CorrelationThreshold,
		StrongCorrelationThreshold: d.StrongCorrelationThreshold,
		TopValues:                  d.TopValues,
		SampleRows:                 d.SampleRows,
		Delimiter:                  "",
		OutputFormat:               "markdown",
		LogLevel:                   "warn",
		LogEncoding:                "console",
		ServerAddr:                 "127.0.0.1:8089",
		ServerBodyLimit:            "64M",
		ServerReadTimeoutSec:       60,
		ServerWriteTimeoutSec:      120,
		BatchConcurrency:           4,
	}
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.edaloom/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".edaloom")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("EDALOOM")
	v.AutomaticEnv()

	d := Defaults()
	v.SetDefault("histogram_bins", d.HistogramBins)
	v.SetDefault("clusters", d.Clusters)
	v.SetDefault("kmeans_iterations", d.KMeansIterations)
	v.SetDefault("outlier_z_threshold", d.OutlierZThreshold)
	v.SetDefault("severe_z_threshold", d.SevereZThreshold)
	v.SetDefault("iqr_multiplier", d.IQRMultiplier)
	v.SetDefault("correlation_threshold", d.CorrelationThreshold)
	v.SetDefault("strong_correlation_threshold", d.StrongCorrelationThreshold)
	v.SetDefault("top_values", d.TopValues)
	v.SetDefault("sample_rows", d.SampleRows)
	v.SetDefault("delimiter", d.Delimiter)
	v.SetDefault("output_format", d.OutputFormat)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_encoding", d.LogEncoding)
	v.SetDefault("server_addr", d.ServerAddr)
	v.SetDefault("server_body_limit", d.ServerBodyLimit)
	v.SetDefault("server_read_timeout_sec", d.ServerReadTimeoutSec)
	v.SetDefault("server_write_timeout_sec", d.ServerWriteTimeoutSec)
	v.SetDefault("batch_concurrency", d.BatchConcurrency)

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, ".edaloom"))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}
