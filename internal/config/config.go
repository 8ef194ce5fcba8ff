package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Report  ReportConfig  `mapstructure:"report"`
	Log     LogConfig     `mapstructure:"log"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

// ReportConfig tunes report generation.
type ReportConfig struct {
	// SSIMThreshold separates GOOD from SOFT comparisons.
	SSIMThreshold float64 `mapstructure:"ssim_threshold"`

	// ExcludeDirs lists grouping directories whose rows are dropped from
	// the report table and summary (e.g. emulation staging output).
	ExcludeDirs []string `mapstructure:"exclude_dirs"`

	// TopFailures is how many highest-MSE rows the summary keeps.
	TopFailures int `mapstructure:"top_failures"`

	// Workers bounds the image-comparison worker pool. 1 means fully
	// sequential.
	Workers int `mapstructure:"workers"`

	// ExportName is the table file name written under the run root.
	ExportName string `mapstructure:"export_name"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TracingConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	SampleRate   float64 `mapstructure:"sample_rate"`
}

// Validate checks configuration for issues and returns warnings.
func (c *Config) Validate() []string {
	var warnings []string

	if c.Report.SSIMThreshold < 0 || c.Report.SSIMThreshold > 1 {
		warnings = append(warnings, fmt.Sprintf("report ssim_threshold %.2f is outside [0.0, 1.0]", c.Report.SSIMThreshold))
	}
	if c.Report.Workers < 1 {
		warnings = append(warnings, fmt.Sprintf("report workers %d is below 1, using 1", c.Report.Workers))
	}
	if c.Report.TopFailures < 0 {
		warnings = append(warnings, fmt.Sprintf("report top_failures %d is negative", c.Report.TopFailures))
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		warnings = append(warnings, fmt.Sprintf("tracing sample_rate %.2f is outside [0.0, 1.0]", c.Tracing.SampleRate))
	}

	return warnings
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("report.ssim_threshold", 0.95)
	v.SetDefault("report.exclude_dirs", []string{"emulation"})
	v.SetDefault("report.top_failures", 5)
	v.SetDefault("report.workers", 1)
	v.SetDefault("report.export_name", "report.csv")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("tracing.sample_rate", 1.0)
}

// Load reads configuration from file and environment. An empty path skips the
// file and uses defaults plus environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("RENDERWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return &cfg, nil
}
