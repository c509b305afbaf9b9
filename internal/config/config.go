// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) initializer to build a Config with defaults.
// - Keys are flat so that SCICALC_<KEY> env variables map one to one.
package config

import (
	"context"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text, json or tint.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":5000".
	Addr string `koanf:"addr"`

	// Application identity stamped on exports and shown in the UI footer.
	AppName     string `koanf:"app_name"`
	AppVersion  string `koanf:"app_version"`
	AppAuthor   string `koanf:"app_author"`
	WatermarkID string `koanf:"watermark_id"`

	// MaxConcurrentCalculations bounds calculations running at once.
	MaxConcurrentCalculations int `koanf:"max_concurrent_calculations"`

	// CalculationTimeoutMS bounds the wait for a calculation slot.
	CalculationTimeoutMS int `koanf:"calculation_timeout_ms"`

	// SlowCalculationMS is the duration above which a calculation is logged
	// as slow.
	SlowCalculationMS int `koanf:"slow_calculation_ms"`

	// EnableRateLimiting turns the per-process request limiter on.
	EnableRateLimiting bool `koanf:"enable_rate_limiting"`

	// MaxRequestsPerMinute is the limiter budget.
	MaxRequestsPerMinute int `koanf:"max_requests_per_minute"`

	// HistorySize bounds the number of calculation records kept for export.
	HistorySize int `koanf:"history_size"`

	// MaxExportSize caps the rows of one export.
	MaxExportSize int `koanf:"max_export_size"`

	// ExportFormats lists the enabled export formats.
	ExportFormats []string `koanf:"export_formats"`

	// MetricsEnabled toggles Prometheus collection.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// Parameter ranges checked before a calculation runs.
	CutoffFrequencyMin     float64 `koanf:"cutoff_frequency_min"`
	CutoffFrequencyMax     float64 `koanf:"cutoff_frequency_max"`
	CutoffFrequencyDefault float64 `koanf:"cutoff_frequency_default"`
	VolumeMin              float64 `koanf:"volume_min"`
	VolumeMax              float64 `koanf:"volume_max"`
	VolumeDefault          float64 `koanf:"volume_default"`
	PopulationSizeMin      float64 `koanf:"population_size_min"`
	PopulationSizeMax      float64 `koanf:"population_size_max"`
	PopulationSizeDefault  float64 `koanf:"population_size_default"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:                  "info",
		LogFormat:                 "text",
		Addr:                      ":5000",
		AppName:                   "Scientific Calculator - Vacuum Energy & Quantum Genetics",
		AppVersion:                "1.0.0",
		AppAuthor:                 "Ervin Remus Radosavlevici",
		WatermarkID:               "ErvinRemusOfficial™",
		MaxConcurrentCalculations: 10,
		CalculationTimeoutMS:      30_000,
		SlowCalculationMS:         5_000,
		EnableRateLimiting:        true,
		MaxRequestsPerMinute:      100,
		HistorySize:               1000,
		MaxExportSize:             10_000,
		ExportFormats:             []string{"json", "csv", "xlsx"},
		MetricsEnabled:            true,
		CutoffFrequencyMin:        1e10,
		CutoffFrequencyMax:        1e25,
		CutoffFrequencyDefault:    1e20,
		VolumeMin:                 1e-20,
		VolumeMax:                 1e10,
		VolumeDefault:             1.0,
		PopulationSizeMin:         1,
		PopulationSizeMax:         10_000,
		PopulationSizeDefault:     100,
	}
}

// CalculationTimeout returns CalculationTimeoutMS as a duration.
func (c *Config) CalculationTimeout() time.Duration {
	return time.Duration(c.CalculationTimeoutMS) * time.Millisecond
}

// SlowCalculation returns SlowCalculationMS as a duration.
func (c *Config) SlowCalculation() time.Duration {
	return time.Duration(c.SlowCalculationMS) * time.Millisecond
}
