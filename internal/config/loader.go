package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variables read by Load.
const (
	EnvPrefix     = "SCICALC_"
	EnvConfigFile = "SCICALC_CONFIG"
)

// listKeys are the settings holding a list.
var listKeys = map[string]struct{}{
	"export_formats": {},
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if SCICALC_CONFIG is set
//  3. env (prefix SCICALC_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// Map env keys like SCICALC_HISTORY_SIZE -> history_size (flat keys).
	// Preserve underscores to match koanf tags on the struct. List keys take
	// comma separated values.
	envProvider := env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, any) {
		key = strings.TrimPrefix(strings.ToLower(key), strings.ToLower(EnvPrefix))
		if _, ok := listKeys[key]; ok {
			return key, splitList(value)
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	// the decoder merges slices element-wise, so a configured list replaces
	// the default instead of overlaying it
	if k.Exists("export_formats") {
		cfg.ExportFormats = nil
	}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid setting joined into one error.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...)))
		}
	}

	check(c.Addr != "", "addr must not be empty")
	check(c.MaxConcurrentCalculations > 0, "max_concurrent_calculations must be positive, got %d", c.MaxConcurrentCalculations)
	check(c.CalculationTimeoutMS > 0, "calculation_timeout_ms must be positive, got %d", c.CalculationTimeoutMS)
	check(!c.EnableRateLimiting || c.MaxRequestsPerMinute > 0, "max_requests_per_minute must be positive, got %d", c.MaxRequestsPerMinute)
	check(c.HistorySize > 0, "history_size must be positive, got %d", c.HistorySize)
	check(c.MaxExportSize > 0, "max_export_size must be positive, got %d", c.MaxExportSize)
	check(len(c.ExportFormats) > 0, "export_formats must not be empty")
	for _, f := range c.ExportFormats {
		switch strings.ToLower(f) {
		case "json", "csv", "xlsx":
		default:
			check(false, "unknown export format %q", f)
		}
	}
	check(c.CutoffFrequencyMin <= c.CutoffFrequencyMax, "cutoff_frequency_min exceeds cutoff_frequency_max")
	check(c.VolumeMin <= c.VolumeMax, "volume_min exceeds volume_max")
	check(c.PopulationSizeMin <= c.PopulationSizeMax, "population_size_min exceeds population_size_max")

	return errors.Join(errs...)
}
