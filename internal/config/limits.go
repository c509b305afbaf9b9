package config

import (
	"fmt"

	"github.com/okian/scicalc/internal/domain/limits"
)

// Limits builds the parameter ranges from the flat *_min/_max/_default keys.
func (c *Config) Limits() (*limits.Limits, error) {
	l, err := limits.New(
		limits.WithRange(limits.CutoffFrequency, limits.Range{
			Min: c.CutoffFrequencyMin, Max: c.CutoffFrequencyMax, Default: c.CutoffFrequencyDefault,
		}),
		limits.WithRange(limits.Volume, limits.Range{
			Min: c.VolumeMin, Max: c.VolumeMax, Default: c.VolumeDefault,
		}),
		limits.WithRange(limits.PopulationSize, limits.Range{
			Min: c.PopulationSizeMin, Max: c.PopulationSizeMax, Default: c.PopulationSizeDefault,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return l, nil
}
