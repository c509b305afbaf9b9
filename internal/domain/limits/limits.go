// Package limits holds the accepted ranges of the user-facing parameters that
// are checked before a calculation reaches the calculators.
package limits

import (
	"errors"
	"fmt"
	"sort"
)

// Parameter names.
const (
	CutoffFrequency = "cutoff_frequency"
	Volume          = "volume"
	PopulationSize  = "population_size"
)

// Sentinel kinds for range validation errors.
var (
	ErrOutOfRange       = errors.New("value out of range")
	ErrUnknownParameter = errors.New("unknown parameter")
	ErrInvalidRange     = errors.New("invalid range")
)

// Range is the closed interval a parameter must fall in, plus the value the
// UI offers by default.
type Range struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Default float64 `json:"default"`
}

// Contains reports whether v lies in [Min, Max].
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

func (r Range) validate(name string) error {
	if !(r.Min <= r.Max) {
		return fmt.Errorf("%w: %s min %g is above max %g", ErrInvalidRange, name, r.Min, r.Max)
	}
	if !r.Contains(r.Default) {
		return fmt.Errorf("%w: %s default %g is outside [%g, %g]", ErrInvalidRange, name, r.Default, r.Min, r.Max)
	}
	return nil
}

// Limits maps parameter names to their ranges. It is read-only after New.
type Limits struct {
	ranges map[string]Range
}

// Option customises a Limits.
type Option func(map[string]Range)

// WithRange sets or replaces the range for name.
func WithRange(name string, r Range) Option {
	return func(m map[string]Range) { m[name] = r }
}

// Defaults returns the stock ranges.
func Defaults() map[string]Range {
	return map[string]Range{
		CutoffFrequency: {Min: 1e10, Max: 1e25, Default: 1e20},
		Volume:          {Min: 1e-20, Max: 1e10, Default: 1.0},
		PopulationSize:  {Min: 1, Max: 10000, Default: 100},
	}
}

// New builds Limits from the defaults and opts. Every range must be ordered
// and contain its default.
func New(opts ...Option) (*Limits, error) {
	ranges := Defaults()
	for _, opt := range opts {
		opt(ranges)
	}
	for name, r := range ranges {
		if err := r.validate(name); err != nil {
			return nil, err
		}
	}
	return &Limits{ranges: ranges}, nil
}

// Range returns the range for name.
func (l *Limits) Range(name string) (Range, bool) {
	r, ok := l.ranges[name]
	return r, ok
}

// All returns a copy of every range.
func (l *Limits) All() map[string]Range {
	out := make(map[string]Range, len(l.ranges))
	for n, r := range l.ranges {
		out[n] = r
	}
	return out
}

// Validate checks value against the range of name.
func (l *Limits) Validate(name string, value float64) error {
	r, ok := l.Range(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownParameter, name)
	}
	if !r.Contains(value) {
		return &RangeError{Param: name, Value: value, Range: r}
	}
	return nil
}

// Check reports per parameter whether its value is in range. Unknown
// parameters are reported as invalid.
func (l *Limits) Check(params map[string]float64) map[string]bool {
	out := make(map[string]bool, len(params))
	for name, v := range params {
		out[name] = l.Validate(name, v) == nil
	}
	return out
}

// ValidateAll validates params in name order and returns every violation
// joined.
func (l *Limits) ValidateAll(params map[string]float64) error {
	names := make([]string, 0, len(params))
	for n := range params {
		names = append(names, n)
	}
	sort.Strings(names)

	var errs []error
	for _, n := range names {
		if err := l.Validate(n, params[n]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RangeError reports a value outside its configured range.
type RangeError struct {
	Param string
	Value float64
	Range Range
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s %g must be between %g and %g", e.Param, e.Value, e.Range.Min, e.Range.Max)
}

// Is makes errors.Is(err, ErrOutOfRange) hold.
func (e *RangeError) Is(target error) bool { return target == ErrOutOfRange }
