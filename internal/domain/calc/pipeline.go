// Package calc holds the machinery shared by the calculators: an ordered
// pipeline of named formula steps, the ordered result mapping, the error
// taxonomy and the display formatters.
package calc

import (
	"fmt"
	"math"
)

// Values holds the raw step outputs of one pipeline run, keyed by step name.
type Values map[string]float64

// Step is one named formula. Fn must be a pure function of the call input
// and the values produced by the steps listed in Needs.
type Step[I any] struct {
	Name  string
	Needs []string
	Fn    func(in I, v Values) (float64, error)
}

// Pipeline runs its steps in declaration order.
type Pipeline[I any] struct {
	op    string
	steps []Step[I]
}

// NewPipeline checks that every step only needs values produced by an
// earlier step, so the dependency order is explicit.
func NewPipeline[I any](op string, steps ...Step[I]) (*Pipeline[I], error) {
	seen := make(map[string]bool, len(steps))
	for _, s := range steps {
		if s.Name == "" || s.Fn == nil {
			return nil, fmt.Errorf("%s: step must have a name and a function", op)
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("%s: duplicate step %q", op, s.Name)
		}
		for _, dep := range s.Needs {
			if !seen[dep] {
				return nil, fmt.Errorf("%s: step %q needs %q before it is computed", op, s.Name, dep)
			}
		}
		seen[s.Name] = true
	}
	return &Pipeline[I]{op: op, steps: steps}, nil
}

// MustPipeline is NewPipeline that panics on an invalid step order.
func MustPipeline[I any](op string, steps ...Step[I]) *Pipeline[I] {
	p, err := NewPipeline(op, steps...)
	if err != nil {
		panic(err)
	}
	return p
}

// Run evaluates every step. The first failing or non-finite step aborts the
// run; no partial values are returned.
func (p *Pipeline[I]) Run(in I) (Values, error) {
	v := make(Values, len(p.steps))
	for _, s := range p.steps {
		out, err := s.Fn(in, v)
		if err == nil {
			err = CheckFinite(s.Name, out)
		}
		if err != nil {
			return nil, &CalculationError{Op: p.op, Step: s.Name, Err: err}
		}
		v[s.Name] = out
	}
	return v, nil
}

// CheckFinite returns an ArithmeticError when v is NaN or infinite.
func CheckFinite(step string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &ArithmeticError{Step: step, Value: v}
	}
	return nil
}
