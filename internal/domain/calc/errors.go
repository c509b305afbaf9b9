package calc

import (
	"errors"
	"fmt"
)

// Sentinel kinds for calculation errors. These allow errors.Is from callers.
var (
	ErrDomain     = errors.New("domain error")
	ErrArithmetic = errors.New("arithmetic error")
)

// DomainError reports an input that violates a formula's intrinsic precondition.
type DomainError struct {
	Param  string
	Value  float64
	Reason string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s %s (got %g)", e.Param, e.Reason, e.Value)
}

// Is makes errors.Is(err, ErrDomain) hold for every DomainError.
func (e *DomainError) Is(target error) bool { return target == ErrDomain }

// Domainf builds a DomainError for param.
func Domainf(param string, value float64, format string, args ...any) error {
	return &DomainError{Param: param, Value: value, Reason: fmt.Sprintf(format, args...)}
}

// ArithmeticError reports a step that produced a non-finite value.
type ArithmeticError struct {
	Step  string
	Value float64
}

func (e *ArithmeticError) Error() string {
	return fmt.Sprintf("%s produced a non-finite value (%g)", e.Step, e.Value)
}

// Is makes errors.Is(err, ErrArithmetic) hold for every ArithmeticError.
func (e *ArithmeticError) Is(target error) bool { return target == ErrArithmetic }

// CalculationError is the single failure surfaced by an aggregate calculation.
// Op names the aggregate operation, Step the computation that failed.
type CalculationError struct {
	Op   string
	Step string
	Err  error
}

func (e *CalculationError) Error() string {
	return fmt.Sprintf("error in %s: error calculating %s: %v", e.Op, e.Step, e.Err)
}

func (e *CalculationError) Unwrap() error { return e.Err }

// Kind classifies err as "domain_error", "arithmetic_error" or "unknown".
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrDomain):
		return "domain_error"
	case errors.Is(err, ErrArithmetic):
		return "arithmetic_error"
	default:
		return "unknown"
	}
}
