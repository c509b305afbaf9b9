package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/scicalc/internal/adapters/export"
	"github.com/okian/scicalc/internal/adapters/repository"
	service "github.com/okian/scicalc/internal/app"
	"github.com/okian/scicalc/internal/domain/calc"
	"github.com/okian/scicalc/internal/domain/limits"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest  = errors.New("bad request")
	ErrValidation  = errors.New("validation failed")
	ErrRateLimited = errors.New("rate limit exceeded")
)

// Error is an API failure tagged with the operation and a sentinel kind.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewKind returns an Error of kind for op.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// WrapKind tags err with op and kind.
func WrapKind(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// errorStatus maps a failure to its HTTP status and error code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest, "validation_failed"
	case errors.Is(err, ErrBadRequest), errors.Is(err, export.ErrEmptyResults):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, limits.ErrOutOfRange):
		return http.StatusUnprocessableEntity, "out_of_range"
	case errors.Is(err, calc.ErrDomain):
		return http.StatusUnprocessableEntity, "domain_error"
	case errors.Is(err, calc.ErrArithmetic):
		return http.StatusUnprocessableEntity, "arithmetic_error"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, export.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType, "unsupported_format"
	case errors.Is(err, export.ErrExportTooLarge):
		return http.StatusRequestEntityTooLarge, "export_too_large"
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, service.ErrBusy):
		return http.StatusServiceUnavailable, "busy"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
