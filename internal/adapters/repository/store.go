// Package repository keeps the recent calculation records so a result that
// was already shown can be fetched or exported again by id.
package repository

import (
	"context"
	"time"

	"github.com/okian/scicalc/internal/domain/calc"
)

// Calculator names stored on records.
const (
	CalculatorVacuum   = "vacuum_energy"
	CalculatorGenetics = "quantum_genetics"
)

// Record is one successful calculation.
type Record struct {
	ID         string        `json:"id"`
	Calculator string        `json:"calculator"`
	Inputs     any           `json:"inputs"`
	Results    calc.Results  `json:"results"`
	CreatedAt  time.Time     `json:"created_at"`
	Duration   time.Duration `json:"-"`
}

// DurationMs is the calculation time in milliseconds.
func (r Record) DurationMs() float64 {
	return float64(r.Duration) / float64(time.Millisecond)
}

// Store provides access to the calculation history.
type Store interface {
	// Save stores rec. The ID must be non-empty and unused.
	Save(ctx context.Context, rec Record) error

	// Get returns the record with id.
	// Returns ErrNotFound if the id is unknown or was evicted.
	Get(ctx context.Context, id string) (Record, error)

	// Recent returns up to n records, newest first.
	Recent(ctx context.Context, n int) ([]Record, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) int

	// Capacity returns the maximum number of records held.
	Capacity() int
}
