package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/scicalc/internal/domain/calc"
)

func newRecord(id string) Record {
	var res calc.Results
	res.Set("feasibilityIndex", 1.5)
	return Record{
		ID:         id,
		Calculator: CalculatorVacuum,
		Results:    res,
		CreatedAt:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Duration:   1500 * time.Microsecond,
	}
}

func TestMemoryStore_BasicOperations(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if count := store.Count(ctx); count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}
	if store.Capacity() != defaultCapacity {
		t.Errorf("expected default capacity %d, got %d", defaultCapacity, store.Capacity())
	}

	if err := store.Save(ctx, newRecord("a")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec, err := store.Get(ctx, "a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Calculator != CalculatorVacuum {
		t.Errorf("expected calculator %q, got %q", CalculatorVacuum, rec.Calculator)
	}
	if rec.DurationMs() != 1.5 {
		t.Errorf("expected 1.5ms, got %f", rec.DurationMs())
	}

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := store.Save(ctx, newRecord("a")); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("expected ErrDuplicateID, got %v", err)
	}
	if err := store.Save(ctx, newRecord("")); !errors.Is(err, ErrInvalidID) {
		t.Errorf("expected ErrInvalidID, got %v", err)
	}
	if _, err := store.Recent(ctx, 0); !errors.Is(err, ErrInvalidLimit) {
		t.Errorf("expected ErrInvalidLimit, got %v", err)
	}
}

func TestMemoryStore_Eviction(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(WithCapacity(3))

	for i := 1; i <= 5; i++ {
		if err := store.Save(ctx, newRecord(fmt.Sprintf("r%d", i))); err != nil {
			t.Fatalf("save r%d: %v", i, err)
		}
	}

	if count := store.Count(ctx); count != 3 {
		t.Errorf("expected count 3, got %d", count)
	}
	for _, id := range []string{"r1", "r2"} {
		if _, err := store.Get(ctx, id); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected %s to be evicted, got %v", id, err)
		}
	}

	recent, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"r5", "r4", "r3"}
	if len(recent) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(recent))
	}
	for i, rec := range recent {
		if rec.ID != want[i] {
			t.Errorf("recent[%d]: expected %s, got %s", i, want[i], rec.ID)
		}
	}

	// an evicted id can be stored again
	if err := store.Save(ctx, newRecord("r1")); err != nil {
		t.Errorf("expected evicted id to be reusable, got %v", err)
	}
}

func TestMemoryStore_RecentWhileFilling(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(WithCapacity(10))
	for _, id := range []string{"x", "y", "z"} {
		if err := store.Save(ctx, newRecord(id)); err != nil {
			t.Fatal(err)
		}
	}

	recent, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 || recent[0].ID != "z" || recent[1].ID != "y" {
		t.Errorf("unexpected order: %+v", recent)
	}
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := NewMemoryStore()

	if err := store.Save(ctx, newRecord("a")); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if _, err := store.Get(ctx, "a"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestMemoryStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(WithCapacity(50))

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				id := fmt.Sprintf("g%d-%d", g, i)
				if err := store.Save(ctx, newRecord(id)); err != nil {
					t.Errorf("save %s: %v", id, err)
				}
				_, _ = store.Recent(ctx, 5)
			}
		}(g)
	}
	wg.Wait()

	if count := store.Count(ctx); count != 50 {
		t.Errorf("expected count 50, got %d", count)
	}
}
