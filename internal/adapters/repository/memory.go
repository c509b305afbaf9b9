package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/scicalc/pkg/metrics"
)

const defaultCapacity = 1000

// MemoryStore is a bounded, in-memory Store. Records are kept in insertion
// order in a ring; saving into a full ring evicts the oldest record.
type MemoryStore struct {
	mu       sync.RWMutex
	capacity int
	ring     []string
	head     int // index of the oldest record once the ring is full
	byID     map[string]Record
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(s)
	}
	s.ring = make([]string, 0, s.capacity)
	s.byID = make(map[string]Record, s.capacity)
	return s
}

// Capacity returns the maximum number of records held.
func (s *MemoryStore) Capacity() int { return s.capacity }

func (s *MemoryStore) Save(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec.ID == "" {
		return ErrInvalidID
	}

	s.mu.Lock()
	if _, ok := s.byID[rec.ID]; ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicateID, rec.ID)
	}
	if len(s.ring) < s.capacity {
		s.ring = append(s.ring, rec.ID)
	} else {
		delete(s.byID, s.ring[s.head])
		s.ring[s.head] = rec.ID
		s.head = (s.head + 1) % s.capacity
	}
	s.byID[rec.ID] = rec
	n := len(s.byID)
	s.mu.Unlock()

	metrics.UpdateHistoryRecords(n)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	s.mu.RLock()
	rec, ok := s.byID[id]
	s.mu.RUnlock()
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec, nil
}

func (s *MemoryStore) Recent(ctx context.Context, n int) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, n)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	size := len(s.ring)
	n = min(n, size)
	out := make([]Record, 0, n)
	// newest is the slot just before head (wrapping), or the last appended
	// slot while the ring is still filling.
	newest := size - 1
	if size == s.capacity {
		newest = (s.head - 1 + size) % size
	}
	for i := 0; i < n; i++ {
		id := s.ring[(newest-i+size)%size]
		out = append(out, s.byID[id])
	}
	return out, nil
}

func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
