package history

import (
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryStore keeps records in process memory. Records are lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	records []Record
	closed  bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Append stores copies of records.
func (s *MemoryStore) Append(ctx context.Context, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.records = append(s.records, records...)
	return nil
}

// Query returns matching records, newest first.
func (s *MemoryStore) Query(ctx context.Context, q Query) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	out := []Record{}
	for _, r := range s.records {
		if q.Provider != "" && r.Provider != q.Provider {
			continue
		}
		if !q.Since.IsZero() && r.ProbedAt.Before(q.Since) {
			continue
		}
		out = append(out, r)
	}
	slices.SortStableFunc(out, func(a, b Record) int {
		return b.ProbedAt.Compare(a.ProbedAt)
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// Prune deletes records probed before the cutoff.
func (s *MemoryStore) Prune(ctx context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	n := len(s.records)
	s.records = slices.DeleteFunc(s.records, func(r Record) bool {
		return r.ProbedAt.Before(before)
	})
	return int64(n - len(s.records)), nil
}

// Close releases the records.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.records = nil
	return nil
}
