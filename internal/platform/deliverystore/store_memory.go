package deliverystore

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a thread-safe, in-memory Store for testing and development.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record

	// FailPersist forces Persist to fail, for exercising the hard-failure path.
	FailPersist error
}

// NewMemoryStore returns a ready-to-use MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

func (s *MemoryStore) Persist(_ context.Context, rec Record) (Handle, error) {
	if s.FailPersist != nil {
		return "", s.FailPersist
	}
	rec, err := prepare(rec)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	r := rec
	s.records[rec.ID] = &r
	s.mu.Unlock()

	return Handle(rec.ID), nil
}

func (s *MemoryStore) Get(_ context.Context, h Handle) (*Record, error) {
	s.mu.RLock()
	rec, ok := s.records[string(h)]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	out := *rec
	return &out, nil
}

func (s *MemoryStore) ListPending(_ context.Context) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var pending []*Record
	for _, rec := range s.records {
		if rec.Status == StatusPending {
			r := *rec
			pending = append(pending, &r)
		}
	}
	sortByStoredAt(pending)
	return pending, nil
}

func (s *MemoryStore) MarkDelivered(_ context.Context, h Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[string(h)]
	if !ok {
		return ErrNotFound
	}
	now := time.Now().UTC()
	rec.Status = StatusDelivered
	rec.DeliveredAt = &now
	return nil
}

func (s *MemoryStore) Close() error { return nil }
