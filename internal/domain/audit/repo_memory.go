package audit

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryRepo is a thread-safe, in-memory Repository for testing/dev.
type MemoryRepo struct {
	mu      sync.RWMutex
	entries []*Entry

	// FailInsert forces Insert to fail, for exercising the swallow path.
	FailInsert error
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

func (r *MemoryRepo) Insert(_ context.Context, e *Entry) error {
	if r.FailInsert != nil {
		return r.FailInsert
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}

	r.mu.Lock()
	entry := *e
	r.entries = append(r.entries, &entry)
	r.mu.Unlock()
	return nil
}

func (r *MemoryRepo) ListByRecipient(_ context.Context, recipient string, limit, offset int) ([]*Entry, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*Entry
	for _, e := range r.entries {
		if e.RecipientAddress == recipient {
			entry := *e
			matched = append(matched, &entry)
		}
	}

	total := len(matched)
	if offset > len(matched) {
		offset = len(matched)
	}
	end := offset + limit
	if limit <= 0 || end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

// Entries returns a snapshot of everything recorded so far.
func (r *MemoryRepo) Entries() []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Entry, len(r.entries))
	copy(out, r.entries)
	return out
}
