package deliverystore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

const recordPrefix = "report_"

// LevelDBStore persists report records in a local LevelDB directory. LevelDB
// handles concurrent writers; the mutex only guards the read-modify-write in
// MarkDelivered.
type LevelDBStore struct {
	db *leveldb.DB
	mu sync.Mutex
}

// OpenLevelDB opens (or creates) the store at path.
func OpenLevelDB(path string) (*LevelDBStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open delivery store: %w", err)
	}
	return &LevelDBStore{db: db}, nil
}

func recordKey(id string) []byte {
	return []byte(recordPrefix + id)
}

// Persist writes the record durably and returns its handle. The write
// completes (or fails) before the caller proceeds to delivery.
func (s *LevelDBStore) Persist(_ context.Context, rec Record) (Handle, error) {
	rec, err := prepare(rec)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("encode record: %w", err)
	}
	if err := s.db.Put(recordKey(rec.ID), data, nil); err != nil {
		return "", fmt.Errorf("write record: %w", err)
	}
	return Handle(rec.ID), nil
}

// Get returns the record for a handle.
func (s *LevelDBStore) Get(_ context.Context, h Handle) (*Record, error) {
	data, err := s.db.Get(recordKey(string(h)), nil)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read record: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return &rec, nil
}

// ListPending returns all records not yet marked delivered, oldest first.
func (s *LevelDBStore) ListPending(_ context.Context) ([]*Record, error) {
	iter := s.db.NewIterator(util.BytesPrefix([]byte(recordPrefix)), nil)
	defer iter.Release()

	var pending []*Record
	for iter.Next() {
		var rec Record
		if err := json.Unmarshal(iter.Value(), &rec); err != nil {
			return nil, fmt.Errorf("decode record %s: %w", iter.Key(), err)
		}
		if rec.Status == StatusPending {
			r := rec
			pending = append(pending, &r)
		}
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("scan records: %w", err)
	}

	sortByStoredAt(pending)
	return pending, nil
}

// MarkDelivered flips a record to delivered. Best-effort bookkeeping; the
// caller ignores failures.
func (s *LevelDBStore) MarkDelivered(ctx context.Context, h Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.Get(ctx, h)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	rec.Status = StatusDelivered
	rec.DeliveredAt = &now

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	return s.db.Put(recordKey(rec.ID), data, nil)
}

// Close releases the underlying database.
func (s *LevelDBStore) Close() error {
	return s.db.Close()
}

func sortByStoredAt(recs []*Record) {
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].StoredAt.Before(recs[j].StoredAt)
	})
}
