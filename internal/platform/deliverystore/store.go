// Package deliverystore is the durable local fallback store for generated
// reports. Every report is written here before any network delivery attempt,
// so a generated report survives transport failures and process restarts.
// It defines the Store interface, a LevelDB-backed implementation, and an
// in-memory implementation for testing and development.
package deliverystore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound         = errors.New("report not found")
	ErrMissingRecipient = errors.New("recipient is required")
)

// Status tracks a stored report's delivery bookkeeping.
type Status string

const (
	StatusPending   Status = "pending"
	StatusDelivered Status = "delivered"
)

// Handle identifies a stored report.
type Handle string

// Record is the stored form of a rendered report.
type Record struct {
	ID          string     `json:"id"`
	Recipient   string     `json:"recipient"`
	Subject     string     `json:"subject"`
	Body        string     `json:"body"`
	GeneratedAt time.Time  `json:"generated_at"`
	Status      Status     `json:"status"`
	StoredAt    time.Time  `json:"stored_at"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
}

// Store defines the contract for delivery store backends. Persist must be
// synchronous: a nil error means the record is durable. MarkDelivered is
// best-effort bookkeeping.
type Store interface {
	Persist(ctx context.Context, rec Record) (Handle, error)
	Get(ctx context.Context, h Handle) (*Record, error)
	ListPending(ctx context.Context) ([]*Record, error)
	MarkDelivered(ctx context.Context, h Handle) error
	Close() error
}

func prepare(rec Record) (Record, error) {
	if rec.Recipient == "" {
		return rec, ErrMissingRecipient
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	rec.Status = StatusPending
	rec.StoredAt = time.Now().UTC()
	return rec, nil
}
