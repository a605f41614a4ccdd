// Package audit records prediction history as a best-effort, non-blocking
// side channel. Entries are handed to a background worker over a bounded
// queue; repository failures are logged and swallowed, never surfaced to the
// request that produced the entry.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const writeTimeout = 5 * time.Second

// Recorder owns the queue and the background worker goroutine.
type Recorder struct {
	repo   Repository
	queue  chan Entry
	logger zerolog.Logger

	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewRecorder starts the worker. queueSize bounds memory under a slow or
// unreachable datastore; a full queue drops entries rather than blocking
// the response path.
func NewRecorder(repo Repository, queueSize int, logger zerolog.Logger) *Recorder {
	if queueSize <= 0 {
		queueSize = 256
	}
	r := &Recorder{
		repo:   repo,
		queue:  make(chan Entry, queueSize),
		logger: logger,
	}
	r.wg.Add(1)
	go r.run()
	return r
}

// Record enqueues an entry without blocking. The caller's response has
// already been computed; nothing that happens here may change it.
func (r *Recorder) Record(e Entry) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	select {
	case r.queue <- e:
	default:
		r.logger.Warn().
			Str("recipient", e.RecipientAddress).
			Msg("audit queue full, dropping entry")
	}
}

// Close stops accepting entries and drains the queue. Deterministic for
// tests and shutdown: once Close returns, every accepted entry has been
// attempted.
func (r *Recorder) Close() {
	r.closeOnce.Do(func() {
		close(r.queue)
	})
	r.wg.Wait()
}

func (r *Recorder) run() {
	defer r.wg.Done()
	for e := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := r.repo.Insert(ctx, &e); err != nil {
			r.logger.Error().Err(err).
				Str("recipient", e.RecipientAddress).
				Msg("audit write failed")
		}
		cancel()
	}
}

// NopSink discards entries. Offline commands that have no database
// connection use it in place of a Recorder.
type NopSink struct{}

func (NopSink) Record(Entry) {}
