package notify

import (
	"context"
	"sync"
	"time"
)

// SendCall records one delivery attempt made through a MockTransport.
type SendCall struct {
	Recipient string
	Subject   string
	Body      string
}

// MockTransport is a test double for Transport. Delays simulate slow phases;
// a delay that never elapses within the caller's budget exercises the
// corresponding timeout tier.
type MockTransport struct {
	mu    sync.Mutex
	calls []SendCall

	ConnectDelay time.Duration
	AuthDelay    time.Duration
	SendDelay    time.Duration

	FailConnect error
	FailAuth    bool
	FailSend    error
}

// Send walks the phases with the configured delays and failures, honoring
// ctx cancellation at every step.
func (m *MockTransport) Send(ctx context.Context, msg Message, phase func(State)) error {
	m.mu.Lock()
	m.calls = append(m.calls, SendCall{Recipient: msg.Recipient, Subject: msg.Subject, Body: msg.Body})
	m.mu.Unlock()

	phase(StateConnecting)
	if err := wait(ctx, m.ConnectDelay); err != nil {
		return err
	}
	if m.FailConnect != nil {
		return m.FailConnect
	}

	phase(StateAuthenticating)
	if err := wait(ctx, m.AuthDelay); err != nil {
		return err
	}
	if m.FailAuth {
		return ErrAuth
	}

	phase(StateSending)
	if err := wait(ctx, m.SendDelay); err != nil {
		return err
	}
	return m.FailSend
}

// Calls returns a copy of recorded delivery attempts.
func (m *MockTransport) Calls() []SendCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SendCall, len(m.calls))
	copy(out, m.calls)
	return out
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
