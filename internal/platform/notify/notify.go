// Package notify delivers rendered reports over SMTP under strict, tiered
// timeout budgets. Deliver never returns an error: every failure mode
// resolves to an Outcome value, because the delivery store already holds the
// report and a failed send is a degraded result, not a request failure.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/medicare/medicare/pkg/emailaddr"
)

// State is a phase of the per-request delivery state machine:
// Idle → Connecting → Authenticating → Sending → {Delivered, Failed}.
type State string

const (
	StateIdle           State = "Idle"
	StateConnecting     State = "Connecting"
	StateAuthenticating State = "Authenticating"
	StateSending        State = "Sending"
	StateDelivered      State = "Delivered"
	StateFailed         State = "Failed"
)

// Reason classifies a failed delivery attempt.
type Reason string

const (
	ReasonConnectTimeout   Reason = "ConnectTimeout"
	ReasonAuthError        Reason = "AuthError"
	ReasonSendTimeout      Reason = "SendTimeout"
	ReasonOverallTimeout   Reason = "OverallTimeout"
	ReasonInvalidRecipient Reason = "InvalidRecipient"
	ReasonSendError        Reason = "SendError"
)

// ErrAuth marks credential failures. They are never retried within a
// request: credentials will not fix themselves before the budget runs out.
var ErrAuth = errors.New("smtp authentication failed")

// Default timeout tiers, overridable via configuration.
const (
	DefaultConnectTimeout = 15 * time.Second
	DefaultSendTimeout    = 30 * time.Second
	DefaultOverallTimeout = 45 * time.Second
)

// Config is the injected transport configuration. Credentials and endpoints
// come from the environment at construction time, never from ambient state
// at call time.
type Config struct {
	Host       string
	Port       int
	User       string
	Password   string
	SenderName string

	ConnectTimeout time.Duration
	SendTimeout    time.Duration
	OverallTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = DefaultSendTimeout
	}
	if c.OverallTimeout <= 0 {
		c.OverallTimeout = DefaultOverallTimeout
	}
	return c
}

// Message is one outbound report email.
type Message struct {
	Recipient string
	Subject   string
	Body      string
}

// Outcome is the terminal result of one delivery attempt.
type Outcome struct {
	Delivered   bool
	State       State
	Reason      Reason
	AttemptedAt time.Time
	Error       string
}

// Transport performs one delivery attempt. It must honor ctx cancellation by
// aborting in-flight network operations, and must report each phase change
// through the supplied callback so timeouts are attributed to the right tier.
type Transport interface {
	Send(ctx context.Context, msg Message, phase func(State)) error
}

// Notifier runs the delivery state machine around a Transport.
type Notifier struct {
	cfg       Config
	transport Transport
	logger    zerolog.Logger
}

// New constructs a Notifier. Zero timeout fields fall back to the defaults.
func New(cfg Config, transport Transport, logger zerolog.Logger) *Notifier {
	return &Notifier{cfg: cfg.withDefaults(), transport: transport, logger: logger}
}

// Deliver attempts to send msg within the configured budget. The cheap
// syntactic recipient check runs before any connection is opened. There is
// no in-request retry; redelivery is the sweep's job.
func (n *Notifier) Deliver(ctx context.Context, msg Message) Outcome {
	attemptedAt := time.Now().UTC()

	if !emailaddr.Valid(msg.Recipient) {
		return Outcome{
			State:       StateFailed,
			Reason:      ReasonInvalidRecipient,
			AttemptedAt: attemptedAt,
			Error:       "recipient address failed syntactic check",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, n.cfg.OverallTimeout)
	defer cancel()

	transitions := make(chan State, 8)
	done := make(chan error, 1)
	go func() {
		done <- n.transport.Send(ctx, msg, func(s State) {
			select {
			case transitions <- s:
			default:
			}
		})
	}()

	state := StateIdle

	// The tier timer bounds the current phase; the overall deadline is the
	// context itself. Authenticating has no dedicated tier and runs on the
	// remaining overall budget.
	tierTimer := time.NewTimer(n.cfg.ConnectTimeout)
	defer tierTimer.Stop()
	tierC := tierTimer.C

	fail := func(reason Reason, detail string) Outcome {
		cancel()
		n.logger.Warn().
			Str("recipient", msg.Recipient).
			Str("state", string(state)).
			Str("reason", string(reason)).
			Str("error", detail).
			Msg("delivery failed")
		return Outcome{
			State:       StateFailed,
			Reason:      reason,
			AttemptedAt: attemptedAt,
			Error:       detail,
		}
	}

	for {
		select {
		case err := <-done:
			if err == nil {
				n.logger.Info().Str("recipient", msg.Recipient).Msg("report delivered")
				return Outcome{Delivered: true, State: StateDelivered, AttemptedAt: attemptedAt}
			}
			if errors.Is(err, ErrAuth) {
				return fail(ReasonAuthError, err.Error())
			}
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				return fail(timeoutReason(state), err.Error())
			}
			return fail(ReasonSendError, err.Error())

		case s := <-transitions:
			state = s
			switch s {
			case StateAuthenticating:
				tierTimer.Stop()
				tierC = nil
			case StateSending:
				tierTimer.Stop()
				tierTimer = time.NewTimer(n.cfg.SendTimeout)
				tierC = tierTimer.C
			}

		case <-tierC:
			if state == StateSending {
				return fail(ReasonSendTimeout, "send timeout exceeded")
			}
			return fail(ReasonConnectTimeout, "connection timeout exceeded")

		case <-ctx.Done():
			return fail(ReasonOverallTimeout, "overall delivery budget exceeded")
		}
	}
}

// timeoutReason attributes a context-cancellation error surfaced by the
// transport to the tier that was active when it happened.
func timeoutReason(state State) Reason {
	switch state {
	case StateSending:
		return ReasonSendTimeout
	case StateIdle, StateConnecting:
		return ReasonConnectTimeout
	default:
		return ReasonOverallTimeout
	}
}

// DisabledTransport is installed when no SMTP credentials are configured.
// Every send fails immediately, so requests degrade to local-only delivery
// without waiting out any timeout tier.
type DisabledTransport struct{}

func (DisabledTransport) Send(_ context.Context, _ Message, _ func(State)) error {
	return errors.New("smtp transport not configured")
}
