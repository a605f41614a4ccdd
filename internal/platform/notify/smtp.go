package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"
)

// SMTPTransport sends mail through a STARTTLS SMTP endpoint (the Gmail
// submission port in the default deployment). Cancellation closes the
// underlying connection so in-flight reads and writes abort immediately.
type SMTPTransport struct {
	cfg Config
}

// NewSMTPTransport builds a transport from the injected configuration.
func NewSMTPTransport(cfg Config) *SMTPTransport {
	return &SMTPTransport{cfg: cfg}
}

func (t *SMTPTransport) Send(ctx context.Context, msg Message, phase func(State)) error {
	phase(StateConnecting)

	addr := net.JoinHostPort(t.cfg.Host, fmt.Sprintf("%d", t.cfg.Port))
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("connect %s: %w", addr, wrapCtxErr(ctx, err))
	}

	// Hard abort: closing the conn unblocks any in-flight SMTP read/write.
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-watchDone:
		}
	}()

	client, err := smtp.NewClient(conn, t.cfg.Host)
	if err != nil {
		return fmt.Errorf("smtp handshake: %w", wrapCtxErr(ctx, err))
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: t.cfg.Host}); err != nil {
			return fmt.Errorf("starttls: %w", wrapCtxErr(ctx, err))
		}
	}

	phase(StateAuthenticating)
	auth := smtp.PlainAuth("", t.cfg.User, t.cfg.Password, t.cfg.Host)
	if err := client.Auth(auth); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrAuth, err)
	}

	phase(StateSending)
	if err := client.Mail(t.cfg.User); err != nil {
		return fmt.Errorf("mail from: %w", wrapCtxErr(ctx, err))
	}
	if err := client.Rcpt(msg.Recipient); err != nil {
		return fmt.Errorf("rcpt to: %w", wrapCtxErr(ctx, err))
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("data: %w", wrapCtxErr(ctx, err))
	}
	if _, err := w.Write([]byte(t.buildMIME(msg))); err != nil {
		return fmt.Errorf("write body: %w", wrapCtxErr(ctx, err))
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close body: %w", wrapCtxErr(ctx, err))
	}

	return client.Quit()
}

func (t *SMTPTransport) buildMIME(msg Message) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "From: %s <%s>\r\n", t.cfg.SenderName, t.cfg.User)
	fmt.Fprintf(&sb, "To: %s\r\n", msg.Recipient)
	fmt.Fprintf(&sb, "Reply-To: %s\r\n", t.cfg.User)
	fmt.Fprintf(&sb, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(&sb, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(msg.Body)
	sb.WriteString("\r\n")
	return sb.String()
}

// wrapCtxErr prefers the context error when the failure was caused by
// cancellation closing the connection mid-operation, so the notifier can
// attribute it to the active timeout tier.
func wrapCtxErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
