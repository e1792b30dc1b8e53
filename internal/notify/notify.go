// Package notify delivers one-time codes, reset links and operator alerts by email.
package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Nikhi-l37/local-inventory-project/internal/config"
)

// Notifier sends a message out of band. Callers treat failures as warnings.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// New picks SMTP when it is configured and falls back to logging otherwise.
func New(cfg config.SMTPConfig, log *zap.Logger) Notifier {
	if cfg.Enabled() {
		return NewSMTPNotifier(cfg)
	}
	return NewLogNotifier(log)
}

// SMTPNotifier sends plain-text mail through an authenticated SMTP relay.
type SMTPNotifier struct {
	cfg  config.SMTPConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPNotifier(cfg config.SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg, send: smtp.SendMail}
}

func (n *SMTPNotifier) Send(ctx context.Context, to, subject, body string) error {
	if to == "" {
		return fmt.Errorf("notify: empty recipient")
	}
	from := n.cfg.From
	if from == "" {
		from = n.cfg.User
	}
	var auth smtp.Auth
	if n.cfg.User != "" {
		auth = smtp.PlainAuth("", n.cfg.User, n.cfg.Pass, n.cfg.Host)
	}
	addr := net.JoinHostPort(n.cfg.Host, strconv.Itoa(n.cfg.Port))
	msg := buildMessage(from, to, subject, body)

	// net/smtp has no context support; run it in a goroutine so ctx can cut it short
	done := make(chan error, 1)
	go func() { done <- n.send(addr, auth, from, []string{to}, msg) }()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send to %s: %w", to, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + sanitizeHeader(subject) + "\r\n")
	b.WriteString("Date: " + time.Now().Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

func sanitizeHeader(v string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
}

// LogNotifier writes the message to the log instead of sending it. Used in
// local development where no relay is configured.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogNotifier{log: log.Named("notify")}
}

func (n *LogNotifier) Send(_ context.Context, to, subject, body string) error {
	n.log.Info("notification", zap.String("to", to), zap.String("subject", subject), zap.String("body", body))
	return nil
}
