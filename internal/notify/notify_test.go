package notify

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Nikhi-l37/local-inventory-project/internal/config"
)

func TestNewPicksImplementation(t *testing.T) {
	_, isLog := New(config.SMTPConfig{}, nil).(*LogNotifier)
	assert.True(t, isLog)
	_, isSMTP := New(config.SMTPConfig{Host: "smtp.example.com", Port: 587}, nil).(*SMTPNotifier)
	assert.True(t, isSMTP)
}

func TestSMTPNotifierBuildsMessage(t *testing.T) {
	n := NewSMTPNotifier(config.SMTPConfig{Host: "smtp.example.com", Port: 587, User: "bot@example.com", Pass: "pw"})
	var gotAddr string
	var gotMsg string
	n.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr = addr
		gotMsg = string(msg)
		assert.Equal(t, "bot@example.com", from)
		assert.Equal(t, []string{"seller@example.com"}, to)
		return nil
	}
	require.NoError(t, n.Send(context.Background(), "seller@example.com", "Your code\r\nBcc: x", "123456"))
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Contains(t, gotMsg, "Subject: Your code  Bcc: x\r\n")
	assert.True(t, strings.HasSuffix(gotMsg, "\r\n\r\n123456"))
}

func TestSMTPNotifierErrorsAndTimeout(t *testing.T) {
	n := NewSMTPNotifier(config.SMTPConfig{Host: "smtp.example.com", Port: 25})
	n.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("relay down") }
	require.ErrorContains(t, n.Send(context.Background(), "a@example.com", "s", "b"), "relay down")
	require.Error(t, n.Send(context.Background(), "", "s", "b"))

	n.send = func(string, smtp.Auth, string, []string, []byte) error {
		time.Sleep(200 * time.Millisecond)
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, n.Send(ctx, "a@example.com", "s", "b"), context.DeadlineExceeded)
}

func TestLogNotifier(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	n := NewLogNotifier(zap.New(core))
	require.NoError(t, n.Send(context.Background(), "a@example.com", "Reset", "link"))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "a@example.com", logs.All()[0].ContextMap()["to"])
}
