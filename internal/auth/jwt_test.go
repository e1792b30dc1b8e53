package auth

import (
	"errors"
	"testing"
	"time"
)

func TestJWTManagerIssueAndVerify(t *testing.T) {
	m := NewJWTManager("secret", time.Hour, "test")
	token, err := m.Issue(42)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	id, err := m.Verify(token, PurposeSession)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if id != 42 {
		t.Fatalf("expected seller 42, got %d", id)
	}
	if _, err := m.Verify(token+"x", PurposeSession); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token for tampered signature, got %v", err)
	}
}

func TestJWTManagerPurposeIsolation(t *testing.T) {
	m := NewJWTManager("secret", time.Hour, "test")
	reset, err := m.IssueReset(7, 15*time.Minute)
	if err != nil {
		t.Fatalf("issue reset: %v", err)
	}
	if _, err := m.Verify(reset, PurposeSession); !errors.Is(err, ErrWrongPurpose) {
		t.Fatalf("reset token must not authenticate a session, got %v", err)
	}
	if id, err := m.Verify(reset, PurposeReset); err != nil || id != 7 {
		t.Fatalf("verify reset: id=%d err=%v", id, err)
	}
}

func TestJWTManagerExpiry(t *testing.T) {
	m := NewJWTManager("secret", time.Minute, "test")
	issuedAt := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return issuedAt }
	token, err := m.IssueReset(3, 15*time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	m.now = func() time.Time { return issuedAt.Add(16 * time.Minute) }
	if _, err := m.Verify(token, PurposeReset); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token to fail, got %v", err)
	}
}

func TestJWTManagerWrongSecret(t *testing.T) {
	token, err := NewJWTManager("a", time.Hour, "test").Issue(1)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := NewJWTManager("b", time.Hour, "test").Verify(token, PurposeSession); err == nil {
		t.Fatalf("expected error for token signed with another secret")
	}
}

func TestJWTManagerEmptySecret(t *testing.T) {
	if _, err := NewJWTManager("", time.Hour, "test").Issue(1); !errors.Is(err, ErrEmptySecret) {
		t.Fatalf("expected ErrEmptySecret, got %v", err)
	}
}
