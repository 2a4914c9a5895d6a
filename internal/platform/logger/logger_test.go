package logger

import (
	"strings"
	"testing"
)

func TestSanitizeKVsRedactsSecrets(t *testing.T) {
	got := sanitizeKVs([]interface{}{
		"password", "hunter2",
		"email", "a@b.c",
		"slug", "golang",
		"user_id", "65f0c0ffee",
	})
	if len(got) != 8 {
		t.Fatalf("unexpected length: %d", len(got))
	}
	if got[1] != "[REDACTED]" || got[3] != "[REDACTED]" {
		t.Fatalf("expected password/email redacted, got %v", got)
	}
	if got[5] != "golang" {
		t.Fatalf("slug should pass through, got %v", got[5])
	}
	if s, _ := got[7].(string); !strings.HasPrefix(s, "hash:") {
		t.Fatalf("user_id should be hashed, got %v", got[7])
	}
}

func TestSanitizeValueDetectsJWT(t *testing.T) {
	jwtish := "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxMjM0NTY3ODkwIn0.signature"
	if got := sanitizeValue("header", jwtish); got != "[REDACTED]" {
		t.Fatalf("expected jwt to be redacted, got %v", got)
	}
}

func TestNopLoggerIsUsable(t *testing.T) {
	l := Nop().With("service", "test")
	l.Info("hello", "k", "v")
	l.Sync()
}
