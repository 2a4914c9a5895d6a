package gemini

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/neocube/neocube-backend/internal/platform/logger"
)

func TestGenerateReadsFirstCandidate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "models/test-model:generateContent") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), "describe go") {
			t.Errorf("prompt not forwarded: %s", body)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"a\":"},{"text":"1}"}]}}]}`))
	}))
	defer srv.Close()

	c, err := NewClient(context.Background(), logger.Nop(), Config{
		APIKey:   "k",
		Model:    "test-model",
		Endpoint: srv.URL + "/",
		Timeout:  5 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	out, err := c.Generate(context.Background(), "describe go")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != `{"a":1}` {
		t.Fatalf("unexpected text %q", out)
	}
}

func TestGenerateEmptyCandidatesIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	c, err := NewClient(context.Background(), logger.Nop(), Config{APIKey: "k", Model: "m", Endpoint: srv.URL + "/"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := c.Generate(context.Background(), "x"); err == nil {
		t.Fatalf("expected error for empty candidates")
	}
}

func TestGenerateRetriesUnavailable(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":{"code":503,"message":"overloaded","status":"UNAVAILABLE"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`))
	}))
	defer srv.Close()

	c, err := NewClient(context.Background(), logger.Nop(), Config{APIKey: "k", Model: "m", Endpoint: srv.URL, MaxRetries: 1})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	out, err := c.Generate(context.Background(), "x")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if n := atomic.LoadInt32(&calls); out != "ok" || n != 2 {
		t.Fatalf("expected one retry, got out=%q calls=%d", out, n)
	}
}

func TestGenerateBadRequestIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"bad model","status":"INVALID_ARGUMENT"}}`))
	}))
	defer srv.Close()

	c, err := NewClient(context.Background(), logger.Nop(), Config{APIKey: "k", Model: "m", Endpoint: srv.URL, MaxRetries: 3})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := c.Generate(context.Background(), "x"); err == nil {
		t.Fatalf("expected error for 400")
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("expected a single call, got %d", n)
	}
}

func TestConfigFromEnvDefaultsModel(t *testing.T) {
	t.Setenv("GEMINI_MODEL", "")
	if got := ConfigFromEnv().Model; got != defaultModel {
		t.Fatalf("unexpected default model %q", got)
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(context.Background(), logger.Nop(), Config{}); err == nil {
		t.Fatalf("expected missing key error")
	}
}
