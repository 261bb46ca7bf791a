package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yungbote/techlearn-backend/internal/platform/logger"
)

func TestNewClientWithoutKeyIsNil(t *testing.T) {
	if o := NewClient(logger.Nop(), Config{}); o != nil {
		t.Fatalf("expected nil oracle without api key")
	}
}

func TestCompleteSendsChatRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("unexpected auth header %q", got)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.MaxTokens != 300 || req.Temperature != 0.7 || req.Messages[0].Content != "objectives please" {
			t.Errorf("unexpected request %+v", req)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"[\"a\"]"}}]}`))
	}))
	defer srv.Close()

	o := NewClient(logger.Nop(), Config{APIKey: "sk-test", BaseURL: srv.URL, Timeout: time.Second})
	got, err := o.Complete(context.Background(), "objectives please", 300, 0.7)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != `["a"]` {
		t.Fatalf("unexpected completion %q", got)
	}
}

func TestCompleteRetriesOnServerError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer srv.Close()

	o := NewClient(logger.Nop(), Config{APIKey: "k", BaseURL: srv.URL, Timeout: 5 * time.Second, MaxRetries: 2})
	got, err := o.Complete(context.Background(), "p", 10, 0)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "ok" || atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("got=%q calls=%d", got, calls)
	}
}

func TestCompleteDoesNotRetryClientError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	o := NewClient(logger.Nop(), Config{APIKey: "k", BaseURL: srv.URL, Timeout: time.Second, MaxRetries: 3})
	if _, err := o.Complete(context.Background(), "p", 10, 0); err == nil {
		t.Fatalf("expected error")
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected a single call, got %d", calls)
	}
}
