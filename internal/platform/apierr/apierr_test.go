package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAsKeepsWrappedError(t *testing.T) {
	base := NotFound("module")
	wrapped := fmt.Errorf("load: %w", base)
	got := As(wrapped)
	if got != base {
		t.Fatalf("expected original error back, got %#v", got)
	}
	if got.Status != http.StatusNotFound || got.Code != CodeNotFound {
		t.Fatalf("unexpected status/code: %d %s", got.Status, got.Code)
	}
}

func TestAsPlainErrorIsInternal(t *testing.T) {
	got := As(errors.New("boom"))
	if got.Status != http.StatusInternalServerError || got.Code != CodeInternal {
		t.Fatalf("unexpected: %d %s", got.Status, got.Code)
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should be nil")
	}
}

func TestIsCode(t *testing.T) {
	if !IsCode(fmt.Errorf("x: %w", NoQuestions()), CodeNoQuestions) {
		t.Fatalf("expected no_questions code")
	}
	if IsCode(errors.New("x"), CodeNoQuestions) {
		t.Fatalf("plain error should not match")
	}
}
