package blob

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestFolder(t *testing.T) {
	cases := map[string]string{
		"application/pdf": "documents",
		"text/plain":      "documents",
		"video/mp4":       "videos",
		"image/png":       "images",
	}
	for mt, want := range cases {
		if got := Folder(mt); got != want {
			t.Fatalf("Folder(%q)=%q want %q", mt, got, want)
		}
	}
}

func TestLocalStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStore(t.TempDir(), "")
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}

	key, err := s.Store(ctx, strings.NewReader("hello"), "application/pdf", "Guide.PDF")
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if !strings.HasPrefix(key, "documents/") || !strings.HasSuffix(key, ".pdf") {
		t.Fatalf("unexpected key %q", key)
	}
	if got := s.URL(key); got != "/uploads/"+key {
		t.Fatalf("URL=%q", got)
	}

	b, err := s.Read(ctx, key)
	if err != nil || string(b) != "hello" {
		t.Fatalf("Read=%q err=%v", b, err)
	}

	if err := s.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Read(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.Delete(ctx, key); err != nil {
		t.Fatalf("second Delete should be a no-op, got %v", err)
	}
}

func TestLocalStoreRejectsEscapes(t *testing.T) {
	root := t.TempDir()
	s, err := NewLocalStore(root, "")
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	full, err := s.resolve("../../etc/passwd")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !strings.HasPrefix(full, root) {
		t.Fatalf("resolved path %q escapes root %q", full, root)
	}
}
