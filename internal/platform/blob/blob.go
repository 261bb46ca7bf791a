package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("blob not found")

// Store persists uploaded files. Keys are opaque to callers.
type Store interface {
	Store(ctx context.Context, r io.Reader, mimeType, originalName string) (string, error)
	Read(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// Folder returns the top-level folder a file of the given MIME type is filed under.
func Folder(mimeType string) string {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	switch {
	case strings.HasPrefix(mt, "video/"):
		return "videos"
	case strings.HasPrefix(mt, "image/"):
		return "images"
	default:
		return "documents"
	}
}

// NewKey builds "<folder>/<unix-ms>-<uuid><ext>" for an upload.
func NewKey(mimeType, originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	return path.Join(Folder(mimeType), fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), uuid.NewString(), ext))
}

type LocalStore struct {
	root      string
	publicURL string
}

func NewLocalStore(root, publicURL string) (*LocalStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		root = "uploads"
	}
	for _, folder := range []string{"documents", "videos", "images"} {
		if err := os.MkdirAll(filepath.Join(root, folder), 0o755); err != nil {
			return nil, fmt.Errorf("create upload dir: %w", err)
		}
	}
	return &LocalStore{root: root, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

func (s *LocalStore) Store(ctx context.Context, r io.Reader, mimeType, originalName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key := NewKey(mimeType, originalName)
	full, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	f, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("create blob: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(full)
		return "", fmt.Errorf("write blob: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(full)
		return "", fmt.Errorf("close blob: %w", err)
	}
	return key, nil
}

func (s *LocalStore) Read(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(full)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return b, err
}

func (s *LocalStore) Delete(ctx context.Context, key string) error {
	full, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}

func (s *LocalStore) URL(key string) string {
	if s.publicURL == "" {
		return "/uploads/" + key
	}
	return s.publicURL + "/" + key
}

func (s *LocalStore) resolve(key string) (string, error) {
	clean := path.Clean("/" + strings.TrimSpace(key))
	if clean == "/" {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	return filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}
