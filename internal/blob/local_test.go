package blob

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	s, err := NewLocalStore(root, "/media/")
	if err != nil {
		t.Fatalf("NewLocalStore failed: %v", err)
	}

	t.Run("Put then Get", func(t *testing.T) {
		if err := s.Put(ctx, "photos/u1/a.jpg", "image/jpeg", strings.NewReader("jpeg-bytes")); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		rc, err := s.Get(ctx, "photos/u1/a.jpg")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		defer rc.Close()
		data, _ := io.ReadAll(rc)
		if string(data) != "jpeg-bytes" {
			t.Errorf("Got %q", data)
		}
	})

	t.Run("keys cannot escape the root", func(t *testing.T) {
		if err := s.Put(ctx, "../../escape.txt", "text/plain", strings.NewReader("x")); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if _, err := os.Stat(filepath.Join(root, "escape.txt")); err != nil {
			t.Errorf("Expected blob inside root: %v", err)
		}
	})

	t.Run("Get missing key", func(t *testing.T) {
		_, err := s.Get(ctx, "nope.jpg")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Delete is idempotent", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			if err := s.Delete(ctx, "photos/u1/a.jpg"); err != nil {
				t.Fatalf("Delete failed: %v", err)
			}
		}
		if _, err := s.Get(ctx, "photos/u1/a.jpg"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound after delete, got %v", err)
		}
	})

	t.Run("URL", func(t *testing.T) {
		if got := s.URL("photos/a.jpg"); got != "/media/photos/a.jpg" {
			t.Errorf("URL = %q", got)
		}
	})

	t.Run("empty key rejected", func(t *testing.T) {
		if err := s.Put(ctx, "", "text/plain", strings.NewReader("x")); err == nil {
			t.Error("Expected error for empty key")
		}
	})
}
