// Package testutil provides shared test helpers for building content trees.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/denkenote/internal/storage"
)

// Content creates a temporary content directory holding files (slash
// paths relative to the root → contents) and returns its absolute path.
func Content(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, body := range files {
		WriteFile(t, root, rel, body)
	}
	return root
}

// WriteFile writes body to root/rel, creating parent directories.
func WriteFile(t *testing.T, root, rel, body string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

// Store opens a storage.FS over root with no ignore patterns.
func Store(t *testing.T, root string) *storage.FS {
	t.Helper()
	store, err := storage.NewFS(root, nil)
	if err != nil {
		t.Fatal(err)
	}
	return store
}

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// Eventually polls fn every tick until it returns true or timeout elapses.
func Eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}
