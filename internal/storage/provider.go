// Package storage provides file-system access to the content root and to the
// generated-site output directory.
package storage

import "time"

// Entry describes one file found under the content root.
type Entry struct {
	// RelPath is slash-separated and relative to the root.
	RelPath    string
	AbsPath    string
	Size       int64
	ModTime    time.Time
	ChangeTime time.Time
}

// Provider is the interface for content file operations.
type Provider interface {
	// Root returns the absolute root directory.
	Root() string
	// List returns every markdown file that passes the filter, in lexical order.
	List() ([]Entry, error)
	// Media returns every non-markdown file that passes the filter.
	Media() ([]Entry, error)
	// Read returns the raw bytes of the file at path (relative to root).
	Read(path string) ([]byte, error)
	// Abs resolves path (relative to root) and rejects traversal.
	Abs(path string) (string, error)
	// Allowed reports whether path (relative to root) passes the filter,
	// checking every directory on the way down.
	Allowed(path string) bool
}
