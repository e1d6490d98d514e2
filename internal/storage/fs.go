package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/denkenote/internal/apperr"
)

// FS implements Provider backed by the local file system.
type FS struct {
	root   string // absolute path to the content directory
	filter *Filter
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist. filter may be nil.
func NewFS(root string, filter *Filter) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs, filter: filter}, nil
}

// Root returns the absolute content directory.
func (f *FS) Root() string { return f.root }

// Abs resolves a relative path against the root and rejects any result that
// escapes it (directory traversal).
func (f *FS) Abs(rel string) (string, error) {
	if rel == "" {
		return f.root, nil
	}
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: absolute paths not allowed: %s: %w", rel, apperr.ErrInvalidPath)
	}
	abs := filepath.Join(f.root, cleaned)
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) && abs != f.root {
		return "", fmt.Errorf("storage: path escapes root: %s: %w", rel, apperr.ErrInvalidPath)
	}
	return abs, nil
}

// Allowed applies the same filter as List and Media to a single path.
func (f *FS) Allowed(rel string) bool {
	abs, err := f.Abs(rel)
	if err != nil || abs == f.root {
		return false
	}
	segs := strings.Split(filepath.ToSlash(filepath.Clean(filepath.FromSlash(rel))), "/")
	for i := range segs {
		sub := strings.Join(segs[:i+1], "/")
		isDir := i < len(segs)-1
		if f.filter.Skip(sub, filepath.Join(f.root, filepath.FromSlash(sub)), isDir) {
			return false
		}
	}
	return true
}

// List walks the root and returns every markdown file.
func (f *FS) List() ([]Entry, error) {
	return f.walk(func(name string) bool { return strings.HasSuffix(name, MarkdownExt) })
}

// Media walks the root and returns every non-markdown file.
func (f *FS) Media() ([]Entry, error) {
	return f.walk(func(name string) bool { return !strings.HasSuffix(name, MarkdownExt) })
}

func (f *FS) walk(keep func(name string) bool) ([]Entry, error) {
	var out []Entry
	err := filepath.WalkDir(f.root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(f.root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}
		if f.filter.Skip(rel, p, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() || !keep(d.Name()) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		out = append(out, Entry{
			RelPath:    rel,
			AbsPath:    p,
			Size:       info.Size(),
			ModTime:    info.ModTime(),
			ChangeTime: changeTime(info),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	return out, nil
}

// Read returns the raw bytes of a content file.
func (f *FS) Read(path string) ([]byte, error) {
	abs, err := f.Abs(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("storage: read %s: %w", path, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	return data, nil
}
