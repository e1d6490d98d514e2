package storage

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Output writes generated files below a directory.
type Output struct {
	root string
}

// NewOutput returns an Output rooted at dir. The directory is not created.
func NewOutput(dir string) (*Output, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve output dir: %w", err)
	}
	return &Output{root: abs}, nil
}

// Root returns the absolute output directory.
func (o *Output) Root() string { return o.root }

// Reset deletes the output directory recursively and recreates it empty.
func (o *Output) Reset() error {
	if err := os.RemoveAll(o.root); err != nil {
		return fmt.Errorf("storage: remove output dir: %w", err)
	}
	if err := os.MkdirAll(o.root, 0o755); err != nil {
		return fmt.Errorf("storage: create output dir: %w", err)
	}
	return nil
}

func (o *Output) path(rel string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleaned) || cleaned == "." || strings.HasPrefix(cleaned, "..") {
		return "", fmt.Errorf("storage: invalid output path: %s", rel)
	}
	return filepath.Join(o.root, cleaned), nil
}

// Write atomically writes content: tmp file → fsync → rename.
func (o *Output) Write(rel string, content []byte) error {
	abs, err := o.path(rel)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".denkenote-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("storage: chmod: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

// CopyFS copies every regular file of src into dstDir (relative to the output root).
func (o *Output) CopyFS(src fs.FS, dstDir string) (int, error) {
	n := 0
	err := fs.WalkDir(src, ".", func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		data, err := fs.ReadFile(src, p)
		if err != nil {
			return err
		}
		if err := o.Write(filepath.ToSlash(filepath.Join(dstDir, p)), data); err != nil {
			return err
		}
		n++
		return nil
	})
	if err != nil {
		return n, fmt.Errorf("storage: copy to %s: %w", dstDir, err)
	}
	return n, nil
}

// CopyFile copies one file from disk into rel.
func (o *Output) CopyFile(srcAbs, rel string) error {
	data, err := os.ReadFile(srcAbs)
	if err != nil {
		return fmt.Errorf("storage: read %s: %w", srcAbs, err)
	}
	return o.Write(rel, data)
}
