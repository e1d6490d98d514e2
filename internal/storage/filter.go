package storage

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// MarkdownExt is the extension of indexed content files.
const MarkdownExt = ".md"

// Filter decides which paths under the content root are ignored.
type Filter struct {
	excludeDirs []string // absolute
	patterns    []glob.Glob
}

// NewFilter compiles ignore patterns (matched against slash-separated paths
// relative to the root) and excludes the given absolute directories.
func NewFilter(patterns []string, excludeDirs ...string) (*Filter, error) {
	f := &Filter{}
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("storage: compile ignore pattern %q: %w", p, err)
		}
		f.patterns = append(f.patterns, g)
	}
	for _, d := range excludeDirs {
		if d == "" {
			continue
		}
		abs, err := filepath.Abs(d)
		if err != nil {
			return nil, fmt.Errorf("storage: resolve excluded dir: %w", err)
		}
		f.excludeDirs = append(f.excludeDirs, abs)
	}
	return f, nil
}

// Excluded reports whether the absolute path lies inside an excluded directory.
func (f *Filter) Excluded(abs string) bool {
	if f == nil {
		return false
	}
	for _, d := range f.excludeDirs {
		if abs == d || strings.HasPrefix(abs, d+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// Skip reports whether rel (slash-separated) should be left out of the walk.
func (f *Filter) Skip(rel, abs string, isDir bool) bool {
	base := path.Base(rel)
	if strings.HasPrefix(base, ".") && rel != "." {
		return true
	}
	if !isDir && base == "README.md" {
		return true
	}
	if f.Excluded(abs) {
		return true
	}
	if f == nil {
		return false
	}
	for _, g := range f.patterns {
		if g.Match(rel) {
			return true
		}
	}
	return false
}
