package index

import (
	"path"
	"path/filepath"

	"github.com/starford/denkenote/internal/render"
	"github.com/starford/denkenote/internal/storage"
	"github.com/starford/denkenote/internal/token"
)

// Linker computes the category and token of a link target the same way the
// Builder does, without consulting any published index.
type Linker struct {
	store   storage.Provider
	tokens  *token.Generator
	divider string
}

var _ render.LinkResolver = (*Linker)(nil)

// NewLinker returns a Linker over store.
func NewLinker(store storage.Provider, tokens *token.Generator, divider string) *Linker {
	return &Linker{store: store, tokens: tokens, divider: divider}
}

// Resolve implements render.LinkResolver. rel is relative to the content root.
func (l *Linker) Resolve(rel string) (string, string) {
	category := CategoryOf(path.Dir(rel))
	abs, err := l.store.Abs(rel)
	if err != nil {
		abs = filepath.Join(l.store.Root(), filepath.FromSlash(rel))
	}
	if l.tokens.Strategy != token.StrategyContent {
		return category, l.tokens.Token(abs)
	}

	// Content tokens need the target's front matter. A missing or broken
	// target still gets a stable path token.
	data, err := l.store.Read(rel)
	if err != nil {
		return category, l.tokens.Token(abs)
	}
	_, meta, err := parseMeta(data, l.divider)
	if err != nil {
		return category, l.tokens.Token(abs)
	}
	return category, l.tokens.ForPost(abs, meta)
}
