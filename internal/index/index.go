// Package index builds the in-memory notebook index from the content
// directory and keeps it fresh while files change.
//
// A build is all-or-nothing: Builder.Build produces a new immutable Index,
// Store publishes it with an atomic swap, and readers only ever see
// complete snapshots.
package index

import (
	"sync/atomic"
	"time"

	"github.com/starford/denkenote/internal/models"
)

// Index is one immutable snapshot of the notebook.
type Index struct {
	// Categories in first-seen order. Exactly the keys of Posts.
	Categories []string
	Posts      map[string][]*models.Post
	BuiltAt    time.Time
	// Skipped lists content-relative paths dropped for read/parse errors.
	Skipped []string
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{Posts: map[string][]*models.Post{}}
}

// add appends p to its category, registering the category on first sight.
func (i *Index) add(p *models.Post) {
	if _, ok := i.Posts[p.Category]; !ok {
		i.Categories = append(i.Categories, p.Category)
	}
	i.Posts[p.Category] = append(i.Posts[p.Category], p)
}

// Len returns the number of posts across all categories.
func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	n := 0
	for _, ps := range i.Posts {
		n += len(ps)
	}
	return n
}

// All returns every post, category by category in index order.
func (i *Index) All() []*models.Post {
	if i == nil {
		return nil
	}
	out := make([]*models.Post, 0, i.Len())
	for _, c := range i.Categories {
		out = append(out, i.Posts[c]...)
	}
	return out
}

// Category returns the posts of c and whether c exists.
func (i *Index) Category(c string) ([]*models.Post, bool) {
	if i == nil {
		return nil, false
	}
	ps, ok := i.Posts[c]
	return ps, ok
}

// Store holds the currently published index.
type Store struct {
	current  atomic.Pointer[Index]
	previous atomic.Pointer[Index]
}

// NewStore returns a store with nothing published.
func NewStore() *Store { return &Store{} }

// Publish makes idx the current snapshot. The replaced snapshot is kept as
// Previous.
func (s *Store) Publish(idx *Index) {
	old := s.current.Swap(idx)
	if old != nil {
		s.previous.Store(old)
	}
}

// Current returns the published snapshot, or nil before the first publish.
func (s *Store) Current() *Index { return s.current.Load() }

// Previous returns the snapshot replaced by the last Publish, if any.
func (s *Store) Previous() *Index { return s.previous.Load() }
