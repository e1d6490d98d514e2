package index

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"time"

	"github.com/ncruces/go-strftime"

	"github.com/starford/denkenote/internal/models"
	"github.com/starford/denkenote/internal/render"
	"github.com/starford/denkenote/internal/storage"
	"github.com/starford/denkenote/internal/token"
)

// DefaultDateFormat formats mtime/ctime, e.g. "2024-03-01 09:15:00 UTC".
const DefaultDateFormat = "%Y-%m-%d %I:%M:%S %Z"

// Sort orders for posts inside a category.
const (
	SortPath = "path"
	SortDate = "date"
)

// Options tune a Builder.
type Options struct {
	// Divider is the legacy front-matter divider ("" disables it).
	Divider string
	// DateFormat is a strftime layout for mtime/ctime.
	DateFormat string
	// Sort is SortPath (walk order) or SortDate (newest first).
	Sort string
}

// Builder produces Index snapshots from a content directory.
type Builder struct {
	store    storage.Provider
	tokens   *token.Generator
	renderer *render.Renderer
	opts     Options
	logger   *slog.Logger
}

// NewBuilder wires a Builder.
func NewBuilder(store storage.Provider, tokens *token.Generator, renderer *render.Renderer, opts Options, logger *slog.Logger) *Builder {
	if opts.DateFormat == "" {
		opts.DateFormat = DefaultDateFormat
	}
	if opts.Sort == "" {
		opts.Sort = SortPath
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{store: store, tokens: tokens, renderer: renderer, opts: opts, logger: logger}
}

// Build scans the content root and returns a fresh index. Files that cannot
// be read or parsed are logged and listed in Index.Skipped; only a failure
// to walk the root fails the build.
func (b *Builder) Build(ctx context.Context) (*Index, error) {
	entries, err := b.store.List()
	if err != nil {
		return nil, fmt.Errorf("index: scan: %w", err)
	}

	idx := NewIndex()
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("index: build: %w", err)
		}
		p, err := b.buildPost(e)
		if err != nil {
			b.logger.Warn("index: skipping file",
				slog.String("path", e.RelPath),
				slog.String("error", err.Error()))
			idx.Skipped = append(idx.Skipped, e.RelPath)
			continue
		}
		idx.add(p)
	}

	if b.opts.Sort == SortDate {
		for _, c := range idx.Categories {
			sortByDate(idx.Posts[c])
		}
	}
	idx.BuiltAt = time.Now()
	return idx, nil
}

func (b *Builder) buildPost(e storage.Entry) (*models.Post, error) {
	data, err := b.store.Read(e.RelPath)
	if err != nil {
		return nil, err
	}
	res, meta, err := parseMeta(data, b.opts.Divider)
	if err != nil {
		return nil, err
	}

	tok := b.tokens.ForPost(e.AbsPath, meta)
	meta.Token = tok
	if meta.URL == "" {
		meta.URL = tok
	}
	meta.MTime = strftime.Format(b.opts.DateFormat, e.ModTime)
	meta.CTime = strftime.Format(b.opts.DateFormat, e.ChangeTime)

	html, links, err := b.renderer.Render([]byte(res.Body))
	if err != nil {
		return nil, err
	}

	p := &models.Post{
		Metadata:   meta,
		Token:      tok,
		Category:   CategoryOf(path.Dir(e.RelPath)),
		Tags:       res.Tags,
		Related:    links,
		HTML:       html,
		Raw:        res.Body,
		RelPath:    e.RelPath,
		SourcePath: e.AbsPath,
		ModTime:    e.ModTime,
		ChangeTime: e.ChangeTime,
	}
	if meta.Client != "" {
		p.ClientToken = b.tokens.ClientToken(meta.Client)
	}
	return p, nil
}

// sortByDate orders posts newest first. Undated posts sink to the end and
// ties keep walk order.
func sortByDate(posts []*models.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].Metadata.Time().After(posts[j].Metadata.Time())
	})
}
