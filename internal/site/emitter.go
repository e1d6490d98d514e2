// Package site writes the notebook out as a static HTML site.
package site

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/starford/denkenote/internal/index"
	"github.com/starford/denkenote/internal/notebook"
	"github.com/starford/denkenote/internal/storage"
	"github.com/starford/denkenote/internal/view"
)

// ErrUnsafeOutput is returned when the output directory would wipe content.
var ErrUnsafeOutput = errors.New("site: output dir must not contain the content root")

const (
	staticDir = "static/files"
	mediaDir  = "media"
)

// Config configures an Emitter.
type Config struct {
	// StaticDir is copied over the embedded assets when set.
	StaticDir string
	// BaseURL is the public URL of the site; enables sitemap.xml.
	BaseURL string
}

// Report summarizes one emission.
type Report struct {
	Posts      int
	Categories int
	Assets     int
	Media      int
	Sitemap    bool
	Took       time.Duration
}

// Emitter renders every post of an index into an output directory.
type Emitter struct {
	content  storage.Provider
	out      *storage.Output
	resolver *notebook.Resolver
	views    *view.Renderer
	cfg      Config
	logger   *slog.Logger
}

// New returns an Emitter. resolver must be configured for static output.
func New(content storage.Provider, out *storage.Output, resolver *notebook.Resolver, views *view.Renderer, cfg Config, logger *slog.Logger) *Emitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Emitter{content: content, out: out, resolver: resolver, views: views, cfg: cfg, logger: logger}
}

// Emit replaces the output directory with a rendering of idx:
//   - {category}-{token}.html per post, the list page with that post selected
//   - {category}.html, a copy of the last post page of each category
//   - static/files/ with the page assets
//   - media/ with non-markdown content files, when there are any
//   - sitemap.xml when a base URL is configured
func (e *Emitter) Emit(ctx context.Context, idx *index.Index) (Report, error) {
	start := time.Now()
	var rep Report
	if idx == nil {
		return rep, fmt.Errorf("site: emit: no index")
	}
	if err := e.checkOutput(); err != nil {
		return rep, err
	}
	if err := e.out.Reset(); err != nil {
		return rep, err
	}

	var pages []string
	for _, category := range idx.Categories {
		posts := idx.Posts[category]
		var last []byte
		for _, p := range posts {
			if err := ctx.Err(); err != nil {
				return rep, fmt.Errorf("site: emit: %w", err)
			}
			res := e.resolver.ResolveIndex(idx, category, p.Token)
			if res.Outcome != notebook.OutcomeOK {
				return rep, fmt.Errorf("site: resolve %s/%s: %s", category, p.Token, res.Outcome)
			}
			html, err := e.views.Page(res.View)
			if err != nil {
				return rep, err
			}
			name := category + "-" + p.Token + ".html"
			if err := e.out.Write(name, html); err != nil {
				return rep, err
			}
			pages = append(pages, name)
			last = html
			rep.Posts++
		}
		if last != nil {
			if err := e.out.Write(category+".html", last); err != nil {
				return rep, err
			}
			rep.Categories++
		}
	}

	n, err := e.out.CopyFS(view.Static(), staticDir)
	if err != nil {
		return rep, err
	}
	rep.Assets = n
	if e.cfg.StaticDir != "" {
		n, err := e.out.CopyFS(os.DirFS(e.cfg.StaticDir), staticDir)
		if err != nil {
			return rep, err
		}
		rep.Assets += n
	}

	if rep.Media, err = e.copyMedia(ctx); err != nil {
		return rep, err
	}

	if e.cfg.BaseURL != "" {
		data, err := Sitemap(e.cfg.BaseURL, pages, idx.BuiltAt)
		if err != nil {
			return rep, err
		}
		if err := e.out.Write("sitemap.xml", data); err != nil {
			return rep, err
		}
		rep.Sitemap = true
	}

	rep.Took = time.Since(start)
	e.logger.Info("site: emitted",
		slog.String("output", e.out.Root()),
		slog.Int("posts", rep.Posts),
		slog.Int("categories", rep.Categories),
		slog.Int("assets", rep.Assets),
		slog.Int("media", rep.Media),
		slog.Duration("took", rep.Took))
	return rep, nil
}

func (e *Emitter) copyMedia(ctx context.Context) (int, error) {
	files, err := e.content.Media()
	if err != nil {
		return 0, err
	}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return 0, fmt.Errorf("site: emit: %w", err)
		}
		if err := e.out.CopyFile(f.AbsPath, mediaDir+"/"+f.RelPath); err != nil {
			return 0, err
		}
	}
	return len(files), nil
}

// checkOutput refuses output directories that equal or contain the content
// root, since Reset deletes them recursively.
func (e *Emitter) checkOutput() error {
	out := filepath.Clean(e.out.Root())
	root := filepath.Clean(e.content.Root())
	if out == root || strings.HasPrefix(root, out+string(filepath.Separator)) || out == string(filepath.Separator) {
		return fmt.Errorf("%w: %s", ErrUnsafeOutput, out)
	}
	return nil
}
