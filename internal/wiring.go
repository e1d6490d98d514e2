package internal

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/starford/denkenote/internal/index"
	"github.com/starford/denkenote/internal/notebook"
	"github.com/starford/denkenote/internal/render"
	"github.com/starford/denkenote/internal/storage"
	"github.com/starford/denkenote/internal/token"
	"github.com/starford/denkenote/internal/view"
)

// pipeline is the indexing and rendering stack shared by every mode.
type pipeline struct {
	root     string
	content  *storage.FS
	filter   *storage.Filter
	tokens   *token.Generator
	builder  *index.Builder
	views    *view.Renderer
	settings notebook.Settings
}

func newPipeline(cfg *Config, static bool, logger *slog.Logger) (*pipeline, error) {
	filter, err := storage.NewFilter(cfg.Content.Ignore, insideRoot([]string{cfg.Site.OutputDir}, cfg.Content.Path)...)
	if err != nil {
		return nil, fmt.Errorf("init filter: %w", err)
	}
	content, err := storage.NewFS(cfg.Content.Path, filter)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	logo, err := logoDataURI(cfg.View.Logo)
	if err != nil {
		return nil, fmt.Errorf("load logo: %w", err)
	}
	settings := notebook.Settings{
		ListPath:         notebook.NormalizeListPath(cfg.View.Stealth),
		BaseURL:          cfg.App.HTTP.BaseURL,
		ShowCategories:   cfg.View.ShowCategories,
		ShowRelatedLinks: cfg.View.ShowRelatedLinks,
		PDF:              cfg.View.PDF,
		LiveReload:       cfg.View.LiveReload,
		Logo:             logo,
		Static:           static,
	}

	opts := render.Options{Mode: render.ModeServe, Sanitize: cfg.Content.Sanitize}
	if static {
		opts.Mode = render.ModeStatic
	} else {
		public := strings.TrimSuffix(cfg.App.HTTP.PublicURL, "/")
		opts.LinkBase = public + strings.TrimSuffix(settings.ListPath, "/")
		opts.MediaBase = public + "/media"
	}

	tokens := token.New(cfg.Salt, cfg.Content.TokenStrategy)
	linker := index.NewLinker(content, tokens, cfg.Content.HeaderDivider)
	builder := index.NewBuilder(content, tokens, render.New(opts, linker), index.Options{
		Divider:    cfg.Content.HeaderDivider,
		DateFormat: cfg.Content.DateFormat,
		Sort:       cfg.Content.Sort,
	}, logger)

	views, err := view.New()
	if err != nil {
		return nil, err
	}

	return &pipeline{
		root:     content.Root(),
		content:  content,
		filter:   filter,
		tokens:   tokens,
		builder:  builder,
		views:    views,
		settings: settings,
	}, nil
}

// ignoreFunc tells the watcher which absolute paths never trigger a rebuild.
// Each extra file is ignored together with its "-suffix" siblings, which
// covers SQLite's -wal and -shm files.
func (p *pipeline) ignoreFunc(extra ...string) func(string) bool {
	return func(abs string) bool {
		for _, e := range extra {
			if e != "" && (abs == e || strings.HasPrefix(abs, e+"-")) {
				return true
			}
		}
		rel, err := filepath.Rel(p.root, abs)
		if err != nil || rel == "." {
			return false
		}
		return p.filter.Skip(filepath.ToSlash(rel), abs, false)
	}
}

// insideRoot keeps the directories that lie inside the content root; the
// others cannot show up in a walk.
func insideRoot(dirs []string, contentRoot string) []string {
	root, err := filepath.Abs(contentRoot)
	if err != nil {
		return nil
	}
	var out []string
	for _, d := range dirs {
		if d == "" {
			continue
		}
		abs, err := filepath.Abs(d)
		if err != nil || abs == root {
			continue
		}
		if strings.HasPrefix(abs, root+string(filepath.Separator)) {
			out = append(out, abs)
		}
	}
	return out
}

// logoDataURI inlines a local logo image. URLs are passed through.
func logoDataURI(logo string) (string, error) {
	if logo == "" || strings.HasPrefix(logo, "data:") ||
		strings.HasPrefix(logo, "http://") || strings.HasPrefix(logo, "https://") {
		return logo, nil
	}
	data, err := os.ReadFile(logo)
	if err != nil {
		return "", err
	}
	typ := mime.TypeByExtension(filepath.Ext(logo))
	if typ == "" {
		typ = http.DetectContentType(data)
	}
	return "data:" + typ + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// listen binds the configured port, or the next free one within
// PortSearch when it is taken.
func listen(cfg HTTPConfig, logger *slog.Logger) (net.Listener, error) {
	var lastErr error
	for i := 0; i <= cfg.PortSearch; i++ {
		port := cfg.Port + i
		if port > 65535 {
			break
		}
		ln, err := net.Listen("tcp", net.JoinHostPort(cfg.Host, strconv.Itoa(port)))
		if err == nil {
			if i > 0 {
				logger.Warn("configured port is taken, using the next free one",
					slog.Int("configured", cfg.Port),
					slog.Int("port", port))
			}
			return ln, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("listen: no free port from %d: %w", cfg.Port, lastErr)
}
