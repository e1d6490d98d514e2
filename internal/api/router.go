package api

import (
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/starford/denkenote/internal/index"
	"github.com/starford/denkenote/internal/metrics"
	"github.com/starford/denkenote/internal/notebook"
	"github.com/starford/denkenote/internal/pdf"
	"github.com/starford/denkenote/internal/search"
	"github.com/starford/denkenote/internal/storage"
	"github.com/starford/denkenote/internal/view"
)

// Deps are the collaborators of the HTTP surface. Searcher, Events,
// Metrics, PDF and Recorder are optional.
type Deps struct {
	Resolver *notebook.Resolver
	Views    *view.Renderer
	Content  storage.Provider
	Index    *index.Store
	PDF      pdf.Renderer
	Searcher search.Searcher
	// Events is the live-reload stream mounted at /api/events.
	Events http.Handler
	// Metrics is the scrape endpoint mounted at /metrics.
	Metrics  http.Handler
	Recorder metrics.Recorder
	// StaticDir overlays the embedded assets under /static/files/.
	StaticDir string
	Logger    *slog.Logger
}

// NewRouter creates a chi router with every notebook route mounted.
// Fixed segments (print, clients) take precedence over category names.
func NewRouter(d Deps) chi.Router {
	h := NewHandler(d)
	settings := d.Resolver.Settings()
	stealth := settings.ListPath != "/"

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(NoIndexMiddleware(stealth))
	r.NotFound(h.NotFound)

	r.Get("/health/live", h.Live)
	r.Get("/health/ready", h.Ready)
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics)
	}

	r.Handle("/static/files/*", http.StripPrefix("/static/files/", staticHandler(d.StaticDir, h)))
	r.Get("/media/*", h.Media)

	r.Route("/api", func(r chi.Router) {
		r.Use(NoCacheMiddleware)
		r.Get("/posts", h.ListPosts)
		r.Get("/posts/{category}/{id}", h.GetPost)
		r.Get("/search", h.Search)
		if d.Events != nil {
			r.Get("/events", d.Events.ServeHTTP)
		}
	})

	notebookRoutes := func(r chi.Router) {
		r.Use(NoCacheMiddleware)
		r.Get("/", h.List)
		if settings.PDF {
			r.Get("/print/pdf/{category}/{id}", h.PDF)
		}
		r.Get("/clients/{client}", h.Client)
		r.Get("/{category}", h.Category)
		r.Get("/{category}/{id}", h.Post)
	}
	if stealth {
		r.Route(strings.TrimSuffix(settings.ListPath, "/"), notebookRoutes)
	} else {
		r.Group(notebookRoutes)
	}

	return r
}

// staticHandler serves the embedded assets, preferring files from dir.
func staticHandler(dir string, h *Handler) http.Handler {
	var fsys fs.FS = view.Static()
	if dir != "" {
		fsys = overlayFS{upper: os.DirFS(dir), lower: fsys}
	}
	files := http.FileServerFS(fsys)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/")
		if name == "" || strings.HasSuffix(name, "/") {
			h.NotFound(w, r)
			return
		}
		if info, err := fs.Stat(fsys, name); err != nil || info.IsDir() {
			h.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}

// overlayFS opens names from upper first and falls back to lower.
type overlayFS struct {
	upper fs.FS
	lower fs.FS
}

func (o overlayFS) Open(name string) (fs.File, error) {
	if f, err := o.upper.Open(name); err == nil {
		return f, nil
	}
	return o.lower.Open(name)
}
