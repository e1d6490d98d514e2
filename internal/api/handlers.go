package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/denkenote/internal/apperr"
	"github.com/starford/denkenote/internal/index"
	"github.com/starford/denkenote/internal/metrics"
	"github.com/starford/denkenote/internal/models"
	"github.com/starford/denkenote/internal/notebook"
	"github.com/starford/denkenote/internal/pdf"
	"github.com/starford/denkenote/internal/search"
	"github.com/starford/denkenote/internal/storage"
	"github.com/starford/denkenote/internal/view"
)

// Render kinds reported to the metrics recorder.
const (
	renderPage   = "page"
	renderClient = "client"
	renderPDF    = "pdf"
)

// Handler holds the HTTP handlers for the notebook.
type Handler struct {
	resolver *notebook.Resolver
	views    *view.Renderer
	pdf      pdf.Renderer
	content  storage.Provider
	index    *index.Store
	searcher search.Searcher
	recorder metrics.Recorder
	logger   *slog.Logger
}

// NewHandler creates a Handler from deps. Missing optional parts fall back
// to disabled implementations.
func NewHandler(d Deps) *Handler {
	h := &Handler{
		resolver: d.Resolver,
		views:    d.Views,
		pdf:      d.PDF,
		content:  d.Content,
		index:    d.Index,
		searcher: d.Searcher,
		recorder: d.Recorder,
		logger:   d.Logger,
	}
	if h.pdf == nil {
		h.pdf = pdf.Disabled{}
	}
	if h.recorder == nil {
		h.recorder = metrics.NoopRecorder{}
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	return h
}

// List handles GET {list}: the first post of the first category.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	h.page(w, r, renderPage, h.resolver.Resolve("", ""))
}

// Category handles GET {list}{category}.
func (h *Handler) Category(w http.ResponseWriter, r *http.Request) {
	h.page(w, r, renderPage, h.resolver.Resolve(chi.URLParam(r, "category"), ""))
}

// Post handles GET {list}{category}/{id}. The id is a token or a url slug.
func (h *Handler) Post(w http.ResponseWriter, r *http.Request) {
	h.page(w, r, renderPage, h.resolver.Resolve(chi.URLParam(r, "category"), chi.URLParam(r, "id")))
}

// Client handles GET {list}clients/{client}.
func (h *Handler) Client(w http.ResponseWriter, r *http.Request) {
	h.page(w, r, renderClient, h.resolver.ResolveClient(chi.URLParam(r, "client")))
}

func (h *Handler) page(w http.ResponseWriter, r *http.Request, kind string, res notebook.Result) {
	if res.Outcome == notebook.OutcomeNotFound {
		h.NotFound(w, r)
		return
	}
	start := time.Now()
	var (
		body []byte
		err  = res.Err
	)
	if err == nil {
		body, err = h.views.Page(res.View)
	}
	if err != nil {
		h.recorder.ObserveRender(kind, time.Since(start), metrics.OutcomeFailed)
		h.logger.Error("render page failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
		h.serverError(w, r)
		return
	}
	h.recorder.ObserveRender(kind, time.Since(start), metrics.OutcomeSuccess)
	writeHTML(w, http.StatusOK, body)
}

// PDF handles GET {list}print/pdf/{category}/{id}.
func (h *Handler) PDF(w http.ResponseWriter, r *http.Request) {
	res := h.resolver.Resolve(chi.URLParam(r, "category"), chi.URLParam(r, "id"))
	if res.Outcome != notebook.OutcomeOK {
		h.NotFound(w, r)
		return
	}
	post := res.View.Post

	start := time.Now()
	src, err := h.views.Print(post)
	var out []byte
	if err == nil {
		out, err = h.pdf.Render(r.Context(), src)
	}
	h.recorder.ObserveRender(renderPDF, time.Since(start), metrics.OutcomeOf(err, r.Context().Err() != nil))
	if err != nil {
		h.logger.Error("pdf export failed",
			slog.String("category", post.Category),
			slog.String("token", post.Token),
			slog.String("error", err.Error()))
		msg := ""
		if errors.Is(err, pdf.ErrDisabled) {
			msg = err.Error()
		}
		body, rerr := h.views.PDFError(view.ErrorPage{
			Status:  http.StatusInternalServerError,
			Message: msg,
			RootURL: h.rootURL(),
			Back:    h.postPath(post),
		})
		if rerr != nil {
			http.Error(w, "pdf export failed", http.StatusInternalServerError)
			return
		}
		writeHTML(w, http.StatusInternalServerError, body)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", post.Category+"-"+post.Token+".pdf"))
	w.Header().Set("Content-Length", strconv.Itoa(len(out)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

// Media handles GET /media/*: non-markdown files from the content root.
func (h *Handler) Media(w http.ResponseWriter, r *http.Request) {
	rel := chi.URLParam(r, "*")
	if rel == "" || strings.EqualFold(path.Ext(rel), storage.MarkdownExt) || hasDotSegment(rel) {
		h.NotFound(w, r)
		return
	}
	abs, err := h.content.Abs(rel)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !h.content.Allowed(rel) {
		h.NotFound(w, r)
		return
	}
	info, err := os.Stat(abs)
	if err != nil || info.IsDir() {
		h.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, abs)
}

// ListPosts handles GET /api/posts.
//
//	@Summary		List posts grouped by category
//	@Tags			posts
//	@Produce		json
//	@Param			category	query		string	false	"Only this category"
//	@Success		200			{object}	PostListResponse
//	@Failure		503			{object}	errResponse
//	@Router			/posts [get]
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	idx := h.index.Current()
	if idx == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody(apperr.ErrNoIndex.Error()))
		return
	}
	category := r.URL.Query().Get("category")
	if category != "" {
		if _, ok := idx.Category(category); !ok {
			writeJSON(w, http.StatusNotFound, errorBody("category not found"))
			return
		}
	}
	writeJSON(w, http.StatusOK, newPostList(idx, category))
}

// GetPost handles GET /api/posts/{category}/{id}.
//
//	@Summary		Get a post by token or url slug
//	@Tags			posts
//	@Produce		json
//	@Param			category	path		string	true	"Category"
//	@Param			id			path		string	true	"Token or url slug"
//	@Success		200			{object}	PostDetail
//	@Failure		404			{object}	errResponse
//	@Router			/posts/{category}/{id} [get]
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	res := h.resolver.Resolve(chi.URLParam(r, "category"), chi.URLParam(r, "id"))
	if res.Outcome != notebook.OutcomeOK {
		writeJSON(w, http.StatusNotFound, errorBody("post not found"))
		return
	}
	writeJSON(w, http.StatusOK, newPostDetail(res.View.Post))
}

// Search handles GET /api/search?q=.
//
//	@Summary		Full-text search over posts
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	if h.searcher == nil {
		writeJSON(w, http.StatusNotImplemented, errorBody("search is disabled"))
		return
	}
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = search.DefaultLimit
	}
	hits, err := h.searcher.Search(q, limit)
	if err != nil {
		h.logger.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if hits == nil {
		hits = []search.Hit{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: hits})
}

// Live handles GET /health/live.
func (h *Handler) Live(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

// Ready handles GET /health/ready. The server is ready once the first
// index has been published.
func (h *Handler) Ready(w http.ResponseWriter, _ *http.Request) {
	if h.index.Current() == nil {
		writeJSON(w, http.StatusServiceUnavailable, statusResponse{Status: "indexing"})
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

// NotFound renders the 404 page.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	body, err := h.views.NotFound(h.rootURL())
	if err != nil {
		h.logger.Error("render 404 failed", slog.String("error", err.Error()))
		http.NotFound(w, r)
		return
	}
	writeHTML(w, http.StatusNotFound, body)
}

func (h *Handler) serverError(w http.ResponseWriter, _ *http.Request) {
	body, err := h.views.Error(view.ErrorPage{
		Status:  http.StatusInternalServerError,
		Message: "The page could not be rendered.",
		RootURL: h.rootURL(),
	})
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	writeHTML(w, http.StatusInternalServerError, body)
}

// rootURL is the absolute site root used by error pages, which can be
// reached from any depth.
func (h *Handler) rootURL() string {
	if base := h.resolver.Settings().BaseURL; base != "" {
		return strings.TrimSuffix(base, "/") + "/"
	}
	return "/"
}

func (h *Handler) postPath(p *models.Post) string {
	return h.resolver.Settings().ListPath + p.Category + "/" + p.Token
}

func hasDotSegment(rel string) bool {
	for _, seg := range strings.Split(rel, "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}
