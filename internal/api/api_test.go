package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/denkenote/internal/index"
	"github.com/starford/denkenote/internal/notebook"
	"github.com/starford/denkenote/internal/render"
	"github.com/starford/denkenote/internal/search"
	"github.com/starford/denkenote/internal/storage"
	"github.com/starford/denkenote/internal/testutil"
	"github.com/starford/denkenote/internal/token"
	"github.com/starford/denkenote/internal/view"
)

type fakePDF struct {
	out []byte
	err error
	got []byte
}

func (f *fakePDF) Render(_ context.Context, html []byte) ([]byte, error) {
	f.got = html
	return f.out, f.err
}

type fakeSearcher struct {
	hits  []search.Hit
	query string
}

func (f *fakeSearcher) Search(query string, _ int) ([]search.Hit, error) {
	f.query = query
	return f.hits, nil
}

type testEnv struct {
	router http.Handler
	index  *index.Store
	tokens *token.Generator
	root   string
	pdf    *fakePDF
}

var testFiles = map[string]string{
	"work/plan.md":    "---\ntitle: Plan\nclient: ACME\nurl: plan\n---\nSee [notes](work/notes.md).",
	"work/notes.md":   "---\ntitle: Notes\n---\nbody",
	"home/garden.md":  "---\ntitle: Garden\nclient: ACME\n---\nroses",
	"home/photo.png":  "png-bytes",
	"home/.secret.md": "hidden",
}

func newTestEnv(t *testing.T, settings notebook.Settings, mutate func(*Deps)) *testEnv {
	t.Helper()
	root := testutil.Content(t, testFiles)
	content := testutil.Store(t, root)
	tokens := token.New("salt", token.StrategyPath)
	r := render.New(render.Options{Mode: render.ModeServe}, index.NewLinker(content, tokens, ""))
	idx, err := index.NewBuilder(content, tokens, r, index.Options{}, testutil.Logger()).Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	store := index.NewStore()
	store.Publish(idx)

	views, err := view.New()
	if err != nil {
		t.Fatal(err)
	}
	fp := &fakePDF{out: []byte("%PDF-1.4")}
	d := Deps{
		Resolver: notebook.NewResolver(store, settings),
		Views:    views,
		Content:  content,
		Index:    store,
		PDF:      fp,
		Logger:   testutil.Logger(),
	}
	if mutate != nil {
		mutate(&d)
	}
	return &testEnv{router: NewRouter(d), index: store, tokens: tokens, root: root, pdf: fp}
}

func (e *testEnv) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) tokenOf(rel string) string {
	return e.tokens.Token(filepath.Join(e.root, filepath.FromSlash(rel)))
}

func TestList_FirstCategoryFirstPost(t *testing.T) {
	env := newTestEnv(t, notebook.Settings{ShowCategories: true}, nil)
	w := env.get(t, "/")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %q", ct)
	}
	// Categories are discovered in lexical path order: home before work.
	if !strings.Contains(w.Body.String(), "Garden") {
		t.Errorf("list page should show the first post of home:\n%s", w.Body.String())
	}
}

func TestPost_ByTokenAndSlug(t *testing.T) {
	env := newTestEnv(t, notebook.Settings{}, nil)

	w := env.get(t, "/work/"+env.tokenOf("work/notes.md"))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "<h1>Notes</h1>") {
		t.Fatalf("by token: status = %d", w.Code)
	}
	w = env.get(t, "/work/plan")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "<h1>Plan</h1>") {
		t.Fatalf("by slug: status = %d", w.Code)
	}
}

func TestPost_NotFound(t *testing.T) {
	env := newTestEnv(t, notebook.Settings{}, nil)
	for _, target := range []string{"/nope", "/work/nope", "/home/" + env.tokenOf("work/plan.md"), "/a/b/c"} {
		w := env.get(t, target)
		if w.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d, want 404", target, w.Code)
		}
		if !strings.Contains(w.Body.String(), "Not found") {
			t.Errorf("%s: expected the 404 view", target)
		}
	}
}

func TestEmptyIndex_NotFound(t *testing.T) {
	env := newTestEnv(t, notebook.Settings{}, nil)
	env.index.Publish(index.NewIndex())
	if w := env.get(t, "/"); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestClientView(t *testing.T) {
	env := newTestEnv(t, notebook.Settings{}, nil)
	w := env.get(t, "/clients/"+env.tokens.ClientToken("ACME"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Plan") || !strings.Contains(body, "Garden") {
		t.Errorf("client view should list both ACME posts:\n%s", body)
	}
	if w := env.get(t, "/clients/unknown"); w.Code != http.StatusNotFound {
		t.Errorf("unknown client status = %d", w.Code)
	}
}

func TestStealthListPath(t *testing.T) {
	env := newTestEnv(t, notebook.Settings{ListPath: "hidden"}, nil)

	if w := env.get(t, "/"); w.Code != http.StatusNotFound {
		t.Errorf("root status = %d, want 404", w.Code)
	}
	w := env.get(t, "/hidden/work/plan")
	if w.Code != http.StatusOK {
		t.Fatalf("stealth post status = %d", w.Code)
	}
	if got := w.Header().Get("X-Robots-Tag"); got == "" {
		t.Error("stealth pages should carry X-Robots-Tag")
	}
	if w := env.get(t, "/work/plan"); w.Code != http.StatusNotFound {
		t.Errorf("unprefixed post status = %d, want 404", w.Code)
	}
}

func TestPDF(t *testing.T) {
	env := newTestEnv(t, notebook.Settings{PDF: true}, nil)
	tok := env.tokenOf("work/plan.md")

	w := env.get(t, "/print/pdf/work/"+tok)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("content type = %q", ct)
	}
	want := `attachment; filename="work-` + tok + `.pdf"`
	if cd := w.Header().Get("Content-Disposition"); cd != want {
		t.Errorf("disposition = %q, want %q", cd, want)
	}
	if w.Body.String() != "%PDF-1.4" {
		t.Errorf("body = %q", w.Body.String())
	}
	if !strings.Contains(string(env.pdf.got), "Plan") {
		t.Error("print page should contain the post")
	}
}

func TestPDF_FailureShowsErrorView(t *testing.T) {
	env := newTestEnv(t, notebook.Settings{PDF: true}, nil)
	env.pdf.err = errors.New("chrome not found")

	w := env.get(t, "/print/pdf/work/plan")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "PDF export failed") {
		t.Errorf("expected the PDF error view:\n%s", w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `href="/work/`+env.tokenOf("work/plan.md")+`"`) {
		t.Error("error view should link back to the post")
	}
}

func TestPDF_RouteOffWhenDisabled(t *testing.T) {
	env := newTestEnv(t, notebook.Settings{}, nil)
	// Without the print route, "print" is read as a category name.
	if w := env.get(t, "/print/pdf/work/plan"); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestStaticFiles(t *testing.T) {
	overlay := t.TempDir()
	testutil.WriteFile(t, overlay, "app.css", "body{color:red}")
	env := newTestEnv(t, notebook.Settings{}, func(d *Deps) { d.StaticDir = overlay })

	w := env.get(t, "/static/files/app.css")
	if w.Code != http.StatusOK || w.Body.String() != "body{color:red}" {
		t.Errorf("overlay app.css: status = %d, body = %q", w.Code, w.Body.String())
	}
	w = env.get(t, "/static/files/live.js")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "EventSource") {
		t.Errorf("embedded live.js: status = %d", w.Code)
	}
	if w := env.get(t, "/static/files/"); w.Code != http.StatusNotFound {
		t.Errorf("directory listing status = %d, want 404", w.Code)
	}
	if w := env.get(t, "/static/files/missing.css"); w.Code != http.StatusNotFound {
		t.Errorf("missing asset status = %d, want 404", w.Code)
	}
}

func TestMedia(t *testing.T) {
	env := newTestEnv(t, notebook.Settings{}, nil)

	w := env.get(t, "/media/home/photo.png")
	if w.Code != http.StatusOK || w.Body.String() != "png-bytes" {
		t.Errorf("media: status = %d, body = %q", w.Code, w.Body.String())
	}
	for _, target := range []string{"/media/work/plan.md", "/media/home/.secret.md", "/media/home/missing.png", "/media/home"} {
		if w := env.get(t, target); w.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d, want 404", target, w.Code)
		}
	}
}

func TestMedia_HonoursContentFilter(t *testing.T) {
	env := newTestEnv(t, notebook.Settings{}, func(d *Deps) {
		root := d.Content.Root()
		testutil.WriteFile(t, root, "private/secret.txt", "s3cret")
		testutil.WriteFile(t, root, "_site/a-x.html", "generated")
		filter, err := storage.NewFilter([]string{"private/**"}, filepath.Join(root, "_site"))
		if err != nil {
			t.Fatal(err)
		}
		content, err := storage.NewFS(root, filter)
		if err != nil {
			t.Fatal(err)
		}
		d.Content = content
	})

	for _, target := range []string{"/media/private/secret.txt", "/media/_site/a-x.html"} {
		if w := env.get(t, target); w.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d, want 404", target, w.Code)
		}
	}
	if w := env.get(t, "/media/home/photo.png"); w.Code != http.StatusOK {
		t.Errorf("unfiltered media status = %d", w.Code)
	}
}

func TestMedia_TraversalBlocked(t *testing.T) {
	env := newTestEnv(t, notebook.Settings{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/media/x", nil)
	req.URL.Path = "/media/../../etc/passwd"
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code == http.StatusOK {
		t.Fatal("traversal should not be served")
	}
}

func TestAPIPosts(t *testing.T) {
	env := newTestEnv(t, notebook.Settings{}, nil)

	w := env.get(t, "/api/posts")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp PostListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != 3 || len(resp.Categories) != 2 {
		t.Fatalf("resp = %+v", resp)
	}
	if strings.Contains(w.Body.String(), env.root) {
		t.Error("source paths must not leak into the API")
	}

	w = env.get(t, "/api/posts?category=work")
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 2 || resp.Categories[0].Name != "work" {
		t.Errorf("filtered resp = %+v", resp)
	}
	if w := env.get(t, "/api/posts?category=nope"); w.Code != http.StatusNotFound {
		t.Errorf("unknown category status = %d", w.Code)
	}
}

func TestAPIPost(t *testing.T) {
	env := newTestEnv(t, notebook.Settings{}, nil)
	w := env.get(t, "/api/posts/work/plan")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var p PostDetail
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatal(err)
	}
	if p.Title != "Plan" || p.Client != "ACME" || p.HTML == "" || len(p.Related) != 1 {
		t.Errorf("post = %+v", p)
	}
	if w := env.get(t, "/api/posts/work/nope"); w.Code != http.StatusNotFound {
		t.Errorf("missing post status = %d", w.Code)
	}
}

func TestAPIPosts_BeforeFirstBuild(t *testing.T) {
	env := newTestEnv(t, notebook.Settings{}, func(d *Deps) {
		d.Index = index.NewStore()
	})
	if w := env.get(t, "/api/posts"); w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
	if w := env.get(t, "/health/ready"); w.Code != http.StatusServiceUnavailable {
		t.Errorf("ready status = %d, want 503", w.Code)
	}
}

func TestSearchEndpoint(t *testing.T) {
	s := &fakeSearcher{hits: []search.Hit{{Token: "t1", Category: "work", Title: "Plan", Snippet: "<b>plan</b>"}}}
	env := newTestEnv(t, notebook.Settings{}, func(d *Deps) { d.Searcher = s })

	w := env.get(t, "/api/search?q=plan")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp SearchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Token != "t1" || s.query != "plan" {
		t.Errorf("resp = %+v, query = %q", resp, s.query)
	}
}

func TestSearchMissingQuery(t *testing.T) {
	env := newTestEnv(t, notebook.Settings{}, func(d *Deps) { d.Searcher = &fakeSearcher{} })
	if w := env.get(t, "/api/search"); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestSearchDisabled(t *testing.T) {
	env := newTestEnv(t, notebook.Settings{}, nil)
	if w := env.get(t, "/api/search?q=x"); w.Code != http.StatusNotImplemented {
		t.Errorf("status = %d, want 501", w.Code)
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, notebook.Settings{}, nil)
	for _, target := range []string{"/health/live", "/health/ready"} {
		w := env.get(t, target)
		if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok"`) {
			t.Errorf("%s: status = %d, body = %s", target, w.Code, w.Body.String())
		}
	}
}

func TestMetricsAndEventsMounted(t *testing.T) {
	called := map[string]bool{}
	stub := func(name string) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			called[name] = true
			w.WriteHeader(http.StatusOK)
		})
	}
	env := newTestEnv(t, notebook.Settings{}, func(d *Deps) {
		d.Metrics = stub("metrics")
		d.Events = stub("events")
	})
	env.get(t, "/metrics")
	env.get(t, "/api/events")
	if !called["metrics"] || !called["events"] {
		t.Errorf("called = %v", called)
	}
}

func TestRecoverer(t *testing.T) {
	env := newTestEnv(t, notebook.Settings{}, func(d *Deps) { d.Searcher = panicSearcher{} })
	if w := env.get(t, "/api/search?q=x"); w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

type panicSearcher struct{}

func (panicSearcher) Search(string, int) ([]search.Hit, error) { panic("boom") }
