// Package notebook resolves requests for categories and posts against the
// published index and describes the result as a View for the templates.
package notebook

import (
	"strings"

	"github.com/starford/denkenote/internal/index"
	"github.com/starford/denkenote/internal/models"
)

// Outcome classifies a resolution or render result.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeNotFound
	OutcomeError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeNotFound:
		return "not_found"
	default:
		return "error"
	}
}

// Result is what the transport layer maps to a page.
type Result struct {
	Outcome Outcome
	View    *View
	Err     error
}

func notFound() Result { return Result{Outcome: OutcomeNotFound} }

// Settings carry the configuration-driven parts of every View.
type Settings struct {
	// ListPath is "/" or the stealth prefix, with leading and trailing slash.
	ListPath string
	// BaseURL, when set, replaces the computed relative root.
	BaseURL          string
	ShowCategories   bool
	ShowRelatedLinks bool
	PDF              bool
	LiveReload       bool
	// Logo is a data URI (or URL) shown in the page header.
	Logo string
	// Static renders links to generated files instead of live routes.
	Static bool
}

// NormalizeListPath turns a stealth setting into a list path: "" → "/",
// "secret" → "/secret/".
func NormalizeListPath(stealth string) string {
	s := strings.Trim(stealth, "/")
	if s == "" {
		return "/"
	}
	return "/" + s + "/"
}

// Resolver answers lookups against the currently published index.
type Resolver struct {
	store    *index.Store
	settings Settings
}

// NewResolver returns a Resolver reading from store.
func NewResolver(store *index.Store, settings Settings) *Resolver {
	settings.ListPath = NormalizeListPath(settings.ListPath)
	return &Resolver{store: store, settings: settings}
}

// Settings returns the resolver's settings.
func (r *Resolver) Settings() Settings { return r.settings }

// Resolve looks up category and id in the published index. Either may be
// empty: no category means the first one, no id means the list view.
func (r *Resolver) Resolve(category, id string) Result {
	return r.ResolveIndex(r.store.Current(), category, id)
}

// ResolveIndex is Resolve against a given snapshot.
func (r *Resolver) ResolveIndex(idx *index.Index, category, id string) Result {
	if idx == nil || len(idx.Categories) == 0 {
		return notFound()
	}
	if category == "" {
		category = idx.Categories[0]
	}
	posts, ok := idx.Category(category)
	if !ok || len(posts) == 0 {
		return notFound()
	}

	pos := 0
	if id != "" {
		pos = findPost(posts, id)
		if pos < 0 {
			return notFound()
		}
	}

	v := r.newView(idx, id != "")
	v.Category = category
	v.Posts = posts
	v.PostIndex = pos
	v.Post = posts[pos]
	return Result{Outcome: OutcomeOK, View: v}
}

// ResolveClient lists every post whose client token matches. A post whose
// url equals the token is listed too, so a single post can be shared
// through the same route.
func (r *Resolver) ResolveClient(clientToken string) Result {
	idx := r.store.Current()
	if idx == nil || clientToken == "" {
		return notFound()
	}
	var posts []*models.Post
	for _, p := range idx.All() {
		if p.ClientToken == clientToken || p.Metadata.URL == clientToken {
			posts = append(posts, p)
		}
	}
	if len(posts) == 0 {
		return notFound()
	}
	v := r.newView(idx, true)
	v.Client = posts[0].Metadata.Client
	v.Posts = posts
	v.Post = posts[0]
	v.ShowCategories = false
	return Result{Outcome: OutcomeOK, View: v}
}

// findPost returns the position of the post whose token equals id, else
// the first whose url equals id, else -1.
func findPost(posts []*models.Post, id string) int {
	for i, p := range posts {
		if p.Token == id {
			return i
		}
	}
	for i, p := range posts {
		if p.Metadata.URL == id {
			return i
		}
	}
	return -1
}

func (r *Resolver) newView(idx *index.Index, nested bool) *View {
	s := r.settings
	v := &View{
		Categories:       idx.Categories,
		Permalink:        nested,
		ShowCategories:   s.ShowCategories && len(idx.Categories) > 1,
		ShowRelatedLinks: s.ShowRelatedLinks,
		PDF:              s.PDF && !s.Static,
		LiveReload:       s.LiveReload && !s.Static,
		Logo:             s.Logo,
		Static:           s.Static,
	}
	v.RootURL = rootURL(s, nested)
	v.ListURL = v.RootURL + strings.TrimPrefix(s.ListPath, "/")
	if s.Static {
		v.ListURL = "./"
	}
	return v
}

// rootURL is the relative path from a page back to the site root. List
// pages live in the list path's directory; permalinks one level deeper.
func rootURL(s Settings, nested bool) string {
	if s.Static {
		return "./"
	}
	if s.BaseURL != "" {
		return strings.TrimSuffix(s.BaseURL, "/") + "/"
	}
	hops := strings.Count(strings.Trim(s.ListPath, "/"), "/")
	if strings.Trim(s.ListPath, "/") != "" {
		hops++
	}
	if nested {
		hops++
	}
	if hops == 0 {
		return "./"
	}
	return strings.Repeat("../", hops)
}
