package notebook

import (
	"strings"

	"github.com/starford/denkenote/internal/models"
)

// View is everything a page template needs.
type View struct {
	Category   string
	Categories []string
	Posts      []*models.Post
	// Post is the selected post; PostIndex its position in Posts.
	Post      *models.Post
	PostIndex int
	// Permalink is set when a post was addressed explicitly.
	Permalink bool
	// Client is set on per-client lists.
	Client string

	RootURL string
	ListURL string

	ShowCategories   bool
	ShowRelatedLinks bool
	PDF              bool
	LiveReload       bool
	Logo             string
	Static           bool
}

// IsActive reports whether p is the selected post.
func (v *View) IsActive(p *models.Post) bool { return v.Post == p }

// CategoryURL links to the list page of c.
func (v *View) CategoryURL(c string) string {
	if v.Static {
		return "./" + c + ".html"
	}
	return v.ListURL + c
}

// PostURL links to the permalink of p.
func (v *View) PostURL(p *models.Post) string {
	if v.Static {
		return "./" + p.Category + "-" + p.Token + ".html"
	}
	return v.ListURL + p.Category + "/" + p.Token
}

// PDFURL links to the PDF export of p.
func (v *View) PDFURL(p *models.Post) string {
	return v.ListURL + "print/pdf/" + p.Category + "/" + p.Token
}

// AssetURL links to an embedded static file, e.g. "app.css".
func (v *View) AssetURL(name string) string {
	return v.RootURL + "static/files/" + strings.TrimPrefix(name, "/")
}

// EventsURL is the live-reload stream.
func (v *View) EventsURL() string {
	return v.RootURL + "api/events"
}
