// Package view renders notebook pages from embedded html/template files.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"github.com/starford/denkenote/internal/models"
	"github.com/starford/denkenote/internal/notebook"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Static returns the embedded assets served under /static/files/.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(fmt.Sprintf("view: embedded static dir missing: %v", err))
	}
	return sub
}

// ErrorPage is the data of the 404, error and PDF error pages.
type ErrorPage struct {
	Status  int
	Title   string
	Message string
	RootURL string
	// Back links to the page the failed action started from, if any.
	Back string
}

// printPage is the data of the PDF source page.
type printPage struct {
	Post *models.Post
	CSS  template.CSS
}

// Renderer executes the page templates.
type Renderer struct {
	tmpl     *template.Template
	printCSS template.CSS
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	tmpl, err := template.New("").Funcs(Funcs()).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("view: parse templates: %w", err)
	}
	css, err := fs.ReadFile(staticFS, "static/print.css")
	if err != nil {
		return nil, fmt.Errorf("view: read print css: %w", err)
	}
	return &Renderer{tmpl: tmpl, printCSS: template.CSS(css)}, nil
}

// Page renders the list/detail page of v.
func (r *Renderer) Page(v *notebook.View) ([]byte, error) {
	return r.execute("index.html", v)
}

// NotFound renders the 404 page.
func (r *Renderer) NotFound(rootURL string) ([]byte, error) {
	return r.execute("404.html", ErrorPage{
		Status:  404,
		Title:   "Not found",
		Message: "There is no such category or post.",
		RootURL: rootURL,
	})
}

// Error renders the generic error page.
func (r *Renderer) Error(p ErrorPage) ([]byte, error) {
	if p.Title == "" {
		p.Title = "Something went wrong"
	}
	return r.execute("error.html", p)
}

// Print renders the self-contained page handed to the PDF backend.
func (r *Renderer) Print(p *models.Post) ([]byte, error) {
	return r.execute("pdf.html", printPage{Post: p, CSS: r.printCSS})
}

// PDFError renders the page shown when a PDF export fails.
func (r *Renderer) PDFError(p ErrorPage) ([]byte, error) {
	if p.Title == "" {
		p.Title = "PDF export failed"
	}
	return r.execute("pdf_error.html", p)
}

// execute renders into a buffer so a failing template never leaves a
// half-written response behind.
func (r *Renderer) execute(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("view: execute %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// Funcs are the template helpers.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"categoryName": CategoryName,
		"ago":          Ago,
		"safeHTML":     func(s string) template.HTML { return template.HTML(s) },
		"safeURL":      func(s string) template.URL { return template.URL(s) },
		"year":         func() int { return time.Now().Year() },
	}
}

// CategoryName turns a category key into a display label: a numeric
// ordering prefix is dropped, dashes become spaces and the first letter is
// upper-cased ("01-client-work" → "Client work").
func CategoryName(c string) string {
	if c == models.RootCategory {
		return "Notes"
	}
	if head, rest, ok := strings.Cut(c, "-"); ok && rest != "" && isDigits(head) {
		c = rest
	}
	c = strings.ReplaceAll(c, "-", " ")
	r, size := utf8.DecodeRuneInString(c)
	if r == utf8.RuneError {
		return c
	}
	return string(unicode.ToUpper(r)) + c[size:]
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// Ago renders t relative to now ("3 hours ago"); the zero time renders empty.
func Ago(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return humanize.Time(t)
}
