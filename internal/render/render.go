// Package render converts markdown bodies to HTML with goldmark, rewriting
// local links so they point at the served (or generated) notebook pages.
package render

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"

	"github.com/starford/denkenote/internal/models"
)

// Mode selects how local links are rewritten.
type Mode int

const (
	// ModeServe rewrites to live routes: {LinkBase}/{category}/{token}.
	ModeServe Mode = iota
	// ModeStatic rewrites to generated files: ./{category}-{token}.html.
	ModeStatic
)

// DefaultHighlightStyle is the chroma style used for fenced code blocks.
const DefaultHighlightStyle = "github"

// LinkResolver maps a markdown path relative to the content root to the
// category and token the indexer assigns to that file.
type LinkResolver interface {
	Resolve(rel string) (category, token string)
}

// Options configures a Renderer.
type Options struct {
	Mode Mode
	// LinkBase prefixes rewritten links in serve mode, without trailing slash.
	LinkBase string
	// MediaBase prefixes non-markdown relative targets, without trailing slash.
	MediaBase string
	// Sanitize drops raw HTML and empties script-executing hrefs.
	Sanitize       bool
	HighlightStyle string
}

// Link is a local link found while rendering a post.
type Link = models.Link

// Renderer renders markdown to HTML. It is safe for concurrent use.
type Renderer struct {
	md       goldmark.Markdown
	opts     Options
	resolver LinkResolver
}

// New builds a Renderer.
func New(opts Options, resolver LinkResolver) *Renderer {
	if opts.HighlightStyle == "" {
		opts.HighlightStyle = DefaultHighlightStyle
	}
	r := &Renderer{opts: opts, resolver: resolver}

	rendererOptions := []renderer.Option{}
	if !opts.Sanitize {
		rendererOptions = append(rendererOptions, html.WithUnsafe())
	}

	r.md = goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle(opts.HighlightStyle),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(util.Prioritized(&hooks{r: r}, 100)),
		),
		goldmark.WithRendererOptions(rendererOptions...),
	)
	return r
}

// Mode reports the link mode of the renderer.
func (r *Renderer) Mode() Mode { return r.opts.Mode }

// Render converts src to HTML and returns the local links it rewrote.
func (r *Renderer) Render(src []byte) (string, []Link, error) {
	var links []Link
	pc := parser.NewContext()
	pc.Set(linksKey, &links)

	var buf bytes.Buffer
	if err := r.md.Convert(src, &buf, parser.WithContext(pc)); err != nil {
		return "", nil, fmt.Errorf("render: convert: %w", err)
	}
	return buf.String(), links, nil
}
