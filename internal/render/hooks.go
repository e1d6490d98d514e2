package render

import (
	"github.com/yuin/goldmark/ast"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

var linksKey = parser.NewContextKey()

const (
	tableClass = "table table-striped"
	imageClass = "img-fluid"
)

// hooks rewrites links and images and decorates tables after parsing.
type hooks struct {
	r *Renderer
}

func (h *hooks) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()
	links, _ := pc.Get(linksKey).(*[]Link)

	var blocked []*ast.AutoLink
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Link:
			href, local := h.r.rewriteLink(string(node.Destination))
			node.Destination = []byte(href)
			if local && links != nil {
				*links = append(*links, Link{Href: href, Text: string(node.Text(source))})
			}
		case *ast.AutoLink:
			if h.r.unsafe(string(node.URL(source)), "") {
				blocked = append(blocked, node)
			}
		case *ast.Image:
			node.Destination = []byte(h.r.rewriteMedia(string(node.Destination)))
			node.SetAttributeString("class", []byte(imageClass))
		case *extast.Table:
			node.SetAttributeString("class", []byte(tableClass))
		}
		return ast.WalkContinue, nil
	})

	// Autolinks render their URL verbatim, so blocked ones become plain
	// links with an empty href. Replacing during the walk would cut it short.
	for _, node := range blocked {
		link := ast.NewLink()
		link.AppendChild(link, ast.NewString(node.Label(source)))
		node.Parent().ReplaceChild(node.Parent(), node, link)
	}
}
