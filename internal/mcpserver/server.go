// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the notebook read-only to LLM clients over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/denkenote/internal/apperr"
	"github.com/starford/denkenote/internal/index"
	"github.com/starford/denkenote/internal/models"
	"github.com/starford/denkenote/internal/notebook"
	"github.com/starford/denkenote/internal/search"
	"github.com/starford/denkenote/internal/token"
)

// PostFormatURI is the resource holding PostFormatContract.
const PostFormatURI = "denkenote://post-format"

// Server wraps the MCP server with notebook tools.
type Server struct {
	mcp      *server.MCPServer
	store    *index.Store
	resolver *notebook.Resolver
	searcher search.Searcher
	tokens   *token.Generator
}

// New creates an MCP server over the published index. searcher may be nil
// when search is disabled.
func New(store *index.Store, resolver *notebook.Resolver, searcher search.Searcher, tokens *token.Generator, version string) *Server {
	s := &Server{store: store, resolver: resolver, searcher: searcher, tokens: tokens}

	s.mcp = server.NewMCPServer(
		"denkenote",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_categories",
		mcp.WithDescription("List the notebook categories in display order with their post counts."),
	), s.listCategories)

	s.mcp.AddTool(mcp.NewTool("list_posts",
		mcp.WithDescription("List posts (token, title, date, url) of one category, or of all categories."),
		mcp.WithString("category", mcp.Description("Category key as returned by list_categories (empty for all)")),
	), s.listPosts)

	s.mcp.AddTool(mcp.NewTool("read_post",
		mcp.WithDescription("Read the markdown body and metadata of a post."),
		mcp.WithString("category", mcp.Required(), mcp.Description("Category key")),
		mcp.WithString("id", mcp.Required(), mcp.Description("Post token or url slug")),
	), s.readPost)

	s.mcp.AddTool(mcp.NewTool("client_posts",
		mcp.WithDescription("List every post written for a client, across categories."),
		mcp.WithString("client", mcp.Required(), mcp.Description("Client name exactly as in the front matter")),
	), s.clientPosts)

	s.mcp.AddTool(mcp.NewTool("search_posts",
		mcp.WithDescription("Full-text search through post titles, bodies and tags."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchPosts)

	s.mcp.AddTool(mcp.NewTool("get_post_format",
		mcp.WithDescription("Returns the post file format: front matter fields and link rules."),
	), s.getPostFormat)

	s.mcp.AddResource(
		mcp.NewResource(PostFormatURI, "Post Format",
			mcp.WithResourceDescription("Markdown post format understood by denkenote."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readPostFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

type categoryInfo struct {
	Category string `json:"category"`
	Posts    int    `json:"posts"`
}

type postInfo struct {
	Token    string `json:"token"`
	Category string `json:"category"`
	Title    string `json:"title"`
	Date     string `json:"date,omitempty"`
	URL      string `json:"url"`
	Client   string `json:"client,omitempty"`
}

func toPostInfo(p *models.Post) postInfo {
	return postInfo{
		Token:    p.Token,
		Category: p.Category,
		Title:    p.Title(),
		Date:     p.Metadata.Date,
		URL:      p.Metadata.URL,
		Client:   p.Metadata.Client,
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) current() (*index.Index, *mcp.CallToolResult) {
	idx := s.store.Current()
	if idx == nil {
		return nil, mcp.NewToolResultError(apperr.ErrNoIndex.Error())
	}
	return idx, nil
}

func (s *Server) listCategories(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idx, errResult := s.current()
	if errResult != nil {
		return errResult, nil
	}
	out := make([]categoryInfo, 0, len(idx.Categories))
	for _, c := range idx.Categories {
		out = append(out, categoryInfo{Category: c, Posts: len(idx.Posts[c])})
	}
	return jsonResult(out)
}

func (s *Server) listPosts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idx, errResult := s.current()
	if errResult != nil {
		return errResult, nil
	}
	posts := idx.All()
	if category := req.GetString("category", ""); category != "" {
		var ok bool
		if posts, ok = idx.Category(category); !ok {
			return mcp.NewToolResultError(fmt.Sprintf("unknown category: %s", category)), nil
		}
	}
	out := make([]postInfo, 0, len(posts))
	for _, p := range posts {
		out = append(out, toPostInfo(p))
	}
	return jsonResult(out)
}

func (s *Server) readPost(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category, err := req.RequireString("category")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res := s.resolver.Resolve(category, id)
	if res.Outcome != notebook.OutcomeOK {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s/%s", category, id)), nil
	}
	p := res.View.Post
	return jsonResult(struct {
		postInfo
		Metadata models.Metadata `json:"metadata"`
		Tags     []string        `json:"tags,omitempty"`
		Body     string          `json:"body"`
	}{toPostInfo(p), p.Metadata, p.Tags, p.Raw})
}

func (s *Server) clientPosts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, err := req.RequireString("client")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res := s.resolver.ResolveClient(s.tokens.ClientToken(client))
	if res.Outcome != notebook.OutcomeOK {
		return mcp.NewToolResultText("no posts found"), nil
	}
	out := make([]postInfo, 0, len(res.View.Posts))
	for _, p := range res.View.Posts {
		out = append(out, toPostInfo(p))
	}
	return jsonResult(out)
}

func (s *Server) searchPosts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if s.searcher == nil {
		return mcp.NewToolResultError("search is disabled"), nil
	}
	hits, err := s.searcher.Search(query, search.DefaultLimit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if hits == nil {
		hits = []search.Hit{}
	}
	return jsonResult(hits)
}

func (s *Server) getPostFormat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(PostFormatContract), nil
}

func (s *Server) readPostFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      PostFormatURI,
			MIMEType: "text/markdown",
			Text:     PostFormatContract,
		},
	}, nil
}
