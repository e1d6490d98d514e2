// Package token derives short deterministic identifiers for posts.
//
// Tokens are not cryptographic. They only need to be stable across rebuilds
// and unlikely to collide within a single notebook: a salted 64-bit xxhash
// rendered in base 36 is enough for that.
package token

import (
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/starford/denkenote/internal/models"
)

// Strategy selects which inputs identify a post.
type Strategy string

const (
	// StrategyPath hashes the absolute file path. Unique per file, changes on move/rename.
	StrategyPath Strategy = "path"
	// StrategyContent hashes date, title, client and project. Survives moves,
	// collides when two posts share all four fields.
	StrategyContent Strategy = "content"
)

// Generator produces salted tokens.
type Generator struct {
	Salt     string
	Strategy Strategy
}

// New returns a Generator. An empty strategy means StrategyPath.
func New(salt string, strategy Strategy) *Generator {
	if strategy == "" {
		strategy = StrategyPath
	}
	return &Generator{Salt: salt, Strategy: strategy}
}

// Token hashes the salt followed by parts.
func (g *Generator) Token(parts ...string) string {
	d := xxhash.New()
	_, _ = d.WriteString(g.Salt)
	for _, p := range parts {
		_, _ = d.WriteString(p)
	}
	return strconv.FormatUint(d.Sum64(), 36)
}

// ForPost returns the token of a post located at absPath with the given metadata.
func (g *Generator) ForPost(absPath string, meta models.Metadata) string {
	if g.Strategy == StrategyContent {
		return g.Token(meta.Date, meta.Title, meta.Client, meta.Project)
	}
	return g.Token(absPath)
}

// ClientToken identifies all posts of one client.
func (g *Generator) ClientToken(client string) string {
	return g.Token(client)
}
