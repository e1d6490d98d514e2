package internal

import "io"

// Mode selects what Run does.
type Mode string

const (
	// ModeServe runs the HTTP server with live re-indexing.
	ModeServe Mode = "serve"
	// ModeGenerate writes the static site once and exits.
	ModeGenerate Mode = "generate"
	// ModeMCP serves the notebook to MCP clients over stdio.
	ModeMCP Mode = "mcp"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config  *Config
	mode    Mode
	version string
	logOut  io.Writer
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithMode sets the run mode. The default is ModeServe.
func WithMode(m Mode) Option {
	return func(a *application) {
		a.mode = m
	}
}

// WithVersion sets the version reported to MCP clients.
func WithVersion(v string) Option {
	return func(a *application) {
		a.version = v
	}
}

// WithLogOutput redirects the JSON log. The default is stdout, or stderr in
// MCP mode where stdout carries the protocol.
func WithLogOutput(w io.Writer) Option {
	return func(a *application) {
		a.logOut = w
	}
}
