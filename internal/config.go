package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/denkenote/internal/index"
	"github.com/starford/denkenote/internal/token"
)

// httpURL accepts absolute http(s) URLs and root-relative paths.
var httpURL = regexp.MustCompile(`^(https?://[^\s/]+(/\S*)?|/\S*)$`)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Content ContentConfig     `yaml:"content"`
	// Salt is mixed into every token. Changing it changes every URL.
	Salt    string        `yaml:"salt"`
	View    ViewConfig    `yaml:"view"`
	Site    SiteConfig    `yaml:"site"`
	PDF     PDFConfig     `yaml:"pdf"`
	Search  SearchConfig  `yaml:"search"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.Content.Validate(); err != nil {
		return fmt.Errorf("content: %w", err)
	}
	if err := c.Site.Validate(); err != nil {
		return fmt.Errorf("site: %w", err)
	}
	if c.Site.OutputDir != "" && c.Content.Path != "" && sameOrInside(c.Content.Path, c.Site.OutputDir) {
		return errors.New("site: output_dir must not be the content directory or one of its parents")
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// PortSearch lets the server try the next ports when Port is taken.
	PortSearch int `yaml:"port_search"`
	// BaseURL replaces the relative root of every page when set.
	BaseURL string `yaml:"base_url"`
	// PublicURL prefixes rewritten links inside post bodies.
	PublicURL string `yaml:"public_url"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.PortSearch, validation.Min(0), validation.Max(100)),
		validation.Field(&c.BaseURL, validation.Match(httpURL)),
		validation.Field(&c.PublicURL, validation.Match(httpURL)),
	)
}

// ContentConfig describes the markdown directory and how it is indexed.
type ContentConfig struct {
	Path string `yaml:"path"`
	// Ignore holds glob patterns matched against paths relative to Path.
	Ignore        []string       `yaml:"ignore"`
	TokenStrategy token.Strategy `yaml:"token_strategy"`
	Sort          string         `yaml:"sort"`
	Sanitize      bool           `yaml:"sanitize"`
	DateFormat    string         `yaml:"date_format"`
	HeaderDivider string         `yaml:"header_divider"`
}

// Validate validates the content configuration.
func (c *ContentConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.TokenStrategy, validation.In(token.StrategyPath, token.StrategyContent)),
		validation.Field(&c.Sort, validation.In(index.SortPath, index.SortDate)),
	)
}

// ViewConfig holds the switches of the served pages.
type ViewConfig struct {
	// Stealth, when set, moves the notebook from / to /{stealth}/.
	Stealth          string `yaml:"stealth"`
	PDF              bool   `yaml:"pdf"`
	ShowCategories   bool   `yaml:"show_categories"`
	ShowRelatedLinks bool   `yaml:"show_related_links"`
	// Logo is an image file embedded into the header as a data URI.
	Logo       string `yaml:"logo"`
	LiveReload bool   `yaml:"live_reload"`
}

// SiteConfig controls static site generation.
type SiteConfig struct {
	OutputDir string `yaml:"output_dir"`
	// StaticDir overlays the built-in assets, both when serving and generating.
	StaticDir string `yaml:"static_dir"`
	// BaseURL is the public address of the generated site, used by the sitemap.
	BaseURL string `yaml:"base_url"`
}

// Validate validates the site configuration.
func (c *SiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Match(httpURL)),
	)
}

// PDFConfig configures the headless browser used for PDF export.
type PDFConfig struct {
	// ChromeBin is the browser binary. Empty lets rod find or download one.
	ChromeBin string `yaml:"chrome_bin"`
}

// SearchConfig holds the full-text search database configuration.
type SearchConfig struct {
	Enabled bool `yaml:"enabled"`
	// Path of the SQLite file. Empty keeps the database in memory.
	Path string `yaml:"path"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// sameOrInside reports whether dir equals child or is one of its ancestors.
func sameOrInside(child, dir string) bool {
	c, err := filepath.Abs(child)
	if err != nil {
		return false
	}
	d, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(d, c)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port:       8080,
				PortSearch: 10,
			},
		},
		Content: ContentConfig{
			Path:          "./content",
			TokenStrategy: token.StrategyPath,
			Sort:          index.SortPath,
			DateFormat:    index.DefaultDateFormat,
		},
		Salt: "denkenote",
		View: ViewConfig{
			ShowCategories:   true,
			ShowRelatedLinks: true,
			LiveReload:       true,
		},
		Site: SiteConfig{
			OutputDir: "./public",
		},
		Search: SearchConfig{
			Enabled: true,
		},
	}
}
