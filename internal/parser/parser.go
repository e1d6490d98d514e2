// Package parser splits markdown files into front-matter metadata and body,
// and extracts titles and tags.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"
)

// ErrInvalidFrontmatter is returned when a metadata block exists but cannot be decoded.
var ErrInvalidFrontmatter = errors.New("invalid front matter")

var tagRe = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)

// Result holds the output of parsing a markdown file.
type Result struct {
	Metadata map[string]any
	Body     string
	Title    string
	Tags     []string
}

// Parse extracts front matter, body, title and tags from raw bytes.
//
// Delimited front matter (--- YAML, +++ TOML, ;;; JSON) is tried first. When
// divider is non-empty and no delimited block was found, everything before the
// first occurrence of divider is read as YAML.
func Parse(data []byte, divider string) (*Result, error) {
	meta, body, err := split(data, divider)
	if err != nil {
		return nil, err
	}
	return &Result{
		Metadata: meta,
		Body:     body,
		Title:    deriveTitle(meta, body),
		Tags:     extractTags(body, meta),
	}, nil
}

func split(data []byte, divider string) (map[string]any, string, error) {
	trimmed := bytes.TrimLeft(data, "\n\r")

	if hasDelimitedBlock(trimmed) {
		var meta map[string]any
		body, err := frontmatter.Parse(bytes.NewReader(trimmed), &meta)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrInvalidFrontmatter, err)
		}
		return normalizeMap(meta), strings.TrimLeft(string(body), "\n\r"), nil
	}

	if divider != "" {
		if i := bytes.Index(trimmed, []byte(divider)); i >= 0 {
			var meta map[string]any
			if err := yaml.Unmarshal(trimmed[:i], &meta); err != nil {
				return nil, "", fmt.Errorf("%w: %v", ErrInvalidFrontmatter, err)
			}
			body := strings.TrimLeft(string(trimmed[i+len(divider):]), "\n\r")
			return normalizeMap(meta), body, nil
		}
	}

	return map[string]any{}, string(data), nil
}

func hasDelimitedBlock(data []byte) bool {
	for _, delim := range []string{"---", "+++", ";;;"} {
		if bytes.HasPrefix(data, []byte(delim)) {
			return true
		}
	}
	return false
}

// normalizeMap converts nested map[any]any values (produced by some YAML
// decoders) into map[string]any so metadata can be JSON encoded.
func normalizeMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = normalizeValue(val)
		}
		return m
	case map[string]any:
		return normalizeMap(t)
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeValue(val)
		}
		return out
	}
	return v
}

// extractTags collects #tags from body and from the front-matter "tags" field.
func extractTags(body string, meta map[string]any) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		if _, dup := seen[s]; dup {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	switch v := meta["tags"].(type) {
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				add(s)
			}
		}
	case string:
		for _, s := range strings.Split(v, ",") {
			add(s)
		}
	}

	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	return out
}

// deriveTitle returns the front-matter "title" if present, otherwise the first
// H1 heading, otherwise empty string.
func deriveTitle(meta map[string]any, body string) string {
	if s, ok := meta["title"].(string); ok && s != "" {
		return s
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
