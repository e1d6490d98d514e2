package parser

import (
	"errors"
	"testing"
)

func TestParse_YAMLFrontmatter(t *testing.T) {
	input := []byte("---\ntitle: Hello\ndate: 2024-01-01\ntags:\n  - go\n  - notes\n---\n# Hello\nBody text.\n")
	r, err := Parse(input, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Title != "Hello" {
		t.Errorf("title = %q, want %q", r.Title, "Hello")
	}
	if len(r.Tags) != 2 || r.Tags[0] != "go" || r.Tags[1] != "notes" {
		t.Errorf("tags = %v, want [go notes]", r.Tags)
	}
	if r.Body != "# Hello\nBody text.\n" {
		t.Errorf("body = %q", r.Body)
	}
	if _, ok := r.Metadata["date"]; !ok {
		t.Error("date missing from metadata")
	}
}

func TestParse_LegacyDivider(t *testing.T) {
	input := []byte("title: Old style\nclient: Acme\n--header--\nSome *text*.\n")
	r, err := Parse(input, "--header--")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Metadata["client"] != "Acme" {
		t.Errorf("client = %v", r.Metadata["client"])
	}
	if r.Body != "Some *text*.\n" {
		t.Errorf("body = %q", r.Body)
	}
}

func TestParse_DividerIgnoredWhenUnset(t *testing.T) {
	input := []byte("title: x\n--header--\nbody")
	r, err := Parse(input, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.Metadata) != 0 {
		t.Errorf("expected empty metadata, got %v", r.Metadata)
	}
	if r.Body != string(input) {
		t.Errorf("body = %q", r.Body)
	}
}

func TestParse_NoFrontmatter(t *testing.T) {
	input := []byte("# Just a heading\nSome text.\n")
	r, err := Parse(input, "--header--")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.Metadata) != 0 {
		t.Errorf("expected empty metadata, got %v", r.Metadata)
	}
	if r.Title != "Just a heading" {
		t.Errorf("title = %q, want %q", r.Title, "Just a heading")
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	input := []byte("---\n: invalid: yaml: {{{\n---\nBody\n")
	_, err := Parse(input, "")
	if !errors.Is(err, ErrInvalidFrontmatter) {
		t.Fatalf("err = %v, want ErrInvalidFrontmatter", err)
	}
}

func TestNormalizeValue_NestedMaps(t *testing.T) {
	in := map[string]any{"x": map[any]any{"y": []any{map[any]any{1: "z"}}}}
	out := normalizeMap(in)
	x, ok := out["x"].(map[string]any)
	if !ok {
		t.Fatalf("x = %T, want map[string]any", out["x"])
	}
	list := x["y"].([]any)
	if _, ok := list[0].(map[string]any); !ok {
		t.Errorf("nested list item = %T", list[0])
	}
}

func TestExtractTags_InlineAndFrontmatter(t *testing.T) {
	meta := map[string]any{"tags": []any{"alpha"}}
	tags := extractTags("Some text #beta and #alpha again.", meta)
	if len(tags) != 2 || tags[0] != "alpha" || tags[1] != "beta" {
		t.Errorf("tags = %v, want [alpha beta]", tags)
	}
}

func TestDeriveTitle_FrontmatterOverH1(t *testing.T) {
	title := deriveTitle(map[string]any{"title": "FM Title"}, "# H1 Title\ntext")
	if title != "FM Title" {
		t.Errorf("title = %q, want %q", title, "FM Title")
	}
}
