package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/starford/denkenote/internal/apperr"
)

func write(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func tempContent(t *testing.T, filter *Filter) (*FS, string) {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir, filter)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs, dir
}

func relPaths(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.RelPath
	}
	return out
}

func TestList_MarkdownOnlyLexical(t *testing.T) {
	s, dir := tempContent(t, nil)
	write(t, dir, "b/two.md", "b")
	write(t, dir, "a/one.md", "a")
	write(t, dir, "root.md", "r")
	write(t, dir, "a/image.png", "png")

	items, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	got := relPaths(items)
	want := []string{"a/one.md", "b/two.md", "root.md"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if items[0].ModTime.IsZero() || items[0].ChangeTime.IsZero() {
		t.Error("expected stat times to be filled")
	}
}

func TestList_SkipsReadmeDotfilesAndOutput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "public")
	filter, err := NewFilter([]string{"drafts/**"}, out)
	if err != nil {
		t.Fatalf("NewFilter: %v", err)
	}
	s, err := NewFS(dir, filter)
	if err != nil {
		t.Fatal(err)
	}
	write(t, dir, "README.md", "readme")
	write(t, dir, "a/README.md", "readme")
	write(t, dir, ".git/x.md", "git")
	write(t, dir, "a/.hidden.md", "hidden")
	write(t, dir, "public/a-xyz.md", "generated")
	write(t, dir, "drafts/wip/one.md", "draft")
	write(t, dir, "a/keep.md", "keep")

	items, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	got := relPaths(items)
	if len(got) != 1 || got[0] != "a/keep.md" {
		t.Errorf("got %v, want [a/keep.md]", got)
	}
}

func TestMedia(t *testing.T) {
	s, dir := tempContent(t, nil)
	write(t, dir, "a/one.md", "a")
	write(t, dir, "a/pic.png", "png")

	items, err := s.Media()
	if err != nil {
		t.Fatalf("Media: %v", err)
	}
	if len(items) != 1 || items[0].RelPath != "a/pic.png" {
		t.Errorf("media = %v", relPaths(items))
	}
}

func TestAllowed(t *testing.T) {
	dir := t.TempDir()
	filter, err := NewFilter([]string{"private/**"}, filepath.Join(dir, "_site"))
	if err != nil {
		t.Fatal(err)
	}
	s, err := NewFS(dir, filter)
	if err != nil {
		t.Fatal(err)
	}
	for rel, want := range map[string]bool{
		"a/pic.png":          true,
		"a/b/c.pdf":          true,
		"private/secret.txt": false,
		"_site/a-x.html":     false,
		".git/config":        false,
		"a/.hidden/x.png":    false,
		"../outside.png":     false,
		"":                   false,
	} {
		if got := s.Allowed(rel); got != want {
			t.Errorf("Allowed(%q) = %v, want %v", rel, got, want)
		}
	}
}

func TestList_MissingRoot(t *testing.T) {
	s, dir := tempContent(t, nil)
	if err := os.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}
	if _, err := s.List(); err == nil {
		t.Error("expected error listing a removed root")
	}
}

func TestRead(t *testing.T) {
	s, dir := tempContent(t, nil)
	write(t, dir, "note.md", "# Hello")
	got, err := s.Read("note.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "# Hello" {
		t.Errorf("content = %q", got)
	}
	if _, err := s.Read("missing.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestTraversalBlocked(t *testing.T) {
	s, _ := tempContent(t, nil)
	for _, p := range []string{"../../etc/passwd", "../outside.md", "/etc/shadow"} {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if _, err := s.Abs(p); !errors.Is(err, apperr.ErrInvalidPath) {
			t.Errorf("Abs(%q) err = %v, want ErrInvalidPath", p, err)
		}
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	if _, err := NewFS(filepath.Join(t.TempDir(), "nope"), nil); err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFilter_BadPattern(t *testing.T) {
	if _, err := NewFilter([]string{"[unclosed"}); err == nil {
		t.Error("expected compile error")
	}
}

func TestOutput_WriteResetCopy(t *testing.T) {
	o, err := NewOutput(filepath.Join(t.TempDir(), "out"))
	if err != nil {
		t.Fatal(err)
	}
	if err := o.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if err := o.Write("a.html", []byte("x")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	n, err := o.CopyFS(fstest.MapFS{
		"css/app.css": {Data: []byte("body{}")},
		"js/live.js":  {Data: []byte("//")},
	}, "static/files")
	if err != nil {
		t.Fatalf("CopyFS: %v", err)
	}
	if n != 2 {
		t.Errorf("copied %d, want 2", n)
	}
	if _, err := os.Stat(filepath.Join(o.Root(), "static", "files", "css", "app.css")); err != nil {
		t.Errorf("copied asset missing: %v", err)
	}

	if err := o.Reset(); err != nil {
		t.Fatal(err)
	}
	entries, _ := os.ReadDir(o.Root())
	if len(entries) != 0 {
		t.Errorf("Reset left %d entries", len(entries))
	}

	leftovers, _ := filepath.Glob(filepath.Join(o.Root(), ".denkenote-tmp-*"))
	if len(leftovers) != 0 {
		t.Errorf("leftover temp files: %v", leftovers)
	}
}

func TestOutput_RejectsEscape(t *testing.T) {
	o, _ := NewOutput(t.TempDir())
	if err := o.Write("../escape.html", []byte("x")); err == nil {
		t.Error("expected error for escaping path")
	}
}
