package render

import (
	"path"
	"strings"
	"testing"
)

// fakeResolver derives category from the directory and token from the path.
type fakeResolver struct{}

func (fakeResolver) Resolve(rel string) (string, string) {
	return path.Dir(rel), "tok-" + strings.TrimSuffix(path.Base(rel), ".md")
}

func TestRewriteLink_External(t *testing.T) {
	r := New(Options{Mode: ModeServe, LinkBase: "http://localhost:8800"}, fakeResolver{})
	for _, href := range []string{
		"http://example.com/x",
		"https://example.com/x.md",
		"mailto:me@example.com",
		"//cdn.example.com/x.md",
		"/static/files/app.css",
		"#section",
	} {
		if got := r.RewriteLink(href); got != href {
			t.Errorf("RewriteLink(%q) = %q, want unchanged", href, got)
		}
	}
}

func TestRewriteLink_ServeMode(t *testing.T) {
	r := New(Options{Mode: ModeServe, LinkBase: "http://localhost:8800"}, fakeResolver{})
	got := r.RewriteLink("sub/page.md#section")
	want := "http://localhost:8800/sub/tok-page#section"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if got := r.RewriteLink("./sub/page.md"); got != "http://localhost:8800/sub/tok-page" {
		t.Errorf("./ prefix: got %q", got)
	}
}

func TestRewriteLink_StaticMode(t *testing.T) {
	r := New(Options{Mode: ModeStatic}, fakeResolver{})
	got := r.RewriteLink("sub/page.md#section")
	if got != "./sub-tok-page.html#section" {
		t.Errorf("got %q", got)
	}
}

func TestRewriteLink_MediaTargets(t *testing.T) {
	serve := New(Options{Mode: ModeServe, LinkBase: "http://h"}, fakeResolver{})
	if got := serve.RewriteLink("docs/manual.pdf"); got != "http://h/media/docs/manual.pdf" {
		t.Errorf("serve media = %q", got)
	}
	static := New(Options{Mode: ModeStatic}, fakeResolver{})
	if got := static.RewriteLink("docs/manual.pdf"); got != "./media/docs/manual.pdf" {
		t.Errorf("static media = %q", got)
	}
}

func TestRewriteLink_Sanitize(t *testing.T) {
	r := New(Options{Mode: ModeServe, Sanitize: true}, fakeResolver{})
	for _, href := range []string{
		"javascript:alert(1)",
		"JavaScript:alert(1)",
		"javascript%3Aalert(1)",
		"vbscript:msgbox(1)",
		"%zz",
	} {
		if got := r.RewriteLink(href); got != "" {
			t.Errorf("RewriteLink(%q) = %q, want empty", href, got)
		}
	}
	if got := r.RewriteLink("http://example.com"); got != "http://example.com" {
		t.Errorf("safe link altered: %q", got)
	}
}

func TestRewriteLink_DecodesPostTargets(t *testing.T) {
	r := New(Options{Mode: ModeServe, LinkBase: "http://h"}, fakeResolver{})
	if got := r.RewriteLink("Client%20X/My%20Note.md"); got != "http://h/Client X/tok-My Note" {
		t.Errorf("post target = %q", got)
	}
	if got := r.RewriteLink("docs/a%20b.pdf"); got != "http://h/media/docs/a%20b.pdf" {
		t.Errorf("media target should stay encoded, got %q", got)
	}
}

func TestRender_SanitizeAutolinks(t *testing.T) {
	src := []byte("see <javascript:alert(1)> and [x](javascript:alert(1)) and <https://example.com>\n")
	out, _, err := New(Options{Sanitize: true}, fakeResolver{}).Render(src)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, `href="javascript:`) {
		t.Errorf("script autolink survived:\n%s", out)
	}
	if !strings.Contains(out, `<a href="">javascript:alert(1)</a>`) {
		t.Errorf("blocked autolink should keep its label:\n%s", out)
	}
	if !strings.Contains(out, `<a href="">x</a>`) || !strings.Contains(out, `href="https://example.com"`) {
		t.Errorf("unexpected output:\n%s", out)
	}

	out, _, err = New(Options{}, fakeResolver{}).Render(src)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `href="javascript:`) {
		t.Errorf("autolinks are kept without sanitize:\n%s", out)
	}
}

func TestRender_SanitizeImageSources(t *testing.T) {
	src := []byte("![a](javascript:alert(1)) ![b](javascript%3Aalert(1)) ![c](img/c.png)\n")
	out, _, err := New(Options{Mode: ModeStatic, Sanitize: true}, fakeResolver{}).Render(src)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "javascript") {
		t.Errorf("script image source survived:\n%s", out)
	}
	if !strings.Contains(out, `src="./media/img/c.png"`) {
		t.Errorf("safe image rewritten wrongly:\n%s", out)
	}
}

func TestRewriteLink_NoSanitizeKeepsScript(t *testing.T) {
	r := New(Options{Mode: ModeServe}, fakeResolver{})
	if got := r.RewriteLink("javascript:alert(1)"); got != "javascript:alert(1)" {
		t.Errorf("got %q", got)
	}
}

func TestRender_RewritesAndCollectsLinks(t *testing.T) {
	r := New(Options{Mode: ModeServe, LinkBase: "http://h", Sanitize: true}, fakeResolver{})
	src := []byte("# Title\n\nSee [the page](sub/page.md#intro) and [ext](http://example.com).\n\n" +
		"![pic](img/a.png)\n\n| a | b |\n|---|---|\n| 1 | 2 |\n\n[bad](javascript:alert(1))\n")
	out, links, err := r.Render(src)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for _, want := range []string{
		`href="http://h/sub/tok-page#intro"`,
		`href="http://example.com"`,
		`src="http://h/media/img/a.png"`,
		`class="img-fluid"`,
		`<table class="table table-striped">`,
		`<h1 id="title">`,
		`<a href="">bad</a>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s\n%s", want, out)
		}
	}
	if len(links) != 1 || links[0].Text != "the page" || links[0].Href != "http://h/sub/tok-page#intro" {
		t.Errorf("links = %+v", links)
	}
}

func TestRender_SanitizeDropsRawHTML(t *testing.T) {
	src := []byte("<script>alert(1)</script>\n\ntext\n")
	safe, _, err := New(Options{Sanitize: true}, fakeResolver{}).Render(src)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(safe, "<script>") {
		t.Errorf("sanitized output kept raw HTML: %s", safe)
	}
	unsafe, _, _ := New(Options{}, fakeResolver{}).Render(src)
	if !strings.Contains(unsafe, "<script>") {
		t.Errorf("unsanitized output should keep raw HTML: %s", unsafe)
	}
}
