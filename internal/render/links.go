package render

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

var nonSchemeChars = regexp.MustCompile(`[^\w:]`)

// RewriteLink maps a raw link target found in markdown source to its href.
//
// Fragments, absolute URLs (any scheme or //host) and site-absolute paths are
// kept. Relative .md targets resolve against the content root and become
// notebook links; other relative targets become media links.
func (r *Renderer) RewriteLink(href string) string {
	out, _ := r.rewriteLink(href)
	return out
}

// rewriteLink also reports whether href pointed at another post.
func (r *Renderer) rewriteLink(href string) (string, bool) {
	out, local := r.rewrite(href)
	if r.unsafe(href, out) {
		return "", false
	}
	return out, local
}

// unsafe reports whether sanitize rejects a target, judged both as written
// and as rewritten.
func (r *Renderer) unsafe(raw, out string) bool {
	return r.opts.Sanitize && (scriptHref(raw) || scriptHref(out))
}

func (r *Renderer) rewrite(href string) (string, bool) {
	if href == "" || strings.HasPrefix(href, "#") || isAbsolute(href) {
		return href, false
	}
	target, fragment := splitFragment(href)
	clean := path.Clean(strings.TrimPrefix(target, "./"))
	// Post targets are resolved on disk, so they need the decoded path.
	decoded := clean
	if d, err := url.PathUnescape(target); err == nil {
		decoded = path.Clean(strings.TrimPrefix(d, "./"))
	}
	if !strings.HasSuffix(decoded, ".md") || r.resolver == nil {
		return r.joinMedia(clean) + fragment, false
	}

	category, token := r.resolver.Resolve(decoded)
	if r.opts.Mode == ModeStatic {
		return "./" + category + "-" + token + ".html" + fragment, true
	}
	return r.opts.LinkBase + "/" + category + "/" + token + fragment, true
}

func (r *Renderer) rewriteMedia(src string) string {
	out := src
	if src != "" && !strings.HasPrefix(src, "#") && !isAbsolute(src) {
		out = r.joinMedia(path.Clean(strings.TrimPrefix(src, "./")))
	}
	if r.unsafe(src, out) {
		return ""
	}
	return out
}

func (r *Renderer) joinMedia(rel string) string {
	base := r.opts.MediaBase
	if base == "" {
		if r.opts.Mode == ModeStatic {
			base = "./media"
		} else {
			base = r.opts.LinkBase + "/media"
		}
	}
	return base + "/" + rel
}

func isAbsolute(href string) bool {
	if strings.HasPrefix(href, "/") {
		return true
	}
	u, err := url.Parse(href)
	if err != nil {
		// Unparsable targets are left alone; sanitize decides their fate.
		return true
	}
	return u.Scheme != ""
}

func splitFragment(href string) (string, string) {
	if i := strings.IndexByte(href, '#'); i >= 0 {
		return href[:i], href[i:]
	}
	return href, ""
}

// scriptHref reports whether href decodes to a script-executing pseudo-scheme.
// Hrefs that fail to decode count as unsafe.
func scriptHref(href string) bool {
	decoded, err := url.PathUnescape(href)
	if err != nil {
		return true
	}
	prot := strings.ToLower(nonSchemeChars.ReplaceAllString(decoded, ""))
	return strings.HasPrefix(prot, "javascript:") || strings.HasPrefix(prot, "vbscript:")
}
