package site

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"
)

type urlset struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	URLs    []url    `xml:"url"`
}

type url struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
}

// Sitemap lists pages (paths relative to the site root) under baseURL.
func Sitemap(baseURL string, pages []string, lastMod time.Time) ([]byte, error) {
	base := strings.TrimSuffix(baseURL, "/")
	set := urlset{Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	mod := ""
	if !lastMod.IsZero() {
		mod = lastMod.Format("2006-01-02")
	}
	for _, p := range pages {
		set.URLs = append(set.URLs, url{
			Loc:        base + "/" + strings.TrimPrefix(p, "/"),
			LastMod:    mod,
			ChangeFreq: "weekly",
		})
	}
	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("site: sitemap: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}
