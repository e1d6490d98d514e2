// Package models defines the domain types for denkenote.
package models

import (
	"time"

	"github.com/spf13/cast"
)

// RootCategory is the category assigned to files that sit directly in the
// content root.
const RootCategory = "_root"

// Well-known front-matter keys.
const (
	KeyTitle    = "title"
	KeyDate     = "date"
	KeyClient   = "client"
	KeyProject  = "project"
	KeyURL      = "url"
	KeyCategory = "category"
)

// Metadata is the front-matter of a post: a handful of well-known fields
// plus everything else in Extra. Missing fields are empty strings.
type Metadata struct {
	Title    string         `json:"title,omitempty"`
	Date     string         `json:"date,omitempty"`
	Client   string         `json:"client,omitempty"`
	Project  string         `json:"project,omitempty"`
	URL      string         `json:"url,omitempty"`
	Category string         `json:"category,omitempty"`
	Token    string         `json:"token"`
	MTime    string         `json:"mtime,omitempty"`
	CTime    string         `json:"ctime,omitempty"`
	Extra    map[string]any `json:"extra,omitempty"`
}

// NewMetadata lifts a raw front-matter map into Metadata.
func NewMetadata(raw map[string]any) Metadata {
	m := Metadata{Extra: map[string]any{}}
	for k, v := range raw {
		switch k {
		case KeyTitle:
			m.Title = toString(v)
		case KeyDate:
			m.Date = toString(v)
		case KeyClient:
			m.Client = toString(v)
		case KeyProject:
			m.Project = toString(v)
		case KeyURL:
			m.URL = toString(v)
		case KeyCategory:
			m.Category = toString(v)
		default:
			m.Extra[k] = v
		}
	}
	return m
}

// Get returns a front-matter value by key, including the well-known ones.
func (m Metadata) Get(key string) any {
	switch key {
	case KeyTitle:
		return m.Title
	case KeyDate:
		return m.Date
	case KeyClient:
		return m.Client
	case KeyProject:
		return m.Project
	case KeyURL:
		return m.URL
	case KeyCategory:
		return m.Category
	case "token":
		return m.Token
	case "mtime":
		return m.MTime
	case "ctime":
		return m.CTime
	}
	return m.Extra[key]
}

// Time parses Date. The zero time is returned when Date is empty or unparsable.
func (m Metadata) Time() time.Time {
	if m.Date == "" {
		return time.Time{}
	}
	t, err := cast.ToTimeE(m.Date)
	if err != nil {
		return time.Time{}
	}
	return t
}

func toString(v any) string {
	if t, ok := v.(time.Time); ok {
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
			return t.Format("2006-01-02")
		}
		return t.Format(time.RFC3339)
	}
	return cast.ToString(v)
}

// Link is a rendered link from one post to another.
type Link struct {
	Href string `json:"href"`
	Text string `json:"text"`
}

// Post represents one parsed markdown file.
type Post struct {
	Metadata    Metadata  `json:"metadata"`
	Token       string    `json:"token"`
	ClientToken string    `json:"client_token,omitempty"`
	Category    string    `json:"category"`
	Tags        []string  `json:"tags,omitempty"`
	Related     []Link    `json:"related,omitempty"`
	HTML        string    `json:"-"`
	Raw         string    `json:"-"`
	RelPath     string    `json:"-"`
	SourcePath  string    `json:"-"`
	ModTime     time.Time `json:"modified"`
	ChangeTime  time.Time `json:"changed"`
}

// Title returns the metadata title, falling back to the token.
func (p *Post) Title() string {
	if p.Metadata.Title != "" {
		return p.Metadata.Title
	}
	return p.Token
}
