package api

import (
	"time"

	"github.com/starford/denkenote/internal/index"
	"github.com/starford/denkenote/internal/models"
	"github.com/starford/denkenote/internal/search"
)

// PostItem is a lightweight post in a list response.
type PostItem struct {
	Token    string   `json:"token" example:"3f9a1c2b7d4e5f60" validate:"required"`
	Category string   `json:"category" example:"work" validate:"required"`
	Title    string   `json:"title" example:"Weekly plan"`
	URL      string   `json:"url,omitempty" example:"weekly-plan"`
	Date     string   `json:"date,omitempty" example:"2024-03-01"`
	Client   string   `json:"client,omitempty" example:"ACME"`
	Project  string   `json:"project,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	MTime    string   `json:"mtime,omitempty"`
}

// PostDetail is the full post response, including the rendered body.
type PostDetail struct {
	PostItem
	HTML    string         `json:"html"`
	Raw     string         `json:"raw"`
	Related []models.Link  `json:"related,omitempty"`
	Extra   map[string]any `json:"extra,omitempty"`
}

// CategoryItem groups posts under their category.
type CategoryItem struct {
	Name  string     `json:"name" example:"work" validate:"required"`
	Posts []PostItem `json:"posts" validate:"required"`
}

// PostListResponse is the JSON index.
type PostListResponse struct {
	BuiltAt    time.Time      `json:"built_at"`
	Total      int            `json:"total" example:"42" validate:"required"`
	Categories []CategoryItem `json:"categories" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []search.Hit `json:"results" validate:"required"`
}

type statusResponse struct {
	Status string `json:"status" example:"ok"`
}

func newPostItem(p *models.Post) PostItem {
	return PostItem{
		Token:    p.Token,
		Category: p.Category,
		Title:    p.Title(),
		URL:      p.Metadata.URL,
		Date:     p.Metadata.Date,
		Client:   p.Metadata.Client,
		Project:  p.Metadata.Project,
		Tags:     p.Tags,
		MTime:    p.Metadata.MTime,
	}
}

func newPostDetail(p *models.Post) PostDetail {
	return PostDetail{
		PostItem: newPostItem(p),
		HTML:     p.HTML,
		Raw:      p.Raw,
		Related:  p.Related,
		Extra:    p.Metadata.Extra,
	}
}

// newPostList flattens idx into the list response. An empty category
// selects every category.
func newPostList(idx *index.Index, category string) PostListResponse {
	resp := PostListResponse{BuiltAt: idx.BuiltAt, Categories: []CategoryItem{}}
	for _, c := range idx.Categories {
		if category != "" && c != category {
			continue
		}
		posts, _ := idx.Category(c)
		item := CategoryItem{Name: c, Posts: make([]PostItem, 0, len(posts))}
		for _, p := range posts {
			item.Posts = append(item.Posts, newPostItem(p))
		}
		resp.Total += len(item.Posts)
		resp.Categories = append(resp.Categories, item)
	}
	return resp
}
