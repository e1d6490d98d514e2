package index

import (
	"github.com/starford/denkenote/internal/models"
	"github.com/starford/denkenote/internal/parser"
)

// parseMeta parses a markdown file and lifts its front matter. The title
// falls back to the first heading, the same way for builds and link
// resolution so content-strategy tokens agree.
func parseMeta(data []byte, divider string) (*parser.Result, models.Metadata, error) {
	res, err := parser.Parse(data, divider)
	if err != nil {
		return nil, models.Metadata{}, err
	}
	meta := models.NewMetadata(res.Metadata)
	if meta.Title == "" {
		meta.Title = res.Title
	}
	return res, meta, nil
}
