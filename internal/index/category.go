package index

import (
	"path"
	"strings"

	"github.com/goliatone/go-slug"

	"github.com/starford/denkenote/internal/models"
)

// CategoryOf maps a slash-separated directory relative to the content root
// to its category name. Files directly in the root get models.RootCategory;
// nested directories are joined with "-".
func CategoryOf(dir string) string {
	dir = path.Clean(dir)
	if dir == "." || dir == "/" || dir == "" {
		return models.RootCategory
	}
	segments := strings.Split(strings.Trim(dir, "/"), "/")
	for i, seg := range segments {
		segments[i] = slugSegment(seg)
	}
	return strings.Join(segments, "-")
}

func slugSegment(seg string) string {
	s, err := slug.Normalize(seg)
	if err != nil || s == "" {
		return strings.ToLower(strings.ReplaceAll(seg, " ", "-"))
	}
	return s
}
