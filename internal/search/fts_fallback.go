//go:build !sqlite_fts5

package search

import (
	"database/sql"
	"fmt"
	"strings"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; search uses LIKE on the posts.body column.
	return nil
}

func ftsUpsert(_ *sql.Tx, _, _, _, _ string, _ []string) error {
	return nil
}

func ftsDelete(_ *sql.Tx, _ string) {}

// Search performs a LIKE-based search (fallback when FTS5 is not compiled in).
func (db *DB) Search(query string, limit int) ([]Hit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	like := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT token, category, title, substr(body, 1, 200)
		FROM posts
		WHERE title LIKE ? OR body LIKE ? OR tags LIKE ?
		ORDER BY category, title
		LIMIT ?
	`, like, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("search: query: %w", err)
	}
	defer rows.Close()

	var out []Hit
	for rows.Next() {
		var h Hit
		if err := rows.Scan(&h.Token, &h.Category, &h.Title, &h.Snippet); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
