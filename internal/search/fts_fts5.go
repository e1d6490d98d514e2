//go:build sqlite_fts5

package search

import (
	"database/sql"
	"fmt"
	"strings"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS posts_fts USING fts5(
			token UNINDEXED,
			category UNINDEXED,
			title,
			body,
			tags,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, token, category, title, body string, tags []string) error {
	_, _ = tx.Exec(`DELETE FROM posts_fts WHERE token = ?`, token)
	_, err := tx.Exec(`INSERT INTO posts_fts (token, category, title, body, tags) VALUES (?, ?, ?, ?, ?)`,
		token, category, title, body, strings.Join(tags, " "))
	if err != nil {
		return fmt.Errorf("search: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, token string) {
	_, _ = tx.Exec(`DELETE FROM posts_fts WHERE token = ?`, token)
}

// matchQuery quotes every term so user input never reaches the FTS5 query
// syntax. Terms are ANDed.
func matchQuery(q string) string {
	fields := strings.Fields(q)
	for i, f := range fields {
		fields[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	return strings.Join(fields, " ")
}

// Search performs an FTS5 full-text search and returns matching posts with snippets.
func (db *DB) Search(query string, limit int) ([]Hit, error) {
	q := matchQuery(query)
	if q == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := db.conn.Query(`
		SELECT token,
		       category,
		       title,
		       snippet(posts_fts, 3, '<b>', '</b>', '...', 32)
		FROM posts_fts
		WHERE posts_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, q, limit)
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
