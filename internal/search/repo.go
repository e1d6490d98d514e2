package search

import (
	"encoding/json"
	"fmt"
	"time"
)

// PostRow represents a row in the posts table.
type PostRow struct {
	Token     string
	Category  string
	Title     string
	Checksum  string
	Tags      []string
	UpdatedAt time.Time
}

// Hit represents one search result.
type Hit struct {
	Token    string `json:"token"`
	Category string `json:"category"`
	Title    string `json:"title"`
	Snippet  string `json:"snippet"`
}

// Searcher is what the HTTP and MCP layers need from the search index.
type Searcher interface {
	Search(query string, limit int) ([]Hit, error)
}

var _ Searcher = (*DB)(nil)

// DefaultLimit caps a search when the caller passes no limit.
const DefaultLimit = 20

// Upsert inserts or replaces a post and its FTS entry within a transaction.
func (db *DB) Upsert(p PostRow, body string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("search: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	tagsJSON, _ := json.Marshal(p.Tags)

	_, err = tx.Exec(`
		INSERT INTO posts (token, category, title, checksum, tags, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(token) DO UPDATE SET
			category   = excluded.category,
			title      = excluded.title,
			checksum   = excluded.checksum,
			tags       = excluded.tags,
			body       = excluded.body,
			updated_at = excluded.updated_at
	`, p.Token, p.Category, p.Title, p.Checksum, string(tagsJSON), body, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("search: upsert post: %w", err)
	}

	if err := ftsUpsert(tx, p.Token, p.Category, p.Title, body, p.Tags); err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes a post and its FTS entry.
func (db *DB) Delete(token string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("search: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, token)
	if _, err := tx.Exec(`DELETE FROM posts WHERE token = ?`, token); err != nil {
		return fmt.Errorf("search: delete post: %w", err)
	}
	return tx.Commit()
}

// Checksum returns the stored checksum for a post, or "" if it is not indexed.
func (db *DB) Checksum(token string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM posts WHERE token = ?`, token).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// AllChecksums returns token → checksum for every indexed post.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT token, checksum FROM posts`)
	if err != nil {
		return nil, fmt.Errorf("search: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var tok, cs string
		if err := rows.Scan(&tok, &cs); err != nil {
			return nil, err
		}
		out[tok] = cs
	}
	return out, rows.Err()
}

// Count returns the number of indexed posts.
func (db *DB) Count() (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT count(*) FROM posts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("search: count: %w", err)
	}
	return n, nil
}
