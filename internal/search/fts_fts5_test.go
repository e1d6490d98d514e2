//go:build sqlite_fts5

package search

import (
	"testing"
	"time"
)

func TestFTS5_SearchWithSnippet(t *testing.T) {
	db := testDB(t)
	row := PostRow{Token: "f", Category: "docs", Title: "FTS Post", Checksum: "f1", UpdatedAt: time.Now()}
	if err := db.Upsert(row, "denkenote provides powerful full-text search."); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	hits, err := db.Search("powerful", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].Token != "f" {
		t.Fatalf("hits = %+v", hits)
	}
	if hits[0].Snippet == "" {
		t.Error("expected non-empty snippet")
	}
}

func TestFTS5_QuerySyntaxIsQuoted(t *testing.T) {
	db := testDB(t)
	_ = db.Upsert(PostRow{Token: "q", Checksum: "1", UpdatedAt: time.Now()}, "quote test")
	if _, err := db.Search(`quote" OR (`, 10); err != nil {
		t.Errorf("malformed query should not fail: %v", err)
	}
}

func TestMatchQuery(t *testing.T) {
	if got := matchQuery(`foo "bar`); got != `"foo" """bar"` {
		t.Errorf("matchQuery = %s", got)
	}
}
