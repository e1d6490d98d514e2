package search

import (
	"fmt"
	"log/slog"

	"github.com/starford/denkenote/internal/checksum"
	"github.com/starford/denkenote/internal/index"
	"github.com/starford/denkenote/internal/models"
)

// SyncStats reports what a Sync changed.
type SyncStats struct {
	Upserted  int
	Unchanged int
	Removed   int
}

// Sync brings the search index in line with a published snapshot:
//   - new/changed posts are upserted
//   - posts no longer in the snapshot are deleted
func Sync(db *DB, idx *index.Index, logger *slog.Logger) (SyncStats, error) {
	var stats SyncStats
	if idx == nil {
		return stats, nil
	}

	stored, err := db.AllChecksums()
	if err != nil {
		return stats, err
	}

	live := make(map[string]struct{}, idx.Len())
	for _, p := range idx.All() {
		live[p.Token] = struct{}{}

		cs := postChecksum(p)
		if stored[p.Token] == cs {
			stats.Unchanged++
			continue
		}
		row := PostRow{
			Token:     p.Token,
			Category:  p.Category,
			Title:     p.Title(),
			Checksum:  cs,
			Tags:      p.Tags,
			UpdatedAt: p.ModTime,
		}
		if err := db.Upsert(row, p.Raw); err != nil {
			logger.Warn("search: upsert failed", slog.String("token", p.Token), slog.String("error", err.Error()))
			continue
		}
		stats.Upserted++
	}

	for tok := range stored {
		if _, ok := live[tok]; ok {
			continue
		}
		if err := db.Delete(tok); err != nil {
			logger.Warn("search: delete failed", slog.String("token", tok), slog.String("error", err.Error()))
			continue
		}
		stats.Removed++
	}

	logger.Debug("search: synced",
		slog.Int("upserted", stats.Upserted),
		slog.Int("unchanged", stats.Unchanged),
		slog.Int("removed", stats.Removed))
	return stats, nil
}

// Listener adapts Sync to an index publish hook.
func Listener(db *DB, logger *slog.Logger) func(*index.Index) {
	return func(idx *index.Index) {
		if _, err := Sync(db, idx, logger); err != nil {
			logger.Error("search: sync failed", slog.String("error", err.Error()))
		}
	}
}

func postChecksum(p *models.Post) string {
	parts := []string{p.Category, p.Title(), p.Raw, fmt.Sprint(len(p.Tags))}
	parts = append(parts, p.Tags...)
	return checksum.Strings(parts...)
}
