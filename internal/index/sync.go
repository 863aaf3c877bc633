package index

import (
	"log/slog"
	"time"

	"github.com/starford/rehearse/internal/parser"
	"github.com/starford/rehearse/internal/schedule"
	"github.com/starford/rehearse/internal/storage"
)

// Sync walks the vault and brings the index up to date:
//   - new/changed files are parsed and upserted, new notes get a fresh schedule
//   - files removed from disk are deleted from the index
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := indexFile(db, m.Path, data, m.UpdatedAt); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
	}

	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteNote(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// indexFile parses data and upserts it. A note without a created date in its
// frontmatter is treated as created at modTime, so it is due immediately.
// Created dates later than modTime (or now) are capped so a new note never
// starts with a due date in the future.
func indexFile(db *DB, path string, data []byte, modTime time.Time) error {
	res, err := parser.Parse(data)
	if err != nil {
		return err
	}
	latest := modTime
	if now := time.Now(); latest.IsZero() || latest.After(now) {
		latest = now
	}
	created := res.Created
	if created.IsZero() || created.After(latest) {
		created = latest
	}

	row := NoteRow{
		Path:      path,
		Title:     res.Title,
		Checksum:  storage.Checksum(data),
		Tags:      res.Tags,
		CreatedAt: created,
		UpdatedAt: modTime,
	}
	return db.UpsertNote(row, schedule.NewState(created, res.Difficulty))
}
