package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/rehearse/internal/apperr"
	"github.com/starford/rehearse/internal/schedule"
)

// NoteRow represents a row in the notes table.
type NoteRow struct {
	Path      string
	Title     string
	Checksum  string
	Tags      []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UpsertNote inserts or updates a note. A schedule row is created from initial
// the first time the note is seen; later edits never reset it.
func (db *DB) UpsertNote(n NoteRow, initial schedule.State) error {
	if err := initial.Validate(); err != nil {
		return fmt.Errorf("index: initial schedule for %s: %w", n.Path, err)
	}
	tags := n.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("index: encode tags: %w", err)
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO notes (path, title, checksum, tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title      = excluded.title,
			checksum   = excluded.checksum,
			tags       = excluded.tags,
			updated_at = excluded.updated_at
	`, n.Path, n.Title, n.Checksum, string(tagsJSON), n.CreatedAt.UTC(), n.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("index: upsert note: %w", err)
	}

	_, err = tx.Exec(`
		INSERT OR IGNORE INTO schedules
			(note_path, repetition_count, difficulty, confidence_level, next_review_date, last_reviewed_at, version)
		VALUES (?, ?, ?, ?, ?, ?, 1)
	`, n.Path, initial.RepetitionCount, initial.Difficulty, initial.ConfidenceLevel,
		initial.NextReviewDate.UTC(), nullTime(initial.LastReviewedAt))
	if err != nil {
		return fmt.Errorf("index: create schedule: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("index: commit: %w", err)
	}
	db.bump()
	return nil
}

// DeleteNote removes a note and its schedule. Review log entries are kept.
func (db *DB) DeleteNote(path string) error {
	res, err := db.conn.Exec(`DELETE FROM notes WHERE path = ?`, path)
	if err != nil {
		return fmt.Errorf("index: delete note: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		db.bump()
	}
	return nil
}

// GetChecksum returns the stored checksum for a note, or empty string if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM notes WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// GetNote returns the indexed note at path or apperr.ErrNotFound.
func (db *DB) GetNote(path string) (*NoteRow, error) {
	var (
		n    NoteRow
		tags string
	)
	err := db.conn.QueryRow(`
		SELECT path, title, checksum, tags, created_at, updated_at FROM notes WHERE path = ?
	`, path).Scan(&n.Path, &n.Title, &n.Checksum, &tags, &n.CreatedAt, &n.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: get note: %w", err)
	}
	n.Tags = decodeTags(tags)
	return &n, nil
}

// AllChecksums returns path -> checksum for every indexed note.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM notes`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

func decodeTags(raw string) []string {
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil || tags == nil {
		return []string{}
	}
	return tags
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
