package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/starford/rehearse/internal/apperr"
	"github.com/starford/rehearse/internal/schedule"
)

// ScheduleRow is a note's scheduling state together with the note fields the
// due queue displays and the optimistic-concurrency version.
type ScheduleRow struct {
	Path    string
	Title   string
	Tags    []string
	State   schedule.State
	Version int64
}

const scheduleSelect = `
	SELECT s.note_path, n.title, n.tags,
	       s.repetition_count, s.difficulty, s.confidence_level,
	       s.next_review_date, s.last_reviewed_at, s.version
	FROM schedules s
	JOIN notes n ON n.path = s.note_path
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSchedule(sc rowScanner) (ScheduleRow, error) {
	var (
		r    ScheduleRow
		tags string
		last sql.NullTime
	)
	err := sc.Scan(&r.Path, &r.Title, &tags,
		&r.State.RepetitionCount, &r.State.Difficulty, &r.State.ConfidenceLevel,
		&r.State.NextReviewDate, &last, &r.Version)
	if err != nil {
		return ScheduleRow{}, err
	}
	r.Tags = decodeTags(tags)
	if last.Valid {
		t := last.Time
		r.State.LastReviewedAt = &t
	}
	return r, nil
}

// GetSchedule returns the schedule of the note at path or apperr.ErrNotFound.
func (db *DB) GetSchedule(ctx context.Context, path string) (*ScheduleRow, error) {
	r, err := scanSchedule(db.conn.QueryRowContext(ctx, scheduleSelect+` WHERE s.note_path = ?`, path))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: get schedule: %w", err)
	}
	return &r, nil
}

// ListSchedules returns every schedule ordered by next review date, then path.
func (db *DB) ListSchedules(ctx context.Context) ([]ScheduleRow, error) {
	rows, err := db.conn.QueryContext(ctx, scheduleSelect+` ORDER BY s.next_review_date, s.note_path`)
	if err != nil {
		return nil, fmt.Errorf("index: list schedules: %w", err)
	}
	defer rows.Close()

	var out []ScheduleRow
	for rows.Next() {
		r, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("index: scan schedule: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ApplyReview stores after as the note's new schedule and appends entry to
// the review log in one transaction. The update only happens when the stored
// version equals expectedVersion; otherwise apperr.ErrConflict is returned and
// nothing is written. It returns the new version.
func (db *DB) ApplyReview(ctx context.Context, path string, expectedVersion int64, after schedule.State, entry schedule.LogEntry) (int64, error) {
	if err := after.Validate(); err != nil {
		return 0, fmt.Errorf("index: apply review %s: %w", path, err)
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	res, err := tx.ExecContext(ctx, `
		UPDATE schedules SET
			repetition_count = ?,
			difficulty       = ?,
			confidence_level = ?,
			next_review_date = ?,
			last_reviewed_at = ?,
			version          = version + 1
		WHERE note_path = ? AND version = ?
	`, after.RepetitionCount, after.Difficulty, after.ConfidenceLevel,
		after.NextReviewDate.UTC(), nullTime(after.LastReviewedAt), path, expectedVersion)
	if err != nil {
		return 0, fmt.Errorf("index: update schedule: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("index: update schedule: %w", err)
	}
	if n == 0 {
		var stored int64
		err := tx.QueryRowContext(ctx, `SELECT version FROM schedules WHERE note_path = ?`, path).Scan(&stored)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, apperr.ErrNotFound
		}
		if err != nil {
			return 0, fmt.Errorf("index: read schedule version: %w", err)
		}
		return 0, fmt.Errorf("index: schedule %s at version %d, expected %d: %w", path, stored, expectedVersion, apperr.ErrConflict)
	}

	if err := insertLogEntry(ctx, tx, entry); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("index: commit: %w", err)
	}
	db.bump()
	return expectedVersion + 1, nil
}

func insertLogEntry(ctx context.Context, tx *sql.Tx, e schedule.LogEntry) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO review_log (
			id, note_path, user_id, strategy, reviewed_at,
			difficulty_rating, initial_confidence, final_confidence, was_recalled, retrieval_attempts,
			time_spent_seconds, difficulty_adjustment, repetition_count, next_review_date
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.NoteID, e.UserID, string(e.Strategy), e.ReviewedAt.UTC(),
		e.DifficultyRating, e.InitialConfidence, e.FinalConfidence, e.WasRecalled, e.RetrievalAttempts,
		e.TimeSpentSeconds, e.DifficultyAdjustment, e.RepetitionCount, e.NextReviewDate.UTC())
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
			return fmt.Errorf("index: review %s: %w", e.ID, apperr.ErrAlreadyExists)
		}
		return fmt.Errorf("index: insert review log: %w", err)
	}
	return nil
}
