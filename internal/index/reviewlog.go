package index

import (
	"context"
	"fmt"

	"github.com/starford/rehearse/internal/schedule"
)

// ListReviews returns the review log of the note at path, newest first.
// limit <= 0 returns every entry.
func (db *DB) ListReviews(ctx context.Context, path string, limit int) ([]schedule.LogEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, note_path, user_id, strategy, reviewed_at,
		       difficulty_rating, initial_confidence, final_confidence, was_recalled, retrieval_attempts,
		       time_spent_seconds, difficulty_adjustment, repetition_count, next_review_date
		FROM review_log
		WHERE note_path = ?
		ORDER BY reviewed_at DESC, repetition_count DESC
		LIMIT ?
	`, path, limit)
	if err != nil {
		return nil, fmt.Errorf("index: list reviews: %w", err)
	}
	defer rows.Close()

	out := []schedule.LogEntry{}
	for rows.Next() {
		var (
			e        schedule.LogEntry
			strategy string
		)
		if err := rows.Scan(&e.ID, &e.NoteID, &e.UserID, &strategy, &e.ReviewedAt,
			&e.DifficultyRating, &e.InitialConfidence, &e.FinalConfidence, &e.WasRecalled, &e.RetrievalAttempts,
			&e.TimeSpentSeconds, &e.DifficultyAdjustment, &e.RepetitionCount, &e.NextReviewDate); err != nil {
			return nil, fmt.Errorf("index: scan review: %w", err)
		}
		e.Strategy = schedule.Strategy(strategy)
		out = append(out, e)
	}
	return out, rows.Err()
}
