package schedule

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// logNamespace scopes deterministic log entry ids.
var logNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("rehearse:review-log"))

// LogEntry records one review. Entries are written once and never modified.
type LogEntry struct {
	ID                   string    `json:"id"`
	NoteID               string    `json:"note_id"`
	UserID               string    `json:"user_id"`
	Strategy             Strategy  `json:"strategy"`
	ReviewedAt           time.Time `json:"reviewed_at"`
	DifficultyRating     int       `json:"difficulty_rating,omitempty"`
	InitialConfidence    int       `json:"initial_confidence,omitempty"`
	FinalConfidence      int       `json:"final_confidence,omitempty"`
	WasRecalled          bool      `json:"was_recalled"`
	RetrievalAttempts    int       `json:"retrieval_attempts,omitempty"`
	TimeSpentSeconds     int       `json:"time_spent_seconds"`
	DifficultyAdjustment int       `json:"difficulty_adjustment"`
	RepetitionCount      int       `json:"repetition_count"`
	NextReviewDate       time.Time `json:"next_review_date"`
}

// BuildLogEntry describes the transition from before to after caused by
// outcome. DifficultyAdjustment is after.Difficulty - before.Difficulty.
//
// The id is derived from the note, the review time and the resulting
// repetition count, so rebuilding the entry for the same computation yields
// the same id and a retried write cannot record the review twice.
func BuildLogEntry(before State, outcome Outcome, after State, strategy Strategy, noteID, userID string) LogEntry {
	key := fmt.Sprintf("%s|%s|%d", noteID, outcome.ReviewedAt.UTC().Format(time.RFC3339Nano), after.RepetitionCount)

	entry := LogEntry{
		ID:                   uuid.NewSHA1(logNamespace, []byte(key)).String(),
		NoteID:               noteID,
		UserID:               userID,
		Strategy:             strategy,
		ReviewedAt:           outcome.ReviewedAt,
		TimeSpentSeconds:     outcome.TimeSpentSeconds,
		DifficultyAdjustment: after.Difficulty - before.Difficulty,
		RepetitionCount:      after.RepetitionCount,
		NextReviewDate:       after.NextReviewDate,
	}
	switch strategy {
	case StrategyRating:
		entry.DifficultyRating = outcome.DifficultyRating
	case StrategyConfidence:
		entry.InitialConfidence = outcome.InitialConfidence
		entry.FinalConfidence = outcome.FinalConfidence
		entry.WasRecalled = outcome.WasRecalled
		entry.RetrievalAttempts = outcome.RetrievalAttempts
	}
	return entry
}
