// Package schedule computes spaced-repetition review schedules for notes.
//
// Everything here is a pure function of its arguments: no clock reads, no I/O,
// no shared mutable state. Callers supply "now" and review timestamps, persist
// the returned State together with its LogEntry, and serialize concurrent
// reviews of the same note themselves.
package schedule

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Rating and confidence bounds shared by both strategies.
const (
	MinRating = 1
	MaxRating = 5

	// DefaultDifficulty and DefaultConfidence seed notes that were never reviewed.
	DefaultDifficulty = 3
	DefaultConfidence = 3
)

// State is the per-note scheduling state.
type State struct {
	RepetitionCount int        `json:"repetition_count"`
	Difficulty      int        `json:"difficulty"`
	ConfidenceLevel int        `json:"confidence_level"`
	NextReviewDate  time.Time  `json:"next_review_date"`
	LastReviewedAt  *time.Time `json:"last_reviewed_at,omitempty"`
}

// NewState returns the state of a note created at createdAt. The note is due
// immediately. A difficulty outside [1,5] falls back to DefaultDifficulty.
func NewState(createdAt time.Time, difficulty int) State {
	if difficulty < MinRating || difficulty > MaxRating {
		difficulty = DefaultDifficulty
	}
	return State{
		RepetitionCount: 0,
		Difficulty:      difficulty,
		ConfidenceLevel: DefaultConfidence,
		NextReviewDate:  createdAt,
	}
}

// Reviewed reports whether the note has at least one recorded review.
func (s State) Reviewed() bool {
	return s.RepetitionCount > 0
}

// IsDue reports whether the note should be reviewed at now.
// Notes that were never reviewed are always due.
func (s State) IsDue(now time.Time) bool {
	return !s.Reviewed() || !s.NextReviewDate.After(now)
}

// Validate checks the state invariants and returns *InvalidStateError on failure.
func (s State) Validate() error {
	err := validation.ValidateStruct(&s,
		validation.Field(&s.RepetitionCount, validation.Min(0)),
		validation.Field(&s.Difficulty, validation.Required, validation.Min(MinRating), validation.Max(MaxRating)),
		// Zero means no confidence recorded yet; only the confidence strategy sets it.
		validation.Field(&s.ConfidenceLevel, validation.Min(MinRating), validation.Max(MaxRating)),
		validation.Field(&s.NextReviewDate, validation.Required),
	)
	fields, internalErr := fieldErrors(err)
	if internalErr != nil {
		return internalErr
	}
	if len(fields) > 0 {
		return &InvalidStateError{Fields: fields}
	}
	return nil
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
