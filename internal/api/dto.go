package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/rehearse/internal/reviewservice"
	"github.com/starford/rehearse/internal/schedule"
)

// maxUserIDLength bounds the user id recorded in the review log.
const maxUserIDLength = 128

// ReviewRequest is the request body for recording a review. Rating fields
// apply to the rating strategy, confidence fields to the confidence strategy.
type ReviewRequest struct {
	Strategy          string `json:"strategy,omitempty" example:"rating"`
	UserID            string `json:"user_id,omitempty" example:"local"`
	DifficultyRating  int    `json:"difficulty_rating,omitempty" example:"3"`
	InitialConfidence int    `json:"initial_confidence,omitempty" example:"2"`
	FinalConfidence   int    `json:"final_confidence,omitempty" example:"4"`
	WasRecalled       bool   `json:"was_recalled,omitempty" example:"true"`
	RetrievalAttempts int    `json:"retrieval_attempts,omitempty" example:"1"`
	TimeSpentSeconds  int    `json:"time_spent_seconds,omitempty" example:"45"`
}

// Validate checks the request envelope. Outcome values are validated by the
// scheduler for the resolved strategy.
func (r *ReviewRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.UserID, validation.Length(0, maxUserIDLength)),
		validation.Field(&r.TimeSpentSeconds, validation.Min(0)),
		validation.Field(&r.RetrievalAttempts, validation.Min(0)),
	)
}

func (r *ReviewRequest) input(noteID string, expectedVersion int64) reviewservice.ReviewInput {
	return reviewservice.ReviewInput{
		NoteID:            noteID,
		Strategy:          r.Strategy,
		UserID:            r.UserID,
		ExpectedVersion:   expectedVersion,
		DifficultyRating:  r.DifficultyRating,
		InitialConfidence: r.InitialConfidence,
		FinalConfidence:   r.FinalConfidence,
		WasRecalled:       r.WasRecalled,
		RetrievalAttempts: r.RetrievalAttempts,
		TimeSpentSeconds:  r.TimeSpentSeconds,
	}
}

// DueResponse is the due queue (aliased from the domain layer).
type DueResponse = reviewservice.DueList

// ScheduleResponse is a note's schedule (aliased from the domain layer).
type ScheduleResponse = reviewservice.ScheduleView

// ReviewResponse is returned after a review is recorded.
type ReviewResponse = reviewservice.ReviewResult

// StatsResponse is the collection summary.
type StatsResponse = schedule.ReviewStats

// ReviewListResponse wraps a note's review log.
type ReviewListResponse struct {
	Reviews []schedule.LogEntry `json:"reviews" validate:"required"`
}
