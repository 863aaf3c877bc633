package schedule

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Outcome is the input of a single scheduling computation.
//
// DifficultyRating is read by StrategyRating. InitialConfidence,
// FinalConfidence, WasRecalled and RetrievalAttempts are read by
// StrategyConfidence. Fields belonging to the other strategy are ignored.
type Outcome struct {
	DifficultyRating  int       `json:"difficulty_rating,omitempty"`
	InitialConfidence int       `json:"initial_confidence,omitempty"`
	FinalConfidence   int       `json:"final_confidence,omitempty"`
	WasRecalled       bool      `json:"was_recalled"`
	RetrievalAttempts int       `json:"retrieval_attempts,omitempty"`
	TimeSpentSeconds  int       `json:"time_spent_seconds"`
	ReviewedAt        time.Time `json:"reviewed_at"`
}

// Validate checks the fields read by strategy and returns *InvalidRatingError
// listing every offending field.
func (o Outcome) Validate(strategy Strategy) error {
	if !strategy.IsValid() {
		return ErrUnknownStrategy
	}
	rating := strategy == StrategyRating
	confidence := strategy == StrategyConfidence

	err := validation.ValidateStruct(&o,
		validation.Field(&o.DifficultyRating,
			validation.When(rating, validation.Required, validation.Min(MinRating), validation.Max(MaxRating))),
		validation.Field(&o.InitialConfidence,
			validation.When(confidence, validation.Required, validation.Min(MinRating), validation.Max(MaxRating))),
		validation.Field(&o.FinalConfidence,
			validation.When(confidence, validation.Required, validation.Min(MinRating), validation.Max(MaxRating))),
		validation.Field(&o.RetrievalAttempts,
			validation.When(confidence, validation.Required, validation.Min(1))),
		validation.Field(&o.TimeSpentSeconds, validation.Min(0)),
		validation.Field(&o.ReviewedAt, validation.Required),
	)
	fields, internalErr := fieldErrors(err)
	if internalErr != nil {
		return internalErr
	}
	if len(fields) > 0 {
		return &InvalidRatingError{Fields: fields}
	}
	return nil
}
