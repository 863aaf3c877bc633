package schedule

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Sentinel errors for the schedule package.
// Use errors.Is to check: errors.Is(err, schedule.ErrInvalidRating)
var (
	ErrInvalidRating   = errors.New("schedule: invalid rating")
	ErrInvalidState    = errors.New("schedule: invalid state")
	ErrUnknownStrategy = errors.New("schedule: unknown strategy")
)

// InvalidRatingError reports review outcome fields outside their allowed range.
// It is returned before any state is computed.
type InvalidRatingError struct {
	Fields validation.Errors
}

func (e *InvalidRatingError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidRating, e.Fields.Error())
}

func (e *InvalidRatingError) Unwrap() error { return ErrInvalidRating }

// InvalidStateError reports a malformed incoming State. States produced by this
// package never fail validation, so seeing one means the stored data is corrupt.
type InvalidStateError struct {
	Fields validation.Errors
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidState, e.Fields.Error())
}

func (e *InvalidStateError) Unwrap() error { return ErrInvalidState }

// fieldErrors extracts per-field errors from an ozzo validation result.
// Internal rule errors are returned as-is so they are not misreported as bad input.
func fieldErrors(err error) (validation.Errors, error) {
	if err == nil {
		return nil, nil
	}
	var errs validation.Errors
	if errors.As(err, &errs) {
		return errs, nil
	}
	return nil, err
}
