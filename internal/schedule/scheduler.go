package schedule

import "fmt"

// Scheduler maps a prior state and a review outcome to the next state.
// Implementations are pure and safe for concurrent use.
type Scheduler interface {
	Strategy() Strategy
	Next(state State, outcome Outcome) (State, error)
}

// Compile-time interface checks.
var (
	_ Scheduler = RatingScheduler{}
	_ Scheduler = ConfidenceScheduler{}
)

// Engines holds one Scheduler per strategy.
type Engines struct {
	rating     RatingScheduler
	confidence ConfidenceScheduler
}

// NewEngines builds engines from a base-interval ladder and an interval cap.
// A nil ladder or zero cap selects the defaults.
func NewEngines(ladder []int, maxIntervalDays int) (*Engines, error) {
	rating := RatingScheduler{Ladder: ladder}
	if err := rating.validate(); err != nil {
		return nil, err
	}
	if maxIntervalDays < 0 {
		return nil, fmt.Errorf("schedule: max interval %d must be positive", maxIntervalDays)
	}
	return &Engines{
		rating:     rating,
		confidence: ConfidenceScheduler{MaxIntervalDays: maxIntervalDays},
	}, nil
}

// For returns the engine for strategy.
func (e *Engines) For(strategy Strategy) (Scheduler, error) {
	switch strategy {
	case StrategyRating:
		return e.rating, nil
	case StrategyConfidence:
		return e.confidence, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, string(strategy))
	}
}

// ComputeNext runs the engine for strategy.
func (e *Engines) ComputeNext(state State, outcome Outcome, strategy Strategy) (State, error) {
	s, err := e.For(strategy)
	if err != nil {
		return State{}, err
	}
	return s.Next(state, outcome)
}

var defaultEngines = &Engines{}

// ComputeNext runs the default engine for strategy: the standard ladder for
// StrategyRating and a 365 day cap for StrategyConfidence.
func ComputeNext(state State, outcome Outcome, strategy Strategy) (State, error) {
	return defaultEngines.ComputeNext(state, outcome, strategy)
}

// precheck validates both inputs in the order callers rely on: a corrupt
// state is reported before a bad outcome.
func precheck(state State, outcome Outcome, strategy Strategy) error {
	if err := state.Validate(); err != nil {
		return err
	}
	return outcome.Validate(strategy)
}

// advance fills the fields every strategy updates the same way.
func advance(state State, outcome Outcome, intervalDays int) State {
	reviewedAt := outcome.ReviewedAt
	state.RepetitionCount++
	state.NextReviewDate = reviewedAt.AddDate(0, 0, intervalDays)
	state.LastReviewedAt = &reviewedAt
	return state
}
