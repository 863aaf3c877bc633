package schedule

import "math"

// Easiness factor constants for ConfidenceScheduler.
const (
	BaseEasiness = 2.5
	MinEasiness  = 1.3

	// DefaultMaxIntervalDays caps ConfidenceScheduler intervals.
	DefaultMaxIntervalDays = 365
)

// ConfidenceScheduler is a simplified SM-2 schedule driven by recall and
// self-reported confidence.
//
// The first review schedules one day out and the second six days. From the
// third review on the interval is ceil(easiness^(n-2) * 6), where easiness
// rises with final confidence, falls with difficulty, and never drops below
// MinEasiness.
type ConfidenceScheduler struct {
	MaxIntervalDays int // zero selects DefaultMaxIntervalDays
}

// Strategy implements Scheduler.
func (ConfidenceScheduler) Strategy() Strategy { return StrategyConfidence }

// Next implements Scheduler.
func (c ConfidenceScheduler) Next(state State, outcome Outcome) (State, error) {
	if err := precheck(state, outcome, StrategyConfidence); err != nil {
		return State{}, err
	}

	difficulty := clamp(state.Difficulty+DifficultyAdjustment(outcome), MinRating, MaxRating)
	repetitions := state.RepetitionCount + 1
	interval := c.IntervalDays(repetitions, outcome.FinalConfidence, difficulty)

	next := advance(state, outcome, interval)
	next.Difficulty = difficulty
	next.ConfidenceLevel = outcome.FinalConfidence
	return next, nil
}

// DifficultyAdjustment returns the signed difficulty change for an outcome:
// +1 when the note was not recalled, -1 when it was recalled with final
// confidence of 4 or more, 0 otherwise.
func DifficultyAdjustment(o Outcome) int {
	switch {
	case !o.WasRecalled:
		return 1
	case o.FinalConfidence >= 4:
		return -1
	default:
		return 0
	}
}

// Easiness returns the easiness factor for a final confidence and an updated difficulty.
func Easiness(finalConfidence, difficulty int) float64 {
	e := BaseEasiness + 0.1*float64(finalConfidence-3) - 0.08*float64(difficulty-1)
	return math.Max(e, MinEasiness)
}

// IntervalDays returns the interval after the repetitions-th review.
func (c ConfidenceScheduler) IntervalDays(repetitions, finalConfidence, difficulty int) int {
	limit := c.MaxIntervalDays
	if limit <= 0 {
		limit = DefaultMaxIntervalDays
	}

	switch {
	case repetitions <= 1:
		return min(1, limit)
	case repetitions == 2:
		return min(6, limit)
	}

	e := Easiness(finalConfidence, difficulty)
	raw := math.Pow(e, float64(repetitions-2)) * 6
	if math.IsInf(raw, 0) || raw >= float64(limit) {
		return limit
	}
	// Tolerate float noise so an exact product is not pushed up a day.
	return max(1, int(math.Ceil(raw-1e-9)))
}
