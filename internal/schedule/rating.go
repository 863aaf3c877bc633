package schedule

import "fmt"

// DefaultLadder is the base interval in days for each repetition index.
var DefaultLadder = []int{1, 3, 7, 14, 30, 90, 180, 365}

// Rating thresholds for RatingScheduler.
const (
	HardRating = 4 // ratings at or above shrink the interval
	EasyRating = 2 // ratings at or below advance and stretch it
)

// RatingScheduler scales a ladder of base intervals by a 1-5 difficulty rating.
//
// A hard review halves the base interval at the current repetition index. An
// easy review looks one rung ahead and multiplies by 1.3. A normal review keeps
// the base interval. Indexes past the last rung saturate.
type RatingScheduler struct {
	Ladder []int // nil selects DefaultLadder
}

// Strategy implements Scheduler.
func (RatingScheduler) Strategy() Strategy { return StrategyRating }

// Next implements Scheduler.
func (r RatingScheduler) Next(state State, outcome Outcome) (State, error) {
	if err := precheck(state, outcome, StrategyRating); err != nil {
		return State{}, err
	}

	interval := r.IntervalDays(state.RepetitionCount, outcome.DifficultyRating)

	next := advance(state, outcome, interval)
	next.Difficulty = outcome.DifficultyRating
	return next, nil
}

// IntervalDays returns the interval for a note with repetitions completed
// reviews rated rating. The result is at least one day.
func (r RatingScheduler) IntervalDays(repetitions, rating int) int {
	ladder := r.ladder()
	last := len(ladder) - 1
	base := ladder[clamp(repetitions, 0, last)]

	switch {
	case rating >= HardRating:
		// Hard reviews use the current index, not the incremented one.
		return max(1, base/2)
	case rating <= EasyRating:
		ahead := ladder[clamp(repetitions+1, 0, last)]
		return max(1, ahead*13/10)
	default:
		return max(1, base)
	}
}

func (r RatingScheduler) ladder() []int {
	if len(r.Ladder) == 0 {
		return DefaultLadder
	}
	return r.Ladder
}

func (r RatingScheduler) validate() error {
	if r.Ladder == nil {
		return nil
	}
	if len(r.Ladder) == 0 {
		return fmt.Errorf("schedule: ladder must not be empty")
	}
	if r.Ladder[0] < 1 {
		return fmt.Errorf("schedule: ladder intervals must be at least 1 day, got %d", r.Ladder[0])
	}
	for i := 1; i < len(r.Ladder); i++ {
		if r.Ladder[i] <= r.Ladder[i-1] {
			return fmt.Errorf("schedule: ladder must be strictly increasing: %v", r.Ladder)
		}
	}
	return nil
}
