package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func confidenceOutcome(recalled bool, initial, final int) Outcome {
	return Outcome{
		InitialConfidence: initial,
		FinalConfidence:   final,
		WasRecalled:       recalled,
		RetrievalAttempts: 1,
		TimeSpentSeconds:  45,
		ReviewedAt:        d0,
	}
}

func TestConfidenceScheduler_Graduation(t *testing.T) {
	s := NewState(d0, 3)

	s, err := ComputeNext(s, confidenceOutcome(true, 3, 3), StrategyConfidence)
	require.NoError(t, err)
	assert.Equal(t, 1, s.RepetitionCount)
	assert.Equal(t, days(1), s.NextReviewDate)

	s, err = ComputeNext(s, confidenceOutcome(true, 3, 3), StrategyConfidence)
	require.NoError(t, err)
	assert.Equal(t, 2, s.RepetitionCount)
	assert.Equal(t, days(6), s.NextReviewDate)

	s, err = ComputeNext(s, confidenceOutcome(true, 4, 5), StrategyConfidence)
	require.NoError(t, err)
	assert.Equal(t, 3, s.RepetitionCount)
	assert.Equal(t, 2, s.Difficulty)
	assert.Equal(t, 5, s.ConfidenceLevel)
	assert.Equal(t, days(16), s.NextReviewDate) // ceil(2.62 * 6)
}

func TestConfidenceScheduler_DifficultyAdjustment(t *testing.T) {
	tests := []struct {
		name     string
		outcome  Outcome
		before   int
		wantAdj  int
		wantDiff int
	}{
		{"forgotten", confidenceOutcome(false, 3, 3), 3, 1, 4},
		{"forgotten at ceiling", confidenceOutcome(false, 1, 1), 5, 1, 5},
		{"recalled with low confidence", confidenceOutcome(true, 2, 2), 3, 0, 3},
		{"recalled with middling confidence", confidenceOutcome(true, 3, 3), 3, 0, 3},
		{"recalled confidently", confidenceOutcome(true, 3, 4), 3, -1, 2},
		{"recalled confidently at floor", confidenceOutcome(true, 5, 5), 1, -1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantAdj, DifficultyAdjustment(tt.outcome))

			next, err := ComputeNext(stateAt(4, tt.before), tt.outcome, StrategyConfidence)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDiff, next.Difficulty)
			assert.Equal(t, tt.outcome.FinalConfidence, next.ConfidenceLevel)
		})
	}
}

func TestConfidenceScheduler_IntervalGrowsAndCaps(t *testing.T) {
	c := ConfidenceScheduler{}
	prev := 0
	for reps := 1; reps <= 12; reps++ {
		got := c.IntervalDays(reps, 3, 3)
		assert.GreaterOrEqual(t, got, prev, "repetition %d", reps)
		assert.LessOrEqual(t, got, DefaultMaxIntervalDays)
		prev = got
	}
	assert.Equal(t, DefaultMaxIntervalDays, c.IntervalDays(40, 5, 1))
	assert.Equal(t, 15, c.IntervalDays(3, 3, 1)) // exactly 2.5 * 6

	capped := ConfidenceScheduler{MaxIntervalDays: 30}
	assert.Equal(t, 30, capped.IntervalDays(6, 5, 1))
}

func TestEasiness(t *testing.T) {
	assert.InDelta(t, 2.62, Easiness(5, 2), 1e-9)
	assert.InDelta(t, 2.5, Easiness(3, 1), 1e-9)
	assert.InDelta(t, 1.98, Easiness(1, 5), 1e-9)
	assert.GreaterOrEqual(t, Easiness(-20, 20), MinEasiness)
}

func TestConfidenceScheduler_RejectsBadOutcome(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Outcome)
		field  string
	}{
		{"final confidence too high", func(o *Outcome) { o.FinalConfidence = 6 }, "final_confidence"},
		{"initial confidence missing", func(o *Outcome) { o.InitialConfidence = 0 }, "initial_confidence"},
		{"no retrieval attempts", func(o *Outcome) { o.RetrievalAttempts = 0 }, "retrieval_attempts"},
		{"negative attempts", func(o *Outcome) { o.RetrievalAttempts = -2 }, "retrieval_attempts"},
		{"negative time spent", func(o *Outcome) { o.TimeSpentSeconds = -5 }, "time_spent_seconds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := confidenceOutcome(true, 3, 3)
			tt.mutate(&o)

			_, err := ComputeNext(stateAt(1, 3), o, StrategyConfidence)
			var ratingErr *InvalidRatingError
			require.ErrorAs(t, err, &ratingErr)
			assert.Contains(t, ratingErr.Fields, tt.field)
		})
	}
}

func TestConfidenceScheduler_IgnoresDifficultyRating(t *testing.T) {
	o := confidenceOutcome(true, 3, 3)
	o.DifficultyRating = 42
	_, err := ComputeNext(stateAt(0, 3), o, StrategyConfidence)
	assert.NoError(t, err)
}
