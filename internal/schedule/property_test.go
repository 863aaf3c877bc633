package schedule

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func randomOutcome(rng *rand.Rand, at time.Time) Outcome {
	return Outcome{
		DifficultyRating:  1 + rng.Intn(5),
		InitialConfidence: 1 + rng.Intn(5),
		FinalConfidence:   1 + rng.Intn(5),
		WasRecalled:       rng.Intn(3) > 0,
		RetrievalAttempts: 1 + rng.Intn(4),
		TimeSpentSeconds:  rng.Intn(600),
		ReviewedAt:        at,
	}
}

func TestSchedulingInvariants_RandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for _, strategy := range Strategies {
		for run := 0; run < 200; run++ {
			state := NewState(d0, 1+rng.Intn(5))
			at := d0

			for step := 0; step < 25; step++ {
				at = at.Add(time.Duration(rng.Intn(72)) * time.Hour)
				outcome := randomOutcome(rng, at)

				next, err := ComputeNext(state, outcome, strategy)
				require.NoError(t, err)

				require.True(t, next.NextReviewDate.After(outcome.ReviewedAt), "%s: due date not after review", strategy)
				require.GreaterOrEqual(t, next.NextReviewDate.Sub(outcome.ReviewedAt), 23*time.Hour)
				require.Equal(t, state.RepetitionCount+1, next.RepetitionCount)
				require.GreaterOrEqual(t, next.Difficulty, MinRating)
				require.LessOrEqual(t, next.Difficulty, MaxRating)
				require.GreaterOrEqual(t, next.ConfidenceLevel, MinRating)
				require.LessOrEqual(t, next.ConfidenceLevel, MaxRating)
				require.NoError(t, next.Validate())

				state = next
			}
		}
	}
}

func TestSelectDue_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	now := days(30)

	for run := 0; run < 100; run++ {
		items := make([]Item, rng.Intn(40))
		for i := range items {
			items[i] = Item{ID: string(rune('a' + i)), State: reviewed(1+rng.Intn(5), days(rng.Intn(60)), 3)}
		}

		got := DueItems(items, now, 0)
		for i, it := range got {
			require.False(t, it.State.NextReviewDate.After(now))
			if i > 0 {
				require.False(t, it.State.NextReviewDate.Before(got[i-1].State.NextReviewDate))
			}
		}

		want := 0
		for _, it := range items {
			if !it.State.NextReviewDate.After(now) {
				want++
			}
		}
		require.Len(t, got, want)
	}
}
