package schedule

import (
	"math"
	"slices"
	"time"
)

// Item pairs a note id with its scheduling state.
type Item struct {
	ID    string `json:"id"`
	State State  `json:"state"`
}

// DueItems returns the items due at now, most overdue first. Ties keep their
// input order. limit caps the result after ordering; limit <= 0 means no cap.
// The input slice is not modified.
func DueItems(items []Item, now time.Time, limit int) []Item {
	due := make([]Item, 0, len(items))
	for _, it := range items {
		if it.State.IsDue(now) {
			due = append(due, it)
		}
	}
	slices.SortStableFunc(due, func(a, b Item) int {
		return a.State.NextReviewDate.Compare(b.State.NextReviewDate)
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due
}

// SelectDue returns the ids of the items due at now, most overdue first.
func SelectDue(items []Item, now time.Time, limit int) []string {
	due := DueItems(items, now, limit)
	ids := make([]string, len(due))
	for i, it := range due {
		ids[i] = it.ID
	}
	return ids
}

// ReviewStats aggregates a note collection.
type ReviewStats struct {
	DueCount          int     `json:"due_count"`
	TotalCount        int     `json:"total_count"`
	ReviewedCount     int     `json:"reviewed_count"`
	AverageDifficulty float64 `json:"average_difficulty"`
	RetentionRate     int     `json:"retention_rate"`
}

// Stats aggregates states at now. AverageDifficulty is rounded to one
// decimal and RetentionRate is the reviewed share as a rounded percentage.
// An empty collection yields all zeros.
func Stats(states []State, now time.Time) ReviewStats {
	var st ReviewStats
	st.TotalCount = len(states)
	if st.TotalCount == 0 {
		return st
	}

	difficultySum := 0
	for _, s := range states {
		if s.IsDue(now) {
			st.DueCount++
		}
		if s.Reviewed() {
			st.ReviewedCount++
		}
		difficultySum += s.Difficulty
	}

	total := float64(st.TotalCount)
	st.AverageDifficulty = math.Round(float64(difficultySum)/total*10) / 10
	st.RetentionRate = int(math.Round(float64(st.ReviewedCount) / total * 100))
	return st
}
