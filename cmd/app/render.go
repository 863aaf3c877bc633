package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/starford/rehearse/internal/reviewservice"
	"github.com/starford/rehearse/internal/schedule"
)

var (
	bold   = color.New(color.Bold)
	red    = color.New(color.FgRed)
	yellow = color.New(color.FgYellow)
	green  = color.New(color.FgGreen)
	faint  = color.New(color.Faint)
)

// humanDuration renders d in the largest whole unit: days, hours or minutes.
func humanDuration(d time.Duration) string {
	switch {
	case d >= 24*time.Hour:
		return fmt.Sprintf("%dd", int(d/(24*time.Hour)))
	case d >= time.Hour:
		return fmt.Sprintf("%dh", int(d/time.Hour))
	default:
		return fmt.Sprintf("%dm", int(d/time.Minute))
	}
}

func printDue(w io.Writer, list *reviewservice.DueList) {
	if len(list.Notes) == 0 {
		green.Fprintln(w, "Nothing due. Come back later.")
		return
	}
	for _, n := range list.Notes {
		overdue := time.Duration(n.OverdueSeconds) * time.Second
		c := yellow
		if overdue >= 24*time.Hour {
			c = red
		}
		title := n.Title
		if title == "" {
			title = n.NoteID
		}
		fmt.Fprintf(w, "%s  %s  %s",
			c.Sprintf("%6s", humanDuration(overdue)),
			bold.Sprint(title),
			faint.Sprint(n.NoteID))
		if len(n.Tags) > 0 {
			fmt.Fprintf(w, "  %s", faint.Sprint("#"+strings.Join(n.Tags, " #")))
		}
		fmt.Fprintln(w)
	}
	if list.Total > len(list.Notes) {
		faint.Fprintf(w, "... %d more due\n", list.Total-len(list.Notes))
	}
}

func printStats(w io.Writer, st schedule.ReviewStats) {
	fmt.Fprintf(w, "%s %d\n", bold.Sprint("Due:        "), st.DueCount)
	fmt.Fprintf(w, "%s %d\n", bold.Sprint("Notes:      "), st.TotalCount)
	fmt.Fprintf(w, "%s %d (%d%%)\n", bold.Sprint("Reviewed:   "), st.ReviewedCount, st.RetentionRate)
	fmt.Fprintf(w, "%s %.1f\n", bold.Sprint("Difficulty: "), st.AverageDifficulty)
}

func printReview(w io.Writer, res *reviewservice.ReviewResult) {
	s := res.Schedule
	green.Fprintf(w, "Recorded review #%d of %s\n", s.RepetitionCount, s.NoteID)
	fmt.Fprintf(w, "Next review: %s (difficulty %d, confidence %d)\n",
		bold.Sprint(s.NextReviewDate.Local().Format("2006-01-02 15:04")), s.Difficulty, s.ConfidenceLevel)
	if adj := res.Entry.DifficultyAdjustment; adj != 0 {
		faint.Fprintf(w, "Difficulty adjusted by %+d\n", adj)
	}
}
