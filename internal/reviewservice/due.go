package reviewservice

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/starford/rehearse/internal/schedule"
)

// DueQuery narrows the due queue. Limit <= 0 uses the service default and
// values above MaxDueLimit are capped. An empty Tag matches every note.
type DueQuery struct {
	Limit int
	Tag   string
}

// DueNote is one entry of the due queue.
type DueNote struct {
	NoteID          string    `json:"note_id"`
	Title           string    `json:"title"`
	Tags            []string  `json:"tags"`
	NextReviewDate  time.Time `json:"next_review_date"`
	OverdueSeconds  int64     `json:"overdue_seconds"`
	RepetitionCount int       `json:"repetition_count"`
	Difficulty      int       `json:"difficulty"`
	Version         int64     `json:"version"`
}

// DueList is the due queue answer. Total counts every matching due note
// before the limit is applied.
type DueList struct {
	Notes []DueNote `json:"notes"`
	Total int       `json:"total"`
}

// Due returns the notes due now, most overdue first.
func (s *Service) Due(ctx context.Context, q DueQuery) (*DueList, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = s.dueLimit
	}
	limit = min(limit, MaxDueLimit)

	all, err := s.dueSet(ctx)
	if err != nil {
		return nil, err
	}

	notes := make([]DueNote, 0, min(len(all), limit))
	total := 0
	for _, n := range all {
		if q.Tag != "" && !slices.Contains(n.Tags, q.Tag) {
			continue
		}
		total++
		if len(notes) < limit {
			notes = append(notes, n)
		}
	}
	return &DueList{Notes: notes, Total: total}, nil
}

type dueKey struct {
	generation uint64
	minute     int64
}

// dueCache holds the last computed due set. It is keyed by the index write
// generation and the wall-clock minute, so any write or the next minute
// invalidates it. Concurrent misses share one computation.
type dueCache struct {
	mu    sync.Mutex
	key   dueKey
	valid bool
	notes []DueNote

	group singleflight.Group
}

func newDueCache() *dueCache {
	return &dueCache{}
}

func (c *dueCache) get(k dueKey) ([]DueNote, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.valid || c.key != k {
		return nil, false
	}
	return c.notes, true
}

func (c *dueCache) put(k dueKey, notes []DueNote) {
	c.mu.Lock()
	c.key, c.notes, c.valid = k, notes, true
	c.mu.Unlock()
}

// dueSet returns every due note in queue order. The slice is shared and must
// not be modified.
func (s *Service) dueSet(ctx context.Context) ([]DueNote, error) {
	now := s.clock.Now()
	key := dueKey{generation: s.store.Generation(), minute: now.Unix() / 60}
	if notes, ok := s.due.get(key); ok {
		return notes, nil
	}

	v, err, _ := s.due.group.Do(fmt.Sprintf("%d:%d", key.generation, key.minute), func() (any, error) {
		notes, err := s.computeDue(ctx, now)
		if err != nil {
			return nil, err
		}
		s.due.put(key, notes)
		return notes, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]DueNote), nil
}

func (s *Service) computeDue(ctx context.Context, now time.Time) ([]DueNote, error) {
	rows, err := s.store.ListSchedules(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]schedule.Item, len(rows))
	byID := make(map[string]int, len(rows))
	for i, r := range rows {
		items[i] = schedule.Item{ID: r.Path, State: r.State}
		byID[r.Path] = i
	}

	due := schedule.DueItems(items, now, 0)
	notes := make([]DueNote, len(due))
	for i, it := range due {
		r := rows[byID[it.ID]]
		overdue := max(now.Sub(it.State.NextReviewDate), 0)
		notes[i] = DueNote{
			NoteID:          r.Path,
			Title:           r.Title,
			Tags:            r.Tags,
			NextReviewDate:  it.State.NextReviewDate,
			OverdueSeconds:  int64(overdue / time.Second),
			RepetitionCount: it.State.RepetitionCount,
			Difficulty:      it.State.Difficulty,
			Version:         r.Version,
		}
	}
	return notes, nil
}
