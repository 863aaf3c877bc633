// Package reviewservice records reviews and answers queue questions on top of
// the schedule engines and the index.
package reviewservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go"

	"github.com/starford/rehearse/internal/apperr"
	"github.com/starford/rehearse/internal/index"
	"github.com/starford/rehearse/internal/schedule"
)

// ScheduleView is a note's schedule as returned to callers.
type ScheduleView struct {
	NoteID string   `json:"note_id"`
	Title  string   `json:"title"`
	Tags   []string `json:"tags"`
	schedule.State
	Version int64 `json:"version"`
	Due     bool  `json:"due"`
}

// ReviewInput describes one review submitted by a learner.
// Strategy and UserID fall back to the service defaults when empty.
// A non-zero ExpectedVersion must match the stored schedule version.
type ReviewInput struct {
	NoteID            string
	Strategy          string
	UserID            string
	ExpectedVersion   int64
	DifficultyRating  int
	InitialConfidence int
	FinalConfidence   int
	WasRecalled       bool
	RetrievalAttempts int
	TimeSpentSeconds  int
}

// ReviewResult is the persisted outcome of a review.
type ReviewResult struct {
	Schedule ScheduleView      `json:"schedule"`
	Entry    schedule.LogEntry `json:"entry"`
}

// Service coordinates the schedule engines with the index.
type Service struct {
	store    index.ScheduleStore
	engines  *schedule.Engines
	clock    Clock
	notifier Notifier
	logger   *slog.Logger

	strategy    schedule.Strategy
	user        string
	dueLimit    int
	maxAttempts uint

	due *dueCache
}

// New creates a review service backed by store.
func New(store index.ScheduleStore, opts ...Option) *Service {
	s := &Service{
		store:       store,
		engines:     &schedule.Engines{},
		clock:       systemClock{},
		logger:      slog.Default(),
		strategy:    schedule.StrategyRating,
		user:        DefaultUser,
		dueLimit:    DefaultDueLimit,
		maxAttempts: DefaultMaxAttempts,
		due:         newDueCache(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DefaultStrategy returns the strategy used when a review names none.
func (s *Service) DefaultStrategy() schedule.Strategy {
	return s.strategy
}

// Review applies in to the note's schedule and appends a log entry, both in
// one transaction. When another writer updates the schedule first, the review
// is recomputed from the fresh state unless the caller pinned ExpectedVersion.
func (s *Service) Review(ctx context.Context, in ReviewInput) (*ReviewResult, error) {
	strategy := s.strategy
	if in.Strategy != "" {
		st, err := schedule.ParseStrategy(in.Strategy)
		if err != nil {
			return nil, err
		}
		strategy = st
	}
	user := in.UserID
	if user == "" {
		user = s.user
	}

	// Reject malformed input before touching storage.
	if err := in.outcome(s.clock.Now()).Validate(strategy); err != nil {
		return nil, err
	}

	var result *ReviewResult
	attempt := 0
	err := retry.Do(
		func() error {
			attempt++
			res, err := s.reviewOnce(ctx, in, strategy, user)
			if err != nil {
				if errors.Is(err, apperr.ErrConflict) && in.ExpectedVersion == 0 {
					s.logger.Debug("review: concurrent update, recomputing",
						slog.String("note", in.NoteID), slog.Int("attempt", attempt))
					return err
				}
				return retry.Unrecoverable(err)
			}
			result = res
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(s.maxAttempts),
		retry.Delay(5*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		if errors.Is(err, schedule.ErrInvalidState) {
			s.logger.Error("review: stored schedule is invalid",
				slog.String("note", in.NoteID), slog.String("error", err.Error()))
		}
		return nil, err
	}

	s.logger.Info("review recorded",
		slog.String("note", in.NoteID),
		slog.String("strategy", strategy.String()),
		slog.Int("repetition", result.Schedule.RepetitionCount),
		slog.Time("next_review", result.Schedule.NextReviewDate))
	if s.notifier != nil {
		s.notifier.PublishReview(in.NoteID, result.Schedule.State)
	}
	return result, nil
}

func (s *Service) reviewOnce(ctx context.Context, in ReviewInput, strategy schedule.Strategy, user string) (*ReviewResult, error) {
	row, err := s.store.GetSchedule(ctx, in.NoteID)
	if err != nil {
		return nil, err
	}
	if in.ExpectedVersion != 0 && row.Version != in.ExpectedVersion {
		return nil, fmt.Errorf("review %s: version %d, expected %d: %w", in.NoteID, row.Version, in.ExpectedVersion, apperr.ErrConflict)
	}

	outcome := in.outcome(s.clock.Now())
	next, err := s.engines.ComputeNext(row.State, outcome, strategy)
	if err != nil {
		return nil, err
	}
	entry := schedule.BuildLogEntry(row.State, outcome, next, strategy, in.NoteID, user)

	version, err := s.store.ApplyReview(ctx, in.NoteID, row.Version, next, entry)
	if err != nil {
		return nil, err
	}

	view := ScheduleView{
		NoteID:  row.Path,
		Title:   row.Title,
		Tags:    row.Tags,
		State:   next,
		Version: version,
		Due:     next.IsDue(outcome.ReviewedAt),
	}
	return &ReviewResult{Schedule: view, Entry: entry}, nil
}

func (in ReviewInput) outcome(now time.Time) schedule.Outcome {
	return schedule.Outcome{
		DifficultyRating:  in.DifficultyRating,
		InitialConfidence: in.InitialConfidence,
		FinalConfidence:   in.FinalConfidence,
		WasRecalled:       in.WasRecalled,
		RetrievalAttempts: in.RetrievalAttempts,
		TimeSpentSeconds:  in.TimeSpentSeconds,
		ReviewedAt:        now,
	}
}

// Schedule returns the schedule of a note.
func (s *Service) Schedule(ctx context.Context, noteID string) (*ScheduleView, error) {
	row, err := s.store.GetSchedule(ctx, noteID)
	if err != nil {
		return nil, err
	}
	return &ScheduleView{
		NoteID:  row.Path,
		Title:   row.Title,
		Tags:    row.Tags,
		State:   row.State,
		Version: row.Version,
		Due:     row.State.IsDue(s.clock.Now()),
	}, nil
}

// History returns the note's review log, newest first. limit <= 0 uses the
// default and larger values are capped at MaxHistory.
func (s *Service) History(ctx context.Context, noteID string, limit int) ([]schedule.LogEntry, error) {
	if limit <= 0 {
		limit = DefaultHistory
	}
	limit = min(limit, MaxHistory)
	return s.store.ListReviews(ctx, noteID, limit)
}

// Stats summarises every schedule at the current time.
func (s *Service) Stats(ctx context.Context) (schedule.ReviewStats, error) {
	rows, err := s.store.ListSchedules(ctx)
	if err != nil {
		return schedule.ReviewStats{}, err
	}
	states := make([]schedule.State, len(rows))
	for i, r := range rows {
		states[i] = r.State
	}
	return schedule.Stats(states, s.clock.Now()), nil
}
