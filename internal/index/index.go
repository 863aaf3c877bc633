package index

import (
	"context"

	"github.com/starford/rehearse/internal/schedule"
)

// NoteIndex defines the note bookkeeping used by vault sync and the watcher.
type NoteIndex interface {
	UpsertNote(n NoteRow, initial schedule.State) error
	DeleteNote(path string) error
	GetChecksum(path string) (string, error)
	AllChecksums() (map[string]string, error)
	Close() error
}

// ScheduleStore defines the schedule and review log operations used by the review service.
// Consumers should depend on this interface rather than the concrete *DB type.
type ScheduleStore interface {
	GetSchedule(ctx context.Context, path string) (*ScheduleRow, error)
	ListSchedules(ctx context.Context) ([]ScheduleRow, error)
	ApplyReview(ctx context.Context, path string, expectedVersion int64, after schedule.State, entry schedule.LogEntry) (int64, error)
	ListReviews(ctx context.Context, path string, limit int) ([]schedule.LogEntry, error)
	Generation() uint64
}

// Verify *DB satisfies both interfaces at compile time.
var (
	_ NoteIndex     = (*DB)(nil)
	_ ScheduleStore = (*DB)(nil)
)
