package index

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/rehearse/internal/apperr"
	"github.com/starford/rehearse/internal/schedule"
	"github.com/starford/rehearse/internal/storage"
)

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "rehearse-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seedNote(t *testing.T, db *DB, path string, tags ...string) {
	t.Helper()
	row := NoteRow{Path: path, Title: path, Checksum: "cs-" + path, Tags: tags, CreatedAt: t0, UpdatedAt: t0}
	if err := db.UpsertNote(row, schedule.NewState(t0, 3)); err != nil {
		t.Fatalf("UpsertNote(%s): %v", path, err)
	}
}

// reviewOnce computes a rating review of path and applies it.
func reviewOnce(t *testing.T, db *DB, path string, rating int, at time.Time) (*ScheduleRow, schedule.LogEntry) {
	t.Helper()
	ctx := context.Background()
	cur, err := db.GetSchedule(ctx, path)
	if err != nil {
		t.Fatalf("GetSchedule: %v", err)
	}
	out := schedule.Outcome{DifficultyRating: rating, RetrievalAttempts: 1, ReviewedAt: at}
	next, err := schedule.ComputeNext(cur.State, out, schedule.StrategyRating)
	if err != nil {
		t.Fatalf("ComputeNext: %v", err)
	}
	entry := schedule.BuildLogEntry(cur.State, out, next, schedule.StrategyRating, path, "u1")
	if _, err := db.ApplyReview(ctx, path, cur.Version, next, entry); err != nil {
		t.Fatalf("ApplyReview: %v", err)
	}
	after, err := db.GetSchedule(ctx, path)
	if err != nil {
		t.Fatalf("GetSchedule: %v", err)
	}
	return after, entry
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	for _, table := range []string{"notes", "schedules", "review_log"} {
		var count int
		if err := db.conn.QueryRow(`SELECT count(*) FROM ` + table).Scan(&count); err != nil {
			t.Fatalf("%s table missing: %v", table, err)
		}
	}
}

func TestUpsertAndGetChecksum(t *testing.T) {
	db := testDB(t)
	seedNote(t, db, "hello.md", "go", "test")

	cs, err := db.GetChecksum("hello.md")
	if err != nil {
		t.Fatalf("GetChecksum: %v", err)
	}
	if cs != "cs-hello.md" {
		t.Errorf("checksum = %q, want %q", cs, "cs-hello.md")
	}
	n, err := db.GetNote("hello.md")
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if len(n.Tags) != 2 || n.Tags[0] != "go" {
		t.Errorf("tags = %v", n.Tags)
	}
}

func TestUpsertCreatesInitialSchedule(t *testing.T) {
	db := testDB(t)
	seedNote(t, db, "new.md")

	row, err := db.GetSchedule(context.Background(), "new.md")
	if err != nil {
		t.Fatalf("GetSchedule: %v", err)
	}
	if row.Version != 1 {
		t.Errorf("version = %d, want 1", row.Version)
	}
	s := row.State
	if s.RepetitionCount != 0 || s.Difficulty != 3 || s.ConfidenceLevel != 3 {
		t.Errorf("initial state = %+v", s)
	}
	if !s.NextReviewDate.Equal(t0) {
		t.Errorf("next review = %v, want %v", s.NextReviewDate, t0)
	}
	if s.LastReviewedAt != nil {
		t.Errorf("last reviewed = %v, want nil", s.LastReviewedAt)
	}
}

func TestUpsertRejectsInvalidInitialState(t *testing.T) {
	db := testDB(t)
	bad := schedule.State{Difficulty: 9, ConfidenceLevel: 3, NextReviewDate: t0}
	err := db.UpsertNote(NoteRow{Path: "bad.md", CreatedAt: t0, UpdatedAt: t0}, bad)
	if !errors.Is(err, schedule.ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}
	if cs, _ := db.GetChecksum("bad.md"); cs != "" {
		t.Error("note with invalid schedule should not be stored")
	}
}

func TestUpsertKeepsScheduleOnEdit(t *testing.T) {
	db := testDB(t)
	seedNote(t, db, "up.md")
	reviewOnce(t, db, "up.md", 3, t0.Add(time.Hour))

	row := NoteRow{Path: "up.md", Title: "New", Checksum: "2", Tags: []string{"new"}, CreatedAt: t0, UpdatedAt: t0.Add(2 * time.Hour)}
	if err := db.UpsertNote(row, schedule.NewState(t0, 5)); err != nil {
		t.Fatalf("UpsertNote: %v", err)
	}

	cs, _ := db.GetChecksum("up.md")
	if cs != "2" {
		t.Errorf("checksum = %q, want %q", cs, "2")
	}
	got, err := db.GetSchedule(context.Background(), "up.md")
	if err != nil {
		t.Fatal(err)
	}
	if got.State.RepetitionCount != 1 || got.Title != "New" {
		t.Errorf("schedule reset by edit: %+v", got)
	}
}

func TestDeleteNoteKeepsLog(t *testing.T) {
	db := testDB(t)
	seedNote(t, db, "del.md")
	reviewOnce(t, db, "del.md", 3, t0.Add(time.Hour))

	if err := db.DeleteNote("del.md"); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	if cs, _ := db.GetChecksum("del.md"); cs != "" {
		t.Errorf("deleted note still has checksum %q", cs)
	}
	if _, err := db.GetSchedule(context.Background(), "del.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("GetSchedule after delete: err = %v, want ErrNotFound", err)
	}
	logs, err := db.ListReviews(context.Background(), "del.md", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 1 {
		t.Errorf("expected review log to survive delete, got %d entries", len(logs))
	}
}

func TestGetChecksum_NotFound(t *testing.T) {
	db := testDB(t)
	cs, err := db.GetChecksum("nonexistent.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cs != "" {
		t.Errorf("expected empty checksum, got %q", cs)
	}
}

func TestApplyReview(t *testing.T) {
	db := testDB(t)
	seedNote(t, db, "a.md")

	reviewedAt := t0.Add(time.Hour)
	row, entry := reviewOnce(t, db, "a.md", 3, reviewedAt)

	if row.Version != 2 {
		t.Errorf("version = %d, want 2", row.Version)
	}
	if row.State.RepetitionCount != 1 {
		t.Errorf("repetitions = %d, want 1", row.State.RepetitionCount)
	}
	if want := reviewedAt.AddDate(0, 0, 1); !row.State.NextReviewDate.Equal(want) {
		t.Errorf("next review = %v, want %v", row.State.NextReviewDate, want)
	}
	if row.State.LastReviewedAt == nil || !row.State.LastReviewedAt.Equal(reviewedAt) {
		t.Errorf("last reviewed = %v, want %v", row.State.LastReviewedAt, reviewedAt)
	}

	logs, err := db.ListReviews(context.Background(), "a.md", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 1 || logs[0].ID != entry.ID {
		t.Fatalf("logs = %+v", logs)
	}
	if logs[0].DifficultyRating != 3 || logs[0].Strategy != schedule.StrategyRating || logs[0].UserID != "u1" {
		t.Errorf("log entry = %+v", logs[0])
	}
}

func TestApplyReview_StaleVersionConflicts(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	seedNote(t, db, "c.md")
	reviewOnce(t, db, "c.md", 3, t0.Add(time.Hour))

	cur, _ := db.GetSchedule(ctx, "c.md")
	out := schedule.Outcome{DifficultyRating: 3, RetrievalAttempts: 1, ReviewedAt: t0.Add(2 * time.Hour)}
	next, _ := schedule.ComputeNext(cur.State, out, schedule.StrategyRating)
	entry := schedule.BuildLogEntry(cur.State, out, next, schedule.StrategyRating, "c.md", "u1")

	_, err := db.ApplyReview(ctx, "c.md", 1, next, entry)
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	logs, _ := db.ListReviews(ctx, "c.md", 0)
	if len(logs) != 1 {
		t.Errorf("conflicting review must not be logged, got %d entries", len(logs))
	}
}

func TestApplyReview_UnknownNote(t *testing.T) {
	db := testDB(t)
	next := schedule.NewState(t0, 3)
	_, err := db.ApplyReview(context.Background(), "missing.md", 1, next, schedule.LogEntry{ID: "x"})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestApplyReview_DuplicateEntryRollsBack(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	seedNote(t, db, "d.md")
	_, entry := reviewOnce(t, db, "d.md", 3, t0.Add(time.Hour))

	cur, _ := db.GetSchedule(ctx, "d.md")
	next := cur.State
	next.RepetitionCount++
	_, err := db.ApplyReview(ctx, "d.md", cur.Version, next, entry)
	if !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Fatalf("err = %v, want ErrAlreadyExists", err)
	}
	after, _ := db.GetSchedule(ctx, "d.md")
	if after.Version != cur.Version || after.State.RepetitionCount != cur.State.RepetitionCount {
		t.Errorf("schedule changed despite failed log insert: %+v", after)
	}
}

func TestReviewLogIsAppendOnly(t *testing.T) {
	db := testDB(t)
	seedNote(t, db, "e.md")
	_, entry := reviewOnce(t, db, "e.md", 3, t0.Add(time.Hour))

	if _, err := db.conn.Exec(`UPDATE review_log SET user_id = 'x' WHERE id = ?`, entry.ID); err == nil {
		t.Error("expected update of review_log to fail")
	}
	if _, err := db.conn.Exec(`DELETE FROM review_log WHERE id = ?`, entry.ID); err == nil {
		t.Error("expected delete from review_log to fail")
	}
}

func TestListReviews_NewestFirstWithLimit(t *testing.T) {
	db := testDB(t)
	seedNote(t, db, "h.md")
	for i := 1; i <= 3; i++ {
		reviewOnce(t, db, "h.md", 3, t0.AddDate(0, 0, i*10))
	}

	logs, err := db.ListReviews(context.Background(), "h.md", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 2 {
		t.Fatalf("len = %d, want 2", len(logs))
	}
	if logs[0].RepetitionCount != 3 || logs[1].RepetitionCount != 2 {
		t.Errorf("order = %d,%d, want 3,2", logs[0].RepetitionCount, logs[1].RepetitionCount)
	}
}

func TestListSchedules_OrderedByNextReview(t *testing.T) {
	db := testDB(t)
	seedNote(t, db, "b.md")
	seedNote(t, db, "a.md")
	reviewOnce(t, db, "a.md", 3, t0.Add(time.Hour))

	rows, err := db.ListSchedules(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0].Path != "b.md" || rows[1].Path != "a.md" {
		t.Errorf("order = %+v", rows)
	}
}

func TestGenerationAdvancesOnWrite(t *testing.T) {
	db := testDB(t)
	g0 := db.Generation()
	seedNote(t, db, "g.md")
	g1 := db.Generation()
	if g1 <= g0 {
		t.Errorf("generation did not advance on upsert")
	}
	reviewOnce(t, db, "g.md", 3, t0.Add(time.Hour))
	if db.Generation() <= g1 {
		t.Errorf("generation did not advance on review")
	}
	g2 := db.Generation()
	_ = db.DeleteNote("nothing.md")
	if db.Generation() != g2 {
		t.Errorf("generation advanced on no-op delete")
	}
}

func TestSync_FutureCreatedDateIsCapped(t *testing.T) {
	vault := t.TempDir()
	store, err := storage.NewFS(vault)
	if err != nil {
		t.Fatal(err)
	}
	db := testDB(t)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	note := "---\ntitle: Later\ncreated: 2999-01-01\n---\nbody\n"
	if err := os.WriteFile(filepath.Join(vault, "later.md"), []byte(note), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Sync(db, store, logger); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	row, err := db.GetSchedule(context.Background(), "later.md")
	if err != nil {
		t.Fatalf("GetSchedule: %v", err)
	}
	now := time.Now()
	if row.State.NextReviewDate.After(now) {
		t.Errorf("next review = %v, want <= %v", row.State.NextReviewDate, now)
	}
	due := schedule.SelectDue([]schedule.Item{{ID: "later.md", State: row.State}}, now, 0)
	if len(due) != 1 {
		t.Errorf("SelectDue = %v, want [later.md]", due)
	}
}

func TestSync(t *testing.T) {
	vault := t.TempDir()
	store, err := storage.NewFS(vault)
	if err != nil {
		t.Fatal(err)
	}
	db := testDB(t)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	note := "---\ntitle: Krebs cycle\ndifficulty: 5\ncreated: 2024-01-15\n---\nCitrate #biochem\n"
	if err := os.MkdirAll(filepath.Join(vault, "bio"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(vault, "bio", "krebs.md"), []byte(note), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(vault, "plain.md"), []byte("# Plain"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Sync(db, store, logger); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	row, err := db.GetSchedule(context.Background(), "bio/krebs.md")
	if err != nil {
		t.Fatalf("GetSchedule: %v", err)
	}
	if row.Title != "Krebs cycle" || row.State.Difficulty != 5 {
		t.Errorf("row = %+v", row)
	}
	if want := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC); !row.State.NextReviewDate.Equal(want) {
		t.Errorf("next review = %v, want %v", row.State.NextReviewDate, want)
	}
	if len(row.Tags) != 1 || row.Tags[0] != "biochem" {
		t.Errorf("tags = %v", row.Tags)
	}

	plain, err := db.GetSchedule(context.Background(), "plain.md")
	if err != nil {
		t.Fatalf("GetSchedule: %v", err)
	}
	if plain.State.Difficulty != schedule.DefaultDifficulty {
		t.Errorf("difficulty = %d, want default", plain.State.Difficulty)
	}

	if err := os.Remove(filepath.Join(vault, "plain.md")); err != nil {
		t.Fatal(err)
	}
	if err := Sync(db, store, logger); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if cs, _ := db.GetChecksum("plain.md"); cs != "" {
		t.Error("removed file still indexed after sync")
	}
}
