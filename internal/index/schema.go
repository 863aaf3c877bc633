// Package index provides SQLite persistence for notes, their review schedules,
// and the append-only review log.
package index

import (
	"database/sql"
	"fmt"
	"sync/atomic"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS notes (
	path       TEXT PRIMARY KEY,
	title      TEXT NOT NULL DEFAULT '',
	checksum   TEXT NOT NULL DEFAULT '',
	tags       TEXT NOT NULL DEFAULT '[]',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS schedules (
	note_path        TEXT PRIMARY KEY REFERENCES notes(path) ON DELETE CASCADE,
	repetition_count INTEGER NOT NULL DEFAULT 0 CHECK (repetition_count >= 0),
	difficulty       INTEGER NOT NULL CHECK (difficulty BETWEEN 1 AND 5),
	confidence_level INTEGER NOT NULL CHECK (confidence_level BETWEEN 1 AND 5),
	next_review_date DATETIME NOT NULL,
	last_reviewed_at DATETIME,
	version          INTEGER NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_schedules_next_review ON schedules(next_review_date);

CREATE TABLE IF NOT EXISTS review_log (
	id                    TEXT PRIMARY KEY,
	note_path             TEXT NOT NULL,
	user_id               TEXT NOT NULL,
	strategy              TEXT NOT NULL,
	reviewed_at           DATETIME NOT NULL,
	difficulty_rating     INTEGER NOT NULL DEFAULT 0,
	initial_confidence    INTEGER NOT NULL DEFAULT 0,
	final_confidence      INTEGER NOT NULL DEFAULT 0,
	was_recalled          INTEGER NOT NULL DEFAULT 0,
	retrieval_attempts    INTEGER NOT NULL DEFAULT 0,
	time_spent_seconds    INTEGER NOT NULL DEFAULT 0,
	difficulty_adjustment INTEGER NOT NULL,
	repetition_count      INTEGER NOT NULL,
	next_review_date      DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_review_log_note ON review_log(note_path, reviewed_at);

CREATE TRIGGER IF NOT EXISTS review_log_no_update BEFORE UPDATE ON review_log
BEGIN
	SELECT RAISE(ABORT, 'review_log is append-only');
END;

CREATE TRIGGER IF NOT EXISTS review_log_no_delete BEFORE DELETE ON review_log
BEGIN
	SELECT RAISE(ABORT, 'review_log is append-only');
END;
`

// DB wraps a sql.DB with index-specific operations.
type DB struct {
	conn *sql.DB
	gen  atomic.Uint64
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Generation returns a counter that advances after every committed write made
// through this handle. Caches of derived data key on it.
func (db *DB) Generation() uint64 {
	return db.gen.Load()
}

func (db *DB) bump() {
	db.gen.Add(1)
}
