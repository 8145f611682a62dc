package repository

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // pure-Go sqlite driver
)

// DB wraps the shared SQLite handle used by both stores.
type DB struct {
	sql *sql.DB
}

// Open opens (or creates) the SQLite database at path and applies the schema.
// A single connection is used: SQLite serializes writers anyway, and one
// connection avoids SQLITE_BUSY churn under concurrent handlers.
func Open(ctx context.Context, path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	raw, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	raw.SetMaxOpenConns(1)

	db := &DB{sql: raw}
	if err := db.migrate(ctx); err != nil {
		_ = raw.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the underlying handle.
func (db *DB) Close() error {
	if err := db.sql.Close(); err != nil {
		return fmt.Errorf("close sqlite: %w", err)
	}
	return nil
}

// migrate applies the schema. Statements are idempotent; SQLite executes one
// at a time.
func (db *DB) migrate(ctx context.Context) error {
	for _, stmt := range migrations() {
		if _, err := db.sql.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func migrations() []string {
	return []string{
		// Per-recruiter aggregate. Counters only move forward; derived rates
		// are NULL while their denominator is zero. last_event_score tracks
		// the score carried by the most recent published change event.
		`CREATE TABLE IF NOT EXISTS recruiter_reputation (
			recruiter_id         TEXT PRIMARY KEY,
			total_submissions    INTEGER NOT NULL DEFAULT 0,
			total_hires          INTEGER NOT NULL DEFAULT 0,
			total_placements     INTEGER NOT NULL DEFAULT 0,
			completed_placements INTEGER NOT NULL DEFAULT 0,
			failed_placements    INTEGER NOT NULL DEFAULT 0,
			total_collaborations INTEGER NOT NULL DEFAULT 0,
			proposals_accepted   INTEGER NOT NULL DEFAULT 0,
			proposals_declined   INTEGER NOT NULL DEFAULT 0,
			proposals_timed_out  INTEGER NOT NULL DEFAULT 0,
			hire_rate            REAL,
			completion_rate      REAL,
			collaboration_rate   REAL,
			reputation_score     REAL NOT NULL,
			last_event_score     REAL NOT NULL,
			last_calculated_at   INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reputation_score
			ON recruiter_reputation(reputation_score DESC, recruiter_id ASC)`,

		// Proposals are an immutable audit trail: one row per offer, exactly
		// one terminal transition ever, never deleted. Timestamps are Unix
		// nanoseconds so deadline comparisons are numeric.
		`CREATE TABLE IF NOT EXISTS proposals (
			id              TEXT PRIMARY KEY,
			recruiter_id    TEXT NOT NULL,
			candidate_id    TEXT NOT NULL,
			job_id          TEXT NOT NULL,
			state           TEXT NOT NULL DEFAULT 'proposed',
			proposed_at     INTEGER NOT NULL,
			response_due_at INTEGER NOT NULL,
			responded_at    INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_proposals_due
			ON proposals(state, response_due_at)`,
		`CREATE INDEX IF NOT EXISTS idx_proposals_recruiter
			ON proposals(recruiter_id)`,
	}
}
