// Package journal records per-task fetch outcomes and synthesis skips in a
// SQLite database, one row per task per run, for later inspection. The
// journal is optional: a nil *Journal is a valid no-op instance, so callers
// never need to branch on whether journaling is enabled.
package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Task outcomes
const (
	OutcomeSuccess = "success"
	OutcomeEmpty   = "empty"
	OutcomeFailure = "failure"
)

// Run kinds
const (
	KindScrape = "scrape"
	KindBuild  = "build"
)

// Journal wraps a SQLite connection with write serialization
type Journal struct {
	conn    *sql.DB
	writeMu sync.Mutex // SQLite allows one writer; serialize pool workers
}

// Open opens (creating if necessary) the journal database at the given path
func Open(path string) (*Journal, error) {
	dsn := path + "?_journal=WAL&_fk=1&_busy_timeout=5000"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	// Single connection plus the write mutex keeps concurrent task
	// recordings from tripping over each other's transactions.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(time.Hour)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping journal: %w", err)
	}

	return &Journal{conn: conn}, nil
}

// Close closes the journal database
func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	return j.conn.Close()
}

// EnsureSchema creates the journal tables if they don't exist
func (j *Journal) EnsureSchema(ctx context.Context) error {
	if j == nil {
		return nil
	}
	j.writeMu.Lock()
	defer j.writeMu.Unlock()

	if _, err := j.conn.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create journal schema: %w", err)
	}
	return nil
}

// StartRun records a new run and returns its identifier
func (j *Journal) StartRun(ctx context.Context, kind string) (string, error) {
	if j == nil {
		return "", nil
	}
	j.writeMu.Lock()
	defer j.writeMu.Unlock()

	runID := uuid.New().String()
	_, err := j.conn.ExecContext(ctx,
		"INSERT INTO runs (run_id, kind, started_at_utc) VALUES (?, ?, ?)",
		runID, kind, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("failed to record run: %w", err)
	}
	return runID, nil
}

// RecordTask records the outcome of one fetch task
func (j *Journal) RecordTask(ctx context.Context, runID, stage, key, outcome, detail string) error {
	if j == nil {
		return nil
	}
	j.writeMu.Lock()
	defer j.writeMu.Unlock()

	_, err := j.conn.ExecContext(ctx,
		`INSERT INTO task_results (run_id, stage, task_key, outcome, detail, recorded_at_utc)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		runID, stage, key, outcome, detail, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to record task result: %w", err)
	}
	return nil
}

// RecordSkip records one (route, direction) pair skipped during synthesis
func (j *Journal) RecordSkip(ctx context.Context, runID, category, key string) error {
	if j == nil {
		return nil
	}
	j.writeMu.Lock()
	defer j.writeMu.Unlock()

	_, err := j.conn.ExecContext(ctx,
		"INSERT INTO synth_skips (run_id, category, skip_key, recorded_at_utc) VALUES (?, ?, ?, ?)",
		runID, category, key, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to record skip: %w", err)
	}
	return nil
}

// TaskCounts returns the per-outcome tallies for one stage of a run
func (j *Journal) TaskCounts(ctx context.Context, runID, stage string) (map[string]int, error) {
	if j == nil {
		return nil, nil
	}

	rows, err := j.conn.QueryContext(ctx,
		"SELECT outcome, COUNT(*) FROM task_results WHERE run_id = ? AND stage = ? GROUP BY outcome",
		runID, stage,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query task counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("failed to scan task counts: %w", err)
		}
		counts[outcome] = n
	}
	return counts, rows.Err()
}
