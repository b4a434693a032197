// Package persistence stores sealed decision traces in SQLite so runs can
// be listed and re-inspected after the fact.
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/felixgeelhaar/cadence/internal/planning/domain"
)

var ErrTraceNotFound = errors.New("trace not found")

// TraceRecord is one stored run as listed by the repository.
type TraceRecord struct {
	RunID     string    `json:"run_id"`
	Policy    string    `json:"policy"`
	CreatedAt time.Time `json:"created_at"`
}

// SQLiteTraceRepository persists trace exports as JSON payloads keyed by
// run id. Saving the same run id twice replaces the payload; identical
// inputs produce identical traces, so nothing is lost.
type SQLiteTraceRepository struct {
	db *sql.DB
}

const traceSchema = `
CREATE TABLE IF NOT EXISTS traces (
	run_id     TEXT PRIMARY KEY,
	policy     TEXT NOT NULL,
	created_at TEXT NOT NULL,
	payload    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_traces_policy ON traces(policy);
`

// NewSQLiteTraceRepository opens (or creates) the trace database at path
// and ensures the schema exists.
func NewSQLiteTraceRepository(ctx context.Context, path string) (*SQLiteTraceRepository, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Pragmas: WAL for concurrency, busy_timeout so a locked file waits
	// instead of failing, NORMAL sync as the safety/speed balance.
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?"
	} else {
		dsn += "&"
	}
	dsn += "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// SQLite doesn't support multiple writers, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}
	if _, err := db.ExecContext(ctx, traceSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create trace schema: %w", err)
	}

	return &SQLiteTraceRepository{db: db}, nil
}

// Save stores the sealed trace. The trace must already be sealed; an
// unsealed trace has no stable export to persist.
func (r *SQLiteTraceRepository) Save(ctx context.Context, trace *domain.DecisionTrace) error {
	export, err := trace.Structured()
	if err != nil {
		return err
	}
	payload, err := json.Marshal(export)
	if err != nil {
		return fmt.Errorf("failed to encode trace %s: %w", export.RunID, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO traces (run_id, policy, created_at, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			policy = excluded.policy,
			payload = excluded.payload`,
		export.RunID,
		export.Policy,
		time.Now().UTC().Format(time.RFC3339),
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("failed to save trace %s: %w", export.RunID, err)
	}
	return nil
}

// Get loads one stored trace export by run id.
func (r *SQLiteTraceRepository) Get(ctx context.Context, runID string) (*domain.TraceExport, error) {
	var payload string
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM traces WHERE run_id = ?`, runID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTraceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load trace %s: %w", runID, err)
	}

	var export domain.TraceExport
	if err := json.Unmarshal([]byte(payload), &export); err != nil {
		return nil, fmt.Errorf("failed to decode trace %s: %w", runID, err)
	}
	return &export, nil
}

// List returns stored runs, most recent first.
func (r *SQLiteTraceRepository) List(ctx context.Context) ([]TraceRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT run_id, policy, created_at FROM traces ORDER BY created_at DESC, run_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list traces: %w", err)
	}
	defer rows.Close()

	var records []TraceRecord
	for rows.Next() {
		var rec TraceRecord
		var created string
		if err := rows.Scan(&rec.RunID, &rec.Policy, &created); err != nil {
			return nil, fmt.Errorf("failed to scan trace row: %w", err)
		}
		rec.CreatedAt, err = time.Parse(time.RFC3339, created)
		if err != nil {
			return nil, fmt.Errorf("failed to parse trace timestamp: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close closes the underlying database connection.
func (r *SQLiteTraceRepository) Close() error {
	return r.db.Close()
}
