// Package archive keeps generated daily summaries in a SQLite database so
// trends can be listed across days.
package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/c4r-dev/actilog/pkg/analyzer"
	"github.com/c4r-dev/actilog/pkg/output"
)

// ErrNotFound is returned when no summary is archived for a date.
var ErrNotFound = errors.New("summary not archived")

const schema = `
CREATE TABLE IF NOT EXISTS summaries (
	date            TEXT PRIMARY KEY,
	generated_at    TEXT NOT NULL,
	total_requests  INTEGER NOT NULL,
	total_errors    INTEGER NOT NULL,
	total_sessions  INTEGER NOT NULL,
	recommendations INTEGER NOT NULL,
	avg_response_ms REAL NOT NULL,
	summary_json    TEXT NOT NULL
)`

// Entry is the archived headline for one day.
type Entry struct {
	Date            string
	GeneratedAt     string
	TotalRequests   int
	TotalErrors     int
	TotalSessions   int
	Recommendations int
	AvgResponseMS   float64
}

// Store is a SQLite-backed summary archive.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the archive at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating archive directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	// One writer; sqlite serializes anyway and this avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive ping failed: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating archive schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts or replaces the summary for its date.
func (s *Store) Save(ctx context.Context, summary *analyzer.DailySummary) error {
	payload, err := output.MarshalSummary(summary)
	if err != nil {
		return fmt.Errorf("encoding summary: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO summaries (date, generated_at, total_requests, total_errors, total_sessions,
	recommendations, avg_response_ms, summary_json)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(date) DO UPDATE SET
	generated_at = excluded.generated_at,
	total_requests = excluded.total_requests,
	total_errors = excluded.total_errors,
	total_sessions = excluded.total_sessions,
	recommendations = excluded.recommendations,
	avg_response_ms = excluded.avg_response_ms,
	summary_json = excluded.summary_json`,
		summary.Date,
		summary.GeneratedAt,
		summary.Overview.TotalRequests,
		summary.Overview.TotalErrors,
		summary.Browser.TotalSessions,
		len(summary.Recommendations),
		summary.Performance.AverageResponseTime,
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("archiving summary for %s: %w", summary.Date, err)
	}
	return nil
}

// List returns archived days, newest first. A non-positive limit returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT date, generated_at, total_requests, total_errors, total_sessions,
	recommendations, avg_response_ms FROM summaries ORDER BY date DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Date, &e.GeneratedAt, &e.TotalRequests, &e.TotalErrors,
			&e.TotalSessions, &e.Recommendations, &e.AvgResponseMS); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return entries, nil
}

// Get returns the archived summary JSON for date.
func (s *Store) Get(ctx context.Context, date string) ([]byte, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, "SELECT summary_json FROM summaries WHERE date = ?", date).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, date)
	}
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	return []byte(payload), nil
}
