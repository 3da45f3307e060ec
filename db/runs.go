// ABOUTME: Database operations for the export_runs table
// ABOUTME: Records when each collection started, how it ended, and where the data went
package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// Run statuses.
const (
	StatusRunning  = "running"
	StatusExported = "exported"
	StatusFallback = "fallback"
	StatusDeclined = "declined"
	StatusFailed   = "failed"
	StatusEmpty    = "empty"
	StatusDryRun   = "dry-run"
)

// Run is one collect invocation.
type Run struct {
	ID           string
	Source       string
	Status       string
	StartedAt    time.Time
	FinishedAt   *time.Time
	Broadcasts   int
	Skipped      int
	Failed       int
	Rows         int
	SheetName    string
	FallbackPath string
	ErrorMessage string
}

// NewRunID returns a time-sortable run identifier.
func NewRunID() string {
	return ulid.Make().String()
}

// StartRun inserts a running entry and returns it.
func StartRun(db *sql.DB, source string) (*Run, error) {
	run := &Run{
		ID:        NewRunID(),
		Source:    source,
		Status:    StatusRunning,
		StartedAt: time.Now().UTC(),
	}

	_, err := db.Exec(`
		INSERT INTO export_runs (id, source, status, started_at)
		VALUES (?, ?, ?, ?)
	`, run.ID, run.Source, run.Status, run.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to start run: %w", err)
	}
	return run, nil
}

// FinishRun stores the final state of run and stamps its finish time.
func FinishRun(db *sql.DB, run *Run) error {
	now := time.Now().UTC()
	run.FinishedAt = &now

	res, err := db.Exec(`
		UPDATE export_runs SET
			status = ?,
			finished_at = ?,
			broadcasts = ?,
			skipped = ?,
			failed = ?,
			row_count = ?,
			sheet_name = ?,
			fallback_path = ?,
			error_message = ?
		WHERE id = ?
	`, run.Status, now, run.Broadcasts, run.Skipped, run.Failed, run.Rows,
		nullString(run.SheetName), nullString(run.FallbackPath), nullString(run.ErrorMessage), run.ID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", run.ID)
	}
	return nil
}

// GetRun returns the run with id, or nil if there is none.
func GetRun(db *sql.DB, id string) (*Run, error) {
	row := db.QueryRow(selectRuns+` WHERE id = ?`, id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns up to limit runs, newest first.
func ListRuns(db *sql.DB, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := db.Query(selectRuns+` ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

const selectRuns = `
	SELECT id, source, status, started_at, finished_at, broadcasts, skipped, failed, row_count,
		sheet_name, fallback_path, error_message
	FROM export_runs`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var (
		run          Run
		finishedAt   sql.NullTime
		sheetName    sql.NullString
		fallbackPath sql.NullString
		errorMessage sql.NullString
	)

	err := s.Scan(
		&run.ID,
		&run.Source,
		&run.Status,
		&run.StartedAt,
		&finishedAt,
		&run.Broadcasts,
		&run.Skipped,
		&run.Failed,
		&run.Rows,
		&sheetName,
		&fallbackPath,
		&errorMessage,
	)
	if err != nil {
		return nil, err
	}

	if finishedAt.Valid {
		run.FinishedAt = &finishedAt.Time
	}
	run.SheetName = sheetName.String
	run.FallbackPath = fallbackPath.String
	run.ErrorMessage = errorMessage.String
	return &run, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
