// ABOUTME: Aggregate statistics over recorded export runs
// ABOUTME: Feeds the web dashboard
package db

import (
	"database/sql"
	"fmt"
	"time"
)

type RunStats struct {
	TotalRuns int
	ByStatus  map[string]int
	TotalRows int

	// Most recent run that reached a spreadsheet or a fallback file.
	LastDelivered *Run

	// Runs started in the last 7 days
	RecentRuns int
}

func GetRunStats(db *sql.DB, now time.Time) (*RunStats, error) {
	stats := &RunStats{ByStatus: make(map[string]int)}

	rows, err := db.Query(`SELECT status, COUNT(*), COALESCE(SUM(row_count), 0) FROM export_runs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var status string
		var count, rowCount int
		if err := rows.Scan(&status, &count, &rowCount); err != nil {
			return nil, fmt.Errorf("failed to scan run counts: %w", err)
		}
		stats.ByStatus[status] = count
		stats.TotalRuns += count
		if status == StatusExported || status == StatusFallback {
			stats.TotalRows += rowCount
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run counts: %w", err)
	}

	since := now.UTC().Add(-7 * 24 * time.Hour)
	if err := db.QueryRow(`SELECT COUNT(*) FROM export_runs WHERE started_at >= ?`, since).Scan(&stats.RecentRuns); err != nil {
		return nil, fmt.Errorf("failed to count recent runs: %w", err)
	}

	row := db.QueryRow(selectRuns+` WHERE status IN (?, ?) ORDER BY started_at DESC, id DESC LIMIT 1`,
		StatusExported, StatusFallback)
	last, err := scanRun(row)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return nil, fmt.Errorf("failed to get last delivered run: %w", err)
	default:
		stats.LastDelivered = last
	}

	return stats, nil
}
