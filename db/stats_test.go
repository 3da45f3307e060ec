// ABOUTME: Tests for export run statistics
// ABOUTME: Checks status counts, delivered row totals, and the last delivered run
package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetRunStats_Empty(t *testing.T) {
	db := setupTestDB(t)

	stats, err := GetRunStats(db, time.Now())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalRuns)
	assert.Zero(t, stats.TotalRows)
	assert.Nil(t, stats.LastDelivered)
}

func TestGetRunStats(t *testing.T) {
	db := setupTestDB(t)

	finish := func(status string, rows int) *Run {
		run, err := StartRun(db, "cli")
		require.NoError(t, err)
		run.Status = status
		run.Rows = rows
		require.NoError(t, FinishRun(db, run))
		return run
	}

	finish(StatusExported, 10)
	last := finish(StatusFallback, 4)
	finish(StatusDryRun, 50)
	finish(StatusDeclined, 0)

	stats, err := GetRunStats(db, time.Now())
	require.NoError(t, err)

	assert.Equal(t, 4, stats.TotalRuns)
	assert.Equal(t, 1, stats.ByStatus[StatusExported])
	assert.Equal(t, 1, stats.ByStatus[StatusFallback])
	assert.Equal(t, 14, stats.TotalRows, "dry runs are not delivered")
	assert.Equal(t, 4, stats.RecentRuns)
	require.NotNil(t, stats.LastDelivered)
	assert.Equal(t, last.ID, stats.LastDelivered.ID)

	stats, err = GetRunStats(db, time.Now().Add(30*24*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, stats.RecentRuns)
}
