// ABOUTME: Tests for end-to-end runs with fake Heymarket and spreadsheet backends
// ABOUTME: Checks the recorded history status for each way a run can end
package runner

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/heyreport/collector"
	"github.com/harperreed/heyreport/db"
	"github.com/harperreed/heyreport/export"
	"github.com/harperreed/heyreport/heymarket"
	"github.com/harperreed/heyreport/metrics"
)

type fakeAPI struct {
	lists    *heymarket.ListsResponse
	listsErr error
}

func (f *fakeAPI) FetchLists(ctx context.Context) (*heymarket.ListsResponse, error) {
	return f.lists, f.listsErr
}

func (f *fakeAPI) FetchReport(ctx context.Context, listID, broadcastID heymarket.ID) (*heymarket.Report, error) {
	return &heymarket.Report{Contacts: []heymarket.ReportContact{
		{Target: "5125550100", Status: "success", ResponseTime: heymarket.NoResponseTime},
	}}, nil
}

type fakeBackend struct {
	err    error
	names  []string
	values [][]string
}

func (b *fakeBackend) SheetNames(ctx context.Context) ([]string, error) { return b.names, nil }

func (b *fakeBackend) Append(ctx context.Context, values [][]string) (string, error) {
	b.values = values
	if b.err != nil {
		return "", b.err
	}
	return "2026-10-14 09:00:00", nil
}

type stubGuard struct{ exported bool }

func (g stubGuard) AlreadyExportedToday(context.Context) bool { return g.exported }
func (g stubGuard) Today() string                             { return "2026-10-14" }

func oneBroadcast() *fakeAPI {
	return &fakeAPI{lists: &heymarket.ListsResponse{
		Lists:      []heymarket.List{{ID: "10"}},
		Broadcasts: []heymarket.Broadcast{{ID: "1", ListID: "10", InboxID: "80071"}},
	}}
}

func newRunner(t *testing.T, api collector.API, backend *fakeBackend, guard collector.Guard) *Runner {
	t.Helper()
	database, err := db.OpenDatabase(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	return &Runner{
		API:     api,
		Collect: collector.Options{Guard: guard, MaxMessages: 2, Brands: map[string]string{"80071": "BOOKING"}},
		Exporter: export.New(export.Options{
			Backend:     backend,
			MaxMessages: 2,
			FallbackDir: t.TempDir(),
			Out:         &bytes.Buffer{},
		}),
		DB:          database,
		Metrics:     metrics.NewRecorder(),
		MetricsFile: filepath.Join(t.TempDir(), "heyreport.prom"),
	}
}

func lastRun(t *testing.T, r *Runner, id string) *db.Run {
	t.Helper()
	run, err := db.GetRun(r.DB, id)
	require.NoError(t, err)
	require.NotNil(t, run)
	return run
}

func TestExecute_Exported(t *testing.T) {
	backend := &fakeBackend{}
	r := newRunner(t, oneBroadcast(), backend, stubGuard{})

	out, err := r.Execute(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, db.StatusExported, out.Status)
	assert.Equal(t, 1, out.Stats.Rows)
	require.Len(t, backend.values, 2)
	assert.Equal(t, "BOOKING", backend.values[1][0])

	run := lastRun(t, r, out.RunID)
	assert.Equal(t, db.StatusExported, run.Status)
	assert.Equal(t, "2026-10-14 09:00:00", run.SheetName)
	assert.Equal(t, 1, run.Rows)
	assert.FileExists(t, r.MetricsFile)
}

func TestExecute_FallbackOnBackendFailure(t *testing.T) {
	r := newRunner(t, oneBroadcast(), &fakeBackend{err: errors.New("502")}, stubGuard{})

	out, err := r.Execute(context.Background(), Options{Source: "mcp"})
	require.NoError(t, err)

	assert.Equal(t, db.StatusFallback, out.Status)
	assert.FileExists(t, out.Export.FallbackPath)

	run := lastRun(t, r, out.RunID)
	assert.Equal(t, "mcp", run.Source)
	assert.Equal(t, "502", run.ErrorMessage)
	assert.Equal(t, out.Export.FallbackPath, run.FallbackPath)
}

func TestExecute_Declined(t *testing.T) {
	backend := &fakeBackend{}
	r := newRunner(t, oneBroadcast(), backend, stubGuard{exported: true})

	out, err := r.Execute(context.Background(), Options{})

	require.ErrorIs(t, err, collector.ErrExportDeclined)
	assert.Equal(t, db.StatusDeclined, out.Status)
	assert.Nil(t, backend.values)
	assert.Equal(t, db.StatusDeclined, lastRun(t, r, out.RunID).Status)
}

func TestExecute_DiscoveryFailure(t *testing.T) {
	r := newRunner(t, &fakeAPI{listsErr: errors.New("dns")}, &fakeBackend{}, nil)

	out, err := r.Execute(context.Background(), Options{})

	require.Error(t, err)
	assert.Equal(t, db.StatusFailed, out.Status)
	assert.Contains(t, lastRun(t, r, out.RunID).ErrorMessage, "discovery failed")
}

func TestExecute_Empty(t *testing.T) {
	api := &fakeAPI{lists: &heymarket.ListsResponse{}}
	backend := &fakeBackend{}
	r := newRunner(t, api, backend, nil)

	out, err := r.Execute(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, db.StatusEmpty, out.Status)
	assert.Nil(t, backend.values)
}

func TestExecute_DryRun(t *testing.T) {
	backend := &fakeBackend{}
	r := newRunner(t, oneBroadcast(), backend, nil)

	out, err := r.Execute(context.Background(), Options{DryRun: true})
	require.NoError(t, err)

	assert.Equal(t, db.StatusDryRun, out.Status)
	assert.Nil(t, backend.values)
	assert.FileExists(t, out.Export.FallbackPath)
}

func TestExecute_WithoutDB(t *testing.T) {
	r := newRunner(t, oneBroadcast(), &fakeBackend{}, nil)
	r.DB = nil
	r.Metrics = nil

	out, err := r.Execute(context.Background(), Options{})
	require.NoError(t, err)
	assert.Empty(t, out.RunID)
	assert.Equal(t, db.StatusExported, out.Status)
}
