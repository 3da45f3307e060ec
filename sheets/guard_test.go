// ABOUTME: Tests for the export guard
// ABOUTME: Covers date-prefix matching and fail-open behaviour on backend errors
package sheets

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeBackend struct {
	names    []string
	namesErr error
	appended [][]string
	sheet    string
}

func (f *fakeBackend) SheetNames(ctx context.Context) ([]string, error) {
	return f.names, f.namesErr
}

func (f *fakeBackend) Append(ctx context.Context, values [][]string) (string, error) {
	f.appended = values
	return f.sheet, nil
}

func fixedGuard(b Backend, at time.Time) *Guard {
	g := NewGuard(b, nil)
	g.now = func() time.Time { return at }
	return g
}

func TestGuard_Today(t *testing.T) {
	// 23:30 in Chicago is already the next day in UTC.
	chicago := time.FixedZone("CDT", -5*60*60)
	g := fixedGuard(&fakeBackend{}, time.Date(2026, 10, 14, 23, 30, 0, 0, chicago))

	assert.Equal(t, "2026-10-15", g.Today())
}

func TestGuard_AlreadyExportedToday(t *testing.T) {
	at := time.Date(2026, 10, 14, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		names []string
		want  bool
	}{
		{"no sheets", nil, false},
		{"other days only", []string{"Sheet1", "2026-10-13 09:00:00"}, false},
		{"today present", []string{"Sheet1", "2026-10-14 09:00:00"}, true},
		{"bare date", []string{"2026-10-14"}, true},
		{"date not at start", []string{"copy of 2026-10-14"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := fixedGuard(&fakeBackend{names: tt.names}, at)
			assert.Equal(t, tt.want, g.AlreadyExportedToday(context.Background()))
		})
	}
}

func TestGuard_FailsOpenOnBackendError(t *testing.T) {
	g := NewGuard(&fakeBackend{namesErr: errors.New("boom")}, nil)
	assert.False(t, g.AlreadyExportedToday(context.Background()))
}

func TestGuard_FailsOpenOnNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	g := NewGuard(NewAppsScriptBackend(url, "s", nil), nil)
	assert.False(t, g.AlreadyExportedToday(context.Background()))
}
