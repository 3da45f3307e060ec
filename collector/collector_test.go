// ABOUTME: Tests for the collection pipeline with a fake Heymarket API
// ABOUTME: Covers dedup, partial failure, guard confirmation, and the two-broadcast scenario
package collector

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/heyreport/heymarket"
)

const (
	timeout = 2 * time.Second
	tick    = 10 * time.Millisecond
)

type fakeAPI struct {
	lists      *heymarket.ListsResponse
	listsErr   error
	reports    map[heymarket.ID]*heymarket.Report
	reportErrs map[heymarket.ID]error

	mu          sync.Mutex
	reportCalls map[heymarket.ID]int
	// gate, when set, blocks report calls until closed.
	gate chan struct{}
}

func (f *fakeAPI) FetchLists(ctx context.Context) (*heymarket.ListsResponse, error) {
	if f.listsErr != nil {
		return nil, f.listsErr
	}
	return f.lists, nil
}

func (f *fakeAPI) FetchReport(ctx context.Context, listID, broadcastID heymarket.ID) (*heymarket.Report, error) {
	f.mu.Lock()
	if f.reportCalls == nil {
		f.reportCalls = make(map[heymarket.ID]int)
	}
	f.reportCalls[broadcastID]++
	f.mu.Unlock()

	if f.gate != nil {
		<-f.gate
	}
	if err := f.reportErrs[broadcastID]; err != nil {
		return nil, err
	}
	if r, ok := f.reports[broadcastID]; ok {
		return r, nil
	}
	return &heymarket.Report{}, nil
}

func (f *fakeAPI) calls(id heymarket.ID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reportCalls[id]
}

type stubGuard struct {
	exported bool
	checks   int
}

func (g *stubGuard) AlreadyExportedToday(ctx context.Context) bool {
	g.checks++
	return g.exported
}

func (g *stubGuard) Today() string { return "2026-10-14" }

type stubConfirmer struct {
	answer bool
	err    error
	asked  []string
}

func (c *stubConfirmer) Confirm(prompt string) (bool, error) {
	c.asked = append(c.asked, prompt)
	return c.answer, c.err
}

type recordingObserver struct {
	mu       sync.Mutex
	total    int
	finished []Progress
}

func (o *recordingObserver) Discovered(lists, broadcasts int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.total = broadcasts
}

func (o *recordingObserver) BroadcastFinished(p Progress) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.finished = append(o.finished, p)
}

func scenarioAPI() *fakeAPI {
	return &fakeAPI{
		lists: &heymarket.ListsResponse{
			Lists: []heymarket.List{
				{ID: "10", Targets: map[heymarket.ID]heymarket.Target{
					"5125550100": {FirstName: "Ada", LastName: "Lovelace"},
				}},
				{ID: "20", Targets: map[heymarket.ID]heymarket.Target{
					"5125550200": {FirstName: "Grace", LastName: "Hopper"},
				}},
			},
			Broadcasts: []heymarket.Broadcast{
				{ID: "1", ListID: "10", InboxID: "80071", Date: "2026-10-14T14:00:00Z"},
				{ID: "2", ListID: "20", InboxID: "80158", Date: "2026-10-14T14:30:00Z"},
			},
		},
		reports: map[heymarket.ID]*heymarket.Report{
			"1": {Contacts: []heymarket.ReportContact{
				{Target: "5125550100", Status: "failed", ResponseTime: heymarket.NoResponseTime},
			}},
			"2": {Contacts: []heymarket.ReportContact{
				{Target: "5125550200", Status: "success", ResponseTime: "2026-10-14T15:00:00Z", ConversationID: "900"},
			}},
		},
	}
}

func defaultBrands() map[string]string {
	return map[string]string{"80071": "BOOKING", "80158": "SCHEDULE", "80157": "RESERVE", "80159": "SESSIONS"}
}

func TestCollect_TwoBroadcastScenario(t *testing.T) {
	api := scenarioAPI()
	conv := &stubConversations{lines: map[heymarket.ID][]string{
		"900": {"You ->: Hi", "-> You: Thanks"},
	}}
	c := New(api, Options{
		Conversations: conv,
		Brands:        defaultBrands(),
		MaxMessages:   5,
		StableOrder:   true,
	})

	rows, stats, err := c.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	failedRow, successRow := rows[0], rows[1]

	assert.Equal(t, "BOOKING", failedRow[0])
	assert.Equal(t, "X", failedRow[5])
	assert.Equal(t, "", failedRow[6])
	for _, cell := range failedRow[FixedColumns:] {
		assert.Empty(t, cell)
	}

	assert.Equal(t, "SCHEDULE", successRow[0])
	assert.Equal(t, "Grace", successRow[1])
	assert.Equal(t, "X", successRow[6])
	assert.Equal(t, "You ->: Hi", successRow[FixedColumns])
	assert.Equal(t, "-> You: Thanks", successRow[FixedColumns+1])
	for _, cell := range successRow[FixedColumns+2:] {
		assert.Empty(t, cell)
	}

	assert.Equal(t, Stats{Broadcasts: 2, Processed: 2, Rows: 2}, stats)
}

func TestProcessBroadcast_DedupSameRun(t *testing.T) {
	api := scenarioAPI()
	c := New(api, Options{Brands: defaultBrands(), MaxMessages: 2})
	rc := NewRunContext()
	b := api.lists.Broadcasts[0]

	first := c.ProcessBroadcast(context.Background(), rc, 0, b)
	second := c.ProcessBroadcast(context.Background(), rc, 0, b)

	assert.False(t, first.Skipped)
	assert.Equal(t, 1, first.Rows)
	assert.True(t, second.Skipped)
	assert.Equal(t, 1, api.calls(b.ID))
	assert.Len(t, rc.Rows(), 1)
}

func TestProcessBroadcast_DedupWhileInFlight(t *testing.T) {
	api := scenarioAPI()
	api.gate = make(chan struct{})
	c := New(api, Options{MaxMessages: 1})
	rc := NewRunContext()
	b := api.lists.Broadcasts[0]

	const dupes = 8
	var (
		wg      sync.WaitGroup
		skipped atomic.Int32
	)
	for i := 0; i < dupes; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if c.ProcessBroadcast(context.Background(), rc, 0, b).Skipped {
				skipped.Add(1)
			}
		}()
	}

	// Every duplicate but the first must return without waiting on the gate.
	require.Eventually(t, func() bool { return skipped.Load() == dupes-1 }, timeout, tick)
	close(api.gate)
	wg.Wait()

	assert.Equal(t, 1, api.calls(b.ID))
	assert.Len(t, rc.Rows(), 1)
}

func TestCollect_DuplicateBroadcastsInDiscovery(t *testing.T) {
	api := scenarioAPI()
	api.lists.Broadcasts = append(api.lists.Broadcasts, api.lists.Broadcasts[0])
	c := New(api, Options{MaxMessages: 1})

	rows, stats, err := c.Collect(context.Background())
	require.NoError(t, err)

	assert.Len(t, rows, 2)
	assert.Equal(t, 1, api.calls("1"))
	assert.Equal(t, 1, stats.Skipped)
}

func TestCollect_OneReportFailureKeepsOthers(t *testing.T) {
	api := scenarioAPI()
	api.reportErrs = map[heymarket.ID]error{"1": errors.New("boom")}
	obs := &recordingObserver{}
	c := New(api, Options{MaxMessages: 1, Observer: obs})

	rows, stats, err := c.Collect(context.Background())
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, "Grace", rows[0][1])
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 2, obs.total)
	assert.Len(t, obs.finished, 2)
}

func TestCollect_DiscoveryFailure(t *testing.T) {
	api := &fakeAPI{listsErr: errors.New("dns failure")}
	c := New(api, Options{})

	rows, _, err := c.Collect(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "discovery failed")
	assert.Nil(t, rows)
}

func TestCollect_UnknownListAndBrand(t *testing.T) {
	api := &fakeAPI{
		lists: &heymarket.ListsResponse{
			Broadcasts: []heymarket.Broadcast{{ID: "5", ListID: "404", InboxID: "12345"}},
		},
		reports: map[heymarket.ID]*heymarket.Report{
			"5": {Contacts: []heymarket.ReportContact{{Target: "5125550100"}}},
		},
	}
	c := New(api, Options{Brands: defaultBrands(), MaxMessages: 1})

	rows, _, err := c.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, UnknownBrand, rows[0][0])
	assert.Equal(t, "N/A", rows[0][1])
	assert.Equal(t, "N/A", rows[0][2])
}

func TestCollect_GuardDeclinedFetchesNothing(t *testing.T) {
	api := scenarioAPI()
	guard := &stubGuard{exported: true}
	confirm := &stubConfirmer{answer: false}
	c := New(api, Options{Guard: guard, Confirmer: confirm})

	_, _, err := c.Collect(context.Background())

	require.ErrorIs(t, err, ErrExportDeclined)
	require.Len(t, confirm.asked, 1)
	assert.Contains(t, confirm.asked[0], "2026-10-14")
	assert.Zero(t, api.calls("1"))
	assert.Zero(t, api.calls("2"))
}

func TestCollect_GuardConfirmedProceeds(t *testing.T) {
	api := scenarioAPI()
	c := New(api, Options{Guard: &stubGuard{exported: true}, Confirmer: &stubConfirmer{answer: true}, MaxMessages: 1})

	rows, _, err := c.Collect(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestCollect_GuardNotExportedSkipsPrompt(t *testing.T) {
	api := scenarioAPI()
	confirm := &stubConfirmer{}
	guard := &stubGuard{}
	c := New(api, Options{Guard: guard, Confirmer: confirm, MaxMessages: 1})

	rows, _, err := c.Collect(context.Background())
	require.NoError(t, err)

	assert.Len(t, rows, 2)
	assert.Equal(t, 1, guard.checks)
	assert.Empty(t, confirm.asked)
}

func TestCollect_ConcurrencyLimit(t *testing.T) {
	api := scenarioAPI()
	c := New(api, Options{MaxConcurrency: 1, MaxMessages: 1, StableOrder: true})

	rows, _, err := c.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Ada", rows[0][1])
}

func TestRunContext_SortedRows(t *testing.T) {
	rc := NewRunContext()
	rc.appendRows(1, []indexedRow{{index: 1, row: Row{"b1c1"}}, {index: 0, row: Row{"b1c0"}}})
	rc.appendRows(0, []indexedRow{{index: 0, row: Row{"b0c0"}}})

	assert.Equal(t, []Row{{"b1c1"}, {"b1c0"}, {"b0c0"}}, rc.Rows())
	assert.Equal(t, []Row{{"b0c0"}, {"b1c0"}, {"b1c1"}}, rc.SortedRows())
}

func TestRunContext_FreshPerRun(t *testing.T) {
	api := scenarioAPI()
	c := New(api, Options{MaxMessages: 1})

	_, _, err := c.Collect(context.Background())
	require.NoError(t, err)
	rows, _, err := c.Collect(context.Background())
	require.NoError(t, err)

	assert.Len(t, rows, 2, "a second run starts with empty state")
	assert.Equal(t, 2, api.calls("1"))
}
