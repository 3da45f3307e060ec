// ABOUTME: Per-run state for one collection: dedup set, list index, and row accumulator
// ABOUTME: Created fresh for every run so nothing leaks between runs
package collector

import (
	"sort"
	"sync"

	"github.com/harperreed/heyreport/heymarket"
)

// Stats summarizes a run.
type Stats struct {
	Broadcasts int
	Processed  int
	Skipped    int
	Failed     int
	Rows       int
}

type rowEntry struct {
	broadcast int
	contact   int
	row       Row
}

// RunContext owns the mutable state of a single run. Safe for concurrent use.
type RunContext struct {
	mu        sync.Mutex
	processed map[heymarket.ID]struct{}
	lists     map[heymarket.ID]heymarket.List
	entries   []rowEntry
	stats     Stats
}

// NewRunContext returns empty run state.
func NewRunContext() *RunContext {
	return &RunContext{
		processed: make(map[heymarket.ID]struct{}),
		lists:     make(map[heymarket.ID]heymarket.List),
	}
}

// MarkProcessed records id and reports whether it was new. Check and mark
// happen under one lock, so concurrent duplicates see exactly one true.
func (rc *RunContext) MarkProcessed(id heymarket.ID) bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if _, seen := rc.processed[id]; seen {
		rc.stats.Skipped++
		return false
	}
	rc.processed[id] = struct{}{}
	return true
}

// Processed reports whether id has been claimed in this run.
func (rc *RunContext) Processed(id heymarket.ID) bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	_, ok := rc.processed[id]
	return ok
}

// SetLists stores the discovery lists as the enrichment reference.
func (rc *RunContext) SetLists(lists []heymarket.List) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	for _, l := range lists {
		rc.lists[l.ID] = l
	}
}

// List returns the list with id, or an empty list if it is unknown.
func (rc *RunContext) List(id heymarket.ID) heymarket.List {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.lists[id]
}

func (rc *RunContext) setBroadcasts(n int) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.stats.Broadcasts = n
}

// appendRows adds one broadcast's rows and returns how many broadcasts
// have completed so far.
func (rc *RunContext) appendRows(broadcast int, rows []indexedRow) int {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	for _, r := range rows {
		rc.entries = append(rc.entries, rowEntry{broadcast: broadcast, contact: r.index, row: r.row})
	}
	rc.stats.Processed++
	rc.stats.Rows += len(rows)
	return rc.stats.Processed
}

func (rc *RunContext) recordFailure() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.stats.Failed++
}

// Rows returns the accumulated rows in the order they were appended.
func (rc *RunContext) Rows() []Row {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rows := make([]Row, len(rc.entries))
	for i, e := range rc.entries {
		rows[i] = e.row
	}
	return rows
}

// SortedRows returns rows ordered by broadcast discovery order, then by the
// contact's position in its report.
func (rc *RunContext) SortedRows() []Row {
	rc.mu.Lock()
	entries := make([]rowEntry, len(rc.entries))
	copy(entries, rc.entries)
	rc.mu.Unlock()

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].broadcast != entries[j].broadcast {
			return entries[i].broadcast < entries[j].broadcast
		}
		return entries[i].contact < entries[j].contact
	})

	rows := make([]Row, len(entries))
	for i, e := range entries {
		rows[i] = e.row
	}
	return rows
}

// Stats returns a snapshot of the run counters.
func (rc *RunContext) Stats() Stats {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.stats
}
