// ABOUTME: Campaign collection pipeline: discovery, per-broadcast reports, contact enrichment
// ABOUTME: Fans out one task per broadcast and one per contact, then gathers every row
package collector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/harperreed/heyreport/heymarket"
)

// ErrExportDeclined is returned when today's data already exists and the
// user chose not to export again.
var ErrExportDeclined = errors.New("export cancelled: today's data has already been exported")

// API is the subset of the Heymarket client the collector drives.
type API interface {
	FetchLists(ctx context.Context) (*heymarket.ListsResponse, error)
	FetchReport(ctx context.Context, listID, broadcastID heymarket.ID) (*heymarket.Report, error)
}

// Guard reports whether today's export already exists.
type Guard interface {
	AlreadyExportedToday(ctx context.Context) bool
	Today() string
}

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

// Options configures a Collector.
type Options struct {
	Guard         Guard
	Confirmer     Confirmer
	Observer      Observer
	Conversations ConversationFetcher
	// Brands maps inbox id to brand label.
	Brands      map[string]string
	MaxMessages int
	Location    *time.Location
	// MaxConcurrency caps in-flight tasks per fan-out level; 0 means no cap.
	MaxConcurrency int
	// StableOrder sorts rows by discovery then contact order instead of
	// leaving them in completion order.
	StableOrder bool
	Logger      *log.Logger
}

// BroadcastResult is the outcome of processing one broadcast.
type BroadcastResult struct {
	Skipped bool
	Rows    int
	Err     error
}

type indexedRow struct {
	index int
	row   Row
}

// Collector runs the collection pipeline.
type Collector struct {
	api      API
	opts     Options
	enricher *Enricher
	observer Observer
	logger   *log.Logger
}

// New creates a Collector over api.
func New(api API, opts Options) *Collector {
	c := &Collector{
		api:  api,
		opts: opts,
		enricher: &Enricher{
			Conversations: opts.Conversations,
			MaxMessages:   opts.MaxMessages,
			Location:      opts.Location,
		},
		observer: opts.Observer,
		logger:   opts.Logger,
	}
	if c.observer == nil {
		c.observer = nopObserver{}
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard)
	}
	return c
}

// Enricher exposes the row builder, mainly so callers can learn the row width.
func (c *Collector) Enricher() *Enricher {
	return c.enricher
}

// Collect runs a full collection with fresh run state and returns every row.
func (c *Collector) Collect(ctx context.Context) ([]Row, Stats, error) {
	rc := NewRunContext()
	if err := c.Run(ctx, rc); err != nil {
		return nil, rc.Stats(), err
	}
	if c.opts.StableOrder {
		return rc.SortedRows(), rc.Stats(), nil
	}
	return rc.Rows(), rc.Stats(), nil
}

// Run executes the pipeline against rc: guard, discovery, then one task per
// broadcast. It returns once every broadcast task has finished. Only a
// declined re-export or a failed discovery call is an error.
func (c *Collector) Run(ctx context.Context, rc *RunContext) error {
	if err := c.checkGuard(ctx); err != nil {
		return err
	}

	c.logger.Info("fetching lists")
	resp, err := c.api.FetchLists(ctx)
	if err != nil {
		return fmt.Errorf("discovery failed: %w", err)
	}

	rc.SetLists(resp.Lists)
	rc.setBroadcasts(len(resp.Broadcasts))
	c.logger.Info("found lists", "lists", len(resp.Lists), "broadcasts", len(resp.Broadcasts))
	c.observer.Discovered(len(resp.Lists), len(resp.Broadcasts))

	var g errgroup.Group
	if c.opts.MaxConcurrency > 0 {
		g.SetLimit(c.opts.MaxConcurrency)
	}
	for i, b := range resp.Broadcasts {
		g.Go(func() error {
			c.ProcessBroadcast(ctx, rc, i, b)
			return nil
		})
	}
	_ = g.Wait()

	stats := rc.Stats()
	c.logger.Info("all broadcasts processed",
		"processed", stats.Processed, "skipped", stats.Skipped, "failed", stats.Failed, "rows", stats.Rows)
	return nil
}

func (c *Collector) checkGuard(ctx context.Context) error {
	if c.opts.Guard == nil || !c.opts.Guard.AlreadyExportedToday(ctx) {
		return nil
	}

	today := c.opts.Guard.Today()
	if c.opts.Confirmer == nil {
		c.logger.Warn("export already exists for today and no confirmer is configured", "date", today)
		return ErrExportDeclined
	}

	prompt := fmt.Sprintf("Data for %s has already been exported to Google Sheets today.\n\n"+
		"Do you want to export again anyway? This will create a new sheet.", today)
	ok, err := c.opts.Confirmer.Confirm(prompt)
	if err != nil {
		return fmt.Errorf("failed to read confirmation: %w", err)
	}
	if !ok {
		c.logger.Info("export cancelled by user - data already exists for today", "date", today)
		return ErrExportDeclined
	}
	return nil
}

// Brand returns the label for an inbox, or UnknownBrand.
func (c *Collector) Brand(inboxID heymarket.ID) string {
	if brand, ok := c.opts.Brands[inboxID.String()]; ok && brand != "" {
		return brand
	}
	return UnknownBrand
}

// ProcessBroadcast fetches one broadcast's report and adds a row per contact
// to rc. A broadcast id already claimed in rc is a no-op. Report failures are
// logged and contribute zero rows.
func (c *Collector) ProcessBroadcast(ctx context.Context, rc *RunContext, index int, b heymarket.Broadcast) BroadcastResult {
	// Claimed before the report call so an in-flight duplicate is suppressed.
	if !rc.MarkProcessed(b.ID) {
		c.logger.Debug("skipping broadcast, already processed", "broadcast_id", b.ID)
		c.observer.BroadcastFinished(Progress{BroadcastID: b.ID, Skipped: true, Done: rc.Stats().Processed, Total: rc.Stats().Broadcasts})
		return BroadcastResult{Skipped: true}
	}

	brand := c.Brand(b.InboxID)
	c.logger.Debug("fetching report", "broadcast_id", b.ID, "list_id", b.ListID, "brand", brand)

	report, err := c.api.FetchReport(ctx, b.ListID, b.ID)
	if err != nil {
		c.logger.Error("error fetching report", "broadcast_id", b.ID, "err", err)
		rc.recordFailure()
		stats := rc.Stats()
		c.observer.BroadcastFinished(Progress{BroadcastID: b.ID, Brand: brand, Err: err, Done: stats.Processed, Total: stats.Broadcasts})
		return BroadcastResult{Err: err}
	}

	list := rc.List(b.ListID)
	rows := make([]indexedRow, len(report.Contacts))

	var g errgroup.Group
	if c.opts.MaxConcurrency > 0 {
		g.SetLimit(c.opts.MaxConcurrency)
	}
	for i, contact := range report.Contacts {
		g.Go(func() error {
			rows[i] = indexedRow{index: i, row: c.enricher.Enrich(ctx, contact, brand, list, b.Date)}
			return nil
		})
	}
	_ = g.Wait()

	done := rc.appendRows(index, rows)
	total := rc.Stats().Broadcasts
	c.logger.Info(fmt.Sprintf("processed %d of %d reports", done, total), "broadcast_id", b.ID, "rows", len(rows))
	c.observer.BroadcastFinished(Progress{BroadcastID: b.ID, Brand: brand, Rows: len(rows), Done: done, Total: total})

	return BroadcastResult{Rows: len(rows)}
}
