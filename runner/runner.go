// ABOUTME: One end-to-end export run: guard, collect, export, then bookkeeping
// ABOUTME: Shared by the collect command and the MCP tool so both record history the same way
package runner

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harperreed/heyreport/collector"
	"github.com/harperreed/heyreport/db"
	"github.com/harperreed/heyreport/export"
	"github.com/harperreed/heyreport/metrics"
)

// Runner holds everything that stays fixed across runs.
type Runner struct {
	API      collector.API
	Collect  collector.Options
	Exporter *export.Exporter
	// DB, Metrics and MetricsFile are optional.
	DB          *sql.DB
	Metrics     *metrics.Recorder
	MetricsFile string
	Logger      *log.Logger
}

// Options vary per run.
type Options struct {
	Confirmer collector.Confirmer
	Observer  collector.Observer
	// DryRun collects and writes only the local CSV.
	DryRun bool
	// Source labels the run in history ("cli", "mcp").
	Source string
}

// Outcome summarizes a finished run.
type Outcome struct {
	RunID    string
	Status   string
	Stats    collector.Stats
	Export   export.Result
	Duration time.Duration
}

// Execute performs one run. The returned error is the collection error, if
// any; export failures are reported through Outcome.Export.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Outcome, error) {
	logger := r.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if opts.Source == "" {
		opts.Source = "cli"
	}

	start := time.Now()
	out := &Outcome{}

	var run *db.Run
	if r.DB != nil {
		var err error
		run, err = db.StartRun(r.DB, opts.Source)
		if err != nil {
			logger.Warn("could not record run start", "err", err)
		} else {
			out.RunID = run.ID
		}
	}

	copts := r.Collect
	copts.Confirmer = opts.Confirmer
	observers := collector.Observers{}
	if opts.Observer != nil {
		observers = append(observers, opts.Observer)
	}
	if r.Metrics != nil {
		observers = append(observers, r.Metrics)
	}
	copts.Observer = observers
	copts.Logger = logger

	rows, stats, err := collector.New(r.API, copts).Collect(ctx)
	out.Stats = stats

	switch {
	case errors.Is(err, collector.ErrExportDeclined):
		out.Status = db.StatusDeclined
	case err != nil:
		out.Status = db.StatusFailed
	case len(rows) == 0:
		out.Status = db.StatusEmpty
		out.Export = r.Exporter.Export(ctx, rows)
	case opts.DryRun:
		out.Export = r.Exporter.WriteLocal(rows)
		out.Status = db.StatusDryRun
		if out.Export.FallbackErr != nil {
			out.Status = db.StatusFailed
		}
	default:
		out.Export = r.Exporter.Export(ctx, rows)
		switch {
		case out.Export.Exported():
			out.Status = db.StatusExported
		case out.Export.FallbackErr == nil:
			out.Status = db.StatusFallback
		default:
			out.Status = db.StatusFailed
		}
	}

	out.Duration = time.Since(start)
	r.finish(logger, run, out, err)
	return out, err
}

func (r *Runner) finish(logger *log.Logger, run *db.Run, out *Outcome, runErr error) {
	if run != nil {
		run.Status = out.Status
		run.Broadcasts = out.Stats.Broadcasts
		run.Skipped = out.Stats.Skipped
		run.Failed = out.Stats.Failed
		run.Rows = out.Stats.Rows
		run.SheetName = out.Export.SheetName
		run.FallbackPath = out.Export.FallbackPath
		switch {
		case runErr != nil:
			run.ErrorMessage = runErr.Error()
		case out.Export.Err != nil:
			run.ErrorMessage = out.Export.Err.Error()
		}
		if err := db.FinishRun(r.DB, run); err != nil {
			logger.Warn("could not record run result", "run_id", run.ID, "err", err)
		}
	}

	if r.Metrics != nil {
		r.Metrics.RunFinished(out.Status, out.Duration)
		if r.MetricsFile != "" {
			if err := r.Metrics.WriteTextfile(r.MetricsFile); err != nil {
				logger.Warn("could not write metrics", "path", r.MetricsFile, "err", err)
			}
		}
	}

	logger.Info("run finished", "run_id", out.RunID, "status", out.Status, "rows", out.Stats.Rows, "duration", out.Duration)
}
