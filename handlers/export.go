// ABOUTME: Export MCP tool handlers
// ABOUTME: Implements collect_broadcasts and export_history tools
package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/heyreport/collector"
	"github.com/harperreed/heyreport/db"
	"github.com/harperreed/heyreport/runner"
	"github.com/harperreed/heyreport/tui"
)

type ExportHandlers struct {
	runner *runner.Runner
	db     *sql.DB
	// one collection at a time
	mu sync.Mutex
}

func NewExportHandlers(r *runner.Runner, database *sql.DB) *ExportHandlers {
	return &ExportHandlers{runner: r, db: database}
}

type CollectInput struct {
	Force  bool `json:"force,omitempty" jsonschema:"Export again even if today's data has already been exported"`
	DryRun bool `json:"dry_run,omitempty" jsonschema:"Collect and write only the local CSV, skipping Google Sheets"`
}

type CollectOutput struct {
	RunID        string `json:"run_id,omitempty"`
	Status       string `json:"status"`
	Message      string `json:"message,omitempty"`
	Broadcasts   int    `json:"broadcasts"`
	Skipped      int    `json:"skipped"`
	Failed       int    `json:"failed"`
	Rows         int    `json:"rows"`
	SheetName    string `json:"sheet_name,omitempty"`
	FallbackPath string `json:"fallback_path,omitempty"`
	Error        string `json:"error,omitempty"`
}

func (h *ExportHandlers) CollectBroadcasts(ctx context.Context, request *mcp.CallToolRequest, input CollectInput) (*mcp.CallToolResult, CollectOutput, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	out, err := h.runner.Execute(ctx, runner.Options{
		Confirmer: tui.Auto(input.Force),
		DryRun:    input.DryRun,
		Source:    "mcp",
	})
	if out == nil {
		return nil, CollectOutput{}, fmt.Errorf("collection failed: %w", err)
	}

	result := CollectOutput{
		RunID:        out.RunID,
		Status:       out.Status,
		Broadcasts:   out.Stats.Broadcasts,
		Skipped:      out.Stats.Skipped,
		Failed:       out.Stats.Failed,
		Rows:         out.Stats.Rows,
		SheetName:    out.Export.SheetName,
		FallbackPath: out.Export.FallbackPath,
	}

	switch {
	case errors.Is(err, collector.ErrExportDeclined):
		result.Message = "Today's data has already been exported. Call again with force=true to export a new sheet."
	case err != nil:
		return nil, result, fmt.Errorf("collection failed: %w", err)
	case out.Export.Err != nil:
		result.Error = out.Export.Err.Error()
		result.Message = "Google Sheets export failed; data was written to the fallback CSV."
	case out.Status == db.StatusEmpty:
		result.Message = "No broadcast data found."
	}

	return nil, result, nil
}

type HistoryInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Maximum number of runs to return (default 10)"`
}

type RunOutput struct {
	ID           string  `json:"id"`
	Source       string  `json:"source"`
	Status       string  `json:"status"`
	StartedAt    string  `json:"started_at"`
	FinishedAt   *string `json:"finished_at,omitempty"`
	Broadcasts   int     `json:"broadcasts"`
	Skipped      int     `json:"skipped"`
	Failed       int     `json:"failed"`
	Rows         int     `json:"rows"`
	SheetName    string  `json:"sheet_name,omitempty"`
	FallbackPath string  `json:"fallback_path,omitempty"`
	Error        string  `json:"error,omitempty"`
}

type HistoryOutput struct {
	Runs []RunOutput `json:"runs"`
}

func (h *ExportHandlers) ExportHistory(_ context.Context, request *mcp.CallToolRequest, input HistoryInput) (*mcp.CallToolResult, HistoryOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}

	runs, err := db.ListRuns(h.db, limit)
	if err != nil {
		return nil, HistoryOutput{}, fmt.Errorf("failed to list runs: %w", err)
	}

	result := make([]RunOutput, len(runs))
	for i, run := range runs {
		result[i] = runToOutput(run)
	}
	return nil, HistoryOutput{Runs: result}, nil
}

func runToOutput(run db.Run) RunOutput {
	out := RunOutput{
		ID:           run.ID,
		Source:       run.Source,
		Status:       run.Status,
		StartedAt:    run.StartedAt.Format(time.RFC3339),
		Broadcasts:   run.Broadcasts,
		Skipped:      run.Skipped,
		Failed:       run.Failed,
		Rows:         run.Rows,
		SheetName:    run.SheetName,
		FallbackPath: run.FallbackPath,
		Error:        run.ErrorMessage,
	}
	if run.FinishedAt != nil {
		finished := run.FinishedAt.Format(time.RFC3339)
		out.FinishedAt = &finished
	}
	return out
}
