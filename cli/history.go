// ABOUTME: history command: list recorded export runs
// ABOUTME: Shows one run in detail when given its ID
package cli

import (
	"database/sql"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/harperreed/heyreport/db"
)

// HistoryCommand prints recent runs, or a single run when an ID is given.
func HistoryCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	limit := fs.Int("limit", 20, "Maximum results")
	_ = fs.Parse(args)

	if fs.NArg() > 0 {
		return showRun(os.Stdout, database, fs.Arg(0))
	}

	runs, err := db.ListRuns(database, *limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	return printRuns(os.Stdout, runs)
}

func printRuns(out io.Writer, runs []db.Run) error {
	if len(runs) == 0 {
		_, _ = fmt.Fprintln(out, "No runs recorded")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "STARTED\tSOURCE\tSTATUS\tBROADCASTS\tROWS\tSHEET\tID")
	_, _ = fmt.Fprintln(w, "-------\t------\t------\t----------\t----\t-----\t--")

	for _, run := range runs {
		sheet := run.SheetName
		if sheet == "" {
			sheet = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			run.StartedAt.Local().Format("2006-01-02 15:04"),
			run.Source,
			run.Status,
			run.Broadcasts,
			run.Rows,
			sheet,
			run.ID,
		)
	}
	_ = w.Flush()

	_, _ = fmt.Fprintf(out, "\nTotal: %d run(s)\n", len(runs))
	return nil
}

func showRun(out io.Writer, database *sql.DB, id string) error {
	run, err := db.GetRun(database, id)
	if err != nil {
		return fmt.Errorf("failed to get run: %w", err)
	}
	if run == nil {
		return fmt.Errorf("run not found: %s", id)
	}

	_, _ = fmt.Fprintf(out, "Run:        %s\n", run.ID)
	_, _ = fmt.Fprintf(out, "Source:     %s\n", run.Source)
	_, _ = fmt.Fprintf(out, "Status:     %s\n", run.Status)
	_, _ = fmt.Fprintf(out, "Started:    %s\n", run.StartedAt.Local().Format(time.RFC1123))
	if run.FinishedAt != nil {
		_, _ = fmt.Fprintf(out, "Finished:   %s (%s)\n",
			run.FinishedAt.Local().Format(time.RFC1123),
			run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	}
	_, _ = fmt.Fprintf(out, "Broadcasts: %d (%d skipped, %d failed)\n", run.Broadcasts, run.Skipped, run.Failed)
	_, _ = fmt.Fprintf(out, "Rows:       %d\n", run.Rows)
	if run.SheetName != "" {
		_, _ = fmt.Fprintf(out, "Sheet:      %s\n", run.SheetName)
	}
	if run.FallbackPath != "" {
		_, _ = fmt.Fprintf(out, "Fallback:   %s\n", run.FallbackPath)
	}
	if run.ErrorMessage != "" {
		_, _ = fmt.Fprintf(out, "Error:      %s\n", run.ErrorMessage)
	}
	return nil
}
