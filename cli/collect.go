// ABOUTME: collect command: pull every broadcast report and export it
// ABOUTME: Shows a live progress view on a terminal and plain lines otherwise
package cli

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/harperreed/heyreport/collector"
	"github.com/harperreed/heyreport/runner"
	"github.com/harperreed/heyreport/tui"
)

// CollectCommand runs one export.
func CollectCommand(env *Env, args []string) error {
	fs := flag.NewFlagSet("collect", flag.ExitOnError)
	yes := fs.Bool("yes", false, "Export again without asking if today's data already exists")
	dryRun := fs.Bool("dry-run", false, "Collect and write only the local CSV")
	plain := fs.Bool("plain", false, "Print progress lines instead of the interactive view")
	_ = fs.Parse(args)

	ctx := context.Background()
	interactive := !*plain && tui.IsTerminal(os.Stdin) && tui.IsTerminal(os.Stdout)

	logger, err := env.NewLogger(interactive)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Close() }()

	database, err := env.OpenDB()
	if err != nil {
		logger.Warn("run history disabled", "err", err)
	} else {
		defer database.Close()
	}

	// The progress view owns stdout while it runs; exporter output is
	// replayed once it exits.
	var out io.Writer = os.Stdout
	var buffered bytes.Buffer
	if interactive {
		out = &buffered
	}

	r, err := env.NewRunner(ctx, logger.Logger, database, out)
	if err != nil {
		return err
	}

	fmt.Println("Starting Heymarket data collection...")

	var outcome *runner.Outcome
	if interactive {
		err = tui.RunProgress(ctx, os.Stdin, os.Stdout, func(ctx context.Context, view *tui.ProgressView) error {
			var confirmer collector.Confirmer = view
			if *yes {
				confirmer = tui.Auto(true)
			}
			var runErr error
			outcome, runErr = r.Execute(ctx, runner.Options{Confirmer: confirmer, Observer: view, DryRun: *dryRun})
			return runErr
		})
		_, _ = io.Copy(os.Stdout, &buffered)
	} else {
		var confirmer collector.Confirmer = tui.Auto(true)
		if !*yes {
			confirmer = tui.NewConfirmer(os.Stdin, os.Stdout)
		}
		outcome, err = r.Execute(ctx, runner.Options{
			Confirmer: confirmer,
			Observer:  &tui.LineObserver{Out: os.Stdout},
			DryRun:    *dryRun,
		})
	}

	if errors.Is(err, collector.ErrExportDeclined) {
		fmt.Println("Export cancelled - data already exists for today.")
		return nil
	}
	if err != nil {
		return err
	}

	printOutcome(outcome)
	return nil
}

func printOutcome(o *runner.Outcome) {
	if o == nil {
		return
	}
	fmt.Printf("\n✓ Collected %d rows from %d broadcasts", o.Stats.Rows, o.Stats.Broadcasts)
	if o.Stats.Skipped > 0 || o.Stats.Failed > 0 {
		fmt.Printf(" (%d skipped, %d failed)", o.Stats.Skipped, o.Stats.Failed)
	}
	fmt.Println()
	if o.RunID != "" {
		fmt.Printf("  Run: %s (%s, %s)\n", o.RunID, o.Status, o.Duration.Round(time.Millisecond))
	}
}
