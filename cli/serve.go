// ABOUTME: serve command: run-history web dashboard
// ABOUTME: Read-only view over the export_runs table
package cli

import (
	"database/sql"
	"flag"

	"github.com/charmbracelet/log"

	"github.com/harperreed/heyreport/web"
)

// ServeCommand starts the dashboard and blocks.
func ServeCommand(database *sql.DB, logger *log.Logger, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	port := fs.Int("port", 8080, "Port to listen on")
	_ = fs.Parse(args)

	server, err := web.NewServer(database, logger)
	if err != nil {
		return err
	}
	return server.Start(*port)
}
