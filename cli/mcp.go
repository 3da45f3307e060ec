// ABOUTME: MCP server subcommand
// ABOUTME: Exposes collection and run history as tools over stdio
package cli

import (
	"context"
	"io"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/heyreport/handlers"
)

// MCPCommand starts the MCP server on stdio
func MCPCommand(env *Env) error {
	// stdout carries the protocol, so logs go to stderr and exporter
	// messages are dropped.
	logger, err := env.NewLogger(false)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Close() }()

	logger.Info("starting heyreport MCP server")

	database, err := env.OpenDB()
	if err != nil {
		return err
	}
	defer database.Close()

	ctx := context.Background()
	r, err := env.NewRunner(ctx, logger.Logger, database, io.Discard)
	if err != nil {
		return err
	}

	exportHandlers := handlers.NewExportHandlers(r, database)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "heyreport",
		Version: env.Version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "collect_broadcasts",
		Description: "Collect every Heymarket broadcast report and export the rows to Google Sheets (CSV fallback on failure)",
	}, exportHandlers.CollectBroadcasts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "export_history",
		Description: "List recent export runs with their status and row counts",
	}, exportHandlers.ExportHistory)

	return server.Run(ctx, &mcp.StdioTransport{})
}
