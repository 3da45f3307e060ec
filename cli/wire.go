// ABOUTME: Builds the Heymarket client, spreadsheet backend, and runner from config
// ABOUTME: Shared by collect and the MCP server
package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/harperreed/heyreport/collector"
	"github.com/harperreed/heyreport/config"
	"github.com/harperreed/heyreport/db"
	"github.com/harperreed/heyreport/export"
	"github.com/harperreed/heyreport/heymarket"
	"github.com/harperreed/heyreport/logging"
	"github.com/harperreed/heyreport/metrics"
	"github.com/harperreed/heyreport/runner"
	"github.com/harperreed/heyreport/sheets"
)

// Env carries what main resolved before dispatching.
type Env struct {
	Config     *config.Config
	ConfigPath string
	Version    string
}

// NewLogger builds the diagnostic logger. quiet drops stderr output while a
// full-screen view is running.
func (e *Env) NewLogger(quiet bool) (*logging.Logger, error) {
	return logging.New(logging.Options{
		Level: e.Config.LogLevel,
		File:  e.Config.LogFile,
		Quiet: quiet,
	})
}

// OpenDB opens the run-history database.
func (e *Env) OpenDB() (*sql.DB, error) {
	path := e.Config.DBPath
	if path == "" {
		path = config.DefaultDBPath()
	}
	database, err := db.OpenDatabase(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	return database, nil
}

// NewBackend creates the configured spreadsheet backend.
func NewBackend(ctx context.Context, cfg *config.Config, client *http.Client) (sheets.Backend, error) {
	switch cfg.Backend {
	case config.BackendSheetsAPI:
		return sheets.AuthorizedClient(ctx, cfg.SpreadsheetID, sheets.TokenPath())
	case config.BackendAppsScript, "":
		return sheets.NewAppsScriptBackend(cfg.SheetsURL, cfg.SheetsSecret, client), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// NewRunner validates the config and wires every component. Exporter
// messages go to out.
func (e *Env) NewRunner(ctx context.Context, logger *log.Logger, database *sql.DB, out io.Writer) (*runner.Runner, error) {
	cfg := e.Config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w (edit %s or run 'heyreport config init')", err, e.configPath())
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	timeout, err := cfg.Timeout()
	if err != nil {
		return nil, err
	}
	httpClient := &http.Client{Timeout: timeout}

	var recorder *metrics.Recorder
	var onConvErr func(error)
	if cfg.MetricsFile != "" {
		recorder = metrics.NewRecorder()
		onConvErr = recorder.ConversationFailed
	}

	client := heymarket.NewClient(heymarket.Options{
		BaseURL:             cfg.APIBaseURL,
		SecurityToken:       cfg.SecurityToken,
		TeamID:              cfg.TeamID,
		HTTPClient:          httpClient,
		Logger:              logger,
		OnConversationError: onConvErr,
	})

	backend, err := NewBackend(ctx, cfg, httpClient)
	if err != nil {
		return nil, err
	}

	return &runner.Runner{
		API: client,
		Collect: collector.Options{
			Guard:          sheets.NewGuard(backend, logger),
			Conversations:  client,
			Brands:         cfg.Brands,
			MaxMessages:    cfg.MaxMessages,
			Location:       loc,
			MaxConcurrency: cfg.MaxConcurrency,
			StableOrder:    cfg.StableOrder,
		},
		Exporter: export.New(export.Options{
			Backend:     backend,
			MaxMessages: cfg.MaxMessages,
			FallbackDir: cfg.FallbackDir,
			XLSX:        cfg.FallbackXLSX,
			Out:         out,
			Logger:      logger,
		}),
		DB:          database,
		Metrics:     recorder,
		MetricsFile: cfg.MetricsFile,
		Logger:      logger,
	}, nil
}

func (e *Env) configPath() string {
	if e.ConfigPath != "" {
		return e.ConfigPath
	}
	return config.DefaultPath()
}
