// ABOUTME: config subcommands: init writes a starter file, show prints the effective config
// ABOUTME: Secrets are masked on output
package cli

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/harperreed/heyreport/config"
)

// ConfigInitCommand writes the effective config (defaults, file, environment,
// and flags) to the config path.
func ConfigInitCommand(env *Env, args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	force := fs.Bool("force", false, "Overwrite an existing config file")
	teamID := fs.Int64("team-id", 0, "Heymarket team ID")
	token := fs.String("token", "", "Heymarket security token")
	sheetsURL := fs.String("sheets-url", "", "Apps Script web app URL")
	sheetsSecret := fs.String("sheets-secret", "", "Apps Script shared secret")
	spreadsheetID := fs.String("spreadsheet-id", "", "Spreadsheet ID (sheets-api backend)")
	_ = fs.Parse(args)

	path := env.configPath()
	if _, err := os.Stat(path); err == nil && !*force {
		return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
	}

	cfg := *env.Config
	if *teamID != 0 {
		cfg.TeamID = *teamID
	}
	if *token != "" {
		cfg.SecurityToken = *token
	}
	if *sheetsURL != "" {
		cfg.SheetsURL = *sheetsURL
	}
	if *sheetsSecret != "" {
		cfg.SheetsSecret = *sheetsSecret
	}
	if *spreadsheetID != "" {
		cfg.SpreadsheetID = *spreadsheetID
		cfg.Backend = config.BackendSheetsAPI
	}

	if err := config.Save(path, &cfg); err != nil {
		return err
	}

	fmt.Printf("✓ Config written to %s\n", path)
	if err := cfg.Validate(); err != nil {
		fmt.Printf("  → Still incomplete: %v\n", err)
	}
	return nil
}

// ConfigShowCommand prints the effective config with secrets masked.
func ConfigShowCommand(env *Env, args []string) error {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	_ = fs.Parse(args)

	fmt.Printf("# %s\n", env.configPath())
	return showConfig(os.Stdout, env.Config)
}

func showConfig(out io.Writer, cfg *config.Config) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(cfg.Masked()); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		_, _ = fmt.Fprintf(out, "\n✗ %v\n", err)
	} else {
		_, _ = fmt.Fprintln(out, "\n✓ Config is valid")
	}
	return nil
}
