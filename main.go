// ABOUTME: Entry point for the heyreport CLI and MCP server
// ABOUTME: Routes to collect, history, serve, sheets, config, or mcp based on arguments
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/harperreed/heyreport/cli"
	"github.com/harperreed/heyreport/config"
)

const version = "0.1.0"

func main() {
	// Global flags
	showVersion := flag.Bool("version", false, "Show version and exit")
	configPath := flag.String("config", "", "Config file (default: ~/.config/heyreport/config.json)")
	dbPath := flag.String("db-path", "", "Run history database (default: ~/.local/share/heyreport/heyreport.db)")

	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("heyreport version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	config.LoadDotEnv()
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	env := &cli.Env{Config: cfg, ConfigPath: *configPath, Version: version}

	command := args[0]
	commandArgs := args[1:]

	switch command {
	case "collect":
		if err := cli.CollectCommand(env, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}

	case "history":
		database, err := env.OpenDB()
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer database.Close()

		if err := cli.HistoryCommand(database, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}

	case "serve":
		logger, err := env.NewLogger(false)
		if err != nil {
			log.Fatalf("Error: %v", err)
		}
		defer func() { _ = logger.Close() }()

		database, err := env.OpenDB()
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer database.Close()

		if err := cli.ServeCommand(database, logger.Logger, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}

	case "mcp":
		if err := cli.MCPCommand(env); err != nil {
			log.Fatalf("MCP server failed: %v", err)
		}

	case "sheets":
		if len(commandArgs) == 0 {
			fmt.Println("Error: sheets requires a subcommand")
			printUsage()
			os.Exit(1)
		}

		switch commandArgs[0] {
		case "auth":
			if err := cli.SheetsAuthCommand(env, commandArgs[1:]); err != nil {
				log.Fatalf("Error: %v", err)
			}
		case "list":
			if err := cli.SheetsListCommand(env, commandArgs[1:]); err != nil {
				log.Fatalf("Error: %v", err)
			}
		default:
			fmt.Printf("Unknown sheets command: %s\n\n", commandArgs[0])
			printUsage()
			os.Exit(1)
		}

	case "config":
		if len(commandArgs) == 0 {
			fmt.Println("Error: config requires a subcommand")
			printUsage()
			os.Exit(1)
		}

		switch commandArgs[0] {
		case "init":
			if err := cli.ConfigInitCommand(env, commandArgs[1:]); err != nil {
				log.Fatalf("Error: %v", err)
			}
		case "show":
			if err := cli.ConfigShowCommand(env, commandArgs[1:]); err != nil {
				log.Fatalf("Error: %v", err)
			}
		default:
			fmt.Printf("Unknown config command: %s\n\n", commandArgs[0])
			printUsage()
			os.Exit(1)
		}

	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`heyreport v%s - Heymarket broadcast report exporter

USAGE:
  heyreport [global flags] <command> [subcommand] [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --config <path>        Config file (default: ~/.config/heyreport/config.json)
  --db-path <path>       Run history database (default: ~/.local/share/heyreport/heyreport.db)

COMMANDS:
  collect                Collect every broadcast report and export it
  history                List recorded export runs
  serve                  Start the run-history web dashboard
  sheets                 Google Sheets commands
  config                 Configuration commands
  mcp                    Start MCP server for Claude Desktop

COLLECT:
  heyreport collect
    --yes                     Export again without asking if today's sheet exists
    --dry-run                 Collect and write only the local CSV
    --plain                   Print progress lines instead of the interactive view

HISTORY:
  heyreport history [id]
    --limit <n>               Max results (default: 20)
    [id]                      Show one run in detail

SERVE:
  heyreport serve
    --port <n>                Port to listen on (default: 8080)

SHEETS COMMANDS:
  heyreport sheets auth       Authorize the sheets-api backend (needs GOOGLE_CLIENT_ID
                              and GOOGLE_CLIENT_SECRET)
    --no-browser              Print the URL instead of opening a browser
  heyreport sheets list       List sheets in the configured spreadsheet

CONFIG COMMANDS:
  heyreport config init       Write a config file
    --team-id <id>            Heymarket team ID
    --token <token>           Heymarket security token
    --sheets-url <url>        Apps Script web app URL
    --sheets-secret <secret>  Apps Script shared secret
    --spreadsheet-id <id>     Spreadsheet ID (switches to the sheets-api backend)
    --force                   Overwrite an existing file
  heyreport config show       Print the effective config with secrets masked

ENVIRONMENT:
  HEYREPORT_TEAM_ID, HEYREPORT_SECURITY_TOKEN, HEYREPORT_SHEETS_URL,
  HEYREPORT_SHEETS_SECRET, HEYREPORT_BACKEND, HEYREPORT_SPREADSHEET_ID,
  HEYREPORT_MAX_MESSAGES, HEYREPORT_TIMEZONE, HEYREPORT_FALLBACK_DIR,
  HEYREPORT_LOG_LEVEL override the config file. A .env file in the working
  directory is loaded first.

EXAMPLES:
  # First-time setup
  heyreport config init --team-id 12345 --token abc --sheets-url https://script.google.com/... --sheets-secret s3cret

  # Run an export
  heyreport collect

  # Scheduled run that never prompts
  heyreport collect --yes --plain

  # Start MCP server for Claude Desktop
  heyreport mcp

`, version)
}
