// ABOUTME: Configuration for heyreport stored at XDG config paths
// ABOUTME: JSON file plus .env and HEYREPORT_* environment overrides, validated with struct tags
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/adrg/xdg"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Backend kinds.
const (
	BackendAppsScript = "apps-script"
	BackendSheetsAPI  = "sheets-api"
)

const (
	DefaultAPIBaseURL  = "https://api-prod-client.heymarket.com"
	DefaultMaxMessages = 20
	DefaultTimezone    = "America/Chicago"
)

// DefaultBrands maps Heymarket inbox ids to brand labels.
func DefaultBrands() map[string]string {
	return map[string]string{
		"80071": "BOOKING",
		"80158": "SCHEDULE",
		"80157": "RESERVE",
		"80159": "SESSIONS",
	}
}

// Config is the full runtime configuration.
type Config struct {
	TeamID        int64  `json:"team_id" validate:"required,gt=0"`
	SecurityToken string `json:"security_token" validate:"required"`
	APIBaseURL    string `json:"api_base_url" validate:"required,url"`

	Backend       string `json:"backend" validate:"oneof=apps-script sheets-api"`
	SheetsURL     string `json:"sheets_url,omitempty" validate:"required_if=Backend apps-script"`
	SheetsSecret  string `json:"sheets_secret,omitempty" validate:"required_if=Backend apps-script"`
	SpreadsheetID string `json:"spreadsheet_id,omitempty" validate:"required_if=Backend sheets-api"`

	MaxMessages int               `json:"max_messages" validate:"gte=1,lte=500"`
	Timezone    string            `json:"timezone" validate:"required,timezone"`
	Brands      map[string]string `json:"brands"`

	FallbackDir    string `json:"fallback_dir"`
	FallbackXLSX   bool   `json:"fallback_xlsx"`
	StableOrder    bool   `json:"stable_order"`
	MaxConcurrency int    `json:"max_concurrency" validate:"gte=0"`
	// HTTPTimeout is a Go duration string; empty means no timeout.
	HTTPTimeout string `json:"http_timeout,omitempty"`

	LogLevel    string `json:"log_level" validate:"oneof=debug info warn error"`
	LogFile     string `json:"log_file,omitempty"`
	MetricsFile string `json:"metrics_file,omitempty"`
	DBPath      string `json:"db_path"`
}

// Dir returns the XDG config directory for heyreport.
func Dir() string {
	return filepath.Join(xdg.ConfigHome, "heyreport")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.json")
}

// DefaultDBPath returns the default run-history database location.
func DefaultDBPath() string {
	return filepath.Join(xdg.DataHome, "heyreport", "heyreport.db")
}

// DefaultFallbackDir is the user's download directory, else the working directory.
func DefaultFallbackDir() string {
	if xdg.UserDirs.Download != "" {
		return xdg.UserDirs.Download
	}
	return "."
}

// Default returns a config with every optional field filled in.
func Default() *Config {
	return &Config{
		APIBaseURL:  DefaultAPIBaseURL,
		Backend:     BackendAppsScript,
		MaxMessages: DefaultMaxMessages,
		Timezone:    DefaultTimezone,
		Brands:      DefaultBrands(),
		FallbackDir: DefaultFallbackDir(),
		LogLevel:    "info",
		DBPath:      DefaultDBPath(),
	}
}

// LoadDotEnv loads .env files into the process environment. Missing files
// are ignored.
func LoadDotEnv(files ...string) {
	_ = godotenv.Load(files...)
}

// Load reads path (DefaultPath when empty) over the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := Default()

	f, err := os.Open(path)
	switch {
	case err == nil:
		defer func() { _ = f.Close() }()
		if err := json.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if len(cfg.Brands) == 0 {
		cfg.Brands = DefaultBrands()
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("HEYREPORT_TEAM_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid HEYREPORT_TEAM_ID %q: %w", v, err)
		}
		cfg.TeamID = id
	}
	if v := os.Getenv("HEYREPORT_MAX_MESSAGES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid HEYREPORT_MAX_MESSAGES %q: %w", v, err)
		}
		cfg.MaxMessages = n
	}

	strs := map[string]*string{
		"HEYREPORT_SECURITY_TOKEN": &cfg.SecurityToken,
		"HEYREPORT_API_BASE_URL":   &cfg.APIBaseURL,
		"HEYREPORT_BACKEND":        &cfg.Backend,
		"HEYREPORT_SHEETS_URL":     &cfg.SheetsURL,
		"HEYREPORT_SHEETS_SECRET":  &cfg.SheetsSecret,
		"HEYREPORT_SPREADSHEET_ID": &cfg.SpreadsheetID,
		"HEYREPORT_TIMEZONE":       &cfg.Timezone,
		"HEYREPORT_FALLBACK_DIR":   &cfg.FallbackDir,
		"HEYREPORT_LOG_LEVEL":      &cfg.LogLevel,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	return nil
}

// Save writes cfg to path with owner-only permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, ", "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.Timeout(); err != nil {
		return err
	}
	return nil
}

// Location loads the display timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Timeout parses HTTPTimeout. Zero means no timeout.
func (c *Config) Timeout() (time.Duration, error) {
	if c.HTTPTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.HTTPTimeout)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid http_timeout %q", c.HTTPTimeout)
	}
	return d, nil
}

// Masked returns a copy safe to print.
func (c *Config) Masked() *Config {
	cp := *c
	cp.SecurityToken = mask(c.SecurityToken)
	cp.SheetsSecret = mask(c.SheetsSecret)
	return &cp
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}
