// ABOUTME: Tests for config loading, env overrides, validation, and masking
// ABOUTME: Redirects XDG directories into temp dirs
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := Default()
	cfg.TeamID = 12345
	cfg.SecurityToken = "token-abcdef"
	cfg.SheetsURL = "https://script.google.com/macros/s/abc/exec"
	cfg.SheetsSecret = "hunter22"
	return cfg
}

func TestDefaultPath(t *testing.T) {
	assert.Equal(t, filepath.Join(xdg.ConfigHome, "heyreport", "config.json"), DefaultPath())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)

	assert.Equal(t, DefaultAPIBaseURL, cfg.APIBaseURL)
	assert.Equal(t, BackendAppsScript, cfg.Backend)
	assert.Equal(t, DefaultMaxMessages, cfg.MaxMessages)
	assert.Equal(t, DefaultTimezone, cfg.Timezone)
	assert.Equal(t, DefaultBrands(), cfg.Brands)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "config.json")
	cfg := validConfig()
	cfg.MaxMessages = 7
	cfg.StableOrder = true

	require.NoError(t, Save(path, cfg))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(12345), loaded.TeamID)
	assert.Equal(t, 7, loaded.MaxMessages)
	assert.True(t, loaded.StableOrder)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HEYREPORT_TEAM_ID", "777")
	t.Setenv("HEYREPORT_SECURITY_TOKEN", "from-env")
	t.Setenv("HEYREPORT_MAX_MESSAGES", "3")
	t.Setenv("HEYREPORT_BACKEND", BackendSheetsAPI)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)

	assert.Equal(t, int64(777), cfg.TeamID)
	assert.Equal(t, "from-env", cfg.SecurityToken)
	assert.Equal(t, 3, cfg.MaxMessages)
	assert.Equal(t, BackendSheetsAPI, cfg.Backend)
}

func TestLoad_BadNumericEnv(t *testing.T) {
	t.Setenv("HEYREPORT_TEAM_ID", "abc")

	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.ErrorContains(t, err, "HEYREPORT_TEAM_ID")
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"missing team", func(c *Config) { c.TeamID = 0 }, "TeamID"},
		{"missing token", func(c *Config) { c.SecurityToken = "" }, "SecurityToken"},
		{"unknown backend", func(c *Config) { c.Backend = "ftp" }, "Backend"},
		{"apps script without url", func(c *Config) { c.SheetsURL = "" }, "SheetsURL"},
		{"sheets api without id", func(c *Config) { c.Backend = BackendSheetsAPI }, "SpreadsheetID"},
		{"zero messages", func(c *Config) { c.MaxMessages = 0 }, "MaxMessages"},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }, "Timezone"},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, "LogLevel"},
		{"bad timeout", func(c *Config) { c.HTTPTimeout = "soon" }, "http_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestTimeout(t *testing.T) {
	cfg := validConfig()
	d, err := cfg.Timeout()
	require.NoError(t, err)
	assert.Zero(t, d)

	cfg.HTTPTimeout = "30s"
	d, err = cfg.Timeout()
	require.NoError(t, err)
	assert.Equal(t, "30s", d.String())
}

func TestMasked(t *testing.T) {
	cfg := validConfig()
	masked := cfg.Masked()

	assert.Equal(t, "****cdef", masked.SecurityToken)
	assert.Equal(t, "****er22", masked.SheetsSecret)
	assert.Equal(t, "token-abcdef", cfg.SecurityToken, "original untouched")
	assert.Equal(t, "****", mask("abc"))
	assert.Equal(t, "", mask(""))
}
