// ABOUTME: OAuth configuration and token storage for the Google Sheets API backend
// ABOUTME: Tokens live under the XDG data directory and refresh automatically
package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gsheets "google.golang.org/api/sheets/v4"
)

// RedirectURL is where the local callback server listens during sheets auth.
const RedirectURL = "http://localhost:8080/oauth/callback"

// ErrNoCredentials means GOOGLE_CLIENT_ID or GOOGLE_CLIENT_SECRET is unset.
var ErrNoCredentials = errors.New("google OAuth credentials not configured. Set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET environment variables")

// NewOAuthConfig creates the OAuth2 config for spreadsheet access.
func NewOAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		RedirectURL:  RedirectURL,
		Scopes:       []string{gsheets.SpreadsheetsScope},
		Endpoint:     google.Endpoint,
	}
}

// OAuthConfig returns the config, or ErrNoCredentials when it is unusable.
func OAuthConfig() (*oauth2.Config, error) {
	config := NewOAuthConfig()
	if config.ClientID == "" || config.ClientSecret == "" {
		return nil, ErrNoCredentials
	}
	return config, nil
}

// TokenPath returns the XDG path of the stored OAuth token.
func TokenPath() string {
	return filepath.Join(xdg.DataHome, "heyreport", "google-sheets-token.json")
}

// SaveToken writes token to path with owner-only permissions.
func SaveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	return nil
}

// LoadToken reads a token written by SaveToken.
func LoadToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var token oauth2.Token
	if err := json.NewDecoder(f).Decode(&token); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	return &token, nil
}

// AuthorizedClient builds a Sheets API backend from the stored token.
func AuthorizedClient(ctx context.Context, spreadsheetID, tokenPath string) (*APIBackend, error) {
	config, err := OAuthConfig()
	if err != nil {
		return nil, err
	}
	token, err := LoadToken(tokenPath)
	if err != nil {
		return nil, fmt.Errorf("no authentication token found. Run 'heyreport sheets auth' first: %w", err)
	}
	return NewAPIBackend(ctx, spreadsheetID, config.Client(ctx, token))
}
