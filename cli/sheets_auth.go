// ABOUTME: Google Sheets CLI commands
// ABOUTME: Runs the OAuth flow for the sheets-api backend and lists existing sheets
package cli

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os/exec"
	"runtime"

	"github.com/oklog/ulid/v2"
	"golang.org/x/oauth2"

	"github.com/harperreed/heyreport/sheets"
)

// SheetsAuthCommand handles OAuth setup for the sheets-api backend.
func SheetsAuthCommand(env *Env, args []string) error {
	fs := flag.NewFlagSet("auth", flag.ExitOnError)
	noBrowser := fs.Bool("no-browser", false, "Print the URL instead of opening a browser")
	_ = fs.Parse(args)

	ctx := context.Background()

	config, err := sheets.OAuthConfig()
	if err != nil {
		return fmt.Errorf("failed to get OAuth config: %w", err)
	}

	callback, err := url.Parse(config.RedirectURL)
	if err != nil {
		return fmt.Errorf("invalid redirect URL: %w", err)
	}

	state := ulid.Make().String()
	callbackChan := make(chan *oauth2.Token, 1)
	errChan := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(callback.Path, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			errChan <- fmt.Errorf("state mismatch in OAuth callback")
			return
		}
		code := r.URL.Query().Get("code")
		if code == "" {
			errChan <- fmt.Errorf("no authorization code received")
			return
		}

		token, err := config.Exchange(ctx, code)
		if err != nil {
			errChan <- fmt.Errorf("failed to exchange code: %w", err)
			return
		}

		callbackChan <- token
		_, _ = fmt.Fprintf(w, "Authorization successful! You can close this window.")
	})

	server := &http.Server{Addr: callback.Host, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	authURL := config.AuthCodeURL(state, oauth2.AccessTypeOffline)

	fmt.Println("Opening browser for Google OAuth...")
	fmt.Printf("\nIf browser doesn't open, visit this URL:\n%s\n\n", authURL)
	if !*noBrowser {
		_ = openBrowser(authURL)
	}

	select {
	case token := <-callbackChan:
		_ = server.Shutdown(ctx)

		if err := sheets.SaveToken(sheets.TokenPath(), token); err != nil {
			return fmt.Errorf("failed to save token: %w", err)
		}

		fmt.Printf("\n✓ Authenticated successfully\n")
		fmt.Printf("✓ Tokens saved to %s\n\n", sheets.TokenPath())
		fmt.Println("Set \"backend\": \"sheets-api\" and \"spreadsheet_id\" in your config, then run 'heyreport collect'.")
		return nil

	case err := <-errChan:
		_ = server.Shutdown(ctx)
		return fmt.Errorf("OAuth flow failed: %w", err)
	}
}

// SheetsListCommand prints the sheet names of the configured backend.
func SheetsListCommand(env *Env, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	_ = fs.Parse(args)

	ctx := context.Background()
	backend, err := NewBackend(ctx, env.Config, http.DefaultClient)
	if err != nil {
		return err
	}

	names, err := backend.SheetNames(ctx)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Println("No sheets found")
		return nil
	}

	guard := sheets.NewGuard(backend, nil)
	today := guard.Today()
	for _, name := range names {
		marker := " "
		if len(name) >= len(today) && name[:len(today)] == today {
			marker = "*"
		}
		fmt.Printf("%s %s\n", marker, name)
	}
	fmt.Printf("\nTotal: %d sheet(s), * = exported today (%s)\n", len(names), today)
	return nil
}

// openBrowser attempts to open URL in default browser
func openBrowser(url string) error {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		cmd = "xdg-open"
		args = []string{url}
	}

	return exec.Command(cmd, args...).Start()
}
