// ABOUTME: Google Apps Script web-app backend reached with a shared secret
// ABOUTME: Implements the getSheetNames and appendData actions
package sheets

import (
	"context"
	"fmt"
	"net/http"

	"github.com/harperreed/heyreport/transport"
)

const (
	actionSheetNames = "getSheetNames"
	actionAppend     = "appendData"
)

type appsScriptRequest struct {
	Secret string     `json:"secret"`
	Action string     `json:"action"`
	Values [][]string `json:"values,omitempty"`
}

type sheetNamesResponse struct {
	SheetNames []string `json:"sheetNames"`
}

type appendResponse struct {
	OK        bool   `json:"ok"`
	SheetName string `json:"sheetName"`
	Error     string `json:"error,omitempty"`
}

// AppsScriptBackend posts actions to a deployed Apps Script web app.
type AppsScriptBackend struct {
	url    string
	secret string
	http   *http.Client
}

// NewAppsScriptBackend creates a backend for the web app at url.
func NewAppsScriptBackend(url, secret string, client *http.Client) *AppsScriptBackend {
	if client == nil {
		client = http.DefaultClient
	}
	return &AppsScriptBackend{url: url, secret: secret, http: client}
}

// SheetNames implements Backend.
func (b *AppsScriptBackend) SheetNames(ctx context.Context) ([]string, error) {
	var resp sheetNamesResponse
	err := transport.Do(ctx, b.http, transport.Request{
		URL:     b.url,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    appsScriptRequest{Secret: b.secret, Action: actionSheetNames},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to list sheets: %w", err)
	}
	return resp.SheetNames, nil
}

// Append implements Backend. The body goes out as text/plain, which the
// web app accepts without a CORS preflight.
func (b *AppsScriptBackend) Append(ctx context.Context, values [][]string) (string, error) {
	var resp appendResponse
	err := transport.Do(ctx, b.http, transport.Request{
		URL:     b.url,
		Headers: map[string]string{"Content-Type": "text/plain;charset=utf-8"},
		Body:    appsScriptRequest{Secret: b.secret, Action: actionAppend, Values: values},
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("failed to send data to Google Sheets: %w", err)
	}
	if !resp.OK {
		return "", &ApplicationError{Action: actionAppend, Message: resp.Error}
	}
	return resp.SheetName, nil
}
