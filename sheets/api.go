// ABOUTME: Native Google Sheets API backend
// ABOUTME: Each append adds a timestamp-titled sheet and writes the values starting at A1
package sheets

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

// SheetTitleLayout names sheets created by the API backend.
const SheetTitleLayout = "2006-01-02 15:04:05"

// APIBackend talks to one spreadsheet through the Sheets v4 API.
type APIBackend struct {
	service       *gsheets.Service
	spreadsheetID string
	now           func() time.Time
}

// NewAPIBackend creates a backend using an authorized HTTP client. Extra
// options are passed to the service constructor.
func NewAPIBackend(ctx context.Context, spreadsheetID string, client *http.Client, opts ...option.ClientOption) (*APIBackend, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is required for the sheets-api backend")
	}

	opts = append([]option.ClientOption{option.WithHTTPClient(client)}, opts...)
	service, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &APIBackend{service: service, spreadsheetID: spreadsheetID, now: time.Now}, nil
}

// SheetNames implements Backend.
func (b *APIBackend) SheetNames(ctx context.Context) ([]string, error) {
	ss, err := b.service.Spreadsheets.Get(b.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list sheets: %w", err)
	}

	names := make([]string, 0, len(ss.Sheets))
	for _, sheet := range ss.Sheets {
		if sheet.Properties != nil {
			names = append(names, sheet.Properties.Title)
		}
	}
	return names, nil
}

// Append implements Backend. Titles use the UTC clock so they line up with
// the export guard's notion of today.
func (b *APIBackend) Append(ctx context.Context, values [][]string) (string, error) {
	title := b.now().UTC().Format(SheetTitleLayout)

	add := &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{{
			AddSheet: &gsheets.AddSheetRequest{
				Properties: &gsheets.SheetProperties{Title: title},
			},
		}},
	}
	if _, err := b.service.Spreadsheets.BatchUpdate(b.spreadsheetID, add).Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("failed to add sheet %q: %w", title, err)
	}

	cells := make([][]interface{}, len(values))
	for i, row := range values {
		cells[i] = make([]interface{}, len(row))
		for j, v := range row {
			cells[i][j] = v
		}
	}

	rng := fmt.Sprintf("'%s'!A1", title)
	_, err := b.service.Spreadsheets.Values.Update(b.spreadsheetID, rng, &gsheets.ValueRange{Values: cells}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to write values to %q: %w", title, err)
	}
	return title, nil
}
