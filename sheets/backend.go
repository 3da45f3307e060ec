// ABOUTME: Spreadsheet backend contract shared by the Apps Script and Sheets API implementations
// ABOUTME: A backend lists existing sheet names and appends a block of values as a new sheet
package sheets

import (
	"context"
	"fmt"
)

// Backend is an append-only table store keyed by sheet name.
type Backend interface {
	// SheetNames returns the names of every existing sheet.
	SheetNames(ctx context.Context) ([]string, error)
	// Append stores values (header first) and returns the sheet name it was written to.
	Append(ctx context.Context, values [][]string) (string, error)
}

// ApplicationError is a well-formed response that signals a logical failure.
type ApplicationError struct {
	Action  string
	Message string
}

func (e *ApplicationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("spreadsheet backend rejected %s: %s", e.Action, e.Message)
	}
	return fmt.Sprintf("spreadsheet backend returned error response for %s", e.Action)
}
