// ABOUTME: Ships collected rows to the spreadsheet backend
// ABOUTME: Any failure falls back to local CSV (and optionally XLSX) files
package export

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/harperreed/heyreport/collector"
	"github.com/harperreed/heyreport/sheets"
)

var fixedHeader = []string{
	"Brand", "Fname", "Lname", "Number", "Initial Send Time",
	"Failed", "Response", "Response Time (Central)",
}

// Header returns the fixed columns followed by Message 1..k.
func Header(k int) []string {
	header := make([]string, 0, len(fixedHeader)+k)
	header = append(header, fixedHeader...)
	for i := 1; i <= k; i++ {
		header = append(header, fmt.Sprintf("Message %d", i))
	}
	return header
}

// Options configures an Exporter.
type Options struct {
	Backend     sheets.Backend
	MaxMessages int
	FallbackDir string
	// XLSX also writes a workbook copy whenever the CSV fallback is written.
	XLSX   bool
	Out    io.Writer
	Logger *log.Logger
}

// Result describes what an export did.
type Result struct {
	Rows         int
	SheetName    string
	FallbackPath string
	XLSXPath     string
	// Err is the backend failure that triggered the fallback.
	Err error
	// FallbackErr is set if the local fallback could not be written either.
	FallbackErr error
}

// Exported reports whether the backend accepted the rows.
func (r Result) Exported() bool {
	return r.SheetName != "" && r.Err == nil
}

// Exporter sends rows to a backend.
type Exporter struct {
	opts   Options
	out    io.Writer
	logger *log.Logger
}

// New creates an Exporter.
func New(opts Options) *Exporter {
	if opts.MaxMessages <= 0 {
		opts.MaxMessages = collector.DefaultMaxMessages
	}
	e := &Exporter{opts: opts, out: opts.Out, logger: opts.Logger}
	if e.out == nil {
		e.out = os.Stdout
	}
	if e.logger == nil {
		e.logger = log.New(io.Discard)
	}
	return e
}

// Export appends header plus rows to the backend. Empty input does nothing.
func (e *Exporter) Export(ctx context.Context, rows []collector.Row) Result {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(e.out, "No data to send to Google Sheets.")
		return Result{}
	}

	header := Header(e.opts.MaxMessages)
	data := toCells(rows)
	values := make([][]string, 0, len(data)+1)
	values = append(values, header)
	values = append(values, data...)

	res := Result{Rows: len(rows)}
	if e.opts.Backend == nil {
		res.Err = fmt.Errorf("no spreadsheet backend configured")
	} else {
		_, _ = fmt.Fprintln(e.out, "Sending data to Google Sheets...")
		res.SheetName, res.Err = e.opts.Backend.Append(ctx, values)
	}

	if res.Err == nil {
		e.logger.Info("export complete", "sheet", res.SheetName, "rows", res.Rows)
		_, _ = fmt.Fprintf(e.out, "✓ Data sent to Google Sheets. Sheet: %s\n", res.SheetName)
		_, _ = fmt.Fprintf(e.out, "✓ Sent %d rows\n", res.Rows)
		return res
	}

	res.SheetName = ""
	e.logger.Error("export failed", "err", res.Err)
	_, _ = fmt.Fprintf(e.out, "✗ Failed to send data to Google Sheets: %v\n", res.Err)
	_, _ = fmt.Fprintln(e.out, "  → Writing CSV fallback...")
	e.writeLocal(&res, header, data)
	return res
}

// WriteLocal writes only the local files, skipping the backend.
func (e *Exporter) WriteLocal(rows []collector.Row) Result {
	res := Result{Rows: len(rows)}
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(e.out, "No data to download.")
		return res
	}
	e.writeLocal(&res, Header(e.opts.MaxMessages), toCells(rows))
	return res
}

func (e *Exporter) writeLocal(res *Result, header []string, data [][]string) {
	res.FallbackPath, res.FallbackErr = WriteFallback(e.opts.FallbackDir, header, data)
	if res.FallbackErr != nil {
		e.logger.Error("fallback write failed", "err", res.FallbackErr)
		_, _ = fmt.Fprintf(e.out, "✗ Could not write fallback CSV: %v\n", res.FallbackErr)
		return
	}
	_, _ = fmt.Fprintf(e.out, "✓ Fallback CSV written to %s (%d rows)\n", res.FallbackPath, res.Rows)

	if !e.opts.XLSX {
		return
	}
	path, err := WriteXLSX(e.opts.FallbackDir, header, data)
	if err != nil {
		e.logger.Warn("xlsx copy failed", "err", err)
		return
	}
	res.XLSXPath = path
	_, _ = fmt.Fprintf(e.out, "✓ XLSX copy written to %s\n", path)
}

func toCells(rows []collector.Row) [][]string {
	cells := make([][]string, len(rows))
	for i, row := range rows {
		cells[i] = row
	}
	return cells
}
