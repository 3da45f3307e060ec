// ABOUTME: Local CSV fallback writer for rows the spreadsheet backend could not take
// ABOUTME: Every cell is double-quoted with embedded quotes doubled, lines end in \n
package export

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FallbackFileName is the name of the CSV written when the export fails.
const FallbackFileName = "heymarket_data_fallback.csv"

// WriteCSV encodes header then rows. encoding/csv only quotes cells that
// need it, so quoting is done here.
func WriteCSV(w io.Writer, header []string, rows [][]string) error {
	bw := bufio.NewWriter(w)
	if err := writeRecord(bw, header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writeRecord(bw, row); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeRecord(w *bufio.Writer, cells []string) error {
	for i, cell := range cells {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return err
			}
		}
		if _, err := w.WriteString(`"` + strings.ReplaceAll(cell, `"`, `""`) + `"`); err != nil {
			return err
		}
	}
	return w.WriteByte('\n')
}

// WriteFallback writes the CSV into dir, creating it if needed, and returns
// the file path.
func WriteFallback(dir string, header []string, rows [][]string) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create fallback directory: %w", err)
	}

	path := filepath.Join(dir, FallbackFileName)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create fallback file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := WriteCSV(f, header, rows); err != nil {
		return "", fmt.Errorf("failed to write fallback file: %w", err)
	}
	return path, nil
}
