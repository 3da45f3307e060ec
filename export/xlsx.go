// ABOUTME: Optional XLSX copy of the fallback data
// ABOUTME: One worksheet holding the header row followed by every data row
package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

const (
	// XLSXFileName is written next to the CSV fallback when enabled.
	XLSXFileName = "heymarket_data_fallback.xlsx"
	xlsxSheet    = "Heymarket"
)

// WriteXLSX writes header and rows into dir and returns the file path.
func WriteXLSX(dir string, header []string, rows [][]string) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create fallback directory: %w", err)
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	if err := xl.SetSheetName(xl.GetSheetName(0), xlsxSheet); err != nil {
		return "", fmt.Errorf("failed to name worksheet: %w", err)
	}

	if err := xl.SetSheetRow(xlsxSheet, "A1", &header); err != nil {
		return "", fmt.Errorf("failed to write header: %w", err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return "", err
		}
		if err := xl.SetSheetRow(xlsxSheet, cell, &row); err != nil {
			return "", fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	path := filepath.Join(dir, XLSXFileName)
	if err := xl.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}
	return path, nil
}
