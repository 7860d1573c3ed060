// =============================================================================
// CSV to XLSX Converter - XLSX Reader
// =============================================================================
//
// This module reads a produced workbook back. It backs the "verify" command
// and the round-trip tests: the header and every data row can be compared
// with the source file without loading the whole sheet into memory.
//
// ROW WIDTH:
//   Workbooks omit trailing empty cells, so rows read back can be shorter
//   than the header. ReadRows pads every row to the header width; all values
//   come back as the strings that were written.
//
// =============================================================================

package xlsxparser

import (
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ErrStop may be returned by a ReadRows callback to end iteration early
// without an error.
var ErrStop = errors.New("stop reading rows")

// =============================================================================
// SHEET SUMMARY
// =============================================================================

// SheetSummary describes one sheet of a workbook.
type SheetSummary struct {
	// Path is the workbook file.
	Path string

	// Name is the summarized sheet.
	Name string

	// Sheets lists every sheet in the workbook, in order.
	Sheets []string

	// Header is the first row of the sheet.
	Header []string

	// Rows is the number of data rows (header excluded).
	Rows int64

	// Columns is the header width.
	Columns int
}

// Inspect summarizes a sheet of the workbook at path.
//
// PARAMETERS:
//   - path: The XLSX file to read.
//   - sheet: The sheet to summarize, or "" for the first sheet.
//
// RETURNS:
//   - The sheet summary.
//   - An error if the file cannot be opened or the sheet does not exist.
func Inspect(path, sheet string) (*SheetSummary, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	name, err := pickSheet(f, sheet)
	if err != nil {
		return nil, err
	}

	summary := &SheetSummary{
		Path:   path,
		Name:   name,
		Sheets: f.GetSheetList(),
	}

	err = eachRow(f, name, func(index int, row []string) error {
		if index == 1 {
			summary.Header = row
			summary.Columns = len(row)
			return nil
		}
		summary.Rows++
		return nil
	})
	if err != nil {
		return nil, err
	}

	return summary, nil
}

// ReadRows calls fn for every data row of a sheet, header excluded.
//
// PARAMETERS:
//   - path: The XLSX file to read.
//   - sheet: The sheet to read, or "" for the first sheet.
//   - fn: Called with the 1-based data row number and the row padded to the
//     header width. Returning ErrStop ends iteration; any other error is
//     returned by ReadRows.
func ReadRows(path, sheet string, fn func(record int64, row []string) error) error {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	name, err := pickSheet(f, sheet)
	if err != nil {
		return err
	}

	width := 0
	err = eachRow(f, name, func(index int, row []string) error {
		if index == 1 {
			width = len(row)
			return nil
		}
		for len(row) < width {
			row = append(row, "")
		}
		return fn(int64(index-1), row)
	})
	if errors.Is(err, ErrStop) {
		return nil
	}
	return err
}

// pickSheet returns sheet if it exists, or the first sheet when sheet is "".
func pickSheet(f *excelize.File, sheet string) (string, error) {
	if sheet == "" {
		name := f.GetSheetName(0)
		if name == "" {
			return "", fmt.Errorf("workbook has no sheets")
		}
		return name, nil
	}

	index, err := f.GetSheetIndex(sheet)
	if err != nil || index < 0 {
		return "", fmt.Errorf("sheet %q not found", sheet)
	}
	return sheet, nil
}

// eachRow streams the rows of a sheet with a 1-based row index.
func eachRow(f *excelize.File, sheet string, fn func(index int, row []string) error) error {
	rows, err := f.Rows(sheet)
	if err != nil {
		return fmt.Errorf("failed to read rows: %w", err)
	}
	defer rows.Close()

	index := 0
	for rows.Next() {
		index++
		row, err := rows.Columns()
		if err != nil {
			return fmt.Errorf("failed to read row %d: %w", index, err)
		}
		if err := fn(index, row); err != nil {
			return err
		}
	}
	return rows.Error()
}
