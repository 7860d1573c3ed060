// =============================================================================
// CSV to XLSX Converter - XLSX Sheet Writer Module
// =============================================================================
//
// This module writes rows into a single-sheet workbook using the excelize
// StreamWriter, which spills rows to disk instead of keeping them in memory.
//
// CELL FORMAT:
//   Every cell is written as a string with the built-in "@" (text) number
//   format. Values like "007", "1e5" or "=SUM(A1)" are stored verbatim and
//   never reinterpreted as numbers, dates or formulas.
//
// WRITE STRATEGY:
//   The workbook is produced in a hidden temporary file next to the output
//   (created when the writer opens, so permission problems surface before
//   any row is read) and renamed into place by Close. Abort removes the
//   temporary file. An existing output file is only replaced on success.
//
// LIFECYCLE:
//   Open -> WriteHeader -> AppendBatch* -> Close
//                      \-> Abort (any time, idempotent)
//
// =============================================================================

package xlsxwriter

import (
	"errors"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/hashicorp/go-multierror"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/CSV-to-XLSX-conversion/internal/types"
	"github.com/ginjaninja78/CSV-to-XLSX-conversion/pkg/utils"
)

// Sheet format limits, as enforced by excelize.
const (
	MaxRows      = excelize.TotalRows
	MaxColumns   = excelize.MaxColumns
	MaxCellChars = excelize.TotalCellChars
)

// textNumFmt is the built-in "@" number format.
const textNumFmt = 49

// defaultSheet is the sheet every new excelize workbook starts with.
const defaultSheet = "Sheet1"

// Lifecycle misuse errors.
var (
	ErrHeaderWritten = errors.New("header already written")
	ErrNoHeader      = errors.New("header not written")
	ErrClosed        = errors.New("writer is closed")
)

// Options configures a Writer.
type Options struct {
	// MaxRows lowers the sheet row ceiling (header included).
	// Zero means MaxRows.
	MaxRows int

	// Overwrite allows replacing an existing output file.
	Overwrite bool
}

// Writer streams rows into one sheet of a new workbook.
type Writer struct {
	path     string
	tempPath string
	sheet    string
	temp     *os.File
	book     *excelize.File
	stream   *excelize.StreamWriter
	style    int
	ceiling  int

	width   int
	rows    int
	cells   []interface{}
	written int64

	headerDone bool
	closed     bool
}

// Open prepares a workbook for path with one sheet named sheet.
//
// PARAMETERS:
//   - path: The final output path.
//   - sheet: The sheet name (already validated).
//   - opts: Row ceiling and overwrite behavior.
//
// RETURNS:
//   - A Writer ready for WriteHeader.
//   - A classified *types.Error if the output exists (without Overwrite),
//     its directory cannot be created, or the temporary file cannot be made.
func Open(path, sheet string, opts Options) (*Writer, error) {
	if !opts.Overwrite && utils.FileExists(path) {
		return nil, types.Errorf(types.KindConfiguration, "open output",
			"output file %s already exists (use --force to replace it)", path)
	}

	ceiling := opts.MaxRows
	if ceiling <= 0 || ceiling > MaxRows {
		ceiling = MaxRows
	}

	if err := utils.EnsureParentDir(path); err != nil {
		return nil, types.ClassifyFS("create output directory", path, err)
	}

	tempPath := utils.TempSibling(path)
	temp, err := os.OpenFile(tempPath, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, types.ClassifyFS("create output", path, err)
	}

	w := &Writer{
		path:     path,
		tempPath: tempPath,
		sheet:    sheet,
		temp:     temp,
		book:     excelize.NewFile(),
		ceiling:  ceiling,
	}

	if err := w.prepare(); err != nil {
		_ = w.Abort()
		return nil, err
	}
	return w, nil
}

// prepare names the sheet and creates the stream writer and text style.
func (w *Writer) prepare() error {
	if w.sheet != defaultSheet {
		if err := w.book.SetSheetName(defaultSheet, w.sheet); err != nil {
			return types.NewError(types.KindConfiguration, "name sheet", w.path, err)
		}
	}

	style, err := w.book.NewStyle(&excelize.Style{NumFmt: textNumFmt})
	if err != nil {
		return types.NewError(types.KindIO, "create text style", w.path, err)
	}
	w.style = style

	stream, err := w.book.NewStreamWriter(w.sheet)
	if err != nil {
		return types.NewError(types.KindIO, "open sheet stream", w.path, err)
	}
	w.stream = stream
	return nil
}

// WriteHeader writes the header as the first sheet row and fixes the
// sheet width.
func (w *Writer) WriteHeader(header []string) error {
	if w.closed {
		return ErrClosed
	}
	if w.headerDone {
		return ErrHeaderWritten
	}
	if len(header) > MaxColumns {
		return types.Errorf(types.KindColumnLimitExceeded, "write header",
			"input has %d columns; a sheet holds at most %d", len(header), MaxColumns)
	}

	w.width = len(header)
	w.cells = make([]interface{}, w.width)
	if err := w.writeRow(header, 0); err != nil {
		return err
	}
	w.headerDone = true
	return nil
}

// AppendBatch appends the rows of batch after the rows already written.
//
// The row ceiling is checked before any row of the batch is written, so a
// batch is either rejected whole or written whole (barring I/O failures).
func (w *Writer) AppendBatch(batch types.RowBatch) error {
	if w.closed {
		return ErrClosed
	}
	if !w.headerDone {
		return ErrNoHeader
	}

	if room := w.ceiling - w.rows; batch.Len() > room {
		return &types.Error{
			Kind:   types.KindRowLimitExceeded,
			Op:     "append batch",
			Path:   w.path,
			Record: batch.FirstRecord + int64(room),
			Batch:  batch.Index,
			Err: fmt.Errorf("sheet row limit of %d rows (header included) reached after %d data rows",
				w.ceiling, w.rows-1),
		}
	}

	for i, row := range batch.Rows {
		if err := w.writeRow(row, batch.FirstRecord+int64(i)); err != nil {
			if e, ok := types.AsError(err); ok {
				e.Batch = batch.Index
			}
			return err
		}
	}
	return nil
}

// writeRow writes one row at the next sheet row. record is the source
// record number used in errors (0 for the header).
func (w *Writer) writeRow(row []string, record int64) error {
	if len(row) != w.width {
		return types.Errorf(types.KindMalformedRow, "write row",
			"row has %d cells but the sheet has %d columns", len(row), w.width)
	}

	for i, value := range row {
		if len(value) > MaxCellChars && utf8.RuneCountInString(value) > MaxCellChars {
			cell, _ := excelize.CoordinatesToCellName(i+1, w.rows+1)
			return &types.Error{
				Kind:   types.KindCellLimitExceeded,
				Op:     "write cell " + cell,
				Path:   w.path,
				Record: record,
				Err: fmt.Errorf("value has %d characters; a cell holds at most %d",
					utf8.RuneCountInString(value), MaxCellChars),
			}
		}
		if r, ok := illegalRune(value); ok {
			cell, _ := excelize.CoordinatesToCellName(i+1, w.rows+1)
			return &types.Error{
				Kind:   types.KindEncoding,
				Op:     "write cell " + cell,
				Path:   w.path,
				Record: record,
				Err:    fmt.Errorf("value contains %U, which a sheet cell cannot store", r),
			}
		}
		w.cells[i] = excelize.Cell{StyleID: w.style, Value: value}
	}

	cell, err := excelize.CoordinatesToCellName(1, w.rows+1)
	if err != nil {
		return types.NewError(types.KindRowLimitExceeded, "write row", w.path, err)
	}
	if err := w.stream.SetRow(cell, w.cells); err != nil {
		return types.ClassifyFS("write row", w.path, err)
	}
	w.rows++
	return nil
}

// illegalRune reports the first character of value that XML 1.0 cannot
// carry. excelize would replace it with U+FFFD.
func illegalRune(value string) (rune, bool) {
	for i, r := range value {
		switch {
		case r == utf8.RuneError:
			if _, size := utf8.DecodeRuneInString(value[i:]); size == 1 {
				return r, true
			}
		case r < 0x20 && r != '\t' && r != '\n' && r != '\r':
			return r, true
		case r == 0xFFFE || r == 0xFFFF:
			return r, true
		}
	}
	return 0, false
}

// Rows returns the number of sheet rows written, header included.
func (w *Writer) Rows() int {
	return w.rows
}

// BytesWritten returns the size of the finished workbook. Zero until
// Close succeeds.
func (w *Writer) BytesWritten() int64 {
	return w.written
}

// Close finishes the workbook and moves it to the output path.
//
// On failure the temporary file is removed and the output path is left
// as it was.
func (w *Writer) Close() error {
	if w.closed {
		return ErrClosed
	}
	if !w.headerDone {
		_ = w.Abort()
		return ErrNoHeader
	}

	if err := w.finish(); err != nil {
		_ = w.Abort()
		return err
	}
	w.closed = true
	return nil
}

// finish flushes the stream, writes the package, releases the workbook and
// renames the file into place. The rename is the last step.
func (w *Writer) finish() error {
	if err := w.stream.Flush(); err != nil {
		return types.ClassifyFS("flush sheet", w.path, err)
	}

	n, err := w.book.WriteTo(w.temp)
	if err != nil {
		return types.ClassifyFS("write output", w.path, err)
	}
	if err := w.temp.Sync(); err != nil {
		return types.ClassifyFS("sync output", w.path, err)
	}
	if err := w.temp.Close(); err != nil {
		return types.ClassifyFS("close output", w.path, err)
	}
	w.temp = nil

	err = w.book.Close()
	w.book = nil
	if err != nil {
		return types.NewError(types.KindIO, "close workbook", w.path, err)
	}

	if err := os.Rename(w.tempPath, w.path); err != nil {
		return types.ClassifyFS("rename output", w.path, err)
	}
	w.written = n
	return nil
}

// Abort discards the workbook and removes the temporary file. It is safe
// to call more than once, and after Close.
func (w *Writer) Abort() error {
	if w.closed {
		return nil
	}
	w.closed = true

	var result *multierror.Error
	if w.temp != nil {
		if err := w.temp.Close(); err != nil {
			result = multierror.Append(result, err)
		}
		w.temp = nil
	}
	if err := os.Remove(w.tempPath); err != nil && !os.IsNotExist(err) {
		result = multierror.Append(result, err)
	}
	if w.book != nil {
		if err := w.book.Close(); err != nil {
			result = multierror.Append(result, err)
		}
		w.book = nil
	}
	return result.ErrorOrNil()
}
