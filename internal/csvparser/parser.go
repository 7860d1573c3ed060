// =============================================================================
// CSV to XLSX Converter - CSV Chunk Reader Module
// =============================================================================
//
// This module reads delimited text files in fixed-size batches of rows. The
// whole file is never loaded: a ChunkReader holds at most one batch at a
// time, so memory use is bounded by the chunk size, not the file size.
//
// FEATURES:
//   - Configurable single-character delimiter (comma, semicolon, tab, pipe...)
//   - RFC 4180 quoting, including quoted delimiters and embedded newlines
//   - Any encoding known to the charset registry, transcoded to UTF-8
//   - Leading records skipped before the header (e.g. report banners)
//   - Every data row reconciled to the header width
//   - Byte-level progress (raw input bytes consumed so far)
//
// USAGE:
//   reader, err := csvparser.Open(cfg, "utf-8")
//   if err != nil {
//       return err
//   }
//   defer reader.Close()
//
//   for reader.Next() {
//       batch := reader.Batch()
//       // Write the batch...
//   }
//
//   if err := reader.Err(); err != nil {
//       return err
//   }
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/transform"

	"github.com/ginjaninja78/CSV-to-XLSX-conversion/internal/charset"
	"github.com/ginjaninja78/CSV-to-XLSX-conversion/internal/config"
	"github.com/ginjaninja78/CSV-to-XLSX-conversion/internal/types"
	"github.com/ginjaninja78/CSV-to-XLSX-conversion/internal/validation"
)

// readBufferSize is the size of the buffer between the file and the decoder.
const readBufferSize = 64 * 1024

// maxBatchPrealloc caps the capacity preallocated for one batch.
const maxBatchPrealloc = 4096

// =============================================================================
// CHUNK READER
// =============================================================================

// ChunkReader yields the data rows of a delimited text file in batches.
type ChunkReader struct {
	path      string
	file      *os.File
	counter   *countingReader
	reader    *csv.Reader
	charset   charset.Charset
	header    []string
	delimiter rune
	shaper    *validation.Shaper
	chunkSize int

	records int64
	batches int
	batch   types.RowBatch
	err     error
	done    bool
	closed  bool
}

// Open opens the input file named by cfg and reads up to the header.
//
// PARAMETERS:
//   - cfg: The validated conversion configuration.
//   - encodingName: The resolved encoding of the input (never "auto").
//
// RETURNS:
//   - A ChunkReader positioned on the first data record.
//   - A classified *types.Error if the file cannot be opened, the encoding
//     is unknown, or no header row exists.
func Open(cfg config.ConversionConfig, encodingName string) (*ChunkReader, error) {
	cs, err := charset.Lookup(encodingName)
	if err != nil {
		return nil, types.NewError(types.KindEncoding, "open input", cfg.InputPath, err)
	}

	delimiter, err := config.ResolveDelimiter(cfg.Delimiter)
	if err != nil {
		return nil, types.NewError(types.KindConfiguration, "open input", cfg.InputPath, err)
	}

	policy, err := validation.ParsePolicy(cfg.OverlongRows)
	if err != nil {
		return nil, types.NewError(types.KindConfiguration, "open input", cfg.InputPath, err)
	}

	if cfg.ChunkSize <= 0 {
		return nil, types.Errorf(types.KindConfiguration, "open input", "chunk size must be positive, got %d", cfg.ChunkSize)
	}

	file, err := os.Open(cfg.InputPath)
	if err != nil {
		return nil, types.ClassifyFS("open input", cfg.InputPath, err)
	}

	counter := &countingReader{reader: file}
	buffered := bufio.NewReaderSize(counter, readBufferSize)

	var src io.Reader = buffered
	if cs.IsUTF8() {
		if err := skipBOM(buffered); err != nil {
			file.Close()
			return nil, types.ClassifyFS("read input", cfg.InputPath, err)
		}
	} else {
		src = transform.NewReader(buffered, cs.Encoding.NewDecoder())
	}

	reader := csv.NewReader(src)
	configureReader(reader, delimiter, cfg.LazyQuotes)

	r := &ChunkReader{
		path:      cfg.InputPath,
		file:      file,
		counter:   counter,
		reader:    reader,
		charset:   cs,
		delimiter: delimiter,
		chunkSize: cfg.ChunkSize,
	}

	if err := r.readHeader(cfg.SkipRows, policy); err != nil {
		file.Close()
		return nil, err
	}

	return r, nil
}

// configureReader configures the CSV reader.
//
// PARAMETERS:
//   - reader: The CSV reader to configure.
//   - delimiter: The resolved field delimiter.
//   - lazyQuotes: Whether stray quotes inside fields are tolerated.
//
// Field values are kept exactly as written: no trimming, and a variable
// number of fields per record is accepted so rows can be reconciled later.
// The one exception is a quoted \r\n, which encoding/csv reads as \n.
func configureReader(reader *csv.Reader, delimiter rune, lazyQuotes bool) {
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = lazyQuotes
	reader.TrimLeadingSpace = false
	reader.ReuseRecord = false
}

// readHeader skips the configured leading records and reads the header.
func (r *ChunkReader) readHeader(skipRows int, policy validation.Policy) error {
	for i := 0; i < skipRows; i++ {
		_, _, err := r.readRecord()
		if err == io.EOF {
			return types.Errorf(types.KindMalformedRow, "read header",
				"no header row: the input ends after %d record(s) but %d are skipped", i, skipRows)
		}
		if err != nil {
			return err
		}
	}

	header, _, err := r.readRecord()
	if err == io.EOF {
		if skipRows > 0 {
			return types.Errorf(types.KindMalformedRow, "read header",
				"no header row: the input ends after the %d skipped record(s)", skipRows)
		}
		return types.Errorf(types.KindMalformedRow, "read header", "input is empty: a header row is required")
	}
	if err != nil {
		return err
	}

	r.header = cleanHeaders(header)
	r.shaper = validation.NewShaper(len(r.header), policy)
	return nil
}

// readRecord reads one record and checks its text.
//
// RETURNS:
//   - The record fields and the source line where the record starts.
//   - io.EOF at the end of input.
//   - A classified *types.Error otherwise.
func (r *ChunkReader) readRecord() ([]string, int, error) {
	record, err := r.reader.Read()
	if err == io.EOF {
		return nil, 0, io.EOF
	}
	if err != nil {
		return nil, 0, r.classifyReadError(err)
	}

	line, _ := r.reader.FieldPos(0)
	for _, field := range record {
		if !r.validText(field) {
			return nil, line, &types.Error{
				Kind:   types.KindEncoding,
				Op:     "decode record",
				Path:   r.path,
				Record: r.records + 1,
				Line:   line,
				Err:    fmt.Errorf("byte sequence is not valid %s", r.charset.Name),
			}
		}
	}
	return record, line, nil
}

// validText reports whether a decoded field is free of undecodable bytes.
func (r *ChunkReader) validText(field string) bool {
	if r.charset.IsUTF8() {
		return utf8.ValidString(field)
	}
	return !strings.ContainsRune(field, utf8.RuneError)
}

// classifyReadError maps a csv.Reader failure to a classified error.
func (r *ChunkReader) classifyReadError(err error) error {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return &types.Error{
			Kind:   types.KindMalformedRow,
			Op:     "parse record",
			Path:   r.path,
			Record: r.records + 1,
			Line:   parseErr.StartLine,
			Err:    parseErr.Err,
		}
	}

	// The file itself failed; anything else came from the decoder.
	if r.counter.err != nil {
		return types.ClassifyFS("read input", r.path, r.counter.err)
	}
	return &types.Error{
		Kind:   types.KindEncoding,
		Op:     "decode input",
		Path:   r.path,
		Record: r.records + 1,
		Err:    fmt.Errorf("%s: %w", r.charset.Name, err),
	}
}

// Next reads the next batch. It returns false at the end of input or on
// error; call Err to tell them apart.
func (r *ChunkReader) Next() bool {
	if r.err != nil || r.done || r.closed {
		return false
	}

	rows := make([]types.Row, 0, min(r.chunkSize, maxBatchPrealloc))
	first := r.records + 1

	for len(rows) < r.chunkSize {
		record, line, err := r.readRecord()
		if err == io.EOF {
			r.done = true
			break
		}
		if err != nil {
			r.err = err
			return false
		}

		r.records++
		row, err := r.shaper.Reconcile(record, r.records, line)
		if err != nil {
			r.err = &types.Error{
				Kind:   types.KindMalformedRow,
				Op:     "reconcile record",
				Path:   r.path,
				Record: r.records,
				Line:   line,
				Err:    err,
			}
			return false
		}
		rows = append(rows, types.Row(row))
	}

	if len(rows) == 0 {
		return false
	}

	r.batches++
	r.batch = types.RowBatch{Index: r.batches, FirstRecord: first, Rows: rows}
	return true
}

// Batch returns the batch read by the last successful call to Next.
func (r *ChunkReader) Batch() types.RowBatch {
	return r.batch
}

// Err returns the error that stopped Next, if any.
func (r *ChunkReader) Err() error {
	return r.err
}

// Header returns the header row.
func (r *ChunkReader) Header() []string {
	return r.header
}

// Charset returns the encoding the input is decoded with.
func (r *ChunkReader) Charset() charset.Charset {
	return r.charset
}

// Records returns the number of data records read so far.
func (r *ChunkReader) Records() int64 {
	return r.records
}

// BytesRead returns the number of raw input bytes consumed so far.
// Reads are buffered, so the count runs ahead of the rows returned.
func (r *ChunkReader) BytesRead() int64 {
	return r.counter.bytesRead
}

// ShapeStats returns the row reconciliation counters.
func (r *ChunkReader) ShapeStats() validation.ShapeStats {
	return r.shaper.Stats()
}

// SuspectDelimiter reports another common delimiter found in a
// single-column header, which usually means the wrong delimiter was given.
func (r *ChunkReader) SuspectDelimiter() (rune, bool) {
	if len(r.header) != 1 {
		return 0, false
	}
	for _, d := range []rune{',', ';', '\t', '|'} {
		if d != r.delimiter && strings.ContainsRune(r.header[0], d) {
			return d, true
		}
	}
	return 0, false
}

// Close closes the underlying file. It is safe to call more than once.
func (r *ChunkReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.file.Close()
}

// =============================================================================
// HEADER HELPERS
// =============================================================================

// cleanHeaders names empty header cells.
//
// Non-empty header values are kept exactly, whitespace included, so the
// output header reproduces the input.
//
// CUSTOMIZATION:
//   Change the placeholder format here. Columns are numbered from 1.
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))

	for i, header := range headers {
		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}
		cleaned[i] = header
	}

	return cleaned
}
