// =============================================================================
// CSV to XLSX Converter - Error Taxonomy
// =============================================================================
//
// Every failure that leaves a component is classified with a Kind. The
// converter never collapses a classified failure into a generic one; the CLI
// maps each kind to an exit code and an actionable suggestion.
//
// KINDS:
//   ConfigurationError       : bad inputs, detected before any input I/O
//   FileNotFoundError        : input (or output directory) does not exist
//   PermissionError          : input or output access denied
//   EncodingError            : decode failure surviving the resolver's probe
//   MalformedRowError        : structurally inconsistent data (no header, bad row)
//   DiskSpaceError           : output device is full or over quota
//   RowLimitExceededError    : more rows than one sheet can hold
//   ColumnLimitExceededError : more columns than one sheet can hold
//   CellLimitExceededError   : a value longer than one cell can hold
//   IOError                  : any other filesystem failure
//
// =============================================================================

package types

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"syscall"
)

// =============================================================================
// ERROR KINDS
// =============================================================================

// Kind classifies a conversion failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindConfiguration
	KindFileNotFound
	KindPermission
	KindEncoding
	KindMalformedRow
	KindDiskSpace
	KindRowLimitExceeded
	KindColumnLimitExceeded
	KindCellLimitExceeded
	KindIO
)

var kindNames = map[Kind]string{
	KindUnknown:             "UnknownError",
	KindConfiguration:       "ConfigurationError",
	KindFileNotFound:        "FileNotFoundError",
	KindPermission:          "PermissionError",
	KindEncoding:            "EncodingError",
	KindMalformedRow:        "MalformedRowError",
	KindDiskSpace:           "DiskSpaceError",
	KindRowLimitExceeded:    "RowLimitExceededError",
	KindColumnLimitExceeded: "ColumnLimitExceededError",
	KindCellLimitExceeded:   "CellLimitExceededError",
	KindIO:                  "IOError",
}

// kindSuggestions holds the operator-facing next step for each kind.
var kindSuggestions = map[Kind]string{
	KindUnknown:             "re-run with --verbose and inspect the log file",
	KindConfiguration:       "check the command-line flags and the configuration file",
	KindFileNotFound:        "check that the input path exists and is spelled correctly",
	KindPermission:          "check read permission on the input and write permission on the output directory",
	KindEncoding:            "re-run with an explicit encoding, e.g. -e latin-1 or -e cp1252",
	KindMalformedRow:        "check the delimiter (-d), --skip-rows, or use --overlong-rows truncate",
	KindDiskSpace:           "free disk space on the output device or choose another output path",
	KindRowLimitExceeded:    "split the input file; one sheet holds at most 1,048,576 rows",
	KindColumnLimitExceeded: "reduce the number of columns; one sheet holds at most 16,384 columns",
	KindCellLimitExceeded:   "shorten the offending value; one cell holds at most 32,767 characters",
	KindIO:                  "check the output device and re-run",
}

// String returns the taxonomy name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindUnknown]
}

// Suggestion returns an actionable hint for the operator.
func (k Kind) Suggestion() string {
	if s, ok := kindSuggestions[k]; ok {
		return s
	}
	return kindSuggestions[KindUnknown]
}

// ExitCode returns the process exit code for the kind. Always non-zero.
func (k Kind) ExitCode() int {
	if k <= KindUnknown || k > KindIO {
		return 1
	}
	return int(k) + 1
}

// =============================================================================
// CLASSIFIED ERROR
// =============================================================================

// Error is a classified conversion failure.
type Error struct {
	// Kind is the failure classification.
	Kind Kind

	// Op names the operation that failed, e.g. "open input" or "append batch".
	Op string

	// Path is the file involved, if any.
	Path string

	// Record is the 1-based source record number (0 if unknown).
	Record int64

	// Line is the 1-based source line of the record (0 if unknown).
	Line int

	// Batch is the 1-based batch index being processed (0 if none yet).
	Batch int

	// RowsWritten is the number of data rows already written when the
	// failure happened. Set by the converter.
	RowsWritten int64

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Op != "" {
		b.WriteString(": ")
		b.WriteString(e.Op)
	}
	if e.Path != "" {
		fmt.Fprintf(&b, " %s", e.Path)
	}
	if e.Record > 0 {
		fmt.Fprintf(&b, " (record %d", e.Record)
		if e.Line > 0 {
			fmt.Fprintf(&b, ", line %d", e.Line)
		}
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a classified error.
func NewError(kind Kind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// Errorf creates a classified error with a formatted cause.
func Errorf(kind Kind, op string, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the first classified error in err's chain,
// or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// AsError returns the first classified error in err's chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// ClassifyFS classifies a filesystem error.
//
// PARAMETERS:
//   - op: The operation that failed.
//   - path: The file involved.
//   - err: The raw error from the os package (or a library wrapping it).
//
// RETURNS:
//   - nil if err is nil.
//   - err unchanged if it is already classified.
//   - A new *Error otherwise, classified by the underlying cause.
func ClassifyFS(op, path string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := AsError(err); ok {
		return err
	}

	kind := KindIO
	switch {
	case errors.Is(err, fs.ErrNotExist):
		kind = KindFileNotFound
	case errors.Is(err, fs.ErrPermission):
		kind = KindPermission
	case errors.Is(err, syscall.ENOSPC), errors.Is(err, syscall.EDQUOT):
		kind = KindDiskSpace
	}

	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}
