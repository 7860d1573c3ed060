// =============================================================================
// CSV to XLSX Converter - Row Shape Validation Module
// =============================================================================
//
// This module reconciles each data row with the width of the header row.
// The output sheet is rectangular, so every row must end up with exactly one
// cell per header column.
//
// RECONCILIATION RULES:
//   - Row shorter than the header : padded with empty cells on the right.
//   - Row longer than the header, extra cells all empty
//                                 : extra cells dropped (nothing is lost).
//   - Row longer than the header, extra cells carry data
//                                 : depends on the Policy.
//                                   "error"    -> ShapeError (default)
//                                   "truncate" -> extra cells dropped, counted
//
// =============================================================================

package validation

import (
	"fmt"
	"strings"
)

// =============================================================================
// POLICY
// =============================================================================

// Policy decides what happens to rows that are longer than the header.
type Policy string

const (
	// PolicyError rejects over-long rows, avoiding silent data loss.
	PolicyError Policy = "error"

	// PolicyTruncate drops the extra cells and keeps going.
	PolicyTruncate Policy = "truncate"
)

// ParsePolicy converts a configuration string to a Policy.
// The empty string selects PolicyError.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyError:
		return PolicyError, nil
	case PolicyTruncate:
		return PolicyTruncate, nil
	default:
		return "", fmt.Errorf("unknown over-long row policy %q (want %q or %q)", s, PolicyError, PolicyTruncate)
	}
}

// =============================================================================
// SHAPE ERROR
// =============================================================================

// ShapeError reports a row that cannot be reconciled with the header.
type ShapeError struct {
	// Record is the 1-based data record number.
	Record int64

	// Line is the source line where the record starts.
	Line int

	// Fields is the number of fields found in the record.
	Fields int

	// Expected is the header width.
	Expected int
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	return fmt.Sprintf("record has %d fields but the header has %d; the extra fields are not empty", e.Fields, e.Expected)
}

// =============================================================================
// SHAPER
// =============================================================================

// ShapeStats counts the reconciliations performed so far.
type ShapeStats struct {
	// Padded is the number of short rows padded with empty cells.
	Padded int64

	// Trimmed is the number of long rows whose extra cells were all empty.
	Trimmed int64

	// Truncated is the number of long rows cut under PolicyTruncate.
	Truncated int64
}

// Shaper reconciles rows against a fixed header width.
type Shaper struct {
	width  int
	policy Policy
	stats  ShapeStats
}

// NewShaper creates a Shaper for rows of the given width.
func NewShaper(width int, policy Policy) *Shaper {
	if policy == "" {
		policy = PolicyError
	}
	return &Shaper{width: width, policy: policy}
}

// Stats returns the reconciliation counters.
func (s *Shaper) Stats() ShapeStats {
	return s.stats
}

// Reconcile returns row adjusted to exactly the header width.
//
// PARAMETERS:
//   - row: The parsed record. It may be modified or extended in place.
//   - record: The 1-based data record number (for error reporting).
//   - line: The source line of the record (for error reporting).
//
// RETURNS:
//   - The reconciled row.
//   - A *ShapeError if the row is longer than the header, the extra cells
//     carry data, and the policy is PolicyError.
func (s *Shaper) Reconcile(row []string, record int64, line int) ([]string, error) {
	switch {
	case len(row) == s.width:
		return row, nil

	case len(row) < s.width:
		s.stats.Padded++
		for len(row) < s.width {
			row = append(row, "")
		}
		return row, nil

	case isRowEmpty(row[s.width:]):
		s.stats.Trimmed++
		return row[:s.width], nil

	case s.policy == PolicyTruncate:
		s.stats.Truncated++
		return row[:s.width], nil

	default:
		return nil, &ShapeError{Record: record, Line: line, Fields: len(row), Expected: s.width}
	}
}

// isRowEmpty checks if a row contains only empty values.
// Whitespace counts as data here: a cell of spaces is not empty.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}
