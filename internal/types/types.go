// =============================================================================
// CSV to XLSX Converter - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - csvparser  (produces RowBatch values)
//   - xlsxwriter (consumes RowBatch values)
//   - converter  (moves batches between the two and classifies failures)
//
// =============================================================================

package types

// =============================================================================
// ROW TYPES
// =============================================================================

// Row is a single data row. Every cell is already normalized to text;
// no type inference is attempted anywhere in the pipeline.
type Row []string

// RowBatch is an ordered group of rows read and written together.
//
// A batch holds at most the configured chunk size of rows. Only the last
// batch of a stream may be shorter. The reader allocates a fresh batch for
// every chunk, so a batch may be released as soon as it has been written.
type RowBatch struct {
	// Index is the 1-based position of this batch in the stream.
	Index int

	// FirstRecord is the 1-based source record number of Rows[0],
	// counted after skipped rows and the header. Useful for error reporting.
	FirstRecord int64

	// Rows contains the batch rows in input order.
	Rows []Row
}

// Len returns the number of rows in the batch.
func (b RowBatch) Len() int {
	return len(b.Rows)
}
