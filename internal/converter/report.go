package converter

import (
	"log/slog"
	"math"
	"time"

	"github.com/ginjaninja78/CSV-to-XLSX-conversion/internal/charset"
	"github.com/ginjaninja78/CSV-to-XLSX-conversion/internal/validation"
	"github.com/ginjaninja78/CSV-to-XLSX-conversion/pkg/utils"
)

// minMeasurableElapsed is the shortest elapsed time throughput is derived from.
const minMeasurableElapsed = time.Microsecond

// =============================================================================
// REPORT
// =============================================================================

// Report is the outcome of a successful conversion. It is produced once,
// when the run reaches StateDone.
type Report struct {
	// RunID identifies the run in logs.
	RunID string

	// InputPath is the converted file.
	InputPath string

	// OutputPath is the produced workbook.
	OutputPath string

	// Sheet is the name of the output sheet.
	Sheet string

	// Encoding is the encoding the input was decoded with.
	Encoding string

	// EncodingSource tells whether the encoding was declared, detected or a fallback.
	EncodingSource charset.Source

	// Columns is the header width.
	Columns int

	// Rows is the number of data rows written (header excluded).
	Rows int64

	// Batches is the number of batches written.
	Batches int

	// InputBytes is the size of the input file.
	InputBytes int64

	// OutputBytes is the size of the produced workbook.
	OutputBytes int64

	// Elapsed is the wall time from the start of streaming to the end of
	// finalizing.
	Elapsed time.Duration

	// ThroughputKnown is false when Elapsed was too short to measure; the
	// rates below are then zero and must not be reported.
	ThroughputKnown bool

	// RowsPerSecond is Rows / Elapsed.
	RowsPerSecond float64

	// MBPerSecond is input megabytes / Elapsed.
	MBPerSecond float64

	// Shape counts the rows that were padded, trimmed or truncated.
	Shape validation.ShapeStats
}

// newThroughput derives rates from a count, a byte size and elapsed time.
// ok is false when elapsed is effectively zero.
func newThroughput(rows, bytes int64, elapsed time.Duration) (rowsPerSec, mbPerSec float64, ok bool) {
	if elapsed < minMeasurableElapsed {
		return 0, 0, false
	}
	secs := elapsed.Seconds()
	return float64(rows) / secs, utils.ToMB(bytes) / secs, true
}

// LogValue implements slog.LogValuer.
func (r *Report) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("input", r.InputPath),
		slog.String("output", r.OutputPath),
		slog.String("sheet", r.Sheet),
		slog.String("encoding", r.Encoding),
		slog.String("encoding_source", string(r.EncodingSource)),
		slog.Int("columns", r.Columns),
		slog.Int64("rows", r.Rows),
		slog.Int("batches", r.Batches),
		slog.Float64("input_mb", round2(utils.ToMB(r.InputBytes))),
		slog.Float64("output_mb", round2(utils.ToMB(r.OutputBytes))),
		slog.Duration("elapsed", r.Elapsed),
	}
	if r.ThroughputKnown {
		attrs = append(attrs,
			slog.Float64("rows_per_sec", round2(r.RowsPerSecond)),
			slog.Float64("mb_per_sec", round2(r.MBPerSecond)),
		)
	}
	if r.Shape != (validation.ShapeStats{}) {
		attrs = append(attrs,
			slog.Int64("rows_padded", r.Shape.Padded),
			slog.Int64("rows_trimmed", r.Shape.Trimmed),
			slog.Int64("rows_truncated", r.Shape.Truncated),
		)
	}
	return slog.GroupValue(attrs...)
}

// =============================================================================
// PROGRESS
// =============================================================================

// Progress is the observation emitted after each written batch.
type Progress struct {
	// Batch is the 1-based index of the batch just written.
	Batch int

	// BatchRows is the number of rows in that batch.
	BatchRows int

	// Rows is the running total of data rows written.
	Rows int64

	// BytesRead is the number of input bytes consumed so far.
	BytesRead int64

	// TotalBytes is the input file size.
	TotalBytes int64

	// Elapsed is the time since streaming began.
	Elapsed time.Duration

	// RowsPerSecond is the running throughput; zero while Elapsed is too
	// short to measure.
	RowsPerSecond float64
}

// Percent returns the share of input bytes consumed, from 0 to 100.
func (p Progress) Percent() float64 {
	if p.TotalBytes <= 0 {
		return 0
	}
	pct := float64(p.BytesRead) * 100 / float64(p.TotalBytes)
	if pct > 100 {
		pct = 100
	}
	return pct
}

// =============================================================================
// OBSERVER
// =============================================================================

// Observer receives progress, completion and failure notifications.
// Calls are made synchronously from Run, between batches.
type Observer interface {
	OnProgress(Progress)
	OnComplete(*Report)
	OnFailure(error)
}

// NopObserver ignores every notification.
type NopObserver struct{}

func (NopObserver) OnProgress(Progress) {}
func (NopObserver) OnComplete(*Report)  {}
func (NopObserver) OnFailure(error)     {}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
