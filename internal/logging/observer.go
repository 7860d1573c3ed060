package logging

import (
	"log/slog"
	"math"
	"time"

	"github.com/ginjaninja78/CSV-to-XLSX-conversion/internal/converter"
	"github.com/ginjaninja78/CSV-to-XLSX-conversion/internal/types"
)

var _ converter.Observer = (*Observer)(nil)

// Observer logs the converter's progress, report and failure.
type Observer struct {
	logger *slog.Logger
}

// NewObserver returns an Observer writing to logger.
func NewObserver(logger *slog.Logger) *Observer {
	return &Observer{logger: logger}
}

// OnProgress logs one line per written batch.
func (o *Observer) OnProgress(p converter.Progress) {
	o.logger.Info("batch written",
		"batch", p.Batch,
		"batch_rows", p.BatchRows,
		"rows", p.Rows,
		"percent", round1(p.Percent()),
		"elapsed", p.Elapsed.Round(time.Millisecond),
		"rows_per_sec", math.Round(p.RowsPerSecond),
	)
}

// OnComplete logs the final report.
func (o *Observer) OnComplete(r *converter.Report) {
	o.logger.Info("conversion complete", "report", r)
}

// OnFailure logs the classified failure with its suggestion.
func (o *Observer) OnFailure(err error) {
	kind := types.KindOf(err)
	args := []any{
		"kind", kind.String(),
		"error", err.Error(),
		"suggestion", kind.Suggestion(),
	}
	if e, ok := types.AsError(err); ok {
		args = append(args, "batch", e.Batch, "rows_written", e.RowsWritten)
	}
	o.logger.Error("conversion failed", args...)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
