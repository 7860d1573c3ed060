// =============================================================================
// CSV to XLSX Converter - Conversion Orchestrator
// =============================================================================
//
// This module contains the core conversion logic. It wires the encoding
// resolver, the chunk reader and the sheet writer together for a single
// file, keeps the row/byte/time counters, and produces either a Report or a
// classified failure.
//
// STATE MACHINE:
//   INIT -> RESOLVING_ENCODING -> STREAMING -> FINALIZING -> DONE
//     \              \                \             \
//      +--------------+----------------+-------------+--> FAILED
//
//   INIT               : validate the configuration; no input I/O on failure
//   RESOLVING_ENCODING : pick the input encoding; never fails (falls back)
//   STREAMING          : read batch i, write batch i, report progress, repeat
//   FINALIZING         : close the workbook, compute the report
//   DONE / FAILED      : terminal; a Converter runs exactly once
//
// MEMORY:
//   Batch i is fully written before batch i+1 is read, so at most one batch
//   of rows is held at a time.
//
// =============================================================================

package converter

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/ginjaninja78/CSV-to-XLSX-conversion/internal/charset"
	"github.com/ginjaninja78/CSV-to-XLSX-conversion/internal/config"
	"github.com/ginjaninja78/CSV-to-XLSX-conversion/internal/csvparser"
	"github.com/ginjaninja78/CSV-to-XLSX-conversion/internal/types"
	"github.com/ginjaninja78/CSV-to-XLSX-conversion/internal/xlsxwriter"
	"github.com/ginjaninja78/CSV-to-XLSX-conversion/pkg/utils"
)

// ErrAlreadyRun is returned by Run on a Converter that has already run.
var ErrAlreadyRun = errors.New("converter has already run; create a new one for each conversion")

// =============================================================================
// STATE
// =============================================================================

// State is a step of the conversion state machine.
type State int

const (
	StateInit State = iota
	StateResolvingEncoding
	StateStreaming
	StateFinalizing
	StateDone
	StateFailed
)

var stateNames = [...]string{
	StateInit:              "INIT",
	StateResolvingEncoding: "RESOLVING_ENCODING",
	StateStreaming:         "STREAMING",
	StateFinalizing:        "FINALIZING",
	StateDone:              "DONE",
	StateFailed:            "FAILED",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "UNKNOWN"
	}
	return stateNames[s]
}

// Terminal reports whether s is DONE or FAILED.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter converts one delimited text file into one workbook.
type Converter struct {
	cfg      config.ConversionConfig
	state    State
	runID    string
	observer Observer
	logger   *slog.Logger
	now      func() time.Time
	resolver *charset.Resolver

	// Counters of the run in progress.
	rows      int64
	batches   int
	inputSize int64
}

// Option configures a Converter.
type Option func(*Converter)

// WithObserver sets the observer notified of progress, completion and failure.
func WithObserver(o Observer) Option {
	return func(c *Converter) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithLogger sets the logger used for lifecycle messages.
func WithLogger(l *slog.Logger) Option {
	return func(c *Converter) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock replaces time.Now, for deterministic elapsed times in tests.
func WithClock(now func() time.Time) Option {
	return func(c *Converter) {
		if now != nil {
			c.now = now
		}
	}
}

// WithResolver replaces the encoding resolver built from the configuration.
func WithResolver(r *charset.Resolver) Option {
	return func(c *Converter) {
		if r != nil {
			c.resolver = r
		}
	}
}

// =============================================================================
// CONSTRUCTOR
// =============================================================================

// New creates a Converter for cfg. Unset optional fields of cfg take their
// defaults; cfg itself is not validated until Run.
//
// PARAMETERS:
//   - cfg: The conversion configuration.
//   - opts: Observer, logger, clock and resolver overrides.
//
// RETURNS:
//   - A Converter in StateInit.
func New(cfg config.ConversionConfig, opts ...Option) *Converter {
	cfg = config.ApplyDefaults(cfg)

	c := &Converter{
		cfg:      cfg,
		state:    StateInit,
		runID:    uuid.NewString(),
		observer: NopObserver{},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.resolver == nil {
		c.resolver = charset.NewResolver(cfg.EncodingCandidates, cfg.ProbeBytes)
	}
	c.logger = c.logger.With("run", c.runID)
	return c
}

// State returns the current state.
func (c *Converter) State() State {
	return c.state
}

// Config returns the effective configuration, defaults applied.
func (c *Converter) Config() config.ConversionConfig {
	return c.cfg
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the conversion.
//
// RETURNS:
//   - The Report, on success (state DONE).
//   - A classified error, on failure (state FAILED). A *types.Error from a
//     batch carries the batch index and the number of rows already written.
//     No output file is left behind.
//   - ErrAlreadyRun if the Converter has already run.
func (c *Converter) Run() (*Report, error) {
	if c.state != StateInit {
		return nil, ErrAlreadyRun
	}

	report, err := c.run()
	if err != nil {
		err = c.annotate(err)
		c.transition(StateFailed)
		c.observer.OnFailure(err)
		return nil, err
	}

	c.transition(StateDone)
	c.observer.OnComplete(report)
	return report, nil
}

func (c *Converter) run() (*Report, error) {
	// =========================================================================
	// INIT
	// =========================================================================
	// Validate before touching the input, then check the input can be read.

	if err := c.validate(); err != nil {
		return nil, err
	}

	// =========================================================================
	// RESOLVING_ENCODING
	// =========================================================================

	c.transition(StateResolvingEncoding)
	resolution := c.resolver.Resolve(c.cfg.InputPath, c.cfg.Encoding)
	if resolution.Source == charset.SourceFallback {
		c.logger.Warn("no encoding candidate matched, using fallback",
			"encoding", resolution.Name, "reason", resolution.Reason)
	} else {
		c.logger.Info("encoding resolved", "encoding", resolution.Name, "source", string(resolution.Source))
	}

	// =========================================================================
	// STREAMING
	// =========================================================================

	c.transition(StateStreaming)
	start := c.now()

	reader, err := csvparser.Open(c.cfg, resolution.Name)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	header := reader.Header()
	if d, ok := reader.SuspectDelimiter(); ok {
		c.logger.Warn("header has a single column that contains another delimiter; check --delimiter",
			"delimiter", c.cfg.Delimiter, "found", string(d))
	}
	c.logger.Debug("header read", "columns", len(header), "charset", reader.Charset().Name)

	writer, err := xlsxwriter.Open(c.cfg.OutputPath, c.cfg.SheetName, xlsxwriter.Options{
		MaxRows:   c.cfg.RowCeiling(),
		Overwrite: c.cfg.Overwrite,
	})
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			if err := writer.Abort(); err != nil {
				c.logger.Warn("failed to remove partial output", "error", err)
			}
		}
	}()

	if err := writer.WriteHeader(header); err != nil {
		return nil, err
	}

	for reader.Next() {
		batch := reader.Batch()
		if err := writer.AppendBatch(batch); err != nil {
			return nil, err
		}
		c.rows += int64(batch.Len())
		c.batches = batch.Index
		c.emitProgress(batch.Len(), reader.BytesRead(), start)
	}
	if err := reader.Err(); err != nil {
		return nil, err
	}

	// =========================================================================
	// FINALIZING
	// =========================================================================

	c.transition(StateFinalizing)
	if err := writer.Close(); err != nil {
		return nil, err
	}
	committed = true
	elapsed := c.now().Sub(start)

	report := &Report{
		RunID:          c.runID,
		InputPath:      c.cfg.InputPath,
		OutputPath:     c.cfg.OutputPath,
		Sheet:          c.cfg.SheetName,
		Encoding:       reader.Charset().Name,
		EncodingSource: resolution.Source,
		Columns:        len(header),
		Rows:           c.rows,
		Batches:        c.batches,
		InputBytes:     c.inputSize,
		OutputBytes:    writer.BytesWritten(),
		Elapsed:        elapsed,
		Shape:          reader.ShapeStats(),
	}
	report.RowsPerSecond, report.MBPerSecond, report.ThroughputKnown =
		newThroughput(report.Rows, report.InputBytes, elapsed)

	return report, nil
}

// validate performs the INIT checks.
func (c *Converter) validate() error {
	if err := config.Validate(c.cfg); err != nil {
		return err
	}

	size, err := utils.GetFileSize(c.cfg.InputPath)
	if err != nil {
		return types.ClassifyFS("open input", c.cfg.InputPath, err)
	}
	if utils.IsDir(c.cfg.InputPath) {
		return types.Errorf(types.KindConfiguration, "open input", "input %s is a directory", c.cfg.InputPath)
	}
	c.inputSize = size

	// Stat does not prove read permission.
	in, err := os.Open(c.cfg.InputPath)
	if err != nil {
		return types.ClassifyFS("open input", c.cfg.InputPath, err)
	}
	_ = in.Close()

	if !c.cfg.Overwrite && utils.FileExists(c.cfg.OutputPath) {
		return types.Errorf(types.KindConfiguration, "open output",
			"output file %s already exists (use --force to replace it)", c.cfg.OutputPath)
	}

	c.logger.Info("starting conversion",
		"input", c.cfg.InputPath,
		"output", c.cfg.OutputPath,
		"sheet", c.cfg.SheetName,
		"input_mb", round2(utils.ToMB(size)),
		"chunk_size", c.cfg.ChunkSize,
	)
	return nil
}

// emitProgress notifies the observer after a written batch.
func (c *Converter) emitProgress(batchRows int, bytesRead int64, start time.Time) {
	elapsed := c.now().Sub(start)
	rate, _, _ := newThroughput(c.rows, 0, elapsed)

	c.observer.OnProgress(Progress{
		Batch:         c.batches,
		BatchRows:     batchRows,
		Rows:          c.rows,
		BytesRead:     bytesRead,
		TotalBytes:    c.inputSize,
		Elapsed:       elapsed,
		RowsPerSecond: rate,
	})
}

// annotate attaches the batch index and rows written to a failure raised
// in the current state. Errors that are not yet classified are wrapped as
// KindUnknown.
func (c *Converter) annotate(err error) error {
	e, ok := types.AsError(err)
	if !ok {
		e = types.NewError(types.KindUnknown, "convert", c.cfg.InputPath, err)
		err = e
	}
	if e.Batch == 0 && c.state == StateStreaming {
		e.Batch = c.batches + 1
	}
	e.RowsWritten = c.rows
	return err
}

// transition moves to the next state.
func (c *Converter) transition(next State) {
	c.logger.Debug("state", "from", c.state.String(), "to", next.String())
	c.state = next
}
