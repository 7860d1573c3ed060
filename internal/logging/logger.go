// Package logging configures structured logging for the converter.
//
// Every record goes to the console and to a rotating log file, so a run
// can be followed live and audited afterwards. The progress observer turns
// the converter's notifications into log records.
package logging

import (
	"io"
	"log/slog"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ginjaninja78/CSV-to-XLSX-conversion/internal/config"
)

// DisabledFile is the log file name that turns the file output off.
const DisabledFile = "none"

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup builds a logger writing to console and to the configured log file.
//
// Level values: "debug", "info", "warn", "error" (default: "info").
// verbose forces "debug". Format values: "text", "json" (default: "text").
//
// The returned io.Closer closes the log file; call it before exiting.
func Setup(cfg config.LogConfig, console io.Writer, verbose bool) (*slog.Logger, io.Closer) {
	level := parseLevel(cfg.Level)
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var writers []io.Writer
	if console != nil {
		writers = append(writers, console)
	}

	var closer io.Closer = nopCloser{}
	if cfg.File != "" && !strings.EqualFold(cfg.File, DisabledFile) {
		file := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB, // megabytes
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays, // days
			LocalTime:  true,
		}
		writers = append(writers, file)
		closer = file
	}

	out := io.Discard
	if len(writers) > 0 {
		out = io.MultiWriter(writers...)
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	return slog.New(handler), closer
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
