package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/CSV-to-XLSX-conversion/internal/config"
	"github.com/ginjaninja78/CSV-to-XLSX-conversion/internal/converter"
	"github.com/ginjaninja78/CSV-to-XLSX-conversion/internal/types"
)

func TestSetup_ConsoleAndFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "run.log")
	cfg := config.DefaultFileConfig().Log
	cfg.File = logFile

	var console bytes.Buffer
	logger, closer := Setup(cfg, &console, false)
	logger.Debug("hidden")
	logger.Info("visible", "rows", 3)
	require.NoError(t, closer.Close())

	assert.Contains(t, console.String(), "visible")
	assert.NotContains(t, console.String(), "hidden")

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "rows=3")
}

func TestSetup_VerboseAndJSON(t *testing.T) {
	var console bytes.Buffer
	logger, closer := Setup(config.LogConfig{File: DisabledFile, Format: "json", Level: "error"}, &console, true)
	defer closer.Close()

	logger.Debug("details")
	assert.Contains(t, console.String(), `"msg":"details"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
}

func TestObserver(t *testing.T) {
	var buf bytes.Buffer
	obs := NewObserver(slog.New(slog.NewTextHandler(&buf, nil)))

	obs.OnProgress(converter.Progress{Batch: 2, BatchRows: 10, Rows: 20, BytesRead: 50, TotalBytes: 200, Elapsed: 1500 * time.Millisecond, RowsPerSecond: 13.3})
	assert.Contains(t, buf.String(), "batch=2")
	assert.Contains(t, buf.String(), "percent=25")

	buf.Reset()
	obs.OnComplete(&converter.Report{Rows: 20, Sheet: "Sheet1"})
	assert.Contains(t, buf.String(), "conversion complete")
	assert.Contains(t, buf.String(), "report.rows=20")

	buf.Reset()
	obs.OnFailure(&types.Error{Kind: types.KindEncoding, Op: "decode record", Batch: 3, RowsWritten: 20, Err: errors.New("bad byte")})
	assert.Contains(t, buf.String(), "kind=EncodingError")
	assert.Contains(t, buf.String(), "rows_written=20")
	assert.Contains(t, buf.String(), "explicit encoding")
}
