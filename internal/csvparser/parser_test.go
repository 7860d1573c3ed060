package csvparser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/CSV-to-XLSX-conversion/internal/config"
	"github.com/ginjaninja78/CSV-to-XLSX-conversion/internal/types"
	"github.com/ginjaninja78/CSV-to-XLSX-conversion/internal/validation"
)

func writeInput(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "in.csv")
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func testConfig(path string, chunk int) config.ConversionConfig {
	return config.ApplyDefaults(config.ConversionConfig{InputPath: path, ChunkSize: chunk})
}

// readAll drains r and returns every row and the batch sizes.
func readAll(t *testing.T, r *ChunkReader) ([]types.Row, []int) {
	t.Helper()
	var rows []types.Row
	var sizes []int
	for r.Next() {
		b := r.Batch()
		assert.Equal(t, len(sizes)+1, b.Index)
		assert.Equal(t, int64(len(rows)+1), b.FirstRecord)
		rows = append(rows, b.Rows...)
		sizes = append(sizes, b.Len())
	}
	return rows, sizes
}

func TestOpen_Batches(t *testing.T) {
	path := writeInput(t, "a,b\n1,2\n3,4\n5,6\n")
	r, err := Open(testConfig(path, 2), "utf-8")
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, []string{"a", "b"}, r.Header())

	rows, sizes := readAll(t, r)
	require.NoError(t, r.Err())
	assert.Equal(t, []int{2, 1}, sizes)
	assert.Equal(t, []types.Row{{"1", "2"}, {"3", "4"}, {"5", "6"}}, rows)
	assert.Equal(t, int64(3), r.Records())
	assert.Equal(t, int64(len("a,b\n1,2\n3,4\n5,6\n")), r.BytesRead())
}

func TestOpen_ChunkSizeDoesNotChangeRows(t *testing.T) {
	var b strings.Builder
	b.WriteString("id,name\n")
	for i := 0; i < 50; i++ {
		b.WriteString("1,\"x, y\"\n")
	}
	path := writeInput(t, b.String())

	var want []types.Row
	for _, chunk := range []int{1, 7, 10000} {
		r, err := Open(testConfig(path, chunk), "utf-8")
		require.NoError(t, err)
		rows, _ := readAll(t, r)
		require.NoError(t, r.Err())
		require.NoError(t, r.Close())

		if want == nil {
			want = rows
			continue
		}
		assert.Equal(t, want, rows, "chunk %d", chunk)
	}
	assert.Len(t, want, 50)
}

func TestOpen_QuotingAndWhitespaceKept(t *testing.T) {
	path := writeInput(t, "name,note\n\"Smith, J\",\"line1\nline2\"\n  padded  ,\"say \"\"hi\"\"\"\n")
	r, err := Open(testConfig(path, 10), "utf-8")
	require.NoError(t, err)
	defer r.Close()

	rows, _ := readAll(t, r)
	require.NoError(t, r.Err())
	assert.Equal(t, []types.Row{
		{"Smith, J", "line1\nline2"},
		{"  padded  ", `say "hi"`},
	}, rows)
}

func TestOpen_QuotedCRLFBecomesLF(t *testing.T) {
	// encoding/csv folds \r\n inside a quoted field to \n.
	path := writeInput(t, "a,b\r\n\"c\r\nd\",e\r\n")
	r, err := Open(testConfig(path, 10), "utf-8")
	require.NoError(t, err)
	defer r.Close()

	rows, _ := readAll(t, r)
	require.NoError(t, r.Err())
	assert.Equal(t, []types.Row{{"c\nd", "e"}}, rows)
}

func TestOpen_HeaderOnly(t *testing.T) {
	r, err := Open(testConfig(writeInput(t, "a,b,c\n"), 10), "utf-8")
	require.NoError(t, err)
	defer r.Close()

	assert.False(t, r.Next())
	assert.NoError(t, r.Err())
	assert.Equal(t, []string{"a", "b", "c"}, r.Header())
}

func TestOpen_EmptyInput(t *testing.T) {
	_, err := Open(testConfig(writeInput(t, ""), 10), "utf-8")
	require.Error(t, err)
	assert.Equal(t, types.KindMalformedRow, types.KindOf(err))
}

func TestOpen_MissingInput(t *testing.T) {
	_, err := Open(testConfig(filepath.Join(t.TempDir(), "nope.csv"), 10), "utf-8")
	require.Error(t, err)
	assert.Equal(t, types.KindFileNotFound, types.KindOf(err))
}

func TestOpen_UnknownEncoding(t *testing.T) {
	_, err := Open(testConfig(writeInput(t, "a\n"), 10), "klingon-8")
	require.Error(t, err)
	assert.Equal(t, types.KindEncoding, types.KindOf(err))
}

func TestOpen_SkipRows(t *testing.T) {
	path := writeInput(t, "Report generated 2024-01-01\n\nid,total\n1,10\n")
	cfg := testConfig(path, 10)
	cfg.SkipRows = 1

	r, err := Open(cfg, "utf-8")
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, []string{"id", "total"}, r.Header())

	rows, _ := readAll(t, r)
	assert.Equal(t, []types.Row{{"1", "10"}}, rows)

	cfg.SkipRows = 5
	_, err = Open(cfg, "utf-8")
	require.Error(t, err)
	assert.Equal(t, types.KindMalformedRow, types.KindOf(err))
}

func TestOpen_EmptyHeaderNames(t *testing.T) {
	r, err := Open(testConfig(writeInput(t, "id,,name\n"), 10), "utf-8")
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, []string{"id", "Column_2", "name"}, r.Header())
}

func TestNext_RowShapes(t *testing.T) {
	path := writeInput(t, "a,b,c\n1\n1,2,3,,\n")
	r, err := Open(testConfig(path, 10), "utf-8")
	require.NoError(t, err)
	defer r.Close()

	rows, _ := readAll(t, r)
	require.NoError(t, r.Err())
	assert.Equal(t, []types.Row{{"1", "", ""}, {"1", "2", "3"}}, rows)
	assert.Equal(t, validation.ShapeStats{Padded: 1, Trimmed: 1}, r.ShapeStats())
}

func TestNext_OverlongRow(t *testing.T) {
	path := writeInput(t, "a,b\n1,2\n3,4,5\n")

	r, err := Open(testConfig(path, 10), "utf-8")
	require.NoError(t, err)
	defer r.Close()

	assert.False(t, r.Next())
	e, ok := types.AsError(r.Err())
	require.True(t, ok)
	assert.Equal(t, types.KindMalformedRow, e.Kind)
	assert.Equal(t, int64(2), e.Record)
	assert.Equal(t, 3, e.Line)

	cfg := testConfig(path, 10)
	cfg.OverlongRows = "truncate"
	r2, err := Open(cfg, "utf-8")
	require.NoError(t, err)
	defer r2.Close()
	rows, _ := readAll(t, r2)
	require.NoError(t, r2.Err())
	assert.Equal(t, []types.Row{{"1", "2"}, {"3", "4"}}, rows)
}

func TestNext_BadQuote(t *testing.T) {
	r, err := Open(testConfig(writeInput(t, "a,b\n1,x\"y\n"), 10), "utf-8")
	require.NoError(t, err)
	defer r.Close()

	assert.False(t, r.Next())
	assert.Equal(t, types.KindMalformedRow, types.KindOf(r.Err()))

	cfg := testConfig(writeInput(t, "a,b\n1,x\"y\n"), 10)
	cfg.LazyQuotes = true
	lazy, err := Open(cfg, "utf-8")
	require.NoError(t, err)
	defer lazy.Close()
	rows, _ := readAll(t, lazy)
	require.NoError(t, lazy.Err())
	assert.Equal(t, []types.Row{{"1", `x"y`}}, rows)
}

func TestOpen_Delimiters(t *testing.T) {
	tests := []struct {
		delimiter string
		content   string
	}{
		{";", "a;b\n1,5;2\n"},
		{"tab", "a\tb\n1,5\t2\n"},
		{"|", "a|b\n1,5|2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.delimiter, func(t *testing.T) {
			cfg := testConfig(writeInput(t, tt.content), 10)
			cfg.Delimiter = tt.delimiter
			r, err := Open(cfg, "utf-8")
			require.NoError(t, err)
			defer r.Close()

			rows, _ := readAll(t, r)
			assert.Equal(t, []types.Row{{"1,5", "2"}}, rows)
		})
	}
}

func TestSuspectDelimiter(t *testing.T) {
	r, err := Open(testConfig(writeInput(t, "a;b;c\n1;2;3\n"), 10), "utf-8")
	require.NoError(t, err)
	defer r.Close()

	d, ok := r.SuspectDelimiter()
	assert.True(t, ok)
	assert.Equal(t, ';', d)

	r2, err := Open(testConfig(writeInput(t, "a,b\n"), 10), "utf-8")
	require.NoError(t, err)
	defer r2.Close()
	_, ok = r2.SuspectDelimiter()
	assert.False(t, ok)
}

func TestOpen_Encodings(t *testing.T) {
	t.Run("utf-8 bom stripped", func(t *testing.T) {
		r, err := Open(testConfig(writeInput(t, "\xEF\xBB\xBFid,name\n1,é\n"), 10), "utf-8-sig")
		require.NoError(t, err)
		defer r.Close()
		assert.Equal(t, []string{"id", "name"}, r.Header())
	})

	t.Run("latin-1 transcoded", func(t *testing.T) {
		r, err := Open(testConfig(writeInput(t, "nome\nJos\xe9\n"), 10), "latin-1")
		require.NoError(t, err)
		defer r.Close()
		rows, _ := readAll(t, r)
		require.NoError(t, r.Err())
		assert.Equal(t, []types.Row{{"José"}}, rows)
	})

	t.Run("invalid utf-8", func(t *testing.T) {
		r, err := Open(testConfig(writeInput(t, "nome\nJos\xe9\n"), 10), "utf-8")
		require.NoError(t, err)
		defer r.Close()
		assert.False(t, r.Next())
		e, ok := types.AsError(r.Err())
		require.True(t, ok)
		assert.Equal(t, types.KindEncoding, e.Kind)
		assert.Equal(t, int64(1), e.Record)
	})
}
