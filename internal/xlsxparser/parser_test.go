package xlsxparser

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func makeWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	_, err := f.NewSheet("Notes")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "book.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestInspect(t *testing.T) {
	path := makeWorkbook(t, [][]interface{}{
		{"id", "name", "city"},
		{"1", "Ana", "Porto"},
		{"2", "Rui"},
	})

	s, err := Inspect(path, "")
	require.NoError(t, err)
	assert.Equal(t, "Sheet1", s.Name)
	assert.Equal(t, []string{"Sheet1", "Notes"}, s.Sheets)
	assert.Equal(t, []string{"id", "name", "city"}, s.Header)
	assert.Equal(t, 3, s.Columns)
	assert.Equal(t, int64(2), s.Rows)

	_, err = Inspect(path, "Missing")
	assert.Error(t, err)

	_, err = Inspect(filepath.Join(t.TempDir(), "none.xlsx"), "")
	assert.Error(t, err)
}

func TestReadRows_PadsToHeaderWidth(t *testing.T) {
	path := makeWorkbook(t, [][]interface{}{
		{"id", "name", "city"},
		{"1", "Ana", "Porto"},
		{"2", "Rui"},
	})

	var got [][]string
	var records []int64
	err := ReadRows(path, "Sheet1", func(record int64, row []string) error {
		records = append(records, record)
		got = append(got, row)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, records)
	assert.Equal(t, [][]string{{"1", "Ana", "Porto"}, {"2", "Rui", ""}}, got)
}

func TestReadRows_Stop(t *testing.T) {
	path := makeWorkbook(t, [][]interface{}{{"a"}, {"1"}, {"2"}, {"3"}})

	seen := 0
	err := ReadRows(path, "", func(record int64, row []string) error {
		seen++
		if record == 2 {
			return ErrStop
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, seen)
}
