package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplaceExtension(t *testing.T) {
	assert.Equal(t, "data/export.xlsx", ReplaceExtension("data/export.csv", ".xlsx"))
	assert.Equal(t, "data/export.xlsx", ReplaceExtension("data/export", ".xlsx"))
	assert.Equal(t, "a.b.xlsx", ReplaceExtension("a.b.txt", ".xlsx"))
}

func TestTempSibling(t *testing.T) {
	p := TempSibling(filepath.Join("out", "report.xlsx"))
	assert.Equal(t, "out", filepath.Dir(p))
	base := filepath.Base(p)
	assert.True(t, strings.HasPrefix(base, ".report.xlsx."))
	assert.True(t, strings.HasSuffix(base, ".tmp"))
	assert.NotEqual(t, p, TempSibling(filepath.Join("out", "report.xlsx")))
}

func TestEnsureParentDir(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "a", "b", "out.xlsx")

	require.NoError(t, EnsureParentDir(target))
	info, err := os.Stat(filepath.Join(dir, "a", "b"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	require.NoError(t, EnsureParentDir("out.xlsx"))
}

func TestFileHelpers(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "f.csv")
	assert.False(t, FileExists(p))

	require.NoError(t, os.WriteFile(p, []byte("abc"), 0644))
	assert.True(t, FileExists(p))
	assert.False(t, IsDir(p))
	assert.True(t, IsDir(dir))
	assert.False(t, IsDir(filepath.Join(dir, "missing")))

	size, err := GetFileSize(p)
	require.NoError(t, err)
	assert.Equal(t, int64(3), size)

	assert.InDelta(t, 1.0, ToMB(1024*1024), 1e-9)
	assert.True(t, SamePath(p, filepath.Join(dir, ".", "f.csv")))
	assert.False(t, SamePath(p, filepath.Join(dir, "g.csv")))
}
