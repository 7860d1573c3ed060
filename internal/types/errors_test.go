package types

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKind_NamesAndExitCodes(t *testing.T) {
	assert.Equal(t, "ConfigurationError", KindConfiguration.String())
	assert.Equal(t, "RowLimitExceededError", KindRowLimitExceeded.String())
	assert.Equal(t, "UnknownError", Kind(99).String())

	seen := map[int]Kind{}
	for k := KindUnknown; k <= KindIO; k++ {
		code := k.ExitCode()
		assert.NotZero(t, code, k.String())
		if prev, dup := seen[code]; dup && k != KindUnknown {
			t.Fatalf("exit code %d shared by %s and %s", code, prev, k)
		}
		seen[code] = k
		assert.NotEmpty(t, k.Suggestion())
	}
	assert.Equal(t, 1, Kind(42).ExitCode())
	assert.Contains(t, KindEncoding.Suggestion(), "-e")
}

func TestKindOf_Wrapped(t *testing.T) {
	base := NewError(KindMalformedRow, "read row", "in.csv", errors.New("too many fields"))
	wrapped := fmt.Errorf("convert: %w", base)

	assert.Equal(t, KindMalformedRow, KindOf(wrapped))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindUnknown, KindOf(nil))

	e, ok := AsError(wrapped)
	require.True(t, ok)
	assert.Equal(t, "in.csv", e.Path)
}

func TestError_Message(t *testing.T) {
	e := &Error{
		Kind:   KindMalformedRow,
		Op:     "read row",
		Path:   "in.csv",
		Record: 4,
		Line:   5,
		Err:    errors.New("3 fields, header has 2"),
	}
	assert.Equal(t, "MalformedRowError: read row in.csv (record 4, line 5): 3 fields, header has 2", e.Error())

	e2 := Errorf(KindConfiguration, "validate", "chunk size must be positive, got %d", 0)
	assert.Equal(t, "ConfigurationError: validate: chunk size must be positive, got 0", e2.Error())
}

func TestClassifyFS(t *testing.T) {
	assert.NoError(t, ClassifyFS("open", "x", nil))

	_, err := os.Open("/definitely/not/here.csv")
	assert.Equal(t, KindFileNotFound, KindOf(ClassifyFS("open input", "x", err)))

	perm := &fs.PathError{Op: "open", Path: "x", Err: fs.ErrPermission}
	assert.Equal(t, KindPermission, KindOf(ClassifyFS("open", "x", perm)))

	full := &fs.PathError{Op: "write", Path: "x", Err: syscall.ENOSPC}
	classified := ClassifyFS("write", "x", full)
	assert.Equal(t, KindDiskSpace, KindOf(classified))
	assert.True(t, errors.Is(classified, syscall.ENOSPC))

	assert.Equal(t, KindIO, KindOf(ClassifyFS("write", "x", errors.New("boom"))))

	already := NewError(KindEncoding, "decode", "x", errors.New("bad byte"))
	assert.Same(t, already, ClassifyFS("open", "y", already))
}
