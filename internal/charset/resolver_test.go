package charset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "in.csv")
	require.NoError(t, os.WriteFile(p, content, 0644))
	return p
}

func TestResolve_DeclaredIsReturnedUnchanged(t *testing.T) {
	r := NewResolver(nil, 0)
	res := r.Resolve("/does/not/matter.csv", "Windows-1252")
	assert.Equal(t, "Windows-1252", res.Name)
	assert.Equal(t, SourceDeclared, res.Source)
}

func TestResolve_Detection(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		want    string
	}{
		{"ascii", []byte("a,b\n1,2\n"), UTF8},
		{"utf8 multibyte", []byte("nome,cidade\nJosé,São Paulo\n"), UTF8},
		{"utf8 bom", append([]byte{0xEF, 0xBB, 0xBF}, []byte("a,b\n1,2\n")...), UTF8BOM},
		{"utf16 le bom", []byte{0xFF, 0xFE, 'a', 0, ',', 0, 'b', 0, '\n', 0}, UTF16},
		{"latin1", []byte("nome\nJos\xe9\n"), Latin1},
		{"cp1252 curly quotes", []byte("quote\n\x93hi\x94\n"), CP1252},
		{"shift_jis ideographic space", []byte("a\x81\x40b,c\n"), ShiftJIS},
	}

	r := NewResolver(nil, 0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := r.Resolve(writeFile(t, tt.content), "auto")
			assert.Equal(t, tt.want, res.Name)
			assert.Equal(t, SourceDetected, res.Source)
		})
	}
}

func TestResolve_FallbackWhenNothingMatches(t *testing.T) {
	r := NewResolver(nil, 0)
	res := r.Resolve(writeFile(t, []byte("a,b\n\x81\x7f,c\n")), "AUTO")
	assert.Equal(t, Fallback, res.Name)
	assert.Equal(t, SourceFallback, res.Source)
	assert.Error(t, res.Reason)
}

func TestResolve_MissingFileFallsBack(t *testing.T) {
	r := NewResolver(nil, 0)
	res := r.Resolve(filepath.Join(t.TempDir(), "missing.csv"), "auto")
	assert.Equal(t, Fallback, res.Name)
	assert.Equal(t, SourceFallback, res.Source)
	assert.Error(t, res.Reason)
}

func TestResolve_EmptyFileFallsBack(t *testing.T) {
	res := NewResolver(nil, 0).Resolve(writeFile(t, nil), "auto")
	assert.Equal(t, SourceFallback, res.Source)
}

func TestResolve_ProbeIsBounded(t *testing.T) {
	// Clean ASCII prefix followed by a latin-1 byte beyond the probe window.
	content := append([]byte("a,b\n1,2\n3,4\n"), 0xE9)
	r := NewResolver([]string{UTF8, Latin1}, 8)
	assert.Equal(t, UTF8, r.Resolve(writeFile(t, content), "auto").Name)
}

func TestResolve_CustomCandidateOrder(t *testing.T) {
	r := NewResolver([]string{"not-an-encoding", CP1252}, 0)
	res := r.Resolve(writeFile(t, []byte("Jos\xe9\n")), "auto")
	assert.Equal(t, CP1252, res.Name)
	assert.Equal(t, []string{"not-an-encoding", CP1252}, r.Candidates())
}

func TestProbe_PartialRuneAtBoundary(t *testing.T) {
	cs, err := Lookup(UTF8)
	require.NoError(t, err)

	cut := []byte("ok \xc3") // first byte of "é"
	assert.True(t, Probe(cs, cut, false))
	assert.False(t, Probe(cs, cut, true))
}

func TestLookup(t *testing.T) {
	for _, name := range []string{"UTF8", "utf_8", "Latin1", "ISO-8859-1", "windows-1252", "SJIS", "cp936"} {
		_, err := Lookup(name)
		assert.NoError(t, err, name)
	}

	cs, err := Lookup("iso-8859-1")
	require.NoError(t, err)
	assert.Equal(t, Latin1, cs.Name)

	// Served by the IANA index, not the built-in table.
	cs, err = Lookup("KOI8-R")
	require.NoError(t, err)
	assert.NotNil(t, cs.Encoding)

	_, err = Lookup("klingon-8")
	assert.Error(t, err)
	_, err = Lookup("")
	assert.Error(t, err)

	assert.True(t, Known("auto"))
	assert.True(t, Known("cp1250"))
	assert.False(t, Known("klingon-8"))
}
