// =============================================================================
// CSV to XLSX Converter - Encoding Resolver
// =============================================================================
//
// This module determines the text encoding of an input file when the caller
// asked for "auto". It never fails: when nothing else works it answers with
// the permissive fallback and lets the reader report real problems later.
//
// PROBING PROCESS:
//   1. Read a bounded prefix of the file (ProbeBytes, default 64 KiB) through
//      its own file handle; the reader's stream is never touched.
//   2. Try each candidate in priority order.
//   3. A candidate matches when the prefix decodes without error and the
//      decoded text is clean: no replacement characters, no NUL bytes and no
//      C1 control characters (U+0080..U+009F), which real text never uses.
//   4. Return the first match, or Fallback when none matches.
//
// =============================================================================

package charset

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"golang.org/x/text/transform"
)

// DefaultProbeBytes is the size of the prefix inspected for detection.
const DefaultProbeBytes = 64 * 1024

// Source tells where a resolved encoding name came from.
type Source string

const (
	// SourceDeclared means the caller named the encoding explicitly.
	SourceDeclared Source = "declared"

	// SourceDetected means a candidate matched the probed prefix.
	SourceDetected Source = "detected"

	// SourceFallback means no candidate matched (or the probe failed).
	SourceFallback Source = "fallback"
)

// Resolution is the outcome of Resolve.
type Resolution struct {
	// Name is the encoding the reader should use.
	Name string

	// Source tells how Name was chosen.
	Source Source

	// Reason explains a fallback. Diagnostic only; never a failure.
	Reason error
}

// Resolver picks an encoding from a prioritized candidate list.
type Resolver struct {
	candidates []string
	probeBytes int
}

// NewResolver creates a Resolver.
//
// PARAMETERS:
//   - candidates: Encoding names in priority order. Empty means DefaultCandidates.
//   - probeBytes: Prefix size to inspect. Zero or negative means DefaultProbeBytes.
func NewResolver(candidates []string, probeBytes int) *Resolver {
	if len(candidates) == 0 {
		candidates = DefaultCandidates
	}
	if probeBytes <= 0 {
		probeBytes = DefaultProbeBytes
	}
	return &Resolver{
		candidates: append([]string(nil), candidates...),
		probeBytes: probeBytes,
	}
}

// Candidates returns the priority list in use.
func (r *Resolver) Candidates() []string {
	return append([]string(nil), r.candidates...)
}

// Resolve returns the encoding to read path with.
//
// PARAMETERS:
//   - path: The input file.
//   - declared: The configured encoding, or "auto".
//
// RETURNS:
//   - declared unchanged when it is not "auto".
//   - The first candidate that decodes the probed prefix cleanly.
//   - Fallback otherwise, with Reason set.
func (r *Resolver) Resolve(path, declared string) Resolution {
	if normalizeName(declared) != Automatic {
		return Resolution{Name: declared, Source: SourceDeclared}
	}

	prefix, atEOF, err := readPrefix(path, r.probeBytes)
	if err != nil {
		return Resolution{Name: Fallback, Source: SourceFallback, Reason: err}
	}
	if len(prefix) == 0 {
		return Resolution{Name: Fallback, Source: SourceFallback, Reason: errors.New("input is empty")}
	}

	for _, name := range r.candidates {
		cs, err := Lookup(name)
		if err != nil {
			continue
		}
		if Probe(cs, prefix, atEOF) {
			return Resolution{Name: cs.Name, Source: SourceDetected}
		}
	}

	return Resolution{
		Name:   Fallback,
		Source: SourceFallback,
		Reason: fmt.Errorf("no candidate of %v decoded the first %d bytes cleanly", r.candidates, len(prefix)),
	}
}

// readPrefix reads up to n bytes from the start of path.
// atEOF reports whether the whole file fit in the prefix.
func readPrefix(path string, n int) ([]byte, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, false, err
	}
	defer f.Close()

	buf := make([]byte, n)
	read, err := io.ReadFull(f, buf)
	switch {
	case err == nil:
		return buf[:read], false, nil
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return buf[:read], true, nil
	default:
		return nil, false, err
	}
}

// =============================================================================
// PROBING
// =============================================================================

// Probe reports whether prefix decodes cleanly as cs.
//
// PARAMETERS:
//   - cs: The candidate charset.
//   - prefix: The leading bytes of the file.
//   - atEOF: True when prefix is the whole file. When false, an incomplete
//     multi-byte sequence at the very end is tolerated.
func Probe(cs Charset, prefix []byte, atEOF bool) bool {
	if len(cs.BOM) > 0 {
		if !bytes.HasPrefix(prefix, cs.BOM) {
			return false
		}
		prefix = prefix[len(cs.BOM):]
	}

	if cs.IsUTF8() {
		if !atEOF {
			prefix = trimPartialRune(prefix)
		}
		return isCleanText(prefix)
	}

	dst := make([]byte, 4*len(prefix)+utf8.UTFMax)
	nDst, nSrc, err := cs.Encoding.NewDecoder().Transform(dst, prefix, atEOF)
	if err != nil {
		// A sequence cut by the probe boundary is not a decoding failure.
		if !(errors.Is(err, transform.ErrShortSrc) && !atEOF && len(prefix)-nSrc < utf8.UTFMax) {
			return false
		}
	}
	return isCleanText(dst[:nDst])
}

// trimPartialRune drops an incomplete UTF-8 sequence at the end of b.
func trimPartialRune(b []byte) []byte {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if utf8.RuneStart(b[i]) {
			if !utf8.FullRune(b[i:]) {
				return b[:i]
			}
			return b
		}
	}
	return b
}

// isCleanText reports whether b is valid UTF-8 without replacement
// characters, NUL bytes or C1 controls.
func isCleanText(b []byte) bool {
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		switch {
		case r == utf8.RuneError:
			return false
		case r == 0:
			return false
		case r >= 0x80 && r <= 0x9F:
			return false
		}
		b = b[size:]
	}
	return true
}
