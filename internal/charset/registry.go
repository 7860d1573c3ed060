// =============================================================================
// CSV to XLSX Converter - Character Set Registry
// =============================================================================
//
// This module holds the table of text encodings the converter understands.
// The table is plain data: adding an encoding means adding an entry, never
// touching the probing or decoding control flow.
//
// NAMES:
//   Each entry has a canonical name (used in logs and reports) and a list of
//   aliases. Lookup is case-insensitive and ignores "-" and "_", so "UTF8",
//   "utf_8" and "utf-8" are the same name. Names missing from the table are
//   looked up in the IANA registry as a last resort.
//
// =============================================================================

package charset

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
)

// Canonical names of the built-in encodings.
const (
	UTF8      = "utf-8"
	UTF8BOM   = "utf-8-sig"
	UTF16     = "utf-16"
	Latin1    = "latin-1"
	CP1252    = "cp1252"
	Latin9    = "iso-8859-15"
	CP1250    = "cp1250"
	ShiftJIS  = "shift_jis"
	GBK       = "gbk"
	Automatic = "auto"
)

// Charset describes one decodable text encoding.
type Charset struct {
	// Name is the canonical name.
	Name string

	// Encoding is the x/text codec. Nil for the UTF-8 family, which is
	// validated in place instead of transcoded.
	Encoding encoding.Encoding

	// BOM is the byte order mark a probe requires at the start of the input.
	// Empty when no mark is required.
	BOM []byte
}

// IsUTF8 reports whether the charset is UTF-8 (with or without BOM).
func (c Charset) IsUTF8() bool {
	return c.Encoding == nil
}

// entry is one row of the registry table.
type entry struct {
	charset Charset
	aliases []string
}

var bomUTF8 = []byte{0xEF, 0xBB, 0xBF}

// registry is the table of built-in encodings.
//
// CUSTOMIZATION: Add a new entry here to support another encoding. To make
// it part of automatic detection, also list it in DefaultCandidates or in
// the configuration file's encoding_candidates.
var registry = []entry{
	{Charset{Name: UTF8}, []string{"utf8", "cp65001"}},
	{Charset{Name: UTF8BOM, BOM: bomUTF8}, []string{"utf8sig", "utf8bom"}},
	{Charset{Name: UTF16, Encoding: unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM)}, []string{"utf16"}},
	{Charset{Name: Latin1, Encoding: charmap.ISO8859_1}, []string{"latin1", "iso88591", "iso8859-1", "l1"}},
	{Charset{Name: CP1252, Encoding: charmap.Windows1252}, []string{"windows1252", "win1252"}},
	{Charset{Name: Latin9, Encoding: charmap.ISO8859_15}, []string{"iso885915", "latin9", "l9"}},
	{Charset{Name: CP1250, Encoding: charmap.Windows1250}, []string{"windows1250", "win1250"}},
	{Charset{Name: ShiftJIS, Encoding: japanese.ShiftJIS}, []string{"shiftjis", "sjis", "cp932", "mskanji"}},
	{Charset{Name: GBK, Encoding: simplifiedchinese.GBK}, []string{"cp936", "gb2312"}},
}

// DefaultCandidates is the detection priority list used for "auto".
//
// ORDER:
//   utf-16 and utf-8-sig only match when their byte order mark is present,
//   so they go first. utf-8 is strict. latin-1 rejects the C1 control range
//   that cp1252 uses for curly quotes and the euro sign, so cp1252 catches
//   those files. shift_jis is the regional fallback for bytes neither
//   single-byte table accepts.
var DefaultCandidates = []string{UTF16, UTF8BOM, UTF8, Latin1, CP1252, ShiftJIS}

// Fallback is the encoding returned when no candidate decodes cleanly.
// Every byte is a valid latin-1 character, so it can never fail to decode.
const Fallback = Latin1

// normalizeName folds case and separators so aliases compare equal.
func normalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer("-", "", "_", "", " ", "").Replace(name)
}

// Lookup returns the charset registered under name.
//
// RETURNS:
//   - The matching Charset.
//   - An error if the name is neither in the table nor in the IANA registry.
func Lookup(name string) (Charset, error) {
	key := normalizeName(name)
	if key == "" {
		return Charset{}, fmt.Errorf("empty encoding name")
	}

	for _, e := range registry {
		if normalizeName(e.charset.Name) == key {
			return e.charset, nil
		}
		for _, alias := range e.aliases {
			if normalizeName(alias) == key {
				return e.charset, nil
			}
		}
	}

	// Last resort: the IANA registry knows the long tail of legacy names.
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return Charset{}, fmt.Errorf("unknown encoding %q", name)
	}
	canonical, err := ianaindex.IANA.Name(enc)
	if err != nil {
		canonical = name
	}
	return Charset{Name: strings.ToLower(canonical), Encoding: enc}, nil
}

// Known reports whether name resolves to a charset (or is "auto").
func Known(name string) bool {
	if normalizeName(name) == Automatic {
		return true
	}
	_, err := Lookup(name)
	return err == nil
}
