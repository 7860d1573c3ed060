package csvparser

import (
	"bufio"
	"bytes"
	"io"
)

// countingReader wraps an io.Reader to track raw input bytes consumed.
// Progress is derived from this count, so it wraps the file directly,
// below any buffering or transcoding.
type countingReader struct {
	reader    io.Reader
	bytesRead int64

	// err holds the last non-EOF error of the underlying reader, so read
	// failures can be told apart from decode failures further up.
	err error
}

// Read implements io.Reader.
func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.bytesRead += int64(n)
	if err != nil && err != io.EOF {
		r.err = err
	}
	return n, err
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// skipBOM discards a leading UTF-8 byte order mark, if present.
func skipBOM(r *bufio.Reader) error {
	head, err := r.Peek(len(utf8BOM))
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return err
	}
	if bytes.Equal(head, utf8BOM) {
		_, err = r.Discard(len(utf8BOM))
		return err
	}
	return nil
}
