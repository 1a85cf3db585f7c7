package core

// streaming.go provides the readers that sit between an upload and the CSV
// decoder. None of them buffer more than a few kilobytes:
//
//   - CountingReader: tracks bytes consumed from the upload
//   - BOMSkippingReader: removes a leading UTF-8 BOM (0xEF 0xBB 0xBF)
//   - NewValidatingReader: fails with encoding.ErrInvalidUTF8 on malformed input
//
// WrapForDecoding applies all three in the right order.

import (
	"bufio"
	"bytes"
	"io"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// BOMSkippingReader wraps an io.Reader and skips the UTF-8 BOM if present.
type BOMSkippingReader struct {
	reader  *bufio.Reader
	checked bool
}

// NewBOMSkippingReader creates a new BOM-skipping reader.
func NewBOMSkippingReader(r io.Reader) *BOMSkippingReader {
	return &BOMSkippingReader{reader: bufio.NewReader(r)}
}

// Read implements io.Reader. The first call drops the BOM if the input starts with one.
func (r *BOMSkippingReader) Read(p []byte) (int, error) {
	if !r.checked {
		r.checked = true
		// Short input just yields fewer bytes; the next Read reports its error.
		if head, _ := r.reader.Peek(len(utf8BOM)); bytes.Equal(head, utf8BOM) {
			_, _ = r.reader.Discard(len(utf8BOM))
		}
	}
	return r.reader.Read(p)
}

// NewValidatingReader passes r through unchanged but fails with
// encoding.ErrInvalidUTF8 at the first malformed sequence.
func NewValidatingReader(r io.Reader) io.Reader {
	return transform.NewReader(r, encoding.UTF8Validator)
}

// CountingReader wraps an io.Reader to track bytes read.
type CountingReader struct {
	reader    io.Reader
	BytesRead int64
}

// NewCountingReader creates a counting reader.
func NewCountingReader(r io.Reader) *CountingReader {
	return &CountingReader{reader: r}
}

// Read implements io.Reader.
func (r *CountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	return n, err
}

// WrapForDecoding returns the counter over the raw upload and the reader the
// decoder should consume: BOM stripped, then UTF-8 validated.
func WrapForDecoding(r io.Reader) (*CountingReader, io.Reader) {
	counter := NewCountingReader(r)
	return counter, NewValidatingReader(NewBOMSkippingReader(counter))
}
