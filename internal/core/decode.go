package core

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// DecodeOptions configure a Decoder.
type DecodeOptions struct {
	// Delimiter separates fields (default ',').
	Delimiter rune

	// SkipLines physical lines are discarded before the header.
	SkipLines int
}

// SkipLinesForHeader converts a 1-based header line number into the number of
// lines to skip. Values below 1 mean the header is the first line.
func SkipLinesForHeader(headerLine int) int {
	if headerLine < 1 {
		return 0
	}
	return headerLine - 1
}

// Decoder produces RawRows from a delimited byte stream. The first record
// after the skipped lines is the header. Decoder is single-use.
type Decoder struct {
	src     *bufio.Reader
	opts    DecodeOptions
	reader  *csv.Reader
	header  []string
	skipped int
	rows    int
	err     error
}

// NewDecoder wraps r. r should already be BOM-stripped and validated; see WrapForDecoding.
func NewDecoder(r io.Reader, opts DecodeOptions) *Decoder {
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}
	return &Decoder{src: bufio.NewReader(r), opts: opts}
}

// Header returns the header fields once the first row has been requested.
func (d *Decoder) Header() []string {
	return append([]string(nil), d.header...)
}

// Rows returns the number of rows emitted so far.
func (d *Decoder) Rows() int { return d.rows }

// Next returns the next row. It returns io.EOF after the last row and a
// *DecodeError if the input is malformed; once failed, every call returns the
// same error.
func (d *Decoder) Next() (RawRow, error) {
	if d.err != nil {
		return RawRow{}, d.err
	}

	if d.reader == nil {
		if err := d.start(); err != nil {
			return RawRow{}, d.fail(err)
		}
		if d.header == nil {
			d.err = io.EOF
			return RawRow{}, io.EOF
		}
	}

	fields, err := d.reader.Read()
	if err == io.EOF {
		d.err = io.EOF
		return RawRow{}, io.EOF
	}
	if err != nil {
		return RawRow{}, d.fail(err)
	}

	d.rows++
	return d.build(fields), nil
}

func (d *Decoder) start() error {
	for d.skipped < d.opts.SkipLines {
		if _, err := d.src.ReadSlice('\n'); err != nil {
			if errors.Is(err, bufio.ErrBufferFull) {
				continue
			}
			if err == io.EOF {
				break
			}
			return err
		}
		d.skipped++
	}

	d.reader = csv.NewReader(d.src)
	d.reader.Comma = d.opts.Delimiter
	d.reader.FieldsPerRecord = -1

	header, err := d.reader.Read()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return err
	}
	d.header = header
	return nil
}

// build keys fields by header name. Extra fields are keyed "_<index>"; fields
// missing from a short record are absent.
func (d *Decoder) build(fields []string) RawRow {
	var row RawRow
	for i, v := range fields {
		if i < len(d.header) {
			row.Set(d.header[i], v)
		} else {
			row.Set("_"+strconv.Itoa(i), v)
		}
	}
	return row
}

func (d *Decoder) fail(err error) error {
	line := d.skipped + d.rows + 1
	if d.header != nil {
		line++
	}
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		line = d.skipped + pe.Line
		err = fmt.Errorf("column %d: %w", pe.Column, pe.Err)
	}
	d.err = &DecodeError{Rows: d.rows, Line: line, Err: err}
	return d.err
}
