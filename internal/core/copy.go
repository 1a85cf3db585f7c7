package core

// copy.go encodes rows for the storage COPY protocol (FORMAT csv).
//
// Every non-null value is double-quoted with inner quotes doubled. A null is
// an unquoted empty field, which COPY reads as NULL, while "" stays an empty
// string. Raw payload JSON additionally has CR and LF written as the two
// character escapes \r and \n so each record is exactly one physical line.

import (
	"context"
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"time"
)

// timestampLayout is what the TIMESTAMP columns receive; values are UTC.
const timestampLayout = "2006-01-02 15:04:05.999999"

var rawEscaper = strings.NewReplacer("\n", `\n`, "\r", `\r`)

func appendQuoted(buf []byte, s string) []byte {
	buf = append(buf, '"')
	for i := 0; i < len(s); i++ {
		if s[i] == '"' {
			buf = append(buf, '"')
		}
		buf = append(buf, s[i])
	}
	return append(buf, '"')
}

func appendTime(buf []byte, t *time.Time) []byte {
	if t == nil {
		return buf
	}
	return appendQuoted(buf, t.UTC().Format(timestampLayout))
}

func appendIDs(buf []byte, ids []int64) []byte {
	var b strings.Builder
	b.WriteByte('{')
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatInt(id, 10))
	}
	b.WriteByte('}')
	return appendQuoted(buf, b.String())
}

// EncodeRecordLine appends rec as one line in RecordColumns order.
func EncodeRecordLine(buf []byte, rec Record) ([]byte, error) {
	raw, err := json.Marshal(rec.Raw)
	if err != nil {
		return buf, err
	}

	buf = appendQuoted(buf, string(rec.Source))
	buf = append(buf, ',')
	buf = appendQuoted(buf, rec.OrderID)
	buf = append(buf, ',')
	buf = appendTime(buf, rec.Timestamp)
	buf = append(buf, ',')
	buf = appendQuoted(buf, rec.Amount.String())
	buf = append(buf, ',')
	buf = appendQuoted(buf, rawEscaper.Replace(string(raw)))
	return append(buf, '\n'), nil
}

// EncodeReconciledLine appends r as one line in ReconciledColumns order.
func EncodeReconciledLine(buf []byte, r ReconciledRecord) []byte {
	buf = appendQuoted(buf, r.OrderID)
	buf = append(buf, ',')
	buf = appendIDs(buf, r.PaymentIDs)
	buf = append(buf, ',')
	buf = appendIDs(buf, r.SettlementIDs)
	buf = append(buf, ',')
	if r.PaymentsTotal.Valid {
		buf = appendQuoted(buf, r.PaymentsTotal.Decimal.String())
	}
	buf = append(buf, ',')
	if r.SettlementsTotal.Valid {
		buf = appendQuoted(buf, r.SettlementsTotal.Decimal.String())
	}
	buf = append(buf, ',')
	if r.Difference.Valid {
		buf = appendQuoted(buf, r.Difference.Decimal.StringFixed(2))
	}
	buf = append(buf, ',')
	buf = appendQuoted(buf, string(r.Status()))
	buf = append(buf, ',')
	at := r.ReconciledAt
	buf = appendTime(buf, &at)
	return append(buf, '\n')
}

// lineReader exposes a channel of encoded lines as an io.Reader for CopyIn.
// A closed channel is end of input; a cancelled context is an error, which
// makes the COPY abort instead of committing a truncated load.
type lineReader struct {
	ctx   context.Context
	lines <-chan []byte
	cur   []byte
}

func (r *lineReader) Read(p []byte) (int, error) {
	for len(r.cur) == 0 {
		select {
		case <-r.ctx.Done():
			return 0, r.ctx.Err()
		case line, ok := <-r.lines:
			if !ok {
				return 0, io.EOF
			}
			r.cur = line
		}
	}
	n := copy(p, r.cur)
	r.cur = r.cur[n:]
	return n, nil
}
