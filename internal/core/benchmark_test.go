package core

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================================
// Conversion Benchmarks
// ============================================================================

// BenchmarkParseAmount runs once per accepted row.
func BenchmarkParseAmount(b *testing.B) {
	testCases := []string{
		"123",
		"-456.78",
		"$1,234.56",
		"(123.45)",      // Accounting negative
		"1,234,567.89",  // Thousands separators
		"  999.99  ",    // Whitespace
		"\u20ac1234.56", // Euro
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			ParseAmount(tc)
		}
	}
}

// BenchmarkParseTimestamp walks the layout lists; late matches cost most.
func BenchmarkParseTimestamp(b *testing.B) {
	testCases := []string{
		"2024-01-15T10:00:00Z",
		"2024-01-15 10:00:00 UTC",
		"Jan 15, 2024 3:04:05 PM PST",
		"01/15/2024",
		"1/5/24",
		"not a date",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			ParseTimestamp(tc)
		}
	}
}

func BenchmarkCleanCell(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		CleanCell(`="00123-456"`)
	}
}

// ============================================================================
// Pipeline Benchmarks
// ============================================================================

// BenchmarkDecodeNormalizeEncode measures the producer side of an ingest
// without any storage.
func BenchmarkDecodeNormalizeEncode(b *testing.B) {
	data := generatePaymentsCSV(10_000)
	b.SetBytes(int64(len(data)))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, body := WrapForDecoding(bytes.NewReader(data))
		dec := NewDecoder(body, DecodeOptions{Delimiter: ','})
		var buf []byte
		for {
			row, err := dec.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				b.Fatal(err)
			}
			rec, err := Normalize(row, testPayments)
			if err != nil {
				continue
			}
			if buf, err = EncodeRecordLine(buf[:0], rec); err != nil {
				b.Fatal(err)
			}
		}
	}
}

// BenchmarkBulkLoader_Channel measures the handoff between producer and COPY.
func BenchmarkBulkLoader_Channel(b *testing.B) {
	line := []byte(`"payments","A1",,"1","{}"` + "\n")
	const rows = 10_000

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		l := BulkLoader{Table: RecordsTable, Columns: RecordColumns, Buffer: 256}
		_, err := l.Run(context.Background(), discardConn{}, func(ctx context.Context, emit EmitFunc) error {
			for j := 0; j < rows; j++ {
				if err := emit(line); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkJoin(b *testing.B) {
	payments := make([]Group, 50_000)
	settlements := make([]Group, 50_000)
	for i := range payments {
		payments[i] = Group{OrderID: fmt.Sprintf("P%06d", i), IDs: []int64{int64(i)}, Total: decimal.NewFromInt(int64(i))}
		settlements[i] = Group{OrderID: fmt.Sprintf("P%06d", i+25_000), IDs: []int64{int64(i)}, Total: decimal.NewFromInt(int64(i))}
	}
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Join(payments, settlements, at)
	}
}

func BenchmarkEncodeReconciledLine(b *testing.B) {
	rec := ReconciledRecord{
		OrderID:          "A1",
		PaymentIDs:       []int64{1, 2, 3},
		SettlementIDs:    []int64{4},
		PaymentsTotal:    decimal.NewNullDecimal(decimal.RequireFromString("10.005")),
		SettlementsTotal: decimal.NewNullDecimal(decimal.RequireFromString("9")),
		Difference:       decimal.NewNullDecimal(decimal.RequireFromString("1.01")),
		ReconciledAt:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	var buf []byte

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf = EncodeReconciledLine(buf[:0], rec)
	}
}

// discardConn accepts a COPY body and drops it.
type discardConn struct{ Conn }

func (discardConn) CopyIn(ctx context.Context, table string, columns []string, body io.Reader) (int64, error) {
	n, err := io.Copy(io.Discard, body)
	return n, err
}

func generatePaymentsCSV(rows int) []byte {
	var sb strings.Builder
	sb.WriteString("date/time,settlement id,type,order id,sku,description,quantity,total\n")
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&sb, "\"Jan %d, 2024 10:00:00 AM PST\",S%d,Order,%d-%07d,SKU%d,\"Widget, large\",1,\"$1,%03d.%02d\"\n",
			i%28+1, i/100, i%1000, i, i%50, i%1000, i%100)
	}
	return []byte(sb.String())
}
