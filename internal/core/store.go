package core

import (
	"context"
	"io"
)

// Table names and the column order used by every bulk load into them.
const (
	RecordsTable    = "records"
	ReconciledTable = "reconciled_records"
)

var (
	RecordColumns = []string{"source", "order_id", "date", "total_amount", "raw_data"}

	ReconciledColumns = []string{
		"order_id", "payment_ids", "settlement_ids",
		"payments_total", "settlements_total", "difference",
		"status", "reconciled_at",
	}

	// ReportColumns is the fixed projection of the exported report.
	ReportColumns = []string{"order_id", "status", "payments_total", "settlements_total", "difference"}
)

// Store hands out storage connections, one per request.
type Store interface {
	Acquire(ctx context.Context) (Conn, error)
}

// Conn is a single storage connection. Callers must call Release exactly
// once, normally with defer right after Acquire; Release is idempotent.
type Conn interface {
	// EnsureSchema creates records and reconciled_records if they do not exist.
	EnsureSchema(ctx context.Context) error

	// CopyIn bulk-loads CSV lines read from body into table. The load is one
	// statement: it commits every row or none.
	CopyIn(ctx context.Context, table string, columns []string, body io.Reader) (int64, error)

	// GroupBySource aggregates one source's records per order id, ids ascending.
	GroupBySource(ctx context.Context, src Source) ([]Group, error)

	// CopyOut streams the CSV result of query (with header) into w.
	CopyOut(ctx context.Context, w io.Writer, query string) (int64, error)

	Release()
}
