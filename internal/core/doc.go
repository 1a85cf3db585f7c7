// Package core provides the business logic for payment/settlement ingestion
// and reconciliation.
//
// The package is independent of any transport. It talks to storage only
// through the [Store] and [Conn] interfaces, so web handlers, CLI tools and
// tests drive it the same way.
//
// # Sources
//
// Each upload kind (payments, settlements) is described by a
// [SourceDefinition] registered at init time with [Register]:
//
//	core.Register(core.SourceDefinition{
//	    Source:           core.SourcePayments,
//	    Delimiter:        ',',
//	    OrderIDColumns:   []string{"order id"},
//	    TimestampColumns: []string{"date/time"},
//	    AmountColumns:    []string{"total"},
//	})
//
// # Ingestion pipeline
//
// [Service.Ingest] runs one pipeline per upload:
//
//  1. [Decoder] turns the byte stream into ordered [RawRow]s
//  2. [Normalize] maps each row to a [Record] or a [SkipError]
//  3. [BulkLoader] streams encoded lines into the storage COPY protocol,
//     with the producer and the COPY running concurrently
//
// A load either commits every accepted row or none of them.
//
// # Reconciliation
//
// [Service.Reconcile] groups both sources by order id, full-outer-joins them
// with [Join] and appends the result to reconciled_records. [Service.ExportReport]
// streams that table back out as CSV, [Service.ExportReportXLSX] as a workbook.
//
// # Error Handling
//
// Pipeline failures are typed ([DecodeError], [LoadError], [QueryError],
// [ExportStreamError]). [MapError] turns any of them into a user-facing
// message with a support code:
//
//   - DB001-DB005: Database errors (connections, timeouts, permissions)
//   - DEC001-DEC002: Decode errors (quoting, encoding)
//   - LOAD001, QRY001, EXP001: pipeline stage failures
//   - UPL001-UPL003: Request errors (cancelled, busy, unknown source)
package core
