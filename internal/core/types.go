package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Source identifies which export a record came from.
type Source string

const (
	SourcePayments    Source = "payments"
	SourceSettlements Source = "settlements"
)

// Valid reports whether s is one of the known sources.
func (s Source) Valid() bool {
	return s == SourcePayments || s == SourceSettlements
}

func (s Source) String() string { return string(s) }

// RawRow is one decoded row: column name to cell text, in header order.
type RawRow struct {
	keys   []string
	values map[string]string
}

// NewRawRow builds a row from alternating key, value pairs.
func NewRawRow(kv ...string) RawRow {
	var r RawRow
	for i := 0; i+1 < len(kv); i += 2 {
		r.Set(kv[i], kv[i+1])
	}
	return r
}

// Set stores value under key. A new key is appended; an existing key keeps its position.
func (r *RawRow) Set(key, value string) {
	if r.values == nil {
		r.values = make(map[string]string)
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Get returns the value for key and whether the column is present.
func (r RawRow) Get(key string) (string, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Keys returns the column names in header order.
func (r RawRow) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Len returns the number of columns present.
func (r RawRow) Len() int { return len(r.keys) }

// MarshalJSON writes the row as an object with keys in header order.
func (r RawRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object of string values, keeping key order.
func (r *RawRow) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("raw row: expected object, got %v", tok)
	}

	*r = RawRow{}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		var v string
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("raw row: value for %v: %w", kt, err)
		}
		r.Set(kt.(string), v)
	}
	_, err = dec.Token()
	return err
}

// Record is one normalized transaction ready to be loaded into records.
type Record struct {
	Source    Source
	OrderID   string
	Timestamp *time.Time // nil when the source value was missing or unparseable
	Amount    decimal.Decimal
	Raw       RawRow
}

// Group is the per-order aggregate of one source: member ids ascending and their sum.
type Group struct {
	OrderID string
	IDs     []int64
	Total   decimal.Decimal
}

// Status classifies a reconciled order.
type Status string

const (
	StatusReconciled   Status = "reconciled"
	StatusUnreconciled Status = "unreconciled"
)

// ReconciledRecord is one row of the reconciliation output, one per order id.
type ReconciledRecord struct {
	OrderID          string
	PaymentIDs       []int64
	SettlementIDs    []int64
	PaymentsTotal    decimal.NullDecimal
	SettlementsTotal decimal.NullDecimal
	Difference       decimal.NullDecimal
	ReconciledAt     time.Time
}

// Status is derived from the id sets; it cannot disagree with them.
func (r ReconciledRecord) Status() Status {
	if len(r.PaymentIDs) > 0 && len(r.SettlementIDs) > 0 {
		return StatusReconciled
	}
	return StatusUnreconciled
}

// MarshalJSON includes the derived status.
func (r ReconciledRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		OrderID          string              `json:"order_id"`
		PaymentIDs       []int64             `json:"payment_ids"`
		SettlementIDs    []int64             `json:"settlement_ids"`
		PaymentsTotal    decimal.NullDecimal `json:"payments_total"`
		SettlementsTotal decimal.NullDecimal `json:"settlements_total"`
		Difference       decimal.NullDecimal `json:"difference"`
		Status           Status              `json:"status"`
		ReconciledAt     time.Time           `json:"reconciled_at"`
	}{
		OrderID:          r.OrderID,
		PaymentIDs:       nonNilIDs(r.PaymentIDs),
		SettlementIDs:    nonNilIDs(r.SettlementIDs),
		PaymentsTotal:    r.PaymentsTotal,
		SettlementsTotal: r.SettlementsTotal,
		Difference:       r.Difference,
		Status:           r.Status(),
		ReconciledAt:     r.ReconciledAt,
	})
}

func nonNilIDs(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}

// IngestResult is returned by Service.IngestFile.
type IngestResult struct {
	RunID    string
	Source   Source
	FileName string
	Inserted int64
	Skipped  int
	Preview  []RawRow
	Duration time.Duration
}

// Message is the user-facing summary of the run.
func (r *IngestResult) Message() string {
	return fmt.Sprintf("Uploaded %d records.", r.Inserted)
}

// ReconcileResult is returned by Service.Reconcile.
type ReconcileResult struct {
	RunID              string
	Reconciled         int64
	NothingToReconcile bool
	Preview            []ReconciledRecord
	Duration           time.Duration
}

// Message is the user-facing summary of the run.
func (r *ReconcileResult) Message() string {
	if r.NothingToReconcile {
		return "No records to reconcile."
	}
	return fmt.Sprintf("Reconciled %d records.", r.Reconciled)
}
