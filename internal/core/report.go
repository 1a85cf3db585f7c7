package core

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// AmountNumFmt is the number format of money cells in the XLSX report.
const AmountNumFmt = "#,##0.00##########"

// ReportRow is one line of the exported reconciliation report.
type ReportRow struct {
	OrderID          string
	Status           Status
	PaymentsTotal    decimal.NullDecimal
	SettlementsTotal decimal.NullDecimal
	Difference       decimal.NullDecimal
}

// cells renders the row for a stream writer. Amounts carry amountStyle.
func (r ReportRow) cells(amountStyle int) []interface{} {
	return []interface{}{
		r.OrderID,
		string(r.Status),
		amountCell(r.PaymentsTotal, amountStyle),
		amountCell(r.SettlementsTotal, amountStyle),
		amountCell(r.Difference, amountStyle),
	}
}

// amountCell writes d as a number when a float64 holds it exactly, and as its
// decimal text otherwise, so no total is ever rounded.
func amountCell(d decimal.NullDecimal, style int) interface{} {
	if !d.Valid {
		return ""
	}
	if f := d.Decimal.InexactFloat64(); decimal.NewFromFloat(f).Equal(d.Decimal) {
		return excelize.Cell{StyleID: style, Value: f}
	}
	return excelize.Cell{StyleID: style, Value: d.Decimal.String()}
}

// ReportReader parses the CSV produced by ExportReport.
type ReportReader struct {
	r    *csv.Reader
	line int
}

// NewReportReader reads and checks the header row.
func NewReportReader(r io.Reader) (*ReportReader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(ReportColumns)

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("report: missing header")
		}
		return nil, fmt.Errorf("report header: %w", err)
	}
	for i, c := range ReportColumns {
		if strings.TrimSpace(header[i]) != c {
			return nil, fmt.Errorf("report header: column %d is %q, want %q", i+1, header[i], c)
		}
	}
	return &ReportReader{r: cr, line: 1}, nil
}

// Next returns the next row or io.EOF.
func (rr *ReportReader) Next() (ReportRow, error) {
	fields, err := rr.r.Read()
	if err != nil {
		return ReportRow{}, err
	}
	rr.line++

	row := ReportRow{OrderID: fields[0], Status: Status(fields[1])}
	for i, dst := range []*decimal.NullDecimal{&row.PaymentsTotal, &row.SettlementsTotal, &row.Difference} {
		v := fields[i+2]
		if v == "" {
			continue
		}
		d, err := decimal.NewFromString(v)
		if err != nil {
			return ReportRow{}, fmt.Errorf("report line %d: %s: %w", rr.line, ReportColumns[i+2], err)
		}
		*dst = decimal.NewNullDecimal(d)
	}
	return row, nil
}

// ReadReport parses a whole exported report.
func ReadReport(r io.Reader) ([]ReportRow, error) {
	rr, err := NewReportReader(r)
	if err != nil {
		return nil, err
	}
	var rows []ReportRow
	for {
		row, err := rr.Next()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return rows, err
		}
		rows = append(rows, row)
	}
}
