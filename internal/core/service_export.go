package core

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/recon/internal/logging"
)

// ReportSheet is the worksheet name of the XLSX report.
const ReportSheet = "Reconciliation"

// reportQuery builds the export COPY statement; limit 0 means no cap.
func reportQuery(limit int) string {
	q := fmt.Sprintf("COPY (SELECT %s FROM %s ORDER BY id", strings.Join(ReportColumns, ", "), ReconciledTable)
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}
	return q + ") TO STDOUT WITH (FORMAT csv, HEADER)"
}

// firstByteWriter records how much reached the client, so a failure can be
// classified as before or after the response started.
type firstByteWriter struct {
	w io.Writer
	n int64
}

func (f *firstByteWriter) Write(p []byte) (int, error) {
	n, err := f.w.Write(p)
	f.n += int64(n)
	return n, err
}

// ExportReport streams reconciled_records as CSV with a header row into w,
// in insertion order, capped at limit rows when limit > 0. A failure before
// anything was written is a *QueryError; after that an *ExportStreamError.
func (s *Service) ExportReport(ctx context.Context, w io.Writer, limit int) error {
	if limit < 0 {
		return ErrNegativeLimit
	}

	conn, done, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer done()

	if err := conn.EnsureSchema(ctx); err != nil {
		return &QueryError{Op: "ensure schema", Err: err}
	}

	fw := &firstByteWriter{w: w}
	rows, err := conn.CopyOut(ctx, fw, reportQuery(limit))
	if err != nil {
		if fw.n > 0 {
			return &ExportStreamError{Written: fw.n, Err: err}
		}
		return &QueryError{Op: "export report", Err: err}
	}

	logging.FromContext(ctx).Info("report exported", "rows", rows, "bytes", fw.n, "limit", limit)
	return nil
}

// ExportReportXLSX renders the same projection as ExportReport into an XLSX
// workbook. The workbook is assembled in memory before the first byte is
// written, so only a failure while writing it out is an *ExportStreamError.
func (s *Service) ExportReportXLSX(ctx context.Context, w io.Writer, limit int) error {
	if limit < 0 {
		return ErrNegativeLimit
	}

	conn, done, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer done()

	if err := conn.EnsureSchema(ctx); err != nil {
		return &QueryError{Op: "ensure schema", Err: err}
	}

	pr, pw := io.Pipe()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		_, err := conn.CopyOut(gctx, pw, reportQuery(limit))
		pw.CloseWithError(err)
		if err != nil {
			return &QueryError{Op: "export report", Err: err}
		}
		return nil
	})

	var (
		f    *excelize.File
		rows int
	)
	g.Go(func() error {
		var err error
		f, rows, err = buildWorkbook(pr)
		if err != nil {
			pr.CloseWithError(err)
			return &QueryError{Op: "build workbook", Err: err}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		if f != nil {
			_ = f.Close()
		}
		return err
	}
	defer f.Close()

	fw := &firstByteWriter{w: w}
	if err := f.Write(fw); err != nil {
		return &ExportStreamError{Written: fw.n, Err: err}
	}

	logging.FromContext(ctx).Info("report exported", "format", "xlsx", "rows", rows, "bytes", fw.n, "limit", limit)
	return nil
}

// buildWorkbook reads exported CSV from r into a single-sheet workbook.
func buildWorkbook(r io.Reader) (*excelize.File, int, error) {
	rr, err := NewReportReader(r)
	if err != nil {
		return nil, 0, err
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", ReportSheet); err != nil {
		f.Close()
		return nil, 0, err
	}
	sw, err := f.NewStreamWriter(ReportSheet)
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	if err := sw.SetColWidth(1, 1, 28); err != nil {
		f.Close()
		return nil, 0, err
	}
	numFmt := AmountNumFmt
	amountStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		f.Close()
		return nil, 0, err
	}

	header := make([]interface{}, len(ReportColumns))
	for i, c := range ReportColumns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		f.Close()
		return nil, 0, err
	}

	n := 0
	for {
		row, err := rr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			f.Close()
			return nil, n, err
		}
		n++

		cell, err := excelize.CoordinatesToCellName(1, n+1)
		if err != nil {
			f.Close()
			return nil, n, err
		}
		if err := sw.SetRow(cell, row.cells(amountStyle)); err != nil {
			f.Close()
			return nil, n, err
		}
	}

	if err := sw.Flush(); err != nil {
		f.Close()
		return nil, n, err
	}
	return f, n, nil
}
