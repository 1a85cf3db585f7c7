package web

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/JonMunkholm/recon/internal/core"
	"github.com/JonMunkholm/recon/internal/logging"
)

// reconcileResponse is returned by /reconcile.
type reconcileResponse struct {
	Message    string                  `json:"message"`
	RunID      string                  `json:"run_id,omitempty"`
	Reconciled int64                   `json:"reconciled"`
	Preview    []core.ReconciledRecord `json:"preview"`
}

// handleReconcile joins stored payments and settlements into
// reconciled_records. ?limit=N keeps the first N order ids.
func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	p, err := s.parseReportParams(r)
	if err != nil {
		respondBadRequest(w, r, err)
		return
	}

	ctx, cancel := s.pipelineContext(r)
	defer cancel()

	result, err := s.pipeline.Reconcile(ctx, p.Limit)
	if err != nil {
		s.respondError(w, r, "Failed to reconcile records", err)
		return
	}

	preview := result.Preview
	if preview == nil {
		preview = []core.ReconciledRecord{}
	}
	writeJSON(w, reconcileResponse{
		Message:    result.Message(),
		RunID:      result.RunID,
		Reconciled: result.Reconciled,
		Preview:    preview,
	})
}

// handleExportReport streams the reconciliation report as a CSV or XLSX
// attachment. Once the body has started a failure can only abort the stream.
func (s *Server) handleExportReport(w http.ResponseWriter, r *http.Request) {
	p, err := s.parseReportParams(r)
	if err != nil {
		respondBadRequest(w, r, err)
		return
	}

	name := fmt.Sprintf("reconciliation_report_%s.%s", time.Now().UTC().Format("20060102_150405"), p.Format)
	contentType := "text/csv; charset=utf-8"
	export := s.pipeline.ExportReport
	if p.Format == "xlsx" {
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		export = s.pipeline.ExportReportXLSX
	}

	aw := &attachmentWriter{w: w, name: name, contentType: contentType}
	err = export(r.Context(), aw, p.Limit)
	if err == nil {
		return
	}

	var streamErr *core.ExportStreamError
	if errors.As(err, &streamErr) || aw.started {
		logging.FromContext(r.Context()).Error("report stream aborted",
			"error", err,
			"bytes_written", aw.written,
			"format", p.Format,
		)
		// drop the connection so the client sees a truncated body
		panic(http.ErrAbortHandler)
	}

	s.respondError(w, r, "Failed to export report", err)
}

// attachmentWriter sends the attachment headers with the first byte, so an
// error before any output can still become a JSON response.
type attachmentWriter struct {
	w           http.ResponseWriter
	name        string
	contentType string
	started     bool
	written     int64
}

func (a *attachmentWriter) Write(p []byte) (int, error) {
	if !a.started {
		a.started = true
		h := a.w.Header()
		h.Set("Content-Type", a.contentType)
		h.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, a.name))
		a.w.WriteHeader(http.StatusOK)
	}
	n, err := a.w.Write(p)
	a.written += int64(n)
	return n, err
}
