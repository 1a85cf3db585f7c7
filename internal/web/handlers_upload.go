package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/JonMunkholm/recon/internal/core"
	"github.com/JonMunkholm/recon/internal/logging"
)

// multipartMemory is how much of a multipart form is held in memory before
// net/http spills it to disk.
const multipartMemory = 8 << 20

// uploadResponse is returned after a successful ingest.
type uploadResponse struct {
	Message  string        `json:"message"`
	RunID    string        `json:"run_id"`
	Inserted int64         `json:"inserted"`
	Skipped  int           `json:"skipped"`
	Preview  []core.RawRow `json:"preview"`
}

// handleUpload stages the multipart "file" field and ingests it as src.
// The optional "header" field is the 1-based line number of the header row.
func (s *Server) handleUpload(src core.Source) http.HandlerFunc {
	summary := fmt.Sprintf("Failed to upload %s", src)

	return func(w http.ResponseWriter, r *http.Request) {
		maxSize := s.cfg.Upload.MaxFileSize
		if r.ContentLength > maxSize {
			s.respondError(w, r, summary, &http.MaxBytesError{Limit: maxSize})
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxSize)

		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			var maxBytes *http.MaxBytesError
			if errors.As(err, &maxBytes) {
				s.respondError(w, r, summary, err)
				return
			}
			respondBadRequest(w, r, fmt.Errorf("invalid multipart form: %w", err))
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile("file")
		if err != nil {
			respondBadRequest(w, r, errors.New("no file provided"))
			return
		}
		defer file.Close()

		staged, err := s.staging.Stage(header.Filename, file)
		if err != nil {
			s.respondError(w, r, summary, err)
			return
		}
		// removed on every path, including decode failures
		defer staged.Cleanup()

		body, err := staged.Open()
		if err != nil {
			s.respondError(w, r, summary, err)
			return
		}
		defer body.Close()

		ctx, cancel := s.pipelineContext(r)
		defer cancel()

		logging.FromContext(ctx).Debug("upload staged",
			"source", src,
			"file", header.Filename,
			"bytes", staged.Size,
		)

		result, err := s.pipeline.Ingest(ctx, core.IngestRequest{
			Source:     src,
			FileName:   header.Filename,
			HeaderLine: parseIntValue(r.FormValue("header")),
			Body:       body,
		})
		if err != nil {
			s.respondError(w, r, summary, err)
			return
		}

		writeJSON(w, uploadResponse{
			Message:  result.Message(),
			RunID:    result.RunID,
			Inserted: result.Inserted,
			Skipped:  result.Skipped,
			Preview:  result.Preview,
		})
	}
}

// pipelineContext bounds one pipeline run by the configured timeout.
func (s *Server) pipelineContext(r *http.Request) (context.Context, context.CancelFunc) {
	if s.cfg.Upload.Timeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), s.cfg.Upload.Timeout)
}
