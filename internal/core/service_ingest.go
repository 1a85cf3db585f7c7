package core

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/JonMunkholm/recon/internal/logging"
)

// IngestRequest describes one uploaded export.
type IngestRequest struct {
	Source     Source
	FileName   string
	HeaderLine int // 1-based line of the header; < 1 means the first line
	Body       io.Reader
}

// Ingest decodes, normalizes and bulk-loads one export into records.
// Rejected rows are logged and counted; a decode or load failure aborts the
// whole run and nothing from it is stored.
func (s *Service) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	def, ok := Get(req.Source)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, req.Source)
	}

	start := s.now()
	runID := s.newID()
	ctx = logging.WithRun(ctx, runID)
	logger := logging.WithFields(ctx, "source", def.Source, "file", req.FileName)

	conn, done, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	if err := conn.EnsureSchema(ctx); err != nil {
		return nil, &QueryError{Op: "ensure schema", Err: err}
	}

	counter, body := WrapForDecoding(req.Body)
	dec := NewDecoder(body, DecodeOptions{
		Delimiter: def.Delimiter,
		SkipLines: SkipLinesForHeader(req.HeaderLine),
	})

	result := &IngestResult{
		RunID:    runID,
		Source:   def.Source,
		FileName: req.FileName,
		Preview:  []RawRow{},
	}

	produce := func(ctx context.Context, emit EmitFunc) error {
		for {
			row, err := dec.Next()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}

			rec, err := Normalize(row, def)
			if err != nil {
				result.Skipped++
				logger.Warn("row skipped", "row", dec.Rows(), "reason", err.Error())
				continue
			}

			line, err := EncodeRecordLine(nil, rec)
			if err != nil {
				return err
			}
			if err := emit(line); err != nil {
				return err
			}

			if len(result.Preview) < PreviewRows {
				result.Preview = append(result.Preview, row)
			}
		}
	}

	loader := BulkLoader{Table: RecordsTable, Columns: RecordColumns, Buffer: s.buffer}
	inserted, err := loader.Run(ctx, conn, produce)
	if err != nil {
		logger.Error("ingest failed",
			"error", err,
			"rows_decoded", dec.Rows(),
			"bytes_read", counter.BytesRead,
		)
		return nil, err
	}

	result.Inserted = inserted
	result.Duration = s.now().Sub(start)

	logger.Info("ingest finished",
		"inserted", result.Inserted,
		"skipped", result.Skipped,
		"bytes_read", counter.BytesRead,
		"duration_ms", result.Duration.Milliseconds(),
	)
	return result, nil
}
