package core

import (
	"context"
	"errors"

	"github.com/JonMunkholm/recon/internal/logging"
)

// ErrNegativeLimit is returned for a limit below zero.
var ErrNegativeLimit = errors.New("limit must not be negative")

// Reconcile joins payments and settlements by order id and appends the
// result to reconciled_records. limit caps how many joined orders are written
// (ascending order id); 0 means all. When neither source has records the
// result reports NothingToReconcile and nothing is written.
func (s *Service) Reconcile(ctx context.Context, limit int) (*ReconcileResult, error) {
	if limit < 0 {
		return nil, ErrNegativeLimit
	}

	start := s.now()
	runID := s.newID()
	ctx = logging.WithRun(ctx, runID)
	logger := logging.WithFields(ctx, "limit", limit)

	conn, done, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	if err := conn.EnsureSchema(ctx); err != nil {
		return nil, &QueryError{Op: "ensure schema", Err: err}
	}

	payments, err := conn.GroupBySource(ctx, SourcePayments)
	if err != nil {
		return nil, &QueryError{Op: "group payments", Err: err}
	}
	settlements, err := conn.GroupBySource(ctx, SourceSettlements)
	if err != nil {
		return nil, &QueryError{Op: "group settlements", Err: err}
	}

	joined := Limit(Join(payments, settlements, s.now().UTC()), limit)

	result := &ReconcileResult{RunID: runID, Preview: []ReconciledRecord{}}
	if len(joined) == 0 {
		result.NothingToReconcile = true
		logger.Info("nothing to reconcile")
		return result, nil
	}

	produce := func(ctx context.Context, emit EmitFunc) error {
		for _, rec := range joined {
			if err := emit(EncodeReconciledLine(nil, rec)); err != nil {
				return err
			}
		}
		return nil
	}

	loader := BulkLoader{Table: ReconciledTable, Columns: ReconciledColumns, Buffer: s.buffer}
	n, err := loader.Run(ctx, conn, produce)
	if err != nil {
		logger.Error("reconcile failed", "error", err, "orders", len(joined))
		return nil, err
	}

	result.Reconciled = n
	result.Preview = Limit(joined, ReconcilePreviewRows)
	result.Duration = s.now().Sub(start)

	matched := 0
	for _, r := range joined {
		if r.Status() == StatusReconciled {
			matched++
		}
	}
	logger.Info("reconcile finished",
		"payment_orders", len(payments),
		"settlement_orders", len(settlements),
		"written", n,
		"reconciled", matched,
		"unreconciled", len(joined)-matched,
		"duration_ms", result.Duration.Milliseconds(),
	)
	return result, nil
}
