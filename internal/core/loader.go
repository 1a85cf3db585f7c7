package core

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultBufferLines bounds the lines queued between producer and COPY.
const DefaultBufferLines = 4096

// EmitFunc hands one encoded line to the loader. It blocks while the buffer
// is full and fails once the load has been abandoned.
type EmitFunc func(line []byte) error

// ProduceFunc generates the lines of one load. Returning an error aborts the
// load; returning nil marks the end of input.
type ProduceFunc func(ctx context.Context, emit EmitFunc) error

// BulkLoader streams lines from a producer into Conn.CopyIn. Both run
// concurrently; the producer is paused while Buffer lines are waiting.
type BulkLoader struct {
	Table   string
	Columns []string
	Buffer  int
}

// Run executes one load and returns the number of rows COPY reported.
// A producer error is returned as-is and the COPY is aborted; a COPY error is
// returned as *LoadError. In both cases nothing is committed.
func (l BulkLoader) Run(ctx context.Context, conn Conn, produce ProduceFunc) (int64, error) {
	size := l.Buffer
	if size <= 0 {
		size = DefaultBufferLines
	}

	g, gctx := errgroup.WithContext(ctx)
	lines := make(chan []byte, size)

	g.Go(func() error {
		emit := func(line []byte) error {
			select {
			case lines <- line:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		if err := produce(gctx, emit); err != nil {
			return err
		}
		// only a complete input reaches end-of-stream
		close(lines)
		return nil
	})

	var rows int64
	g.Go(func() error {
		n, err := conn.CopyIn(gctx, l.Table, l.Columns, &lineReader{ctx: gctx, lines: lines})
		if err != nil {
			return &LoadError{Table: l.Table, Err: err}
		}
		rows = n
		return nil
	})

	// Wait reports whichever side failed first; the other only saw cancellation.
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return rows, nil
}
