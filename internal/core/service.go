package core

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Options tune a Service. Zero values fall back to defaults.
type Options struct {
	MaxConcurrent int           // pipelines allowed at once
	MaxWait       time.Duration // wait for a pipeline slot before ErrTooManyUploads
	BufferLines   int           // lines queued between producer and COPY

	// Now and NewID are replaceable for tests.
	Now   func() time.Time
	NewID func() string
}

// Service runs ingestion, reconciliation and export pipelines against a Store.
type Service struct {
	store   Store
	limiter *PipelineLimiter
	buffer  int
	now     func() time.Time
	newID   func() string
}

// NewService creates a new Service instance.
func NewService(store Store, opts Options) *Service {
	if opts.BufferLines <= 0 {
		opts.BufferLines = DefaultBufferLines
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return uuid.NewString() }
	}

	return &Service{
		store:   store,
		limiter: NewPipelineLimiter(opts.MaxConcurrent, opts.MaxWait),
		buffer:  opts.BufferLines,
		now:     opts.Now,
		newID:   opts.NewID,
	}
}

// Sources returns the registered source definitions.
func (s *Service) Sources() []SourceDefinition {
	return All()
}

// LimiterStatus reports pipeline slot usage.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForPipelines blocks until running pipelines finish or ctx is done.
func (s *Service) WaitForPipelines(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// begin takes a pipeline slot and a connection. The returned func releases
// both and is safe to call more than once.
func (s *Service) begin(ctx context.Context) (Conn, func(), error) {
	releaseSlot, err := s.limiter.Acquire(ctx)
	if err != nil {
		return nil, nil, err
	}

	conn, err := s.store.Acquire(ctx)
	if err != nil {
		releaseSlot()
		return nil, nil, &QueryError{Op: "acquire connection", Err: err}
	}

	return conn, func() {
		conn.Release()
		releaseSlot()
	}, nil
}
