package core

import (
	"errors"
	"fmt"
)

// ErrUnknownSource is returned when a source name or definition cannot be resolved.
var ErrUnknownSource = errors.New("unknown source")

// DecodeError reports malformed delimited input. Rows is the number of rows
// already emitted before the failure; Line is the physical input line.
type DecodeError struct {
	Rows int
	Line int
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode failed at line %d after %d rows: %v", e.Line, e.Rows, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// SkipError means a row was rejected by the normalizer. It is never fatal.
type SkipError struct {
	Reason string
	Column string
}

func (e *SkipError) Error() string {
	if e.Column == "" {
		return "row skipped: " + e.Reason
	}
	return fmt.Sprintf("row skipped: %s (%s)", e.Reason, e.Column)
}

// LoadError reports a failed bulk load. Nothing from the load is committed.
type LoadError struct {
	Table string
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("bulk load into %s failed: %v", e.Table, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// QueryError reports a failed read or schema statement.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// ExportStreamError reports a failure after part of the report was written.
// The response can no longer be replaced with an error body.
type ExportStreamError struct {
	Written int64
	Err     error
}

func (e *ExportStreamError) Error() string {
	return fmt.Sprintf("export stream failed after %d bytes: %v", e.Written, e.Err)
}

func (e *ExportStreamError) Unwrap() error { return e.Err }
