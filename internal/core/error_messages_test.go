package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"golang.org/x/text/encoding"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{
			name:     "nil error returns empty",
			err:      nil,
			wantCode: "",
		},
		{
			name:     "limiter busy",
			err:      fmt.Errorf("ingest: %w", ErrTooManyUploads),
			wantCode: "UPL002",
		},
		{
			name:     "unknown source",
			err:      fmt.Errorf("%w: %q", ErrUnknownSource, "refunds"),
			wantCode: "UPL003",
		},
		{
			name:     "cancelled request",
			err:      &LoadError{Table: RecordsTable, Err: context.Canceled},
			wantCode: "UPL001",
		},
		{
			name:     "deadline",
			err:      fmt.Errorf("reconcile: %w", context.DeadlineExceeded),
			wantCode: "UPL001",
		},
		{
			name:     "malformed quoting",
			err:      &DecodeError{Rows: 3, Line: 5, Err: errors.New(`extraneous or missing " in quoted-field`)},
			wantCode: "DEC001",
		},
		{
			name:     "invalid utf-8",
			err:      &DecodeError{Rows: 0, Line: 2, Err: encoding.ErrInvalidUTF8},
			wantCode: "DEC002",
		},
		{
			name:     "connection refused inside load",
			err:      &LoadError{Table: RecordsTable, Err: errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")},
			wantCode: "DB001",
		},
		{
			name:     "closed connection",
			err:      &QueryError{Op: "group payments", Err: errors.New("conn closed")},
			wantCode: "DB002",
		},
		{
			name:     "timeout text",
			err:      errors.New("i/o timeout"),
			wantCode: "DB003",
		},
		{
			name:     "load failure",
			err:      &LoadError{Table: RecordsTable, Err: errors.New(`ERROR: invalid input syntax for type numeric: "x"`)},
			wantCode: "LOAD001",
		},
		{
			name:     "query failure",
			err:      &QueryError{Op: "group settlements", Err: errors.New(`relation "records" does not exist`)},
			wantCode: "QRY001",
		},
		{
			name:     "export failure",
			err:      &ExportStreamError{Written: 10, Err: errors.New("broken pipe")},
			wantCode: "EXP001",
		},
		{
			name:     "unknown error returns default",
			err:      errors.New("some random internal error"),
			wantCode: "ERR000",
		},
		{
			name:     "case insensitive matching",
			err:      errors.New("FATAL: sorry, TOO MANY CLIENTS already"),
			wantCode: "DB005",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if tt.err != nil && (got.Message == "" || got.Action == "") {
				t.Errorf("MapError() returned incomplete message %+v", got)
			}
		})
	}
}
