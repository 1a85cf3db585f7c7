package core

// error_messages.go maps pipeline failures to user-facing messages with a
// support code. Users quote the code; support looks it up here.
//
// # Request Errors (UPL001-UPL099)
//
//	UPL001 - Request cancelled or timed out
//	UPL002 - System busy: every pipeline slot stayed occupied
//	UPL003 - Unknown source
//
// # Decode Errors (DEC001-DEC099)
//
//	DEC001 - Malformed file: quoting or delimiter problems
//	DEC002 - Encoding: the file is not valid UTF-8
//
// # Database Errors (DB001-DB099)
//
// Matched on the driver's error text, whatever stage raised them:
//
//	DB001 - Connection refused
//	DB002 - Connection reset or closed
//	DB003 - Timeout
//	DB004 - Permission denied
//	DB005 - Too many connections
//
// # Stage Errors
//
//	LOAD001 - Bulk load rejected, nothing was saved
//	QRY001  - Reading or preparing tables failed
//	EXP001  - Report export failed
//
// # Default Error (ERR000)
//
// Fallback when nothing matches; check the logs for the technical error.

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/text/encoding"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// driverPatterns are matched case-insensitively against the error text.
// The first match wins.
var driverPatterns = []errorPattern{
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB001",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB002",
		},
	},
	{
		pattern: "conn closed",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB002",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "DB003",
		},
	},
	{
		pattern: "permission denied",
		msg: UserMessage{
			Message: "The database refused the operation",
			Action:  "Contact support",
			Code:    "DB004",
		},
	},
	{
		pattern: "too many clients",
		msg: UserMessage{
			Message: "Database has no free connections",
			Action:  "Please wait a moment and try again",
			Code:    "DB005",
		},
	},
}

var (
	msgCancelled = UserMessage{
		Message: "Request was cancelled or timed out",
		Action:  "Please try again",
		Code:    "UPL001",
	}
	msgBusy = UserMessage{
		Message: "System is busy processing other uploads",
		Action:  "Please wait a moment and try again",
		Code:    "UPL002",
	}
	msgUnknownSource = UserMessage{
		Message: "Unknown upload type",
		Action:  "Upload to the payment or settlement endpoint",
		Code:    "UPL003",
	}
	msgMalformed = UserMessage{
		Message: "The file could not be parsed",
		Action:  "Check the delimiter, quoting and header line number",
		Code:    "DEC001",
	}
	msgEncoding = UserMessage{
		Message: "File contains invalid characters",
		Action:  "Save the file as UTF-8",
		Code:    "DEC002",
	}
	msgLoad = UserMessage{
		Message: "The records could not be saved; nothing from this file was stored",
		Action:  "Please try again or contact support",
		Code:    "LOAD001",
	}
	msgQuery = UserMessage{
		Message: "Stored records could not be read",
		Action:  "Please try again or contact support",
		Code:    "QRY001",
	}
	msgExport = UserMessage{
		Message: "The report could not be exported",
		Action:  "Please try again",
		Code:    "EXP001",
	}
)

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Sentinels and decode failures are recognised by type; driver failures by
// their text; any other typed stage failure by its stage.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	switch {
	case errors.Is(err, ErrTooManyUploads):
		return msgBusy
	case errors.Is(err, ErrUnknownSource):
		return msgUnknownSource
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return msgCancelled
	}

	var de *DecodeError
	if errors.As(err, &de) {
		if errors.Is(err, encoding.ErrInvalidUTF8) {
			return msgEncoding
		}
		return msgMalformed
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range driverPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	var (
		le *LoadError
		qe *QueryError
		ee *ExportStreamError
	)
	switch {
	case errors.As(err, &le):
		return msgLoad
	case errors.As(err, &ee):
		return msgExport
	case errors.As(err, &qe):
		return msgQuery
	}

	return defaultMessage
}
