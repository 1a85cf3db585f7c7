package web

// errors.go provides unified error response handling for the web layer.
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, summary, err)
//  3. Error is mapped via core.MapError to a code and user-friendly message
//  4. Technical error + context is logged with request ID for correlation
//  5. {error, details, code, action} is returned as JSON

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/JonMunkholm/recon/internal/core"
	"github.com/JonMunkholm/recon/internal/logging"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details string            `json:"details,omitempty"`
	Code    string            `json:"code"`
	Action  string            `json:"action,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// respondError logs err and writes the mapped error response. summary names
// the failed operation ("Failed to upload payments").
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, summary string, err error) {
	userMsg := core.MapError(err)
	status := statusFor(err)

	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		userMsg = core.UserMessage{
			Message: fmt.Sprintf("File exceeds the %d byte upload limit", maxBytes.Limit),
			Action:  "Split the file and upload the parts separately",
			Code:    "UPL004",
		}
	}

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request error", attrs...)
	}

	writeJSONStatus(w, status, ErrorResponse{
		Error:   summary,
		Details: userMsg.Message,
		Code:    userMsg.Code,
		Action:  userMsg.Action,
	})
}

// respondBadRequest writes a 400 for malformed or invalid parameters.
func respondBadRequest(w http.ResponseWriter, r *http.Request, err error) {
	resp := ErrorResponse{
		Error: "Invalid request",
		Code:  "REQ001",
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		resp.Fields = make(map[string]string, len(ve))
		for _, fe := range ve {
			resp.Fields[strings.ToLower(fe.Field())] = fe.Tag()
		}
		resp.Details = "One or more parameters are invalid."
	} else {
		resp.Details = sanitizeErrorMessage(err.Error())
	}

	logging.FromContext(r.Context()).Warn("bad request",
		"path", r.URL.Path,
		"error", err.Error(),
	)
	writeJSONStatus(w, http.StatusBadRequest, resp)
}

// statusFor picks the HTTP status of a pipeline error.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, core.ErrTooManyUploads):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrUnknownSource), errors.Is(err, core.ErrNegativeLimit):
		return http.StatusBadRequest
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

var credentialPattern = regexp.MustCompile(`://[^/@\s]+@`)

// sanitizeErrorMessage keeps the first line of msg, hides URL credentials
// and caps the length.
func sanitizeErrorMessage(msg string) string {
	if i := strings.IndexAny(msg, "\r\n"); i >= 0 {
		msg = msg[:i]
	}
	msg = credentialPattern.ReplaceAllString(msg, "://****@")
	const max = 200
	if len(msg) > max {
		msg = msg[:max] + "..."
	}
	return msg
}
