// Package apierr maps domain and upstream errors onto JSON HTTP responses.
package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"

	"github.com/wolfman30/clinic-growth-platform/pkg/logging"
)

// Error codes exposed to API clients.
const (
	CodeInvalidInput = "INVALID_INPUT"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeUpstream     = "UPSTREAM_ERROR"
	CodeInternal     = "INTERNAL_ERROR"
)

// ErrNotFound is the shared sentinel stores wrap when a row is missing.
var ErrNotFound = errors.New("not found")

// Error is an API-facing error carrying its HTTP status.
type Error struct {
	Status  int
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func BadRequest(message string) *Error {
	return &Error{Status: http.StatusBadRequest, Code: CodeInvalidInput, Message: message}
}

func Unauthorized(message string) *Error {
	return &Error{Status: http.StatusUnauthorized, Code: CodeUnauthorized, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Status: http.StatusForbidden, Code: CodeForbidden, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Status: http.StatusNotFound, Code: CodeNotFound, Message: message}
}

func Conflict(message string) *Error {
	return &Error{Status: http.StatusConflict, Code: CodeConflict, Message: message}
}

// Upstream wraps a failure from the database or a third-party API.
func Upstream(message string, cause error) *Error {
	return &Error{Status: http.StatusBadGateway, Code: CodeUpstream, Message: message, Cause: cause}
}

// FormatAPIError resolves the status and public body for err. Internal causes
// never leak into the body.
func FormatAPIError(err error) (int, map[string]string) {
	var apiErr *Error
	switch {
	case err == nil:
		return http.StatusOK, nil
	case errors.As(err, &apiErr):
		return apiErr.Status, map[string]string{"error": apiErr.Message, "code": apiErr.Code}
	case errors.Is(err, ErrNotFound), errors.Is(err, pgx.ErrNoRows):
		return http.StatusNotFound, map[string]string{"error": "not found", "code": CodeNotFound}
	default:
		return http.StatusInternalServerError, map[string]string{"error": "internal error", "code": CodeInternal}
	}
}

// Write logs err when it is a server-side failure and writes the JSON body.
func Write(w http.ResponseWriter, logger *logging.Logger, err error) {
	status, body := FormatAPIError(err)
	if status >= http.StatusInternalServerError && logger != nil {
		logger.Error("request failed", "error", err, "status", status)
	}
	WriteJSON(w, status, body)
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}
