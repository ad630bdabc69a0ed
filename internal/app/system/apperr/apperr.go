// internal/app/system/apperr/apperr.go
package apperr

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// Wire codes. These are the stable error identifiers the JSON API speaks;
// the privileged challenge-activation RPC contract depends on
// permission-denied / invalid-argument / not-found / failed-precondition
// verbatim.
const (
	CodeNotFound           = "not-found"
	CodeValidation         = "validation-failed"
	CodeInvalidArgument    = "invalid-argument"
	CodeFailedPrecondition = "failed-precondition"
	CodeConflict           = "transaction-conflict"
	CodePermissionDenied   = "permission-denied"
	CodeUnauthenticated    = "unauthenticated"
	CodeRateLimited        = "rate-limited"
	CodeInternal           = "internal"
)

// Error is an application error with a stable wire code.
type Error struct {
	Code    string // wire code, one of the Code* constants
	Message string // human-readable, safe to return to callers
	Err     error  // original error, logged but never serialized
}

// Error returns the error message.
func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the original error.
func (e *Error) Unwrap() error { return e.Err }

// WithMessage returns a copy with a different caller-facing message.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{Code: e.Code, Message: msg, Err: e.Err}
}

// New creates an application error with the given wire code.
func New(code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// Constructors for the taxonomy.

func NotFound(message string) *Error {
	return New(CodeNotFound, message, nil)
}

func Validation(message string, err error) *Error {
	return New(CodeValidation, message, err)
}

func InvalidArgument(message string) *Error {
	return New(CodeInvalidArgument, message, nil)
}

func FailedPrecondition(message string) *Error {
	return New(CodeFailedPrecondition, message, nil)
}

func Conflict(message string, err error) *Error {
	return New(CodeConflict, message, err)
}

func PermissionDenied(message string) *Error {
	return New(CodePermissionDenied, message, nil)
}

func Unauthenticated(message string) *Error {
	return New(CodeUnauthenticated, message, nil)
}

func RateLimited(message string) *Error {
	return New(CodeRateLimited, message, nil)
}

func Internal(err error) *Error {
	return New(CodeInternal, "internal error", err)
}

// HTTPStatus maps a wire code to its HTTP status.
func HTTPStatus(code string) int {
	switch code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeValidation:
		return http.StatusUnprocessableEntity
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeFailedPrecondition, CodeConflict:
		return http.StatusConflict
	case CodePermissionDenied:
		return http.StatusForbidden
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

// Write renders err as the API's JSON error envelope. Unknown errors become
// code "internal" with the original error logged, never serialized.
func Write(w http.ResponseWriter, log *zap.Logger, err error) {
	var appErr *Error
	if !errors.As(err, &appErr) {
		appErr = Internal(err)
	}

	if appErr.Code == CodeInternal && log != nil {
		log.Error("internal error", zap.Error(err))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(HTTPStatus(appErr.Code))
	_ = json.NewEncoder(w).Encode(errorEnvelope{Error: errorBody{
		Code:    appErr.Code,
		Message: appErr.Message,
	}})
}

// Code extracts the wire code from an error, or "internal" for unknown
// errors, or "" for nil.
func Code(err error) string {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}
