package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

type ErrorCode string

const (
	CodeInternal   ErrorCode = "INTERNAL_ERROR"
	CodeBadRequest ErrorCode = "BAD_REQUEST"
	CodeNoData     ErrorCode = "NO_DATA"
	CodeRateLimit  ErrorCode = "RATE_LIMIT_EXCEEDED"
	CodeNotLoaded  ErrorCode = "DATA_NOT_LOADED"
)

var statusByCode = map[ErrorCode]int{
	CodeBadRequest: http.StatusBadRequest,
	CodeNoData:     http.StatusNotFound,
	CodeRateLimit:  http.StatusTooManyRequests,
	CodeNotLoaded:  http.StatusServiceUnavailable,
}

// AppError is the JSON error envelope every handler writes. Details carries
// the offending filter or field when there is one.
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"-"`
	Cause      error     `json:"-"`
	Timestamp  time.Time `json:"timestamp"`
	RequestID  string    `json:"request_id,omitempty"`
}

func (e *AppError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Details != "" {
		msg += " [" + e.Details + "]"
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(" (caused by: %v)", e.Cause)
	}
	return msg
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails sets Details and returns e for chaining.
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

func New(code ErrorCode, message string) *AppError {
	return Wrap(nil, code, message)
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: status,
		Cause:      err,
		Timestamp:  time.Now().UTC(),
	}
}

func Internal(message string) *AppError {
	return New(CodeInternal, message)
}

func InternalWrap(err error, message string) *AppError {
	return Wrap(err, CodeInternal, message)
}

func BadRequest(message string) *AppError {
	return New(CodeBadRequest, message)
}

func BadRequestWrap(err error, message string) *AppError {
	return Wrap(err, CodeBadRequest, message)
}

// InvalidFilter rejects a filter parameter before any computation runs.
func InvalidFilter(field, value, reason string) *AppError {
	return New(CodeBadRequest, fmt.Sprintf("invalid %s filter: %s", field, reason)).
		WithDetails(field + "=" + value)
}

// NoData reports a filter selection that matched no records. It is a
// notice for the client, logged at warn.
func NoData(message, filter string) *AppError {
	return New(CodeNoData, message).WithDetails(filter)
}

func RateLimit(message string) *AppError {
	return New(CodeRateLimit, message)
}

// NotLoaded is returned while the service holds no sales records.
func NotLoaded(message string) *AppError {
	return New(CodeNotLoaded, message)
}

type ErrorResponse struct {
	Error   *AppError `json:"error"`
	Success bool      `json:"success"`
}

// WriteErrorContext writes err as an ErrorResponse. Errors that are not an
// AppError anywhere in their chain become INTERNAL_ERROR. The request id is
// echoed in the body; log records pick it up from ctx.
func WriteErrorContext(ctx context.Context, w http.ResponseWriter, logger *slog.Logger, err error, requestID string) {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		appErr = InternalWrap(err, "An unexpected error occurred")
	}
	appErr.RequestID = requestID

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)

	if encodeErr := json.NewEncoder(w).Encode(ErrorResponse{Error: appErr}); encodeErr != nil {
		logger.ErrorContext(ctx, "failed to encode error response",
			"encode_error", encodeErr,
			"original_error", err,
		)
		return
	}

	level := slog.LevelError
	if appErr.StatusCode < 500 {
		level = slog.LevelWarn
	}

	attrs := []any{
		"error_code", appErr.Code,
		"error_message", appErr.Message,
		"status_code", appErr.StatusCode,
	}
	if appErr.Details != "" {
		attrs = append(attrs, "details", appErr.Details)
	}
	if appErr.Cause != nil {
		attrs = append(attrs, "cause", appErr.Cause)
	}
	logger.Log(ctx, level, "request failed", attrs...)
}

type SuccessResponse struct {
	Data    any  `json:"data"`
	Success bool `json:"success"`
}

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessWithHeaders(w, data, nil)
}

func WriteSuccessWithHeaders(w http.ResponseWriter, data any, headers map[string]string) {
	for key, value := range headers {
		w.Header().Set(key, value)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(SuccessResponse{Data: data, Success: true}); err != nil {
		slog.Default().Error("failed to encode success response", "error", err)
	}
}
