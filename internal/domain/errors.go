package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// AppError represents a domain-specific error with structured information and enhanced context
type AppError struct {
	Code       string    `json:"code"`
	Message    string    `json:"message"`
	StatusCode int       `json:"-"`
	Details    any       `json:"details,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	RequestID  string    `json:"request_id,omitempty"`
	Operation  string    `json:"operation,omitempty"`
	Cause      error     `json:"-"` // Original error, not serialized
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error wrapping
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *AppError) WithContext(ctx context.Context, operation string) *AppError {
	if requestID := ctx.Value("request_id"); requestID != nil {
		if id, ok := requestID.(string); ok {
			e.RequestID = id
		}
	}
	e.Operation = operation
	return e
}

// Error codes for different error categories
const (
	ErrInvalidInput = "INVALID_INPUT"  // 400 Bad Request
	ErrNotFound     = "NOT_FOUND"      // 404 Not Found
	ErrInternal     = "INTERNAL_ERROR" // 500 Internal Server Error
	ErrRateLimit    = "RATE_LIMITED"   // 429 Too Many Requests

	// Merge and resolution error codes
	ErrSourceNotFound   = "SOURCE_NOT_FOUND"   // input resource missing, non-fatal
	ErrDecodeFailure    = "DECODE_FAILURE"     // neither encoding could decode the file
	ErrIndexOutOfRange  = "INDEX_OUT_OF_RANGE" // 422 conflict index outside the filtered list
	ErrNoLocaleSelected = "NO_LOCALE_SELECTED" // 409 resolve before a locale was chosen
	ErrWriteFailure     = "WRITE_FAILURE"      // 500 output could not be persisted
	ErrReportInvalid    = "REPORT_INVALID"     // conflict report unreadable or malformed
)

// NewAppError creates a new AppError with the specified parameters
func NewAppError(code, message string, statusCode int, details any) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Details:    details,
		Timestamp:  time.Now(),
	}
}

// NewAppErrorWithCause creates a new AppError with underlying cause
func NewAppErrorWithCause(code, message string, statusCode int, cause error, details any) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Details:    details,
		Timestamp:  time.Now(),
		Cause:      cause,
	}
}

// HasCode reports whether err, or any error it wraps, is an AppError with the given code
func HasCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return HasCode(err, ErrNotFound) || HasCode(err, ErrSourceNotFound)
}

// IsDecodeFailure checks if the error is a decode failure
func IsDecodeFailure(err error) bool {
	return HasCode(err, ErrDecodeFailure)
}

// IsIndexOutOfRange checks if the error is an out-of-range conflict index
func IsIndexOutOfRange(err error) bool {
	return HasCode(err, ErrIndexOutOfRange)
}

// IsNoLocaleSelected checks if the error signals a missing locale selection
func IsNoLocaleSelected(err error) bool {
	return HasCode(err, ErrNoLocaleSelected)
}

// IsWriteFailure checks if the error is a persistence failure
func IsWriteFailure(err error) bool {
	return HasCode(err, ErrWriteFailure)
}
