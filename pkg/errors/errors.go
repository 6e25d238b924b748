package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode classifies a failure so callers can map it to a response.
type ErrorCode string

const (
	// ErrCodeValidation marks a submission rejected by the validation gate.
	ErrCodeValidation ErrorCode = "VALIDATION_FAILED"
	// ErrCodeStorage marks a failed call to the user record store.
	ErrCodeStorage ErrorCode = "STORAGE_FAILURE"
	// ErrCodeNotify marks a failed administrator notification.
	ErrCodeNotify ErrorCode = "NOTIFY_FAILURE"
	// ErrCodeInvalidRequest marks a request body that could not be parsed.
	ErrCodeInvalidRequest ErrorCode = "INVALID_REQUEST"
	// ErrCodeRateLimitExceeded marks a request rejected by the rate limiter.
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	// ErrCodeInternal marks anything unexpected.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// StructuredError carries a code, a human readable message, the cause and
// optional context for logging.
type StructuredError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *StructuredError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is and errors.As support.
func (e *StructuredError) Unwrap() error {
	return e.Cause
}

// New creates a new StructuredError with the given code and message.
func New(code ErrorCode, message string) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a code and message.
func Wrap(code ErrorCode, message string, cause error) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WrapWithContext wraps an error with additional context information.
func WrapWithContext(code ErrorCode, message string, cause error, context map[string]any) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: context,
	}
}

// StorageError wraps a store transport failure.
func StorageError(op string, cause error) *StructuredError {
	return WrapWithContext(ErrCodeStorage, "user store "+op+" failed", cause, map[string]any{"op": op})
}

// NotifyError wraps a notifier transport failure.
func NotifyError(channel string, cause error) *StructuredError {
	return WrapWithContext(ErrCodeNotify, "admin notification failed", cause, map[string]any{"channel": channel})
}

// CodeOf returns the code of the outermost StructuredError in err's chain,
// or ErrCodeInternal when there is none.
func CodeOf(err error) ErrorCode {
	var se *StructuredError
	if stderrors.As(err, &se) {
		return se.Code
	}
	return ErrCodeInternal
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}
