package errors

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes an error for logging and HTTP status mapping.
type ErrorCode string

const (
	// Configuration errors
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
	ErrCodeMissingConfig ErrorCode = "MISSING_CONFIG"

	// Import input errors (fatal to the request)
	ErrCodeInvalidInput   ErrorCode = "INVALID_INPUT"
	ErrCodeCorruptArchive ErrorCode = "CORRUPT_ARCHIVE"
	ErrCodeNoTranscript   ErrorCode = "NO_TRANSCRIPT"
	ErrCodeEmptyImport    ErrorCode = "EMPTY_IMPORT"

	// Database errors
	ErrCodeDatabaseConnection ErrorCode = "DATABASE_CONNECTION"
	ErrCodeDatabaseQuery      ErrorCode = "DATABASE_QUERY"

	// External service errors
	ErrCodeStorageAPI   ErrorCode = "STORAGE_API"
	ErrCodeEmbeddingAPI ErrorCode = "EMBEDDING_API"

	// Internal errors
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
	ErrCodeTimeout       ErrorCode = "TIMEOUT"
)

// AppError carries a code, an operator-facing message, and optionally a
// wrapped cause, structured fields, and a message safe to show users.
type AppError struct {
	Code        ErrorCode              `json:"code"`
	Message     string                 `json:"message"`
	Err         error                  `json:"-"`
	Fields      map[string]interface{} `json:"fields,omitempty"`
	Retryable   bool                   `json:"retryable"`
	UserMessage string                 `json:"user_message,omitempty"`
}

// New creates an AppError without a cause.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// WrapRetryable is Wrap for errors callers may retry on.
func WrapRetryable(err error, code ErrorCode, message string) *AppError {
	e := Wrap(err, code, message)
	e.Retryable = true
	return e
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithField attaches a structured field and returns the error for chaining.
func (e *AppError) WithField(key string, value interface{}) *AppError {
	if e.Fields == nil {
		e.Fields = map[string]interface{}{}
	}
	e.Fields[key] = value
	return e
}

// WithUserMessage sets the message returned to API callers.
func (e *AppError) WithUserMessage(msg string) *AppError {
	e.UserMessage = msg
	return e
}

// GetCode extracts the code from anywhere in an error chain. Plain errors
// report as internal.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternalError
}

// GetUserMessage extracts the user-facing message from an error chain,
// falling back to a generic one.
func GetUserMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.UserMessage != "" {
		return appErr.UserMessage
	}
	return "An internal error occurred"
}

// IsRetryable reports whether the error chain is marked retryable.
func IsRetryable(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Retryable
}
