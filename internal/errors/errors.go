package errors

import (
	"fmt"
)

// IndexError is the structured error type for semidex.
// It provides context for error handling, logging, and user presentation.
type IndexError struct {
	// Code is the unique error code (e.g., "ERR_301_MISSING_CREDENTIAL").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, Persistence, Provider, ...).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error
}

// Error implements the error interface.
func (e *IndexError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *IndexError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with IndexError.
func (e *IndexError) Is(target error) bool {
	if t, ok := target.(*IndexError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *IndexError) WithDetail(key, value string) *IndexError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates a new IndexError with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *IndexError {
	return &IndexError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Newf creates a new IndexError with a formatted message.
func Newf(code string, format string, args ...any) *IndexError {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// Wrap creates an IndexError from an existing error.
// The error's message becomes the IndexError message.
// Returns nil if err is nil.
func Wrap(code string, err error) *IndexError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// Sentinel errors for errors.Is checks against caller-visible categories.
var (
	// ErrMissingCredential is returned when a provider call is attempted
	// without a configured API key.
	ErrMissingCredential = New(ErrCodeMissingCredential, "provider API key is not configured", nil)

	// ErrProviderHTTP is returned for non-success HTTP responses from the
	// embedding provider.
	ErrProviderHTTP = New(ErrCodeProviderHTTP, "provider returned an error response", nil)

	// ErrEmbeddingTimeout is returned when the hard timeout around a provider
	// call elapses. Distinct from ErrProviderHTTP so callers can apply a
	// different backoff policy.
	ErrEmbeddingTimeout = New(ErrCodeEmbeddingTimeout, "embedding request timed out", nil)

	// ErrDimensionMismatch is returned when a vector's length does not match
	// the store's configured dimension, on insert or on snapshot load.
	ErrDimensionMismatch = New(ErrCodeDimensionMismatch, "embedding dimension mismatch", nil)

	// ErrPersistenceIO is returned for snapshot read/write/rename failures.
	ErrPersistenceIO = New(ErrCodePersistenceIO, "snapshot I/O failure", nil)

	// ErrLockAcquisition indicates a lock could not be acquired. Treated as
	// an unrecoverable internal error.
	ErrLockAcquisition = New(ErrCodeLockAcquisition, "failed to acquire lock", nil)
)

// MissingCredentialError builds a MissingCredential error naming the provider.
func MissingCredentialError(provider string) *IndexError {
	return Newf(ErrCodeMissingCredential, "no API key configured for provider %q", provider).
		WithDetail("provider", provider)
}

// ProviderHTTPError builds a ProviderHTTP error carrying status and body text.
func ProviderHTTPError(status int, body string) *IndexError {
	return Newf(ErrCodeProviderHTTP, "provider returned status %d: %s", status, body).
		WithDetail("status", fmt.Sprintf("%d", status))
}

// DimensionMismatchError builds a DimensionMismatch error with both lengths.
func DimensionMismatchError(expected, got int) *IndexError {
	return Newf(ErrCodeDimensionMismatch, "dimension mismatch: expected %d, got %d", expected, got)
}

// IsFatal checks if an error has fatal severity.
// Fatal errors should abort the current operation.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if ie, ok := err.(*IndexError); ok {
		return ie.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from an IndexError.
// Returns empty string if not an IndexError.
func GetCode(err error) string {
	if ie, ok := err.(*IndexError); ok {
		return ie.Code
	}
	return ""
}

// GetCategory extracts the category from an IndexError.
// Returns empty string if not an IndexError.
func GetCategory(err error) Category {
	if ie, ok := err.(*IndexError); ok {
		return ie.Category
	}
	return ""
}
