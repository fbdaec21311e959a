// Package errors provides structured error handling for semidex.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Persistence errors (file, disk)
//   - 3XX: Provider errors (network, credentials)
//   - 4XX: Validation errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryPersistence indicates snapshot file and disk I/O errors.
	CategoryPersistence Category = "PERSISTENCE"
	// CategoryProvider indicates embedding-provider errors.
	CategoryProvider Category = "PROVIDER"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// Persistence errors (200-299)
	ErrCodePersistenceIO   = "ERR_201_PERSISTENCE_IO"
	ErrCodeSnapshotCorrupt = "ERR_202_SNAPSHOT_CORRUPT"

	// Provider errors (300-399)
	ErrCodeMissingCredential = "ERR_301_MISSING_CREDENTIAL"
	ErrCodeProviderHTTP      = "ERR_302_PROVIDER_HTTP"
	ErrCodeEmbeddingTimeout  = "ERR_303_EMBEDDING_TIMEOUT"

	// Validation errors (400-499)
	ErrCodeInvalidInput        = "ERR_401_INVALID_INPUT"
	ErrCodeDimensionMismatch   = "ERR_402_DIMENSION_MISMATCH"
	ErrCodeBatchLengthMismatch = "ERR_403_BATCH_LENGTH_MISMATCH"

	// Internal errors (500-599)
	ErrCodeInternal        = "ERR_501_INTERNAL"
	ErrCodeLockAcquisition = "ERR_502_LOCK_ACQUISITION"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryPersistence
	case '3':
		return CategoryProvider
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeLockAcquisition:
		// Should not occur under a correct locking discipline; if it does,
		// the in-memory state can no longer be trusted.
		return SeverityFatal
	case ErrCodeSnapshotCorrupt:
		// Load degrades to an empty store, so this is survivable.
		return SeverityWarning
	default:
		return SeverityError
	}
}
