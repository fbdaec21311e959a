package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DerivesCategoryAndSeverity(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		category Category
		severity Severity
	}{
		{"config", ErrCodeConfigInvalid, CategoryConfig, SeverityError},
		{"persistence", ErrCodePersistenceIO, CategoryPersistence, SeverityError},
		{"snapshot corrupt is warning", ErrCodeSnapshotCorrupt, CategoryPersistence, SeverityWarning},
		{"provider", ErrCodeProviderHTTP, CategoryProvider, SeverityError},
		{"validation", ErrCodeDimensionMismatch, CategoryValidation, SeverityError},
		{"lock is fatal", ErrCodeLockAcquisition, CategoryInternal, SeverityFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, "boom", nil)
			assert.Equal(t, tt.category, err.Category)
			assert.Equal(t, tt.severity, err.Severity)
		})
	}
}

func TestIndexError_IsMatchesByCode(t *testing.T) {
	err := MissingCredentialError("openai")
	assert.True(t, stderrors.Is(err, ErrMissingCredential))
	assert.False(t, stderrors.Is(err, ErrProviderHTTP))
}

func TestIndexError_UnwrapPreservesCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(ErrCodeProviderHTTP, cause)
	require.NotNil(t, err)
	assert.True(t, stderrors.Is(err, cause))
}

func TestIndexError_WrappedThroughFmtErrorf(t *testing.T) {
	inner := DimensionMismatchError(384, 768)
	outer := fmt.Errorf("add chunks: %w", inner)
	assert.True(t, stderrors.Is(outer, ErrDimensionMismatch))
}

func TestWrap_NilReturnsNil(t *testing.T) {
	var got *IndexError = Wrap(ErrCodePersistenceIO, nil)
	assert.Nil(t, got)
}

func TestProviderHTTPError_CarriesStatusAndBody(t *testing.T) {
	err := ProviderHTTPError(429, "rate limited")
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Message, "rate limited")
	assert.Equal(t, "429", err.Details["status"])
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(New(ErrCodeLockAcquisition, "rwmutex wedged", nil)))
	assert.False(t, IsFatal(ErrEmbeddingTimeout))
	assert.False(t, IsFatal(nil))
	assert.False(t, IsFatal(stderrors.New("plain")))
}

func TestGetCodeAndCategory(t *testing.T) {
	err := ProviderHTTPError(500, "oops")
	assert.Equal(t, ErrCodeProviderHTTP, GetCode(err))
	assert.Equal(t, CategoryProvider, GetCategory(err))
	assert.Equal(t, "", GetCode(stderrors.New("plain")))
}
