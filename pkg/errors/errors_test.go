package errors

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndWrap(t *testing.T) {
	err := New(ErrCodeQueryFailed, "query failed")
	assert.Equal(t, ErrCodeQueryFailed, err.Code)
	assert.Equal(t, SeverityError, err.Severity)
	assert.False(t, err.Recoverable)

	wrapped := Wrap(err, ErrCodeInternal, "outer")
	assert.Equal(t, err, wrapped.Unwrap())

	assert.Nil(t, Wrap(nil, ErrCodeInternal, "nothing"))
}

func TestWrapInheritsContext(t *testing.T) {
	inner := New(ErrCodeQueryFailed, "inner").WithContext("query", "daily-trend")
	outer := Wrap(inner, ErrCodeInternal, "outer")
	assert.Equal(t, "daily-trend", outer.Context["query"])
}

func TestErrorFormatting(t *testing.T) {
	err := New(ErrCodeConfigInvalid, "bad config").
		WithSuggestions("Run 'tastymetrics setup' to reconfigure")

	msg := err.Error()
	assert.Contains(t, msg, "TMET2002")
	assert.Contains(t, msg, "bad config")
	assert.Contains(t, msg, "Suggestions:")
	assert.Contains(t, msg, "1. Run 'tastymetrics setup'")
}

func TestIsComparesByCode(t *testing.T) {
	a := New(ErrCodeObjectNotFound, "one")
	b := New(ErrCodeObjectNotFound, "two")
	c := New(ErrCodeQueryFailed, "three")

	assert.ErrorIs(t, a, b)
	assert.NotErrorIs(t, a, c)
}

func TestQueryErrorClassification(t *testing.T) {
	tests := []struct {
		name  string
		cause error
		want  ErrorCode
	}{
		{"missing object", fmt.Errorf("Object 'ORDERS_V' does not exist or not authorized"), ErrCodeObjectNotFound},
		{"invalid identifier", fmt.Errorf("invalid identifier 'ORDER_TOTALS'"), ErrCodeObjectNotFound},
		{"timeout", fmt.Errorf("query timeout after 30s"), ErrCodeQueryTimeout},
		{"generic", fmt.Errorf("network broke"), ErrCodeQueryFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := QueryError("query failed", "SELECT 1", tt.cause)
			assert.Equal(t, tt.want, err.Code)
		})
	}
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(New(ErrCodeObjectNotFound, "x")))
	assert.True(t, IsNotFound(New(ErrCodeQueryNotFound, "x")))
	assert.False(t, IsNotFound(New(ErrCodeQueryFailed, "x")))
	assert.False(t, IsNotFound(fmt.Errorf("plain")))
}

func TestGetErrorCode(t *testing.T) {
	assert.Equal(t, ErrCodeConfigInvalid, GetErrorCode(New(ErrCodeConfigInvalid, "x")))
	assert.Equal(t, ErrCodeInternal, GetErrorCode(fmt.Errorf("plain")))

	wrapped := fmt.Errorf("outer: %w", New(ErrCodeObjectNotFound, "inner"))
	assert.Equal(t, ErrCodeObjectNotFound, GetErrorCode(wrapped))
}

func TestQueryErrorTruncatesLongQueries(t *testing.T) {
	long := ""
	for i := 0; i < 50; i++ {
		long += "SELECT * FROM ORDERS_V; "
	}
	err := QueryError("failed", long, fmt.Errorf("boom"))
	stored, ok := err.Context["query"].(string)
	require.True(t, ok)
	assert.LessOrEqual(t, len(stored), 203)
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	config := &RetryConfig{
		MaxRetries:     3,
		InitialDelay:   time.Millisecond,
		MaxDelay:       5 * time.Millisecond,
		Multiplier:     2.0,
		RetryableError: func(error) bool { return true },
	}

	attempts := 0
	err := Retry(context.Background(), config, func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return New(ErrCodeConnectionTimeout, "transient").AsRecoverable()
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryStopsOnNonRetryableError(t *testing.T) {
	attempts := 0
	err := RetryWithBackoff(context.Background(), func(ctx context.Context) error {
		attempts++
		return New(ErrCodeAuthenticationFailed, "bad credentials")
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, ErrCodeAuthenticationFailed, GetErrorCode(err))
}

func TestRetryExhaustsAttempts(t *testing.T) {
	config := &RetryConfig{
		MaxRetries:     2,
		InitialDelay:   time.Millisecond,
		MaxDelay:       2 * time.Millisecond,
		Multiplier:     1.0,
		RetryableError: func(error) bool { return true },
	}

	attempts := 0
	err := Retry(context.Background(), config, func(ctx context.Context) error {
		attempts++
		return New(ErrCodeServiceUnavailable, "still down")
	})

	require.Error(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, ErrCodeConnectionFailed, GetErrorCode(err))
}
