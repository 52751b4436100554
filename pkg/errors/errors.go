package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrorCode categorizes application errors for programmatic handling.
type ErrorCode string

const (
	// Connection errors (1xxx)
	ErrCodeConnectionFailed     ErrorCode = "TMET1001"
	ErrCodeConnectionTimeout    ErrorCode = "TMET1002"
	ErrCodeAuthenticationFailed ErrorCode = "TMET1003"

	// Configuration errors (2xxx)
	ErrCodeConfigNotFound  ErrorCode = "TMET2001"
	ErrCodeConfigInvalid   ErrorCode = "TMET2002"
	ErrCodeProfileNotFound ErrorCode = "TMET2003"
	ErrCodeSecretNotFound  ErrorCode = "TMET2004"

	// Query errors (3xxx)
	ErrCodeQueryFailed     ErrorCode = "TMET3001"
	ErrCodeQueryTimeout    ErrorCode = "TMET3002"
	ErrCodeObjectNotFound  ErrorCode = "TMET3003"
	ErrCodeQueryNotFound   ErrorCode = "TMET3004"
	ErrCodeResultScan      ErrorCode = "TMET3005"
	ErrCodeInvalidParams   ErrorCode = "TMET3006"

	// Query pack errors (4xxx)
	ErrCodePackSyncFailed ErrorCode = "TMET4001"
	ErrCodePackInvalid    ErrorCode = "TMET4002"

	// Validation errors (5xxx)
	ErrCodeValidationFailed ErrorCode = "TMET5001"
	ErrCodeInvalidInput     ErrorCode = "TMET5002"

	// System errors (9xxx)
	ErrCodeInternal           ErrorCode = "TMET9001"
	ErrCodeTimeout            ErrorCode = "TMET9002"
	ErrCodeServiceUnavailable ErrorCode = "TMET9003"
	ErrCodeCacheUnavailable   ErrorCode = "TMET9004"
)

// ErrorSeverity represents the severity level of an error.
type ErrorSeverity string

const (
	SeverityCritical ErrorSeverity = "CRITICAL"
	SeverityError    ErrorSeverity = "ERROR"
	SeverityWarning  ErrorSeverity = "WARNING"
	SeverityInfo     ErrorSeverity = "INFO"
)

// AppError is a structured application error with a code, context and
// user-facing suggestions.
type AppError struct {
	Code        ErrorCode
	Message     string
	Severity    ErrorSeverity
	Context     map[string]interface{}
	Cause       error
	Timestamp   time.Time
	Recoverable bool
	Suggestions []string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s] %s: %s", e.Code, e.Severity, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\nCaused by: %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\nSuggestions:")
		for i, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  %d. %s", i+1, suggestion))
		}
	}

	return b.String()
}

// Unwrap returns the cause of the error.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is compares errors by code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Severity:  SeverityError,
		Context:   make(map[string]interface{}),
		Timestamp: time.Now(),
	}
}

// Wrap wraps an existing error with AppError. Returns nil for a nil cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}

	appErr := New(code, message)
	appErr.Cause = err

	if ae, ok := err.(*AppError); ok {
		for k, v := range ae.Context {
			appErr.Context[k] = v
		}
	}

	return appErr
}

// WithContext adds context to the error.
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithSeverity sets the error severity.
func (e *AppError) WithSeverity(severity ErrorSeverity) *AppError {
	e.Severity = severity
	return e
}

// WithSuggestions adds recovery suggestions.
func (e *AppError) WithSuggestions(suggestions ...string) *AppError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// AsRecoverable marks the error as recoverable.
func (e *AppError) AsRecoverable() *AppError {
	e.Recoverable = true
	return e
}

// ConnectionError creates a connection-related error.
func ConnectionError(message string, cause error) *AppError {
	return Wrap(cause, ErrCodeConnectionFailed, message).
		WithSeverity(SeverityError).
		WithSuggestions(
			"Check your network connection",
			"Verify the Snowflake account endpoint is reachable",
			"Confirm the warehouse is running or auto-resume is enabled",
		)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, field string) *AppError {
	return New(ErrCodeConfigInvalid, message).
		WithContext("field", field).
		WithSuggestions(
			fmt.Sprintf("Check the '%s' configuration value", field),
			"Run 'tastymetrics setup' to reconfigure",
		)
}

// QueryError creates a query execution error, classifying missing-object
// failures so callers can tell a reference error from a failed read.
func QueryError(message string, query string, cause error) *AppError {
	err := Wrap(cause, ErrCodeQueryFailed, message).
		WithContext("query", truncateString(query, 200))

	if cause != nil {
		errStr := cause.Error()
		if strings.Contains(errStr, "does not exist") || strings.Contains(errStr, "not found") || strings.Contains(errStr, "invalid identifier") {
			err.Code = ErrCodeObjectNotFound
			_ = err.WithSuggestions(
				"Verify the source views exist in the configured database and schema",
				"Check for typos in object names",
				"Confirm the active role can read the reporting schema",
			)
		} else if strings.Contains(errStr, "timeout") {
			err.Code = ErrCodeQueryTimeout
			_ = err.WithSuggestions(
				"Increase the query timeout setting",
				"Check the Snowflake warehouse size",
			)
		}
	}

	return err
}

// ValidationError creates a validation error.
func ValidationError(field string, value interface{}, reason string) *AppError {
	return New(ErrCodeValidationFailed, fmt.Sprintf("Validation failed for %s: %s", field, reason)).
		WithContext("field", field).
		WithContext("value", value).
		WithSeverity(SeverityWarning).
		AsRecoverable()
}

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Recoverable
	}
	return false
}

// IsNotFound reports whether the error is a missing-object reference error.
func IsNotFound(err error) bool {
	return GetErrorCode(err) == ErrCodeObjectNotFound || GetErrorCode(err) == ErrCodeQueryNotFound
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
