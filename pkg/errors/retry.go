package errors

import (
	"context"
	cryptorand "crypto/rand"
	"encoding/binary"
	"math"
	"time"
)

// RetryConfig holds configuration for retry logic.
type RetryConfig struct {
	MaxRetries     int
	InitialDelay   time.Duration
	MaxDelay       time.Duration
	Multiplier     float64
	Jitter         bool
	RetryableError func(error) bool
}

// DefaultRetryConfig returns the retry policy used for connection
// establishment: transient network and timeout failures retry, everything
// else fails fast.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:   3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
		RetryableError: func(err error) bool {
			if IsRecoverable(err) {
				return true
			}
			switch GetErrorCode(err) {
			case ErrCodeConnectionTimeout, ErrCodeTimeout, ErrCodeServiceUnavailable:
				return true
			default:
				return false
			}
		},
	}
}

// RetryableFunc is a function that can be retried.
type RetryableFunc func(ctx context.Context) error

// Retry executes fn with exponential backoff per config.
func Retry(ctx context.Context, config *RetryConfig, fn RetryableFunc) error {
	var lastErr error

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !config.RetryableError(err) {
			return err
		}
		if attempt == config.MaxRetries {
			break
		}

		delay := calculateDelay(attempt, config)
		select {
		case <-ctx.Done():
			return Wrap(ctx.Err(), ErrCodeTimeout, "Retry cancelled")
		case <-time.After(delay):
		}
	}

	return Wrap(lastErr, ErrCodeConnectionFailed, "All retry attempts exhausted")
}

// RetryWithBackoff executes fn with the default retry policy.
func RetryWithBackoff(ctx context.Context, fn RetryableFunc) error {
	return Retry(ctx, DefaultRetryConfig(), fn)
}

func calculateDelay(attempt int, config *RetryConfig) time.Duration {
	delay := float64(config.InitialDelay) * math.Pow(config.Multiplier, float64(attempt))
	if delay > float64(config.MaxDelay) {
		delay = float64(config.MaxDelay)
	}

	if config.Jitter {
		// Up to 25% random jitter to avoid thundering-herd reconnects.
		var b [8]byte
		if _, err := cryptorand.Read(b[:]); err == nil {
			frac := float64(binary.LittleEndian.Uint64(b[:])) / float64(math.MaxUint64)
			delay += delay * 0.25 * frac
		}
	}

	return time.Duration(delay)
}
