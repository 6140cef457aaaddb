package chronologue

import (
	"context"
	"errors"
	"time"
)

// DefaultMaxRetries is the default number of attempts per inference call.
const DefaultMaxRetries = 3

// Compile-time interface verification.
var _ InferenceBackend = (*RetryBackend)(nil)

// RetryBackend retries transient backend errors with backoff. An error is
// retried when it reports Retryable() == true; other errors return at once.
type RetryBackend struct {
	Backend    InferenceBackend
	MaxRetries int // DefaultMaxRetries when 0

	// BackoffFn returns the backoff duration for a given attempt (1-indexed).
	// If nil, uses exponential backoff (1s, 2s, 4s...).
	BackoffFn func(attempt int) time.Duration
}

// Infer calls the wrapped backend until it succeeds, returns a permanent
// error, or runs out of attempts.
func (r *RetryBackend) Infer(ctx context.Context, req InferenceRequest) (*InferenceResponse, error) {
	maxRetries := r.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	backoffFn := r.BackoffFn
	if backoffFn == nil {
		backoffFn = func(attempt int) time.Duration {
			return time.Duration(1<<(attempt-1)) * time.Second
		}
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		resp, err := r.Backend.Infer(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !retryable(err) {
			return nil, err
		}

		// Don't sleep after last attempt
		if attempt < maxRetries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoffFn(attempt)):
			}
		}
	}
	return nil, lastErr
}

func retryable(err error) bool {
	var r interface{ Retryable() bool }
	return errors.As(err, &r) && r.Retryable()
}
