package chronologue_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fwojciec/chronologue"
	"github.com/fwojciec/chronologue/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type transientError struct{ retry bool }

func (e transientError) Error() string   { return "transient" }
func (e transientError) Retryable() bool { return e.retry }

func noBackoff(int) time.Duration { return 0 }

func TestRetryBackend_Infer(t *testing.T) {
	t.Parallel()

	t.Run("retries transient errors", func(t *testing.T) {
		t.Parallel()

		calls := 0
		backend := &mock.InferenceBackend{
			InferFn: func(context.Context, chronologue.InferenceRequest) (*chronologue.InferenceResponse, error) {
				calls++
				if calls < 3 {
					return nil, transientError{retry: true}
				}
				return &chronologue.InferenceResponse{Status: chronologue.StatusSuccess, Content: "{}"}, nil
			},
		}

		resp, err := (&chronologue.RetryBackend{Backend: backend, BackoffFn: noBackoff}).Infer(context.Background(), chronologue.InferenceRequest{})

		require.NoError(t, err)
		assert.Equal(t, "{}", resp.Content)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		t.Parallel()

		calls := 0
		backend := &mock.InferenceBackend{
			InferFn: func(context.Context, chronologue.InferenceRequest) (*chronologue.InferenceResponse, error) {
				calls++
				return nil, transientError{retry: true}
			},
		}

		_, err := (&chronologue.RetryBackend{Backend: backend, MaxRetries: 2, BackoffFn: noBackoff}).Infer(context.Background(), chronologue.InferenceRequest{})

		require.Error(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("permanent errors return at once", func(t *testing.T) {
		t.Parallel()

		calls := 0
		permanent := errors.New("bad request")
		backend := &mock.InferenceBackend{
			InferFn: func(context.Context, chronologue.InferenceRequest) (*chronologue.InferenceResponse, error) {
				calls++
				return nil, permanent
			},
		}

		_, err := (&chronologue.RetryBackend{Backend: backend, BackoffFn: noBackoff}).Infer(context.Background(), chronologue.InferenceRequest{})

		assert.ErrorIs(t, err, permanent)
		assert.Equal(t, 1, calls)
	})

	t.Run("stops waiting when the context ends", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		backend := &mock.InferenceBackend{
			InferFn: func(context.Context, chronologue.InferenceRequest) (*chronologue.InferenceResponse, error) {
				cancel()
				return nil, transientError{retry: true}
			},
		}

		_, err := (&chronologue.RetryBackend{Backend: backend, BackoffFn: func(int) time.Duration { return time.Hour }}).Infer(ctx, chronologue.InferenceRequest{})

		assert.ErrorIs(t, err, context.Canceled)
	})
}
