package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRetryer() *Retryer {
	return NewRetryer(RetryConfig{
		MaxRetries:      3,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
	})
}

func TestRetryerSucceedsFirstAttempt(t *testing.T) {
	attempts := 0
	err := testRetryer().Do(context.Background(), "op", func(ctx context.Context) error {
		attempts++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRetryerRetriesTransientFailures(t *testing.T) {
	attempts := 0
	err := testRetryer().Do(context.Background(), "op", func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return Transient(errors.New("locked"))
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryerStopsOnPermanentFailure(t *testing.T) {
	attempts := 0
	permanent := Permanent(errors.New("constraint violated"))
	err := testRetryer().Do(context.Background(), "op", func(ctx context.Context) error {
		attempts++
		return permanent
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, attempts, "permanent failures must not be retried")
}

func TestRetryerStopsOnNotFound(t *testing.T) {
	attempts := 0
	err := testRetryer().Do(context.Background(), "op", func(ctx context.Context) error {
		attempts++
		return ErrNotFound
	})

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, attempts)
}

func TestRetryerExhaustsRetries(t *testing.T) {
	attempts := 0
	err := testRetryer().Do(context.Background(), "op", func(ctx context.Context) error {
		attempts++
		return Transient(errors.New("still locked"))
	})

	require.Error(t, err)
	assert.True(t, IsTransient(err))
	// MaxRetries bounds the retries, not the attempts.
	assert.Equal(t, 4, attempts)
}

func TestRetryerClassifiesRawErrors(t *testing.T) {
	attempts := 0
	err := testRetryer().Do(context.Background(), "op", func(ctx context.Context) error {
		attempts++
		return errors.New("transient by default")
	})

	require.Error(t, err)
	assert.Equal(t, 4, attempts, "unclassified errors are treated as transient")
}

func TestRetryerHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	err := testRetryer().Do(ctx, "op", func(ctx context.Context) error {
		attempts++
		cancel()
		return Transient(errors.New("locked"))
	})

	require.Error(t, err)
	assert.LessOrEqual(t, attempts, 2, "cancellation must stop the retry loop")
}
