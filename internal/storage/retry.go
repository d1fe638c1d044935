package storage

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"

	"github.com/ovenline/ovenline/internal/observability"
)

// RetryConfig holds retry executor configuration.
type RetryConfig struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryConfig returns default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      3,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     2 * time.Second,
	}
}

// Retryer executes a single durable-tier operation with bounded exponential
// backoff. Transient failures are retried; permanent failures abort
// immediately. Every attempt re-executes the operation from scratch, so a
// retried operation never resumes partial work.
type Retryer struct {
	config RetryConfig
}

// NewRetryer creates a new Retryer.
func NewRetryer(cfg RetryConfig) *Retryer {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultRetryConfig().MaxRetries
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = DefaultRetryConfig().InitialInterval
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = DefaultRetryConfig().MaxInterval
	}
	return &Retryer{config: cfg}
}

// Do runs op, retrying transient failures up to MaxRetries times. The name
// tags log lines and metrics for the wrapped operation.
func (r *Retryer) Do(ctx context.Context, name string, op func(ctx context.Context) error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.config.InitialInterval
	b.MaxInterval = r.config.MaxInterval

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		err := Classify(op(ctx))
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return backoff.Permanent(err)
		}

		observability.RecordStorageRetry(name)
		log.Warn().
			Str("operation", name).
			Int("attempt", attempt).
			Uint64("maxRetries", r.config.MaxRetries).
			Err(err).
			Msg("Retrying storage operation")
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(b, r.config.MaxRetries), ctx))

	if err != nil {
		log.Error().
			Str("operation", name).
			Int("attempts", attempt).
			Err(err).
			Msg("Storage operation failed")
		return err
	}

	return nil
}
