package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

// ErrNotFound indicates the requested record does not exist in the durable tier.
var ErrNotFound = errors.New("record not found")

// TransientError marks a durable-tier failure worth retrying (lock
// contention, timeouts).
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient storage error: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// PermanentError marks a durable-tier failure that retrying cannot fix
// (constraint violations, malformed statements).
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("permanent storage error: %v", e.Err)
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// Transient wraps err as a TransientError. Returns nil for nil input.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// Permanent wraps err as a PermanentError. Returns nil for nil input.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// Classify wraps a raw driver error into the transient/permanent taxonomy.
// Already-classified errors and ErrNotFound pass through unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var te *TransientError
	var pe *PermanentError
	if errors.As(err, &te) || errors.As(err, &pe) || errors.Is(err, ErrNotFound) {
		return err
	}

	if errors.Is(err, context.Canceled) {
		return Permanent(err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Transient(err)
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked, sqlite3.ErrProtocol:
			return Transient(err)
		case sqlite3.ErrConstraint, sqlite3.ErrMismatch, sqlite3.ErrTooBig:
			return Permanent(err)
		}
	}

	// Unknown driver failures are retried a bounded number of times, the
	// same stance the retry wrapper takes on generic operational errors.
	return Transient(err)
}

// IsTransient reports whether err should be retried.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
