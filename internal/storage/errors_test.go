package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		transient bool
	}{
		{"busy", sqlite3.Error{Code: sqlite3.ErrBusy}, true},
		{"locked", sqlite3.Error{Code: sqlite3.ErrLocked}, true},
		{"protocol", sqlite3.Error{Code: sqlite3.ErrProtocol}, true},
		{"constraint", sqlite3.Error{Code: sqlite3.ErrConstraint}, false},
		{"mismatch", sqlite3.Error{Code: sqlite3.ErrMismatch}, false},
		{"too_big", sqlite3.Error{Code: sqlite3.ErrTooBig}, false},
		{"deadline", context.DeadlineExceeded, true},
		{"canceled", context.Canceled, false},
		{"unknown", errors.New("disk exploded"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classified := Classify(tt.err)
			assert.Equal(t, tt.transient, IsTransient(classified))
			assert.ErrorIs(t, classified, tt.err)
		})
	}
}

func TestClassifyNil(t *testing.T) {
	assert.NoError(t, Classify(nil))
}

func TestClassifyPassesThroughClassified(t *testing.T) {
	te := Transient(errors.New("again"))
	assert.Same(t, te, Classify(te))

	pe := Permanent(errors.New("never"))
	assert.Same(t, pe, Classify(pe))
}

func TestClassifyPassesThroughNotFound(t *testing.T) {
	classified := Classify(ErrNotFound)
	assert.ErrorIs(t, classified, ErrNotFound)
	assert.False(t, IsTransient(classified))
}

func TestWrappersReturnNilForNil(t *testing.T) {
	assert.NoError(t, Transient(nil))
	assert.NoError(t, Permanent(nil))
}

func TestWrappersUnwrap(t *testing.T) {
	base := errors.New("root cause")
	assert.ErrorIs(t, Transient(base), base)
	assert.ErrorIs(t, Permanent(base), base)
}
