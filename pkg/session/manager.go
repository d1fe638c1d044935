package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ovenline/ovenline/internal/observability"
	"github.com/ovenline/ovenline/internal/storage"
)

// Manager owns session state across the two tiers. The durable tier is
// authoritative; the cache tier is a best-effort fast path. There are no
// cross-tier transactions: creates compensate, updates use union semantics,
// and divergence between tiers is logged rather than hidden.
type Manager struct {
	cache   Cache // nil when the deployment runs without a cache tier
	store   *durableStore
	retry   *storage.Retryer
	timeout time.Duration
	logger  zerolog.Logger
}

// Config holds session manager configuration
type Config struct {
	DB      *sql.DB
	Cache   Cache
	Retryer *storage.Retryer
	Timeout time.Duration
	Logger  zerolog.Logger
}

// NewManager creates a new session manager and ensures the schema exists.
func NewManager(cfg Config) (*Manager, error) {
	observability.EnsureRegistered()

	if cfg.DB == nil {
		return nil, errors.New("database handle is required")
	}
	if cfg.Retryer == nil {
		cfg.Retryer = storage.NewRetryer(storage.DefaultRetryConfig())
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Minute
	}

	store, err := newDurableStore(cfg.DB)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		cache:   cfg.Cache,
		store:   store,
		retry:   cfg.Retryer,
		timeout: cfg.Timeout,
		logger:  cfg.Logger,
	}

	m.logger.Info().
		Dur("timeout", cfg.Timeout).
		Bool("cacheTier", cfg.Cache != nil).
		Msg("Session manager initialized")
	return m, nil
}

func validateSessionID(id string) error {
	if id == "" {
		return storage.Permanent(errors.New("session id cannot be empty"))
	}
	return nil
}

// Create stores a new session in both tiers. The durable write is
// authoritative: if it fails, any cache entry already written is rolled back
// with a compensating delete and the error surfaces. A failed cache write
// alone is logged and the call still succeeds.
func (m *Manager) Create(ctx context.Context, s *Session) error {
	if err := validateSessionID(s.ID); err != nil {
		return err
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}

	start := time.Now()
	defer func() {
		observability.RecordSessionSave(time.Since(start))
	}()

	logger := m.logger.With().Str("sessionID", s.ID).Logger()

	cacheWritten := false
	if m.cache != nil {
		if err := m.cache.Put(ctx, s); err != nil {
			// Session stays cache-cold; reads fall through to the
			// durable tier
			logger.Warn().Err(err).Msg("Cache-tier session write failed")
		} else {
			cacheWritten = true
		}
	}

	err := m.retry.Do(ctx, "session.create", func(ctx context.Context) error {
		return m.store.insert(ctx, s)
	})
	if err != nil {
		if cacheWritten {
			// A session must never exist only in the cache
			if _, delErr := m.cache.Delete(ctx, s.ID); delErr != nil {
				logger.Error().Err(delErr).Msg("Compensating cache delete failed")
			}
		}
		return fmt.Errorf("failed to create session %s: %w", s.ID, err)
	}

	m.publishCount(ctx)
	logger.Info().Str("interface", s.InterfaceType).Msg("Session created")
	return nil
}

// Get retrieves a session, preferring the cache tier. A cache miss reads
// through to the durable tier without repopulating the cache entry.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	if err := validateSessionID(id); err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() {
		observability.RecordSessionLoad(time.Since(start))
	}()

	if m.cache != nil {
		s, err := m.cache.Get(ctx, id)
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			observability.RecordCacheFallback("get")
			m.logger.Warn().Str("sessionID", id).Err(err).
				Msg("Cache tier unavailable, reading durable tier")
		}
	}

	var s *Session
	err := m.retry.Do(ctx, "session.get", func(ctx context.Context) error {
		var getErr error
		s, getErr = m.store.get(ctx, id)
		return getErr
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Update writes a partial update to both tiers with union semantics: the
// call succeeds if either tier accepts it. Losing one incremental
// conversational update is less harmful than aborting a live call, so a
// one-sided failure is only logged as tier divergence.
func (m *Manager) Update(ctx context.Context, id string, u Update) error {
	if err := validateSessionID(id); err != nil {
		return err
	}

	var cacheErr error
	if m.cache != nil {
		cacheErr = m.cache.Update(ctx, id, u)
	} else {
		cacheErr = storage.ErrNotFound
	}

	dbErr := m.retry.Do(ctx, "session.update", func(ctx context.Context) error {
		return m.store.update(ctx, id, u)
	})

	if cacheErr != nil && dbErr != nil {
		return fmt.Errorf("failed to update session %s: %w", id, errors.Join(dbErr, cacheErr))
	}

	if m.cache != nil && (cacheErr != nil) != (dbErr != nil) {
		m.logger.Warn().
			Str("sessionID", id).
			AnErr("cacheErr", cacheErr).
			AnErr("durableErr", dbErr).
			Msg("Session tiers diverged after partial update")
	}

	m.logger.Debug().Str("sessionID", id).Msg("Session updated")
	return nil
}

// Delete removes the session from both tiers. Deleting an absent session is
// not an error in either tier; only an actual tier failure surfaces, and
// only when no tier succeeded.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if err := validateSessionID(id); err != nil {
		return err
	}

	var cacheHad bool
	var cacheErr error
	if m.cache != nil {
		cacheHad, cacheErr = m.cache.Delete(ctx, id)
		if cacheErr != nil {
			m.logger.Warn().Str("sessionID", id).Err(cacheErr).
				Msg("Cache-tier session delete failed")
		}
	}

	var dbHad bool
	dbErr := m.retry.Do(ctx, "session.delete", func(ctx context.Context) error {
		var err error
		dbHad, err = m.store.delete(ctx, id)
		return err
	})

	if dbErr != nil && (m.cache == nil || cacheErr != nil) {
		return fmt.Errorf("failed to delete session %s: %w", id, errors.Join(dbErr, cacheErr))
	}

	m.publishCount(ctx)
	m.logger.Info().
		Str("sessionID", id).
		Bool("cacheHad", cacheHad).
		Bool("durableHad", dbHad).
		Msg("Session deleted")
	return nil
}

// ActiveSessions enumerates the cache tier's active set and hydrates each
// entry. When enumeration fails the durable tier is scanned instead.
func (m *Manager) ActiveSessions(ctx context.Context) ([]*Session, error) {
	if m.cache != nil {
		ids, err := m.cache.ActiveIDs(ctx)
		if err == nil {
			sessions := make([]*Session, 0, len(ids))
			for _, id := range ids {
				s, getErr := m.cache.Get(ctx, id)
				if getErr != nil {
					// Expired between enumeration and hydration
					continue
				}
				sessions = append(sessions, s)
			}
			return sessions, nil
		}

		observability.RecordCacheFallback("active_sessions")
		m.logger.Warn().Err(err).
			Msg("Cache tier unavailable, scanning durable tier for active sessions")
	}

	var sessions []*Session
	err := m.retry.Do(ctx, "session.scan", func(ctx context.Context) error {
		var scanErr error
		sessions, scanErr = m.store.scan(ctx)
		return scanErr
	})
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// CleanupExpired sweeps both tiers: the cache tier drops active-set members
// whose entries self-evicted, and the durable tier deletes rows older than
// now minus the session timeout. Returns the combined count. Safe to run
// repeatedly; a rerun on a clean store removes nothing.
func (m *Manager) CleanupExpired(ctx context.Context) (int, error) {
	cacheCleaned := 0
	if m.cache != nil {
		n, err := m.cache.Sweep(ctx)
		if err != nil {
			m.logger.Warn().Err(err).Msg("Cache-tier sweep failed")
		}
		cacheCleaned = n
	}

	cutoff := time.Now().UTC().Add(-m.timeout)
	var dbCleaned int
	err := m.retry.Do(ctx, "session.cleanup", func(ctx context.Context) error {
		var cleanErr error
		dbCleaned, cleanErr = m.store.deleteOlderThan(ctx, cutoff)
		return cleanErr
	})
	if err != nil {
		return cacheCleaned, err
	}

	total := cacheCleaned + dbCleaned
	if total > 0 {
		observability.RecordSessionsCleaned(total)
		m.logger.Info().
			Int("cacheCleaned", cacheCleaned).
			Int("durableCleaned", dbCleaned).
			Time("cutoff", cutoff).
			Msg("Cleaned up expired sessions")
	}

	m.publishCount(ctx)
	return total, nil
}

// Count returns the active session count from the cache tier's counter,
// falling back to a durable-tier row count when the cache tier is
// unavailable. The fallback includes expired-but-unswept rows, so callers
// gating admission should treat it as an upper bound.
func (m *Manager) Count(ctx context.Context) (int, error) {
	if m.cache != nil {
		n, err := m.cache.Count(ctx)
		if err == nil {
			return n, nil
		}
		observability.RecordCacheFallback("count")
		m.logger.Warn().Err(err).
			Msg("Cache tier unavailable, counting durable tier rows")
	}

	var n int
	err := m.retry.Do(ctx, "session.count", func(ctx context.Context) error {
		var countErr error
		n, countErr = m.store.count(ctx)
		return countErr
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// ReconcileCounter rebuilds the cache tier's counter from the durable
// tier's row count and returns the reconciled value. Intended for startup
// and recovery after cache-tier outages.
func (m *Manager) ReconcileCounter(ctx context.Context) (int, error) {
	var n int
	err := m.retry.Do(ctx, "session.count", func(ctx context.Context) error {
		var countErr error
		n, countErr = m.store.count(ctx)
		return countErr
	})
	if err != nil {
		return 0, err
	}

	if m.cache != nil {
		if err := m.cache.SetCount(ctx, n); err != nil {
			return n, fmt.Errorf("failed to write reconciled count: %w", err)
		}
	}

	observability.SetActiveSessions(n)
	m.logger.Info().Int("count", n).Msg("Session counter reconciled")
	return n, nil
}

// Reset clears the cache tier's counter and active set. For recovery and
// testing; durable rows are untouched.
func (m *Manager) Reset(ctx context.Context) error {
	if m.cache == nil {
		return nil
	}
	if err := m.cache.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset cache tier: %w", err)
	}
	m.logger.Info().Msg("Cache tier reset")
	return nil
}

// Timeout returns the configured session timeout.
func (m *Manager) Timeout() time.Duration {
	return m.timeout
}

// publishCount refreshes the active-sessions gauge, best effort.
func (m *Manager) publishCount(ctx context.Context) {
	if m.cache == nil {
		return
	}
	if n, err := m.cache.Count(ctx); err == nil {
		observability.SetActiveSessions(n)
	}
}
