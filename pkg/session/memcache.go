package session

import (
	"context"
	"sync"
	"time"

	"github.com/ovenline/ovenline/internal/storage"
)

// MemoryCache is a volatile Cache implementation backed by a process-local
// map. It is safe for concurrent access and suited for tests and
// deployments that run without a Redis instance. Returned sessions are
// cloned to prevent external mutation of internal state.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*memEntry
	count   int
	ttl     time.Duration
	now     func() time.Time
}

type memEntry struct {
	session   *Session
	expiresAt time.Time
}

// NewMemoryCache constructs an empty in-memory cache tier.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &MemoryCache{
		entries: make(map[string]*memEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// expired reports whether e has passed its TTL. Callers hold at least a
// read lock.
func (c *MemoryCache) expired(e *memEntry) bool {
	return c.now().After(e.expiresAt)
}

// Put stores a clone of the session under the configured TTL.
func (c *MemoryCache) Put(_ context.Context, s *Session) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Expired-but-unswept entries keep their counter slot; only a fresh
	// id increments.
	if _, ok := c.entries[s.ID]; !ok {
		c.count++
	}

	c.entries[s.ID] = &memEntry{
		session:   s.Clone(),
		expiresAt: c.now().Add(c.ttl),
	}
	return nil
}

// Get returns a clone of the cached session, refreshing its TTL.
func (c *MemoryCache) Get(_ context.Context, id string) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[id]
	if !ok || c.expired(entry) {
		return nil, storage.ErrNotFound
	}

	entry.expiresAt = c.now().Add(c.ttl)
	return entry.session.Clone(), nil
}

// Update applies a partial update to an existing entry, refreshing its TTL.
func (c *MemoryCache) Update(_ context.Context, id string, u Update) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[id]
	if !ok || c.expired(entry) {
		return storage.ErrNotFound
	}

	u.apply(entry.session)
	entry.expiresAt = c.now().Add(c.ttl)
	return nil
}

// Delete removes the session, reporting whether anything was removed.
func (c *MemoryCache) Delete(_ context.Context, id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[id]; !ok {
		return false, nil
	}

	delete(c.entries, id)
	c.count--
	return true, nil
}

// ActiveIDs lists ids of unexpired entries.
func (c *MemoryCache) ActiveIDs(_ context.Context) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]string, 0, len(c.entries))
	for id, entry := range c.entries {
		if !c.expired(entry) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Count reads the session counter.
func (c *MemoryCache) Count(_ context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.count < 0 {
		return 0, nil
	}
	return c.count, nil
}

// SetCount overwrites the counter, used by reconciliation.
func (c *MemoryCache) SetCount(_ context.Context, n int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.count = n
	return nil
}

// Sweep evicts expired entries and fixes the counter.
func (c *MemoryCache) Sweep(_ context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	swept := 0
	for id, entry := range c.entries {
		if c.expired(entry) {
			delete(c.entries, id)
			c.count--
			swept++
		}
	}
	return swept, nil
}

// Reset clears the counter and all entries.
func (c *MemoryCache) Reset(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*memEntry)
	c.count = 0
	return nil
}

// Ping always succeeds for the in-process tier.
func (c *MemoryCache) Ping(_ context.Context) error {
	return nil
}
