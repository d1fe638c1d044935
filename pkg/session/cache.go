package session

import (
	"context"
)

// Cache is the ephemeral session tier: a low-latency key-value store with
// per-key TTL, an active-session set and an atomic session counter.
// Implementations own their TTL, configured at construction. A miss is
// reported as storage.ErrNotFound; any other error means the tier itself
// failed and the caller should degrade to the durable tier.
type Cache interface {
	// Put stores a session under its TTL and registers it in the active
	// set. The counter is incremented only for ids not already
	// registered, so re-putting an existing session is idempotent.
	Put(ctx context.Context, s *Session) error

	// Get returns the cached session, refreshing its TTL.
	Get(ctx context.Context, id string) (*Session, error)

	// Update applies a partial update to an existing entry, refreshing
	// its TTL.
	Update(ctx context.Context, id string, u Update) error

	// Delete removes the session and deregisters it. The bool reports
	// whether anything was actually removed; deleting an absent session
	// is not an error.
	Delete(ctx context.Context, id string) (bool, error)

	// ActiveIDs enumerates the active-session set.
	ActiveIDs(ctx context.Context) ([]string, error)

	// Count reads the atomic session counter.
	Count(ctx context.Context) (int, error)

	// SetCount overwrites the counter, used by reconciliation.
	SetCount(ctx context.Context, n int) error

	// Sweep drops active-set members whose entries have expired and fixes
	// the counter accordingly, returning how many were dropped.
	Sweep(ctx context.Context) (int, error)

	// Reset clears the counter and the active set.
	Reset(ctx context.Context) error

	// Ping reports whether the tier is reachable.
	Ping(ctx context.Context) error
}
