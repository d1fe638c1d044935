package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/ovenline/ovenline/internal/storage"
)

const (
	sessionKeyPrefix = "session:"
	activeSetKey     = "sessions:active"
	counterKey       = "sessions:count"
)

// RedisCache is the production cache tier. Sessions self-evict via per-key
// TTL; the active set and the counter are kept aligned with key lifecycle
// by Put/Delete/Sweep.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a cache tier over the given Redis URL.
func NewRedisCache(url string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}

	return &RedisCache{
		client: redis.NewClient(opts),
		ttl:    ttl,
	}, nil
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

// Put stores the session with TTL and registers it in the active set.
func (c *RedisCache) Put(ctx context.Context, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := c.client.Set(ctx, sessionKey(s.ID), data, c.ttl).Err(); err != nil {
		return err
	}

	added, err := c.client.SAdd(ctx, activeSetKey, s.ID).Result()
	if err != nil {
		return err
	}
	if added > 0 {
		if err := c.client.Incr(ctx, counterKey).Err(); err != nil {
			return err
		}
	}

	return nil
}

// Get returns the cached session, refreshing its TTL on a hit.
func (c *RedisCache) Get(ctx context.Context, id string) (*Session, error) {
	data, err := c.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("corrupt cached session %s: %w", id, err)
	}

	// Activity extends the session's life
	if err := c.client.Expire(ctx, sessionKey(id), c.ttl).Err(); err != nil {
		log.Warn().Str("sessionID", id).Err(err).Msg("Failed to refresh session TTL")
	}

	return &s, nil
}

// Update applies a partial update to an existing entry.
func (c *RedisCache) Update(ctx context.Context, id string, u Update) error {
	data, err := c.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return storage.ErrNotFound
	}
	if err != nil {
		return err
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("corrupt cached session %s: %w", id, err)
	}

	u.apply(&s)

	updated, err := json.Marshal(&s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	return c.client.Set(ctx, sessionKey(id), updated, c.ttl).Err()
}

// Delete removes the session and deregisters it from the active set.
func (c *RedisCache) Delete(ctx context.Context, id string) (bool, error) {
	deleted, err := c.client.Del(ctx, sessionKey(id)).Result()
	if err != nil {
		return false, err
	}

	removed, err := c.client.SRem(ctx, activeSetKey, id).Result()
	if err != nil {
		return deleted > 0, err
	}
	if removed > 0 {
		if err := c.client.Decr(ctx, counterKey).Err(); err != nil {
			return true, err
		}
	}

	return deleted > 0 || removed > 0, nil
}

// ActiveIDs enumerates the active-session set.
func (c *RedisCache) ActiveIDs(ctx context.Context) ([]string, error) {
	return c.client.SMembers(ctx, activeSetKey).Result()
}

// Count reads the session counter. A missing key counts as zero.
func (c *RedisCache) Count(ctx context.Context) (int, error) {
	n, err := c.client.Get(ctx, counterKey).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if n < 0 {
		// Deletes racing with TTL expiry can briefly undershoot
		return 0, nil
	}
	return n, nil
}

// SetCount overwrites the counter, used by reconciliation.
func (c *RedisCache) SetCount(ctx context.Context, n int) error {
	return c.client.Set(ctx, counterKey, n, 0).Err()
}

// Sweep removes active-set members whose session keys have self-evicted and
// decrements the counter for each.
func (c *RedisCache) Sweep(ctx context.Context) (int, error) {
	ids, err := c.client.SMembers(ctx, activeSetKey).Result()
	if err != nil {
		return 0, err
	}

	swept := 0
	for _, id := range ids {
		exists, err := c.client.Exists(ctx, sessionKey(id)).Result()
		if err != nil {
			return swept, err
		}
		if exists > 0 {
			continue
		}

		removed, err := c.client.SRem(ctx, activeSetKey, id).Result()
		if err != nil {
			return swept, err
		}
		if removed > 0 {
			if err := c.client.Decr(ctx, counterKey).Err(); err != nil {
				return swept, err
			}
			swept++
		}
	}

	return swept, nil
}

// Reset clears the counter and the active set. Session keys are left to
// their TTLs.
func (c *RedisCache) Reset(ctx context.Context) error {
	return c.client.Del(ctx, counterKey, activeSetKey).Err()
}

// Ping reports whether the cache tier is reachable.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
