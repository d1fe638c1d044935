package session

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovenline/ovenline/internal/storage"
)

// setupMemCache returns a cache with a controllable clock.
func setupMemCache(t *testing.T, ttl time.Duration) (*MemoryCache, *time.Time) {
	t.Helper()

	now := time.Now().UTC()
	c := NewMemoryCache(ttl)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestMemoryCachePutAndGet(t *testing.T) {
	c, _ := setupMemCache(t, 30*time.Minute)
	ctx := context.Background()

	s := &Session{
		ID:            NewSessionID(),
		InterfaceType: InterfaceWeb,
		AgentState:    json.RawMessage(`{"step":"size"}`),
	}
	require.NoError(t, c.Put(ctx, s))

	got, err := c.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.JSONEq(t, `{"step":"size"}`, string(got.AgentState))

	// Mutating the returned copy must not touch the cached state.
	got.AgentState = json.RawMessage(`{"step":"tampered"}`)
	again, err := c.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"step":"size"}`, string(again.AgentState))
}

func TestMemoryCacheExpiry(t *testing.T) {
	c, now := setupMemCache(t, 30*time.Minute)
	ctx := context.Background()

	s := &Session{ID: NewSessionID(), InterfaceType: InterfacePhone}
	require.NoError(t, c.Put(ctx, s))

	*now = now.Add(31 * time.Minute)

	_, err := c.Get(ctx, s.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMemoryCacheGetRefreshesTTL(t *testing.T) {
	c, now := setupMemCache(t, 30*time.Minute)
	ctx := context.Background()

	s := &Session{ID: NewSessionID(), InterfaceType: InterfacePhone}
	require.NoError(t, c.Put(ctx, s))

	// Touch the session just before expiry, then advance past the
	// original deadline: the refreshed TTL must keep it alive.
	*now = now.Add(29 * time.Minute)
	_, err := c.Get(ctx, s.ID)
	require.NoError(t, err)

	*now = now.Add(29 * time.Minute)
	_, err = c.Get(ctx, s.ID)
	assert.NoError(t, err)
}

func TestMemoryCachePutIdempotentCounter(t *testing.T) {
	c, _ := setupMemCache(t, 30*time.Minute)
	ctx := context.Background()

	s := &Session{ID: NewSessionID(), InterfaceType: InterfaceWeb}
	require.NoError(t, c.Put(ctx, s))
	require.NoError(t, c.Put(ctx, s))
	require.NoError(t, c.Put(ctx, s))

	n, err := c.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMemoryCacheDelete(t *testing.T) {
	c, _ := setupMemCache(t, 30*time.Minute)
	ctx := context.Background()

	s := &Session{ID: NewSessionID(), InterfaceType: InterfaceWeb}
	require.NoError(t, c.Put(ctx, s))

	had, err := c.Delete(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, had)

	had, err = c.Delete(ctx, s.ID)
	require.NoError(t, err)
	assert.False(t, had)

	n, err := c.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestMemoryCacheSweep(t *testing.T) {
	c, now := setupMemCache(t, 30*time.Minute)
	ctx := context.Background()

	expired := []string{NewSessionID(), NewSessionID()}
	for _, id := range expired {
		require.NoError(t, c.Put(ctx, &Session{ID: id, InterfaceType: InterfacePhone}))
	}

	*now = now.Add(31 * time.Minute)
	fresh := NewSessionID()
	require.NoError(t, c.Put(ctx, &Session{ID: fresh, InterfaceType: InterfaceWeb}))

	swept, err := c.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, swept)

	ids, err := c.ActiveIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{fresh}, ids)

	n, err := c.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMemoryCacheActiveIDsSkipsExpired(t *testing.T) {
	c, now := setupMemCache(t, 30*time.Minute)
	ctx := context.Background()

	old := NewSessionID()
	require.NoError(t, c.Put(ctx, &Session{ID: old, InterfaceType: InterfacePhone}))

	*now = now.Add(31 * time.Minute)
	live := NewSessionID()
	require.NoError(t, c.Put(ctx, &Session{ID: live, InterfaceType: InterfaceWeb}))

	ids, err := c.ActiveIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{live}, ids)
}

func TestMemoryCacheUpdate(t *testing.T) {
	c, _ := setupMemCache(t, 30*time.Minute)
	ctx := context.Background()

	s := &Session{ID: NewSessionID(), InterfaceType: InterfaceWeb}
	require.NoError(t, c.Put(ctx, s))

	phone := "+15550009999"
	require.NoError(t, c.Update(ctx, s.ID, Update{CustomerPhone: &phone}))

	got, err := c.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, phone, got.CustomerPhone)

	err = c.Update(ctx, NewSessionID(), Update{CustomerPhone: &phone})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMemoryCacheReset(t *testing.T) {
	c, _ := setupMemCache(t, 30*time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, &Session{ID: NewSessionID(), InterfaceType: InterfaceWeb}))
	require.NoError(t, c.Reset(ctx))

	n, err := c.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	ids, err := c.ActiveIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestMemoryCacheConcurrentAccess(t *testing.T) {
	c := NewMemoryCache(30 * time.Minute)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := NewSessionID()
			_ = c.Put(ctx, &Session{ID: id, InterfaceType: InterfacePhone})
			_, _ = c.Get(ctx, id)
			_, _ = c.Delete(ctx, id)
		}()
	}
	wg.Wait()

	n, err := c.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
