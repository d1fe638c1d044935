// Package session manages live ordering sessions across two storage tiers.
//
// Invariants:
// - The durable tier is authoritative; the cache tier never holds a session alone.
// - Session reads prefer the cache tier and fall through to the durable tier.
// - Updates succeed if either tier accepts them; divergence is logged.
// - Deletes and cleanup runs are idempotent.
//
// Usage:
//
//	mgr, _ := session.NewManager(session.Config{DB: db, Cache: cache})
//	s := &session.Session{ID: session.NewSessionID(), InterfaceType: session.InterfaceWeb}
//	_ = mgr.Create(ctx, s)
//	got, _ := mgr.Get(ctx, s.ID)
//	_ = got
package session
