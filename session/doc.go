// Package session issues, validates and revokes opaque login sessions and
// owns the session cookie encoding.
//
// An [Authority] is constructed with [New] and stopped with
// [Authority.Shutdown]; there is no package-level state, so tests can run
// isolated authorities side by side.
//
// # Lifecycle
//
// A session is valid while now < ExpiresAt. Validation past that instant
// reports no session and deletes the record best-effort. When less than
// half of the configured TTL remains, validation extends the expiry to
// now+TTL and persists it. Concurrent extensions race last-write-wins.
//
// # Architecture boundaries
//
// Persistence goes through the [Store] interface (satisfied by
// *store.Adapter). This package does NOT hash passwords, verify bearer
// tokens or evaluate permissions.
package session
