// Package rate provides the Redis-backed failed-login throttle.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Key
// prefixes, after the configured namespace:
//   - al:  login failures per identifier (sha256 of the normalized value)
//   - ali: login failures per client IP
//
// A counter at or above MaxLoginAttempts blocks further attempts until the
// window expires.
package rate
