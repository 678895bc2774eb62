// Package internal contains helper utilities that are private to huiauth,
// including session id generation and identifier hashing.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - config: koanf-backed process configuration
//   - logging: slog setup with trace correlation and oops-aware error logging
//   - rate: Redis-backed fixed-window limiter used for login throttling
//   - respond: JSON response helpers shared by middleware and httpapi
//
// # What this package must NOT do
//
//   - Export types that appear in the public huiauth API.
//   - Be imported by any package outside the huiauth module.
package internal
