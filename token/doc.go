// Package token signs and verifies stateless HS256 bearer tokens carrying
// identity and role claims.
//
// Tokens are not persisted and cannot be revoked: a leaked token stays
// valid until its exp claim passes. Managers configured with TTL 0 issue
// tokens without exp, which never expire.
//
// # Architecture boundaries
//
// The [Manager] only signs and verifies. Deciding whether a verified
// token identity is used for a request belongs to the engine.
package token
