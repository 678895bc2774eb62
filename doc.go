// Package huiauth is the credential and session core of the hụi (rotating
// savings circle) backend: registration, login, logout, password changes,
// server-side sessions with sliding expiry, HS256 bearer tokens and
// role-based permissions.
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// huiauth is the public surface. It exposes [Engine], [Builder], [Config]
// and value types ([Identity], [Credentials], [AuthContext]). Password
// hashing and strength live in password/, persistence behind the store/
// interfaces, cookies and session state in session/, tokens in token/ and
// the settings cache in settings/. Rate limiting and audit dispatch live
// under internal/ and are never exported.
//
// # Identity precedence
//
// [Engine.Authenticate] accepts a session id and a bearer token. A valid
// session always wins; the token is consulted only when no session
// resolves. Tokens cannot be revoked before they expire.
//
// # Errors
//
// Every failure unwraps to one of the sentinel errors in this package.
// [StatusCode] maps them onto 400, 401, 403, 404 or 500.
//
// # What this package must NOT do
//
//   - Expose Redis clients or store drivers in its public API.
//   - Perform I/O outside of Engine methods.
//   - Import any sub-package that re-imports huiauth (no import cycles).
package huiauth
