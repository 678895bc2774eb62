// Package middleware adapts the huiauth engine to net/http.
//
// # Chain
//
//   - [Identify] runs first on every route. It reads the session cookie and
//     the Authorization bearer header, calls Engine.Authenticate and attaches
//     the resulting *huiauth.AuthContext ([AuthContextFromContext]).
//   - [RequireAuth] rejects anonymous requests with 401.
//   - [RequireAnonymous] rejects requests that already hold a session.
//   - [RequirePermissions] rejects identities missing any listed permission
//     with 403.
//
// When a request carries both a session and a token the session identity
// is used.
//
// # What this package must NOT do
//
//   - Parse or create tokens or session ids directly (delegates to Engine).
//   - Access Redis or the stores.
package middleware
