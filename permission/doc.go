// Package permission defines the flat permission vocabulary, the built-in
// role catalog, and the registry used to validate role definitions.
//
// # Model
//
// A permission is a "resource:action" string such as "group:create". There is
// no hierarchy and no wildcard matching: a holder either has the exact string
// or it does not. A role is a named list of permissions.
//
// # What this package must NOT do
//
//   - Access Redis, databases, or the network.
//   - Import huiauth, session, or store.
package permission
