// Package store defines the storage-neutral contract the authentication
// core persists users, roles and sessions through.
//
// # Architecture boundaries
//
// The contract is expressed as small interfaces ([SessionStore],
// [UserStore], [RoleStore]) composed by [Adapter]. Implementations live in
// sub-packages: memstore (in-process), mongostore (document store) and
// redisstore (sessions only, paired with a user store via [NewAdapter]).
//
// Every user read that can feed an authentication context resolves the
// user's role and attaches its current permission list. Implementations
// must not return a permission list persisted on the user record.
//
// # What this package must NOT do
//
//   - Hash or verify passwords.
//   - Decide whether a session is expired for authentication purposes.
//   - Import the engine, session, or token packages.
package store
