// Package audit implements async event dispatching for security-relevant
// operations such as registration, login, logout and password changes.
//
// # Components
//
//   - [Sink]: interface for event consumers (channel, JSON writer, slog, no-op).
//   - [Dispatcher]: buffered async relay with drop-if-full or block-if-full semantics.
//   - [Event]: structured audit record with id, timestamp, type, user, session, IP, metadata.
//
// # Architecture boundaries
//
// This package owns event buffering and sink delivery. The engine decides
// which events to emit. It must not import huiauth or sibling internal
// packages.
package audit
