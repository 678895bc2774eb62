// Package httpapi mounts the auth and settings routes on a
// [net/http.ServeMux].
//
// Routes:
//
//	POST  /auth/register             anonymous only
//	POST  /auth/login                anonymous only
//	POST  /auth/logout               authenticated
//	GET   /auth/me                   authenticated
//	POST  /auth/change-password      authenticated
//	GET   /settings/{category}       authenticated
//	GET   /settings/{category}/{key} authenticated
//	PATCH /settings/{category}/{key} setting:update
//	POST  /settings                  setting:create
//
// Every route runs behind [middleware.Identify]. Bodies are JSON and are
// decoded through the validation package, so malformed input is answered
// with {"error":"Validation failed","details":[...]} before the engine is
// called.
package httpapi
