package middleware

import (
	"net/http"

	"github.com/huiapp/huiauth/internal/respond"
	"github.com/huiapp/huiauth/permission"
)

// Rejection messages.
const (
	MsgUnauthenticated         = "Unauthenticated"
	MsgNoPermissions           = "Forbidden: No permissions"
	MsgInsufficientPermissions = "Forbidden: Insufficient permissions"
	MsgAlreadyLoggedIn         = "You are currently logged in."
)

// RequireAuth answers 401 unless [Identify] resolved an identity.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac, _ := AuthContextFromContext(r.Context())
		if ac.Anonymous() {
			respond.Message(w, http.StatusUnauthorized, MsgUnauthenticated)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAnonymous answers 403 when the request carries a live session.
// A stale or unknown cookie does not block the request.
func RequireAnonymous(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac, _ := AuthContextFromContext(r.Context())
		if ac != nil && ac.Session != nil {
			respond.Message(w, http.StatusForbidden, MsgAlreadyLoggedIn)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequirePermissions lets the request through only when the identity holds
// every permission in required. Matching is exact. An anonymous request
// gets 403 "Forbidden: No permissions"; an identity missing any permission
// gets 403 "Forbidden: Insufficient permissions". An empty required list
// admits any identity.
func RequirePermissions(required ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ac, _ := AuthContextFromContext(r.Context())
			if ac.Anonymous() {
				deny(r, "", required)
				respond.Message(w, http.StatusForbidden, MsgNoPermissions)
				return
			}

			if missing := permission.NewSet(ac.User.Permissions...).Missing(required...); len(missing) > 0 {
				deny(r, ac.User.ID, missing)
				respond.Message(w, http.StatusForbidden, MsgInsufficientPermissions)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func deny(r *http.Request, userID string, missing []string) {
	if rec := recorderFromContext(r.Context()); rec != nil {
		rec.RecordPermissionDenied(r.Context(), userID, missing)
	}
}
