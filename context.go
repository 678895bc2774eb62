package huiauth

import (
	"context"
	"net/http"

	"github.com/huiapp/huiauth/session"
	"github.com/huiapp/huiauth/store"
)

type clientIPContextKey struct{}

// WithClientIP attaches the caller's IP address to ctx. The engine uses it
// for per-IP login throttling and audit events.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}

// SessionCookie is the cookie the transport must set on the response.
type SessionCookie = session.Cookie

// AuthContext is the identity attached to a request. User is nil for
// anonymous requests. Session is set only for session identities.
type AuthContext struct {
	User    *Identity
	Session *store.Session
	Source  IdentitySource
	// RefreshCookie is set when the session was extended and the cookie
	// should be re-sent with the new lifetime.
	RefreshCookie *SessionCookie
}

// Anonymous reports whether no identity was resolved.
func (a *AuthContext) Anonymous() bool {
	return a == nil || a.User == nil
}

// Permissions returns the identity's permissions, never nil.
func (a *AuthContext) Permissions() []string {
	if a.Anonymous() {
		return []string{}
	}
	return a.User.Permissions
}

// SetRefreshCookie writes RefreshCookie to w when present.
func (a *AuthContext) SetRefreshCookie(w http.ResponseWriter) {
	if a == nil || a.RefreshCookie == nil {
		return
	}
	http.SetCookie(w, a.RefreshCookie.HTTP())
}
