package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"github.com/huiapp/huiauth"
	"github.com/huiapp/huiauth/internal/respond"
	"github.com/huiapp/huiauth/session"
	"github.com/huiapp/huiauth/token"
)

// Authenticator resolves request credentials. [*huiauth.Engine] implements it.
type Authenticator interface {
	Authenticate(ctx context.Context, sessionID, bearer string) (*huiauth.AuthContext, error)
	// ReadSessionCookie extracts the session id from a Cookie header value.
	ReadSessionCookie(header string) (string, bool)
}

// DenialRecorder is notified when a permission gate rejects a request.
// [*huiauth.Engine] implements it.
type DenialRecorder interface {
	RecordPermissionDenied(ctx context.Context, userID string, missing []string)
}

type authContextKey struct{}

type recorderContextKey struct{}

// AuthContextFromContext returns the identity attached by [Identify]. The
// second result is false when Identify did not run.
func AuthContextFromContext(ctx context.Context) (*huiauth.AuthContext, bool) {
	ac, ok := ctx.Value(authContextKey{}).(*huiauth.AuthContext)
	return ac, ok
}

// WithAuthContext attaches ac to ctx. Handlers under test use it in place
// of [Identify].
func WithAuthContext(ctx context.Context, ac *huiauth.AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey{}, ac)
}

func recorderFromContext(ctx context.Context) DenialRecorder {
	rec, _ := ctx.Value(recorderContextKey{}).(DenialRecorder)
	return rec
}

// Identify resolves the session cookie and the bearer token on every
// request and attaches the result. It never rejects a request for missing
// or bad credentials; it answers 500 only when the session store fails.
// When the session lifetime was extended the cookie is re-sent.
func Identify(auth Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	rec, _ := auth.(DenialRecorder)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := huiauth.WithClientIP(r.Context(), clientIP(r))

			sessionID, _ := auth.ReadSessionCookie(session.CookieHeader(r))
			bearer, _ := token.ReadBearer(r.Header.Get("Authorization"))

			ac, err := auth.Authenticate(ctx, sessionID, bearer)
			if err != nil {
				logger.ErrorContext(ctx, "identity resolution failed", "error", err)
				respond.Error(w, http.StatusInternalServerError, "Internal Server Error")
				return
			}
			ac.SetRefreshCookie(w)

			ctx = WithAuthContext(ctx, ac)
			if rec != nil {
				ctx = context.WithValue(ctx, recorderContextKey{}, rec)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
