package huiauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	internalaudit "github.com/huiapp/huiauth/internal/audit"
	"github.com/huiapp/huiauth/internal/rate"
	"github.com/huiapp/huiauth/password"
	"github.com/huiapp/huiauth/permission"
	"github.com/huiapp/huiauth/session"
	"github.com/huiapp/huiauth/settings"
	"github.com/huiapp/huiauth/store"
	"github.com/huiapp/huiauth/token"
)

// Engine runs registration, login, logout, password changes and identity
// resolution. Build it with [New]. Safe for concurrent use.
type Engine struct {
	config   Config
	sessions *session.Authority
	tokens   *token.Manager
	hasher   *password.Argon2
	policy   *password.Policy
	users    store.UserStore
	roles    store.RoleStore
	catalog  *permission.RoleManager
	settings *settings.Service
	limiter  *rate.Limiter
	audit    *internalaudit.Dispatcher
	metrics  *Metrics
	logger   *slog.Logger
	now      func() time.Time

	closed atomic.Bool
}

// Close stops the session sweeper and drains the audit dispatcher. Safe to
// call more than once.
func (e *Engine) Close() {
	if e == nil || !e.closed.CompareAndSwap(false, true) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.sessions.Shutdown(ctx); err != nil {
		e.logger.Warn("session sweeper did not stop", "error", err)
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

func (e *Engine) ready() error {
	if e == nil || e.closed.Load() {
		return ErrEngineNotReady
	}
	return nil
}

// Sessions exposes the session authority for transports that read cookies.
func (e *Engine) Sessions() *session.Authority {
	return e.sessions
}

// Settings returns the settings service, or nil when none was configured.
func (e *Engine) Settings() *settings.Service {
	return e.settings
}

// PasswordPolicy returns the strength policy in force.
func (e *Engine) PasswordPolicy() *password.Policy {
	return e.policy
}

// ReadSessionCookie extracts the session id from a Cookie header value.
// Absent or malformed cookies report false.
func (e *Engine) ReadSessionCookie(header string) (string, bool) {
	if e == nil || e.sessions == nil {
		return "", false
	}
	return e.sessions.ReadSessionCookie(header)
}

// BlankSessionCookie returns a cookie that clears the session cookie.
func (e *Engine) BlankSessionCookie() SessionCookie {
	return e.sessions.CreateBlankSessionCookie()
}

// MetricsSnapshot copies the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return MetricsSnapshot{}
	}
	return e.metrics.Snapshot()
}

// AuditDropped counts audit events dropped under backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// SweepExpiredSessions deletes expired sessions once.
func (e *Engine) SweepExpiredSessions(ctx context.Context) (int64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	n, err := e.sessions.SweepExpired(ctx)
	if err != nil {
		return 0, e.storeErr(err)
	}
	return n, nil
}

// Authenticate resolves the caller from a session id and/or a bearer
// token. Either may be empty. When both resolve, the session identity
// wins. An unknown or expired session and a bad token both yield an
// anonymous context; only store failures are errors.
func (e *Engine) Authenticate(ctx context.Context, sessionID, bearer string) (*AuthContext, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if e.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() { e.metrics.Observe(MetricValidateLatency, time.Since(start)) }()
	}

	if sessionID != "" {
		v, err := e.sessions.ValidateSession(ctx, sessionID)
		if err != nil {
			return nil, e.storeErr(err)
		}
		if v.Valid() && v.User.Active() {
			ac := &AuthContext{
				User:    IdentityFromUser(v.User),
				Session: v.Session,
				Source:  SourceSession,
			}
			if v.Fresh {
				e.metricInc(MetricSessionExtended)
				c := e.sessions.CreateSessionCookie(v.Session.ID)
				ac.RefreshCookie = &c
			}
			if bearer != "" {
				if claims, err := e.verifyBearer(bearer); err == nil && claims.UserID != v.User.ID {
					e.logger.DebugContext(ctx, "bearer identity differs from session identity, using session",
						"session_user", v.User.ID, "token_user", claims.UserID)
				}
			}
			return ac, nil
		}
	}

	if bearer != "" {
		claims, err := e.verifyBearer(bearer)
		if err != nil {
			e.metricInc(MetricTokenRejected)
			e.logger.DebugContext(ctx, "bearer token rejected", "error", err)
			return &AuthContext{}, nil
		}
		return &AuthContext{
			User: &Identity{
				ID:          claims.UserID,
				FullName:    claims.FullName,
				Email:       claims.Email,
				Phone:       claims.Phone,
				Role:        claims.Role,
				Permissions: store.Permissions(claims.Permissions),
			},
			Source: SourceToken,
		}, nil
	}

	return &AuthContext{}, nil
}

func (e *Engine) verifyBearer(bearer string) (*token.Claims, error) {
	if e.tokens == nil {
		return nil, token.ErrInvalidSignature
	}
	return e.tokens.Verify(bearer)
}

// CurrentUser loads a fresh copy of the user record.
func (e *Engine) CurrentUser(ctx context.Context, userID string) (*Identity, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	u, err := e.users.FindByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, e.storeErr(err)
	}
	return IdentityFromUser(u), nil
}

// Logout invalidates one session. An unknown session succeeds.
func (e *Engine) Logout(ctx context.Context, sessionID string) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.sessions.InvalidateSession(ctx, sessionID); err != nil {
		return e.storeErr(err)
	}
	e.metricInc(MetricLogout)
	e.metricInc(MetricSessionInvalidated)
	e.emitAudit(ctx, auditEventLogoutSession, true, "", sessionID, nil, nil)
	return nil
}

// LogoutAll invalidates every session of userID.
func (e *Engine) LogoutAll(ctx context.Context, userID string) error {
	if err := e.ready(); err != nil {
		return err
	}
	if userID == "" {
		return ErrInvalidInput
	}
	if err := e.sessions.InvalidateUserSessions(ctx, userID); err != nil {
		return e.storeErr(err)
	}
	e.metricInc(MetricLogoutAll)
	e.emitAudit(ctx, auditEventLogoutAll, true, userID, "", nil, nil)
	return nil
}

// issue creates a session and, when enabled, a bearer token for u.
func (e *Engine) issue(ctx context.Context, u *store.User) (*Credentials, error) {
	perms := store.Permissions(u.Permissions)
	issued, err := e.sessions.CreateSession(ctx, u.ID, store.Attributes{Permissions: perms})
	if err != nil {
		return nil, e.storeErr(err)
	}
	e.metricInc(MetricSessionCreated)

	creds := &Credentials{
		User:      IdentityFromUser(u),
		SessionID: issued.Session.ID,
		ExpiresAt: issued.Session.ExpiresAt,
		Cookie:    &issued.Cookie,
	}
	if e.tokens != nil {
		signed, err := e.tokens.Sign(token.Claims{
			UserID:      u.ID,
			Email:       u.Email,
			Phone:       u.Phone,
			FullName:    u.FullName,
			Role:        u.Role,
			Permissions: perms,
		})
		if err != nil {
			return nil, fmt.Errorf("sign token: %w", err)
		}
		creds.Token = signed
	}
	return creds, nil
}

// storeErr tags backend failures with ErrStoreUnavailable and leaves
// everything else untouched.
func (e *Engine) storeErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrUnavailable) || errors.Is(err, rate.ErrRedisUnavailable) {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return err
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil {
		return
	}
	e.metrics.Inc(id)
}
