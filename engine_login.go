package huiauth

import (
	"context"
	"errors"
	"fmt"

	"github.com/huiapp/huiauth/internal/rate"
	"github.com/huiapp/huiauth/store"
	"github.com/huiapp/huiauth/validation"
)

// Login verifies an email or phone and password pair and issues a session
// and, when enabled, a bearer token.
//
// Unknown identifiers and wrong passwords both return
// [ErrInvalidCredentials]. With a limiter configured, each failure counts
// against the identifier and the caller IP; once the budget is spent
// [ErrLoginRateLimited] is returned until the cooldown elapses. Inactive
// accounts get [ErrAccountDisabled] only after the password matched.
func (e *Engine) Login(ctx context.Context, req LoginRequest) (*Credentials, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if req.EmailOrPhone == "" || req.Password == "" {
		e.metricInc(MetricLoginFailure)
		return nil, ErrInvalidCredentials
	}

	id, ok := validation.ParseEmailOrPhone(req.EmailOrPhone)
	if !ok {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", "", ErrInvalidCredentials, nil)
		return nil, ErrInvalidCredentials
	}
	ip := clientIPFromContext(ctx)

	if e.limiter != nil {
		if err := e.limiter.CheckLogin(ctx, id.Value, ip); err != nil {
			return nil, e.limitErr(ctx, id.Value, err)
		}
	}

	u, err := e.findByIdentifier(ctx, id)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, e.storeErr(err)
	}
	if u == nil || !e.hasher.Compare(req.Password, u.PasswordHash) {
		return nil, e.loginFailed(ctx, id.Value, ip, u)
	}

	if !u.Active() {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, u.ID, "", ErrAccountDisabled, nil)
		return nil, ErrAccountDisabled
	}

	if e.limiter != nil {
		if err := e.limiter.ResetLogin(ctx, id.Value); err != nil {
			e.logger.WarnContext(ctx, "login counter reset failed", "error", err)
		}
	}
	e.upgradeHash(ctx, u, req.Password)

	creds, err := e.issue(ctx, u)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, u.ID, creds.SessionID, nil, nil)
	return creds, nil
}

func (e *Engine) findByIdentifier(ctx context.Context, id validation.Identifier) (*store.User, error) {
	if id.Kind == validation.KindPhone {
		return e.users.FindByPhone(ctx, id.Value)
	}
	return e.users.FindByEmail(ctx, id.Value)
}

func (e *Engine) loginFailed(ctx context.Context, identifier, ip string, u *store.User) error {
	e.metricInc(MetricLoginFailure)
	var userID string
	if u != nil {
		userID = u.ID
	}
	e.emitAudit(ctx, auditEventLoginFailure, false, userID, "", ErrInvalidCredentials, nil)

	if e.limiter != nil {
		if err := e.limiter.IncrementLogin(ctx, identifier, ip); err != nil {
			return e.limitErr(ctx, identifier, err)
		}
	}
	return ErrInvalidCredentials
}

func (e *Engine) limitErr(ctx context.Context, identifier string, err error) error {
	if errors.Is(err, rate.ErrRateLimited) {
		e.metricInc(MetricLoginRateLimited)
		e.emitRateLimit(ctx, identifier)
		return ErrLoginRateLimited
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

// upgradeHash rewrites a hash made with weaker Argon2 parameters. Failure
// is logged and never blocks the login.
func (e *Engine) upgradeHash(ctx context.Context, u *store.User, plain string) {
	if !e.config.Password.UpgradeOnLogin {
		return
	}
	stale, err := e.hasher.NeedsUpgrade(u.PasswordHash)
	if err != nil || !stale {
		return
	}
	hash, err := e.hasher.Hash(plain)
	if err != nil {
		e.logger.WarnContext(ctx, "password rehash failed", "user_id", u.ID, "error", err)
		return
	}
	if err := e.users.UpdatePasswordHash(ctx, u.ID, hash); err != nil {
		e.logger.WarnContext(ctx, "password rehash not stored", "user_id", u.ID, "error", err)
		return
	}
	u.PasswordHash = hash
}
