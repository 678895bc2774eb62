package huiauth

import (
	"context"
	"errors"
	"fmt"

	"github.com/huiapp/huiauth/store"
)

// ChangePassword replaces the password of userID after checking the
// current one. Every other session of the user is revoked; keepSessionID,
// the caller's own session, survives. It may be empty.
//
// Checks run in order: user exists (404), old password matches (401), new
// differs from old (400), retype matches (400), strength (400).
func (e *Engine) ChangePassword(ctx context.Context, userID, keepSessionID string, req ChangePasswordRequest) error {
	if err := e.ready(); err != nil {
		return err
	}

	err := e.changePassword(ctx, userID, keepSessionID, req)
	switch {
	case err == nil:
		e.metricInc(MetricPasswordChangeSuccess)
		e.emitAudit(ctx, auditEventPasswordChangeSuccess, true, userID, keepSessionID, nil, nil)
	case errors.Is(err, ErrInvalidCredentials):
		e.metricInc(MetricPasswordChangeInvalidOld)
		e.emitAudit(ctx, auditEventPasswordChangeInvalidOld, false, userID, keepSessionID, err, nil)
	case errors.Is(err, ErrPasswordReuse):
		e.metricInc(MetricPasswordChangeReuseRejected)
		e.emitAudit(ctx, auditEventPasswordChangeReuse, false, userID, keepSessionID, err, nil)
	default:
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, userID, keepSessionID, err, nil)
	}
	return err
}

func (e *Engine) changePassword(ctx context.Context, userID, keepSessionID string, req ChangePasswordRequest) error {
	if userID == "" {
		return ErrUnauthorized
	}

	u, err := e.users.FindByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return e.storeErr(err)
	}

	if !e.hasher.Compare(req.OldPassword, u.PasswordHash) {
		return ErrInvalidCredentials
	}
	if req.NewPassword == req.OldPassword {
		return ErrPasswordReuse
	}
	if req.NewPassword != req.RetypeNewPassword {
		return ErrPasswordMismatch
	}

	identifier := u.Email
	if identifier == "" {
		identifier = u.Phone
	}
	result := e.policy.IsPasswordStrong(ctx, req.NewPassword, u.FullName, identifier)
	if !result.IsStrong {
		return &WeakPasswordError{Result: result}
	}

	hash, err := e.hasher.Hash(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := e.users.UpdatePasswordHash(ctx, u.ID, hash); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return e.storeErr(err)
	}

	n, err := e.sessions.InvalidateOtherSessions(ctx, u.ID, keepSessionID)
	if err != nil {
		e.logger.WarnContext(ctx, "revoking other sessions after password change failed",
			"user_id", u.ID, "error", err)
		return nil
	}
	for range n {
		e.metricInc(MetricSessionInvalidated)
	}
	return nil
}
