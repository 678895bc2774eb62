package huiauth

import (
	"context"
	"errors"
	"strconv"

	"github.com/huiapp/huiauth/internal"
	internalaudit "github.com/huiapp/huiauth/internal/audit"
)

const (
	auditEventRegisterSuccess          = "register_success"
	auditEventRegisterFailure          = "register_failure"
	auditEventRegisterDuplicate        = "register_duplicate"
	auditEventLoginSuccess             = "login_success"
	auditEventLoginFailure             = "login_failure"
	auditEventLoginRateLimited         = "login_rate_limited"
	auditEventLogoutSession            = "logout_session"
	auditEventLogoutAll                = "logout_all"
	auditEventPasswordChangeSuccess    = "password_change_success"
	auditEventPasswordChangeInvalidOld = "password_change_invalid_old"
	auditEventPasswordChangeReuse      = "password_change_reuse_attempt"
	auditEventPasswordChangeFailure    = "password_change_failure"
	auditEventPermissionDenied         = "permission_denied"
)

// AuditErrorCode is the stable error label attached to failed events.
type AuditErrorCode string

const (
	auditErrUnauthorized       AuditErrorCode = "unauthorized"
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrInvalidInput       AuditErrorCode = "invalid_input"
	auditErrRateLimited        AuditErrorCode = "rate_limited"
	auditErrUserNotFound       AuditErrorCode = "user_not_found"
	auditErrAccountDisabled    AuditErrorCode = "account_disabled"
	auditErrPasswordPolicy     AuditErrorCode = "password_policy"
	auditErrPasswordReuse      AuditErrorCode = "password_reuse"
	auditErrForbidden          AuditErrorCode = "forbidden"
	auditErrDuplicate          AuditErrorCode = "duplicate"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	sessionID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	event := internalaudit.NewEvent(eventType, success)
	event.UserID = userID
	event.SessionID = sessionID
	event.IP = clientIPFromContext(ctx)
	if metadataBuilder != nil {
		event.Metadata = metadataBuilder()
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

// RecordPermissionDenied counts and audits an authorization failure.
// Middleware calls it when a permission gate rejects a request.
func (e *Engine) RecordPermissionDenied(ctx context.Context, userID string, missing []string) {
	if e == nil {
		return
	}
	e.metricInc(MetricPermissionDenied)
	e.emitAudit(ctx, auditEventPermissionDenied, false, userID, "", ErrForbidden, func() map[string]string {
		m := make(map[string]string, len(missing))
		for i, p := range missing {
			m["missing_"+strconv.Itoa(i)] = p
		}
		return m
	})
}

func (e *Engine) emitRateLimit(ctx context.Context, identifier string) {
	e.metricInc(MetricRateLimitHit)
	e.emitAudit(ctx, auditEventLoginRateLimited, false, "", "", ErrLoginRateLimited, func() map[string]string {
		return map[string]string{"identifier_hash": internal.HashIdentifier(identifier)}
	})
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return auditErrUnauthorized
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrInvalidIdentifier),
		errors.Is(err, ErrPasswordMismatch):
		return auditErrInvalidInput
	case errors.Is(err, ErrLoginRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrUserNotFound):
		return auditErrUserNotFound
	case errors.Is(err, ErrAccountDisabled):
		return auditErrAccountDisabled
	case errors.Is(err, ErrPasswordPolicy):
		return auditErrPasswordPolicy
	case errors.Is(err, ErrPasswordReuse):
		return auditErrPasswordReuse
	case errors.Is(err, ErrForbidden):
		return auditErrForbidden
	case errors.Is(err, ErrAccountExists):
		return auditErrDuplicate
	case errors.Is(err, ErrStoreUnavailable):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
