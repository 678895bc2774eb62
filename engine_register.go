package huiauth

import (
	"context"
	"errors"
	"fmt"

	"github.com/huiapp/huiauth/store"
	"github.com/huiapp/huiauth/validation"
)

// Register creates an account with the configured default role and signs
// the new user in.
//
// Checks run in a fixed order: identifier shape, retype match, password
// strength, uniqueness. The first failure is returned.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (*Credentials, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	creds, err := e.register(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrAccountExists):
			e.metricInc(MetricRegisterDuplicate)
			e.emitAudit(ctx, auditEventRegisterDuplicate, false, "", "", err, nil)
		case errors.Is(err, ErrPasswordPolicy):
			e.metricInc(MetricRegisterWeakPassword)
			e.emitAudit(ctx, auditEventRegisterFailure, false, "", "", err, nil)
		default:
			e.emitAudit(ctx, auditEventRegisterFailure, false, "", "", err, nil)
		}
		return nil, err
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditEventRegisterSuccess, true, creds.User.ID, creds.SessionID, nil, nil)
	return creds, nil
}

func (e *Engine) register(ctx context.Context, req RegisterRequest) (*Credentials, error) {
	if req.FullName == "" || req.Password == "" {
		return nil, ErrInvalidInput
	}

	id, ok := validation.ParseEmailOrPhone(req.EmailOrPhone)
	if !ok {
		return nil, ErrInvalidIdentifier
	}
	if req.Password != req.RetypePassword {
		return nil, ErrPasswordMismatch
	}

	result := e.policy.IsPasswordStrong(ctx, req.Password, req.FullName, id.Value)
	if !result.IsStrong {
		return nil, &WeakPasswordError{Result: result}
	}

	nu := store.NewUser{FullName: req.FullName}
	switch id.Kind {
	case validation.KindEmail:
		nu.Email = id.Value
	case validation.KindPhone:
		nu.Phone = id.Value
	}

	exists, err := e.users.ExistsByEmailOrPhone(ctx, nu.Email, nu.Phone)
	if err != nil {
		return nil, e.storeErr(err)
	}
	if exists {
		return nil, ErrAccountExists
	}

	hash, err := e.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	nu.PasswordHash = hash

	role, err := e.roles.FindRoleByName(ctx, e.config.Account.DefaultRole)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRoleNotFound, e.config.Account.DefaultRole)
	}
	if err != nil {
		return nil, e.storeErr(err)
	}
	nu.Role = role.Name

	u, err := e.users.CreateUser(ctx, nu)
	if errors.Is(err, store.ErrDuplicateKey) {
		return nil, ErrAccountExists
	}
	if err != nil {
		return nil, e.storeErr(err)
	}
	if u.Permissions == nil {
		u.Permissions = role.Permissions
	}

	return e.issue(ctx, u)
}
