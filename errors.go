package huiauth

import (
	"errors"
	"net/http"

	"github.com/huiapp/huiauth/password"
	"github.com/huiapp/huiauth/store"
)

var (
	// ErrInvalidInput is returned when a request is structurally incomplete.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidIdentifier is returned when the login identifier is neither
	// an email address nor an E.164 phone number.
	ErrInvalidIdentifier = errors.New("invalid email or phone number")
	// ErrPasswordMismatch is returned when the retyped password differs.
	ErrPasswordMismatch = errors.New("passwords do not match")
	// ErrPasswordPolicy is returned when a password fails the strength policy.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrPasswordReuse is returned when the new password equals the current one.
	ErrPasswordReuse = errors.New("new password must be different from current password")
	// ErrAccountExists is returned when the email or phone is already registered.
	ErrAccountExists = errors.New("account already exists")
	// ErrInvalidCredentials covers both unknown identifiers and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized is returned when no valid identity is attached.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrAccountDisabled is returned for inactive accounts.
	ErrAccountDisabled = errors.New("account disabled")
	// ErrLoginRateLimited is returned while an identifier is locked out.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrForbidden is returned when the identity lacks a required permission.
	ErrForbidden = errors.New("forbidden")
	// ErrUserNotFound is returned when a user id does not resolve.
	ErrUserNotFound = errors.New("user not found")
	// ErrRoleNotFound is returned when the default role has not been seeded.
	ErrRoleNotFound = errors.New("role not found")
	// ErrStoreUnavailable is returned when a backing store fails.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrEngineNotReady is returned by a nil or closed engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// WeakPasswordError carries the strength verdict for a rejected password.
// It unwraps to [ErrPasswordPolicy].
type WeakPasswordError struct {
	Result password.StrongResult
}

func (e *WeakPasswordError) Error() string {
	if e.Result.Feedback.Warning != "" {
		return ErrPasswordPolicy.Error() + ": " + e.Result.Feedback.Warning
	}
	return ErrPasswordPolicy.Error()
}

func (e *WeakPasswordError) Unwrap() error {
	return ErrPasswordPolicy
}

// Warning returns the message shown to the user. Structural requirement
// failures take precedence over the estimator warning when present.
func (e *WeakPasswordError) Warning() string {
	if errs := e.Result.AdditionalValidation.Errors; len(errs) > 0 {
		return errs[0]
	}
	return e.Result.Feedback.Warning
}

// Suggestions returns estimator suggestions followed by any remaining
// requirement failures.
func (e *WeakPasswordError) Suggestions() []string {
	out := make([]string, 0, len(e.Result.Feedback.Suggestions)+len(e.Result.AdditionalValidation.Errors))
	out = append(out, e.Result.Feedback.Suggestions...)
	if errs := e.Result.AdditionalValidation.Errors; len(errs) > 1 {
		out = append(out, errs[1:]...)
	}
	return out
}

// StatusCode maps an engine error onto the HTTP status of its category:
// validation 400, authentication 401, authorization 403, not found 404,
// everything else 500. A nil error maps to 200.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrInvalidIdentifier),
		errors.Is(err, ErrPasswordMismatch),
		errors.Is(err, ErrPasswordPolicy),
		errors.Is(err, ErrPasswordReuse),
		errors.Is(err, ErrAccountExists):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrAccountDisabled),
		errors.Is(err, ErrLoginRateLimited):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrUserNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
