package settings

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/huiapp/huiauth/password"
	"github.com/huiapp/huiauth/store"
)

// PasswordCategory is the settings category holding the password policy.
const PasswordCategory = "password"

// Keys of the password category.
const (
	KeyMinLength           = "minLength"
	KeyMaxLength           = "maxLength"
	KeyRequireUppercase    = "requireUppercase"
	KeyRequireLowercase    = "requireLowercase"
	KeyRequireNumbers      = "requireNumbers"
	KeyRequireSpecialChars = "requireSpecialChars"
	KeyMinStrengthScore    = "minStrengthScore"
)

// RequirementsSource resolves password requirements from the password
// category on every call, layered over fixed defaults. Any read failure or
// unusable value falls back to the default for that field.
type RequirementsSource struct {
	service  *Service
	defaults password.Requirements
	logger   *slog.Logger
}

var _ password.RequirementsSource = (*RequirementsSource)(nil)

// NewRequirementsSource reads from svc with defaults as the fallback.
func NewRequirementsSource(svc *Service, defaults password.Requirements) *RequirementsSource {
	return &RequirementsSource{service: svc, defaults: defaults, logger: svc.logger}
}

// Requirements implements [password.RequirementsSource].
func (r *RequirementsSource) Requirements(ctx context.Context) password.Requirements {
	req := r.defaults
	if r.service == nil {
		return req
	}

	values, err := r.service.GetSettingsByCategory(ctx, PasswordCategory)
	if err != nil {
		r.logger.WarnContext(ctx, "password settings unavailable, using defaults", "error", err)
		return req
	}

	if v, ok := intValue(values[KeyMinLength]); ok && v > 0 {
		req.MinLength = v
	}
	if v, ok := intValue(values[KeyMaxLength]); ok && v > 0 && v <= password.MaxLengthLimit {
		req.MaxLength = v
	}
	if v, ok := boolValue(values[KeyRequireUppercase]); ok {
		req.RequireUppercase = v
	}
	if v, ok := boolValue(values[KeyRequireLowercase]); ok {
		req.RequireLowercase = v
	}
	if v, ok := boolValue(values[KeyRequireNumbers]); ok {
		req.RequireNumbers = v
	}
	if v, ok := boolValue(values[KeyRequireSpecialChars]); ok {
		req.RequireSpecialChars = v
	}
	if v, ok := intValue(values[KeyMinStrengthScore]); ok && v >= 0 && v <= 4 {
		req.MinStrengthScore = v
	}
	if req.MaxLength < req.MinLength {
		req.MinLength, req.MaxLength = r.defaults.MinLength, r.defaults.MaxLength
	}
	return req
}

// DefaultPasswordSettings returns the seed rows for the password category.
func DefaultPasswordSettings(req password.Requirements) []store.Setting {
	row := func(key string, value any, desc string) store.Setting {
		return store.Setting{
			ID:          SettingID(PasswordCategory, key),
			Category:    PasswordCategory,
			Key:         key,
			Value:       value,
			Description: desc,
		}
	}
	return []store.Setting{
		row(KeyMinLength, req.MinLength, "Minimum password length"),
		row(KeyMaxLength, req.MaxLength, "Maximum password length"),
		row(KeyRequireUppercase, req.RequireUppercase, "Require uppercase letters in password"),
		row(KeyRequireLowercase, req.RequireLowercase, "Require lowercase letters in password"),
		row(KeyRequireNumbers, req.RequireNumbers, "Require numbers in password"),
		row(KeyRequireSpecialChars, req.RequireSpecialChars, "Require special characters in password"),
		row(KeyMinStrengthScore, req.MinStrengthScore, "Minimum password strength score"),
	}
}

func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) || n > math.MaxInt32 || n < math.MinInt32 {
			return 0, false
		}
		return int(n), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		return i, err == nil
	default:
		return 0, false
	}
}

func boolValue(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		p, err := strconv.ParseBool(strings.TrimSpace(b))
		return p, err == nil
	default:
		return false, false
	}
}
