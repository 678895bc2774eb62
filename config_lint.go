package huiauth

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// LintSeverity ranks a [LintWarning].
type LintSeverity int

const (
	// LintInfo is a posture note that is fine for most deployments.
	LintInfo LintSeverity = iota
	// LintWarn is a setting that should be reviewed before production.
	LintWarn
	// LintHigh weakens authentication materially.
	LintHigh
)

func (s LintSeverity) String() string {
	switch s {
	case LintInfo:
		return "info"
	case LintWarn:
		return "warn"
	case LintHigh:
		return "high"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// LintWarning is one finding from [Config.Lint].
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// LintResult is the ordered list of findings.
type LintResult []LintWarning

// Codes returns the warning codes in order.
func (r LintResult) Codes() []string {
	out := make([]string, len(r))
	for i, w := range r {
		out[i] = w.Code
	}
	return out
}

// BySeverity keeps the findings at or above min.
func (r LintResult) BySeverity(min LintSeverity) LintResult {
	var out LintResult
	for _, w := range r {
		if w.Severity >= min {
			out = append(out, w)
		}
	}
	return out
}

// AsError joins the findings at or above min into one error, or nil.
func (r LintResult) AsError(min LintSeverity) error {
	filtered := r.BySeverity(min)
	if len(filtered) == 0 {
		return nil
	}
	msgs := make([]string, len(filtered))
	for i, w := range filtered {
		msgs[i] = w.Code + ": " + w.Message
	}
	return errors.New("config lint: " + strings.Join(msgs, "; "))
}

// Lint reports settings that are valid but weaker than recommended. It
// never fails; use [Config.Validate] for hard errors.
func (c *Config) Lint() LintResult {
	var ws LintResult
	add := func(code string, sev LintSeverity, msg string) {
		ws = append(ws, LintWarning{Code: code, Severity: sev, Message: msg})
	}

	if !c.Session.Production {
		add("cookie_not_secure", LintWarn, "session cookie is sent without the Secure attribute")
	}
	if c.Session.TTL > 90*24*time.Hour {
		add("session_ttl_long", LintWarn, fmt.Sprintf("session TTL %s exceeds 90 days", c.Session.TTL))
	}

	if c.Account.IssueTokens {
		switch {
		case c.Token.TTL == 0:
			add("token_no_expiry", LintHigh, "bearer tokens never expire and cannot be revoked")
		case c.Token.TTL > 7*24*time.Hour:
			add("token_ttl_long", LintWarn, fmt.Sprintf("token TTL %s exceeds 7 days and tokens cannot be revoked", c.Token.TTL))
		}
		if c.Token.Leeway > time.Minute {
			add("leeway_large", LintWarn, fmt.Sprintf("token leeway %s exceeds 1 minute", c.Token.Leeway))
		}
	}

	if c.Password.Memory < 64*1024 {
		add("argon2_memory_low", LintWarn, fmt.Sprintf("argon2 memory %d KB is below 65536 KB", c.Password.Memory))
	}
	if c.PasswordPolicy.MinLength < 8 {
		add("password_min_length_low", LintWarn, fmt.Sprintf("minimum password length %d is below 8", c.PasswordPolicy.MinLength))
	}
	if c.PasswordPolicy.MinStrengthScore < 1 {
		add("password_score_low", LintWarn, fmt.Sprintf("minimum strength score %d accepts guessable passwords", c.PasswordPolicy.MinStrengthScore))
	}

	if !c.Security.EnableLoginThrottle {
		add("login_throttle_disabled", LintHigh, "failed logins are not throttled")
	} else if !c.Security.EnableIPThrottle {
		add("ip_throttle_disabled", LintInfo, "per-IP login throttle is off")
	}

	if !c.Audit.Enabled {
		add("audit_disabled", LintInfo, "audit events are not recorded")
	}

	return ws
}
