package huiauth

import (
	"errors"
	"fmt"
	"time"

	"github.com/huiapp/huiauth/password"
	"github.com/huiapp/huiauth/permission"
	"github.com/huiapp/huiauth/session"
	"github.com/huiapp/huiauth/token"
)

// Config is the engine configuration. It is copied at Build time and
// treated as immutable afterwards.
type Config struct {
	Session        SessionConfig
	Token          TokenConfig
	Password       PasswordConfig
	PasswordPolicy password.Requirements
	Settings       SettingsConfig
	Security       SecurityConfig
	Account        AccountConfig
	Audit          AuditConfig
	Metrics        MetricsConfig
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls server-side sessions and the session cookie.
type SessionConfig struct {
	CookieName string
	TTL        time.Duration
	// Production marks the session cookie Secure.
	Production bool
	// SweepInterval > 0 runs a background expired-session sweep.
	SweepInterval time.Duration
	// RedisPrefix namespaces session keys when sessions live in Redis.
	RedisPrefix string
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig controls the bearer tokens issued next to sessions.
type TokenConfig struct {
	Secret []byte
	// TTL 0 issues tokens without an expiry claim.
	TTL    time.Duration
	Issuer string
	Leeway time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds Argon2id cost parameters.
type PasswordConfig struct {
	Memory           uint32 // in KB
	Time             uint32
	Parallelism      uint8
	SaltLength       uint32
	KeyLength        uint32
	MaxPasswordBytes int
	// UpgradeOnLogin rehashes stored hashes created with weaker parameters.
	UpgradeOnLogin bool
}

func (p PasswordConfig) argon2() password.Config {
	return password.Config{
		Memory:           p.Memory,
		Time:             p.Time,
		Parallelism:      p.Parallelism,
		SaltLength:       p.SaltLength,
		KeyLength:        p.KeyLength,
		MaxPasswordBytes: p.MaxPasswordBytes,
	}
}

/*
====================================
SETTINGS CONFIG
====================================
*/

// SettingsConfig controls the cached settings service.
type SettingsConfig struct {
	CacheTTL time.Duration
	// RedisCache stores cached settings in Redis instead of process memory.
	RedisCache bool
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig controls login throttling.
type SecurityConfig struct {
	EnableLoginThrottle   bool
	EnableIPThrottle      bool
	MaxLoginAttempts      int
	LoginCooldownDuration time.Duration
}

/*
====================================
ACCOUNT CONFIG
====================================
*/

// AccountConfig controls registration.
type AccountConfig struct {
	DefaultRole string
	// IssueTokens signs a bearer token on register and login.
	IssueTokens bool
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns production defaults. Token.Secret is empty and
// must be supplied when IssueTokens is on.
func DefaultConfig() Config {
	argon := password.DefaultConfig()
	return Config{
		Session: SessionConfig{
			CookieName:  session.DefaultCookieName,
			TTL:         session.DefaultTTL,
			RedisPrefix: "hs",
		},
		Token: TokenConfig{
			TTL:    24 * time.Hour,
			Issuer: "huiauth",
		},
		Password: PasswordConfig{
			Memory:           argon.Memory,
			Time:             argon.Time,
			Parallelism:      argon.Parallelism,
			SaltLength:       argon.SaltLength,
			KeyLength:        argon.KeyLength,
			MaxPasswordBytes: password.DefaultMaxPasswordBytes,
			UpgradeOnLogin:   true,
		},
		PasswordPolicy: password.DefaultRequirements(),
		Settings: SettingsConfig{
			CacheTTL: 5 * time.Minute,
		},
		Security: SecurityConfig{
			EnableLoginThrottle:   true,
			MaxLoginAttempts:      5,
			LoginCooldownDuration: 15 * time.Minute,
		},
		Account: AccountConfig{
			DefaultRole: permission.RoleChuHui,
			IssueTokens: true,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.Secret = cloneBytes(cfg.Token.Secret)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	// Session
	if c.Session.TTL < time.Minute {
		return errors.New("Session TTL must be >= 1m")
	}
	if c.Session.SweepInterval < 0 {
		return errors.New("Session SweepInterval must be >= 0")
	}

	// Token
	if c.Account.IssueTokens && len(c.Token.Secret) < token.MinSecretLength {
		return fmt.Errorf("Token Secret must be >= %d bytes when IssueTokens is true", token.MinSecretLength)
	}
	if c.Token.TTL < 0 {
		return errors.New("Token TTL must be >= 0")
	}
	if c.Token.Leeway < 0 {
		return errors.New("Token Leeway must be >= 0")
	}

	// Password
	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}

	// Password policy
	if c.PasswordPolicy.MinLength < 1 {
		return errors.New("PasswordPolicy MinLength must be >= 1")
	}
	if c.PasswordPolicy.MaxLength < c.PasswordPolicy.MinLength {
		return errors.New("PasswordPolicy MaxLength must be >= MinLength")
	}
	if c.PasswordPolicy.MaxLength > password.MaxLengthLimit {
		return fmt.Errorf("PasswordPolicy MaxLength must be <= %d", password.MaxLengthLimit)
	}
	if c.PasswordPolicy.MinStrengthScore < 0 || c.PasswordPolicy.MinStrengthScore > 4 {
		return errors.New("PasswordPolicy MinStrengthScore must be between 0 and 4")
	}

	// Settings
	if c.Settings.CacheTTL <= 0 {
		return errors.New("Settings CacheTTL must be > 0")
	}

	// Security
	if c.Security.EnableLoginThrottle {
		if c.Security.MaxLoginAttempts <= 0 {
			return errors.New("Security MaxLoginAttempts must be > 0")
		}
		if c.Security.LoginCooldownDuration <= 0 {
			return errors.New("Security LoginCooldownDuration must be > 0")
		}
	}

	// Account
	if c.Account.DefaultRole == "" {
		return errors.New("Account DefaultRole must not be empty")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}

	return nil
}
