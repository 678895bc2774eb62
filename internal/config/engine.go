package config

import (
	"log/slog"

	"github.com/huiapp/huiauth"
	"github.com/huiapp/huiauth/internal/logging"
)

// EngineConfig maps the process configuration onto the engine's.
func (c *Config) EngineConfig() huiauth.Config {
	cfg := huiauth.DefaultConfig()

	cfg.Session.CookieName = c.Auth.SessionCookie
	cfg.Session.TTL = c.Auth.SessionTTL
	cfg.Session.Production = c.Env.Production
	cfg.Session.SweepInterval = c.Auth.SweepInterval

	cfg.Token.Secret = []byte(c.Auth.TokenSecret)
	cfg.Token.TTL = c.Auth.TokenTTL
	cfg.Token.Issuer = c.Auth.TokenIssuer
	cfg.Token.Leeway = c.Auth.TokenLeeway

	if a := c.Password.Argon2; a.MemoryKB != 0 {
		cfg.Password.Memory = a.MemoryKB
		cfg.Password.Time = a.Time
		cfg.Password.Parallelism = a.Parallelism
	}

	cfg.PasswordPolicy.MinLength = c.Password.MinLength
	cfg.PasswordPolicy.MaxLength = c.Password.MaxLength
	cfg.PasswordPolicy.MinStrengthScore = c.Password.MinStrengthScore
	cfg.PasswordPolicy.RequireUppercase = c.Password.RequireUppercase
	cfg.PasswordPolicy.RequireLowercase = c.Password.RequireLowercase
	cfg.PasswordPolicy.RequireNumbers = c.Password.RequireNumbers
	cfg.PasswordPolicy.RequireSpecialChars = c.Password.RequireSpecialChars

	cfg.Settings.CacheTTL = c.Settings.CacheTTL
	cfg.Settings.RedisCache = c.Redis.Addr != "" && c.Redis.SettingsCache

	throttle := c.Auth.LoginThrottle && c.Redis.Addr != ""
	cfg.Security.EnableLoginThrottle = throttle
	cfg.Security.EnableIPThrottle = throttle && c.Auth.IPThrottle
	cfg.Security.MaxLoginAttempts = c.Auth.MaxLoginAttempts
	cfg.Security.LoginCooldownDuration = c.Auth.LockoutDuration

	cfg.Account.DefaultRole = c.Auth.DefaultRole
	cfg.Account.IssueTokens = c.Auth.IssueTokens

	cfg.Audit.Enabled = c.Auth.Audit

	cfg.Metrics.Enabled = c.Metrics.Enabled
	cfg.Metrics.EnableLatencyHistograms = c.Metrics.LatencyHistograms

	return cfg
}

// Logger builds the process logger from the env.log section.
func (c *Config) Logger(version string) *slog.Logger {
	return logging.Setup(c.Env.ServiceName, version, c.Env.Log.Format, logging.ParseLevel(c.Env.Log.Level), nil)
}
