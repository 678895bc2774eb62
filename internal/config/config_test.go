package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huiapp/huiauth/permission"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "huiauth.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "huiauth", cfg.Env.ServiceName)
	assert.Equal(t, ":3000", cfg.HTTP.Addr)
	assert.Equal(t, 5*time.Second, cfg.HTTP.Timeouts.ReadHeaderTimeout)
	assert.Equal(t, 720*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, 15*time.Minute, cfg.Auth.LockoutDuration)
	assert.Equal(t, 5*time.Minute, cfg.Settings.CacheTTL)
	assert.Equal(t, 8, cfg.Password.MinLength)
	assert.True(t, cfg.Password.RequireUppercase)
	assert.False(t, cfg.Password.RequireSpecialChars)
	assert.Equal(t, uint32(65536), cfg.Password.Argon2.MemoryKB)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeYAML(t, `
http:
  addr: ":8080"
mongo:
  uri: mongodb://db:27017
auth:
  tokenSecret: from-file
  sessionTTL: 48h
password:
  minLength: 12
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "mongodb://db:27017", cfg.Mongo.URI)
	assert.Equal(t, "hui", cfg.Mongo.Database)
	assert.Equal(t, "from-file", cfg.Auth.TokenSecret)
	assert.Equal(t, 48*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, 12, cfg.Password.MinLength)
	assert.Equal(t, 128, cfg.Password.MaxLength)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadPrefixedEnvOverridesFile(t *testing.T) {
	path := writeYAML(t, "auth:\n  tokenSecret: from-file\n")
	t.Setenv("HUI_AUTH_TOKEN_SECRET", "from-env")
	t.Setenv("HUI_REDIS_ADDR", "localhost:6379")
	t.Setenv("HUI_REDIS_SETTINGS_CACHE", "true")
	t.Setenv("HUI_AUTH_MAX_LOGIN_ATTEMPTS", "7")
	t.Setenv("HUI_HTTP_TIMEOUTS_IDLE_TIMEOUT", "2m")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Auth.TokenSecret)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.True(t, cfg.Redis.SettingsCache)
	assert.Equal(t, 7, cfg.Auth.MaxLoginAttempts)
	assert.Equal(t, 2*time.Minute, cfg.HTTP.Timeouts.IdleTimeout)
}

func TestLoadLegacyEnv(t *testing.T) {
	t.Setenv("PORT", "4000")
	t.Setenv("NODE_ENV", "production")
	t.Setenv("MONGODB_URI", "mongodb://legacy:27017/hui")
	t.Setenv("LOCKOUT_DURATION_MINUTES", "30")
	t.Setenv("PASSWORD_MIN_LENGTH", "10")
	t.Setenv("PASSWORD_REQUIRE_NUMBERS", "false")
	t.Setenv("PASSWORD_REQUIRE_SPECIAL_CHARS", "true")
	t.Setenv("PASSWORD_MIN_STRENGTH_SCORE", "3")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":4000", cfg.HTTP.Addr)
	assert.True(t, cfg.Env.Production)
	assert.Equal(t, "mongodb://legacy:27017/hui", cfg.Mongo.URI)
	assert.Equal(t, 30*time.Minute, cfg.Auth.LockoutDuration)
	assert.Equal(t, 10, cfg.Password.MinLength)
	assert.False(t, cfg.Password.RequireNumbers)
	assert.True(t, cfg.Password.RequireSpecialChars)
	assert.Equal(t, 3, cfg.Password.MinStrengthScore)
}

func TestCanonicalizeEnvKey(t *testing.T) {
	existing := map[string]any{
		"auth": map[string]any{
			"tokenSecret": "",
			"tokenTTL":    "24h",
		},
		"http": map[string]any{
			"timeouts": map[string]any{"readHeaderTimeout": "5s"},
		},
		"redis": map[string]any{"settingsCache": false},
	}

	tests := []struct {
		envKey string
		want   string
	}{
		{"AUTH_TOKEN_SECRET", "auth.tokenSecret"},
		{"AUTH_TOKENTTL", "auth.tokenTTL"},
		{"AUTH_TOKEN_TTL", "auth.tokenTTL"},
		{"HTTP_TIMEOUTS_READ_HEADER_TIMEOUT", "http.timeouts.readHeaderTimeout"},
		{"REDIS_SETTINGS_CACHE", "redis.settingsCache"},
		{"NEW_FEATURE_FLAG", "new.feature.flag"},
	}
	for _, tt := range tests {
		t.Run(tt.envKey, func(t *testing.T) {
			assert.Equal(t, tt.want, canonicalizeEnvKey(tt.envKey, existing))
		})
	}
}

func TestEngineConfig(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Auth.TokenSecret = "0123456789abcdef0123456789abcdef"

	ec := cfg.EngineConfig()
	require.NoError(t, ec.Validate())
	assert.Equal(t, permission.RoleChuHui, ec.Account.DefaultRole)
	assert.False(t, ec.Security.EnableLoginThrottle, "throttling needs redis")
	assert.False(t, ec.Settings.RedisCache)
	assert.Equal(t, 8, ec.PasswordPolicy.MinLength)

	cfg.Redis.Addr = "localhost:6379"
	cfg.Redis.SettingsCache = true
	cfg.Auth.IPThrottle = true
	ec = cfg.EngineConfig()
	assert.True(t, ec.Security.EnableLoginThrottle)
	assert.True(t, ec.Security.EnableIPThrottle)
	assert.True(t, ec.Settings.RedisCache)
}
