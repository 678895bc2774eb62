// Package config loads process configuration for cmd/huiauth.
//
// Sources are layered in order: built-in defaults, an optional YAML file,
// HUI_* environment variables, then the legacy variables the service has
// always honored (PORT, MONGODB_URI, PASSWORD_MIN_LENGTH and friends).
package config

import (
	_ "embed"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
)

// EnvPrefix marks environment overrides, e.g. HUI_AUTH_TOKEN_SECRET.
const EnvPrefix = "HUI_"

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Env struct {
		ServiceName string `json:"serviceName" yaml:"serviceName"`
		Production  bool   `json:"production" yaml:"production"`
		Log         Log    `json:"log" yaml:"log"`
	} `json:"env" yaml:"env"`

	HTTP struct {
		Addr     string `json:"addr" yaml:"addr"`
		Timeouts struct {
			ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
			ReadTimeout       time.Duration `json:"readTimeout" yaml:"readTimeout"`
			WriteTimeout      time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
			IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
			ShutdownTimeout   time.Duration `json:"shutdownTimeout" yaml:"shutdownTimeout"`
		} `json:"timeouts" yaml:"timeouts"`
	} `json:"http" yaml:"http"`

	Mongo    MongoConfig    `json:"mongo" yaml:"mongo"`
	Redis    RedisConfig    `json:"redis" yaml:"redis"`
	Auth     AuthConfig     `json:"auth" yaml:"auth"`
	Password PasswordConfig `json:"password" yaml:"password"`

	Settings struct {
		CacheTTL time.Duration `json:"cacheTTL" yaml:"cacheTTL"`
	} `json:"settings" yaml:"settings"`

	Metrics struct {
		Enabled           bool   `json:"enabled" yaml:"enabled"`
		LatencyHistograms bool   `json:"latencyHistograms" yaml:"latencyHistograms"`
		Path              string `json:"path" yaml:"path"`
	} `json:"metrics" yaml:"metrics"`
}

type Log struct {
	Format string `json:"format" yaml:"format"`
	Level  string `json:"level" yaml:"level"`
}

// MongoConfig selects the document store. An empty URI runs on the
// in-memory store.
type MongoConfig struct {
	URI            string        `json:"uri" yaml:"uri"`
	Database       string        `json:"database" yaml:"database"`
	ConnectTimeout time.Duration `json:"connectTimeout" yaml:"connectTimeout"`
}

// RedisConfig enables Redis. Login throttling uses it whenever Addr is
// set; Sessions and SettingsCache move those concerns onto it as well.
type RedisConfig struct {
	Addr          string `json:"addr" yaml:"addr"`
	Password      string `json:"password" yaml:"password"`
	DB            int    `json:"db" yaml:"db"`
	Sessions      bool   `json:"sessions" yaml:"sessions"`
	SettingsCache bool   `json:"settingsCache" yaml:"settingsCache"`
}

type AuthConfig struct {
	TokenSecret      string        `json:"tokenSecret" yaml:"tokenSecret"`
	TokenTTL         time.Duration `json:"tokenTTL" yaml:"tokenTTL"`
	TokenIssuer      string        `json:"tokenIssuer" yaml:"tokenIssuer"`
	TokenLeeway      time.Duration `json:"tokenLeeway" yaml:"tokenLeeway"`
	IssueTokens      bool          `json:"issueTokens" yaml:"issueTokens"`
	SessionTTL       time.Duration `json:"sessionTTL" yaml:"sessionTTL"`
	SessionCookie    string        `json:"sessionCookie" yaml:"sessionCookie"`
	SweepInterval    time.Duration `json:"sweepInterval" yaml:"sweepInterval"`
	DefaultRole      string        `json:"defaultRole" yaml:"defaultRole"`
	LoginThrottle    bool          `json:"loginThrottle" yaml:"loginThrottle"`
	IPThrottle       bool          `json:"ipThrottle" yaml:"ipThrottle"`
	MaxLoginAttempts int           `json:"maxLoginAttempts" yaml:"maxLoginAttempts"`
	LockoutDuration  time.Duration `json:"lockoutDuration" yaml:"lockoutDuration"`
	Audit            bool          `json:"audit" yaml:"audit"`
}

type PasswordConfig struct {
	MinLength           int  `json:"minLength" yaml:"minLength"`
	MaxLength           int  `json:"maxLength" yaml:"maxLength"`
	MinStrengthScore    int  `json:"minStrengthScore" yaml:"minStrengthScore"`
	RequireUppercase    bool `json:"requireUppercase" yaml:"requireUppercase"`
	RequireLowercase    bool `json:"requireLowercase" yaml:"requireLowercase"`
	RequireNumbers      bool `json:"requireNumbers" yaml:"requireNumbers"`
	RequireSpecialChars bool `json:"requireSpecialChars" yaml:"requireSpecialChars"`
	Argon2              struct {
		MemoryKB    uint32 `json:"memoryKB" yaml:"memoryKB"`
		Time        uint32 `json:"time" yaml:"time"`
		Parallelism uint8  `json:"parallelism" yaml:"parallelism"`
	} `json:"argon2" yaml:"argon2"`
}

// bytesProvider feeds an in-memory document to koanf.
type bytesProvider []byte

func (b bytesProvider) ReadBytes() ([]byte, error) { return b, nil }

func (b bytesProvider) Read() (map[string]any, error) {
	return nil, oops.Errorf("bytesProvider does not support Read")
}

// Load builds the configuration. path may be empty; a missing file at a
// non-empty path is an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(bytesProvider(defaultsYAML), yaml.Parser()); err != nil {
		return nil, oops.In("config").Wrapf(err, "load defaults")
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, oops.In("config").With("path", path).Wrapf(err, "config file")
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.In("config").With("path", path).Wrapf(err, "read config file")
		}
	}

	existing := k.Raw()

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, v string) (string, any) {
			return canonicalizeEnvKey(strings.TrimPrefix(key, EnvPrefix), existing), v
		},
	}), nil); err != nil {
		return nil, oops.In("config").Wrapf(err, "load %s environment", EnvPrefix)
	}

	if err := k.Load(env.Provider(".", env.Opt{
		TransformFunc: legacyEnv,
	}), nil); err != nil {
		return nil, oops.In("config").Wrapf(err, "load legacy environment")
	}

	cfg := new(Config)
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			MatchName: func(mapKey, fieldName string) bool {
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, oops.In("config").Wrapf(err, "unmarshal config")
	}

	return cfg, nil
}
