package huiauth

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	internalaudit "github.com/huiapp/huiauth/internal/audit"
	"github.com/huiapp/huiauth/internal/rate"
	"github.com/huiapp/huiauth/password"
	"github.com/huiapp/huiauth/permission"
	"github.com/huiapp/huiauth/session"
	"github.com/huiapp/huiauth/settings"
	"github.com/huiapp/huiauth/store"
	"github.com/huiapp/huiauth/token"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an [Engine]. Configure it during initialization and
// call Build once.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	sessions     session.Store
	users        store.UserStore
	roles        store.RoleStore
	settings     *settings.Service
	settingStore store.SettingStore
	catalog      *permission.RoleManager

	auditSink AuditSink
	logger    *slog.Logger
	estimator password.Estimator
	now       func() time.Time

	built bool
}

// New returns a builder preloaded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRoleCatalog replaces the built-in role catalog seeded by
// [Engine.SeedRoles]. The manager should be frozen.
func (b *Builder) WithRoleCatalog(rm *permission.RoleManager) *Builder {
	b.catalog = rm
	return b
}

// WithStore wires sessions and users from adapter and role lookups from
// roles. Both are required.
func (b *Builder) WithStore(adapter *store.Adapter, roles store.RoleStore) *Builder {
	if adapter != nil {
		b.sessions = adapter
		b.users = adapter.Users
	}
	b.roles = roles
	return b
}

// WithSettings uses an existing settings service for the password policy.
func (b *Builder) WithSettings(svc *settings.Service) *Builder {
	b.settings = svc
	return b
}

// WithSettingStore builds a settings service over st at Build time, cached
// per Config.Settings.
func (b *Builder) WithSettingStore(st store.SettingStore) *Builder {
	b.settingStore = st
	return b
}

// WithRedis enables login throttling and, when Config.Settings.RedisCache
// is set, the shared settings cache.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithAuditSink sets the audit destination. Audit.Enabled must be true
// for events to flow.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the engine logger. Nil discards.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

// WithPasswordEstimator replaces the zxcvbn strength estimator.
func (b *Builder) WithPasswordEstimator(e password.Estimator) *Builder {
	b.estimator = e
	return b
}

// WithClock overrides time.Now for sessions and tokens.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the validate latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns a ready engine. A builder
// can be built only once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.sessions == nil || b.users == nil {
		return nil, errors.New("session and user stores are required")
	}
	if b.roles == nil {
		return nil, errors.New("role store is required")
	}

	catalog := b.catalog
	if catalog == nil {
		catalog = permission.NewDefaultRoleManager()
	}
	if _, ok := catalog.Permissions(cfg.Account.DefaultRole); !ok {
		return nil, fmt.Errorf("default role %q is not in the role catalog", cfg.Account.DefaultRole)
	}

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	now := b.now
	if now == nil {
		now = time.Now
	}

	hasher, err := password.NewArgon2(cfg.Password.argon2())
	if err != nil {
		return nil, fmt.Errorf("password hasher: %w", err)
	}

	svc := b.settings
	if svc == nil && b.settingStore != nil {
		var cache settings.Cache = settings.NewTTLCache(now)
		if cfg.Settings.RedisCache && b.redis != nil {
			cache = settings.NewRedisCache(b.redis, "")
		}
		svc = settings.NewService(b.settingStore,
			settings.WithCache(cache),
			settings.WithTTL(cfg.Settings.CacheTTL),
			settings.WithLogger(logger),
		)
	}

	var source password.RequirementsSource = password.StaticRequirements(cfg.PasswordPolicy)
	if svc != nil {
		source = settings.NewRequirementsSource(svc, cfg.PasswordPolicy)
	}
	policyOpts := []password.PolicyOption{password.WithFeedbackTranslator(password.TranslateVietnamese)}
	if b.estimator != nil {
		policyOpts = append(policyOpts, password.WithEstimator(b.estimator))
	}

	sessions, err := session.New(session.Config{
		CookieName:    cfg.Session.CookieName,
		TTL:           cfg.Session.TTL,
		Production:    cfg.Session.Production,
		SweepInterval: cfg.Session.SweepInterval,
	}, b.sessions, session.WithLogger(logger), session.WithClock(now))
	if err != nil {
		return nil, err
	}

	var tokens *token.Manager
	if cfg.Account.IssueTokens {
		tokens, err = token.NewManager(token.Config{
			Secret: cfg.Token.Secret,
			TTL:    cfg.Token.TTL,
			Issuer: cfg.Token.Issuer,
			Leeway: cfg.Token.Leeway,
		})
		if err != nil {
			return nil, err
		}
		tokens = tokens.WithClock(now)
	}

	var limiter *rate.Limiter
	if b.redis != nil && cfg.Security.EnableLoginThrottle {
		limiter = rate.New(b.redis, rate.Config{
			EnableIPThrottle:      cfg.Security.EnableIPThrottle,
			MaxLoginAttempts:      cfg.Security.MaxLoginAttempts,
			LoginCooldownDuration: cfg.Security.LoginCooldownDuration,
		})
	}

	e := &Engine{
		config:   cfg,
		sessions: sessions,
		tokens:   tokens,
		hasher:   hasher,
		policy:   password.NewPolicy(source, policyOpts...),
		users:    b.users,
		roles:    b.roles,
		catalog:  catalog,
		settings: svc,
		limiter:  limiter,
		audit: internalaudit.NewDispatcher(internalaudit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink),
		metrics: NewMetrics(cfg.Metrics),
		logger:  logger,
		now:     now,
	}

	b.built = true
	return e, nil
}
