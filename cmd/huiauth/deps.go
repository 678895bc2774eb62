package main

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/huiapp/huiauth"
	"github.com/huiapp/huiauth/internal/config"
	"github.com/huiapp/huiauth/store"
	"github.com/huiapp/huiauth/store/memstore"
	"github.com/huiapp/huiauth/store/mongostore"
	"github.com/huiapp/huiauth/store/redisstore"
)

// backend is everything a subcommand needs: the engine and the
// connections it runs on.
type backend struct {
	cfg    *config.Config
	logger *slog.Logger
	engine *huiauth.Engine
	mongo  *mongostore.Store
	redis  redis.UniversalClient
}

// openBackend loads the configuration and wires stores, Redis and the
// engine. Without a Mongo URI everything runs on the in-memory store.
func openBackend(ctx context.Context, path string) (*backend, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	b := &backend{cfg: cfg, logger: cfg.Logger(version)}

	var (
		sessions store.SessionStore
		users    store.UserStore
		roles    store.RoleStore
		settings store.SettingStore
	)
	if cfg.Mongo.URI != "" {
		dialCtx, cancel := context.WithTimeout(ctx, cfg.Mongo.ConnectTimeout)
		defer cancel()
		ms, err := mongostore.Connect(dialCtx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, oops.Code("DB_CONNECT_FAILED").With("database", cfg.Mongo.Database).Wrap(err)
		}
		if err := ms.EnsureIndexes(dialCtx); err != nil {
			_ = ms.Close(context.Background())
			return nil, oops.Code("DB_INDEX_FAILED").Wrap(err)
		}
		b.mongo = ms
		sessions, users, roles, settings = ms, ms, ms, ms
	} else {
		b.logger.Warn("mongo.uri is empty; using the in-memory store")
		mem := memstore.New()
		sessions, users, roles, settings = mem, mem, mem, mem
	}

	if cfg.Redis.Addr != "" {
		b.redis = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    []string{cfg.Redis.Addr},
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := b.redis.Ping(ctx).Err(); err != nil {
			b.Close(context.Background())
			return nil, oops.Code("REDIS_CONNECT_FAILED").With("addr", cfg.Redis.Addr).Wrap(err)
		}
		if cfg.Redis.Sessions {
			sessions = redisstore.New(b.redis, "")
		}
	}

	engCfg := cfg.EngineConfig()
	for _, w := range engCfg.Lint() {
		b.logger.Warn("config lint", "code", w.Code, "severity", w.Severity.String(), "message", w.Message)
	}

	builder := huiauth.New().
		WithConfig(engCfg).
		WithStore(store.NewAdapter(sessions, users), roles).
		WithSettingStore(settings).
		WithLogger(b.logger).
		WithMetricsEnabled(cfg.Metrics.Enabled).
		WithLatencyHistograms(cfg.Metrics.LatencyHistograms)
	if b.redis != nil {
		builder = builder.WithRedis(b.redis)
	}
	if engCfg.Audit.Enabled {
		builder = builder.WithAuditSink(huiauth.NewSlogSink(b.logger))
	}

	b.engine, err = builder.Build()
	if err != nil {
		b.Close(context.Background())
		return nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}
	return b, nil
}

// ready reports whether the backing services answer.
func (b *backend) ready(ctx context.Context) bool {
	if b.mongo != nil {
		if err := b.mongo.Ping(ctx); err != nil {
			return false
		}
	}
	if b.redis != nil {
		if err := b.redis.Ping(ctx).Err(); err != nil {
			return false
		}
	}
	return true
}

// Close releases the engine and connections in reverse order of opening.
func (b *backend) Close(ctx context.Context) {
	if b.engine != nil {
		b.engine.Close()
	}
	if b.redis != nil {
		if err := b.redis.Close(); err != nil {
			b.logger.Warn("redis close failed", "error", err)
		}
	}
	if b.mongo != nil {
		if err := b.mongo.Close(ctx); err != nil {
			b.logger.Warn("mongo disconnect failed", "error", err)
		}
	}
}
