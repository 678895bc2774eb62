package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/huiapp/huiauth/internal"
	"github.com/redis/go-redis/v9"
)

// Config holds rate limiter tuning parameters.
type Config struct {
	Prefix                string
	EnableIPThrottle      bool
	MaxLoginAttempts      int
	LoginCooldownDuration time.Duration
}

// Limiter enforces per-identifier and per-IP failed-login budgets using
// Redis counters.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a rate [Limiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	if cfg.Prefix == "" {
		cfg.Prefix = "hr"
	}
	return &Limiter{
		redis:  redisClient,
		config: cfg,
	}
}

// CheckLogin returns [ErrRateLimited] once the identifier (or IP) has used
// up its failure budget for the current window.
func (l *Limiter) CheckLogin(ctx context.Context, identifier, ip string) error {
	if err := l.checkCounter(ctx, l.loginUserKey(identifier)); err != nil {
		return err
	}

	if l.config.EnableIPThrottle && ip != "" {
		if err := l.checkCounter(ctx, l.loginIPKey(ip)); err != nil {
			return err
		}
	}

	return nil
}

// IncrementLogin records a failed login attempt for the identifier+IP pair.
// It returns [ErrRateLimited] when this failure exhausted the budget.
func (l *Limiter) IncrementLogin(ctx context.Context, identifier, ip string) error {
	count, err := l.incrementWithTTL(ctx, l.loginUserKey(identifier), l.config.LoginCooldownDuration)
	if err != nil {
		return err
	}
	limited := count >= int64(l.config.MaxLoginAttempts)

	if l.config.EnableIPThrottle && ip != "" {
		count, err = l.incrementWithTTL(ctx, l.loginIPKey(ip), l.config.LoginCooldownDuration)
		if err != nil {
			return err
		}
		limited = limited || count >= int64(l.config.MaxLoginAttempts)
	}

	if limited {
		return ErrRateLimited
	}
	return nil
}

// ResetLogin clears the failure counter for the identifier. The IP counter
// is left alone so one good login cannot launder a sprayed IP.
func (l *Limiter) ResetLogin(ctx context.Context, identifier string) error {
	if err := l.redis.Del(ctx, l.loginUserKey(identifier)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// LoginAttempts returns the current failure count for an identifier.
// Missing keys return zero and do not reveal account existence.
func (l *Limiter) LoginAttempts(ctx context.Context, identifier string) (int, error) {
	count, err := l.redis.Get(ctx, l.loginUserKey(identifier)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count < 0 {
		return 0, nil
	}
	return int(count), nil
}

// RetryAfter returns the remaining lockout for an identifier, zero when
// it is not locked.
func (l *Limiter) RetryAfter(ctx context.Context, identifier string) (time.Duration, error) {
	key := l.loginUserKey(identifier)
	count, err := l.redis.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count < int64(l.config.MaxLoginAttempts) {
		return 0, nil
	}
	ttl, err := l.redis.PTTL(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}

func (l *Limiter) checkCounter(ctx context.Context, key string) error {
	count, err := l.redis.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	if count >= int64(l.config.MaxLoginAttempts) {
		return ErrRateLimited
	}

	return nil
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return count, nil
}

func (l *Limiter) loginUserKey(identifier string) string {
	return l.config.Prefix + ":al:" + internal.HashIdentifier(identifier)
}

func (l *Limiter) loginIPKey(ip string) string {
	return l.config.Prefix + ":ali:" + ip
}
