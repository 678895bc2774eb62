package rate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newLimiterTest(t *testing.T, cfg Config) (*Limiter, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	if cfg.MaxLoginAttempts == 0 {
		cfg.MaxLoginAttempts = 5
	}
	if cfg.LoginCooldownDuration == 0 {
		cfg.LoginCooldownDuration = 15 * time.Minute
	}
	return New(rdb, cfg), mr
}

func TestLoginLockoutAfterMaxFailures(t *testing.T) {
	l, _ := newLimiterTest(t, Config{})
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		if err := l.CheckLogin(ctx, "a@b.vn", ""); err != nil {
			t.Fatalf("attempt %d: unexpected block: %v", i, err)
		}
		if err := l.IncrementLogin(ctx, "a@b.vn", ""); err != nil {
			t.Fatalf("attempt %d: unexpected limit: %v", i, err)
		}
	}

	if err := l.IncrementLogin(ctx, "a@b.vn", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected fifth failure to exhaust budget, got %v", err)
	}
	if err := l.CheckLogin(ctx, "a@b.vn", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected locked identifier, got %v", err)
	}
	if err := l.CheckLogin(ctx, "other@b.vn", ""); err != nil {
		t.Fatalf("other identifiers must not be affected: %v", err)
	}
}

func TestLoginIdentifierIsNormalized(t *testing.T) {
	l, _ := newLimiterTest(t, Config{MaxLoginAttempts: 1})
	ctx := context.Background()

	_ = l.IncrementLogin(ctx, "  A@B.vn ", "")
	if err := l.CheckLogin(ctx, "a@b.vn", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected normalized identifier to share a counter, got %v", err)
	}
}

func TestLoginWindowExpires(t *testing.T) {
	l, mr := newLimiterTest(t, Config{MaxLoginAttempts: 2, LoginCooldownDuration: time.Minute})
	ctx := context.Background()

	_ = l.IncrementLogin(ctx, "0901234567", "")
	_ = l.IncrementLogin(ctx, "0901234567", "")
	if err := l.CheckLogin(ctx, "0901234567", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected lockout, got %v", err)
	}

	retry, err := l.RetryAfter(ctx, "0901234567")
	if err != nil {
		t.Fatalf("RetryAfter: %v", err)
	}
	if retry <= 0 || retry > time.Minute {
		t.Fatalf("unexpected retry-after %s", retry)
	}

	mr.FastForward(time.Minute + time.Second)
	if err := l.CheckLogin(ctx, "0901234567", ""); err != nil {
		t.Fatalf("expected window to expire, got %v", err)
	}
}

func TestResetLoginClearsIdentifierOnly(t *testing.T) {
	l, _ := newLimiterTest(t, Config{MaxLoginAttempts: 3, EnableIPThrottle: true})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_ = l.IncrementLogin(ctx, "u@hui.vn", "10.0.0.1")
	}
	if err := l.ResetLogin(ctx, "u@hui.vn"); err != nil {
		t.Fatalf("ResetLogin: %v", err)
	}

	n, err := l.LoginAttempts(ctx, "u@hui.vn")
	if err != nil {
		t.Fatalf("LoginAttempts: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected reset counter, got %d", n)
	}

	// The IP counter survives: one more failure from that IP exhausts it.
	if err := l.IncrementLogin(ctx, "x@hui.vn", "10.0.0.1"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected IP budget to persist, got %v", err)
	}
}

func TestRedisDownIsUnavailable(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	t.Cleanup(func() { _ = rdb.Close() })
	l := New(rdb, Config{MaxLoginAttempts: 5, LoginCooldownDuration: time.Minute})

	if err := l.CheckLogin(context.Background(), "a@b.vn", ""); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
}
