package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/huiapp/huiauth/internal"
	"github.com/huiapp/huiauth/store"
)

const (
	// DefaultTTL is the session lifetime when Config.TTL is zero.
	DefaultTTL = 30 * 24 * time.Hour

	defaultIDAttempts = 3
)

// ErrIDExhausted is returned when every generated id collided.
var ErrIDExhausted = errors.New("session: could not allocate a unique session id")

// Store is the persistence the authority needs. *store.Adapter satisfies it.
type Store interface {
	GetSessionAndUser(ctx context.Context, id string) (*store.Session, *store.User, error)
	GetUserSessions(ctx context.Context, userID string) ([]store.Session, error)
	SetSession(ctx context.Context, s store.Session) error
	UpdateSessionExpiration(ctx context.Context, id string, expiresAt time.Time) error
	DeleteSession(ctx context.Context, id string) error
	DeleteUserSessions(ctx context.Context, userID string) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}

// Config controls session lifetime and cookie attributes.
type Config struct {
	CookieName string
	TTL        time.Duration
	// Production marks cookies Secure.
	Production bool
	// SweepInterval > 0 starts a background expiry sweep.
	SweepInterval time.Duration
	IDAttempts    int
}

func (c *Config) normalize() error {
	if c.CookieName == "" {
		c.CookieName = DefaultCookieName
	}
	if c.TTL == 0 {
		c.TTL = DefaultTTL
	}
	if c.IDAttempts == 0 {
		c.IDAttempts = defaultIDAttempts
	}

	if c.TTL < time.Minute {
		return fmt.Errorf("session: TTL must be >= 1m, got %s", c.TTL)
	}
	if c.SweepInterval < 0 {
		return errors.New("session: SweepInterval must be >= 0")
	}
	if c.IDAttempts < 1 {
		return errors.New("session: IDAttempts must be >= 1")
	}
	if (&http.Cookie{Name: c.CookieName, Value: "x"}).Valid() != nil {
		return fmt.Errorf("session: invalid cookie name %q", c.CookieName)
	}
	return nil
}

// Option customizes an [Authority].
type Option func(*Authority)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Authority) {
		if now != nil {
			a.now = now
		}
	}
}

// WithLogger sets the logger for best-effort failures and the sweeper.
func WithLogger(l *slog.Logger) Option {
	return func(a *Authority) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithRandom overrides the id entropy source.
func WithRandom(r io.Reader) Option {
	return func(a *Authority) {
		a.random = r
	}
}

// Authority is the session state machine. Safe for concurrent use.
type Authority struct {
	cfg    Config
	store  Store
	now    func() time.Time
	logger *slog.Logger
	random io.Reader

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// Issued is the result of [Authority.CreateSession].
type Issued struct {
	Session store.Session
	Cookie  Cookie
}

// Validation is the result of [Authority.ValidateSession]. Both fields are
// nil when there is no valid session. Fresh is set when the expiry was
// extended and the cookie should be re-sent.
type Validation struct {
	Session *store.Session
	User    *store.User
	Fresh   bool
}

// Valid reports whether a session and user were resolved.
func (v Validation) Valid() bool {
	return v.Session != nil && v.User != nil
}

// New builds an authority over st. When cfg.SweepInterval > 0 a sweeper
// goroutine runs until [Authority.Shutdown].
func New(cfg Config, st Store, opts ...Option) (*Authority, error) {
	if st == nil {
		return nil, errors.New("session: store is required")
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}

	a := &Authority{
		cfg:    cfg,
		store:  st,
		now:    time.Now,
		logger: slog.New(slog.DiscardHandler),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}

	if cfg.SweepInterval > 0 {
		go a.sweepLoop(cfg.SweepInterval)
	} else {
		close(a.done)
	}
	return a, nil
}

// TTL returns the configured session lifetime.
func (a *Authority) TTL() time.Duration {
	return a.cfg.TTL
}

// CreateSession persists a new session for userID and returns it with its
// cookie. An id collision is retried with a fresh id.
func (a *Authority) CreateSession(ctx context.Context, userID string, attrs store.Attributes) (*Issued, error) {
	if userID == "" {
		return nil, errors.New("session: userID is required")
	}

	for attempt := 0; attempt < a.cfg.IDAttempts; attempt++ {
		sid, err := internal.NewSessionID(a.random)
		if err != nil {
			return nil, fmt.Errorf("session: generate id: %w", err)
		}

		sess := store.Session{
			ID:         sid.String(),
			UserID:     userID,
			ExpiresAt:  a.now().Add(a.cfg.TTL).UTC(),
			Attributes: store.Attributes{Permissions: store.Permissions(attrs.Permissions)},
		}
		err = a.store.SetSession(ctx, sess)
		if errors.Is(err, store.ErrDuplicateKey) {
			continue
		}
		if err != nil {
			return nil, err
		}

		return &Issued{Session: sess, Cookie: a.CreateSessionCookie(sess.ID)}, nil
	}
	return nil, ErrIDExhausted
}

// ValidateSession resolves a session id. Absent, orphaned and expired
// sessions yield an empty [Validation] and no error; store failures are
// returned.
func (a *Authority) ValidateSession(ctx context.Context, sessionID string) (Validation, error) {
	if !internal.ValidSessionID(sessionID) {
		return Validation{}, nil
	}

	sess, user, err := a.store.GetSessionAndUser(ctx, sessionID)
	if err != nil {
		return Validation{}, err
	}
	if sess == nil || user == nil {
		return Validation{}, nil
	}

	now := a.now()
	if !now.Before(sess.ExpiresAt) {
		if err := a.store.DeleteSession(context.WithoutCancel(ctx), sessionID); err != nil {
			a.logger.WarnContext(ctx, "expired session cleanup failed", "error", err)
		}
		return Validation{}, nil
	}

	fresh := false
	if sess.ExpiresAt.Sub(now) < a.cfg.TTL/2 {
		next := now.Add(a.cfg.TTL).UTC()
		// Finish the write even if the request is cancelled.
		if err := a.store.UpdateSessionExpiration(context.WithoutCancel(ctx), sessionID, next); err != nil {
			return Validation{}, err
		}
		sess.ExpiresAt = next
		fresh = true
	}

	return Validation{Session: sess, User: user, Fresh: fresh}, nil
}

// InvalidateSession deletes a session. Deleting an absent session succeeds.
func (a *Authority) InvalidateSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return a.store.DeleteSession(context.WithoutCancel(ctx), sessionID)
}

// InvalidateUserSessions deletes every session of userID.
func (a *Authority) InvalidateUserSessions(ctx context.Context, userID string) error {
	return a.store.DeleteUserSessions(context.WithoutCancel(ctx), userID)
}

// InvalidateOtherSessions deletes every session of userID except keepID
// and returns how many were removed.
func (a *Authority) InvalidateOtherSessions(ctx context.Context, userID, keepID string) (int, error) {
	ctx = context.WithoutCancel(ctx)
	sessions, err := a.store.GetUserSessions(ctx, userID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, s := range sessions {
		if s.ID == keepID {
			continue
		}
		if err := a.store.DeleteSession(ctx, s.ID); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// SweepExpired deletes sessions whose expiry has passed.
func (a *Authority) SweepExpired(ctx context.Context) (int64, error) {
	return a.store.DeleteExpiredSessions(ctx)
}

// Shutdown stops the sweeper and waits for it, or for ctx. Safe to call
// more than once.
func (a *Authority) Shutdown(ctx context.Context) error {
	a.stopOnce.Do(func() { close(a.stop) })
	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Authority) sweepLoop(interval time.Duration) {
	defer close(a.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-a.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			n, err := a.SweepExpired(ctx)
			cancel()
			if err != nil {
				a.logger.Error("session sweep failed", "error", err)
				continue
			}
			if n > 0 {
				a.logger.Debug("session sweep", "deleted", n)
			}
		}
	}
}
