package huiauth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/huiapp/huiauth/permission"
	"github.com/huiapp/huiauth/store"
	"github.com/huiapp/huiauth/store/memstore"
)

func TestAuthenticateAnonymous(t *testing.T) {
	te := newTestEngine(t)

	ac, err := te.Authenticate(context.Background(), "", "")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if !ac.Anonymous() || ac.Source != SourceNone {
		t.Fatalf("expected anonymous context, got %+v", ac)
	}
	if perms := ac.Permissions(); perms == nil || len(perms) != 0 {
		t.Fatalf("expected empty non-nil permissions, got %#v", perms)
	}
}

func TestAuthenticateBySession(t *testing.T) {
	te := newTestEngine(t)
	creds := te.register(t, "an@example.com", "Correct1horse")

	ac, err := te.Authenticate(context.Background(), creds.SessionID, "")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if ac.Source != SourceSession || ac.User.ID != creds.User.ID {
		t.Fatalf("expected session identity for %s, got %+v", creds.User.ID, ac)
	}
	if ac.Session == nil || ac.Session.ID != creds.SessionID {
		t.Fatal("expected session attached")
	}
	if ac.RefreshCookie != nil {
		t.Fatal("fresh session must not be re-sent")
	}
}

func TestAuthenticateByToken(t *testing.T) {
	te := newTestEngine(t)
	creds := te.register(t, "an@example.com", "Correct1horse")

	ac, err := te.Authenticate(context.Background(), "", creds.Token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if ac.Source != SourceToken || ac.User.ID != creds.User.ID {
		t.Fatalf("expected token identity, got %+v", ac)
	}
	if ac.Session != nil {
		t.Fatal("token identity carries no session")
	}
	if !permission.NewSet(ac.Permissions()...).Has(permission.GroupDelete) {
		t.Fatal("chu_hui token should carry group:delete")
	}
}

func TestAuthenticateSessionWinsOverToken(t *testing.T) {
	te := newTestEngine(t)
	owner := te.register(t, "owner@example.com", "Correct1horse")
	member := te.register(t, "member@example.com", "Correct1horse")

	ac, err := te.Authenticate(context.Background(), owner.SessionID, member.Token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if ac.Source != SourceSession || ac.User.ID != owner.User.ID {
		t.Fatalf("expected session identity %s, got %+v", owner.User.ID, ac.User)
	}
}

func TestAuthenticateBadTokenIsAnonymous(t *testing.T) {
	te := newTestEngine(t)
	creds := te.register(t, "an@example.com", "Correct1horse")

	tampered := creds.Token[:len(creds.Token)-2] + "xx"
	for _, bearer := range []string{"garbage", tampered} {
		ac, err := te.Authenticate(context.Background(), "", bearer)
		if err != nil {
			t.Fatalf("Authenticate(%q): %v", bearer, err)
		}
		if !ac.Anonymous() {
			t.Fatalf("expected anonymous for %q", bearer)
		}
	}
	if got := te.metrics.Value(MetricTokenRejected); got != 2 {
		t.Fatalf("expected 2 rejected tokens, got %d", got)
	}
}

func TestAuthenticateExpiredSessionFallsBackToToken(t *testing.T) {
	te := newTestEngine(t, func(cfg *Config, _ *Builder) {
		cfg.Token.TTL = 0
	})
	creds := te.register(t, "an@example.com", "Correct1horse")

	te.clock.now = te.clock.now.Add(31 * 24 * time.Hour)

	ac, err := te.Authenticate(context.Background(), creds.SessionID, creds.Token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if ac.Source != SourceToken {
		t.Fatalf("expected token fallback, got %q", ac.Source)
	}

	ac, err = te.Authenticate(context.Background(), creds.SessionID, "")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if !ac.Anonymous() {
		t.Fatal("expired session must not authenticate")
	}
}

func TestAuthenticateExtendsAgingSession(t *testing.T) {
	te := newTestEngine(t)
	creds := te.register(t, "an@example.com", "Correct1horse")

	te.clock.now = te.clock.now.Add(16 * 24 * time.Hour)

	ac, err := te.Authenticate(context.Background(), creds.SessionID, "")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if ac.RefreshCookie == nil || ac.RefreshCookie.Value != creds.SessionID {
		t.Fatalf("expected refresh cookie, got %+v", ac.RefreshCookie)
	}
	want := te.clock.now.Add(30 * 24 * time.Hour)
	if !ac.Session.ExpiresAt.Equal(want) {
		t.Fatalf("expected expiry %v, got %v", want, ac.Session.ExpiresAt)
	}
	if got := te.metrics.Value(MetricSessionExtended); got != 1 {
		t.Fatalf("expected 1 extension, got %d", got)
	}
}

func TestAuthenticateInactiveUserIsAnonymous(t *testing.T) {
	te := newTestEngine(t)
	creds := te.register(t, "an@example.com", "Correct1horse")
	if err := te.mem.SetStatus(context.Background(), creds.User.ID, store.StatusInactive); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	ac, err := te.Authenticate(context.Background(), creds.SessionID, "")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if !ac.Anonymous() {
		t.Fatal("inactive user must not authenticate by session")
	}
}

func TestAuthenticateUsesFreshRolePermissions(t *testing.T) {
	te := newTestEngine(t)
	creds := te.register(t, "an@example.com", "Correct1horse")
	ctx := context.Background()

	if err := te.mem.UpsertRole(ctx, store.Role{Name: permission.RoleChuHui, Permissions: []string{permission.GroupView}}); err != nil {
		t.Fatalf("UpsertRole: %v", err)
	}

	ac, err := te.Authenticate(ctx, creds.SessionID, "")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if got := ac.Permissions(); len(got) != 1 || got[0] != permission.GroupView {
		t.Fatalf("expected refreshed role permissions, got %v", got)
	}
}

type failingSessions struct {
	*memstore.Store
}

func (failingSessions) GetSession(context.Context, string) (*store.Session, error) {
	return nil, store.Unavailable("memstore", "get_session", errors.New("boom"))
}

func TestAuthenticateStoreFailureIsError(t *testing.T) {
	mem := memstore.New()
	e, err := New().
		WithConfig(testConfig()).
		WithStore(store.NewAdapter(failingSessions{mem}, mem), mem).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer e.Close()

	_, err = e.Authenticate(context.Background(), strings.Repeat("a", 40), "")
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if StatusCode(err) != 500 {
		t.Fatalf("expected 500, got %d", StatusCode(err))
	}
}

func TestCurrentUser(t *testing.T) {
	te := newTestEngine(t)
	creds := te.register(t, "an@example.com", "Correct1horse")

	id, err := te.CurrentUser(context.Background(), creds.User.ID)
	if err != nil {
		t.Fatalf("CurrentUser: %v", err)
	}
	if id.FullName != "Nguyễn Văn An" || id.Status != store.StatusActive {
		t.Fatalf("unexpected identity %+v", id)
	}

	_, err = te.CurrentUser(context.Background(), "missing")
	if !errors.Is(err, ErrUserNotFound) || StatusCode(err) != 404 {
		t.Fatalf("expected 404 ErrUserNotFound, got %v", err)
	}
}

func TestReadSessionCookieRoundTrip(t *testing.T) {
	te := newTestEngine(t)
	creds := te.register(t, "an@example.com", "Correct1horse")

	got, ok := te.ReadSessionCookie("theme=dark; " + creds.Cookie.Name + "=" + creds.Cookie.Value)
	if !ok || got != creds.SessionID {
		t.Fatalf("ReadSessionCookie = %q, %v; want %q", got, ok, creds.SessionID)
	}
	if _, ok := te.ReadSessionCookie(creds.Cookie.Name + "=not a session"); ok {
		t.Fatal("expected malformed cookie to read as absent")
	}
	if _, ok := (*Engine)(nil).ReadSessionCookie(creds.Cookie.Name + "=" + creds.Cookie.Value); ok {
		t.Fatal("nil engine must not read cookies")
	}
}
