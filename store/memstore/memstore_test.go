package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/huiapp/huiauth/store"
)

func seededStore(t *testing.T, now func() time.Time) (*Store, *store.User) {
	t.Helper()
	ctx := context.Background()
	s := New(WithClock(now))
	if err := s.UpsertRole(ctx, store.Role{Name: "hui_vien", Permissions: []string{"group:view", "group_member:view", "friendship:view"}}); err != nil {
		t.Fatalf("upsert role: %v", err)
	}
	u, err := s.CreateUser(ctx, store.NewUser{Email: "user@example.com", FullName: "User", PasswordHash: "$argon2id$x", Role: "hui_vien"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return s, u
}

func TestSetSessionRejectsDuplicateID(t *testing.T) {
	s, u := seededStore(t, time.Now)
	ctx := context.Background()
	sess := store.Session{ID: "sid-1", UserID: u.ID, ExpiresAt: time.Now().Add(time.Hour)}

	if err := s.SetSession(ctx, sess); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	sess.UserID = "someone-else"
	if err := s.SetSession(ctx, sess); !errors.Is(err, store.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}

	got, err := s.GetSession(ctx, "sid-1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.UserID != u.ID {
		t.Fatalf("duplicate insert overwrote session owner: %q", got.UserID)
	}
}

func TestUpdateAndDeleteOnAbsentSessionAreNoOps(t *testing.T) {
	s, u := seededStore(t, time.Now)
	ctx := context.Background()

	if err := s.UpdateSessionExpiration(ctx, "missing", time.Now()); err != nil {
		t.Fatalf("update absent: %v", err)
	}
	if err := s.DeleteSession(ctx, "missing"); err != nil {
		t.Fatalf("delete absent: %v", err)
	}
	if err := s.DeleteUserSessions(ctx, u.ID); err != nil {
		t.Fatalf("delete user sessions with none: %v", err)
	}
	if _, err := s.GetSession(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteExpiredSessions(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s, u := seededStore(t, func() time.Time { return now })
	ctx := context.Background()

	for id, exp := range map[string]time.Time{
		"past":  now.Add(-time.Minute),
		"edge":  now,
		"alive": now.Add(time.Minute),
	} {
		if err := s.SetSession(ctx, store.Session{ID: id, UserID: u.ID, ExpiresAt: exp}); err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}

	n, err := s.DeleteExpiredSessions(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 deleted, got %d", n)
	}

	left, err := s.GetUserSessions(ctx, u.ID)
	if err != nil {
		t.Fatalf("user sessions: %v", err)
	}
	if len(left) != 1 || left[0].ID != "alive" {
		t.Fatalf("unexpected survivors: %+v", left)
	}
}

func TestUserReadsJoinCurrentRolePermissions(t *testing.T) {
	s, u := seededStore(t, time.Now)
	ctx := context.Background()

	if len(u.Permissions) != 3 {
		t.Fatalf("expected joined permissions on create, got %v", u.Permissions)
	}

	if err := s.UpsertRole(ctx, store.Role{Name: "hui_vien", Permissions: []string{"group:view"}}); err != nil {
		t.Fatalf("upsert role: %v", err)
	}

	got, err := s.FindByEmail(ctx, "USER@example.com")
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if len(got.Permissions) != 1 || got.Permissions[0] != "group:view" {
		t.Fatalf("expected fresh role permissions, got %v", got.Permissions)
	}

	got.Permissions[0] = "mutated"
	again, _ := s.FindByID(ctx, u.ID)
	if again.Permissions[0] != "group:view" {
		t.Fatal("caller mutation leaked into store state")
	}
}

func TestCreateUserUniqueness(t *testing.T) {
	s, _ := seededStore(t, time.Now)
	ctx := context.Background()

	_, err := s.CreateUser(ctx, store.NewUser{Email: "user@example.com", PasswordHash: "h", Role: "hui_vien"})
	if !errors.Is(err, store.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}

	exists, err := s.ExistsByEmailOrPhone(ctx, "", "+84901234567")
	if err != nil || exists {
		t.Fatalf("expected phone to be free, got exists=%v err=%v", exists, err)
	}

	if _, err := s.CreateUser(ctx, store.NewUser{Phone: "+84901234567", PasswordHash: "h", Role: "hui_vien"}); err != nil {
		t.Fatalf("create phone user: %v", err)
	}
	exists, err = s.ExistsByEmailOrPhone(ctx, "nobody@example.com", "+84901234567")
	if err != nil || !exists {
		t.Fatalf("expected phone to be taken, got exists=%v err=%v", exists, err)
	}

	if _, err := s.CreateUser(ctx, store.NewUser{PasswordHash: "h", Role: "hui_vien"}); err == nil {
		t.Fatal("expected user without email or phone to be rejected")
	}
}

func TestFindByEmailMatchesExactly(t *testing.T) {
	s, u := seededStore(t, time.Now)
	ctx := context.Background()

	got, err := s.FindByEmail(ctx, "user@example.com")
	if err != nil || got.ID != u.ID {
		t.Fatalf("exact email: got %+v err=%v", got, err)
	}
	if _, err := s.FindByEmail(ctx, "User@Example.com"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for differently cased email, got %v", err)
	}
	if _, err := s.FindByEmail(ctx, ""); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for empty email, got %v", err)
	}
}

func TestAdapterOrphanSessionIsInert(t *testing.T) {
	s, u := seededStore(t, time.Now)
	ctx := context.Background()
	adapter := store.NewAdapter(s, s)

	if err := s.SetSession(ctx, store.Session{ID: "orphan", UserID: "ghost", ExpiresAt: time.Now().Add(time.Hour)}); err != nil {
		t.Fatalf("insert orphan: %v", err)
	}
	sess, user, err := adapter.GetSessionAndUser(ctx, "orphan")
	if err != nil || sess != nil || user != nil {
		t.Fatalf("expected nil,nil,nil for orphan, got %v %v %v", sess, user, err)
	}

	sess, user, err = adapter.GetSessionAndUser(ctx, "absent")
	if err != nil || sess != nil || user != nil {
		t.Fatalf("expected nil,nil,nil for absent, got %v %v %v", sess, user, err)
	}

	if err := s.SetSession(ctx, store.Session{ID: "live", UserID: u.ID, ExpiresAt: time.Now().Add(time.Hour)}); err != nil {
		t.Fatalf("insert live: %v", err)
	}
	sess, user, err = adapter.GetSessionAndUser(ctx, "live")
	if err != nil || sess == nil || user == nil || user.ID != u.ID {
		t.Fatalf("expected live session and user, got %v %v %v", sess, user, err)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()

	row := store.Setting{ID: "password_min_length", Category: "password", Key: "minLength", Value: 8}
	if _, err := s.CreateSetting(ctx, row); err != nil {
		t.Fatalf("create setting: %v", err)
	}
	if _, err := s.CreateSetting(ctx, row); !errors.Is(err, store.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}

	updated, err := s.UpdateSettingValue(ctx, "password_min_length", 12)
	if err != nil {
		t.Fatalf("update setting: %v", err)
	}
	if updated.Value != 12 || updated.Category != "password" {
		t.Fatalf("unexpected update result %+v", updated)
	}

	rows, err := s.FindSettingsByCategory(ctx, "password")
	if err != nil || len(rows) != 1 {
		t.Fatalf("expected one password row, got %v err=%v", rows, err)
	}
	if _, err := s.UpdateSettingValue(ctx, "missing", 1); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
