// Package memstore is an in-process implementation of the store contract
// for tests and single-node development.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/huiapp/huiauth/store"
)

// Store keeps users, roles, sessions and settings in maps guarded by one
// RWMutex. Safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	users    map[string]*userRecord
	roles    map[string]store.Role
	sessions map[string]store.Session
	settings map[string]store.Setting
	now      func() time.Time
}

type userRecord struct {
	id           string
	email        string
	phone        string
	fullName     string
	passwordHash string
	role         string
	status       string
	createdAt    time.Time
	updatedAt    time.Time
}

// Option configures a [Store].
type Option func(*Store)

// WithClock overrides time.Now, used by expiry sweeps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New returns an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		users:    make(map[string]*userRecord),
		roles:    make(map[string]store.Role),
		sessions: make(map[string]store.Session),
		settings: make(map[string]store.Setting),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var (
	_ store.SessionStore = (*Store)(nil)
	_ store.UserStore    = (*Store)(nil)
	_ store.RoleStore    = (*Store)(nil)
	_ store.SettingStore = (*Store)(nil)
)

// GetSession implements [store.SessionStore].
func (s *Store) GetSession(_ context.Context, id string) (*store.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	sess.Attributes.Permissions = store.Permissions(sess.Attributes.Permissions)
	return &sess, nil
}

// GetUserSessions implements [store.SessionStore]. Sessions are ordered by
// expiry so results are stable.
func (s *Store) GetUserSessions(_ context.Context, userID string) ([]store.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.Session, 0)
	for _, sess := range s.sessions {
		if sess.UserID == userID {
			sess.Attributes.Permissions = store.Permissions(sess.Attributes.Permissions)
			out = append(out, sess)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	return out, nil
}

// SetSession implements [store.SessionStore].
func (s *Store) SetSession(_ context.Context, sess store.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[sess.ID]; exists {
		return store.ErrDuplicateKey
	}
	sess.Attributes.Permissions = store.Permissions(sess.Attributes.Permissions)
	s.sessions[sess.ID] = sess
	return nil
}

// UpdateSessionExpiration implements [store.SessionStore].
func (s *Store) UpdateSessionExpiration(_ context.Context, id string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil
	}
	sess.ExpiresAt = expiresAt
	s.sessions[id] = sess
	return nil
}

// DeleteSession implements [store.SessionStore].
func (s *Store) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

// DeleteUserSessions implements [store.SessionStore].
func (s *Store) DeleteUserSessions(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, sess := range s.sessions {
		if sess.UserID == userID {
			delete(s.sessions, id)
		}
	}
	return nil
}

// DeleteExpiredSessions implements [store.SessionStore].
func (s *Store) DeleteExpiredSessions(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var n int64
	for id, sess := range s.sessions {
		if !sess.ExpiresAt.After(now) {
			delete(s.sessions, id)
			n++
		}
	}
	return n, nil
}

// FindByID implements [store.UserStore].
func (s *Store) FindByID(_ context.Context, id string) (*store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return s.join(rec), nil
}

// FindByEmail implements [store.UserStore].
func (s *Store) FindByEmail(_ context.Context, email string) (*store.User, error) {
	return s.findBy(func(r *userRecord) bool {
		return email != "" && r.email == email
	})
}

// FindByPhone implements [store.UserStore].
func (s *Store) FindByPhone(_ context.Context, phone string) (*store.User, error) {
	return s.findBy(func(r *userRecord) bool {
		return phone != "" && r.phone == phone
	})
}

// ExistsByEmailOrPhone implements [store.UserStore].
func (s *Store) ExistsByEmailOrPhone(_ context.Context, email, phone string) (bool, error) {
	_, err := s.findBy(func(r *userRecord) bool {
		return (email != "" && r.email == email) || (phone != "" && r.phone == phone)
	})
	if err == store.ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

// CreateUser implements [store.UserStore].
func (s *Store) CreateUser(_ context.Context, in store.NewUser) (*store.User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.users {
		if (in.Email != "" && r.email == in.Email) || (in.Phone != "" && r.phone == in.Phone) {
			return nil, store.ErrDuplicateKey
		}
	}

	now := s.now().UTC()
	rec := &userRecord{
		id:           uuid.NewString(),
		email:        in.Email,
		phone:        in.Phone,
		fullName:     in.FullName,
		passwordHash: in.PasswordHash,
		role:         in.Role,
		status:       store.StatusActive,
		createdAt:    now,
		updatedAt:    now,
	}
	s.users[rec.id] = rec
	return s.join(rec), nil
}

// UpdatePasswordHash implements [store.UserStore].
func (s *Store) UpdatePasswordHash(_ context.Context, userID, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	rec.passwordHash = hash
	rec.updatedAt = s.now().UTC()
	return nil
}

// SetStatus implements [store.UserStore].
func (s *Store) SetStatus(_ context.Context, userID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	rec.status = status
	rec.updatedAt = s.now().UTC()
	return nil
}

// FindRoleByName implements [store.RoleStore].
func (s *Store) FindRoleByName(_ context.Context, name string) (*store.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.roles[name]
	if !ok {
		return nil, store.ErrNotFound
	}
	r.Permissions = store.Permissions(r.Permissions)
	return &r, nil
}

// UpsertRole implements [store.RoleStore].
func (s *Store) UpsertRole(_ context.Context, r store.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r.Permissions = store.Permissions(r.Permissions)
	s.roles[r.Name] = r
	return nil
}

// FindSetting implements [store.SettingStore].
func (s *Store) FindSetting(_ context.Context, id string) (*store.Setting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.settings[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &row, nil
}

// FindSettingsByCategory implements [store.SettingStore].
func (s *Store) FindSettingsByCategory(_ context.Context, category string) ([]store.Setting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.Setting, 0)
	for _, row := range s.settings {
		if row.Category == category {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// UpdateSettingValue implements [store.SettingStore].
func (s *Store) UpdateSettingValue(_ context.Context, id string, value any) (*store.Setting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.settings[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	row.Value = value
	row.UpdatedAt = s.now().UTC()
	s.settings[id] = row
	return &row, nil
}

// CreateSetting implements [store.SettingStore].
func (s *Store) CreateSetting(_ context.Context, row store.Setting) (*store.Setting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.settings[row.ID]; exists {
		return nil, store.ErrDuplicateKey
	}
	now := s.now().UTC()
	row.CreatedAt = now
	row.UpdatedAt = now
	s.settings[row.ID] = row
	return &row, nil
}

func (s *Store) findBy(match func(*userRecord) bool) (*store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.users {
		if match(rec) {
			return s.join(rec), nil
		}
	}
	return nil, store.ErrNotFound
}

// join resolves the role's permissions at read time. Callers hold s.mu.
func (s *Store) join(rec *userRecord) *store.User {
	var perms []string
	if role, ok := s.roles[rec.role]; ok {
		perms = role.Permissions
	}
	return &store.User{
		ID:           rec.id,
		Email:        rec.email,
		Phone:        rec.phone,
		FullName:     rec.fullName,
		PasswordHash: rec.passwordHash,
		Role:         rec.role,
		Permissions:  store.Permissions(perms),
		Status:       rec.status,
		CreatedAt:    rec.createdAt,
		UpdatedAt:    rec.updatedAt,
	}
}
