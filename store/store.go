package store

import (
	"context"
	"errors"
	"time"

	"github.com/samber/oops"
)

var (
	// ErrNotFound is returned by single-record lookups that matched nothing.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicateKey is returned when an insert collides with a unique key.
	ErrDuplicateKey = errors.New("store: duplicate key")
	// ErrUnavailable wraps driver and transport failures.
	ErrUnavailable = errors.New("store: unavailable")
)

// Account status values.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Attributes is the small bag stored alongside a session.
type Attributes struct {
	Permissions []string `json:"permissions" bson:"permissions"`
}

// Session is a persisted login session.
type Session struct {
	ID         string     `json:"id" bson:"id"`
	UserID     string     `json:"userId" bson:"userId"`
	ExpiresAt  time.Time  `json:"expiresAt" bson:"expiresAt"`
	Attributes Attributes `json:"attributes" bson:"attributes"`
}

// User is a credential record. Permissions is resolved from Role on every
// read and is never written back.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	FullName     string    `json:"full_name"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Permissions  []string  `json:"permissions"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Active reports whether the account may authenticate. An empty status is
// treated as active for records created before the field existed.
func (u *User) Active() bool {
	return u != nil && (u.Status == "" || u.Status == StatusActive)
}

// Role maps a role name to its permission list.
type Role struct {
	Name        string   `json:"name" bson:"name"`
	Description string   `json:"description" bson:"description"`
	Permissions []string `json:"permissions" bson:"permissions"`
}

// NewUser is the input to [UserStore.CreateUser]. The store assigns the ID
// and timestamps.
type NewUser struct {
	Email        string
	Phone        string
	FullName     string
	PasswordHash string
	Role         string
}

// Validate checks the record invariants every implementation enforces
// before insert.
func (n NewUser) Validate() error {
	if n.Email == "" && n.Phone == "" {
		return errors.New("store: user needs an email or a phone")
	}
	if n.PasswordHash == "" {
		return errors.New("store: password hash must not be empty")
	}
	if n.Role == "" {
		return errors.New("store: role must not be empty")
	}
	return nil
}

// SessionStore persists sessions. GetSession returns [ErrNotFound] for an
// absent id. SetSession never overwrites: an id collision is
// [ErrDuplicateKey]. Deletes are idempotent; updates of an absent session
// are no-ops.
type SessionStore interface {
	GetSession(ctx context.Context, id string) (*Session, error)
	GetUserSessions(ctx context.Context, userID string) ([]Session, error)
	SetSession(ctx context.Context, s Session) error
	UpdateSessionExpiration(ctx context.Context, id string, expiresAt time.Time) error
	DeleteSession(ctx context.Context, id string) error
	DeleteUserSessions(ctx context.Context, userID string) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}

// UserStore persists credential records. Reads return [ErrNotFound] when
// nothing matches and always carry the joined role permissions.
//
// Emails and phones match exactly. Callers normalize them first (emails
// lowercased, phones in E.164, see validation.ParseEmailOrPhone); rows
// written with other casing are not found.
type UserStore interface {
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByPhone(ctx context.Context, phone string) (*User, error)
	ExistsByEmailOrPhone(ctx context.Context, email, phone string) (bool, error)
	CreateUser(ctx context.Context, u NewUser) (*User, error)
	UpdatePasswordHash(ctx context.Context, userID, hash string) error
	SetStatus(ctx context.Context, userID, status string) error
}

// RoleStore persists the role to permission mapping.
type RoleStore interface {
	FindRoleByName(ctx context.Context, name string) (*Role, error)
	UpsertRole(ctx context.Context, r Role) error
}

// Setting is one dynamic configuration row. ID is conventionally
// "<category>_<snake_key>".
type Setting struct {
	ID          string    `json:"id" bson:"id"`
	Category    string    `json:"category" bson:"category"`
	Key         string    `json:"key" bson:"key"`
	Value       any       `json:"value" bson:"value"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// SettingStore persists settings rows.
type SettingStore interface {
	FindSetting(ctx context.Context, id string) (*Setting, error)
	FindSettingsByCategory(ctx context.Context, category string) ([]Setting, error)
	UpdateSettingValue(ctx context.Context, id string, value any) (*Setting, error)
	CreateSetting(ctx context.Context, s Setting) (*Setting, error)
}

// Unavailable wraps a driver error so that errors.Is(err, ErrUnavailable)
// holds while the oops context records where it happened.
func Unavailable(domain, operation string, err error) error {
	if err == nil {
		return nil
	}
	return oops.
		In(domain).
		Code("STORE_UNAVAILABLE").
		With("operation", operation).
		Wrap(errors.Join(ErrUnavailable, err))
}

// Duplicate wraps a unique-key violation.
func Duplicate(domain, operation string, err error) error {
	return oops.
		In(domain).
		Code("STORE_DUPLICATE_KEY").
		With("operation", operation).
		Wrap(errors.Join(ErrDuplicateKey, err))
}
