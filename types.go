package huiauth

import (
	"time"

	"github.com/huiapp/huiauth/store"
)

// RegisterRequest is the input to [Engine.Register]. EmailOrPhone is
// parsed as an email address first and as an E.164 phone number otherwise.
type RegisterRequest struct {
	FullName       string `json:"fullName" validate:"required,min=1,max=100"`
	EmailOrPhone   string `json:"emailOrPhone" validate:"required"`
	Password       string `json:"password" validate:"required"`
	RetypePassword string `json:"retypePassword" validate:"required"`
}

// LoginRequest is the input to [Engine.Login].
type LoginRequest struct {
	EmailOrPhone string `json:"emailOrPhone" validate:"required"`
	Password     string `json:"password" validate:"required"`
}

// ChangePasswordRequest is the input to [Engine.ChangePassword].
type ChangePasswordRequest struct {
	OldPassword       string `json:"oldPassword" validate:"required"`
	NewPassword       string `json:"newPassword" validate:"required"`
	RetypeNewPassword string `json:"retypeNewPassword" validate:"required"`
}

// Identity is the caller-facing view of a user. It never carries the
// password hash.
type Identity struct {
	ID          string    `json:"id"`
	FullName    string    `json:"full_name"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Role        string    `json:"role"`
	Permissions []string  `json:"permissions"`
	Status      string    `json:"status,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
}

// IdentityFromUser projects a stored user.
func IdentityFromUser(u *store.User) *Identity {
	if u == nil {
		return nil
	}
	return &Identity{
		ID:          u.ID,
		FullName:    u.FullName,
		Email:       u.Email,
		Phone:       u.Phone,
		Role:        u.Role,
		Permissions: store.Permissions(u.Permissions),
		Status:      u.Status,
		CreatedAt:   u.CreatedAt,
	}
}

// Credentials is returned by register and login. Token is empty when
// token issuance is disabled.
type Credentials struct {
	User      *Identity
	SessionID string
	ExpiresAt time.Time
	Token     string
	Cookie    *SessionCookie
}

// IdentitySource records which credential produced an [AuthContext].
type IdentitySource string

const (
	// SourceNone marks an anonymous request.
	SourceNone IdentitySource = ""
	// SourceSession marks an identity resolved from the session cookie.
	SourceSession IdentitySource = "session"
	// SourceToken marks an identity resolved from a bearer token.
	SourceToken IdentitySource = "token"
)
