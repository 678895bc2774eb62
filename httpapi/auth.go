package httpapi

import (
	"net/http"
	"time"

	"github.com/huiapp/huiauth"
	"github.com/huiapp/huiauth/internal/respond"
	"github.com/huiapp/huiauth/middleware"
	"github.com/huiapp/huiauth/validation"
)

// userBody is the public user projection returned by register, login and
// /auth/me.
type userBody struct {
	ID          string    `json:"_id"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	FullName    string    `json:"full_name"`
	Role        string    `json:"role"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
}

func newUserBody(id *huiauth.Identity) *userBody {
	if id == nil {
		return nil
	}
	perms := id.Permissions
	if perms == nil {
		perms = []string{}
	}
	return &userBody{
		ID:          id.ID,
		Email:       id.Email,
		Phone:       id.Phone,
		FullName:    id.FullName,
		Role:        id.Role,
		Permissions: perms,
		CreatedAt:   id.CreatedAt,
	}
}

type credentialsBody struct {
	Message   string    `json:"message"`
	User      *userBody `json:"user"`
	Token     string    `json:"token,omitempty"`
	SessionID string    `json:"session_id"`
}

func (h *handlers) writeCredentials(w http.ResponseWriter, msg string, creds *huiauth.Credentials) {
	if creds.Cookie != nil {
		http.SetCookie(w, creds.Cookie.HTTP())
	}
	respond.JSON(w, http.StatusOK, credentialsBody{
		Message:   msg,
		User:      newUserBody(creds.User),
		Token:     creds.Token,
		SessionID: creds.SessionID,
	})
}

// decode writes the validation failure and reports false when the body is
// unusable.
func decode[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	res := validation.Decode[T](r)
	if !res.OK() {
		respond.JSON(w, http.StatusBadRequest, res.FailureBody())
		return res.Value, false
	}
	return res.Value, true
}

func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[huiauth.RegisterRequest](w, r)
	if !ok {
		return
	}

	creds, err := h.engine.Register(r.Context(), req)
	if err != nil {
		writeEngineError(r.Context(), w, h.logger, registerMessages, err)
		return
	}
	h.writeCredentials(w, "User registered successfully", creds)
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[huiauth.LoginRequest](w, r)
	if !ok {
		return
	}

	creds, err := h.engine.Login(r.Context(), req)
	if err != nil {
		writeEngineError(r.Context(), w, h.logger, loginMessages, err)
		return
	}
	h.writeCredentials(w, "User login successfully", creds)
}

// logout answers 204 when no session cookie was sent. Token-only callers
// have nothing to revoke.
func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	sid, ok := h.engine.Sessions().ReadSessionCookieFromRequest(r)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := h.engine.Logout(r.Context(), sid); err != nil {
		writeEngineError(r.Context(), w, h.logger, flowMessages{}, err)
		return
	}
	http.SetCookie(w, h.engine.BlankSessionCookie().HTTP())
	respond.Message(w, http.StatusOK, "Logged out successfully")
}

func (h *handlers) me(w http.ResponseWriter, r *http.Request) {
	ac, _ := middleware.AuthContextFromContext(r.Context())
	user, err := h.engine.CurrentUser(r.Context(), ac.User.ID)
	if err != nil {
		writeEngineError(r.Context(), w, h.logger, flowMessages{}, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"user": newUserBody(user)})
}

func (h *handlers) changePassword(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[huiauth.ChangePasswordRequest](w, r)
	if !ok {
		return
	}

	ac, _ := middleware.AuthContextFromContext(r.Context())
	var keep string
	if ac.Session != nil {
		keep = ac.Session.ID
	}

	if err := h.engine.ChangePassword(r.Context(), ac.User.ID, keep, req); err != nil {
		writeEngineError(r.Context(), w, h.logger, changePasswordMessages, err)
		return
	}
	respond.Message(w, http.StatusOK, "Mật khẩu đã được thay đổi thành công")
}
