package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/huiapp/huiauth"
	"github.com/huiapp/huiauth/internal/logging"
	"github.com/huiapp/huiauth/internal/respond"
	"github.com/huiapp/huiauth/middleware"
)

// weakPasswordBody is the 400 body for a password that failed the policy.
type weakPasswordBody struct {
	Error       string   `json:"error"`
	Warning     string   `json:"warning"`
	Suggestions []string `json:"suggestions"`
}

// flowMessages holds the user-facing text for one endpoint. Errors not
// listed fall back to commonMessages. Errors in asMessage are written as
// {"message": ...} instead of {"error": ...}.
type flowMessages struct {
	weak      string
	byError   map[error]string
	asMessage []error
}

var commonMessages = map[error]string{
	huiauth.ErrInvalidInput:       "Invalid input",
	huiauth.ErrInvalidIdentifier:  "Invalid email or phone number",
	huiauth.ErrPasswordMismatch:   "Passwords do not match",
	huiauth.ErrAccountExists:      "User đã tồn tại",
	huiauth.ErrInvalidCredentials: "Email/số điện thoại hoặc mật khẩu không đúng.",
	huiauth.ErrAccountDisabled:    "Tài khoản đã bị vô hiệu hóa.",
	huiauth.ErrLoginRateLimited:   "Quá nhiều lần đăng nhập thất bại. Vui lòng thử lại sau.",
	huiauth.ErrUnauthorized:       middleware.MsgUnauthenticated,
	huiauth.ErrUserNotFound:       "User not found",
}

var (
	registerMessages = flowMessages{
		weak:      "Password is too weak",
		asMessage: []error{huiauth.ErrInvalidIdentifier, huiauth.ErrPasswordMismatch},
	}

	loginMessages = flowMessages{}

	changePasswordMessages = flowMessages{
		weak: "Mật khẩu mới quá yếu",
		byError: map[error]string{
			huiauth.ErrInvalidCredentials: "Mật khẩu cũ không đúng",
			huiauth.ErrPasswordReuse:      "Mật khẩu mới không được giống mật khẩu cũ",
			huiauth.ErrPasswordMismatch:   "Mật khẩu mới không khớp",
		},
	}
)

func (m flowMessages) lookup(err error) (string, bool) {
	for target, msg := range m.byError {
		if errors.Is(err, target) {
			return msg, true
		}
	}
	for target, msg := range commonMessages {
		if errors.Is(err, target) {
			return msg, true
		}
	}
	return "", false
}

// writeEngineError answers err with the status from [huiauth.StatusCode].
// Server-side failures are logged and never echoed.
func writeEngineError(ctx context.Context, w http.ResponseWriter, logger *slog.Logger, m flowMessages, err error) {
	var weak *huiauth.WeakPasswordError
	if errors.As(err, &weak) {
		suggestions := weak.Suggestions()
		if suggestions == nil {
			suggestions = []string{}
		}
		respond.JSON(w, http.StatusBadRequest, weakPasswordBody{
			Error:       m.weak,
			Warning:     weak.Warning(),
			Suggestions: suggestions,
		})
		return
	}

	status := huiauth.StatusCode(err)
	if status == http.StatusInternalServerError {
		logging.LogError(ctx, logger, "request failed", err)
		respond.Error(w, status, "Internal Server Error")
		return
	}

	msg, ok := m.lookup(err)
	if !ok {
		msg = http.StatusText(status)
	}
	for _, target := range m.asMessage {
		if errors.Is(err, target) {
			respond.Message(w, status, msg)
			return
		}
	}
	respond.Error(w, status, msg)
}
