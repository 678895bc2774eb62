package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/huiapp/huiauth"
	"github.com/huiapp/huiauth/middleware"
	"github.com/huiapp/huiauth/permission"
)

// NewRouter returns the auth and settings routes wrapped in identity
// resolution. Settings routes are mounted only when the engine has a
// settings service.
func NewRouter(engine *huiauth.Engine, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	h := &handlers{engine: engine, logger: logger}

	mux := http.NewServeMux()

	// ---------- auth ----------
	mux.Handle("POST /auth/register", middleware.RequireAnonymous(http.HandlerFunc(h.register)))
	mux.Handle("POST /auth/login", middleware.RequireAnonymous(http.HandlerFunc(h.login)))
	mux.Handle("POST /auth/logout", middleware.RequireAuth(http.HandlerFunc(h.logout)))
	mux.Handle("GET /auth/me", middleware.RequireAuth(http.HandlerFunc(h.me)))
	mux.Handle("POST /auth/change-password", middleware.RequireAuth(http.HandlerFunc(h.changePassword)))

	// ---------- settings ----------
	if engine.Settings() != nil {
		mux.Handle("GET /settings/{category}", middleware.RequireAuth(http.HandlerFunc(h.settingsByCategory)))
		mux.Handle("GET /settings/{category}/{key}", middleware.RequireAuth(http.HandlerFunc(h.settingByKey)))
		mux.Handle("PATCH /settings/{category}/{key}",
			middleware.RequirePermissions(permission.SettingUpdate)(http.HandlerFunc(h.updateSetting)))
		mux.Handle("POST /settings",
			middleware.RequirePermissions(permission.SettingCreate)(http.HandlerFunc(h.createSetting)))
	}

	return middleware.Identify(engine, logger)(mux)
}

type handlers struct {
	engine *huiauth.Engine
	logger *slog.Logger
}
