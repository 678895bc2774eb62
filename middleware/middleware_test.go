package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/huiapp/huiauth"
	"github.com/huiapp/huiauth/middleware"
	"github.com/huiapp/huiauth/permission"
	"github.com/huiapp/huiauth/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct {
	mu      sync.Mutex
	result  *huiauth.AuthContext
	err     error
	session string
	bearer  string
	denied  [][]string
}

func (f *fakeAuth) Authenticate(ctx context.Context, sessionID, bearer string) (*huiauth.AuthContext, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.session, f.bearer = sessionID, bearer
	if f.err != nil {
		return nil, f.err
	}
	if f.result == nil {
		return &huiauth.AuthContext{}, nil
	}
	return f.result, nil
}

func (f *fakeAuth) ReadSessionCookie(header string) (string, bool) {
	cookies, err := http.ParseCookie(header)
	if err != nil {
		return "", false
	}
	for _, c := range cookies {
		if c.Name == "auth_session" {
			return c.Value, true
		}
	}
	return "", false
}

func (f *fakeAuth) RecordPermissionDenied(_ context.Context, _ string, missing []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.denied = append(f.denied, missing)
}

func identity(role string) *huiauth.AuthContext {
	return &huiauth.AuthContext{
		User: &huiauth.Identity{
			ID:          "u1",
			Role:        role,
			Permissions: permission.CatalogMap()[role],
		},
		Source: huiauth.SourceToken,
	}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func serve(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["message"]
}

func TestIdentifyReadsCookieAndBearer(t *testing.T) {
	auth := &fakeAuth{result: identity(permission.RoleChuHui)}
	var seen *huiauth.AuthContext
	h := middleware.Identify(auth, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = middleware.AuthContextFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.9:5555"
	req.AddCookie(&http.Cookie{Name: "auth_session", Value: "sid"})
	req.Header.Set("Authorization", "Bearer tok")
	serve(t, h, req)

	assert.Equal(t, "sid", auth.session)
	assert.Equal(t, "tok", auth.bearer)
	require.NotNil(t, seen)
	assert.Equal(t, "u1", seen.User.ID)
}

func TestIdentifyJoinsCookieHeaders(t *testing.T) {
	auth := &fakeAuth{}
	h := middleware.Identify(auth, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Add("Cookie", "theme=dark")
	req.Header.Add("Cookie", "auth_session=sid")
	serve(t, h, req)

	assert.Equal(t, "sid", auth.session)
}

func TestIdentifyIgnoresMalformedAuthorization(t *testing.T) {
	auth := &fakeAuth{}
	h := middleware.Identify(auth, nil)(okHandler())

	for _, header := range []string{"Basic abc", "Bearer ", "Bearer"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", header)
		rec := serve(t, h, req)

		assert.Equal(t, http.StatusNoContent, rec.Code, header)
		assert.Empty(t, auth.bearer, header)
	}
}

func TestIdentifyStoreFailureIs500(t *testing.T) {
	auth := &fakeAuth{err: huiauth.ErrStoreUnavailable}
	h := middleware.Identify(auth, nil)(okHandler())

	rec := serve(t, h, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestIdentifyResendsExtendedCookie(t *testing.T) {
	ac := identity(permission.RoleChuHui)
	ac.RefreshCookie = &huiauth.SessionCookie{Name: "auth_session", Value: "sid"}
	h := middleware.Identify(&fakeAuth{result: ac}, nil)(okHandler())

	rec := serve(t, h, httptest.NewRequest(http.MethodGet, "/", nil))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "sid", cookies[0].Value)
}

func TestRequireAuth(t *testing.T) {
	h := middleware.RequireAuth(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := serve(t, h, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, middleware.MsgUnauthenticated, message(t, rec))

	req = req.WithContext(middleware.WithAuthContext(req.Context(), identity(permission.RoleGuest)))
	rec = serve(t, h, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequireAnonymous(t *testing.T) {
	h := middleware.RequireAnonymous(okHandler())

	rec := serve(t, h, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	withSession := identity(permission.RoleChuHui)
	withSession.Session = &store.Session{ID: "sid", UserID: "u1"}
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req = req.WithContext(middleware.WithAuthContext(req.Context(), withSession))
	rec = serve(t, h, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, middleware.MsgAlreadyLoggedIn, message(t, rec))
}

func TestRequirePermissions(t *testing.T) {
	tests := []struct {
		name     string
		ac       *huiauth.AuthContext
		required []string
		status   int
		msg      string
	}{
		{"anonymous", &huiauth.AuthContext{}, []string{permission.GroupView}, http.StatusForbidden, middleware.MsgNoPermissions},
		{"hui_vien cannot delete groups", identity(permission.RoleHuiVien), []string{permission.GroupDelete}, http.StatusForbidden, middleware.MsgInsufficientPermissions},
		{"and semantics", identity(permission.RoleChuHui), []string{permission.GroupDelete, permission.SettingUpdate}, http.StatusForbidden, middleware.MsgInsufficientPermissions},
		{"chu_hui deletes groups", identity(permission.RoleChuHui), []string{permission.GroupDelete}, http.StatusNoContent, ""},
		{"admin updates settings", identity(permission.RoleAdmin), []string{permission.SettingUpdate, permission.SettingView}, http.StatusNoContent, ""},
		{"empty requirement", identity(permission.RoleGuest), nil, http.StatusNoContent, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := middleware.RequirePermissions(tc.required...)(okHandler())
			req := httptest.NewRequest(http.MethodDelete, "/", nil)
			req = req.WithContext(middleware.WithAuthContext(req.Context(), tc.ac))

			rec := serve(t, h, req)
			assert.Equal(t, tc.status, rec.Code)
			if tc.msg != "" {
				assert.Equal(t, tc.msg, message(t, rec))
			}
		})
	}
}

func TestRequirePermissionsWithoutIdentify(t *testing.T) {
	h := middleware.RequirePermissions(permission.GroupView)(okHandler())

	rec := serve(t, h, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, middleware.MsgNoPermissions, message(t, rec))
}

func TestRequirePermissionsRecordsDenial(t *testing.T) {
	auth := &fakeAuth{result: identity(permission.RoleHuiVien)}
	h := middleware.Identify(auth, nil)(middleware.RequirePermissions(permission.GroupView, permission.GroupDelete)(okHandler()))

	rec := serve(t, h, httptest.NewRequest(http.MethodDelete, "/groups/1", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	require.Len(t, auth.denied, 1)
	assert.Equal(t, []string{permission.GroupDelete}, auth.denied[0])
}

func TestIdentifyWithEngine(t *testing.T) {
	_, err := (*huiauth.Engine)(nil).Authenticate(context.Background(), "", "")
	assert.True(t, errors.Is(err, huiauth.ErrEngineNotReady))

	var _ middleware.Authenticator = (*huiauth.Engine)(nil)
	var _ middleware.DenialRecorder = (*huiauth.Engine)(nil)
}
