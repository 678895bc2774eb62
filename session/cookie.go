package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/huiapp/huiauth/internal"
)

// DefaultCookieName is used when Config.CookieName is empty.
const DefaultCookieName = "auth_session"

// CookieAttributes are the fixed attributes of the session cookie.
type CookieAttributes struct {
	Path     string
	HTTPOnly bool
	SameSite http.SameSite
	Secure   bool
	// MaxAge in seconds; negative clears the cookie.
	MaxAge int
}

// Cookie is a session cookie ready to be written to a response.
type Cookie struct {
	Name       string
	Value      string
	Attributes CookieAttributes
}

// HTTP converts c to a *http.Cookie.
func (c Cookie) HTTP() *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Path:     c.Attributes.Path,
		HttpOnly: c.Attributes.HTTPOnly,
		SameSite: c.Attributes.SameSite,
		Secure:   c.Attributes.Secure,
		MaxAge:   c.Attributes.MaxAge,
	}
}

// String serializes c as a Set-Cookie header value.
func (c Cookie) String() string {
	return c.HTTP().String()
}

func (a *Authority) attributes(maxAge int) CookieAttributes {
	return CookieAttributes{
		Path:     "/",
		HTTPOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   a.cfg.Production,
		MaxAge:   maxAge,
	}
}

// CookieName returns the configured cookie name.
func (a *Authority) CookieName() string {
	return a.cfg.CookieName
}

// CreateSessionCookie returns the cookie carrying sessionID.
func (a *Authority) CreateSessionCookie(sessionID string) Cookie {
	return Cookie{
		Name:       a.cfg.CookieName,
		Value:      sessionID,
		Attributes: a.attributes(int(a.cfg.TTL / time.Second)),
	}
}

// CreateBlankSessionCookie returns a cookie that clears the session cookie.
func (a *Authority) CreateBlankSessionCookie() Cookie {
	return Cookie{
		Name:       a.cfg.CookieName,
		Value:      "",
		Attributes: a.attributes(-1),
	}
}

// ReadSessionCookie extracts the session id from a Cookie request header.
// Absent, unparsable or malformed values report false; it never fails.
func (a *Authority) ReadSessionCookie(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	cookies, err := http.ParseCookie(header)
	if err != nil {
		// one bad pair rejects the whole header; fall back to a lenient scan
		return a.scanCookieHeader(header)
	}
	for _, c := range cookies {
		if c.Name != a.cfg.CookieName {
			continue
		}
		if internal.ValidSessionID(c.Value) {
			return c.Value, true
		}
		return "", false
	}
	return "", false
}

func (a *Authority) scanCookieHeader(header string) (string, bool) {
	for _, part := range strings.Split(header, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || name != a.cfg.CookieName {
			continue
		}
		value = strings.Trim(value, `"`)
		if internal.ValidSessionID(value) {
			return value, true
		}
		return "", false
	}
	return "", false
}

// ReadSessionCookieFromRequest is ReadSessionCookie over r's Cookie headers.
func (a *Authority) ReadSessionCookieFromRequest(r *http.Request) (string, bool) {
	return a.ReadSessionCookie(CookieHeader(r))
}

// CookieHeader joins every Cookie header of r into one header value.
func CookieHeader(r *http.Request) string {
	return strings.Join(r.Header.Values("Cookie"), "; ")
}
