package token

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the shortest accepted HMAC secret in bytes.
const MinSecretLength = 32

var (
	// ErrInvalidSignature is returned when the signature or algorithm does
	// not verify against the configured secret.
	ErrInvalidSignature = errors.New("token: invalid signature")
	// ErrExpired is returned when exp is present and has passed.
	ErrExpired = errors.New("token: expired")
	// ErrMalformed covers undecodable tokens and failed claim checks.
	ErrMalformed = errors.New("token: malformed")
)

// Config configures a [Manager].
type Config struct {
	Secret []byte
	// TTL of issued tokens; 0 omits exp.
	TTL          time.Duration
	Issuer       string
	Leeway       time.Duration
	MaxFutureIAT time.Duration
}

// Claims is the bearer token payload.
type Claims struct {
	UserID      string   `json:"id"`
	Email       string   `json:"email,omitempty"`
	Phone       string   `json:"phone,omitempty"`
	FullName    string   `json:"full_name"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

// Manager signs and verifies tokens. Safe for concurrent use.
type Manager struct {
	config Config
	now    func() time.Time
}

// NewManager validates cfg and returns a manager.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) < MinSecretLength {
		return nil, errors.New("token: secret must be at least 32 bytes")
	}
	if cfg.TTL < 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.MaxFutureIAT == 0 {
		cfg.MaxFutureIAT = 10 * time.Minute
	}
	if cfg.MaxFutureIAT < 0 || cfg.MaxFutureIAT > 24*time.Hour {
		return nil, errors.New("invalid MaxFutureIAT configuration")
	}
	cfg.Issuer = strings.TrimSpace(cfg.Issuer)

	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)
	cfg.Secret = secret

	return &Manager{config: cfg, now: time.Now}, nil
}

// WithClock returns a copy of m reading time from now. Used by tests.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	cp := *m
	cp.now = now
	return &cp
}

// TTL returns the configured token lifetime.
func (m *Manager) TTL() time.Duration {
	return m.config.TTL
}

// Sign issues a token for claims, stamping iat, exp (when TTL > 0), iss
// and sub.
func (m *Manager) Sign(claims Claims) (string, error) {
	if claims.UserID == "" {
		return "", errors.New("token: claims need a user id")
	}

	now := m.now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = nil
	if m.config.TTL > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(m.config.TTL))
	}
	claims.Issuer = m.config.Issuer
	claims.Subject = claims.UserID
	if claims.Permissions == nil {
		claims.Permissions = []string{}
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.config.Secret)
}

// Verify checks the signature and time claims and returns the payload.
// Errors are one of [ErrInvalidSignature], [ErrExpired] or [ErrMalformed].
func (m *Manager) Verify(tokenStr string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return m.config.Secret, nil
	})
	if err != nil {
		return nil, classify(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrMalformed
	}
	if claims.IssuedAt != nil && claims.IssuedAt.Time.After(m.now().Add(m.config.MaxFutureIAT)) {
		return nil, ErrMalformed
	}

	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrInvalidSignature
	default:
		return ErrMalformed
	}
}

// ReadBearer extracts the token from an Authorization header value.
func ReadBearer(header string) (string, bool) {
	scheme, tok, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return "", false
	}
	return tok, true
}
