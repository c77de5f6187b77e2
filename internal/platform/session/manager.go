// Package session manages the two storefront cookies: an anonymous session
// identifier scoping the cart, and a signed token carrying the CMS access
// token once the visitor logs in.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/oklog/ulid/v2"
)

const sidCookieSuffix = "_sid"

var (
	// ErrNoToken indicates the request carries no login token.
	ErrNoToken = errors.New("session: no token")
	// ErrTokenInvalid indicates the login token failed verification.
	ErrTokenInvalid = errors.New("session: token invalid")
)

// Manager signs and verifies storefront session cookies.
type Manager struct {
	secret     []byte
	cookieName string
	ttl        time.Duration
	secure     bool
	clock      func() time.Time
}

// ManagerOption customises a Manager.
type ManagerOption func(*Manager)

// WithClock overrides the time source, for tests.
func WithClock(clock func() time.Time) ManagerOption {
	return func(m *Manager) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// NewManager constructs a Manager from the signing secret.
func NewManager(secret, cookieName string, ttl time.Duration, secure bool, opts ...ManagerOption) (*Manager, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("session: signing secret is required")
	}
	cookieName = strings.TrimSpace(cookieName)
	if cookieName == "" {
		return nil, errors.New("session: cookie name is required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	m := &Manager{
		secret:     []byte(secret),
		cookieName: cookieName,
		ttl:        ttl,
		secure:     secure,
		clock:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

type tokenClaims struct {
	AccessToken string `json:"cms_token"`
	jwt.RegisteredClaims
}

// NewSessionID mints a fresh cart-scoping identifier.
func (m *Manager) NewSessionID() string {
	return ulid.Make().String()
}

// SessionIDCookieName names the anonymous session identifier cookie.
func (m *Manager) SessionIDCookieName() string { return m.cookieName + sidCookieSuffix }

// TokenCookieName names the signed login token cookie.
func (m *Manager) TokenCookieName() string { return m.cookieName }

// IssueToken signs a login token wrapping the CMS access token.
func (m *Manager) IssueToken(sessionID, accessToken string) (string, error) {
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return "", errors.New("session: access token is required")
	}
	now := m.clock().UTC()
	claims := tokenClaims{
		AccessToken: accessToken,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strings.TrimSpace(sessionID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("session: sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies a login token and extracts the CMS access token.
func (m *Manager) ParseToken(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrNoToken
	}
	// Claims validation is done by hand against the manager's clock; the
	// parser's validator only knows wall time.
	var claims tokenClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("session: unexpected signing method %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil || !token.Valid {
		return "", ErrTokenInvalid
	}
	if claims.ExpiresAt == nil || !m.clock().UTC().Before(claims.ExpiresAt.Time) {
		return "", ErrTokenInvalid
	}
	accessToken := strings.TrimSpace(claims.AccessToken)
	if accessToken == "" {
		return "", ErrTokenInvalid
	}
	return accessToken, nil
}

// SetSessionIDCookie installs the anonymous session identifier.
func (m *Manager) SetSessionIDCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.SessionIDCookieName(),
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(m.ttl / time.Second),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SetTokenCookie installs the signed login token.
func (m *Manager) SetTokenCookie(w http.ResponseWriter, signed string) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.TokenCookieName(),
		Value:    signed,
		Path:     "/",
		MaxAge:   int(m.ttl / time.Second),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearTokenCookie removes the login token on logout.
func (m *Manager) ClearTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.TokenCookieName(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
