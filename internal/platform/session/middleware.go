package session

import (
	"net/http"
	"strings"

	"github.com/pratshop/storefront/internal/platform/requestctx"
)

// Middleware guarantees every request carries a cart-scoping session ID and
// extracts the CMS access token from the login cookie when present. An
// invalid or expired token degrades to anonymous, never to an error; the
// checkout gate is where authentication is enforced.
func (m *Manager) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := ""
			if cookie, err := r.Cookie(m.SessionIDCookieName()); err == nil {
				sessionID = strings.TrimSpace(cookie.Value)
			}
			if sessionID == "" {
				sessionID = m.NewSessionID()
				m.SetSessionIDCookie(w, sessionID)
			}

			accessToken := ""
			if cookie, err := r.Cookie(m.TokenCookieName()); err == nil {
				if parsed, err := m.ParseToken(cookie.Value); err == nil {
					accessToken = parsed
				}
			}

			ctx := requestctx.WithSession(r.Context(), requestctx.Session{
				ID:          sessionID,
				AccessToken: accessToken,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
