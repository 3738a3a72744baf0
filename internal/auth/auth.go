// Package auth implements the single shared workspace login: one configured
// email and password exchange for a static session token carried in a cookie.
package auth

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"crmcore/internal/config"
)

// ErrInvalidCredentials is returned by Login for a wrong email or password.
var ErrInvalidCredentials = errors.New("auth: invalid email or password")

// Gate checks credentials and session tokens against the configured identity.
type Gate struct {
	cfg config.AuthConfig
}

// NewGate returns a gate for cfg. A zero SessionTTL falls back to seven days.
func NewGate(cfg config.AuthConfig) *Gate {
	if cfg.CookieName == "" {
		cfg.CookieName = "crm_session"
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 7 * 24 * time.Hour
	}
	return &Gate{cfg: cfg}
}

// CookieName returns the session cookie name.
func (g *Gate) CookieName() string { return g.cfg.CookieName }

// ValidCredentials compares email ignoring case and surrounding space, and
// password exactly.
func (g *Gate) ValidCredentials(email, password string) bool {
	wantEmail := strings.ToLower(strings.TrimSpace(g.cfg.Email))
	gotEmail := strings.ToLower(strings.TrimSpace(email))
	emailOK := subtle.ConstantTimeCompare([]byte(gotEmail), []byte(wantEmail)) == 1
	passwordOK := subtle.ConstantTimeCompare([]byte(password), []byte(g.cfg.Password)) == 1
	return emailOK && passwordOK
}

// ValidToken reports whether token is the configured session token.
func (g *Gate) ValidToken(token string) bool {
	if token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(g.cfg.SessionToken)) == 1
}

// Login returns the session cookie for valid credentials.
func (g *Gate) Login(email, password string, secure bool) (*http.Cookie, error) {
	if !g.ValidCredentials(email, password) {
		return nil, ErrInvalidCredentials
	}
	return g.cookie(g.cfg.SessionToken, int(g.cfg.SessionTTL/time.Second), secure), nil
}

// Logout returns a cookie that clears the session.
func (g *Gate) Logout(secure bool) *http.Cookie {
	return g.cookie("", -1, secure)
}

func (g *Gate) cookie(value string, maxAge int, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     g.cfg.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// IsSecure reports whether the request arrived over https, directly or via a
// proxy that sets X-Forwarded-Proto.
func IsSecure(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

// Middleware rejects requests unless the session cookie or the bearer token
// carries a valid session.
func (g *Gate) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if g.authenticated(c) {
				return next(c)
			}
			return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
		}
	}
}

func (g *Gate) authenticated(c echo.Context) bool {
	if cookie, err := c.Cookie(g.cfg.CookieName); err == nil && g.ValidToken(cookie.Value) {
		return true
	}
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	token, ok := strings.CutPrefix(header, "Bearer ")
	return ok && g.ValidToken(token)
}
