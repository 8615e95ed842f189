package handlers

import (
	"net/http"
	"time"

	"github.com/pizza-app/auth-service/config"
	"github.com/pizza-app/auth-service/middleware"
)

// SessionCookies writes and clears the accessToken and refreshToken cookies
type SessionCookies struct {
	domain     string
	secure     bool
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewSessionCookies builds the cookie writer. Cookie lifetimes follow the token lifetimes.
func NewSessionCookies(cookies config.CookieConfig, tokens config.TokenConfig) *SessionCookies {
	return &SessionCookies{
		domain:     cookies.Domain,
		secure:     cookies.Secure,
		accessTTL:  tokens.AccessTokenTTL,
		refreshTTL: tokens.RefreshTokenTTL,
	}
}

// Set writes both session cookies
func (c *SessionCookies) Set(w http.ResponseWriter, accessToken, refreshToken string) {
	http.SetCookie(w, c.cookie(middleware.AccessTokenCookie, accessToken, int(c.accessTTL/time.Second)))
	http.SetCookie(w, c.cookie(middleware.RefreshTokenCookie, refreshToken, int(c.refreshTTL/time.Second)))
}

// Clear expires both session cookies
func (c *SessionCookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, c.cookie(middleware.AccessTokenCookie, "", -1))
	http.SetCookie(w, c.cookie(middleware.RefreshTokenCookie, "", -1))
}

func (c *SessionCookies) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   c.domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteStrictMode,
	}
}
