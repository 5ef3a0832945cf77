package api

import (
	"net/http"
	"time"
)

// cookieSession keeps the session token in an HTTP-only cookie.
type cookieSession struct {
	w      http.ResponseWriter
	r      *http.Request
	secure bool
	ttl    time.Duration
}

func (app *Application) session(w http.ResponseWriter, r *http.Request) *cookieSession {
	return &cookieSession{w: w, r: r, secure: app.config.SecureCookies, ttl: app.config.SessionTTL}
}

func (s *cookieSession) Token() (string, bool) {
	c, err := s.r.Cookie(sessionCookie)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

func (s *cookieSession) SetToken(token string) {
	http.SetCookie(s.w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(s.ttl),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (s *cookieSession) ClearToken() {
	http.SetCookie(s.w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteStrictMode,
	})
}
