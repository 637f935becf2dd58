package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const sessionCookie = "dietario_session"

// sessionManager issues and verifies the signed session cookie. The
// token carries only the username; roles are re-checked against the
// user store on every request.
type sessionManager struct {
	secret []byte
	ttl    time.Duration
}

func newSessionManager(secret string, ttl time.Duration) *sessionManager {
	return &sessionManager{secret: []byte(secret), ttl: ttl}
}

func (m *sessionManager) issue(username string) (string, time.Time, error) {
	expires := time.Now().Add(m.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return token, expires, nil
}

func (m *sessionManager) verify(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("parse session token: %w", err)
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", fmt.Errorf("session token has no subject")
	}
	return claims.Subject, nil
}

func (m *sessionManager) setCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *sessionManager) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// requireAuth resolves the session cookie to a username and passes it
// to the handler.
func (s *Server) requireAuth(next func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookie)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "autenticazione richiesta")
			return
		}
		username, err := s.sessions.verify(cookie.Value)
		if err != nil {
			slog.WarnContext(r.Context(), "Invalid session token", "error", err)
			writeError(w, http.StatusUnauthorized, "sessione non valida")
			return
		}
		next(w, r, username)
	}
}

// requireAdmin additionally checks the admin flag against the user
// store, so a revoked admin loses access before the token expires.
func (s *Server) requireAdmin(next func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return s.requireAuth(func(w http.ResponseWriter, r *http.Request, username string) {
		user, err := s.users.Get(r.Context(), username)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "sessione non valida")
			return
		}
		if !user.Admin {
			writeError(w, http.StatusForbidden, "richiesti privilegi amministratore")
			return
		}
		next(w, r, username)
	})
}
