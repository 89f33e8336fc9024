package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/store"
)

const sessionCookieName = "session"

type contextKey string

const userIDKey contextKey = "user_id"

// userIDFrom returns the authenticated user's ID from the request context.
// Handlers behind requireAuth can rely on it being present.
func userIDFrom(ctx context.Context) int64 {
	id, _ := ctx.Value(userIDKey).(int64)
	return id
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusUnprocessableEntity, "username and password are required")
		return
	}

	user, err := s.store.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Same response as a bad password, no username probing.
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeStoreError(w, err)
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := auth.GenerateToken()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "session creation failed")
		return
	}

	now := time.Now()
	session := core.Session{
		Token:     token,
		UserID:    user.ID,
		ExpiresAt: now.Add(s.opts.SessionDuration),
		CreatedAt: now,
	}
	if err := s.store.CreateSession(r.Context(), session); err != nil {
		writeStoreError(w, err)
		return
	}

	s.setSessionCookie(w, token, session.ExpiresAt)
	s.logger.InfoContext(r.Context(), "user logged in",
		log.FieldUserID, user.ID,
		log.FieldUsername, user.Username)

	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":  user.ID,
		"username": user.Username,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		if err := s.store.DeleteSession(r.Context(), cookie.Value); err != nil && !errors.Is(err, store.ErrNotFound) {
			writeStoreError(w, err)
			return
		}
	}
	s.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// requireAuth authenticates the session cookie and puts the user ID in the
// request context. Sessions past the halfway point of their lifetime are
// renewed on use, so an active user never gets logged out.
func (s *Server) requireAuth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		session, err := s.store.GetSession(r.Context(), cookie.Value)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				s.clearSessionCookie(w)
				writeError(w, http.StatusUnauthorized, "invalid session")
				return
			}
			writeStoreError(w, err)
			return
		}

		now := time.Now()
		if now.After(session.ExpiresAt) {
			_ = s.store.DeleteSession(r.Context(), session.Token)
			s.clearSessionCookie(w)
			writeError(w, http.StatusUnauthorized, "session expired")
			return
		}

		if session.ExpiresAt.Sub(now) < s.opts.SessionDuration/2 {
			newExpiry := now.Add(s.opts.SessionDuration)
			if err := s.store.RenewSession(r.Context(), session.Token, newExpiry); err == nil {
				s.setSessionCookie(w, session.Token, newExpiry)
			}
		}

		ctx := context.WithValue(r.Context(), userIDKey, session.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}
