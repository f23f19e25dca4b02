package http

import (
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"unicode/utf8"

	"spendtrack/internal/auth"
	"spendtrack/internal/storage"
)

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email,omitempty"`
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type googleLoginRequest struct {
	IDToken string `json:"id_token"`
}

type sessionResponse struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	username := sanitizeInput(req.Username)
	if n := utf8.RuneCountInString(username); n < 3 || n > 32 {
		writeError(w, http.StatusUnprocessableEntity, "username must be 3-32 characters")
		return
	}
	email := sanitizeInput(req.Email)
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid email address")
			return
		}
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	userID, err := s.users.CreateUser(r.Context(), username, hash, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			writeError(w, http.StatusConflict, "username or email already taken")
			return
		}
		slog.ErrorContext(r.Context(), "User registration failed", "error", err, "username", username)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	sess := s.sessions.Create(userID, username)
	setSessionCookie(w, sess.Token, s.sessions.TTL())
	writeJSON(w, http.StatusCreated, sessionResponse{UserID: userID, Username: username})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.users.GetUserByLogin(r.Context(), sanitizeInput(req.Login))
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			// Same response as a wrong password, no account enumeration.
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		slog.ErrorContext(r.Context(), "Login lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	sess := s.sessions.Create(user.ID, user.Username)
	setSessionCookie(w, sess.Token, s.sessions.TTL())

	slog.InfoContext(r.Context(), "User logged in", "user_id", user.ID, "username", user.Username)
	writeJSON(w, http.StatusOK, sessionResponse{UserID: user.ID, Username: user.Username})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		s.sessions.Delete(cookie.Value)
	}
	clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.google == nil {
		writeError(w, http.StatusNotImplemented, "google sign-in is not configured")
		return
	}

	var req googleLoginRequest
	if err := decodeJSON(w, r, &req); err != nil || req.IDToken == "" {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	email, err := s.google.VerifyEmail(r.Context(), req.IDToken)
	if err != nil {
		slog.WarnContext(r.Context(), "Google token rejected", "error", err)
		writeError(w, http.StatusUnauthorized, "invalid google token")
		return
	}

	user, err := s.users.GetOrCreateGoogleUser(r.Context(), email)
	if err != nil {
		slog.ErrorContext(r.Context(), "Google sign-in failed", "error", err)
		writeError(w, http.StatusInternalServerError, "sign-in failed")
		return
	}

	sess := s.sessions.Create(user.ID, user.Username)
	setSessionCookie(w, sess.Token, s.sessions.TTL())

	slog.InfoContext(r.Context(), "User logged in via Google", "user_id", user.ID)
	writeJSON(w, http.StatusOK, sessionResponse{UserID: user.ID, Username: user.Username})
}
