package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/JonMunkholm/visadir/internal/logging"
	"github.com/JonMunkholm/visadir/internal/session"
	mw "github.com/JonMunkholm/visadir/internal/web/middleware"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleLogin accepts JSON or form credentials and sets the session cookie.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.sessions == nil {
		s.respondError(w, r, fmt.Errorf("sessions not configured"), http.StatusServiceUnavailable)
		return
	}

	var req loginRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
			s.respondError(w, r, fmt.Errorf("decode login: %w", err), http.StatusBadRequest)
			return
		}
	} else {
		req.Email = r.FormValue("email")
		req.Password = r.FormValue("password")
	}

	sess, err := s.sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.Session.CookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		MaxAge:   int(s.sessions.TTL().Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.Session.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	logging.FromContext(r.Context()).Info("signed in", "email", sess.Email, "role", sess.Role)
	writeJSON(w, http.StatusOK, sess)
}

// handleCurrentSession returns the signed-in user.
func (s *Server) handleCurrentSession(w http.ResponseWriter, r *http.Request) {
	if s.sessions == nil {
		s.respondError(w, r, session.ErrNoSession, 0)
		return
	}

	sess, err := s.sessions.Current(r.Context(), mw.SessionToken(r, s.cfg.Session.CookieName))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// handleLogout clears the session and its cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if s.sessions != nil {
		if err := s.sessions.Logout(r.Context(), mw.SessionToken(r, s.cfg.Session.CookieName)); err != nil {
			s.respondError(w, r, err, http.StatusInternalServerError)
			return
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.Session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.Session.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}
