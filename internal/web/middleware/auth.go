package middleware

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JonMunkholm/visadir/internal/core"
	"github.com/JonMunkholm/visadir/internal/session"
)

// AdminChecker resolves a session token to an admin session.
type AdminChecker interface {
	RequireAdmin(ctx context.Context, token string) (*session.Session, error)
}

// AuthOptions configures RequireAdmin.
type AuthOptions struct {
	Required   bool
	APIKeys    []string
	Sessions   AdminChecker
	CookieName string
}

// RequireAdmin admits requests carrying a valid X-API-Key or an admin
// session (cookie or Bearer token). The caller is stored on the request
// context as the batch actor. When Required is false every request passes.
func RequireAdmin(opts AuthOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !opts.Required {
				next.ServeHTTP(w, r)
				return
			}

			if key := r.Header.Get("X-API-Key"); key != "" {
				if !isValidAPIKey(key, opts.APIKeys) {
					slog.Warn("auth: invalid API key",
						"path", r.URL.Path,
						"method", r.Method,
						"remote_addr", r.RemoteAddr,
					)
					deny(w, http.StatusForbidden, errors.New("admin role required: invalid API key"))
					return
				}
				ctx := core.ContextWithActor(r.Context(), "api-key")
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			token := SessionToken(r, opts.CookieName)
			if opts.Sessions == nil || token == "" {
				deny(w, http.StatusUnauthorized, session.ErrNoSession)
				return
			}

			s, err := opts.Sessions.RequireAdmin(r.Context(), token)
			if err != nil {
				status := http.StatusUnauthorized
				if errors.Is(err, session.ErrNotAdmin) {
					status = http.StatusForbidden
				}
				slog.Warn("auth: session rejected",
					"path", r.URL.Path,
					"error", err,
				)
				deny(w, status, err)
				return
			}

			ctx := core.ContextWithActor(r.Context(), s.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionToken reads the session token from the named cookie, falling back
// to an Authorization Bearer header.
func SessionToken(r *http.Request, cookieName string) string {
	if cookieName != "" {
		if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
			return c.Value
		}
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}

func deny(w http.ResponseWriter, status int, err error) {
	msg := core.MapError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error":   msg.Message,
		"message": msg.Message,
		"action":  msg.Action,
		"code":    msg.Code,
	})
}

// isValidAPIKey compares against every configured key in constant time.
func isValidAPIKey(key string, validKeys []string) bool {
	valid := 0
	for _, validKey := range validKeys {
		valid |= subtle.ConstantTimeCompare([]byte(key), []byte(validKey))
	}
	return valid == 1
}
