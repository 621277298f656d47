package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JonMunkholm/visadir/internal/core"
	"github.com/JonMunkholm/visadir/internal/session"
)

type fakeSessions struct {
	sessions map[string]*session.Session
}

func (f *fakeSessions) RequireAdmin(_ context.Context, token string) (*session.Session, error) {
	s, ok := f.sessions[token]
	if !ok {
		return nil, session.ErrNoSession
	}
	if !s.IsAdmin() {
		return nil, session.ErrNotAdmin
	}
	return s, nil
}

func actorEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(core.GetActorFromContext(r.Context())))
	})
}

func TestRequireAdmin(t *testing.T) {
	opts := AuthOptions{
		Required: true,
		APIKeys:  []string{"key-1", "key-2"},
		Sessions: &fakeSessions{sessions: map[string]*session.Session{
			"admin-token":  {Email: "ops@visadir.ae", Role: session.RoleAdmin},
			"member-token": {Email: "m@visadir.ae", Role: session.RoleMember},
		}},
		CookieName: "visadir_session",
	}
	h := RequireAdmin(opts)(actorEcho())

	tests := []struct {
		name       string
		setup      func(r *http.Request)
		wantStatus int
		wantBody   string
		wantCode   string
	}{
		{"api key", func(r *http.Request) { r.Header.Set("X-API-Key", "key-2") }, http.StatusOK, "api-key", ""},
		{"bad api key", func(r *http.Request) { r.Header.Set("X-API-Key", "nope") }, http.StatusForbidden, "", "AUTH003"},
		{"admin cookie", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "visadir_session", Value: "admin-token"})
		}, http.StatusOK, "ops@visadir.ae", ""},
		{"admin bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer admin-token") }, http.StatusOK, "ops@visadir.ae", ""},
		{"member", func(r *http.Request) { r.Header.Set("Authorization", "Bearer member-token") }, http.StatusForbidden, "", "AUTH003"},
		{"unknown token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer gone") }, http.StatusUnauthorized, "", "AUTH002"},
		{"nothing", func(r *http.Request) {}, http.StatusUnauthorized, "", "AUTH002"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/batches", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body)
			}
			if tt.wantCode != "" {
				var body map[string]string
				if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if body["code"] != tt.wantCode {
					t.Errorf("code = %q, want %q", body["code"], tt.wantCode)
				}
			} else if rec.Body.String() != tt.wantBody {
				t.Errorf("actor = %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestRequireAdmin_NotRequired(t *testing.T) {
	h := RequireAdmin(AuthOptions{})(actorEcho())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestTrustedRealIP(t *testing.T) {
	var got string
	h := TrustedRealIP([]string{"10.0.0.0/8", "192.168.1.5", "bogus"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = core.GetIPAddressFromContext(r.Context())
	}))

	tests := []struct {
		name, remote, realIP, xff, want string
	}{
		{"untrusted ignores headers", "203.0.113.9:5000", "1.2.3.4", "", "203.0.113.9"},
		{"trusted real ip", "10.1.2.3:5000", "1.2.3.4", "", "1.2.3.4"},
		{"trusted xff first", "10.1.2.3:5000", "", "5.6.7.8, 10.1.2.3", "5.6.7.8"},
		{"bare trusted ip", "192.168.1.5:80", "9.9.9.9", "", "9.9.9.9"},
		{"trusted invalid header", "10.1.2.3:5000", "not-an-ip", "", "10.1.2.3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			if got != tt.want {
				t.Errorf("ip = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLogger_CapturesStatus(t *testing.T) {
	var inner *responseWriter
	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner = w.(*responseWriter)
		w.WriteHeader(http.StatusTeapot)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("short"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusTeapot || inner.status != http.StatusTeapot {
		t.Errorf("status = %d/%d, want 418", rec.Code, inner.status)
	}
	if inner.bytes != len("short") {
		t.Errorf("bytes = %d", inner.bytes)
	}
}
