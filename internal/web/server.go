// Package web provides the HTTP API and HTMX fragments for listing uploads,
// batch tracking, directory browsing and admin sessions.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/JonMunkholm/visadir/internal/config"
	"github.com/JonMunkholm/visadir/internal/core"
	"github.com/JonMunkholm/visadir/internal/directory"
	"github.com/JonMunkholm/visadir/internal/logging"
	"github.com/JonMunkholm/visadir/internal/session"
	mw "github.com/JonMunkholm/visadir/internal/web/middleware"
	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// ListingSource supplies the listings browsed through /api/listings.
type ListingSource interface {
	ListBusinesses(ctx context.Context) ([]directory.Listing, error)
}

// Deps are the collaborators a Server routes to.
type Deps struct {
	Service  *core.Service
	Sessions *session.Manager
	Registry *directory.Registry
	Listings ListingSource
}

// Server is the HTTP server.
type Server struct {
	cfg      *config.Config
	service  *core.Service
	sessions *session.Manager
	registry *directory.Registry
	listings ListingSource
	router   *chi.Mux
	server   *http.Server
}

// NewServer wires routes and middleware.
func NewServer(cfg *config.Config, deps Deps) *Server {
	reg := deps.Registry
	if reg == nil {
		reg = directory.Default()
	}

	s := &Server{
		cfg:      cfg,
		service:  deps.Service,
		sessions: deps.Sessions,
		registry: reg,
		listings: deps.Listings,
		router:   chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		s.router.Use(newIPRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute).middleware)
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// SSE streams outlive the request timeout, so only plain handlers get one.
		timeout := middleware.Timeout(s.cfg.Server.RequestTimeout)

		r.With(timeout).Get("/template", s.handleDownloadTemplate)
		r.With(timeout).Get("/schema", s.handleSchema)

		r.With(timeout).Get("/directory/categories", s.handleCategories)
		r.With(timeout).Get("/directory/cities", s.handleCities)
		r.With(timeout).Get("/directory/landing-pages", s.handleLandingPages)
		r.With(timeout).Get("/directory/resolve/{slug}", s.handleResolveSlug)
		r.With(timeout).Get("/listings", s.handleListings)

		r.With(timeout).Post("/session", s.handleLogin)
		r.With(timeout).Get("/session", s.handleCurrentSession)
		r.With(timeout).Delete("/session", s.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireAdmin(mw.AuthOptions{
				Required:   s.cfg.Security.RequireAuth,
				APIKeys:    s.cfg.Security.APIKeys,
				Sessions:   s.adminChecker(),
				CookieName: s.cfg.Session.CookieName,
			}))

			upload := r.With(timeout)
			if s.cfg.Rate.Enabled {
				upload = upload.With(newIPRateLimiter(s.cfg.Rate.UploadLimit, time.Minute).middleware)
			}
			upload.Post("/preview", s.handlePreview)
			upload.Post("/batches", s.handleStartBatch)

			r.With(timeout).Get("/batches", s.handleListBatches)
			r.With(timeout).Get("/batches/{batchID}", s.handleBatchStatus)
			r.With(timeout).Get("/batches/{batchID}/result", s.handleBatchResult)
			r.With(timeout).Post("/batches/{batchID}/cancel", s.handleCancelBatch)
			r.Get("/batches/{batchID}/progress", s.handleBatchProgress)
		})
	})
}

// adminChecker avoids handing the middleware a typed nil.
func (s *Server) adminChecker() mw.AdminChecker {
	if s.sessions == nil {
		return nil
	}
	return s.sessions
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout, // 0 keeps SSE streams open
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if enableCSP {
				w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data: https:; font-src 'self'")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeJSON encodes v as JSON. Encoding errors are only logged since the
// header is already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}

// writeHTML renders an HTMX fragment. Headers are already sent when
// rendering fails, so the error is only logged.
func writeHTML(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("html render error", "path", r.URL.Path, "error", err)
	}
}
