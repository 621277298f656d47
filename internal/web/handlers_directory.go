package web

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/JonMunkholm/visadir/internal/directory"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.Categories())
}

func (s *Server) handleCities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.Cities())
}

func (s *Server) handleLandingPages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.LandingPages())
}

// resolveResponse carries either a registry entry or a landing page.
type resolveResponse struct {
	Slug    string                 `json:"slug"`
	Entry   *directory.Entry       `json:"entry,omitempty"`
	Landing *directory.LandingPage `json:"landing,omitempty"`
}

// handleResolveSlug resolves a category, city or landing-page slug.
func (s *Server) handleResolveSlug(w http.ResponseWriter, r *http.Request) {
	slug := strings.ToLower(chi.URLParam(r, "slug"))

	if e, ok := s.registry.Resolve(slug); ok {
		writeJSON(w, http.StatusOK, resolveResponse{Slug: slug, Entry: &e})
		return
	}
	if lp, ok := s.registry.ParseLanding(slug); ok {
		writeJSON(w, http.StatusOK, resolveResponse{Slug: slug, Landing: &lp})
		return
	}

	writeJSON(w, http.StatusNotFound, ErrorResponse{
		Error:   "Page not found",
		Message: "Page not found",
		Action:  "Check the link or browse the directory",
		Code:    "DIR001",
	})
}

// handleListings fetches listings from the business API and applies the
// browse filters from the query string.
func (s *Server) handleListings(w http.ResponseWriter, r *http.Request) {
	if s.listings == nil {
		s.respondError(w, r, fmt.Errorf("listing source not configured"), http.StatusServiceUnavailable)
		return
	}

	all, err := s.listings.ListBusinesses(r.Context())
	if err != nil {
		s.respondError(w, r, err, http.StatusBadGateway)
		return
	}

	filters := directory.FiltersFromQuery(r.URL.Query(), s.registry)
	matched := directory.ApplyFilters(all, filters)

	writeJSON(w, http.StatusOK, map[string]any{
		"filters":  filters,
		"total":    len(matched),
		"listings": matched,
	})
}
