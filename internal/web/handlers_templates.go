package web

import (
	"fmt"
	"net/http"

	"github.com/JonMunkholm/visadir/internal/core"
)

// handleDownloadTemplate serves the upload template: header row plus one
// sample row.
func (s *Server) handleDownloadTemplate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", core.TemplateContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, core.TemplateFileName))
	if err := core.WriteTemplate(w, s.service.Schema()); err != nil {
		s.respondError(w, r, fmt.Errorf("write template: %w", err), http.StatusInternalServerError)
	}
}

type fieldResponse struct {
	Key         string   `json:"key"`
	Label       string   `json:"label"`
	Required    bool     `json:"required"`
	ValidValues []string `json:"valid_values,omitempty"`
	Sample      string   `json:"sample,omitempty"`
}

// handleSchema describes the upload columns so clients can build forms and
// column hints.
func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	schema := s.service.Schema()
	out := make([]fieldResponse, len(schema))
	for i, f := range schema {
		out[i] = fieldResponse{
			Key:         f.Key,
			Label:       f.Label,
			Required:    f.Required,
			ValidValues: f.ValidValues,
			Sample:      f.Sample,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"fields":        out,
		"max_file_size": s.service.MaxFileSize(),
	})
}
