package web

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/visadir/internal/core"
)

// multipartOverhead is allowed on top of the file size limit for form
// boundaries and other fields.
const multipartOverhead = 1 << 20

// readUpload reads the multipart "file" field, enforcing the service's size
// limit. It returns the file name and contents.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	maxSize := s.service.MaxFileSize()
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		return "", nil, fmt.Errorf("read form: %w", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, errNoFile
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		return "", nil, fmt.Errorf("read file: %w", err)
	}
	if int64(len(data)) > maxSize {
		return "", nil, &core.ParseError{Err: core.ErrFileTooLarge}
	}
	return header.Filename, data, nil
}

// parseIntParam parses a positive integer query parameter.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// handleHealth reports liveness and batch slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"batches": s.service.LimiterStatus(),
	})
}
