package web

// errors.go renders every handler error the same way: the technical error
// is logged with the request ID, and the client gets the mapped user message
// as JSON, or as an HTML fragment for HTMX requests.

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/visadir/internal/core"
	"github.com/JonMunkholm/visadir/internal/logging"
	"github.com/JonMunkholm/visadir/internal/session"
	"github.com/JonMunkholm/visadir/internal/web/views"
)

var (
	errRateLimited = errors.New("rate limit exceeded")
	errNoFile      = errors.New("no file provided")
)

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs err and writes the mapped user message. status 0 picks
// a status from the error.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	if status == 0 {
		status = statusFor(err)
	}
	userMsg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	logFn := logger.Warn
	if status >= http.StatusInternalServerError {
		logFn = logger.Error
	}
	logFn("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	if isHTMX(r) {
		writeHTML(w, r, status, views.ErrorAlert(userMsg.Message, userMsg.Action, userMsg.Code))
		return
	}
	respondErrorJSON(w, userMsg, status)
}

func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// statusFor maps known errors to HTTP statuses.
func statusFor(err error) int {
	var parseErr *core.ParseError
	var maxBytes *http.MaxBytesError

	switch {
	case errors.Is(err, core.ErrBatchNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrTooManyBatches):
		return http.StatusServiceUnavailable
	case errors.Is(err, session.ErrInvalidCredentials), errors.Is(err, session.ErrNoSession):
		return http.StatusUnauthorized
	case errors.Is(err, session.ErrNotAdmin):
		return http.StatusForbidden
	case errors.As(err, &maxBytes), errors.Is(err, core.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &parseErr), errors.Is(err, errNoFile):
		return http.StatusBadRequest
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsHTML reports whether an HTMX client asked for a fragment rather than JSON.
func wantsHTML(r *http.Request) bool {
	return isHTMX(r) && !strings.Contains(r.Header.Get("Accept"), "application/json")
}
