package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/visadir/internal/core"
	"github.com/JonMunkholm/visadir/internal/logging"
	"github.com/JonMunkholm/visadir/internal/web/views"
	"github.com/go-chi/chi/v5"
)

// previewResponse is what the upload screen shows before submitting.
type previewResponse struct {
	FileName    string            `json:"file_name"`
	Header      []string          `json:"header"`
	Ignored     []string          `json:"ignored"`
	TotalRows   int               `json:"total_rows"`
	ValidRows   int               `json:"valid_rows"`
	InvalidRows int               `json:"invalid_rows"`
	Errors      core.ErrorSummary `json:"errors"`
	Rows        []core.ListingRow `json:"rows"`
}

// handlePreview parses and validates an upload without submitting it.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	name, data, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	result, err := s.service.Preview(r.Context(), name, bytes.NewReader(data))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	if wantsHTML(r) {
		writeHTML(w, r, http.StatusOK, views.UploadSummary(name, result))
		return
	}

	writeJSON(w, http.StatusOK, previewResponse{
		FileName:    name,
		Header:      result.Header,
		Ignored:     result.Ignored,
		TotalRows:   result.Total,
		ValidRows:   len(result.Rows),
		InvalidRows: len(result.Invalid),
		Errors:      core.Summarize(result.Errors(), core.DefaultErrorDisplayLimit),
		Rows:        result.Rows,
	})
}

// handleStartBatch queues an upload for submission and returns its ID.
func (s *Server) handleStartBatch(w http.ResponseWriter, r *http.Request) {
	name, data, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	batchID, err := s.service.StartBatch(r.Context(), name, data)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	logging.WithFields(r.Context(), "batch_id", batchID, "file", name).Info("batch queued",
		"actor", core.GetActorFromContext(r.Context()))

	w.Header().Set("Location", "/api/batches/"+batchID)
	writeJSON(w, http.StatusAccepted, map[string]string{"batch_id": batchID})
}

// handleListBatches returns finished batches, newest first, plus the ones
// still running.
func (s *Server) handleListBatches(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", 50)

	history, err := s.service.ListBatches(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"active":  s.service.ActiveBatches(),
		"history": history,
		"limiter": s.service.LimiterStatus(),
	})
}

// handleBatchStatus returns the current progress snapshot.
func (s *Server) handleBatchStatus(w http.ResponseWriter, r *http.Request) {
	p, err := s.service.GetBatchProgress(chi.URLParam(r, "batchID"))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	if wantsHTML(r) {
		writeHTML(w, r, http.StatusOK, views.BatchStatus(p))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleBatchResult waits for the batch to finish and returns its report.
func (s *Server) handleBatchResult(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.GetBatchResult(r.Context(), chi.URLParam(r, "batchID"))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleCancelBatch stops a running batch.
func (s *Server) handleCancelBatch(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batchID")
	if err := s.service.CancelBatch(batchID); err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	logging.WithFields(r.Context(), "batch_id", batchID).Info("batch cancel requested",
		"actor", core.GetActorFromContext(r.Context()))
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "cancelling"})
}

// handleBatchProgress streams progress as Server-Sent Events. The event ID
// is the batch's update sequence, which keeps increasing across phases, so
// a reconnecting client passing lastEventId (or the Last-Event-ID header)
// skips only updates it already has.
func (s *Server) handleBatchProgress(w http.ResponseWriter, r *http.Request) {
	lastEventID := r.URL.Query().Get("lastEventId")
	if lastEventID == "" {
		lastEventID = r.Header.Get("Last-Event-ID")
	}
	skipThrough := int64(-1)
	if n, err := strconv.ParseInt(lastEventID, 10, 64); err == nil {
		skipThrough = n
	}

	progressCh, err := s.service.SubscribeProgress(chi.URLParam(r, "batchID"))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respondError(w, r, fmt.Errorf("streaming not supported"), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	var last core.BatchProgress
	for {
		select {
		case p, ok := <-progressCh:
			if !ok {
				data, _ := json.Marshal(last)
				fmt.Fprintf(w, "event: complete\ndata: %s\n\n", data)
				flusher.Flush()
				return
			}
			last = p
			if p.Seq <= skipThrough && !p.Phase.Terminal() {
				continue
			}

			data, _ := json.Marshal(p)
			fmt.Fprintf(w, "id: %d\nevent: progress\ndata: %s\n\n", p.Seq, data)
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
