package core

import (
	"context"
	"sync"
	"time"
)

// HistoryStore persists finished batch summaries.
type HistoryStore interface {
	RecordBatch(ctx context.Context, s BatchSummary) error
	// ListBatches returns the newest summaries first.
	ListBatches(ctx context.Context, limit int) ([]BatchSummary, error)
	// PruneBefore deletes summaries finished before cutoff.
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Archiver stores the original upload file and returns where it was put.
type Archiver interface {
	Archive(ctx context.Context, batchID, fileName string, data []byte) (string, error)
}

// DefaultHistoryLimit bounds MemoryHistory when no size is given.
const DefaultHistoryLimit = 500

// MemoryHistory is an in-process HistoryStore for development and tests.
type MemoryHistory struct {
	mu      sync.RWMutex
	max     int
	entries []BatchSummary // oldest first
}

// NewMemoryHistory keeps at most max summaries, dropping the oldest.
func NewMemoryHistory(max int) *MemoryHistory {
	if max <= 0 {
		max = DefaultHistoryLimit
	}
	return &MemoryHistory{max: max}
}

func (h *MemoryHistory) RecordBatch(_ context.Context, s BatchSummary) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append(h.entries, s)
	if over := len(h.entries) - h.max; over > 0 {
		h.entries = append([]BatchSummary(nil), h.entries[over:]...)
	}
	return nil
}

func (h *MemoryHistory) ListBatches(_ context.Context, limit int) ([]BatchSummary, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if limit <= 0 || limit > len(h.entries) {
		limit = len(h.entries)
	}
	out := make([]BatchSummary, 0, limit)
	for i := len(h.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, h.entries[i])
	}
	return out, nil
}

func (h *MemoryHistory) PruneBefore(_ context.Context, cutoff time.Time) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	kept := h.entries[:0]
	for _, e := range h.entries {
		if !e.FinishedAt.Before(cutoff) {
			kept = append(kept, e)
		}
	}
	pruned := int64(len(h.entries) - len(kept))
	h.entries = kept
	return pruned, nil
}
