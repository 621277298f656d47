package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryBackend keeps sessions in process memory. Expired entries are
// dropped lazily on read and by Sweep.
type MemoryBackend struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (b *MemoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	if !e.expiresAt.IsZero() && !b.now().Before(e.expiresAt) {
		delete(b.entries, key)
		return nil, ErrNotFound
	}

	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

// Set stores value under key. ttl <= 0 means no expiry.
func (b *MemoryBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = b.now().Add(ttl)
	}

	b.mu.Lock()
	b.entries[key] = e
	b.mu.Unlock()
	return nil
}

func (b *MemoryBackend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	delete(b.entries, key)
	b.mu.Unlock()
	return nil
}

// Sweep removes expired entries and returns how many were removed.
func (b *MemoryBackend) Sweep() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	removed := 0
	for k, e := range b.entries {
		if !e.expiresAt.IsZero() && !now.Before(e.expiresAt) {
			delete(b.entries, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, expired or not.
func (b *MemoryBackend) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// StartSweeper calls Sweep every interval until ctx is done.
func (b *MemoryBackend) StartSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := b.Sweep(); n > 0 {
				slog.Debug("expired sessions swept", "count", n)
			}
		}
	}
}
