package core

// batch_limiter.go caps how many batches are parsed and submitted at once.
//
// When every slot is taken a new batch waits up to maxWait, then fails with
// ErrTooManyBatches. WaitForDrain supports graceful shutdown.

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrTooManyBatches is returned when no slot frees up within the wait timeout.
var ErrTooManyBatches = errors.New("too many concurrent batches, please try again later")

// DefaultMaxConcurrentBatches is the default number of parallel batches.
const DefaultMaxConcurrentBatches = 3

// DefaultMaxWaitTime is how long Acquire waits for a slot.
const DefaultMaxWaitTime = 30 * time.Second

// BatchLimiter is a weighted semaphore with a bounded wait.
type BatchLimiter struct {
	sem     *semaphore.Weighted
	max     int
	maxWait time.Duration
	active  atomic.Int64
}

// NewBatchLimiter allows at most maxConcurrent batches.
func NewBatchLimiter(maxConcurrent int, maxWait time.Duration) *BatchLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentBatches
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}
	return &BatchLimiter{
		sem:     semaphore.NewWeighted(int64(maxConcurrent)),
		max:     maxConcurrent,
		maxWait: maxWait,
	}
}

// Acquire takes a slot. The caller must Release it.
func (l *BatchLimiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	if err := l.sem.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrTooManyBatches
	}
	l.active.Add(1)
	return nil
}

// Release returns a slot taken by Acquire.
func (l *BatchLimiter) Release() {
	l.active.Add(-1)
	l.sem.Release(1)
}

// ActiveCount is the number of slots in use.
func (l *BatchLimiter) ActiveCount() int {
	return int(l.active.Load())
}

// WaitForDrain blocks until no batch holds a slot or ctx is done.
func (l *BatchLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// LimiterStatus is a snapshot for monitoring.
type LimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status reports current usage.
func (l *BatchLimiter) Status() LimiterStatus {
	active := l.ActiveCount()
	return LimiterStatus{
		Active:        active,
		Available:     l.max - active,
		MaxConcurrent: l.max,
	}
}
