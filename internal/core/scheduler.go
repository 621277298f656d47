package core

// scheduler.go runs history retention in the background.
//
// It runs once at start, then every CheckInterval until ctx is cancelled.
// A failed prune is logged and retried on the next tick.

import (
	"context"
	"log/slog"
	"time"
)

// RetentionConfig controls history pruning. Zero values use defaults.
type RetentionConfig struct {
	MaxAge        time.Duration // default 90 days
	CheckInterval time.Duration // default 24h
}

func (c RetentionConfig) withDefaults() RetentionConfig {
	if c.MaxAge <= 0 {
		c.MaxAge = 90 * 24 * time.Hour
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = 24 * time.Hour
	}
	return c
}

// StartRetentionScheduler blocks, pruning batch history older than MaxAge.
func (s *Service) StartRetentionScheduler(ctx context.Context, cfg RetentionConfig) {
	cfg = cfg.withDefaults()
	slog.Info("retention scheduler started",
		"max_age", cfg.MaxAge.String(),
		"interval", cfg.CheckInterval.String(),
	)

	s.runRetentionJob(ctx, cfg)

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("retention scheduler stopped")
			return
		case <-ticker.C:
			s.runRetentionJob(ctx, cfg)
		}
	}
}

func (s *Service) runRetentionJob(ctx context.Context, cfg RetentionConfig) {
	start := time.Now()
	pruned, err := s.history.PruneBefore(ctx, start.Add(-cfg.MaxAge))
	if err != nil {
		slog.Error("history prune failed", "error", err)
		return
	}
	slog.Info("pruned batch history",
		"entries_pruned", pruned,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
