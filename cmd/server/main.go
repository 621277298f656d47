package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/JonMunkholm/visadir/internal/archive"
	"github.com/JonMunkholm/visadir/internal/bizapi"
	"github.com/JonMunkholm/visadir/internal/config"
	"github.com/JonMunkholm/visadir/internal/core"
	"github.com/JonMunkholm/visadir/internal/directory"
	"github.com/JonMunkholm/visadir/internal/logging"
	"github.com/JonMunkholm/visadir/internal/session"
	"github.com/JonMunkholm/visadir/internal/store"
	"github.com/JonMunkholm/visadir/internal/web"
	"github.com/joho/godotenv"
)

const sessionSweepInterval = 10 * time.Minute

func main() {
	// Overload lets a local .env win over inherited variables.
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	ctx := context.Background()
	jobCtx, cancelJobs := context.WithCancel(context.Background())

	history, closeHistory := openHistory(ctx, cfg)
	defer closeHistory()

	archiver, err := openArchiver(ctx, cfg.Archive)
	if err != nil {
		slog.Error("failed to set up archive", "error", err)
		os.Exit(1)
	}

	sessions, closeSessions, err := openSessions(jobCtx, cfg.Session)
	if err != nil {
		slog.Error("failed to set up sessions", "error", err)
		os.Exit(1)
	}
	defer closeSessions()

	api := bizapi.NewClient(cfg.Submit.APIURL, cfg.Submit.APIToken, cfg.Submit.Timeout)
	submitter := core.NewSubmitter(api, core.SubmitConfig{
		Concurrency:   cfg.Submit.Concurrency,
		RatePerSecond: cfg.Submit.RatePerSecond,
		Burst:         cfg.Submit.Burst,
	})

	service := core.NewService(submitter, core.ServiceOptions{
		MaxFileSize:   cfg.Upload.MaxFileSize,
		BatchTimeout:  cfg.Upload.Timeout,
		ResultTTL:     cfg.Upload.ResultTTL,
		MaxConcurrent: cfg.Upload.MaxConcurrent,
		MaxWait:       cfg.Upload.MaxWaitTime,
		History:       history,
		Archive:       archiver,
	})

	if cfg.Security.RequireAuth && len(cfg.Security.APIKeys) == 0 && len(cfg.Session.Users) == 0 {
		slog.Warn("auth required but no API keys or users configured; batch endpoints are unreachable")
	}

	server := web.NewServer(cfg, web.Deps{
		Service:  service,
		Sessions: sessions,
		Registry: directory.Default(),
		Listings: api,
	})

	go service.StartRetentionScheduler(jobCtx, core.RetentionConfig{
		MaxAge:        cfg.Archive.HistoryRetention,
		CheckInterval: cfg.Archive.CheckInterval,
	})

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := service.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for batches to complete", "active", status.Active)
			if err := service.WaitForBatches(shutdownCtx); err != nil {
				slog.Warn("batches did not complete in time", "error", err)
			} else {
				slog.Info("all batches completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// openHistory uses Postgres when DATABASE_URL is set and memory otherwise.
func openHistory(ctx context.Context, cfg *config.Config) (core.HistoryStore, func()) {
	if !cfg.Database.Enabled() {
		slog.Info("no database configured, keeping batch history in memory")
		return core.NewMemoryHistory(core.DefaultHistoryLimit), func() {}
	}

	pool, err := store.Open(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}

	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	}

	st := store.New(pool)
	if err := st.Migrate(ctx); err != nil {
		pool.Close()
		slog.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}
	return st, pool.Close
}

func openArchiver(ctx context.Context, cfg config.ArchiveConfig) (core.Archiver, error) {
	switch strings.ToLower(cfg.Backend) {
	case "fs":
		slog.Info("archiving uploads to disk", "dir", cfg.Dir)
		return archive.NewFSArchiver(cfg.Dir, cfg.Prefix), nil
	case "s3":
		client, err := archive.NewS3Client(ctx, cfg)
		if err != nil {
			return nil, err
		}
		slog.Info("archiving uploads to s3", "bucket", cfg.Bucket, "prefix", cfg.Prefix)
		return archive.NewS3Archiver(client, cfg.Bucket, cfg.Prefix), nil
	default:
		return nil, nil
	}
}

func openSessions(ctx context.Context, cfg config.SessionConfig) (*session.Manager, func(), error) {
	users, err := session.ParseUsers(cfg.Users)
	if err != nil {
		return nil, nil, err
	}

	if strings.ToLower(cfg.Backend) == "redis" {
		client, err := session.DialRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("sessions stored in redis")
		closeFn := func() { client.Close() }
		return session.NewManager(session.NewRedisBackend(client, ""), users, cfg.TTL), closeFn, nil
	}

	backend := session.NewMemoryBackend()
	go backend.StartSweeper(ctx, sessionSweepInterval)
	return session.NewManager(backend, users, cfg.TTL), func() {}, nil
}
