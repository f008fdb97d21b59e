// Copyright (c) 2026 CodeNote. All rights reserved.
// Author: dev@codenote.ai

// Command api is the entry point for the CodeNote HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Wire domain services, the job queue worker, and HTTP handlers.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codenoteai/codenote/internal/analysis"
	"github.com/codenoteai/codenote/internal/api"
	"github.com/codenoteai/codenote/internal/auth"
	"github.com/codenoteai/codenote/internal/platform/ai"
	"github.com/codenoteai/codenote/internal/platform/cache"
	"github.com/codenoteai/codenote/internal/platform/config"
	"github.com/codenoteai/codenote/internal/platform/constants"
	"github.com/codenoteai/codenote/internal/platform/github"
	"github.com/codenoteai/codenote/internal/platform/migration"
	pgstore "github.com/codenoteai/codenote/internal/platform/postgres"
	"github.com/codenoteai/codenote/internal/platform/queue"
	redisstore "github.com/codenoteai/codenote/internal/platform/redis"
	"github.com/codenoteai/codenote/internal/platform/sec"
	"github.com/codenoteai/codenote/internal/repository"
	"github.com/codenoteai/codenote/internal/webhook"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", "codenote"))
	slog.SetDefault(log)

	log.Info("[CodeNote] service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", "codenote"))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Token Service ──────────────────────────────────────────────────
	tokenService, err := sec.NewTokenService(
		cfg.JWTAccessSecret,
		cfg.JWTRefreshSecret,
		cfg.AccessTokenTTL,
		cfg.RefreshTokenTTL,
		constants.AuthIssuer,
	)
	must(log, err, "initialize token service")

	// ── 7. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckCache: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
	}, log)

	// ── 8. External Clients ───────────────────────────────────────────────
	// GitHub works anonymously (lower rate limits) when no token is set.
	githubClient := github.New(startupCtx, cfg.GitHubToken)

	// Without an AI key, file reviews fall back to placeholder scoring.
	var reviewer analysis.CodeReviewer
	if cfg.AIAPIKey != "" {
		aiReviewer, err := ai.New(cfg.AIAPIKey, cfg.AIModel)
		must(log, err, "initialize ai reviewer")
		reviewer = aiReviewer
	} else {
		log.Warn("ai_reviewer_disabled", slog.String("reason", "AI_API_KEY not set"))
	}

	// ── 9. Domain Wiring ──────────────────────────────────────────────────
	userRepository := auth.NewUserRepository(pool)
	authService := auth.NewService(userRepository, tokenService)
	authHandler := auth.NewHandler(authService, cfg.IsProduction())

	repositoryStore := repository.NewPostgresStore(pool)
	repositoryService := repository.NewService(repositoryStore, githubClient)
	repositoryHandler := repository.NewHandler(repositoryService)

	webhookStore := webhook.NewPostgresStore(pool)
	webhookService := webhook.NewService(webhookStore)
	webhookHandler := webhook.NewHandler(webhookService)
	dispatcher := webhook.NewDispatcher(webhookStore, log)

	jobQueue := queue.New(rdb, log)

	analysisStore := analysis.NewPostgresStore(pool)
	analysisService := analysis.NewService(
		analysisStore,
		repositoryStore,
		githubClient,
		reviewer,
		jobQueue,
		dispatcher,
		cache.New(rdb),
	)
	analysisService.RegisterJobs(jobQueue)
	analysisHandler := analysis.NewHandler(analysisService, &githubLoginDirectory{auth: authService})

	// ── 10. Background Worker ─────────────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		if err := jobQueue.Run(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("worker stopped", slog.Any("error", err))
		}
	}()

	// ── 11. HTTP Server ───────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:   liveness,
		Readiness:  readiness,
		Auth:       authHandler,
		Repository: repositoryHandler,
		Analysis:   analysisHandler,
		Webhook:    webhookHandler,
	}

	server := api.NewServer(workerCtx, cfg, log, tokenService, handlers)

	// ── 12. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	// Stop the worker after the server so no new jobs arrive mid-drain.
	workerCancel()
	<-workerDone

	log.Info("server stopped cleanly")
}

// githubLoginDirectory resolves a user's GitHub login from their profile for
// dashboard generation when the request omits one.
type githubLoginDirectory struct {
	auth *auth.Service
}

func (directory *githubLoginDirectory) GitHubLogin(ctx context.Context, userID string) (string, error) {
	user, err := directory.auth.CurrentUser(ctx, userID)
	if err != nil {
		return "", err
	}
	return user.GitHubLogin, nil
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
