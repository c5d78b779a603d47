package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pathways/internal/api/adapter/inmem"
	"pathways/internal/api/adapter/token"
	"pathways/internal/api/middleware"
	"pathways/internal/app"
	"pathways/internal/domain"
	"pathways/internal/platform/config"
	"pathways/internal/platform/server"
	"pathways/internal/platform/telemetry"
	"pathways/internal/store"
)

func main() {
	cfg := config.Load()

	// Logging
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry
	shutdown, err := telemetry.Setup(context.Background(), "pathways")
	if err != nil {
		slog.Error("telemetry setup failed", "error", err)
		os.Exit(1)
	}

	metrics, err := telemetry.NewAPIMetrics()
	if err != nil {
		slog.Error("metrics initialization failed", "error", err)
		os.Exit(1)
	}

	// Stores
	jobs, users, closeStore := buildStores(ctx, cfg)
	defer closeStore()

	// Token service
	tokens := token.New(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL, time.Now)

	// Rate limiter
	rl := inmem.NewRateLimiter(cfg.RateLimit.Rate, cfg.RateLimit.Burst, time.Now)
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.Cleanup()
			}
		}
	}()

	// Size governance: process-wide defaults plus per-path overrides,
	// first matching prefix wins.
	sizeCfg := middleware.SizeLimitConfig{
		Defaults: middleware.SizeLimits{
			JSON:       middleware.ParseSize(cfg.Body.JSON),
			URLEncoded: middleware.ParseSize(cfg.Body.URLEncoded),
			Text:       middleware.ParseSize(cfg.Body.Text),
			File:       middleware.ParseSize(cfg.Body.File),
			Raw:        middleware.ParseSize(cfg.Body.Raw),
		},
		Overrides: []middleware.PathLimits{
			{Prefix: "/api/auth/login", SizeLimits: middleware.SizeLimits{JSON: middleware.ParseSize("10kb")}},
			{Prefix: "/api/files/upload", SizeLimits: middleware.SizeLimits{File: middleware.ParseSize("50mb")}},
		},
	}

	// Routes
	router := app.NewRouter(app.Deps{
		Jobs:    jobs,
		Users:   users,
		Tokens:  tokens,
		Env:     cfg.Env,
		Logger:  logger,
		Metrics: metrics,
	})

	// Assemble middleware chain
	mux := http.NewServeMux()
	mux.Handle("/metrics", telemetry.MetricsHandler())
	mux.Handle("/", middleware.Chain(
		router,
		middleware.Metrics(metrics),
		middleware.RequestID,
		middleware.Logging(logger),
		middleware.Recovery,
		middleware.SizeLimit(sizeCfg, metrics),
		middleware.StreamLimit(middleware.ParseSize(cfg.Body.StreamMax)),
		middleware.RateLimit(rl, metrics),
	))

	// Start server
	srv := server.New(cfg.Addr, mux)

	slog.Info("api starting",
		"addr", cfg.Addr,
		"env", cfg.Env,
		"stream_max", cfg.Body.StreamMax,
	)

	if err := srv.Run(ctx); err != nil {
		slog.Error("server error", "error", err)
	}

	if err := shutdown(context.Background()); err != nil {
		slog.Error("telemetry shutdown error", "error", err)
	}
}

// buildStores connects to postgres when DATABASE_URL is reachable and falls
// back to the in-memory stores otherwise, so the service can run locally
// without infrastructure. The user store is in-memory either way; account
// storage lives with the identity team.
func buildStores(ctx context.Context, cfg config.Config) (store.JobStore, store.UserStore, func()) {
	users := store.NewInMemUserStore()
	users.Seed("employer@example.org", "changeme-now", domain.Principal{ID: "emp-1", Role: domain.RoleEmployer})
	users.Seed("member@example.org", "changeme-now", domain.Principal{ID: "mem-1", Role: domain.RoleMember})

	pool, err := store.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Warn("database unavailable, using in-memory job store", "error", err)
		return store.NewInMemJobStore(), users, func() {}
	}
	return store.NewPostgresJobStore(pool), users, pool.Close
}
