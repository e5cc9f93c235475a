// Package main is the entry point for the Stridelog API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/pkordes/stridelog/internal/cache"
	"github.com/pkordes/stridelog/internal/config"
	"github.com/pkordes/stridelog/internal/handler"
	"github.com/pkordes/stridelog/internal/metrics"
	"github.com/pkordes/stridelog/internal/middleware"
	"github.com/pkordes/stridelog/internal/repo"
	"github.com/pkordes/stridelog/internal/service"
	"github.com/pkordes/stridelog/internal/strava"
	"github.com/pkordes/stridelog/migrations"
	"github.com/pkordes/stridelog/spec"
)

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	var out io.Writer = os.Stdout
	if cfg.LogFile != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    100, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
		})
	}
	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// --- Database ---------------------------------------------------------
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	if cfg.MigrateOnStart {
		if err := migrate(ctx, pool); err != nil {
			slog.Error("failed to apply migrations", "error", err)
			os.Exit(1)
		}
	}

	// --- Metrics ----------------------------------------------------------
	reg := metrics.NewRegistry(pgxpoolprometheus.NewCollector(pool, map[string]string{"db_name": pool.Config().ConnConfig.Database}))
	metricsManager := metrics.NewManager(reg)

	// --- Services ---------------------------------------------------------
	activityRepo := repo.NewActivityRepo(pool)
	connectionRepo := repo.NewConnectionRepo(pool)
	auditRepo := repo.NewAuditRepo(pool)

	routeSvc := service.NewRouteService(repo.NewRouteRepo(pool))
	oauth := strava.NewOAuthClient(strava.OAuthConfig{
		ClientID:     cfg.StravaClientID,
		ClientSecret: cfg.StravaClientSecret,
		RedirectURL:  cfg.StravaRedirectURI,
	})
	webhookSvc := service.NewWebhookService(
		service.WebhookConfig{VerifyToken: cfg.StravaVerifyToken, Secret: cfg.WebhookSecret},
		activityRepo, connectionRepo, auditRepo,
		strava.NewAPIClient(strava.APIBaseURL, nil),
		metricsManager, logger,
	)

	opts := handler.Options{
		Activities:   service.NewActivityService(activityRepo, logger),
		Goals:        service.NewGoalService(repo.NewGoalRepo(pool), activityRepo),
		Training:     service.NewTrainingService(repo.NewTrainingRepo(pool)),
		Segments:     service.NewSegmentService(repo.NewSegmentRepo(pool)),
		Routes:       routeSvc,
		Drafts:       service.NewDraftService(cache.NewDraftStore(cfg.DraftCacheBytes, cfg.DraftTTL), routeSvc),
		Connect:      service.NewConnectService(oauth, connectionRepo, auditRepo, logger),
		Webhooks:     webhookSvc,
		AppURL:       cfg.AppURL,
		UserIDHeader: cfg.UserIDHeader,
		CookieSecure: cfg.CookieSecure,
		OpenAPI:      spec.OpenAPI,
		Logger:       logger,
	}

	// Webhook rate limiting needs Redis; without it deliveries are unlimited.
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		opts.WebhookLimiter = middleware.NewRateLimit(
			redis_rate.NewLimiter(rdb), "strava_webhooks", cfg.WebhookRatePerMin, metricsManager, logger)
		slog.Info("webhook rate limiting enabled", "redis_addr", cfg.RedisAddr, "per_min", cfg.WebhookRatePerMin)
	}

	// --- Router -----------------------------------------------------------
	// RequestID → RealIP → SlogLogger → Recoverer → metrics → CORS → MaxBodySize.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewRequestMetrics(metricsManager))
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins, cfg.UserIDHeader))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))

	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	r.Mount("/", handler.NewServer(opts).Routes())

	// --- HTTP Server ------------------------------------------------------
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// migrate applies every pending migration embedded in the binary.
func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	n, err := migrations.Up(ctx, db)
	if err != nil {
		return err
	}
	slog.Info("migrations applied", "count", n)
	return nil
}
