package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/aprovado-edu/aprovado/internal/admin"
	"github.com/aprovado-edu/aprovado/internal/app"
	"github.com/aprovado-edu/aprovado/internal/auth"
	"github.com/aprovado-edu/aprovado/internal/cors"
	"github.com/aprovado-edu/aprovado/internal/guard"
	"github.com/aprovado-edu/aprovado/internal/observability"
	"github.com/aprovado-edu/aprovado/internal/plan"
	"github.com/aprovado-edu/aprovado/internal/platform/cache"
	"github.com/aprovado-edu/aprovado/internal/platform/db"
	"github.com/aprovado-edu/aprovado/internal/ratelimit"
	"github.com/aprovado-edu/aprovado/internal/simulado"
	"github.com/aprovado-edu/aprovado/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	tokens := auth.NewTokenManager(cfg.TokenSecret, cfg.TokenTTL)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo, tokens)
	authHandler := auth.NewHandler(logger, authService)

	metrics := observability.NewMetrics()

	adminRepo := admin.NewRepository(dbpool)
	adminService := admin.NewService(adminRepo, logger)
	adminHandler := admin.NewHandler(logger, authService, adminService, metrics)
	checker := admin.NewChecker(admin.ServiceVerifier{Tokens: authService, Service: adminService}, nil, logger)

	jobClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	planRepo := plan.NewRepository(dbpool)
	planService := plan.NewService(planRepo)
	planHandler := plan.NewHandler(logger, planService)

	simuladoRepo := simulado.NewRepository(dbpool)
	simuladoService := simulado.NewService(simuladoRepo, jobClient, logger)
	simuladoHandler := simulado.NewHandler(logger, simuladoService)

	var limits ratelimit.Store = ratelimit.NewMemoryStore()
	if cfg.RateLimitShared {
		limits = ratelimit.NewRedisStore(redisClient)
	}

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		CORS:            cors.NewPolicy(cfg.CORSAllowedOrigins, logger),
		AuthService:     authService,
		AuthHandler:     authHandler,
		AdminHandler:    adminHandler,
		PlanHandler:     planHandler,
		SimuladoHandler: simuladoHandler,
		JobHandler:      jobHandler,
		Guard:           guard.Guard{Checker: checker, Logger: logger},
		RateLimits:      limits,
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
