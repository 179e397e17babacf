package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/clinic-growth-platform/cmd/mainconfig"
	"github.com/wolfman30/clinic-growth-platform/internal/api/router"
	"github.com/wolfman30/clinic-growth-platform/internal/app/bootstrap"
	appconfig "github.com/wolfman30/clinic-growth-platform/internal/config"
	httpmiddleware "github.com/wolfman30/clinic-growth-platform/internal/http/middleware"
	"github.com/wolfman30/clinic-growth-platform/internal/observability/metrics"
	"github.com/wolfman30/clinic-growth-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clinic-growth API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	db, err := bootstrap.BuildDatabase(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient == nil {
		logger.Error("redis is required", "addr", cfg.RedisAddr)
		os.Exit(1)
	}
	defer func() { _ = redisClient.Close() }()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	deps := bootstrap.Deps{
		Config:  cfg,
		DB:      db,
		Redis:   redisClient,
		Metrics: metrics.NewGrowthMetrics(registry),
		Logger:  logger,
	}

	services, err := bootstrap.BuildServices(deps)
	if err != nil {
		logger.Error("failed to build services", "error", err)
		os.Exit(1)
	}

	sqsClient, err := mainconfig.NewSQSClient(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}
	queue := bootstrap.BuildJobQueue(cfg, sqsClient, services.Runner, logger)
	logger.Info("jobs queue ready", "mode", queue.Mode)

	// The in-memory queue has no other consumer, so drain it here.
	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	if queue.Mode == "memory" && queue.Worker != nil {
		queue.Worker.Start(workerCtx)
	}

	handlers := bootstrap.BuildHandlers(deps, services, queue.Enqueuer)

	// Setup router
	routerCfg := &router.Config{
		Logger:             logger,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		CORSAllowedHeaders: cfg.CORSAllowedHeaders,
		AdminAuthSecret:    cfg.AdminJWTSecret,
		Profiles:           services.Accounts,
		PublicLimiter:      httpmiddleware.NewRedisRateLimiter(redisClient, 60, time.Minute),
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		HealthChecks: map[string]router.HealthCheck{
			"postgres": db.Ping,
			"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		},
		Behavior:           handlers.Behavior,
		BANT:               handlers.BANT,
		MercadoPagoWebhook: handlers.Payments.MercadoPago,
		TransbankReturn:    handlers.Payments.Transbank,
		Admin:              handlers.Admin,
		Patients:           handlers.Patients,
		Appointments:       handlers.Appointments,
		Clinic:             handlers.Clinic,
		Retention:          handlers.Retention,
		CallTasks:          handlers.CallTasks,
		Jobs:               handlers.Jobs,
	}
	r := router.New(routerCfg)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	stopWorker()
	if queue.Mode == "memory" && queue.Worker != nil {
		queue.Worker.Wait()
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}
