package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wolfman30/clinic-growth-platform/cmd/mainconfig"
	"github.com/wolfman30/clinic-growth-platform/internal/app/bootstrap"
	appconfig "github.com/wolfman30/clinic-growth-platform/internal/config"
	"github.com/wolfman30/clinic-growth-platform/internal/jobs"
	"github.com/wolfman30/clinic-growth-platform/internal/observability/metrics"
	"github.com/wolfman30/clinic-growth-platform/pkg/logging"
)

// The scheduler enqueues pursuit, flash-offer and auto-renewal tasks for
// every active clinic on their configured intervals and consumes the queue.
func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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

	services, err := bootstrap.BuildServices(bootstrap.Deps{
		Config:  cfg,
		DB:      db,
		Redis:   redisClient,
		Metrics: metrics.NewGrowthMetrics(prometheus.DefaultRegisterer),
		Logger:  logger,
	})
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
	if queue.Worker != nil {
		queue.Worker.Start(ctx)
	}

	cron := jobs.NewCron(services.Clinics, queue.Enqueuer, jobs.Intervals{
		Pursuit:     cfg.PursuitInterval,
		FlashOffer:  cfg.FlashOfferInterval,
		AutoRenewal: cfg.RenewalInterval,
	}, logger)
	cronDone := make(chan struct{})
	go func() {
		defer close(cronDone)
		cron.Run(ctx)
	}()
	logger.Info("scheduler started", "queue", queue.Mode)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down scheduler...")
	cancel()

	doneCtx, doneCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer doneCancel()

	waitCh := make(chan struct{})
	go func() {
		<-cronDone
		if queue.Worker != nil {
			queue.Worker.Wait()
		}
		close(waitCh)
	}()

	select {
	case <-waitCh:
		logger.Info("scheduler stopped")
	case <-doneCtx.Done():
		logger.Error("scheduler shutdown timed out", "error", doneCtx.Err())
	}
}
