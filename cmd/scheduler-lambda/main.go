package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/tidwall/gjson"

	"github.com/wolfman30/clinic-growth-platform/cmd/mainconfig"
	"github.com/wolfman30/clinic-growth-platform/internal/app/bootstrap"
	"github.com/wolfman30/clinic-growth-platform/internal/clinic"
	appconfig "github.com/wolfman30/clinic-growth-platform/internal/config"
	"github.com/wolfman30/clinic-growth-platform/internal/jobs"
	"github.com/wolfman30/clinic-growth-platform/pkg/logging"
)

// ticker is the part of jobs.Cron the handler drives.
type ticker interface {
	Tick(ctx context.Context, kind jobs.Kind) (int, error)
	TickAll(ctx context.Context) (int, error)
}

type result struct {
	Kind     string `json:"kind"`
	Enqueued int    `json:"enqueued"`
}

// EventBridge schedule rules invoke this function with a detail such as
// {"kind":"pursuit"}. An empty kind fans out every kind.
func main() {
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	if strings.TrimSpace(cfg.JobsQueueURL) == "" {
		logger.Error("JOBS_QUEUE_URL is required")
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := bootstrap.BuildDatabase(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	sqsClient, err := mainconfig.NewSQSClient(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}
	publisher := jobs.NewPublisher(jobs.NewSQSQueue(sqsClient, cfg.JobsQueueURL))
	cron := jobs.NewCron(clinic.NewPostgresStore(db.Pool), publisher, jobs.Intervals{}, logger)

	lambda.Start(func(ctx context.Context, evt events.CloudWatchEvent) (result, error) {
		return handle(ctx, cron, evt, logger)
	})
}

func handle(ctx context.Context, t ticker, evt events.CloudWatchEvent, logger *logging.Logger) (result, error) {
	raw := strings.TrimSpace(gjson.GetBytes(evt.Detail, "kind").String())
	if raw == "" || raw == "all" {
		n, err := t.TickAll(ctx)
		logger.Info("scheduled tick", "kind", "all", "enqueued", n, "event_id", evt.ID)
		return result{Kind: "all", Enqueued: n}, err
	}

	kind, err := jobs.ParseKind(raw)
	if err != nil {
		return result{}, fmt.Errorf("scheduler: %w", err)
	}
	n, err := t.Tick(ctx, kind)
	if err != nil && n == 0 {
		return result{Kind: string(kind)}, errors.Join(fmt.Errorf("scheduler: tick %s", kind), err)
	}
	if err != nil {
		logger.Warn("scheduled tick partially failed", "kind", kind, "enqueued", n, "error", err)
	}
	logger.Info("scheduled tick", "kind", kind, "enqueued", n, "event_id", evt.ID)
	return result{Kind: string(kind), Enqueued: n}, nil
}
