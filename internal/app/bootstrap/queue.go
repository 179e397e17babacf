package bootstrap

import (
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/wolfman30/clinic-growth-platform/internal/config"
	"github.com/wolfman30/clinic-growth-platform/internal/jobs"
	"github.com/wolfman30/clinic-growth-platform/pkg/logging"
)

// JobQueue is the enqueue side of the jobs pipeline plus the worker that
// drains it, when the queue has one.
type JobQueue struct {
	Enqueuer jobs.Enqueuer
	Worker   *jobs.Worker
	Mode     string
}

// BuildJobQueue picks the queue backend:
//   - USE_MEMORY_QUEUE: in-process channel queue drained by a local worker
//   - JOBS_QUEUE_URL with an SQS client: SQS publisher and worker
//   - otherwise tasks run inline on the caller's goroutine
func BuildJobQueue(cfg *config.Config, sqsClient *sqs.Client, runner *jobs.Runner, logger *logging.Logger) *JobQueue {
	if logger == nil {
		logger = logging.Default()
	}
	switch {
	case cfg.UseMemoryQueue:
		q := jobs.NewMemoryQueue(256)
		return &JobQueue{
			Enqueuer: jobs.NewPublisher(q),
			Worker:   jobs.NewWorker(q, runner, logger),
			Mode:     "memory",
		}
	case strings.TrimSpace(cfg.JobsQueueURL) != "" && sqsClient != nil:
		q := jobs.NewSQSQueue(sqsClient, cfg.JobsQueueURL)
		return &JobQueue{
			Enqueuer: jobs.NewPublisher(q),
			Worker:   jobs.NewWorker(q, runner, logger),
			Mode:     "sqs",
		}
	default:
		return &JobQueue{Enqueuer: jobs.Inline{Runner: runner}, Mode: "inline"}
	}
}
