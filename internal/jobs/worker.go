package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wolfman30/clinic-growth-platform/pkg/logging"
)

const (
	defaultWorkerCount   = 2
	defaultWaitSeconds   = 20
	defaultBatchSize     = 10
	deleteTimeoutSeconds = 5
)

type taskRunner interface {
	Run(ctx context.Context, t Task) (any, error)
}

// Worker consumes tasks from the queue and hands them to the runner.
type Worker struct {
	queue  queueClient
	runner taskRunner
	logger *logging.Logger

	workers     int
	waitSeconds int
	batchSize   int
	wg          sync.WaitGroup
}

// WorkerOption customizes worker behavior.
type WorkerOption func(*Worker)

// WithWorkerCount sets the number of concurrent consumer goroutines.
func WithWorkerCount(n int) WorkerOption {
	return func(w *Worker) {
		if n > 0 {
			w.workers = n
		}
	}
}

// WithReceiveWaitSeconds sets the long-poll wait, capped at the SQS limit of 20.
func WithReceiveWaitSeconds(seconds int) WorkerOption {
	return func(w *Worker) {
		if seconds >= 0 && seconds <= 20 {
			w.waitSeconds = seconds
		}
	}
}

func NewWorker(queue queueClient, runner taskRunner, logger *logging.Logger, opts ...WorkerOption) *Worker {
	if queue == nil {
		panic("jobs: queue cannot be nil")
	}
	if runner == nil {
		panic("jobs: runner cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	w := &Worker{
		queue:       queue,
		runner:      runner,
		logger:      logger.WithComponent("jobs-worker"),
		workers:     defaultWorkerCount,
		waitSeconds: defaultWaitSeconds,
		batchSize:   defaultBatchSize,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start launches worker goroutines until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go w.run(ctx, i+1)
	}
}

// Wait blocks until all worker goroutines exit.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context, workerID int) {
	defer w.wg.Done()
	w.logger.Debug("jobs worker started", "worker_id", workerID)

	backoff := time.Second
	for {
		if ctx.Err() != nil {
			w.logger.Debug("jobs worker stopping", "worker_id", workerID)
			return
		}
		messages, err := w.queue.Receive(ctx, w.batchSize, w.waitSeconds)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			w.logger.Error("failed to receive jobs", "error", err, "worker_id", workerID)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if backoff < 5*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		for _, msg := range messages {
			w.handleMessage(ctx, msg)
		}
	}
}

// handleMessage deletes the message unless the run failed, so SQS redelivers
// failed tasks after the visibility timeout. Undecodable messages are dropped.
func (w *Worker) handleMessage(ctx context.Context, msg queueMessage) {
	task, err := decodeTask(msg.Body)
	if err != nil {
		w.logger.Error("dropping undecodable job", "error", err, "msg_id", msg.ID)
		w.deleteMessage(msg.ReceiptHandle)
		return
	}
	if _, err := w.runner.Run(ctx, task); err != nil && !errors.Is(err, ErrSkipped) {
		return
	}
	w.deleteMessage(msg.ReceiptHandle)
}

func (w *Worker) deleteMessage(receiptHandle string) {
	ctx, cancel := context.WithTimeout(context.Background(), deleteTimeoutSeconds*time.Second)
	defer cancel()
	if err := w.queue.Delete(ctx, receiptHandle); err != nil {
		w.logger.Error("failed to delete job message", "error", err)
	}
}
