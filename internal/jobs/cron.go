package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wolfman30/clinic-growth-platform/pkg/logging"
)

type clinicLister interface {
	ListActiveIDs(ctx context.Context) ([]string, error)
}

// Enqueuer accepts tasks. Publisher and Inline implement it.
type Enqueuer interface {
	Enqueue(ctx context.Context, t Task) error
}

// Intervals sets how often each kind is enqueued. A zero interval disables
// the kind.
type Intervals struct {
	Pursuit     time.Duration
	FlashOffer  time.Duration
	AutoRenewal time.Duration
}

func (i Intervals) forKind(k Kind) time.Duration {
	switch k {
	case KindPursuit:
		return i.Pursuit
	case KindFlashOffer:
		return i.FlashOffer
	case KindAutoRenewal:
		return i.AutoRenewal
	}
	return 0
}

// Cron fans every kind out to all active clinics on its own ticker.
type Cron struct {
	clinics   clinicLister
	queue     Enqueuer
	intervals Intervals
	logger    *logging.Logger
}

func NewCron(clinics clinicLister, queue Enqueuer, intervals Intervals, logger *logging.Logger) *Cron {
	if logger == nil {
		logger = logging.Default()
	}
	return &Cron{clinics: clinics, queue: queue, intervals: intervals, logger: logger.WithComponent("jobs-cron")}
}

// Tick enqueues one task of kind per active clinic and returns how many were
// enqueued. Per-clinic failures do not stop the fan-out.
func (c *Cron) Tick(ctx context.Context, kind Kind) (int, error) {
	ids, err := c.clinics.ListActiveIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("jobs: list clinics: %w", err)
	}
	var (
		n    int
		errs []error
	)
	for _, id := range ids {
		if err := c.queue.Enqueue(ctx, NewTask(kind, id, "cron")); err != nil {
			errs = append(errs, fmt.Errorf("clinic %s: %w", id, err))
			continue
		}
		n++
	}
	c.logger.Info("cron tick", "kind", kind, "clinics", len(ids), "enqueued", n)
	return n, errors.Join(errs...)
}

// TickAll runs Tick for every kind.
func (c *Cron) TickAll(ctx context.Context) (int, error) {
	var (
		total int
		errs  []error
	)
	for _, k := range Kinds() {
		n, err := c.Tick(ctx, k)
		total += n
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", k, err))
		}
	}
	return total, errors.Join(errs...)
}

// Run ticks every enabled kind at its interval until ctx is cancelled.
func (c *Cron) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, k := range Kinds() {
		interval := c.intervals.forKind(k)
		if interval <= 0 {
			c.logger.Info("cron kind disabled", "kind", k)
			continue
		}
		wg.Add(1)
		go func(kind Kind, every time.Duration) {
			defer wg.Done()
			ticker := time.NewTicker(every)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if _, err := c.Tick(ctx, kind); err != nil {
						c.logger.Error("cron tick failed", "kind", kind, "error", err)
					}
				}
			}
		}(k, interval)
	}
	wg.Wait()
}
