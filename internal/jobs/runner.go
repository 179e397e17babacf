package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/clinic-growth-platform/internal/clinic"
	"github.com/wolfman30/clinic-growth-platform/internal/flashoffer"
	"github.com/wolfman30/clinic-growth-platform/internal/observability/metrics"
	"github.com/wolfman30/clinic-growth-platform/internal/pursuit"
	"github.com/wolfman30/clinic-growth-platform/internal/retention"
	"github.com/wolfman30/clinic-growth-platform/pkg/logging"
)

var tracer = otel.Tracer("clinic.internal.jobs")

// ErrSkipped marks a task the clinic's settings turned off.
var ErrSkipped = errors.New("jobs: skipped")

type pursuitRunner interface {
	Execute(ctx context.Context, clinicID string, trigger pursuit.Trigger) (*pursuit.RunResult, error)
	RunAll(ctx context.Context, clinicID string) ([]*pursuit.RunResult, error)
}

type flashOfferRunner interface {
	RunWith(ctx context.Context, clinicID string, opts flashoffer.RunOptions) (*flashoffer.RunResult, error)
}

type renewalRunner interface {
	ProcessAutoRenewals(ctx context.Context, clinicID string) (*retention.RunResult, error)
}

type clinicSource interface {
	Get(ctx context.Context, id string) (*clinic.Clinic, error)
}

// Runner executes one task against the matching scheduler service, honouring
// the clinic's feature switches.
type Runner struct {
	clinics  clinicSource
	pursuit  pursuitRunner
	flash    flashOfferRunner
	renewals renewalRunner
	metrics  *metrics.GrowthMetrics
	logger   *logging.Logger
	now      func() time.Time
}

func NewRunner(clinics clinicSource, logger *logging.Logger) *Runner {
	if clinics == nil {
		panic("jobs: clinic source cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Runner{clinics: clinics, logger: logger.WithComponent("jobs"), now: time.Now}
}

func (r *Runner) WithPursuit(p pursuitRunner) *Runner {
	r.pursuit = p
	return r
}

func (r *Runner) WithFlashOffers(f flashOfferRunner) *Runner {
	r.flash = f
	return r
}

func (r *Runner) WithRenewals(s renewalRunner) *Runner {
	r.renewals = s
	return r
}

func (r *Runner) WithMetrics(m *metrics.GrowthMetrics) *Runner {
	r.metrics = m
	return r
}

// Run executes t and returns the service's run summary. A task switched off
// in clinic settings returns ErrSkipped.
func (r *Runner) Run(ctx context.Context, t Task) (any, error) {
	ctx, span := tracer.Start(ctx, "jobs.run",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("jobs.kind", string(t.Kind)),
			attribute.String("jobs.clinic_id", t.ClinicID),
			attribute.String("jobs.source", t.Source),
		),
	)
	defer span.End()

	started := r.now()
	logger := r.logger.WithClinic(t.ClinicID).With("kind", t.Kind, "task_id", t.ID)

	result, err := r.dispatch(ctx, t)
	status := "ok"
	switch {
	case errors.Is(err, ErrSkipped):
		status = "skipped"
		logger.Debug("job skipped", "reason", err)
	case err != nil:
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error("job failed", "error", err)
	default:
		logger.Info("job completed", "duration_ms", r.now().Sub(started).Milliseconds())
	}
	r.metrics.ObserveJob(string(t.Kind), status, r.now().Sub(started).Seconds())
	return result, err
}

func (r *Runner) dispatch(ctx context.Context, t Task) (any, error) {
	c, err := r.clinics.Get(ctx, t.ClinicID)
	if err != nil {
		return nil, fmt.Errorf("jobs: load clinic: %w", err)
	}
	if !c.Active {
		return nil, fmt.Errorf("%w: clinic inactive", ErrSkipped)
	}
	settings := c.Settings

	switch t.Kind {
	case KindPursuit:
		if r.pursuit == nil || !settings.PursuitEnabled {
			return nil, fmt.Errorf("%w: pursuit disabled", ErrSkipped)
		}
		if t.Trigger != "" {
			trigger, err := pursuit.ParseTrigger(t.Trigger)
			if err != nil {
				return nil, err
			}
			return r.pursuit.Execute(ctx, t.ClinicID, trigger)
		}
		return r.pursuit.RunAll(ctx, t.ClinicID)
	case KindFlashOffer:
		if r.flash == nil || !settings.FlashOffersEnabled {
			return nil, fmt.Errorf("%w: flash offers disabled", ErrSkipped)
		}
		return r.flash.RunWith(ctx, t.ClinicID, flashoffer.RunOptions{
			MinGap:      settings.MinGap(),
			DiscountPct: settings.FlashOfferDiscountPct,
			Location:    c.Location(),
		})
	case KindAutoRenewal:
		if r.renewals == nil || !settings.RenewalsEnabled {
			return nil, fmt.Errorf("%w: renewals disabled", ErrSkipped)
		}
		return r.renewals.ProcessAutoRenewals(ctx, t.ClinicID)
	}
	return nil, fmt.Errorf("jobs: unknown kind %q", t.Kind)
}

// Inline runs tasks synchronously in place of a queue.
type Inline struct {
	Runner *Runner
}

func (i Inline) Enqueue(ctx context.Context, t Task) error {
	_, err := i.Runner.Run(ctx, t)
	if errors.Is(err, ErrSkipped) {
		return nil
	}
	return err
}
