// Package bootstrap assembles stores, services and handlers from config so
// the API, scheduler and CLI binaries share one wiring.
package bootstrap

import (
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/clinic-growth-platform/internal/admin"
	"github.com/wolfman30/clinic-growth-platform/internal/appointments"
	"github.com/wolfman30/clinic-growth-platform/internal/bant"
	"github.com/wolfman30/clinic-growth-platform/internal/behavior"
	"github.com/wolfman30/clinic-growth-platform/internal/clinic"
	"github.com/wolfman30/clinic-growth-platform/internal/compliance"
	"github.com/wolfman30/clinic-growth-platform/internal/config"
	"github.com/wolfman30/clinic-growth-platform/internal/flashoffer"
	"github.com/wolfman30/clinic-growth-platform/internal/jobs"
	"github.com/wolfman30/clinic-growth-platform/internal/messaging"
	"github.com/wolfman30/clinic-growth-platform/internal/observability/metrics"
	"github.com/wolfman30/clinic-growth-platform/internal/patients"
	"github.com/wolfman30/clinic-growth-platform/internal/payments"
	"github.com/wolfman30/clinic-growth-platform/internal/pursuit"
	"github.com/wolfman30/clinic-growth-platform/internal/retention"
	"github.com/wolfman30/clinic-growth-platform/pkg/logging"
)

// Deps are the shared resources every service is built on.
type Deps struct {
	Config  *config.Config
	DB      *Database
	Redis   *redis.Client
	Metrics *metrics.GrowthMetrics
	Logger  *logging.Logger
}

// Services is the assembled domain layer.
type Services struct {
	Clinics      *clinic.PostgresStore
	ClinicCache  *clinic.Cache
	ClinicStats  *clinic.StatsRepository
	Accounts     *admin.PostgresStore
	Admin        *admin.Service
	Audit        *compliance.AuditService
	Patients     *patients.PostgresStore
	Appointments *appointments.Service
	Behavior     *behavior.Service
	BANT         *bant.Service
	Pursuit      *pursuit.Scheduler
	FlashOffers  *flashoffer.Service
	Retention    *retention.Service
	CallTasks    *messaging.Store
	Dispatcher   *messaging.Dispatcher
	Confirmer    *payments.Confirmer
	Runner       *jobs.Runner
}

// BuildServices wires every store and service. Postgres and Redis are both
// required: the clinic cache and the session guard live in Redis.
func BuildServices(d Deps) (*Services, error) {
	if d.Config == nil {
		return nil, errors.New("bootstrap: config is required")
	}
	if d.DB == nil || d.DB.Pool == nil {
		return nil, errors.New("bootstrap: database is required")
	}
	if d.Redis == nil {
		return nil, errors.New("bootstrap: redis is required")
	}
	logger := d.Logger
	if logger == nil {
		logger = logging.Default()
	}
	cfg := d.Config
	pool := d.DB.Pool

	s := &Services{
		Clinics:   clinic.NewPostgresStore(pool),
		Accounts:  admin.NewPostgresStore(pool),
		Patients:  patients.NewPostgresStore(pool),
		CallTasks: messaging.NewStore(pool),
		Audit:     compliance.NewAuditService(d.DB.SQL),
	}
	s.ClinicCache = clinic.NewCache(d.Redis, s.Clinics, cfg.ClinicCacheTTL, logger)
	s.ClinicStats = clinic.NewStatsRepository(pool)

	s.Admin = admin.NewService(s.Accounts, s.Clinics, admin.TokenConfig{
		Secret: cfg.AdminJWTSecret,
		TTL:    cfg.AdminTokenTTL,
	}, logger).WithAudit(s.Audit)

	s.Dispatcher = BuildDispatcher(cfg, s.CallTasks, logger)

	s.Behavior = behavior.NewService(
		behavior.NewPostgresStore(pool),
		behavior.NewRedisSessionGuard(d.Redis, cfg.BehaviorSessionTTL),
		logger.WithComponent("behavior"),
	)
	s.BANT = bant.NewService(bant.NewPostgresStore(pool), logger).WithMetrics(d.Metrics)

	s.Pursuit = pursuit.NewScheduler(pursuit.NewPostgresStore(pool), s.Dispatcher, logger).
		WithMetrics(d.Metrics).
		WithPaymentLinkBase(cfg.PaymentLinkBaseURL)
	s.FlashOffers = flashoffer.NewService(flashoffer.NewPostgresStore(pool), s.Dispatcher, logger).
		WithMetrics(d.Metrics).
		WithDefaults(time.Duration(cfg.FlashOfferMinGapMinutes)*time.Minute, cfg.FlashOfferDiscountPct)
	s.Retention = retention.NewService(retention.NewPostgresStore(pool), s.Dispatcher, logger).
		WithMetrics(d.Metrics).
		WithBookingLink(cfg.PaymentLinkBaseURL)
	s.Appointments = appointments.NewService(appointments.NewPostgresStore(pool), s.Retention, logger)

	s.Confirmer = BuildConfirmer(cfg, pool, logger).WithRenewals(s.Retention)

	s.Runner = jobs.NewRunner(s.ClinicCache, logger).
		WithPursuit(s.Pursuit).
		WithFlashOffers(s.FlashOffers).
		WithRenewals(s.Retention).
		WithMetrics(d.Metrics)
	return s, nil
}

// Handlers groups the HTTP handlers mounted by the API router.
type Handlers struct {
	Behavior     *behavior.Handler
	BANT         *bant.Handler
	Payments     PaymentHandlers
	Admin        *admin.Handler
	Patients     *patients.Handler
	Appointments *appointments.Handler
	Clinic       *clinic.Handler
	Retention    *retention.Handler
	CallTasks    *messaging.Handler
	Jobs         *jobs.Handler
}

// BuildHandlers creates the HTTP layer over s. queue receives manually
// triggered jobs.
func BuildHandlers(d Deps, s *Services, queue jobs.Enqueuer) *Handlers {
	logger := d.Logger
	if logger == nil {
		logger = logging.Default()
	}
	cfg := d.Config
	return &Handlers{
		Behavior:     behavior.NewHandler(s.Behavior, logger),
		BANT:         bant.NewHandler(s.BANT, s.FlashOffers, cfg.BookingSlotMinutes, logger),
		Payments:     BuildPaymentHandlers(cfg, s.Confirmer, d.Metrics, logger),
		Admin:        admin.NewHandler(s.Admin, cfg.OnboardingToken, logger).WithAuditLog(s.Audit),
		Patients:     patients.NewHandler(s.Patients, logger).WithAudit(s.Audit),
		Appointments: appointments.NewHandler(s.Appointments, logger),
		Clinic:       clinic.NewHandler(s.Clinics, s.ClinicStats, logger).WithCache(s.ClinicCache).WithAudit(s.Audit),
		Retention:    retention.NewHandler(s.Retention, logger).WithAudit(s.Audit),
		CallTasks:    messaging.NewHandler(s.CallTasks, logger),
		Jobs:         jobs.NewHandler(queue, logger).WithAudit(s.Audit),
	}
}
