package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/clinic-growth-platform/internal/admin"
	"github.com/wolfman30/clinic-growth-platform/internal/appointments"
	"github.com/wolfman30/clinic-growth-platform/internal/bant"
	"github.com/wolfman30/clinic-growth-platform/internal/behavior"
	"github.com/wolfman30/clinic-growth-platform/internal/clinic"
	httpmiddleware "github.com/wolfman30/clinic-growth-platform/internal/http/middleware"
	"github.com/wolfman30/clinic-growth-platform/internal/jobs"
	"github.com/wolfman30/clinic-growth-platform/internal/messaging"
	"github.com/wolfman30/clinic-growth-platform/internal/patients"
	"github.com/wolfman30/clinic-growth-platform/internal/payments"
	"github.com/wolfman30/clinic-growth-platform/internal/retention"
	"github.com/wolfman30/clinic-growth-platform/pkg/logging"
)

// Config holds router configuration. Nil handlers leave their routes unmounted.
type Config struct {
	Logger             *logging.Logger
	CORSAllowedOrigins []string
	CORSAllowedHeaders []string
	AdminAuthSecret    string
	Profiles           httpmiddleware.ProfileLookup
	PublicLimiter      httpmiddleware.Limiter
	MetricsHandler     http.Handler
	HealthChecks       map[string]HealthCheck

	// Public landing page and booking wizard
	Behavior *behavior.Handler
	BANT     *bant.Handler

	// Payment provider callbacks
	MercadoPagoWebhook *payments.MercadoPagoWebhookHandler
	TransbankReturn    *payments.TransbankReturnHandler

	// Admin dashboard
	Admin        *admin.Handler
	Patients     *patients.Handler
	Appointments *appointments.Handler
	Clinic       *clinic.Handler
	Retention    *retention.Handler
	CallTasks    *messaging.Handler
	Jobs         *jobs.Handler
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(httpmiddleware.CORSConfig{
			Origins: cfg.CORSAllowedOrigins,
			Headers: cfg.CORSAllowedHeaders,
		}))
	}
	r.Use(httpmiddleware.RequestLogger(logger))

	r.Get("/health", healthHandler(cfg.HealthChecks))
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api", func(api chi.Router) {
		// Public endpoints hit by landing pages and the booking wizard
		api.Group(func(public chi.Router) {
			if cfg.PublicLimiter != nil {
				public.Use(httpmiddleware.RateLimit(cfg.PublicLimiter, logger))
			}
			if cfg.Behavior != nil {
				cfg.Behavior.RegisterRoutes(public)
			}
			if cfg.BANT != nil {
				cfg.BANT.RegisterRoutes(public)
			}
		})

		api.Route("/webhooks", func(hooks chi.Router) {
			if cfg.MercadoPagoWebhook != nil {
				hooks.Post("/mercadopago", cfg.MercadoPagoWebhook.Handle)
			}
			if cfg.TransbankReturn != nil {
				// Webpay returns the buyer with token_ws by GET or POST.
				hooks.Get("/transbank", cfg.TransbankReturn.Handle)
				hooks.Post("/transbank", cfg.TransbankReturn.Handle)
			}
		})

		api.Route("/admin", func(adm chi.Router) {
			if cfg.Admin != nil {
				adm.Group(func(open chi.Router) {
					if cfg.PublicLimiter != nil {
						open.Use(httpmiddleware.RateLimit(cfg.PublicLimiter, logger))
					}
					cfg.Admin.RegisterPublicRoutes(open)
				})
			}
			if cfg.Profiles == nil {
				logger.Warn("admin routes disabled: no profile lookup configured")
				return
			}
			adm.Group(func(scoped chi.Router) {
				scoped.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
				scoped.Use(httpmiddleware.ClinicScope(cfg.Profiles, logger))
				if cfg.Admin != nil {
					cfg.Admin.RegisterRoutes(scoped)
				}
				if cfg.Patients != nil {
					cfg.Patients.RegisterRoutes(scoped)
				}
				if cfg.Appointments != nil {
					cfg.Appointments.RegisterRoutes(scoped)
				}
				if cfg.Clinic != nil {
					cfg.Clinic.RegisterRoutes(scoped)
				}
				if cfg.Retention != nil {
					cfg.Retention.RegisterRoutes(scoped)
				}
				if cfg.CallTasks != nil {
					cfg.CallTasks.RegisterRoutes(scoped)
				}
				if cfg.Jobs != nil {
					cfg.Jobs.RegisterRoutes(scoped)
				}
			})
		})
	})

	return r
}
