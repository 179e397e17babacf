package admin

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/clinic-growth-platform/internal/apierr"
	"github.com/wolfman30/clinic-growth-platform/internal/compliance"
	"github.com/wolfman30/clinic-growth-platform/internal/http/middleware"
	"github.com/wolfman30/clinic-growth-platform/internal/tenancy"
	"github.com/wolfman30/clinic-growth-platform/pkg/logging"
)

// OnboardingTokenHeader carries the shared secret for clinic onboarding.
const OnboardingTokenHeader = "X-Onboarding-Token"

type auditReader interface {
	QueryEvents(ctx context.Context, filter compliance.AuditFilter) ([]compliance.AuditEvent, error)
}

type Handler struct {
	service         *Service
	events          auditReader
	onboardingToken string
	logger          *logging.Logger
}

func NewHandler(service *Service, onboardingToken string, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, onboardingToken: onboardingToken, logger: logger}
}

// WithAuditLog enables GET /audit.
func (h *Handler) WithAuditLog(events auditReader) *Handler {
	h.events = events
	return h
}

// RegisterPublicRoutes mounts endpoints that run before admin auth.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/login", h.login)
	r.Post("/clinics", h.onboard)
}

// RegisterRoutes mounts clinic-scoped endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/me", h.me)
	if h.events != nil {
		r.Get("/audit", h.listAudit)
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.Write(w, h.logger, apierr.BadRequest("invalid json"))
		return
	}
	res, err := h.service.Login(r.Context(), req.Email, req.Password, remoteIP(r))
	if err != nil {
		apierr.Write(w, h.logger, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) onboard(w http.ResponseWriter, r *http.Request) {
	if h.onboardingToken == "" {
		apierr.Write(w, h.logger, apierr.Forbidden("onboarding disabled"))
		return
	}
	got := r.Header.Get(OnboardingTokenHeader)
	if subtle.ConstantTimeCompare([]byte(got), []byte(h.onboardingToken)) != 1 {
		apierr.Write(w, h.logger, apierr.Unauthorized("invalid onboarding token"))
		return
	}
	var in OnboardInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		apierr.Write(w, h.logger, apierr.BadRequest("invalid json"))
		return
	}
	res, err := h.service.Onboard(r.Context(), in)
	if err != nil {
		apierr.Write(w, h.logger, err)
		return
	}
	apierr.WriteJSON(w, http.StatusCreated, res)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.AdminClaimsFromContext(r.Context())
	clinicID, hasClinic := tenancy.ClinicIDFromContext(r.Context())
	if !ok || !hasClinic {
		apierr.Write(w, h.logger, apierr.Unauthorized("missing session"))
		return
	}
	body := map[string]any{
		"user_id":   claims.Subject,
		"email":     claims.Email,
		"clinic_id": clinicID,
	}
	if claims.ExpiresAt != nil {
		body["expires_at"] = claims.ExpiresAt.Time
	}
	apierr.WriteJSON(w, http.StatusOK, body)
}

func (h *Handler) listAudit(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := tenancy.ClinicIDFromContext(r.Context())
	if !ok {
		apierr.Write(w, h.logger, apierr.Unauthorized("missing clinic"))
		return
	}
	q := r.URL.Query()
	filter := compliance.AuditFilter{
		ClinicID:  clinicID,
		EventType: compliance.AuditEventType(q.Get("event_type")),
		Limit:     100,
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			apierr.Write(w, h.logger, apierr.BadRequest("limit must be between 1 and 500"))
			return
		}
		filter.Limit = n
	}
	for key, dst := range map[string]*time.Time{"from": &filter.StartTime, "to": &filter.EndTime} {
		if v := q.Get(key); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				apierr.Write(w, h.logger, apierr.BadRequest(key+" must be RFC3339"))
				return
			}
			*dst = t
		}
	}
	events, err := h.events.QueryEvents(r.Context(), filter)
	if err != nil {
		apierr.Write(w, h.logger, err)
		return
	}
	if events == nil {
		events = []compliance.AuditEvent{}
	}
	apierr.WriteJSON(w, http.StatusOK, map[string]any{"events": events})
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
