package retention

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/clinic-growth-platform/internal/apierr"
	"github.com/wolfman30/clinic-growth-platform/internal/compliance"
	"github.com/wolfman30/clinic-growth-platform/internal/tenancy"
	"github.com/wolfman30/clinic-growth-platform/pkg/logging"
)

// Handler serves the retention admin endpoints. The clinic comes from the
// authenticated request context.
type Handler struct {
	service *Service
	audit   auditor
	logger  *logging.Logger
}

type auditor interface {
	Record(ctx context.Context, eventType compliance.AuditEventType, clinicID, actorID, subject string, v any) error
}

func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

func (h *Handler) WithAudit(a auditor) *Handler {
	h.audit = a
	return h
}

// RegisterRoutes mounts the endpoints; expected under /api/admin.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/retention", h.list)
	r.Post("/retention/{id}/cancel", h.cancel)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := tenancy.ClinicIDFromContext(r.Context())
	if !ok {
		apierr.Write(w, h.logger, apierr.Unauthorized("missing clinic"))
		return
	}
	status := Status(r.URL.Query().Get("status"))
	switch status {
	case "", StatusActive, StatusCompleted, StatusExpired, StatusCancelled:
	default:
		apierr.Write(w, h.logger, apierr.BadRequest("invalid status"))
		return
	}
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 500 {
			apierr.Write(w, h.logger, apierr.BadRequest("limit must be between 1 and 500"))
			return
		}
		limit = n
	}

	schedules, err := h.service.List(r.Context(), clinicID, status, limit)
	if err != nil {
		apierr.Write(w, h.logger, apierr.Upstream("could not load retention schedules", err))
		return
	}
	if schedules == nil {
		schedules = []Schedule{}
	}
	apierr.WriteJSON(w, http.StatusOK, map[string]any{
		"schedules": schedules,
		"count":     len(schedules),
	})
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := tenancy.ClinicIDFromContext(r.Context())
	if !ok {
		apierr.Write(w, h.logger, apierr.Unauthorized("missing clinic"))
		return
	}
	id := chi.URLParam(r, "id")
	err := h.service.Cancel(r.Context(), clinicID, id)
	switch {
	case errors.Is(err, ErrNotFound):
		apierr.Write(w, h.logger, apierr.NotFound("active schedule not found"))
	case err != nil:
		apierr.Write(w, h.logger, apierr.Upstream("could not cancel schedule", err))
	default:
		if h.audit != nil {
			actor, _ := tenancy.UserIDFromContext(r.Context())
			if err := h.audit.Record(r.Context(), compliance.EventScheduleCancelled, clinicID, actor, id, nil); err != nil {
				h.logger.Warn("audit schedule cancel failed", "error", err)
			}
		}
		apierr.WriteJSON(w, http.StatusOK, map[string]string{"id": id, "status": string(StatusCancelled)})
	}
}
