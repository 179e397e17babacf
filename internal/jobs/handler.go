package jobs

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/clinic-growth-platform/internal/apierr"
	"github.com/wolfman30/clinic-growth-platform/internal/compliance"
	"github.com/wolfman30/clinic-growth-platform/internal/pursuit"
	"github.com/wolfman30/clinic-growth-platform/internal/tenancy"
	"github.com/wolfman30/clinic-growth-platform/pkg/logging"
)

type auditor interface {
	Record(ctx context.Context, eventType compliance.AuditEventType, clinicID, actorID, subject string, v any) error
}

// Handler lets an admin trigger a job for their own clinic.
type Handler struct {
	queue  Enqueuer
	audit  auditor
	logger *logging.Logger
}

func NewHandler(queue Enqueuer, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{queue: queue, logger: logger}
}

func (h *Handler) WithAudit(a auditor) *Handler {
	h.audit = a
	return h
}

// RegisterRoutes mounts the endpoints; expected under /api/admin.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/jobs/{kind}", h.trigger)
}

func (h *Handler) trigger(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := tenancy.ClinicIDFromContext(r.Context())
	if !ok {
		apierr.Write(w, h.logger, apierr.Unauthorized("missing clinic"))
		return
	}
	kind, err := ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		apierr.Write(w, h.logger, err)
		return
	}
	task := NewTask(kind, clinicID, "admin")
	if trigger := r.URL.Query().Get("trigger"); trigger != "" {
		if kind != KindPursuit {
			apierr.Write(w, h.logger, apierr.BadRequest("trigger only applies to pursuit jobs"))
			return
		}
		if _, err := pursuit.ParseTrigger(trigger); err != nil {
			apierr.Write(w, h.logger, apierr.BadRequest(err.Error()))
			return
		}
		task.Trigger = trigger
	}
	if err := h.queue.Enqueue(r.Context(), task); err != nil {
		apierr.Write(w, h.logger, apierr.Upstream("enqueue failed", err))
		return
	}
	if h.audit != nil {
		userID, _ := tenancy.UserIDFromContext(r.Context())
		if err := h.audit.Record(r.Context(), compliance.EventJobTriggered, clinicID, userID, string(kind), task); err != nil {
			h.logger.Warn("audit job trigger failed", "error", err)
		}
	}
	apierr.WriteJSON(w, http.StatusAccepted, task)
}
