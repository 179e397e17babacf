package messaging

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/clinic-growth-platform/internal/apierr"
	"github.com/wolfman30/clinic-growth-platform/internal/tenancy"
	"github.com/wolfman30/clinic-growth-platform/pkg/logging"
)

type callTaskStore interface {
	ListOpen(ctx context.Context, clinicID string, limit int) ([]CallTask, error)
	Complete(ctx context.Context, clinicID, id string) error
}

// Handler exposes the staff call queue to the admin dashboard.
type Handler struct {
	tasks  callTaskStore
	logger *logging.Logger
}

func NewHandler(tasks callTaskStore, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{tasks: tasks, logger: logger}
}

// RegisterRoutes mounts the endpoints; expected under /api/admin.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/call-tasks", h.list)
	r.Post("/call-tasks/{id}/done", h.complete)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := tenancy.ClinicIDFromContext(r.Context())
	if !ok {
		apierr.Write(w, h.logger, apierr.Unauthorized("missing clinic"))
		return
	}
	tasks, err := h.tasks.ListOpen(r.Context(), clinicID, 100)
	if err != nil {
		apierr.Write(w, h.logger, apierr.Upstream("could not load call tasks", err))
		return
	}
	if tasks == nil {
		tasks = []CallTask{}
	}
	apierr.WriteJSON(w, http.StatusOK, map[string]any{"tasks": tasks, "count": len(tasks)})
}

func (h *Handler) complete(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := tenancy.ClinicIDFromContext(r.Context())
	if !ok {
		apierr.Write(w, h.logger, apierr.Unauthorized("missing clinic"))
		return
	}
	id := chi.URLParam(r, "id")
	err := h.tasks.Complete(r.Context(), clinicID, id)
	switch {
	case errors.Is(err, ErrCallTaskNotFound):
		apierr.Write(w, h.logger, apierr.NotFound("open call task not found"))
	case err != nil:
		apierr.Write(w, h.logger, apierr.Upstream("could not complete call task", err))
	default:
		apierr.WriteJSON(w, http.StatusOK, map[string]string{"id": id, "status": "done"})
	}
}
