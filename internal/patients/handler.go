package patients

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/clinic-growth-platform/internal/apierr"
	"github.com/wolfman30/clinic-growth-platform/internal/behavior"
	"github.com/wolfman30/clinic-growth-platform/internal/compliance"
	"github.com/wolfman30/clinic-growth-platform/internal/tenancy"
	"github.com/wolfman30/clinic-growth-platform/pkg/logging"
)

// Store is the persistence behind the handler.
type Store interface {
	Create(ctx context.Context, clinicID string, in Input) (*Patient, error)
	Get(ctx context.Context, clinicID, id string) (*Patient, error)
	List(ctx context.Context, clinicID string, f Filter) ([]Patient, error)
	Update(ctx context.Context, clinicID, id string, in Input) (*Patient, error)
	Delete(ctx context.Context, clinicID, id string) error
}

type auditor interface {
	Record(ctx context.Context, eventType compliance.AuditEventType, clinicID, actorID, subject string, v any) error
}

// Handler serves /patients under the clinic-scoped admin router.
type Handler struct {
	store  Store
	audit  auditor
	logger *logging.Logger
}

func NewHandler(store Store, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger}
}

// WithAudit records deletions in the compliance trail.
func (h *Handler) WithAudit(a auditor) *Handler {
	h.audit = a
	return h
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/patients", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Patch("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := tenancy.ClinicIDFromContext(r.Context())
	if !ok {
		apierr.Write(w, h.logger, apierr.Unauthorized("missing clinic"))
		return
	}
	q := r.URL.Query()
	f := Filter{Search: q.Get("q"), Profile: q.Get("profile")}
	if f.Profile != "" && !behavior.Profile(f.Profile).Valid() {
		apierr.Write(w, h.logger, apierr.BadRequest("invalid profile"))
		return
	}
	if raw := q.Get("abandoned"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			apierr.Write(w, h.logger, apierr.BadRequest("abandoned must be true or false"))
			return
		}
		f.Abandoned = &v
	}
	var err error
	if f.Limit, err = intParam(q.Get("limit"), 50, 1, 200); err != nil {
		apierr.Write(w, h.logger, apierr.BadRequest("limit must be between 1 and 200"))
		return
	}
	if f.Offset, err = intParam(q.Get("offset"), 0, 0, 1<<20); err != nil {
		apierr.Write(w, h.logger, apierr.BadRequest("invalid offset"))
		return
	}

	items, err := h.store.List(r.Context(), clinicID, f)
	if err != nil {
		apierr.Write(w, h.logger, apierr.Upstream("could not load patients", err))
		return
	}
	if items == nil {
		items = []Patient{}
	}
	apierr.WriteJSON(w, http.StatusOK, map[string]any{"patients": items, "count": len(items)})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := tenancy.ClinicIDFromContext(r.Context())
	if !ok {
		apierr.Write(w, h.logger, apierr.Unauthorized("missing clinic"))
		return
	}
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		apierr.Write(w, h.logger, apierr.BadRequest("invalid JSON body"))
		return
	}
	if err := in.normalize(true); err != nil {
		apierr.Write(w, h.logger, err)
		return
	}
	p, err := h.store.Create(r.Context(), clinicID, in)
	if err != nil {
		apierr.Write(w, h.logger, err)
		return
	}
	apierr.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := tenancy.ClinicIDFromContext(r.Context())
	if !ok {
		apierr.Write(w, h.logger, apierr.Unauthorized("missing clinic"))
		return
	}
	p, err := h.store.Get(r.Context(), clinicID, chi.URLParam(r, "id"))
	if err != nil {
		apierr.Write(w, h.logger, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := tenancy.ClinicIDFromContext(r.Context())
	if !ok {
		apierr.Write(w, h.logger, apierr.Unauthorized("missing clinic"))
		return
	}
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		apierr.Write(w, h.logger, apierr.BadRequest("invalid JSON body"))
		return
	}
	if err := in.normalize(false); err != nil {
		apierr.Write(w, h.logger, err)
		return
	}
	p, err := h.store.Update(r.Context(), clinicID, chi.URLParam(r, "id"), in)
	if err != nil {
		apierr.Write(w, h.logger, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := tenancy.ClinicIDFromContext(r.Context())
	if !ok {
		apierr.Write(w, h.logger, apierr.Unauthorized("missing clinic"))
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.store.Delete(r.Context(), clinicID, id); err != nil {
		apierr.Write(w, h.logger, err)
		return
	}
	if h.audit != nil {
		actor, _ := tenancy.UserIDFromContext(r.Context())
		if err := h.audit.Record(r.Context(), compliance.EventPatientDeleted, clinicID, actor, id, nil); err != nil {
			h.logger.Warn("audit patient delete failed", "patient_id", id, "error", err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func intParam(raw string, def, min, max int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < min || n > max {
		return 0, strconv.ErrRange
	}
	return n, nil
}
