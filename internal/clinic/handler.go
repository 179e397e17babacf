package clinic

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/clinic-growth-platform/internal/apierr"
	"github.com/wolfman30/clinic-growth-platform/internal/compliance"
	"github.com/wolfman30/clinic-growth-platform/internal/tenancy"
	"github.com/wolfman30/clinic-growth-platform/pkg/logging"
)

type recordStore interface {
	Get(ctx context.Context, id string) (*Clinic, error)
	Save(ctx context.Context, c *Clinic) error
}

type statsSource interface {
	GetStats(ctx context.Context, clinicID string, start, end time.Time) (*Stats, error)
}

type invalidator interface {
	Invalidate(ctx context.Context, id string) error
}

type auditor interface {
	Record(ctx context.Context, eventType compliance.AuditEventType, clinicID, actorID, subject string, v any) error
}

// Handler serves the caller's own clinic record and dashboard.
type Handler struct {
	store  recordStore
	stats  statsSource
	cache  invalidator
	audit  auditor
	logger *logging.Logger
	now    func() time.Time
}

func NewHandler(store recordStore, stats statsSource, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, stats: stats, logger: logger, now: time.Now}
}

// WithCache drops cached settings after an update.
func (h *Handler) WithCache(c invalidator) *Handler {
	h.cache = c
	return h
}

func (h *Handler) WithAudit(a auditor) *Handler {
	h.audit = a
	return h
}

// RegisterRoutes mounts the endpoints; expected under /api/admin.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/clinic", h.get)
	r.Patch("/clinic", h.update)
	r.Get("/clinic/stats", h.getStats)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := tenancy.ClinicIDFromContext(r.Context())
	if !ok {
		apierr.Write(w, h.logger, apierr.Unauthorized("missing clinic"))
		return
	}
	c, err := h.store.Get(r.Context(), clinicID)
	if err != nil {
		apierr.Write(w, h.logger, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := tenancy.ClinicIDFromContext(r.Context())
	if !ok {
		apierr.Write(w, h.logger, apierr.Unauthorized("missing clinic"))
		return
	}
	var in UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		apierr.Write(w, h.logger, apierr.BadRequest("invalid JSON body"))
		return
	}
	c, err := h.store.Get(r.Context(), clinicID)
	if err != nil {
		apierr.Write(w, h.logger, err)
		return
	}
	if err := in.Apply(c); err != nil {
		apierr.Write(w, h.logger, err)
		return
	}
	if err := h.store.Save(r.Context(), c); err != nil {
		apierr.Write(w, h.logger, err)
		return
	}
	if h.cache != nil {
		if err := h.cache.Invalidate(r.Context(), clinicID); err != nil {
			h.logger.Warn("clinic cache invalidate failed", "clinic_id", clinicID, "error", err)
		}
	}
	if h.audit != nil {
		actor, _ := tenancy.UserIDFromContext(r.Context())
		if err := h.audit.Record(r.Context(), compliance.EventClinicUpdated, clinicID, actor, clinicID, in); err != nil {
			h.logger.Warn("audit clinic update failed", "clinic_id", clinicID, "error", err)
		}
	}
	h.logger.Info("clinic updated", "clinic_id", clinicID)
	apierr.WriteJSON(w, http.StatusOK, c)
}

// getStats defaults to the current UTC calendar month.
func (h *Handler) getStats(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := tenancy.ClinicIDFromContext(r.Context())
	if !ok {
		apierr.Write(w, h.logger, apierr.Unauthorized("missing clinic"))
		return
	}
	now := h.now().UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := now
	if s := r.URL.Query().Get("start"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			apierr.Write(w, h.logger, apierr.BadRequest("invalid start time, use RFC3339 format"))
			return
		}
		start = t
	}
	if e := r.URL.Query().Get("end"); e != "" {
		t, err := time.Parse(time.RFC3339, e)
		if err != nil {
			apierr.Write(w, h.logger, apierr.BadRequest("invalid end time, use RFC3339 format"))
			return
		}
		end = t
	}
	if !end.After(start) {
		apierr.Write(w, h.logger, apierr.BadRequest("end must be after start"))
		return
	}

	stats, err := h.stats.GetStats(r.Context(), clinicID, start, end)
	if err != nil {
		apierr.Write(w, h.logger, apierr.Upstream("could not load clinic stats", err))
		return
	}
	apierr.WriteJSON(w, http.StatusOK, stats)
}
