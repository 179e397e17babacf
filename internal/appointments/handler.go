package appointments

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/clinic-growth-platform/internal/apierr"
	"github.com/wolfman30/clinic-growth-platform/internal/tenancy"
	"github.com/wolfman30/clinic-growth-platform/pkg/logging"
)

// Handler serves /appointments under the clinic-scoped admin router.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/appointments", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Patch("/{id}", h.update)
		r.Post("/{id}/cancel", h.cancel)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := tenancy.ClinicIDFromContext(r.Context())
	if !ok {
		apierr.Write(w, h.logger, apierr.Unauthorized("missing clinic"))
		return
	}
	q := r.URL.Query()
	f := Filter{
		PatientID:     q.Get("patient_id"),
		Status:        q.Get("status"),
		PaymentStatus: q.Get("payment_status"),
	}
	if f.Status != "" && !validStatus(f.Status) {
		apierr.Write(w, h.logger, apierr.BadRequest("invalid status"))
		return
	}
	if f.PaymentStatus != "" && !validPaymentStatus(f.PaymentStatus) {
		apierr.Write(w, h.logger, apierr.BadRequest("invalid payment_status"))
		return
	}
	for key, dst := range map[string]*time.Time{"from": &f.From, "to": &f.To} {
		if raw := q.Get(key); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				apierr.Write(w, h.logger, apierr.BadRequest(key+" must be RFC3339"))
				return
			}
			*dst = t
		}
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 500 {
			apierr.Write(w, h.logger, apierr.BadRequest("limit must be between 1 and 500"))
			return
		}
		f.Limit = n
	}

	items, err := h.service.List(r.Context(), clinicID, f)
	if err != nil {
		apierr.Write(w, h.logger, apierr.Upstream("could not load appointments", err))
		return
	}
	if items == nil {
		items = []Appointment{}
	}
	apierr.WriteJSON(w, http.StatusOK, map[string]any{"appointments": items, "count": len(items)})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := tenancy.ClinicIDFromContext(r.Context())
	if !ok {
		apierr.Write(w, h.logger, apierr.Unauthorized("missing clinic"))
		return
	}
	var in CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		apierr.Write(w, h.logger, apierr.BadRequest("invalid JSON body"))
		return
	}
	a, err := h.service.Create(r.Context(), clinicID, in)
	if err != nil {
		apierr.Write(w, h.logger, err)
		return
	}
	apierr.WriteJSON(w, http.StatusCreated, a)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := tenancy.ClinicIDFromContext(r.Context())
	if !ok {
		apierr.Write(w, h.logger, apierr.Unauthorized("missing clinic"))
		return
	}
	a, err := h.service.Get(r.Context(), clinicID, chi.URLParam(r, "id"))
	if err != nil {
		apierr.Write(w, h.logger, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, a)
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
	a, err := h.service.Update(r.Context(), clinicID, chi.URLParam(r, "id"), in)
	if err != nil {
		apierr.Write(w, h.logger, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := tenancy.ClinicIDFromContext(r.Context())
	if !ok {
		apierr.Write(w, h.logger, apierr.Unauthorized("missing clinic"))
		return
	}
	a, err := h.service.Cancel(r.Context(), clinicID, chi.URLParam(r, "id"))
	if err != nil {
		apierr.Write(w, h.logger, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, a)
}
