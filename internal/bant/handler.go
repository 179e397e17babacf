package bant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/clinic-growth-platform/internal/apierr"
	"github.com/wolfman30/clinic-growth-platform/internal/flashoffer"
	"github.com/wolfman30/clinic-growth-platform/pkg/logging"
)

// SlotFinder lists bookable slots from the clinic calendar.
type SlotFinder interface {
	Slots(ctx context.Context, clinicID string, slotMinutes int) ([]flashoffer.Gap, error)
}

// Handler serves the booking wizard's qualification step.
type Handler struct {
	service     *Service
	slots       SlotFinder
	slotMinutes int
	logger      *logging.Logger
}

func NewHandler(service *Service, slots SlotFinder, slotMinutes int, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if slotMinutes <= 0 {
		slotMinutes = 60
	}
	return &Handler{service: service, slots: slots, slotMinutes: slotMinutes, logger: logger}
}

// RegisterRoutes mounts the public booking wizard endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/bant/qualify", h.Qualify)
	r.Get("/booking/slots", h.Slots)
}

type qualifyRequest struct {
	ClinicID  string `json:"clinic_id"`
	PatientID string `json:"patient_id"`
	Input
}

// Qualify handles POST /api/bant/qualify.
func (h *Handler) Qualify(w http.ResponseWriter, r *http.Request) {
	var req qualifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.Write(w, h.logger, apierr.BadRequest("invalid request body"))
		return
	}
	if strings.TrimSpace(req.ClinicID) == "" || strings.TrimSpace(req.PatientID) == "" {
		apierr.Write(w, h.logger, apierr.BadRequest("clinic_id and patient_id are required"))
		return
	}
	if req.Budget < 0 || req.TimelineDays < 0 {
		apierr.Write(w, h.logger, apierr.BadRequest("budget and timeline_days must be non-negative"))
		return
	}

	eval, err := h.service.Evaluate(r.Context(), req.ClinicID, req.PatientID, req.Input)
	if errors.Is(err, ErrPatientNotFound) {
		apierr.Write(w, h.logger, apierr.NotFound("patient not found"))
		return
	}
	if err != nil {
		apierr.Write(w, h.logger, apierr.Upstream("failed to qualify lead", err))
		return
	}
	apierr.WriteJSON(w, http.StatusCreated, eval)
}

type slotsResponse struct {
	Slots       []flashoffer.Gap `json:"slots"`
	SlotMinutes int              `json:"slot_minutes"`
}

// Slots handles GET /api/booking/slots. Calendar slots are only revealed to
// patients whose latest score is qualified.
func (h *Handler) Slots(w http.ResponseWriter, r *http.Request) {
	clinicID := strings.TrimSpace(r.URL.Query().Get("clinic_id"))
	patientID := strings.TrimSpace(r.URL.Query().Get("patient_id"))
	if clinicID == "" || patientID == "" {
		apierr.Write(w, h.logger, apierr.BadRequest("clinic_id and patient_id are required"))
		return
	}

	score, err := h.service.Latest(r.Context(), clinicID, patientID)
	switch {
	case errors.Is(err, ErrNoScore):
		apierr.WriteJSON(w, http.StatusForbidden, map[string]any{
			"error": "lead must be qualified before booking",
			"code":  apierr.CodeForbidden,
			"recommendation": Recommendation{
				Action:   "qualify",
				Priority: "medium",
				Message:  "Completar el cuestionario de calificación antes de reservar.",
			},
		})
		return
	case err != nil:
		apierr.Write(w, h.logger, apierr.Upstream("failed to load qualification", err))
		return
	}
	if score.Status != StatusQualified {
		apierr.WriteJSON(w, http.StatusForbidden, map[string]any{
			"error":          "lead must be qualified before booking",
			"code":           apierr.CodeForbidden,
			"status":         score.Status,
			"recommendation": Recommend(*score),
		})
		return
	}

	slots, err := h.slots.Slots(r.Context(), clinicID, h.slotMinutes)
	if err != nil {
		apierr.Write(w, h.logger, apierr.Upstream("failed to load calendar", err))
		return
	}
	if slots == nil {
		slots = []flashoffer.Gap{}
	}
	apierr.WriteJSON(w, http.StatusOK, slotsResponse{Slots: slots, SlotMinutes: h.slotMinutes})
}
