package behavior

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/clinic-growth-platform/internal/apierr"
	"github.com/wolfman30/clinic-growth-platform/pkg/logging"
)

// Handler exposes classification to the landing pages.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a behavior HTTP handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes mounts the public behavior endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/behavior/classify", h.Classify)
	r.Get("/landing/content", h.Content)
}

// Classify handles POST /api/behavior/classify.
func (h *Handler) Classify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.Write(w, h.logger, apierr.BadRequest("invalid request body"))
		return
	}
	if strings.TrimSpace(req.ClinicID) == "" {
		apierr.Write(w, h.logger, apierr.BadRequest("clinic_id is required"))
		return
	}

	result, err := h.service.ClassifySession(r.Context(), req)
	switch {
	case errors.Is(err, ErrSessionRequired):
		apierr.Write(w, h.logger, apierr.BadRequest("session_id is required"))
		return
	case errors.Is(err, ErrNotReady):
		apierr.Write(w, h.logger, apierr.BadRequest("session observed for less than 30 seconds"))
		return
	case errors.Is(err, ErrPatientNotFound):
		apierr.Write(w, h.logger, apierr.NotFound("patient not found"))
		return
	case err != nil:
		apierr.Write(w, h.logger, apierr.Upstream("failed to classify session", err))
		return
	}
	apierr.WriteJSON(w, http.StatusOK, result)
}

// Content handles GET /api/landing/content?profile=...
func (h *Handler) Content(w http.ResponseWriter, r *http.Request) {
	profile := Profile(strings.TrimSpace(r.URL.Query().Get("profile")))
	apierr.WriteJSON(w, http.StatusOK, ContentVariant(profile))
}
