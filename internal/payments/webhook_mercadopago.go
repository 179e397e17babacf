package payments

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/wolfman30/clinic-growth-platform/internal/apierr"
	"github.com/wolfman30/clinic-growth-platform/internal/observability/metrics"
	"github.com/wolfman30/clinic-growth-platform/pkg/logging"
)

type paymentFetcher interface {
	GetPayment(ctx context.Context, id string) (*MercadoPagoPayment, error)
}

type confirmer interface {
	Confirm(ctx context.Context, conf Confirmation) (*Result, error)
}

// MercadoPagoWebhookHandler receives Mercado Pago notifications.
type MercadoPagoWebhookHandler struct {
	secret    string
	payments  paymentFetcher
	confirmer confirmer
	metrics   *metrics.GrowthMetrics
	logger    *logging.Logger
}

func NewMercadoPagoWebhookHandler(secret string, payments paymentFetcher, confirmer confirmer, m *metrics.GrowthMetrics, logger *logging.Logger) *MercadoPagoWebhookHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &MercadoPagoWebhookHandler{
		secret:    secret,
		payments:  payments,
		confirmer: confirmer,
		metrics:   m,
		logger:    logger,
	}
}

func (h *MercadoPagoWebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		apierr.Write(w, h.logger, apierr.BadRequest("invalid body"))
		return
	}

	query := r.URL.Query()
	dataID := query.Get("data.id")
	if dataID == "" {
		dataID = gjson.GetBytes(payload, "data.id").String()
	}
	kind := query.Get("type")
	if kind == "" {
		kind = gjson.GetBytes(payload, "type").String()
	}

	if !VerifyMercadoPagoSignature(h.secret, r.Header.Get("x-signature"), r.Header.Get("x-request-id"), dataID) {
		h.metrics.ObserveWebhook(ProviderMercadoPago, "invalid_signature")
		apierr.Write(w, h.logger, apierr.Unauthorized("invalid signature"))
		return
	}
	if kind != "payment" {
		h.metrics.ObserveWebhook(ProviderMercadoPago, "ignored")
		apierr.WriteJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}
	if dataID == "" {
		apierr.Write(w, h.logger, apierr.BadRequest("missing data.id"))
		return
	}

	payment, err := h.payments.GetPayment(r.Context(), dataID)
	if err != nil {
		h.metrics.ObserveWebhook(ProviderMercadoPago, "fetch_failed")
		apierr.Write(w, h.logger, apierr.Upstream("could not load payment", err))
		return
	}
	outcome := payment.Outcome()
	if outcome == OutcomePending {
		h.metrics.ObserveWebhook(ProviderMercadoPago, "pending")
		apierr.WriteJSON(w, http.StatusOK, map[string]string{"status": "pending"})
		return
	}

	res, err := h.confirmer.Confirm(r.Context(), Confirmation{
		Provider:          ProviderMercadoPago,
		EventID:           payment.ID + ":" + payment.Status,
		ExternalReference: payment.ExternalReference,
		ProviderPaymentID: payment.ID,
		Outcome:           outcome,
		Amount:            payment.Amount,
		PaidAt:            payment.ApprovedAt,
	})
	writeConfirmResult(w, h.logger, h.metrics, ProviderMercadoPago, res, err, payment.ExternalReference)
}

// writeConfirmResult acknowledges events that can never succeed so the
// provider stops retrying, and fails the rest with 5xx.
func writeConfirmResult(w http.ResponseWriter, logger *logging.Logger, m *metrics.GrowthMetrics, provider string, res *Result, err error, ref string) {
	switch {
	case errors.Is(err, ErrAppointmentNotFound):
		logger.Warn("payments: webhook for unknown appointment", "provider", provider, "reference", ref)
		m.ObserveWebhook(provider, "unknown_appointment")
		apierr.WriteJSON(w, http.StatusOK, map[string]string{"status": "unknown_appointment"})
	case errors.Is(err, ErrAmountMismatch):
		m.ObserveWebhook(provider, "amount_mismatch")
		apierr.WriteJSON(w, http.StatusOK, map[string]string{"status": "amount_mismatch"})
	case err != nil:
		m.ObserveWebhook(provider, "error")
		apierr.Write(w, logger, err)
	case res.Duplicate:
		m.ObserveWebhook(provider, "duplicate")
		apierr.WriteJSON(w, http.StatusOK, res)
	default:
		m.ObserveWebhook(provider, string(res.Outcome))
		apierr.WriteJSON(w, http.StatusOK, res)
	}
}
