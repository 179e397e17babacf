package payments

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/wolfman30/clinic-growth-platform/internal/apierr"
	"github.com/wolfman30/clinic-growth-platform/internal/observability/metrics"
	"github.com/wolfman30/clinic-growth-platform/pkg/logging"
)

type transactionCommitter interface {
	Commit(ctx context.Context, token string) (*TransbankCommit, error)
}

// TransbankReturnHandler handles the Webpay Plus return URL. Transbank posts
// token_ws on a completed flow, TBK_TOKEN when the buyer aborts and only
// TBK_ORDEN_COMPRA when the form timed out. Only token_ws is committed and
// confirmed; the other two never change an appointment.
type TransbankReturnHandler struct {
	committer transactionCommitter
	confirmer confirmer
	returnURL string
	metrics   *metrics.GrowthMetrics
	logger    *logging.Logger
}

func NewTransbankReturnHandler(committer transactionCommitter, confirmer confirmer, returnURL string, m *metrics.GrowthMetrics, logger *logging.Logger) *TransbankReturnHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &TransbankReturnHandler{
		committer: committer,
		confirmer: confirmer,
		returnURL: strings.TrimSpace(returnURL),
		metrics:   m,
		logger:    logger,
	}
}

func (h *TransbankReturnHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		apierr.Write(w, h.logger, apierr.BadRequest("invalid form"))
		return
	}
	token := r.Form.Get("token_ws")
	abortToken := r.Form.Get("TBK_TOKEN")
	buyOrder := r.Form.Get("TBK_ORDEN_COMPRA")

	// An aborted payment form can post token_ws and TBK_TOKEN together.
	if abortToken != "" || (token == "" && buyOrder != "") {
		h.abandoned(w, r, abortToken, buyOrder)
		return
	}
	if token == "" {
		apierr.Write(w, h.logger, apierr.BadRequest("missing token_ws"))
		return
	}

	commit, err := h.committer.Commit(r.Context(), token)
	if err != nil {
		h.metrics.ObserveWebhook(ProviderTransbank, "commit_failed")
		apierr.Write(w, h.logger, apierr.Upstream("could not commit transaction", err))
		return
	}
	conf := Confirmation{
		Provider:          ProviderTransbank,
		EventID:           "commit:" + token,
		ExternalReference: commit.BuyOrder,
		ProviderPaymentID: commit.AuthorizationCode,
		Outcome:           commit.Outcome(),
		Amount:            commit.Amount,
		PaidAt:            commit.TransactionDate,
	}

	res, err := h.confirmer.Confirm(r.Context(), conf)
	if err == nil && h.returnURL != "" {
		h.metrics.ObserveWebhook(ProviderTransbank, string(res.Outcome))
		http.Redirect(w, r, h.redirectURL(res), http.StatusSeeOther)
		return
	}
	writeConfirmResult(w, h.logger, h.metrics, ProviderTransbank, res, err, conf.ExternalReference)
}

// abandoned handles the abort and timeout returns. Their form fields are not
// signed, so the appointment is left untouched: it stays an open cart and the
// buyer is only sent back to the clinic.
func (h *TransbankReturnHandler) abandoned(w http.ResponseWriter, r *http.Request, abortToken, buyOrder string) {
	reason := "timeout"
	if abortToken != "" {
		reason = "aborted"
	}
	h.metrics.ObserveWebhook(ProviderTransbank, reason)
	h.logger.Info("payments: webpay flow abandoned", "reason", reason, "buy_order", buyOrder)
	if h.returnURL != "" {
		http.Redirect(w, r, h.buildReturnURL("cancelled", ""), http.StatusSeeOther)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, map[string]string{"status": reason})
}

func (h *TransbankReturnHandler) redirectURL(res *Result) string {
	status := "failed"
	if res.Outcome == OutcomeApproved {
		status = "paid"
	}
	return h.buildReturnURL(status, res.AppointmentID)
}

func (h *TransbankReturnHandler) buildReturnURL(status, appointmentID string) string {
	q := url.Values{}
	q.Set("status", status)
	if appointmentID != "" {
		q.Set("appointment_id", appointmentID)
	}
	sep := "?"
	if strings.Contains(h.returnURL, "?") {
		sep = "&"
	}
	return h.returnURL + sep + q.Encode()
}
