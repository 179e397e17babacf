package payments

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	payment *MercadoPagoPayment
	err     error
	calls   int
}

func (s *stubFetcher) GetPayment(_ context.Context, _ string) (*MercadoPagoPayment, error) {
	s.calls++
	return s.payment, s.err
}

type stubConfirmer struct {
	got []Confirmation
	res *Result
	err error
}

func (s *stubConfirmer) Confirm(_ context.Context, conf Confirmation) (*Result, error) {
	s.got = append(s.got, conf)
	if s.err != nil {
		return nil, s.err
	}
	if s.res != nil {
		return s.res, nil
	}
	return &Result{AppointmentID: testApptID, Outcome: conf.Outcome}, nil
}

func signedMercadoPagoRequest(t *testing.T, secret, dataID, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/mercadopago?type=payment&data.id="+dataID, strings.NewReader(body))
	ts := "1746360000"
	sig := signMercadoPago(secret, mercadoPagoManifest(dataID, "req-1", ts))
	req.Header.Set("x-request-id", "req-1")
	req.Header.Set("x-signature", fmt.Sprintf("ts=%s,v1=%s", ts, sig))
	return req
}

func TestVerifyMercadoPagoSignature(t *testing.T) {
	sig := signMercadoPago("secret", "id:123;request-id:req-1;ts:42;")
	assert.True(t, VerifyMercadoPagoSignature("secret", "ts=42,v1="+sig, "req-1", "123"))
	assert.False(t, VerifyMercadoPagoSignature("secret", "ts=43,v1="+sig, "req-1", "123"))
	assert.False(t, VerifyMercadoPagoSignature("other", "ts=42,v1="+sig, "req-1", "123"))
	assert.False(t, VerifyMercadoPagoSignature("", "ts=42,v1="+sig, "req-1", "123"))
	assert.False(t, VerifyMercadoPagoSignature("secret", "v1="+sig, "req-1", "123"))
}

func TestMercadoPagoWebhookApproved(t *testing.T) {
	fetcher := &stubFetcher{payment: &MercadoPagoPayment{ID: "123", Status: "approved", ExternalReference: "ORD-x", Amount: 150000}}
	conf := &stubConfirmer{}
	h := NewMercadoPagoWebhookHandler("secret", fetcher, conf, nil, nil)

	rec := httptest.NewRecorder()
	h.Handle(rec, signedMercadoPagoRequest(t, "secret", "123", `{"type":"payment","data":{"id":"123"}}`))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, conf.got, 1)
	assert.Equal(t, OutcomeApproved, conf.got[0].Outcome)
	assert.Equal(t, "123:approved", conf.got[0].EventID)
	assert.Equal(t, "ORD-x", conf.got[0].ExternalReference)
}

func TestMercadoPagoWebhookRejectsBadSignature(t *testing.T) {
	fetcher := &stubFetcher{}
	h := NewMercadoPagoWebhookHandler("secret", fetcher, &stubConfirmer{}, nil, nil)

	rec := httptest.NewRecorder()
	h.Handle(rec, signedMercadoPagoRequest(t, "wrong", "123", `{}`))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, fetcher.calls)
}

func TestMercadoPagoWebhookIgnoresOtherTypes(t *testing.T) {
	fetcher := &stubFetcher{}
	h := NewMercadoPagoWebhookHandler("secret", fetcher, &stubConfirmer{}, nil, nil)

	req := signedMercadoPagoRequest(t, "secret", "77", `{}`)
	req.URL.RawQuery = "type=merchant_order&data.id=77"
	rec := httptest.NewRecorder()
	h.Handle(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ignored")
	assert.Zero(t, fetcher.calls)
}

func TestMercadoPagoWebhookStatusMapping(t *testing.T) {
	tests := []struct {
		status  string
		outcome Outcome
		calls   int
	}{
		{"rejected", OutcomeFailed, 1},
		{"cancelled", OutcomeFailed, 1},
		{"in_process", OutcomePending, 0},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			fetcher := &stubFetcher{payment: &MercadoPagoPayment{ID: "9", Status: tt.status, ExternalReference: "ref"}}
			conf := &stubConfirmer{}
			h := NewMercadoPagoWebhookHandler("secret", fetcher, conf, nil, nil)
			rec := httptest.NewRecorder()
			h.Handle(rec, signedMercadoPagoRequest(t, "secret", "9", `{}`))
			assert.Equal(t, http.StatusOK, rec.Code)
			require.Len(t, conf.got, tt.calls)
			if tt.calls > 0 {
				assert.Equal(t, tt.outcome, conf.got[0].Outcome)
			}
		})
	}
}

func TestMercadoPagoWebhookAcknowledgesUnknownAppointment(t *testing.T) {
	fetcher := &stubFetcher{payment: &MercadoPagoPayment{ID: "1", Status: "approved"}}
	h := NewMercadoPagoWebhookHandler("secret", fetcher, &stubConfirmer{err: ErrAppointmentNotFound}, nil, nil)
	rec := httptest.NewRecorder()
	h.Handle(rec, signedMercadoPagoRequest(t, "secret", "1", `{}`))
	assert.Equal(t, http.StatusOK, rec.Code)

	h = NewMercadoPagoWebhookHandler("secret", fetcher, &stubConfirmer{err: fmt.Errorf("payments: commit: boom")}, nil, nil)
	rec = httptest.NewRecorder()
	h.Handle(rec, signedMercadoPagoRequest(t, "secret", "1", `{}`))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

type stubCommitter struct {
	commit *TransbankCommit
	err    error
}

func (s *stubCommitter) Commit(_ context.Context, _ string) (*TransbankCommit, error) {
	return s.commit, s.err
}

func postForm(values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/transbank", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestTransbankReturnCommitsAndRedirects(t *testing.T) {
	committer := &stubCommitter{commit: &TransbankCommit{Status: "AUTHORIZED", ResponseCode: 0, BuyOrder: "ORD-1", Amount: 150000, AuthorizationCode: "1213"}}
	conf := &stubConfirmer{}
	h := NewTransbankReturnHandler(committer, conf, "https://clinica.cl/pago", nil, nil)

	rec := httptest.NewRecorder()
	h.Handle(rec, postForm(url.Values{"token_ws": {"tok-1"}}))

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "https://clinica.cl/pago?appointment_id="+testApptID+"&status=paid", rec.Header().Get("Location"))
	require.Len(t, conf.got, 1)
	assert.Equal(t, "commit:tok-1", conf.got[0].EventID)
	assert.Equal(t, "ORD-1", conf.got[0].ExternalReference)
	assert.Equal(t, OutcomeApproved, conf.got[0].Outcome)
}

func TestTransbankReturnAbortAndTimeoutLeaveAppointmentUntouched(t *testing.T) {
	conf := &stubConfirmer{}
	committer := &stubCommitter{err: fmt.Errorf("commit must not be called")}
	h := NewTransbankReturnHandler(committer, conf, "", nil, nil)

	rec := httptest.NewRecorder()
	h.Handle(rec, postForm(url.Values{"TBK_TOKEN": {"abort-1"}, "TBK_ORDEN_COMPRA": {"ORD-2"}}))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"aborted"`)

	rec = httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodGet, "/api/webhooks/transbank?TBK_ORDEN_COMPRA=ORD-3", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"timeout"`)

	rec = httptest.NewRecorder()
	h.Handle(rec, postForm(url.Values{"token_ws": {"tok-9"}, "TBK_TOKEN": {"abort-9"}, "TBK_ORDEN_COMPRA": {"ORD-9"}}))
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Empty(t, conf.got, "unsigned abort fields must not reach the confirmer")

	rec = httptest.NewRecorder()
	h.Handle(rec, postForm(url.Values{}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTransbankReturnAbortRedirects(t *testing.T) {
	conf := &stubConfirmer{}
	h := NewTransbankReturnHandler(&stubCommitter{}, conf, "https://clinica.cl/pago", nil, nil)

	rec := httptest.NewRecorder()
	h.Handle(rec, postForm(url.Values{"TBK_TOKEN": {"abort-1"}, "TBK_ORDEN_COMPRA": {"ORD-2"}}))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "https://clinica.cl/pago?status=cancelled", rec.Header().Get("Location"))
	assert.Empty(t, conf.got)
}

func TestTransbankCommitFailureIsUpstream(t *testing.T) {
	h := NewTransbankReturnHandler(&stubCommitter{err: fmt.Errorf("timeout")}, &stubConfirmer{}, "", nil, nil)
	rec := httptest.NewRecorder()
	h.Handle(rec, postForm(url.Values{"token_ws": {"tok"}}))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestTransbankCommitOutcome(t *testing.T) {
	assert.Equal(t, OutcomeApproved, (&TransbankCommit{Status: "AUTHORIZED"}).Outcome())
	assert.Equal(t, OutcomeFailed, (&TransbankCommit{Status: "AUTHORIZED", ResponseCode: -1}).Outcome())
	assert.Equal(t, OutcomeFailed, (&TransbankCommit{Status: "FAILED"}).Outcome())
}
