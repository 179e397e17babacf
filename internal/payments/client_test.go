package payments

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMercadoPagoGetPayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payments/123", r.URL.Path)
		assert.Equal(t, "Bearer mp-token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"id":123,"status":"approved","status_detail":"accredited","external_reference":"ORD-a","transaction_amount":150000.0,"date_approved":"2026-05-04T10:00:00.000-04:00"}`))
	}))
	defer srv.Close()

	c, err := NewMercadoPagoClient(MercadoPagoConfig{BaseURL: srv.URL, AccessToken: "mp-token"})
	require.NoError(t, err)
	p, err := c.GetPayment(context.Background(), "123")
	require.NoError(t, err)
	assert.Equal(t, "123", p.ID)
	assert.Equal(t, int64(150000), p.Amount)
	assert.Equal(t, "ORD-a", p.ExternalReference)
	assert.Equal(t, time.Date(2026, 5, 4, 14, 0, 0, 0, time.UTC), p.ApprovedAt)
	assert.Equal(t, OutcomeApproved, p.Outcome())
}

func TestTransbankCommit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/rswebpaytransaction/api/webpay/v1.2/transactions/tok-1", r.URL.Path)
		assert.Equal(t, "597055555532", r.Header.Get("Tbk-Api-Key-Id"))
		assert.Equal(t, "key", r.Header.Get("Tbk-Api-Key-Secret"))
		_, _ = w.Write([]byte(`{"vci":"TSY","amount":150000,"status":"AUTHORIZED","buy_order":"ORD-1","session_id":"s1","authorization_code":"1213","payment_type_code":"VN","response_code":0,"transaction_date":"2026-05-04T14:00:00.000Z"}`))
	}))
	defer srv.Close()

	c, err := NewTransbankClient(TransbankConfig{BaseURL: srv.URL, CommerceCode: "597055555532", APIKey: "key"})
	require.NoError(t, err)
	commit, err := c.Commit(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "ORD-1", commit.BuyOrder)
	assert.Equal(t, int64(150000), commit.Amount)
	assert.Equal(t, OutcomeApproved, commit.Outcome())
}

func TestNewClientsRequireCredentials(t *testing.T) {
	_, err := NewMercadoPagoClient(MercadoPagoConfig{})
	assert.Error(t, err)
	_, err = NewTransbankClient(TransbankConfig{CommerceCode: "1"})
	assert.Error(t, err)
}
