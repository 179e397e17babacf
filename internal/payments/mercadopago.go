package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/wolfman30/clinic-growth-platform/internal/httpx"
	"github.com/wolfman30/clinic-growth-platform/pkg/logging"
)

const mercadoPagoBaseURL = "https://api.mercadopago.com"

type MercadoPagoConfig struct {
	BaseURL     string
	AccessToken string
	HTTPClient  *retryablehttp.Client
	Logger      *logging.Logger
}

// MercadoPagoClient reads payments from the Mercado Pago REST API.
type MercadoPagoClient struct {
	baseURL     string
	accessToken string
	http        *retryablehttp.Client
}

func NewMercadoPagoClient(cfg MercadoPagoConfig) (*MercadoPagoClient, error) {
	if cfg.AccessToken == "" {
		return nil, errors.New("payments: mercado pago access token required")
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = mercadoPagoBaseURL
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = httpx.NewClient(httpx.Config{Logger: cfg.Logger})
	}
	return &MercadoPagoClient{baseURL: base, accessToken: cfg.AccessToken, http: hc}, nil
}

// MercadoPagoPayment is the subset of a payment resource we act on.
type MercadoPagoPayment struct {
	ID                string
	Status            string
	StatusDetail      string
	ExternalReference string
	Amount            int64
	ApprovedAt        time.Time
}

// Outcome maps the payment status onto a confirmation outcome.
func (p *MercadoPagoPayment) Outcome() Outcome {
	switch p.Status {
	case "approved":
		return OutcomeApproved
	case "rejected", "cancelled", "refunded", "charged_back":
		return OutcomeFailed
	default:
		return OutcomePending
	}
}

// GetPayment fetches a payment by id.
func (c *MercadoPagoClient) GetPayment(ctx context.Context, id string) (*MercadoPagoPayment, error) {
	body, err := httpx.Do(ctx, c.http, http.MethodGet, c.baseURL+"/v1/payments/"+url.PathEscape(id),
		map[string]string{"Authorization": "Bearer " + c.accessToken}, nil)
	if err != nil {
		return nil, fmt.Errorf("payments: mercado pago get payment %s: %w", id, err)
	}
	res := gjson.ParseBytes(body)
	p := &MercadoPagoPayment{
		ID:                res.Get("id").String(),
		Status:            res.Get("status").String(),
		StatusDetail:      res.Get("status_detail").String(),
		ExternalReference: res.Get("external_reference").String(),
		Amount:            int64(math.Round(res.Get("transaction_amount").Float())),
	}
	if raw := res.Get("date_approved").String(); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			p.ApprovedAt = t.UTC()
		}
	}
	if p.ID == "" {
		return nil, fmt.Errorf("payments: mercado pago payment %s: empty response", id)
	}
	return p, nil
}

// VerifyMercadoPagoSignature checks the x-signature header ("ts=...,v1=...")
// against the HMAC-SHA256 of the manifest "id:{data.id};request-id:{x-request-id};ts:{ts};".
func VerifyMercadoPagoSignature(secret, header, requestID, dataID string) bool {
	if secret == "" || header == "" {
		return false
	}
	var ts, v1 string
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch key {
		case "ts":
			ts = value
		case "v1":
			v1 = value
		}
	}
	if ts == "" || v1 == "" {
		return false
	}
	expected := signMercadoPago(secret, mercadoPagoManifest(dataID, requestID, ts))
	return hmac.Equal([]byte(strings.ToLower(v1)), []byte(expected))
}

func mercadoPagoManifest(dataID, requestID, ts string) string {
	var b strings.Builder
	if dataID != "" {
		b.WriteString("id:" + strings.ToLower(dataID) + ";")
	}
	if requestID != "" {
		b.WriteString("request-id:" + requestID + ";")
	}
	b.WriteString("ts:" + ts + ";")
	return b.String()
}

func signMercadoPago(secret, manifest string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(manifest))
	return hex.EncodeToString(mac.Sum(nil))
}
