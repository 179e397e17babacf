package payments

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/wolfman30/clinic-growth-platform/internal/httpx"
	"github.com/wolfman30/clinic-growth-platform/pkg/logging"
)

const (
	transbankProductionURL  = "https://webpay3g.transbank.cl"
	transbankIntegrationURL = "https://webpay3gint.transbank.cl"
	transbankCommitPath     = "/rswebpaytransaction/api/webpay/v1.2/transactions/"
)

type TransbankConfig struct {
	BaseURL      string
	CommerceCode string
	APIKey       string
	Production   bool
	HTTPClient   *retryablehttp.Client
	Logger       *logging.Logger
}

// TransbankClient commits Webpay Plus transactions.
type TransbankClient struct {
	baseURL      string
	commerceCode string
	apiKey       string
	http         *retryablehttp.Client
}

func NewTransbankClient(cfg TransbankConfig) (*TransbankClient, error) {
	if cfg.CommerceCode == "" || cfg.APIKey == "" {
		return nil, errors.New("payments: transbank commerce code and api key required")
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = transbankIntegrationURL
		if cfg.Production {
			base = transbankProductionURL
		}
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = httpx.NewClient(httpx.Config{Logger: cfg.Logger})
	}
	return &TransbankClient{baseURL: base, commerceCode: cfg.CommerceCode, apiKey: cfg.APIKey, http: hc}, nil
}

// TransbankCommit is the commit response.
type TransbankCommit struct {
	Status            string
	ResponseCode      int64
	BuyOrder          string
	SessionID         string
	Amount            int64
	AuthorizationCode string
	TransactionDate   time.Time
}

// Outcome is approved only for an AUTHORIZED transaction with response code 0.
func (c *TransbankCommit) Outcome() Outcome {
	if c.Status == "AUTHORIZED" && c.ResponseCode == 0 {
		return OutcomeApproved
	}
	return OutcomeFailed
}

// Commit confirms the transaction identified by token_ws.
func (c *TransbankClient) Commit(ctx context.Context, token string) (*TransbankCommit, error) {
	headers := map[string]string{
		"Tbk-Api-Key-Id":     c.commerceCode,
		"Tbk-Api-Key-Secret": c.apiKey,
		"Content-Type":       "application/json",
	}
	body, err := httpx.Do(ctx, c.http, http.MethodPut, c.baseURL+transbankCommitPath+url.PathEscape(token), headers, nil)
	if err != nil {
		return nil, fmt.Errorf("payments: transbank commit: %w", err)
	}
	res := gjson.ParseBytes(body)
	commit := &TransbankCommit{
		Status:            res.Get("status").String(),
		ResponseCode:      res.Get("response_code").Int(),
		BuyOrder:          res.Get("buy_order").String(),
		SessionID:         res.Get("session_id").String(),
		Amount:            res.Get("amount").Int(),
		AuthorizationCode: res.Get("authorization_code").String(),
	}
	if raw := res.Get("transaction_date").String(); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			commit.TransactionDate = t.UTC()
		}
	}
	if commit.BuyOrder == "" {
		return nil, errors.New("payments: transbank commit: response has no buy_order")
	}
	return commit, nil
}
