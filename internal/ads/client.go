// Package ads reports paid appointments back to Google Ads as offline click
// conversions so campaigns optimise for bookings, not form fills.
package ads

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/wolfman30/clinic-growth-platform/internal/httpx"
	"github.com/wolfman30/clinic-growth-platform/pkg/logging"
)

const defaultBaseURL = "https://googleads.googleapis.com/v17"

// ErrNoClickID is returned for conversions without a gclid; they cannot be
// attributed and are skipped by callers.
var ErrNoClickID = errors.New("ads: conversion has no gclid")

type Config struct {
	BaseURL            string
	CustomerID         string
	LoginCustomerID    string
	ConversionActionID string
	DeveloperToken     string
	AccessToken        string
	HTTPClient         *retryablehttp.Client
	Logger             *logging.Logger
}

// Conversion is one paid appointment attributed to an ad click.
type Conversion struct {
	GCLID         string
	AppointmentID string
	Value         int64
	Currency      string
	OccurredAt    time.Time
}

type Client struct {
	baseURL         string
	customerID      string
	loginCustomerID string
	actionID        string
	developerToken  string
	accessToken     string
	http            *retryablehttp.Client
	logger          *logging.Logger
}

func New(cfg Config) (*Client, error) {
	if cfg.CustomerID == "" || cfg.ConversionActionID == "" || cfg.DeveloperToken == "" || cfg.AccessToken == "" {
		return nil, errors.New("ads: customer id, conversion action, developer token and access token are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = httpx.NewClient(httpx.Config{Logger: logger})
	}
	return &Client{
		baseURL:         base,
		customerID:      digits(cfg.CustomerID),
		loginCustomerID: digits(cfg.LoginCustomerID),
		actionID:        cfg.ConversionActionID,
		developerToken:  cfg.DeveloperToken,
		accessToken:     cfg.AccessToken,
		http:            hc,
		logger:          logger,
	}, nil
}

// FormatConversionTime renders t the way the API expects: "yyyy-mm-dd hh:mm:ss+hh:mm".
func FormatConversionTime(t time.Time) string {
	return t.Format("2006-01-02 15:04:05-07:00")
}

// UploadConversion sends one click conversion. Partial failures reported by
// the API are returned as errors.
func (c *Client) UploadConversion(ctx context.Context, conv Conversion) error {
	if strings.TrimSpace(conv.GCLID) == "" {
		return ErrNoClickID
	}
	currency := conv.Currency
	if currency == "" {
		currency = "CLP"
	}
	occurred := conv.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now()
	}
	payload := map[string]any{
		"conversions": []map[string]any{{
			"gclid":              conv.GCLID,
			"conversionAction":   fmt.Sprintf("customers/%s/conversionActions/%s", c.customerID, c.actionID),
			"conversionDateTime": FormatConversionTime(occurred),
			"conversionValue":    conv.Value,
			"currencyCode":       currency,
			"orderId":            conv.AppointmentID,
		}},
		"partialFailure": true,
	}
	headers := map[string]string{
		"Authorization":   "Bearer " + c.accessToken,
		"developer-token": c.developerToken,
	}
	if c.loginCustomerID != "" {
		headers["login-customer-id"] = c.loginCustomerID
	}

	url := fmt.Sprintf("%s/customers/%s:uploadClickConversions", c.baseURL, c.customerID)
	body, err := httpx.Do(ctx, c.http, http.MethodPost, url, headers, payload)
	if err != nil {
		return fmt.Errorf("ads: upload conversion: %w", err)
	}
	if msg := gjson.GetBytes(body, "partialFailureError.message").String(); msg != "" {
		return fmt.Errorf("ads: upload conversion: %s", msg)
	}
	c.logger.Debug("ads: conversion uploaded", "appointment_id", conv.AppointmentID, "value", conv.Value)
	return nil
}

func digits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
