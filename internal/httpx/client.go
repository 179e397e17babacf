// Package httpx builds the retrying HTTP client shared by the outbound
// integrations (WhatsApp, payment providers, e-invoicing, Google Ads).
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/wolfman30/clinic-growth-platform/pkg/logging"
)

// Config controls retries and timeouts.
type Config struct {
	Timeout      time.Duration
	MaxRetries   int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	Logger       *logging.Logger
}

// NewClient returns a retryablehttp client. Retries follow the library's
// default policy for connection errors, 429 and 5xx. MaxRetries < 0 disables
// retries and 0 means 3.
func NewClient(cfg Config) *retryablehttp.Client {
	c := retryablehttp.NewClient()
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	c.HTTPClient.Timeout = cfg.Timeout
	switch {
	case cfg.MaxRetries > 0:
		c.RetryMax = cfg.MaxRetries
	case cfg.MaxRetries < 0:
		c.RetryMax = 0
	default:
		c.RetryMax = 3
	}
	if cfg.RetryWaitMin > 0 {
		c.RetryWaitMin = cfg.RetryWaitMin
	}
	if cfg.RetryWaitMax > 0 {
		c.RetryWaitMax = cfg.RetryWaitMax
	}
	c.Logger = nil
	if cfg.Logger != nil {
		c.Logger = cfg.Logger
	}
	return c
}

// StatusError is returned when the remote answers with a non-2xx status.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("httpx: unexpected status %d: %s", e.Status, e.Body)
}

// Do sends payload (JSON-encoded when not nil) and returns the response body.
func Do(ctx context.Context, client *retryablehttp.Client, method, url string, headers map[string]string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("httpx: marshal payload: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("httpx: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpx: %s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("httpx: read body: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return respBody, &StatusError{Status: resp.StatusCode, Body: truncate(string(respBody), 512)}
	}
	return respBody, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
