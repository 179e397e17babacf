// Package whatsapp sends text messages through the WhatsApp Business Cloud API.
package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/wolfman30/clinic-growth-platform/internal/httpx"
	"github.com/wolfman30/clinic-growth-platform/pkg/logging"
)

const defaultBaseURL = "https://graph.facebook.com/v19.0"

// Config controls how the client reaches the Cloud API.
type Config struct {
	BaseURL       string
	AccessToken   string
	PhoneNumberID string
	HTTPClient    *retryablehttp.Client
	Logger        *logging.Logger
}

// Client wraps the /{phone-number-id}/messages endpoint.
type Client struct {
	baseURL       string
	accessToken   string
	phoneNumberID string
	http          *retryablehttp.Client
	logger        *logging.Logger
}

// New creates a configured Client.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.AccessToken) == "" {
		return nil, errors.New("whatsapp: access token is required")
	}
	if strings.TrimSpace(cfg.PhoneNumberID) == "" {
		return nil, errors.New("whatsapp: phone number id is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	client := cfg.HTTPClient
	if client == nil {
		client = httpx.NewClient(httpx.Config{Logger: logger})
	}
	return &Client{
		baseURL:       baseURL,
		accessToken:   cfg.AccessToken,
		phoneNumberID: cfg.PhoneNumberID,
		http:          client,
		logger:        logger,
	}, nil
}

type textMessage struct {
	MessagingProduct string `json:"messaging_product"`
	RecipientType    string `json:"recipient_type"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		PreviewURL bool   `json:"preview_url"`
		Body       string `json:"body"`
	} `json:"text"`
}

// SendText delivers a plain-text message and returns the WhatsApp message id.
func (c *Client) SendText(ctx context.Context, to, body string) (string, error) {
	to = NormalizePhone(to)
	if to == "" {
		return "", errors.New("whatsapp: recipient phone is required")
	}
	if strings.TrimSpace(body) == "" {
		return "", errors.New("whatsapp: message body is required")
	}

	msg := textMessage{MessagingProduct: "whatsapp", RecipientType: "individual", To: to, Type: "text"}
	msg.Text.PreviewURL = strings.Contains(body, "https://")
	msg.Text.Body = body

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneNumberID)
	resp, err := httpx.Do(ctx, c.http, http.MethodPost, url, map[string]string{
		"Authorization": "Bearer " + c.accessToken,
	}, msg)
	if err != nil {
		return "", fmt.Errorf("whatsapp: send text: %w", err)
	}
	id := gjson.GetBytes(resp, "messages.0.id").String()
	c.logger.Debug("whatsapp message accepted", "to", to, "message_id", id)
	return id, nil
}

// NormalizePhone strips formatting and the leading plus; the Cloud API wants
// digits only, country code included.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
