// Package invoicing issues electronic receipts (boletas, DTE type 39) through
// an SII-certified provider's HTTP API.
package invoicing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/wolfman30/clinic-growth-platform/internal/httpx"
	"github.com/wolfman30/clinic-growth-platform/pkg/logging"
)

// DocumentTypeBoleta is the SII code for an electronic receipt.
const DocumentTypeBoleta = 39

// anonymousRUT is the receiver SII accepts when the buyer gave no RUT.
const anonymousRUT = "66666666-6"

var ErrNoFolio = errors.New("invoicing: provider returned no folio")

type Config struct {
	BaseURL    string
	APIKey     string
	IssuerRUT  string
	HTTPClient *retryablehttp.Client
	Logger     *logging.Logger
}

// Boleta is one receipt for one paid appointment. Amount is the gross CLP
// total including IVA.
type Boleta struct {
	ClinicID      string
	AppointmentID string
	ReceiverRUT   string
	ReceiverName  string
	ReceiverEmail string
	Description   string
	Amount        int64
	IssuedAt      time.Time
}

type Client struct {
	baseURL   string
	apiKey    string
	issuerRUT string
	http      *retryablehttp.Client
	logger    *logging.Logger
}

func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" || cfg.APIKey == "" || cfg.IssuerRUT == "" {
		return nil, errors.New("invoicing: base url, api key and issuer rut are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = httpx.NewClient(httpx.Config{Logger: logger})
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		issuerRUT: cfg.IssuerRUT,
		http:      hc,
		logger:    logger,
	}, nil
}

// SplitIVA splits a gross amount into net and 19% IVA, rounding the net
// amount to the nearest peso.
func SplitIVA(total int64) (net, iva int64) {
	net = int64(math.Round(float64(total) / 1.19))
	return net, total - net
}

// IssueBoleta emits the receipt and returns its folio.
func (c *Client) IssueBoleta(ctx context.Context, b Boleta) (string, error) {
	if b.Amount <= 0 {
		return "", fmt.Errorf("invoicing: amount must be positive, got %d", b.Amount)
	}
	issued := b.IssuedAt
	if issued.IsZero() {
		issued = time.Now()
	}
	receiver := strings.TrimSpace(b.ReceiverRUT)
	if receiver == "" {
		receiver = anonymousRUT
	}
	description := b.Description
	if description == "" {
		description = "Servicio clínico"
	}
	net, iva := SplitIVA(b.Amount)

	payload := map[string]any{
		"response": []string{"FOLIO"},
		"dte": map[string]any{
			"Encabezado": map[string]any{
				"IdDoc": map[string]any{
					"TipoDTE":     DocumentTypeBoleta,
					"FchEmis":     issued.Format(time.DateOnly),
					"IndServicio": 3,
				},
				"Emisor": map[string]any{"RUTEmisor": c.issuerRUT},
				"Receptor": map[string]any{
					"RUTRecep":    receiver,
					"RznSocRecep": b.ReceiverName,
					"CorreoRecep": b.ReceiverEmail,
				},
				"Totales": map[string]any{
					"MntNeto":  net,
					"IVA":      iva,
					"MntTotal": b.Amount,
				},
			},
			"Detalle": []map[string]any{{
				"NroLinDet": 1,
				"NmbItem":   description,
				"QtyItem":   1,
				"PrcItem":   b.Amount,
				"MontoItem": b.Amount,
			}},
		},
	}
	headers := map[string]string{
		"apikey":          c.apiKey,
		"Idempotency-Key": b.AppointmentID,
	}
	body, err := httpx.Do(ctx, c.http, http.MethodPost, c.baseURL+"/v2/dte/document", headers, payload)
	if err != nil {
		return "", fmt.Errorf("invoicing: issue boleta: %w", err)
	}
	folio := gjson.GetBytes(body, "FOLIO").String()
	if folio == "" {
		return "", ErrNoFolio
	}
	c.logger.Info("invoicing: boleta issued", "clinic_id", b.ClinicID, "appointment_id", b.AppointmentID, "folio", folio)
	return folio, nil
}
