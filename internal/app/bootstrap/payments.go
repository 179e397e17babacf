package bootstrap

import (
	"github.com/wolfman30/clinic-growth-platform/internal/ads"
	"github.com/wolfman30/clinic-growth-platform/internal/config"
	"github.com/wolfman30/clinic-growth-platform/internal/httpx"
	"github.com/wolfman30/clinic-growth-platform/internal/invoicing"
	"github.com/wolfman30/clinic-growth-platform/internal/observability/metrics"
	"github.com/wolfman30/clinic-growth-platform/internal/payments"
	"github.com/wolfman30/clinic-growth-platform/pkg/logging"
)

// BuildConfirmer wires the payment confirmer with the optional e-invoicing
// and Google Ads integrations. Either is skipped when its credentials are
// missing.
func BuildConfirmer(cfg *config.Config, db payments.DB, logger *logging.Logger) *payments.Confirmer {
	confirmer := payments.NewConfirmer(db, logger)
	hc := httpx.NewClient(httpx.Config{Logger: logger})

	if inv, err := invoicing.New(invoicing.Config{
		BaseURL:    cfg.InvoicingBaseURL,
		APIKey:     cfg.InvoicingAPIKey,
		IssuerRUT:  cfg.InvoicingEmitterRUT,
		HTTPClient: hc,
		Logger:     logger,
	}); err != nil {
		logger.Info("e-invoicing disabled", "reason", err)
	} else {
		confirmer.WithInvoicer(inv)
	}

	if conv, err := ads.New(ads.Config{
		BaseURL:            cfg.GoogleAdsBaseURL,
		CustomerID:         cfg.GoogleAdsCustomerID,
		ConversionActionID: cfg.GoogleAdsConversionAction,
		DeveloperToken:     cfg.GoogleAdsDeveloperToken,
		AccessToken:        cfg.GoogleAdsAccessToken,
		HTTPClient:         hc,
		Logger:             logger,
	}); err != nil {
		logger.Info("google ads conversions disabled", "reason", err)
	} else {
		confirmer.WithConversions(conv)
	}
	return confirmer
}

// PaymentHandlers holds the provider callbacks. A provider without
// credentials yields a nil handler and its route stays unmounted.
type PaymentHandlers struct {
	MercadoPago *payments.MercadoPagoWebhookHandler
	Transbank   *payments.TransbankReturnHandler
}

// BuildPaymentHandlers creates the Mercado Pago webhook and Transbank return
// handlers around confirmer.
func BuildPaymentHandlers(cfg *config.Config, confirmer *payments.Confirmer, m *metrics.GrowthMetrics, logger *logging.Logger) PaymentHandlers {
	var out PaymentHandlers
	hc := httpx.NewClient(httpx.Config{Logger: logger})

	mp, err := payments.NewMercadoPagoClient(payments.MercadoPagoConfig{
		BaseURL:     cfg.MercadoPagoBaseURL,
		AccessToken: cfg.MercadoPagoAccessToken,
		HTTPClient:  hc,
		Logger:      logger,
	})
	if err != nil {
		logger.Warn("mercado pago webhook disabled", "reason", err)
	} else {
		out.MercadoPago = payments.NewMercadoPagoWebhookHandler(cfg.MercadoPagoWebhookSecret, mp, confirmer, m, logger)
	}

	tb, err := payments.NewTransbankClient(payments.TransbankConfig{
		BaseURL:      cfg.TransbankBaseURL,
		CommerceCode: cfg.TransbankCommerceCode,
		APIKey:       cfg.TransbankAPIKey,
		Production:   cfg.Env == "production",
		HTTPClient:   hc,
		Logger:       logger,
	})
	if err != nil {
		logger.Warn("transbank return disabled", "reason", err)
	} else {
		out.Transbank = payments.NewTransbankReturnHandler(tb, confirmer, cfg.TransbankReturnURL, m, logger)
	}
	return out
}
