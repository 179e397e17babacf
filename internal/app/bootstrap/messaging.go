package bootstrap

import (
	"github.com/wolfman30/clinic-growth-platform/internal/config"
	"github.com/wolfman30/clinic-growth-platform/internal/httpx"
	"github.com/wolfman30/clinic-growth-platform/internal/messaging"
	"github.com/wolfman30/clinic-growth-platform/internal/messaging/compliance"
	"github.com/wolfman30/clinic-growth-platform/internal/messaging/whatsapp"
	"github.com/wolfman30/clinic-growth-platform/internal/notify"
	"github.com/wolfman30/clinic-growth-platform/pkg/logging"
)

// BuildEmailSender returns SendGrid when an API key is configured and a
// logging stub otherwise.
func BuildEmailSender(cfg *config.Config, logger *logging.Logger) notify.EmailSender {
	if sg := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); sg != nil {
		return sg
	}
	logger.Warn("SENDGRID_API_KEY not set; emails will only be logged")
	return notify.NewStubEmailSender(logger)
}

// BuildDispatcher wires WhatsApp, email, call tasks and quiet hours into the
// outbound dispatcher used by every campaign. A missing WhatsApp config
// leaves the channel disabled so messages fall back to email.
func BuildDispatcher(cfg *config.Config, calls *messaging.Store, logger *logging.Logger) *messaging.Dispatcher {
	if logger == nil {
		logger = logging.Default()
	}

	var wa messaging.TextSender
	client, err := whatsapp.New(whatsapp.Config{
		BaseURL:       cfg.WhatsAppBaseURL,
		AccessToken:   cfg.WhatsAppAccessToken,
		PhoneNumberID: cfg.WhatsAppPhoneNumberID,
		HTTPClient:    httpx.NewClient(httpx.Config{Logger: logger}),
		Logger:        logger,
	})
	if err != nil {
		logger.Warn("whatsapp disabled", "reason", err)
	} else {
		wa = client
	}

	dispatcher := messaging.NewDispatcher(wa, BuildEmailSender(cfg, logger), logger.WithComponent("dispatcher"))

	quiet, err := compliance.ParseQuietHours(cfg.QuietHoursStart, cfg.QuietHoursEnd, cfg.QuietHoursTimezone)
	if err != nil {
		logger.Warn("invalid quiet hours; using defaults", "error", err)
		quiet = compliance.DefaultQuietHours()
	}
	dispatcher.WithQuietHours(quiet)

	if calls != nil {
		dispatcher.WithCallTasks(calls)
	}
	return dispatcher
}
