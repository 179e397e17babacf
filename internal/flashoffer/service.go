package flashoffer

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/clinic-growth-platform/internal/campaigns"
	"github.com/wolfman30/clinic-growth-platform/internal/messaging"
	"github.com/wolfman30/clinic-growth-platform/internal/messaging/templates"
	"github.com/wolfman30/clinic-growth-platform/internal/observability/metrics"
	"github.com/wolfman30/clinic-growth-platform/pkg/logging"
)

var tracer = otel.Tracer("clinic.internal.flashoffer")

const offerTemplate = "{{firstName .Name}}, ¡se liberó una hora! ⏰ Tienes {{.Discount}}% de descuento si te atiendes el {{.Date}} a las {{.Time}}. Responde SÍ para reservarla antes que otra persona."

// Sender delivers outreach.
type Sender interface {
	Send(ctx context.Context, msg messaging.Outbound) (messaging.Channel, error)
}

// Service detects calendar gaps and sends flash offers for them.
type Service struct {
	store       Store
	sender      Sender
	renderer    *templates.Renderer
	logger      *logging.Logger
	metrics     *metrics.GrowthMetrics
	loc         *time.Location
	minGap      time.Duration
	discountPct int
	now         func() time.Time
}

func NewService(store Store, sender Sender, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		store:       store,
		sender:      sender,
		renderer:    &templates.Renderer{},
		logger:      logger.WithComponent("flashoffer"),
		loc:         time.UTC,
		minGap:      time.Hour,
		discountPct: 20,
		now:         time.Now,
	}
}

// WithMetrics attaches prometheus counters.
func (s *Service) WithMetrics(m *metrics.GrowthMetrics) *Service {
	s.metrics = m
	return s
}

// WithDefaults sets the minimum gap and discount used by Run.
func (s *Service) WithDefaults(minGap time.Duration, discountPct int) *Service {
	if minGap > 0 {
		s.minGap = minGap
	}
	if discountPct > 0 && discountPct < 100 {
		s.discountPct = discountPct
	}
	return s
}

// WithLocation sets the time zone offer times are written in.
func (s *Service) WithLocation(loc *time.Location) *Service {
	if loc != nil {
		s.loc = loc
	}
	return s
}

// DetectGaps returns idle calendar windows of at least minDuration in the next 24 hours.
func (s *Service) DetectGaps(ctx context.Context, clinicID string, minDuration time.Duration) ([]Gap, error) {
	from := s.now().UTC()
	to := from.Add(Window)
	bookings, err := s.store.BookedBetween(ctx, clinicID, from, to)
	if err != nil {
		return nil, err
	}
	return FindGaps(from, to, bookings, minDuration), nil
}

// Slots returns bookable slots of slotMinutes within the next 24 hours.
func (s *Service) Slots(ctx context.Context, clinicID string, slotMinutes int) ([]Gap, error) {
	slot := time.Duration(slotMinutes) * time.Minute
	gaps, err := s.DetectGaps(ctx, clinicID, slot)
	if err != nil {
		return nil, err
	}
	return SplitSlots(gaps, slot), nil
}

// CreateFlashOffer offers gap to every eligible patient and returns how many
// messages were sent. No eligible patients is not an error.
func (s *Service) CreateFlashOffer(ctx context.Context, clinicID string, gap Gap, discountPct int) (int, error) {
	ctx, span := tracer.Start(ctx, "flashoffer.create")
	defer span.End()
	span.SetAttributes(attribute.String("clinic.clinic_id", clinicID))

	recipients, err := s.store.Targets(ctx, clinicID, s.now().UTC())
	if err != nil {
		return 0, err
	}
	if len(recipients) == 0 {
		return 0, nil
	}

	offer := &Offer{
		ClinicID:    clinicID,
		GapStart:    gap.Start,
		GapEnd:      gap.End,
		DiscountPct: discountPct,
		ExpiresAt:   gap.Start,
	}
	if err := s.store.CreateOffer(ctx, offer); err != nil {
		return 0, err
	}

	logger := s.logger.WithClinic(clinicID)
	local := gap.Start.In(s.loc)
	sent := 0
	for _, r := range recipients {
		body, err := s.renderer.Render("flashoffer", offerTemplate, map[string]any{
			"Name":     r.Name,
			"Discount": discountPct,
			"Date":     local.Format("02/01"),
			"Time":     local.Format("15:04"),
		})
		if err != nil {
			return sent, err
		}
		channel := messaging.ChannelWhatsApp
		if r.Phone == "" {
			channel = messaging.ChannelEmail
		}
		entry := &campaigns.Log{
			ClinicID:  clinicID,
			PatientID: r.PatientID,
			Type:      campaigns.TypeFlashOffer,
			Trigger:   offer.ID,
			Channel:   string(channel),
			Message:   body,
		}
		if _, err := s.store.RecordCampaign(ctx, entry); err != nil {
			logger.Error("flashoffer: record campaign", "patient_id", r.PatientID, "error", err)
			continue
		}
		used, sendErr := s.sender.Send(ctx, messaging.Outbound{
			ClinicID:  clinicID,
			PatientID: r.PatientID,
			Name:      r.Name,
			Phone:     r.Phone,
			Email:     r.Email,
			Channel:   channel,
			Subject:   fmt.Sprintf("%d%% de descuento en tu próxima hora", discountPct),
			Body:      body,
			Category:  "flash_offer",
		})
		status, errMsg := campaigns.StatusSent, ""
		if sendErr != nil {
			status, errMsg = campaigns.StatusFailed, sendErr.Error()
			s.metrics.ObserveFlashOffer("failed")
			logger.Warn("flashoffer: send failed", "patient_id", r.PatientID, "error", sendErr)
		} else {
			sent++
			s.metrics.ObserveFlashOffer("sent")
		}
		if err := s.store.MarkCampaignStatus(ctx, entry.ID, status, string(used), errMsg); err != nil {
			logger.Warn("flashoffer: mark campaign", "campaign_id", entry.ID, "error", err)
		}
	}

	if err := s.store.SetSentCount(ctx, offer.ID, sent); err != nil {
		logger.Warn("flashoffer: update sent count", "offer_id", offer.ID, "error", err)
	}
	span.SetAttributes(attribute.Int("flashoffer.sent", sent))
	logger.Info("flashoffer: offer sent", "offer_id", offer.ID, "gap_start", gap.Start, "sent", sent)
	return sent, nil
}

// Run detects gaps with the configured minimum and creates an offer for each.
func (s *Service) Run(ctx context.Context, clinicID string) (*RunResult, error) {
	gaps, err := s.DetectGaps(ctx, clinicID, s.minGap)
	if err != nil {
		return nil, err
	}
	result := &RunResult{ClinicID: clinicID, Gaps: len(gaps)}
	for _, g := range gaps {
		n, err := s.CreateFlashOffer(ctx, clinicID, g, s.discountPct)
		result.Sent += n
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("gap %s: %v", g.Start.Format(time.RFC3339), err))
		}
	}
	return result, nil
}

// RunOptions overrides the service defaults for one clinic.
type RunOptions struct {
	MinGap      time.Duration
	DiscountPct int
	Location    *time.Location
}

// RunWith is Run using per-clinic settings. Zero fields keep the defaults.
func (s *Service) RunWith(ctx context.Context, clinicID string, opts RunOptions) (*RunResult, error) {
	scoped := *s
	scoped.WithDefaults(opts.MinGap, opts.DiscountPct).WithLocation(opts.Location)
	return scoped.Run(ctx, clinicID)
}
