package pursuit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/clinic-growth-platform/internal/campaigns"
	"github.com/wolfman30/clinic-growth-platform/internal/messaging"
	"github.com/wolfman30/clinic-growth-platform/internal/messaging/templates"
	"github.com/wolfman30/clinic-growth-platform/internal/observability/metrics"
	"github.com/wolfman30/clinic-growth-platform/pkg/logging"
)

var tracer = otel.Tracer("clinic.internal.pursuit")

// Sender delivers outreach.
type Sender interface {
	Send(ctx context.Context, msg messaging.Outbound) (messaging.Channel, error)
}

// Scheduler runs abandoned-cart pursuit for a clinic.
type Scheduler struct {
	store           Store
	sender          Sender
	renderer        *templates.Renderer
	logger          *logging.Logger
	metrics         *metrics.GrowthMetrics
	paymentLinkBase string
	now             func() time.Time
}

func NewScheduler(store Store, sender Sender, logger *logging.Logger) *Scheduler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Scheduler{
		store:    store,
		sender:   sender,
		renderer: &templates.Renderer{},
		logger:   logger.WithComponent("pursuit"),
		now:      time.Now,
	}
}

// WithMetrics attaches prometheus counters.
func (s *Scheduler) WithMetrics(m *metrics.GrowthMetrics) *Scheduler {
	s.metrics = m
	return s
}

// WithPaymentLinkBase sets the public URL payment links are built from.
func (s *Scheduler) WithPaymentLinkBase(base string) *Scheduler {
	s.paymentLinkBase = strings.TrimRight(base, "/")
	return s
}

// Execute contacts every cart in the trigger's window that was not contacted
// for this trigger before. Per-cart failures are collected in the result and
// do not stop the run.
func (s *Scheduler) Execute(ctx context.Context, clinicID string, trigger Trigger) (*RunResult, error) {
	ctx, span := tracer.Start(ctx, "pursuit.execute")
	defer span.End()
	span.SetAttributes(
		attribute.String("clinic.clinic_id", clinicID),
		attribute.String("pursuit.trigger", string(trigger)),
	)

	now := s.now().UTC()
	carts, err := s.store.ListAbandonedCarts(ctx, clinicID, trigger, now)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	logger := s.logger.WithClinic(clinicID)
	result := &RunResult{ClinicID: clinicID, Trigger: trigger, Candidates: len(carts)}
	for _, cart := range carts {
		contacted, err := s.pursue(ctx, cart, trigger, now)
		switch {
		case err != nil:
			result.Errors = append(result.Errors, fmt.Sprintf("appointment %s: %v", cart.AppointmentID, err))
			logger.Error("pursuit: cart failed", "appointment_id", cart.AppointmentID, "trigger", trigger, "error", err)
		case contacted:
			result.Contacted++
		default:
			result.Skipped++
		}
	}

	span.SetAttributes(attribute.Int("pursuit.contacted", result.Contacted))
	logger.Info("pursuit: run complete",
		"trigger", trigger,
		"candidates", result.Candidates,
		"contacted", result.Contacted,
		"skipped", result.Skipped,
		"errors", len(result.Errors),
	)
	return result, nil
}

// RunAll executes every trigger for the clinic.
func (s *Scheduler) RunAll(ctx context.Context, clinicID string) ([]*RunResult, error) {
	var (
		results []*RunResult
		errs    []error
	)
	for _, t := range Triggers() {
		res, err := s.Execute(ctx, clinicID, t)
		if err != nil {
			errs = append(errs, fmt.Errorf("trigger %s: %w", t, err))
			continue
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

func (s *Scheduler) pursue(ctx context.Context, cart Cart, trigger Trigger, now time.Time) (bool, error) {
	if !trigger.Contains(cart.Elapsed(now)) {
		return false, nil
	}
	exists, err := s.store.CampaignExists(ctx, cart.AppointmentID, trigger)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	body, err := RenderMessage(s.renderer, cart, trigger, s.paymentLink(cart))
	if err != nil {
		return false, err
	}
	channel := messaging.ChannelWhatsApp
	if cart.Phone == "" {
		channel = messaging.ChannelEmail
	}

	entry := &campaigns.Log{
		ClinicID:      cart.ClinicID,
		PatientID:     cart.PatientID,
		AppointmentID: cart.AppointmentID,
		Type:          campaigns.TypePursuit,
		Trigger:       string(trigger),
		Channel:       string(channel),
		Message:       body,
		Status:        campaigns.StatusPending,
	}
	inserted, err := s.store.RecordCampaign(ctx, entry)
	if err != nil {
		return false, err
	}
	if !inserted {
		// Another run recorded this trigger first.
		return false, nil
	}

	level, err := s.store.BumpScarcity(ctx, cart.ClinicID, cart.PatientID, trigger.ScarcityIncrement())
	if err != nil {
		s.logger.Warn("pursuit: scarcity not updated", "patient_id", cart.PatientID, "error", err)
	}

	used, sendErr := s.sender.Send(ctx, messaging.Outbound{
		ClinicID:  cart.ClinicID,
		PatientID: cart.PatientID,
		Name:      cart.PatientName,
		Phone:     cart.Phone,
		Email:     cart.Email,
		Channel:   channel,
		Subject:   "Tu reserva está pendiente",
		Body:      body,
		Category:  "pursuit",
	})
	profile := string(cart.Profile)
	if sendErr != nil {
		s.metrics.ObservePursuit(string(trigger), profile, "failed")
		if err := s.store.MarkCampaignStatus(ctx, entry.ID, campaigns.StatusFailed, string(used), sendErr.Error()); err != nil {
			s.logger.Warn("pursuit: mark failed", "campaign_id", entry.ID, "error", err)
		}
		return false, fmt.Errorf("send: %w", sendErr)
	}
	s.metrics.ObservePursuit(string(trigger), profile, "sent")
	if err := s.store.MarkCampaignStatus(ctx, entry.ID, campaigns.StatusSent, string(used), ""); err != nil {
		s.logger.Warn("pursuit: mark sent", "campaign_id", entry.ID, "error", err)
	}
	s.logger.Debug("pursuit: cart contacted",
		"appointment_id", cart.AppointmentID,
		"trigger", trigger,
		"channel", used,
		"scarcity", level,
	)
	return true, nil
}

func (s *Scheduler) paymentLink(c Cart) string {
	if s.paymentLinkBase == "" {
		return ""
	}
	return s.paymentLinkBase + "/pagar/" + c.AppointmentID
}
