package retention

import (
	"context"
	"errors"
	"fmt"
	"strconv"
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

var tracer = otel.Tracer("clinic.internal.retention")

// Sender delivers outreach.
type Sender interface {
	Send(ctx context.Context, msg messaging.Outbound) (messaging.Channel, error)
}

// Service opens, advances and closes retention schedules.
type Service struct {
	store       Store
	sender      Sender
	renderer    *templates.Renderer
	logger      *logging.Logger
	metrics     *metrics.GrowthMetrics
	autoRenewal bool
	bookingBase string
	now         func() time.Time
}

func NewService(store Store, sender Sender, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		store:    store,
		sender:   sender,
		renderer: &templates.Renderer{},
		logger:   logger.WithComponent("retention"),
		now:      time.Now,
	}
}

// WithMetrics attaches prometheus counters.
func (s *Service) WithMetrics(m *metrics.GrowthMetrics) *Service {
	s.metrics = m
	return s
}

// WithAutoRenewal sets whether new schedules renew themselves.
func (s *Service) WithAutoRenewal(enabled bool) *Service {
	s.autoRenewal = enabled
	return s
}

// WithBookingLink sets the public booking URL appended to reminders.
func (s *Service) WithBookingLink(base string) *Service {
	s.bookingBase = strings.TrimRight(base, "/")
	return s
}

// CreateForAppointment opens a schedule for a completed, paid appointment of a
// recognized service. Other appointments are ignored and return nil.
func (s *Service) CreateForAppointment(ctx context.Context, appt Appointment) (*Schedule, error) {
	if appt.Status != "completed" || appt.PaymentStatus != "paid" {
		return nil, nil
	}
	servedAt := appt.ScheduledAt
	if servedAt.IsZero() {
		servedAt = s.now()
	}
	next, ok := NextRenewal(appt.ServiceType, servedAt)
	if !ok {
		s.logger.Info("retention: no renewal interval for service",
			"service_type", appt.ServiceType,
			"clinic_id", appt.ClinicID,
		)
		return nil, nil
	}

	schedule := &Schedule{
		ClinicID:           appt.ClinicID,
		PatientID:          appt.PatientID,
		AppointmentID:      appt.ID,
		ServiceType:        appt.ServiceType,
		LastServiceDate:    servedAt.UTC(),
		NextRenewalDate:    next.UTC(),
		AutoRenewalEnabled: s.autoRenewal,
		Status:             StatusActive,
	}
	created, err := s.store.Create(ctx, schedule)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, nil
	}
	s.logger.Info("retention: schedule created",
		"id", schedule.ID,
		"clinic_id", schedule.ClinicID,
		"service_type", schedule.ServiceType,
		"next_renewal", schedule.NextRenewalDate.Format(time.DateOnly),
	)
	return schedule, nil
}

// CompleteOnRenewal closes the patient's active schedules for the service
// once a renewal appointment exists.
func (s *Service) CompleteOnRenewal(ctx context.Context, clinicID, patientID, serviceType string) (int64, error) {
	n, err := s.store.CompleteForService(ctx, clinicID, patientID, serviceType)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("retention: schedule completed by renewal", "clinic_id", clinicID, "patient_id", patientID, "service_type", serviceType)
	}
	return n, nil
}

// Cancel stops an active schedule.
func (s *Service) Cancel(ctx context.Context, clinicID, id string) error {
	return s.store.SetStatus(ctx, clinicID, id, StatusActive, StatusCancelled)
}

// List returns schedules for the admin view.
func (s *Service) List(ctx context.Context, clinicID string, status Status, limit int) ([]Schedule, error) {
	return s.store.List(ctx, clinicID, status, limit)
}

// ProcessAutoRenewals walks every active schedule of the clinic once:
// due reminders are sent, auto-renewing schedules book their renewal and
// lapsed schedules expire. Failures are collected per schedule.
func (s *Service) ProcessAutoRenewals(ctx context.Context, clinicID string) (*RunResult, error) {
	ctx, span := tracer.Start(ctx, "retention.process_auto_renewals")
	defer span.End()
	span.SetAttributes(attribute.String("clinic.clinic_id", clinicID))

	schedules, err := s.store.ListActive(ctx, clinicID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	now := s.now().UTC()
	logger := s.logger.WithClinic(clinicID)
	result := &RunResult{ClinicID: clinicID, Checked: len(schedules)}
	for _, sched := range schedules {
		action := Plan(sched, now)
		var err error
		switch action.Kind {
		case ActionRemind:
			err = s.remind(ctx, sched, action)
			if err == nil {
				result.Reminded++
			}
		case ActionAutoRenew:
			err = s.autoRenew(ctx, sched, now)
			if err == nil {
				result.Renewed++
			}
		case ActionExpire:
			err = s.store.SetStatus(ctx, sched.ClinicID, sched.ID, StatusActive, StatusExpired)
			if errors.Is(err, ErrNotFound) {
				err = nil
			} else if err == nil {
				result.Expired++
			}
		}
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("schedule %s: %v", sched.ID, err))
			logger.Error("retention: schedule failed", "schedule_id", sched.ID, "action", action.Kind, "error", err)
		}
	}

	span.SetAttributes(
		attribute.Int("retention.reminded", result.Reminded),
		attribute.Int("retention.renewed", result.Renewed),
	)
	logger.Info("retention: run complete",
		"checked", result.Checked,
		"reminded", result.Reminded,
		"renewed", result.Renewed,
		"expired", result.Expired,
		"errors", len(result.Errors),
	)
	return result, nil
}

func (s *Service) remind(ctx context.Context, sched Schedule, action Action) error {
	body, err := ReminderMessage(s.renderer, sched, action.Offset, s.bookingBase)
	if err != nil {
		return err
	}
	trigger := strconv.Itoa(action.Offset) + "d"
	entry := &campaigns.Log{
		ClinicID:      sched.ClinicID,
		PatientID:     sched.PatientID,
		AppointmentID: sched.AppointmentID,
		Type:          campaigns.TypeRenewalReminder,
		Trigger:       trigger,
		Channel:       string(channelFor(sched)),
		Message:       body,
		Status:        campaigns.StatusPending,
	}
	inserted, err := s.store.RecordCampaign(ctx, entry)
	if err != nil {
		return err
	}
	// Flags are set even when another run already logged this reminder so the
	// schedule stops planning it.
	if err := s.store.MarkReminders(ctx, sched.ID, action.Mark); err != nil {
		return err
	}
	if !inserted {
		return nil
	}
	return s.deliver(ctx, sched, entry, "Es momento de renovar tu tratamiento", func(status string) {
		s.metrics.ObserveRenewalReminder(trigger, status)
	})
}

func (s *Service) autoRenew(ctx context.Context, sched Schedule, now time.Time) error {
	at := RenewalSlot(sched.NextRenewalDate, now)
	apptID, err := s.store.CreateRenewalAppointment(ctx, sched, at)
	if err != nil {
		return err
	}
	if err := s.store.SetStatus(ctx, sched.ClinicID, sched.ID, StatusActive, StatusCompleted); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	body, err := AutoRenewalMessage(s.renderer, sched, at.Format("02-01-2006 15:04"))
	if err != nil {
		return err
	}
	entry := &campaigns.Log{
		ClinicID:      sched.ClinicID,
		PatientID:     sched.PatientID,
		AppointmentID: apptID,
		Type:          campaigns.TypeAutoRenewal,
		Trigger:       "auto",
		Channel:       string(channelFor(sched)),
		Message:       body,
		Status:        campaigns.StatusPending,
	}
	inserted, err := s.store.RecordCampaign(ctx, entry)
	if err != nil {
		s.logger.Warn("retention: auto renewal not logged", "schedule_id", sched.ID, "error", err)
		return nil
	}
	if !inserted {
		return nil
	}
	if err := s.deliver(ctx, sched, entry, "Tu renovación está agendada", func(status string) {
		s.metrics.ObserveRenewalReminder("auto", status)
	}); err != nil {
		// The appointment exists; a failed notice does not undo it.
		s.logger.Warn("retention: auto renewal notice failed", "schedule_id", sched.ID, "error", err)
	}
	return nil
}

func (s *Service) deliver(ctx context.Context, sched Schedule, entry *campaigns.Log, subject string, observe func(string)) error {
	used, sendErr := s.sender.Send(ctx, messaging.Outbound{
		ClinicID:  sched.ClinicID,
		PatientID: sched.PatientID,
		Name:      sched.PatientName,
		Phone:     sched.Phone,
		Email:     sched.Email,
		Channel:   messaging.Channel(entry.Channel),
		Subject:   subject,
		Body:      entry.Message,
		Category:  string(entry.Type),
	})
	if sendErr != nil {
		observe("failed")
		if err := s.store.MarkCampaignStatus(ctx, entry.ID, campaigns.StatusFailed, string(used), sendErr.Error()); err != nil {
			s.logger.Warn("retention: mark failed", "campaign_id", entry.ID, "error", err)
		}
		return fmt.Errorf("send: %w", sendErr)
	}
	observe("sent")
	if err := s.store.MarkCampaignStatus(ctx, entry.ID, campaigns.StatusSent, string(used), ""); err != nil {
		s.logger.Warn("retention: mark sent", "campaign_id", entry.ID, "error", err)
	}
	return nil
}

func channelFor(s Schedule) messaging.Channel {
	if s.Phone == "" {
		return messaging.ChannelEmail
	}
	return messaging.ChannelWhatsApp
}
