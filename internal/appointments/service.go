package appointments

import (
	"context"
	"time"

	"github.com/wolfman30/clinic-growth-platform/internal/retention"
	"github.com/wolfman30/clinic-growth-platform/pkg/logging"
)

// Store is the persistence used by the service.
type Store interface {
	Create(ctx context.Context, clinicID string, in CreateInput) (*Appointment, error)
	Get(ctx context.Context, clinicID, id string) (*Appointment, error)
	List(ctx context.Context, clinicID string, f Filter) ([]Appointment, error)
	Update(ctx context.Context, clinicID, id string, in UpdateInput) (*Appointment, error)
}

// Renewals is the retention side of the appointment lifecycle.
type Renewals interface {
	CreateForAppointment(ctx context.Context, appt retention.Appointment) (*retention.Schedule, error)
	CompleteOnRenewal(ctx context.Context, clinicID, patientID, serviceType string) (int64, error)
}

// Service applies the booking rules on top of the store.
type Service struct {
	store    Store
	renewals Renewals
	logger   *logging.Logger
}

func NewService(store Store, renewals Renewals, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{store: store, renewals: renewals, logger: logger.WithComponent("appointments")}
}

// Create books the appointment. A booking for a service the patient has an
// active retention schedule for completes that schedule.
func (s *Service) Create(ctx context.Context, clinicID string, in CreateInput) (*Appointment, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	a, err := s.store.Create(ctx, clinicID, in)
	if err != nil {
		return nil, err
	}
	if s.renewals != nil {
		if _, err := s.renewals.CompleteOnRenewal(ctx, clinicID, a.PatientID, a.ServiceType); err != nil {
			s.logger.Warn("complete retention schedule failed", "appointment_id", a.ID, "clinic_id", clinicID, "error", err)
		}
	}
	s.onCompleted(ctx, a)
	return a, nil
}

// Update patches the appointment after checking the status transition.
// Completing a paid appointment opens its retention schedule.
func (s *Service) Update(ctx context.Context, clinicID, id string, in UpdateInput) (*Appointment, error) {
	current, err := s.store.Get(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}
	if err := in.validate(*current); err != nil {
		return nil, err
	}
	a, err := s.store.Update(ctx, clinicID, id, in)
	if err != nil {
		return nil, err
	}
	if current.Status != StatusCompleted || current.PaymentStatus != PaymentPaid {
		s.onCompleted(ctx, a)
	}
	return a, nil
}

// Cancel moves a pending or confirmed appointment to cancelled.
func (s *Service) Cancel(ctx context.Context, clinicID, id string) (*Appointment, error) {
	status := StatusCancelled
	return s.Update(ctx, clinicID, id, UpdateInput{Status: &status})
}

func (s *Service) Get(ctx context.Context, clinicID, id string) (*Appointment, error) {
	return s.store.Get(ctx, clinicID, id)
}

func (s *Service) List(ctx context.Context, clinicID string, f Filter) ([]Appointment, error) {
	return s.store.List(ctx, clinicID, f)
}

func (s *Service) onCompleted(ctx context.Context, a *Appointment) {
	if s.renewals == nil || a.Status != StatusCompleted || a.PaymentStatus != PaymentPaid {
		return
	}
	sched, err := s.renewals.CreateForAppointment(ctx, retention.Appointment{
		ID:            a.ID,
		ClinicID:      a.ClinicID,
		PatientID:     a.PatientID,
		ServiceType:   a.ServiceType,
		Status:        a.Status,
		PaymentStatus: a.PaymentStatus,
		ScheduledAt:   a.ScheduledAt,
	})
	if err != nil {
		s.logger.Error("create retention schedule failed", "appointment_id", a.ID, "clinic_id", a.ClinicID, "error", err)
		return
	}
	if sched != nil {
		s.logger.Info("retention schedule opened",
			"appointment_id", a.ID,
			"next_renewal", sched.NextRenewalDate.Format(time.DateOnly),
		)
	}
}
