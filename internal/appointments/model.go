// Package appointments is the clinic-scoped booking ledger. Creating and
// completing appointments drives the retention schedules.
package appointments

import (
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/clinic-growth-platform/internal/apierr"
)

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"

	PaymentPending = "pending"
	PaymentUnpaid  = "unpaid"
	PaymentPaid    = "paid"
	PaymentFailed  = "failed"
)

const defaultDurationMinutes = 60

var (
	ErrNotFound        = fmt.Errorf("appointments: %w", apierr.ErrNotFound)
	ErrPatientNotFound = apierr.BadRequest("patient does not belong to this clinic")
)

// Appointment is one booked service.
type Appointment struct {
	ID                string     `json:"id"`
	ClinicID          string     `json:"clinic_id"`
	PatientID         string     `json:"patient_id"`
	ServiceType       string     `json:"service_type"`
	ScheduledAt       time.Time  `json:"scheduled_at"`
	DurationMinutes   int        `json:"duration_minutes"`
	Amount            int64      `json:"amount"`
	Status            string     `json:"status"`
	PaymentStatus     string     `json:"payment_status"`
	ExternalReference string     `json:"external_reference"`
	PaymentProvider   string     `json:"payment_provider,omitempty"`
	PaymentID         string     `json:"payment_id,omitempty"`
	PaidAt            *time.Time `json:"paid_at,omitempty"`
	InvoiceFolio      string     `json:"invoice_folio,omitempty"`
	GCLID             string     `json:"gclid,omitempty"`
	Notes             string     `json:"notes,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// CreateInput is the body of a new booking.
type CreateInput struct {
	PatientID       string    `json:"patient_id"`
	ServiceType     string    `json:"service_type"`
	ScheduledAt     time.Time `json:"scheduled_at"`
	DurationMinutes int       `json:"duration_minutes"`
	Amount          int64     `json:"amount"`
	Status          string    `json:"status"`
	PaymentStatus   string    `json:"payment_status"`
	GCLID           string    `json:"gclid"`
	Notes           string    `json:"notes"`
}

// UpdateInput patches an appointment; nil fields are left untouched.
type UpdateInput struct {
	ServiceType     *string    `json:"service_type"`
	ScheduledAt     *time.Time `json:"scheduled_at"`
	DurationMinutes *int       `json:"duration_minutes"`
	Amount          *int64     `json:"amount"`
	Status          *string    `json:"status"`
	PaymentStatus   *string    `json:"payment_status"`
	Notes           *string    `json:"notes"`
}

// Filter narrows List.
type Filter struct {
	PatientID     string
	Status        string
	PaymentStatus string
	From          time.Time
	To            time.Time
	Limit         int
}

func validStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func validPaymentStatus(s string) bool {
	switch s {
	case PaymentPending, PaymentUnpaid, PaymentPaid, PaymentFailed:
		return true
	}
	return false
}

// CanTransition reports whether an appointment may move from one status to
// another. Completed and cancelled are final.
func CanTransition(from, to string) bool {
	if from == to {
		return true
	}
	switch from {
	case StatusPending:
		return to == StatusConfirmed || to == StatusCompleted || to == StatusCancelled
	case StatusConfirmed:
		return to == StatusCompleted || to == StatusCancelled
	default:
		return false
	}
}

func (in *CreateInput) normalize() error {
	in.PatientID = strings.TrimSpace(in.PatientID)
	in.ServiceType = strings.TrimSpace(in.ServiceType)
	if in.PatientID == "" {
		return apierr.BadRequest("patient_id is required")
	}
	if in.ServiceType == "" {
		return apierr.BadRequest("service_type is required")
	}
	if in.ScheduledAt.IsZero() {
		return apierr.BadRequest("scheduled_at is required")
	}
	if in.DurationMinutes == 0 {
		in.DurationMinutes = defaultDurationMinutes
	}
	if in.DurationMinutes < 0 || in.DurationMinutes > 8*60 {
		return apierr.BadRequest("duration_minutes must be between 1 and 480")
	}
	if in.Amount < 0 {
		return apierr.BadRequest("amount must not be negative")
	}
	if in.Status == "" {
		in.Status = StatusPending
	}
	if !validStatus(in.Status) || in.Status == StatusCancelled {
		return apierr.BadRequest("invalid status")
	}
	if in.PaymentStatus == "" {
		in.PaymentStatus = PaymentPending
	}
	if !validPaymentStatus(in.PaymentStatus) {
		return apierr.BadRequest("invalid payment_status")
	}
	in.ScheduledAt = in.ScheduledAt.UTC()
	return nil
}

func (in *UpdateInput) validate(current Appointment) error {
	if in.ServiceType != nil && strings.TrimSpace(*in.ServiceType) == "" {
		return apierr.BadRequest("service_type must not be empty")
	}
	if in.DurationMinutes != nil && (*in.DurationMinutes <= 0 || *in.DurationMinutes > 8*60) {
		return apierr.BadRequest("duration_minutes must be between 1 and 480")
	}
	if in.Amount != nil && *in.Amount < 0 {
		return apierr.BadRequest("amount must not be negative")
	}
	if in.PaymentStatus != nil && !validPaymentStatus(*in.PaymentStatus) {
		return apierr.BadRequest("invalid payment_status")
	}
	if in.Status != nil {
		if !validStatus(*in.Status) {
			return apierr.BadRequest("invalid status")
		}
		if !CanTransition(current.Status, *in.Status) {
			return apierr.Conflict(fmt.Sprintf("cannot move appointment from %s to %s", current.Status, *in.Status))
		}
	}
	if in.ScheduledAt != nil {
		t := in.ScheduledAt.UTC()
		in.ScheduledAt = &t
	}
	return nil
}
