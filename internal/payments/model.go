// Package payments confirms appointment payments reported by Mercado Pago and
// Transbank Webpay Plus.
package payments

import (
	"errors"
	"time"
)

const (
	ProviderMercadoPago = "mercadopago"
	ProviderTransbank   = "transbank"
)

// Outcome is the normalized result reported by a provider.
type Outcome string

const (
	OutcomeApproved Outcome = "approved"
	OutcomeFailed   Outcome = "failed"
	OutcomePending  Outcome = "pending"
)

var (
	ErrAppointmentNotFound = errors.New("payments: appointment not found")
	ErrAmountMismatch      = errors.New("payments: paid amount does not match appointment")
	ErrInvalidSignature    = errors.New("payments: invalid webhook signature")
)

// Confirmation is one provider event about one appointment payment.
type Confirmation struct {
	Provider          string
	EventID           string
	ExternalReference string
	ProviderPaymentID string
	Outcome           Outcome
	Amount            int64
	PaidAt            time.Time
}

// Appointment is the row a confirmation applies to, with what invoicing and
// conversion tracking need.
type Appointment struct {
	ID            string
	ClinicID      string
	PatientID     string
	ServiceType   string
	Amount        int64
	Status        string
	PaymentStatus string
	PatientName   string
	PatientEmail  string
	PatientRUT    string
	GCLID         string
	ScheduledAt   time.Time
}

// Result reports what Confirm did.
type Result struct {
	AppointmentID string  `json:"appointment_id,omitempty"`
	ClinicID      string  `json:"clinic_id,omitempty"`
	Outcome       Outcome `json:"outcome"`
	Duplicate     bool    `json:"duplicate,omitempty"`
	AlreadyPaid   bool    `json:"already_paid,omitempty"`
	InvoiceFolio  string  `json:"invoice_folio,omitempty"`
}
