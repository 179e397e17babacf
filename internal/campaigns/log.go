// Package campaigns records every outreach attempt. Schedulers check the log
// before contacting a patient so each (appointment, campaign, trigger) is
// contacted at most once.
package campaigns

import "time"

// Type names the scheduler that produced a log entry.
type Type string

const (
	TypePursuit         Type = "pursuit"
	TypeFlashOffer      Type = "flash_offer"
	TypeRenewalReminder Type = "renewal_reminder"
	TypeAutoRenewal     Type = "auto_renewal"
)

// Status is the delivery state of a log entry.
type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

// Log is one outreach message to one patient.
type Log struct {
	ID            string    `json:"id"`
	ClinicID      string    `json:"clinic_id"`
	PatientID     string    `json:"patient_id"`
	AppointmentID string    `json:"appointment_id,omitempty"`
	Type          Type      `json:"campaign_type"`
	Trigger       string    `json:"trigger"`
	Channel       string    `json:"channel"`
	Message       string    `json:"message"`
	Status        Status    `json:"status"`
	Error         string    `json:"error,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
