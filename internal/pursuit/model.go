// Package pursuit follows up abandoned carts: pending, unpaid appointments
// get profile-specific outreach at fixed points after they were created.
package pursuit

import (
	"fmt"
	"time"

	"github.com/wolfman30/clinic-growth-platform/internal/behavior"
)

// Trigger names a follow-up point.
type Trigger string

const (
	Trigger15Min Trigger = "15min"
	Trigger2H    Trigger = "2h"
	TriggerEOD   Trigger = "eod"
)

// Triggers lists every trigger in firing order.
func Triggers() []Trigger {
	return []Trigger{Trigger15Min, Trigger2H, TriggerEOD}
}

// ParseTrigger validates a trigger name.
func ParseTrigger(s string) (Trigger, error) {
	switch t := Trigger(s); t {
	case Trigger15Min, Trigger2H, TriggerEOD:
		return t, nil
	}
	return "", fmt.Errorf("pursuit: unknown trigger %q", s)
}

// Window returns the elapsed-time bounds of the trigger. The upper bound is
// exclusive except for eod, which includes its last minute.
func (t Trigger) Window() (min, max time.Duration) {
	switch t {
	case Trigger15Min:
		return 15 * time.Minute, 30 * time.Minute
	case Trigger2H:
		return 120 * time.Minute, 150 * time.Minute
	case TriggerEOD:
		return 360 * time.Minute, 480 * time.Minute
	}
	return 0, 0
}

// Contains reports whether a cart aged elapsed falls in the window.
func (t Trigger) Contains(elapsed time.Duration) bool {
	min, max := t.Window()
	if max == 0 || elapsed < min {
		return false
	}
	if t == TriggerEOD {
		return elapsed <= max
	}
	return elapsed < max
}

// ScarcityIncrement is how much a contact at this trigger raises scarcity.
func (t Trigger) ScarcityIncrement() int {
	if t == TriggerEOD {
		return 30
	}
	return 15
}

// Cart is a pending, unpaid appointment joined with its patient.
type Cart struct {
	AppointmentID string
	ClinicID      string
	PatientID     string
	PatientName   string
	Phone         string
	Email         string
	Profile       behavior.Profile
	ServiceType   string
	Amount        int64
	ScheduledAt   time.Time
	CreatedAt     time.Time
	ScarcityLevel int
}

// Elapsed is the cart's age at now.
func (c Cart) Elapsed(now time.Time) time.Duration {
	return now.Sub(c.CreatedAt)
}

// RunResult summarizes one trigger run for a clinic.
type RunResult struct {
	ClinicID   string   `json:"clinic_id"`
	Trigger    Trigger  `json:"trigger"`
	Candidates int      `json:"candidates"`
	Contacted  int      `json:"contacted"`
	Skipped    int      `json:"skipped"`
	Errors     []string `json:"errors,omitempty"`
}
