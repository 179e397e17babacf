package flashoffer

import "time"

// Recipient is a patient eligible for a flash offer.
type Recipient struct {
	PatientID string
	Name      string
	Phone     string
	Email     string
}

// Offer is a persisted flash offer for one gap.
type Offer struct {
	ID          string    `json:"id"`
	ClinicID    string    `json:"clinic_id"`
	GapStart    time.Time `json:"gap_start"`
	GapEnd      time.Time `json:"gap_end"`
	DiscountPct int       `json:"discount_pct"`
	SentCount   int       `json:"sent_count"`
	ExpiresAt   time.Time `json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// RunResult summarizes one scheduler run.
type RunResult struct {
	ClinicID string   `json:"clinic_id"`
	Gaps     int      `json:"gaps"`
	Sent     int      `json:"sent"`
	Errors   []string `json:"errors,omitempty"`
}
