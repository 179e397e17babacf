// Package compliance holds the sending rules outreach must respect.
package compliance

import (
	"fmt"
	"time"
)

// Purpose distinguishes transactional vs marketing messages.
type Purpose string

const (
	PurposeTransactional Purpose = "transactional"
	PurposeMarketing     Purpose = "marketing"
)

// PurposeFor maps an outreach category to its purpose. Booking confirmations
// are transactional; cart pursuit, flash offers and renewal reminders are
// marketing.
func PurposeFor(category string) Purpose {
	switch category {
	case "auto_renewal", "payment", "booking":
		return PurposeTransactional
	default:
		return PurposeMarketing
	}
}

// QuietHours is a daily local-time window in which marketing messages are not
// pushed to a patient's phone.
type QuietHours struct {
	start    int // minutes after midnight
	end      int
	location *time.Location
}

// DefaultQuietHours is 21:00 to 09:00 Santiago time.
func DefaultQuietHours() QuietHours {
	loc, err := time.LoadLocation("America/Santiago")
	if err != nil {
		loc = time.UTC
	}
	return QuietHours{start: 21 * 60, end: 9 * 60, location: loc}
}

// ParseQuietHours returns a quiet-hours window from HH:MM strings.
func ParseQuietHours(start, end, tz string) (QuietHours, error) {
	loc := time.UTC
	if tz != "" {
		var err error
		loc, err = time.LoadLocation(tz)
		if err != nil {
			return QuietHours{}, fmt.Errorf("compliance: load quiet hours tz: %w", err)
		}
	}
	startMin, err := parseClock(start)
	if err != nil {
		return QuietHours{}, fmt.Errorf("compliance: parse quiet hours start: %w", err)
	}
	endMin, err := parseClock(end)
	if err != nil {
		return QuietHours{}, fmt.Errorf("compliance: parse quiet hours end: %w", err)
	}
	return QuietHours{start: startMin, end: endMin, location: loc}, nil
}

func parseClock(v string) (int, error) {
	t, err := time.Parse("15:04", v)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

func (q QuietHours) inside(now time.Time) bool {
	if q.location == nil || q.start == q.end {
		return false
	}
	local := now.In(q.location)
	m := local.Hour()*60 + local.Minute()
	if q.start < q.end {
		return m >= q.start && m < q.end
	}
	return m >= q.start || m < q.end
}

// Suppress reports whether a message of the given purpose must not be pushed at now.
func (q QuietHours) Suppress(now time.Time, purpose Purpose) bool {
	return purpose == PurposeMarketing && q.inside(now)
}

// NextAllowed returns the first moment at or after now outside the window.
func (q QuietHours) NextAllowed(now time.Time) time.Time {
	if !q.inside(now) {
		return now
	}
	local := now.In(q.location)
	end := time.Date(local.Year(), local.Month(), local.Day(), q.end/60, q.end%60, 0, 0, q.location)
	if !end.After(local) {
		end = end.AddDate(0, 0, 1)
	}
	return end
}
