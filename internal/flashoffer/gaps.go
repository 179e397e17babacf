// Package flashoffer finds idle windows in a clinic's calendar and offers
// them at a discount to price-sensitive leads who abandoned a booking.
package flashoffer

import (
	"sort"
	"time"
)

// Window is how far ahead the calendar is scanned.
const Window = 24 * time.Hour

// Gap is an idle interval in the calendar.
type Gap struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration is the gap length.
func (g Gap) Duration() time.Duration {
	return g.End.Sub(g.Start)
}

// Booking is an occupied interval.
type Booking struct {
	AppointmentID string
	Start         time.Time
	End           time.Time
}

// FindGaps walks bookings in time order and reports the idle time before the
// first, between consecutive ones and after the last, keeping only gaps of at
// least min. With no bookings the whole window is one gap. Overlapping
// bookings are merged.
func FindGaps(windowStart, windowEnd time.Time, bookings []Booking, min time.Duration) []Gap {
	if !windowEnd.After(windowStart) {
		return nil
	}
	if len(bookings) == 0 {
		return []Gap{{Start: windowStart, End: windowEnd}}
	}

	sorted := make([]Booking, len(bookings))
	copy(sorted, bookings)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	var gaps []Gap
	cursor := windowStart
	for _, b := range sorted {
		if !b.End.After(windowStart) || !b.Start.Before(windowEnd) {
			continue
		}
		if b.Start.After(cursor) && b.Start.Sub(cursor) >= min {
			gaps = append(gaps, Gap{Start: cursor, End: b.Start})
		}
		if b.End.After(cursor) {
			cursor = b.End
		}
	}
	if cursor.Before(windowEnd) && windowEnd.Sub(cursor) >= min {
		gaps = append(gaps, Gap{Start: cursor, End: windowEnd})
	}
	return gaps
}

// SplitSlots cuts gaps into consecutive slots of the given length, dropping
// any remainder shorter than a slot.
func SplitSlots(gaps []Gap, slot time.Duration) []Gap {
	if slot <= 0 {
		return nil
	}
	var slots []Gap
	for _, g := range gaps {
		for start := g.Start; !start.Add(slot).After(g.End); start = start.Add(slot) {
			slots = append(slots, Gap{Start: start, End: start.Add(slot)})
		}
	}
	return slots
}
