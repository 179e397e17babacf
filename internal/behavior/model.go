// Package behavior aggregates landing-page visitor signals and classifies the
// visitor into a psychographic profile used to tailor marketing copy.
package behavior

import "time"

// Profile is the psychographic category assigned to a visitor.
type Profile string

const (
	ProfileImpulsive      Profile = "impulsive"
	ProfileAnalytic       Profile = "analytic"
	ProfilePriceSensitive Profile = "price_sensitive"
	ProfileHesitant       Profile = "hesitant"
)

// Profiles lists every profile in classification order.
func Profiles() []Profile {
	return []Profile{ProfileImpulsive, ProfileAnalytic, ProfilePriceSensitive, ProfileHesitant}
}

// Valid reports whether p is one of the known profiles.
func (p Profile) Valid() bool {
	switch p {
	case ProfileImpulsive, ProfileAnalytic, ProfilePriceSensitive, ProfileHesitant:
		return true
	}
	return false
}

// DeviceType is the visitor's device class.
type DeviceType string

const (
	DeviceMobile  DeviceType = "mobile"
	DeviceTablet  DeviceType = "tablet"
	DeviceDesktop DeviceType = "desktop"
)

// Sample is the behavior accumulated over one landing-page session.
type Sample struct {
	TimeOnPageSec       int        `json:"time_on_page_sec"`
	ClicksCount         int        `json:"clicks_count"`
	ScrollDepthPct      int        `json:"scroll_depth_pct"`
	ViewedPricing       bool       `json:"viewed_pricing"`
	ViewedTestimonials  bool       `json:"viewed_testimonials"`
	ViewedServices      bool       `json:"viewed_services"`
	DeviceType          DeviceType `json:"device_type"`
	ExitIntentTriggered bool       `json:"exit_intent_triggered"`
}

// Ready reports whether the sample carries enough signal to classify: at
// least MinObservation on the page, or an exit intent.
func (s Sample) Ready() bool {
	return s.TimeOnPageSec >= int(MinObservation/time.Second) || s.ExitIntentTriggered
}

// Snapshot is what gets persisted against the patient once a session is classified.
type Snapshot struct {
	SessionID    string    `json:"session_id"`
	Profile      Profile   `json:"profile"`
	Sample       Sample    `json:"sample"`
	ClassifiedAt time.Time `json:"classified_at"`
}
