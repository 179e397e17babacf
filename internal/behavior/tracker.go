package behavior

import "time"

// MinObservation is how long a session is observed before it may be classified.
const MinObservation = 30 * time.Second

// Section identifies a landing-page block the visitor scrolled into view.
type Section string

const (
	SectionPricing      Section = "pricing"
	SectionTestimonials Section = "testimonials"
	SectionServices     Section = "services"
)

// Tracker accumulates discrete page events into a Sample. It is owned by a
// single session and is not safe for concurrent use.
type Tracker struct {
	elapsed time.Duration
	sample  Sample
}

// NewTracker starts tracking a session on the given device.
func NewTracker(device DeviceType) *Tracker {
	if device == "" {
		device = DeviceDesktop
	}
	return &Tracker{sample: Sample{DeviceType: device}}
}

// Tick advances the time spent on the page.
func (t *Tracker) Tick(d time.Duration) {
	if d <= 0 {
		return
	}
	t.elapsed += d
	t.sample.TimeOnPageSec = int(t.elapsed / time.Second)
}

// OnScroll records a scroll position; depth only grows.
func (t *Tracker) OnScroll(depthPct int) {
	if depthPct > 100 {
		depthPct = 100
	}
	if depthPct > t.sample.ScrollDepthPct {
		t.sample.ScrollDepthPct = depthPct
	}
}

// OnClick records a click anywhere on the page.
func (t *Tracker) OnClick() {
	t.sample.ClicksCount++
}

// OnSectionView records that a section entered the viewport.
func (t *Tracker) OnSectionView(section Section) {
	switch section {
	case SectionPricing:
		t.sample.ViewedPricing = true
	case SectionTestimonials:
		t.sample.ViewedTestimonials = true
	case SectionServices:
		t.sample.ViewedServices = true
	}
}

// OnExitIntent records the cursor leaving the viewport towards the browser chrome.
func (t *Tracker) OnExitIntent() {
	t.sample.ExitIntentTriggered = true
}

// Ready reports whether enough signal exists to classify. Exit intent forces
// readiness since the visitor is about to leave.
func (t *Tracker) Ready() bool {
	return t.sample.Ready()
}

// Snapshot returns a copy of the accumulated sample.
func (t *Tracker) Snapshot() Sample {
	return t.sample
}
