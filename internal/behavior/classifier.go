package behavior

// Classify maps a behavior sample onto a profile. Rules are evaluated in order
// and the first match wins; anything unmatched is hesitant.
func Classify(s Sample) Profile {
	switch {
	case s.TimeOnPageSec < 30 && s.ClicksCount > 5 && s.ScrollDepthPct > 70:
		return ProfileImpulsive
	case s.ViewedTestimonials && s.TimeOnPageSec > 120 && s.ScrollDepthPct > 80:
		return ProfileAnalytic
	case s.ViewedPricing && s.TimeOnPageSec > 60 && s.ClicksCount < 3:
		return ProfilePriceSensitive
	case s.ExitIntentTriggered || (s.TimeOnPageSec > 90 && s.ClicksCount < 5):
		return ProfileHesitant
	default:
		return ProfileHesitant
	}
}
