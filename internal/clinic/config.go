// Package clinic holds the tenant record, its growth settings and the
// dashboard figures.
package clinic

import (
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/clinic-growth-platform/internal/apierr"
)

// ErrNotFound maps to 404 through apierr.
var ErrNotFound = fmt.Errorf("clinic: %w", apierr.ErrNotFound)

// Settings toggles and tunes the growth jobs for one clinic.
type Settings struct {
	PursuitEnabled          bool `json:"pursuit_enabled"`
	FlashOffersEnabled      bool `json:"flash_offers_enabled"`
	RenewalsEnabled         bool `json:"renewals_enabled"`
	AutoRenewal             bool `json:"auto_renewal"`
	FlashOfferDiscountPct   int  `json:"flash_offer_discount_pct"`
	FlashOfferMinGapMinutes int  `json:"flash_offer_min_gap_minutes"`
}

// DefaultSettings is what a newly onboarded clinic starts with.
func DefaultSettings() Settings {
	return Settings{
		PursuitEnabled:          true,
		FlashOffersEnabled:      true,
		RenewalsEnabled:         true,
		FlashOfferDiscountPct:   20,
		FlashOfferMinGapMinutes: 60,
	}
}

// MinGap returns the flash-offer minimum gap as a duration.
func (s Settings) MinGap() time.Duration {
	return time.Duration(s.FlashOfferMinGapMinutes) * time.Minute
}

// Clinic is one tenant.
type Clinic struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	LegalName  string    `json:"legal_name,omitempty"`
	RUT        string    `json:"rut,omitempty"`
	Email      string    `json:"email,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	Address    string    `json:"address,omitempty"`
	Timezone   string    `json:"timezone"`
	BookingURL string    `json:"booking_url,omitempty"`
	Settings   Settings  `json:"settings"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Location resolves the clinic's time zone, defaulting to Santiago.
func (c *Clinic) Location() *time.Location {
	tz := c.Timezone
	if tz == "" {
		tz = "America/Santiago"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}

// UpdateInput patches a clinic; nil fields are left untouched.
type UpdateInput struct {
	Name       *string   `json:"name"`
	LegalName  *string   `json:"legal_name"`
	Email      *string   `json:"email"`
	Phone      *string   `json:"phone"`
	Address    *string   `json:"address"`
	Timezone   *string   `json:"timezone"`
	BookingURL *string   `json:"booking_url"`
	Settings   *Settings `json:"settings"`
}

// Apply validates in and copies it onto c.
func (in UpdateInput) Apply(c *Clinic) error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return apierr.BadRequest("name must not be empty")
		}
		c.Name = name
	}
	if in.Timezone != nil {
		if _, err := time.LoadLocation(*in.Timezone); err != nil || *in.Timezone == "" {
			return apierr.BadRequest("unknown timezone")
		}
		c.Timezone = *in.Timezone
	}
	if in.Settings != nil {
		s := *in.Settings
		if s.FlashOfferDiscountPct < 1 || s.FlashOfferDiscountPct > 90 {
			return apierr.BadRequest("flash_offer_discount_pct must be between 1 and 90")
		}
		if s.FlashOfferMinGapMinutes < 15 || s.FlashOfferMinGapMinutes > 24*60 {
			return apierr.BadRequest("flash_offer_min_gap_minutes must be between 15 and 1440")
		}
		c.Settings = s
	}
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	set(&c.LegalName, in.LegalName)
	set(&c.Email, in.Email)
	set(&c.Phone, in.Phone)
	set(&c.Address, in.Address)
	set(&c.BookingURL, in.BookingURL)
	return nil
}
