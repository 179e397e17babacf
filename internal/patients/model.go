// Package patients is the clinic-scoped patient registry.
package patients

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/wolfman30/clinic-growth-platform/internal/apierr"
	"github.com/wolfman30/clinic-growth-platform/internal/messaging/whatsapp"
)

var (
	// ErrNotFound maps to 404 through apierr.
	ErrNotFound = fmt.Errorf("patients: %w", apierr.ErrNotFound)
	// ErrDuplicate is returned when the phone or RUT is already registered in the clinic.
	ErrDuplicate = apierr.Conflict("patient already exists")
)

// Patient is a person known to one clinic.
type Patient struct {
	ID            string    `json:"id"`
	ClinicID      string    `json:"clinic_id"`
	FullName      string    `json:"full_name"`
	Phone         string    `json:"phone,omitempty"`
	Email         string    `json:"email,omitempty"`
	RUT           string    `json:"rut,omitempty"`
	PsychProfile  string    `json:"psych_profile,omitempty"`
	ScarcityLevel int       `json:"scarcity_level"`
	IsAbandoned   bool      `json:"is_abandoned"`
	TotalSpent    int64     `json:"total_spent"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Input is the writable part of a patient. Nil fields are left untouched on update.
type Input struct {
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
	Email    *string `json:"email"`
	RUT      *string `json:"rut"`
}

// Filter narrows List.
type Filter struct {
	Search    string
	Profile   string
	Abandoned *bool
	Limit     int
	Offset    int
}

// normalize validates in place. Create requires a name and one contact.
func (in *Input) normalize(create bool) error {
	if in.FullName != nil {
		name := strings.Join(strings.Fields(*in.FullName), " ")
		if name == "" {
			return apierr.BadRequest("full_name must not be empty")
		}
		in.FullName = &name
	} else if create {
		return apierr.BadRequest("full_name is required")
	}
	if in.Phone != nil {
		phone := ""
		if strings.TrimSpace(*in.Phone) != "" {
			phone = "+" + whatsapp.NormalizePhone(*in.Phone)
			if len(phone) < 9 {
				return apierr.BadRequest("phone is not a valid number")
			}
		}
		in.Phone = &phone
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if email != "" {
			if _, err := mail.ParseAddress(email); err != nil {
				return apierr.BadRequest("email is not valid")
			}
		}
		in.Email = &email
	}
	if in.RUT != nil && strings.TrimSpace(*in.RUT) != "" {
		rut, err := NormalizeRUT(*in.RUT)
		if err != nil {
			return apierr.BadRequest("rut is not valid")
		}
		in.RUT = &rut
	}
	if create && deref(in.Phone) == "" && deref(in.Email) == "" {
		return apierr.BadRequest("phone or email is required")
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
