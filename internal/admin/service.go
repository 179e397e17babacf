package admin

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/wolfman30/clinic-growth-platform/internal/apierr"
	"github.com/wolfman30/clinic-growth-platform/internal/clinic"
	"github.com/wolfman30/clinic-growth-platform/internal/compliance"
	"github.com/wolfman30/clinic-growth-platform/internal/http/middleware"
	"github.com/wolfman30/clinic-growth-platform/internal/patients"
	"github.com/wolfman30/clinic-growth-platform/internal/saga"
	"github.com/wolfman30/clinic-growth-platform/pkg/logging"
)

// ErrInvalidCredentials hides whether the email or the password was wrong.
var ErrInvalidCredentials = apierr.Unauthorized("invalid credentials")

type accountStore interface {
	UserByEmail(ctx context.Context, email string) (*User, error)
	CreateUser(ctx context.Context, u *User) error
	DeleteUser(ctx context.Context, id string) error
	CreateProfile(ctx context.Context, p Profile) error
	ClinicIDForUser(ctx context.Context, userID string) (string, error)
}

type clinicStore interface {
	Create(ctx context.Context, c *clinic.Clinic) error
	Delete(ctx context.Context, id string) error
}

type auditor interface {
	Record(ctx context.Context, eventType compliance.AuditEventType, clinicID, actorID, subject string, v any) error
	LogLogin(ctx context.Context, clinicID, userID, email, remoteIP string, ok bool) error
}

// TokenConfig controls issued admin tokens.
type TokenConfig struct {
	Secret string
	TTL    time.Duration
}

// Service handles login and onboarding.
type Service struct {
	accounts accountStore
	clinics  clinicStore
	audit    auditor
	tokens   TokenConfig
	logger   *logging.Logger
	now      func() time.Time
}

func NewService(accounts accountStore, clinics clinicStore, tokens TokenConfig, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if tokens.TTL <= 0 {
		tokens.TTL = 12 * time.Hour
	}
	return &Service{
		accounts: accounts,
		clinics:  clinics,
		tokens:   tokens,
		logger:   logger.WithComponent("admin"),
		now:      time.Now,
	}
}

func (s *Service) WithAudit(a auditor) *Service {
	s.audit = a
	return s
}

// LoginResult is returned to the dashboard after a successful login.
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      *User     `json:"user"`
	ClinicID  string    `json:"clinic_id"`
}

// Login verifies the password and issues a signed token.
func (s *Service) Login(ctx context.Context, email, password, remoteIP string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apierr.BadRequest("email and password are required")
	}
	user, err := s.accounts.UserByEmail(ctx, email)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, apierr.Upstream("user lookup failed", err)
	}
	if user == nil || !CheckPassword(password, user.PasswordHash) {
		s.recordLogin(ctx, "", "", email, remoteIP, false)
		return nil, ErrInvalidCredentials
	}
	clinicID, err := s.accounts.ClinicIDForUser(ctx, user.ID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			s.recordLogin(ctx, "", user.ID, email, remoteIP, false)
			return nil, apierr.Forbidden("user has no clinic")
		}
		return nil, apierr.Upstream("profile lookup failed", err)
	}

	now := s.now()
	token, err := middleware.SignAdminToken(s.tokens.Secret, user.ID, user.Email, s.tokens.TTL, now)
	if err != nil {
		return nil, err
	}
	s.recordLogin(ctx, clinicID, user.ID, email, remoteIP, true)
	return &LoginResult{
		Token:     token,
		ExpiresAt: now.Add(s.tokens.TTL).UTC(),
		User:      user,
		ClinicID:  clinicID,
	}, nil
}

func (s *Service) recordLogin(ctx context.Context, clinicID, userID, email, remoteIP string, ok bool) {
	if s.audit == nil {
		return
	}
	if err := s.audit.LogLogin(ctx, clinicID, userID, email, remoteIP, ok); err != nil {
		s.logger.Warn("audit login failed", "error", err)
	}
}

// OnboardInput creates a clinic together with its first administrator.
type OnboardInput struct {
	ClinicName    string `json:"clinic_name"`
	LegalName     string `json:"legal_name"`
	RUT           string `json:"rut"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Timezone      string `json:"timezone"`
	BookingURL    string `json:"booking_url"`
	AdminName     string `json:"admin_name"`
	AdminEmail    string `json:"admin_email"`
	AdminPassword string `json:"admin_password"`
}

// OnboardResult identifies what was created.
type OnboardResult struct {
	Clinic *clinic.Clinic `json:"clinic"`
	User   *User          `json:"user"`
}

func (in *OnboardInput) normalize() error {
	in.ClinicName = strings.TrimSpace(in.ClinicName)
	if in.ClinicName == "" {
		return apierr.BadRequest("clinic_name is required")
	}
	in.AdminEmail = strings.ToLower(strings.TrimSpace(in.AdminEmail))
	if _, err := mail.ParseAddress(in.AdminEmail); err != nil || in.AdminEmail == "" {
		return apierr.BadRequest("admin_email is invalid")
	}
	if len(in.AdminPassword) < minPasswordLength {
		return apierr.BadRequest("admin_password must be at least 10 characters")
	}
	if strings.TrimSpace(in.RUT) != "" {
		rut, err := patients.NormalizeRUT(in.RUT)
		if err != nil {
			return apierr.BadRequest("rut is invalid")
		}
		in.RUT = rut
	}
	if in.Timezone != "" {
		if _, err := time.LoadLocation(in.Timezone); err != nil {
			return apierr.BadRequest("unknown timezone")
		}
	}
	return nil
}

// Onboard creates the clinic, its admin user and the profile linking them.
// A failure in any step removes what the earlier steps created.
func (s *Service) Onboard(ctx context.Context, in OnboardInput) (*OnboardResult, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	hash, err := HashPassword(in.AdminPassword)
	if err != nil {
		return nil, apierr.BadRequest("admin_password is invalid")
	}

	c := &clinic.Clinic{
		Name:       in.ClinicName,
		LegalName:  strings.TrimSpace(in.LegalName),
		RUT:        in.RUT,
		Email:      strings.TrimSpace(in.Email),
		Phone:      strings.TrimSpace(in.Phone),
		Timezone:   in.Timezone,
		BookingURL: strings.TrimSpace(in.BookingURL),
		Settings:   clinic.DefaultSettings(),
	}
	u := &User{Email: in.AdminEmail, FullName: strings.TrimSpace(in.AdminName), PasswordHash: hash}

	err = saga.New("clinic_onboarding", s.logger).
		Add(saga.Step{
			Name:       "create_clinic",
			Do:         func(ctx context.Context) error { return s.clinics.Create(ctx, c) },
			Compensate: func(ctx context.Context) error { return s.clinics.Delete(ctx, c.ID) },
		}).
		Add(saga.Step{
			Name:       "create_admin_user",
			Do:         func(ctx context.Context) error { return s.accounts.CreateUser(ctx, u) },
			Compensate: func(ctx context.Context) error { return s.accounts.DeleteUser(ctx, u.ID) },
		}).
		Add(saga.Step{
			Name: "create_profile",
			Do: func(ctx context.Context) error {
				return s.accounts.CreateProfile(ctx, Profile{UserID: u.ID, ClinicID: c.ID, Role: "owner"})
			},
		}).
		Run(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.Info("clinic onboarded", "clinic_id", c.ID, "user_id", u.ID)
	if s.audit != nil {
		if err := s.audit.Record(ctx, compliance.EventClinicOnboarded, c.ID, u.ID, c.Name, map[string]string{"admin_email": u.Email}); err != nil {
			s.logger.Warn("audit onboarding failed", "clinic_id", c.ID, "error", err)
		}
	}
	return &OnboardResult{Clinic: c, User: u}, nil
}
