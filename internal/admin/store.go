// Package admin authenticates clinic staff and onboards new clinics.
package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wolfman30/clinic-growth-platform/internal/apierr"
	"github.com/wolfman30/clinic-growth-platform/internal/campaigns"
)

var (
	ErrUserNotFound    = fmt.Errorf("admin: user %w", apierr.ErrNotFound)
	ErrProfileNotFound = fmt.Errorf("admin: profile %w", apierr.ErrNotFound)
	ErrEmailTaken      = apierr.Conflict("email already registered")
)

// User is a staff account.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Profile binds a user to the clinic it administers.
type Profile struct {
	UserID   string `json:"user_id"`
	ClinicID string `json:"clinic_id"`
	Role     string `json:"role"`
}

// PostgresStore keeps admin_users and profiles.
type PostgresStore struct {
	db campaigns.DB
}

func NewPostgresStore(db campaigns.DB) *PostgresStore {
	if db == nil {
		panic("admin: db required")
	}
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateUser(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	err := s.db.QueryRow(ctx, `
		INSERT INTO admin_users (id, email, full_name, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		u.ID, u.Email, u.FullName, u.PasswordHash,
	).Scan(&u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrEmailTaken
		}
		return fmt.Errorf("admin: create user: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteUser(ctx context.Context, id string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM admin_users WHERE id = $1`, id); err != nil {
		return fmt.Errorf("admin: delete user: %w", err)
	}
	return nil
}

// UserByEmail looks up an account case-insensitively.
func (s *PostgresStore) UserByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := s.db.QueryRow(ctx, `
		SELECT id, email, COALESCE(full_name, ''), password_hash, created_at
		FROM admin_users WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(email)),
	).Scan(&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("admin: get user: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) CreateProfile(ctx context.Context, p Profile) error {
	if p.Role == "" {
		p.Role = "owner"
	}
	if _, err := s.db.Exec(ctx, `
		INSERT INTO profiles (user_id, clinic_id, role) VALUES ($1, $2, $3)`,
		p.UserID, p.ClinicID, p.Role,
	); err != nil {
		return fmt.Errorf("admin: create profile: %w", err)
	}
	return nil
}

// ClinicIDForUser resolves the clinic an authenticated user may act on.
func (s *PostgresStore) ClinicIDForUser(ctx context.Context, userID string) (string, error) {
	var clinicID string
	err := s.db.QueryRow(ctx, `SELECT clinic_id FROM profiles WHERE user_id = $1`, userID).Scan(&clinicID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrProfileNotFound
	}
	if err != nil {
		return "", fmt.Errorf("admin: profile lookup: %w", err)
	}
	return clinicID, nil
}
