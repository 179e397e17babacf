package clinic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/wolfman30/clinic-growth-platform/internal/campaigns"
)

const clinicColumns = `id, name, COALESCE(legal_name, ''), COALESCE(rut, ''), COALESCE(email, ''), COALESCE(phone, ''),
	COALESCE(address, ''), timezone, COALESCE(booking_url, ''), settings, active, created_at, updated_at`

// PostgresStore keeps the clinics table.
type PostgresStore struct {
	db campaigns.DB
}

func NewPostgresStore(db campaigns.DB) *PostgresStore {
	if db == nil {
		panic("clinic: db required")
	}
	return &PostgresStore{db: db}
}

// Create inserts c, assigning an id when empty.
func (s *PostgresStore) Create(ctx context.Context, c *Clinic) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Timezone == "" {
		c.Timezone = "America/Santiago"
	}
	settings, err := json.Marshal(c.Settings)
	if err != nil {
		return fmt.Errorf("clinic: marshal settings: %w", err)
	}
	err = s.db.QueryRow(ctx, `
		INSERT INTO clinics (id, name, legal_name, rut, email, phone, address, timezone, booking_url, settings, active)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), $8, NULLIF($9, ''), $10, true)
		RETURNING created_at, updated_at`,
		c.ID, c.Name, c.LegalName, c.RUT, c.Email, c.Phone, c.Address, c.Timezone, c.BookingURL, settings,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("clinic: create: %w", err)
	}
	c.Active = true
	return nil
}

// Delete removes a clinic. It is the compensation for a failed onboarding.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM clinics WHERE id = $1`, id); err != nil {
		return fmt.Errorf("clinic: delete: %w", err)
	}
	return nil
}

// Get loads one clinic.
func (s *PostgresStore) Get(ctx context.Context, id string) (*Clinic, error) {
	row := s.db.QueryRow(ctx, `SELECT `+clinicColumns+` FROM clinics WHERE id = $1`, id)
	c, err := scanClinic(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("clinic: get: %w", err)
	}
	return c, nil
}

// Save writes every mutable field of c.
func (s *PostgresStore) Save(ctx context.Context, c *Clinic) error {
	settings, err := json.Marshal(c.Settings)
	if err != nil {
		return fmt.Errorf("clinic: marshal settings: %w", err)
	}
	err = s.db.QueryRow(ctx, `
		UPDATE clinics SET name = $2, legal_name = NULLIF($3, ''), email = NULLIF($4, ''), phone = NULLIF($5, ''),
			address = NULLIF($6, ''), timezone = $7, booking_url = NULLIF($8, ''), settings = $9, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`,
		c.ID, c.Name, c.LegalName, c.Email, c.Phone, c.Address, c.Timezone, c.BookingURL, settings,
	).Scan(&c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("clinic: save: %w", err)
	}
	return nil
}

// ListActiveIDs returns every active clinic; the cron fans jobs out over them.
func (s *PostgresStore) ListActiveIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT id FROM clinics WHERE active = true ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("clinic: list active: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("clinic: scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanClinic(row pgx.Row) (*Clinic, error) {
	var (
		c        Clinic
		settings []byte
	)
	if err := row.Scan(&c.ID, &c.Name, &c.LegalName, &c.RUT, &c.Email, &c.Phone, &c.Address,
		&c.Timezone, &c.BookingURL, &settings, &c.Active, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Settings = DefaultSettings()
	if len(settings) > 0 {
		if err := json.Unmarshal(settings, &c.Settings); err != nil {
			return nil, fmt.Errorf("clinic: decode settings: %w", err)
		}
	}
	return &c, nil
}
