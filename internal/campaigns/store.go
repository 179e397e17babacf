package campaigns

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgx used by the store.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps campaign_logs.
type PostgresStore struct {
	db DB
}

func NewPostgresStore(db DB) *PostgresStore {
	if db == nil {
		panic("campaigns: db required")
	}
	return &PostgresStore{db: db}
}

// Record inserts l. It returns false when an entry for the same appointment,
// campaign type and trigger already exists.
func (s *PostgresStore) Record(ctx context.Context, l *Log) (bool, error) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.Status == "" {
		l.Status = StatusPending
	}
	var createdAt time.Time
	err := s.db.QueryRow(ctx, `
		INSERT INTO campaign_logs (id, clinic_id, patient_id, appointment_id, campaign_type, trigger, channel, message, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT DO NOTHING
		RETURNING created_at`,
		l.ID, l.ClinicID, l.PatientID, nullable(l.AppointmentID), string(l.Type), l.Trigger, l.Channel, l.Message, string(l.Status),
	).Scan(&createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("campaigns: record: %w", err)
	}
	l.CreatedAt = createdAt
	return true, nil
}

// MarkStatus updates delivery status; errMsg is stored for failures.
func (s *PostgresStore) MarkStatus(ctx context.Context, id string, status Status, channel, errMsg string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE campaign_logs
		SET status = $2, channel = COALESCE(NULLIF($3, ''), channel), error = NULLIF($4, '')
		WHERE id = $1`,
		id, string(status), channel, errMsg,
	)
	if err != nil {
		return fmt.Errorf("campaigns: mark status: %w", err)
	}
	return nil
}

// Exists reports whether the appointment already has an entry for the trigger.
func (s *PostgresStore) Exists(ctx context.Context, appointmentID string, t Type, trigger string) (bool, error) {
	var one int
	err := s.db.QueryRow(ctx, `
		SELECT 1 FROM campaign_logs
		WHERE appointment_id = $1 AND campaign_type = $2 AND trigger = $3
		LIMIT 1`,
		appointmentID, string(t), trigger,
	).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("campaigns: exists: %w", err)
	}
	return true, nil
}

// List returns the newest entries for a clinic.
func (s *PostgresStore) List(ctx context.Context, clinicID string, limit int) ([]Log, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, clinic_id, patient_id, COALESCE(appointment_id::text, ''), campaign_type, trigger,
			channel, message, status, COALESCE(error, ''), created_at
		FROM campaign_logs
		WHERE clinic_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, clinicID, limit)
	if err != nil {
		return nil, fmt.Errorf("campaigns: list: %w", err)
	}
	defer rows.Close()

	var out []Log
	for rows.Next() {
		var (
			l        Log
			typ, sts string
		)
		if err := rows.Scan(&l.ID, &l.ClinicID, &l.PatientID, &l.AppointmentID, &typ, &l.Trigger,
			&l.Channel, &l.Message, &sts, &l.Error, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("campaigns: scan: %w", err)
		}
		l.Type = Type(typ)
		l.Status = Status(sts)
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("campaigns: rows: %w", err)
	}
	return out, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
