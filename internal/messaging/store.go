package messaging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrCallTaskNotFound is returned when an open task does not exist in the clinic.
var ErrCallTaskNotFound = errors.New("messaging: call task not found")

type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// CallTask is a phone call staff owe a patient.
type CallTask struct {
	ID          string     `json:"id"`
	ClinicID    string     `json:"clinic_id"`
	PatientID   string     `json:"patient_id"`
	Name        string     `json:"name"`
	Phone       string     `json:"phone"`
	Category    string     `json:"category"`
	Script      string     `json:"script"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Store persists call tasks in Postgres.
type Store struct {
	db Querier
}

func NewStore(db Querier) *Store {
	if db == nil {
		return nil
	}
	return &Store{db: db}
}

// RecordCallTask implements CallTaskRecorder.
func (s *Store) RecordCallTask(ctx context.Context, msg Outbound) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO call_tasks (id, clinic_id, patient_id, patient_name, phone, category, script, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'open')`,
		uuid.NewString(), msg.ClinicID, msg.PatientID, msg.Name, msg.Phone, msg.Category, msg.Body,
	)
	if err != nil {
		return fmt.Errorf("messaging: record call task: %w", err)
	}
	return nil
}

// ListOpen returns the clinic's pending calls, oldest first.
func (s *Store) ListOpen(ctx context.Context, clinicID string, limit int) ([]CallTask, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, clinic_id, patient_id, patient_name, phone, category, script, status, created_at, completed_at
		FROM call_tasks
		WHERE clinic_id = $1 AND status = 'open'
		ORDER BY created_at
		LIMIT $2`, clinicID, limit)
	if err != nil {
		return nil, fmt.Errorf("messaging: list call tasks: %w", err)
	}
	defer rows.Close()

	var out []CallTask
	for rows.Next() {
		var t CallTask
		if err := rows.Scan(&t.ID, &t.ClinicID, &t.PatientID, &t.Name, &t.Phone, &t.Category, &t.Script, &t.Status, &t.CreatedAt, &t.CompletedAt); err != nil {
			return nil, fmt.Errorf("messaging: scan call task: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Complete closes an open task.
func (s *Store) Complete(ctx context.Context, clinicID, id string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE call_tasks SET status = 'done', completed_at = now()
		WHERE id = $1 AND clinic_id = $2 AND status = 'open'`, id, clinicID)
	if err != nil {
		return fmt.Errorf("messaging: complete call task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCallTaskNotFound
	}
	return nil
}
