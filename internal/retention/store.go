package retention

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/wolfman30/clinic-growth-platform/internal/campaigns"
)

// ErrNotFound is returned when a schedule does not exist in the clinic.
var ErrNotFound = errors.New("retention: schedule not found")

// Store is the persistence used by the service.
type Store interface {
	Create(ctx context.Context, s *Schedule) (bool, error)
	ListActive(ctx context.Context, clinicID string) ([]Schedule, error)
	List(ctx context.Context, clinicID string, status Status, limit int) ([]Schedule, error)
	MarkReminders(ctx context.Context, id string, offsets []int) error
	SetStatus(ctx context.Context, clinicID, id string, from, to Status) error
	CompleteForService(ctx context.Context, clinicID, patientID, serviceType string) (int64, error)
	CreateRenewalAppointment(ctx context.Context, s Schedule, at time.Time) (string, error)
	RecordCampaign(ctx context.Context, entry *campaigns.Log) (bool, error)
	MarkCampaignStatus(ctx context.Context, id string, status campaigns.Status, channel, errMsg string) error
}

// PostgresStore keeps retention_schedules.
type PostgresStore struct {
	db   campaigns.DB
	logs *campaigns.PostgresStore
}

func NewPostgresStore(db campaigns.DB) *PostgresStore {
	if db == nil {
		panic("retention: db required")
	}
	return &PostgresStore{db: db, logs: campaigns.NewPostgresStore(db)}
}

// Create inserts s unless a schedule already exists for its appointment.
func (p *PostgresStore) Create(ctx context.Context, s *Schedule) (bool, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Status == "" {
		s.Status = StatusActive
	}
	err := p.db.QueryRow(ctx, `
		INSERT INTO retention_schedules (id, clinic_id, patient_id, appointment_id, service_type, last_service_date, next_renewal_date, auto_renewal_enabled, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (appointment_id) DO NOTHING
		RETURNING created_at, updated_at`,
		s.ID, s.ClinicID, s.PatientID, s.AppointmentID, s.ServiceType,
		s.LastServiceDate, s.NextRenewalDate, s.AutoRenewalEnabled, string(s.Status),
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("retention: create: %w", err)
	}
	return true, nil
}

const scheduleColumns = `
	r.id, r.clinic_id, r.patient_id, r.appointment_id, r.service_type, r.last_service_date, r.next_renewal_date,
	r.auto_renewal_enabled, r.status, r.reminder_30_sent, r.reminder_14_sent, r.reminder_7_sent, r.reminder_1_sent,
	r.created_at, r.updated_at, p.full_name, COALESCE(p.phone, ''), COALESCE(p.email, '')`

// ListActive returns the clinic's active schedules with patient contact data.
func (p *PostgresStore) ListActive(ctx context.Context, clinicID string) ([]Schedule, error) {
	rows, err := p.db.Query(ctx, `
		SELECT`+scheduleColumns+`
		FROM retention_schedules r
		JOIN patients p ON p.id = r.patient_id
		WHERE r.clinic_id = $1 AND r.status = 'active'
		ORDER BY r.next_renewal_date`, clinicID)
	if err != nil {
		return nil, fmt.Errorf("retention: list active: %w", err)
	}
	defer rows.Close()
	return scanSchedules(rows)
}

// List returns schedules for the admin view, optionally filtered by status.
func (p *PostgresStore) List(ctx context.Context, clinicID string, status Status, limit int) ([]Schedule, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := p.db.Query(ctx, `
		SELECT`+scheduleColumns+`
		FROM retention_schedules r
		JOIN patients p ON p.id = r.patient_id
		WHERE r.clinic_id = $1 AND ($2 = '' OR r.status = $2)
		ORDER BY r.next_renewal_date
		LIMIT $3`, clinicID, string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("retention: list: %w", err)
	}
	defer rows.Close()
	return scanSchedules(rows)
}

// MarkReminders flags the given offsets as sent. Flags are never cleared.
func (p *PostgresStore) MarkReminders(ctx context.Context, id string, offsets []int) error {
	var r30, r14, r7, r1 bool
	for _, o := range offsets {
		switch o {
		case 30:
			r30 = true
		case 14:
			r14 = true
		case 7:
			r7 = true
		case 1:
			r1 = true
		}
	}
	_, err := p.db.Exec(ctx, `
		UPDATE retention_schedules SET
			reminder_30_sent = reminder_30_sent OR $2,
			reminder_14_sent = reminder_14_sent OR $3,
			reminder_7_sent = reminder_7_sent OR $4,
			reminder_1_sent = reminder_1_sent OR $5,
			updated_at = now()
		WHERE id = $1`, id, r30, r14, r7, r1)
	if err != nil {
		return fmt.Errorf("retention: mark reminders: %w", err)
	}
	return nil
}

// SetStatus moves a schedule from one status to another. ErrNotFound is
// returned when no schedule in the clinic is in the from status.
func (p *PostgresStore) SetStatus(ctx context.Context, clinicID, id string, from, to Status) error {
	tag, err := p.db.Exec(ctx, `
		UPDATE retention_schedules SET status = $4, updated_at = now()
		WHERE id = $1 AND clinic_id = $2 AND status = $3`,
		id, clinicID, string(from), string(to))
	if err != nil {
		return fmt.Errorf("retention: set status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CompleteForService closes every active schedule of the patient for the service.
func (p *PostgresStore) CompleteForService(ctx context.Context, clinicID, patientID, serviceType string) (int64, error) {
	tag, err := p.db.Exec(ctx, `
		UPDATE retention_schedules SET status = 'completed', updated_at = now()
		WHERE clinic_id = $1 AND patient_id = $2 AND lower(service_type) = lower($3) AND status = 'active'`,
		clinicID, patientID, serviceType)
	if err != nil {
		return 0, fmt.Errorf("retention: complete for service: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CreateRenewalAppointment books a pending copy of the schedule's original
// appointment at the given time and returns its id. The booking is tagged
// auto_renewal so cart pursuit leaves it alone.
func (p *PostgresStore) CreateRenewalAppointment(ctx context.Context, s Schedule, at time.Time) (string, error) {
	id := uuid.NewString()
	ref := fmt.Sprintf("ORD-%s-%d", id, at.Unix())
	tag, err := p.db.Exec(ctx, `
		INSERT INTO appointments (id, clinic_id, patient_id, service_type, scheduled_at, duration_minutes, amount, status, payment_status, external_reference, source, notes)
		SELECT $1, a.clinic_id, a.patient_id, a.service_type, $2, a.duration_minutes, a.amount, 'pending', 'unpaid', $3, 'auto_renewal', 'auto-renewal'
		FROM appointments a
		WHERE a.id = $4 AND a.clinic_id = $5`,
		id, at, ref, s.AppointmentID, s.ClinicID)
	if err != nil {
		return "", fmt.Errorf("retention: create renewal appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return "", fmt.Errorf("retention: create renewal appointment: source appointment %s missing", s.AppointmentID)
	}
	return id, nil
}

func (p *PostgresStore) RecordCampaign(ctx context.Context, entry *campaigns.Log) (bool, error) {
	return p.logs.Record(ctx, entry)
}

func (p *PostgresStore) MarkCampaignStatus(ctx context.Context, id string, status campaigns.Status, channel, errMsg string) error {
	return p.logs.MarkStatus(ctx, id, status, channel, errMsg)
}

func scanSchedules(rows pgx.Rows) ([]Schedule, error) {
	var out []Schedule
	for rows.Next() {
		var s Schedule
		var status string
		if err := rows.Scan(
			&s.ID, &s.ClinicID, &s.PatientID, &s.AppointmentID, &s.ServiceType, &s.LastServiceDate, &s.NextRenewalDate,
			&s.AutoRenewalEnabled, &status, &s.Reminder30Sent, &s.Reminder14Sent, &s.Reminder7Sent, &s.Reminder1Sent,
			&s.CreatedAt, &s.UpdatedAt, &s.PatientName, &s.Phone, &s.Email,
		); err != nil {
			return nil, fmt.Errorf("retention: scan schedule: %w", err)
		}
		s.Status = Status(status)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("retention: schedule rows: %w", err)
	}
	return out, nil
}
