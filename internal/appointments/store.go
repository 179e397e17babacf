package appointments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/wolfman30/clinic-growth-platform/internal/campaigns"
	"github.com/wolfman30/clinic-growth-platform/internal/payments"
)

const appointmentColumns = `id, clinic_id, patient_id, service_type, scheduled_at, duration_minutes, amount, status, payment_status,
	COALESCE(external_reference, ''), COALESCE(payment_provider, ''), COALESCE(payment_id, ''), paid_at,
	COALESCE(invoice_folio, ''), COALESCE(gclid, ''), COALESCE(notes, ''), created_at, updated_at`

// PostgresStore keeps the appointments table.
type PostgresStore struct {
	db  campaigns.DB
	now func() time.Time
}

func NewPostgresStore(db campaigns.DB) *PostgresStore {
	if db == nil {
		panic("appointments: db required")
	}
	return &PostgresStore{db: db, now: time.Now}
}

// Create books an appointment for a patient of the same clinic and assigns
// its payment reference.
func (s *PostgresStore) Create(ctx context.Context, clinicID string, in CreateInput) (*Appointment, error) {
	id := uuid.NewString()
	ref := payments.BuildReference(id, s.now())
	row := s.db.QueryRow(ctx, `
		INSERT INTO appointments (id, clinic_id, patient_id, service_type, scheduled_at, duration_minutes, amount, status, payment_status, external_reference, gclid, notes)
		SELECT $1, $2, p.id, $4, $5, $6, $7, $8, $9, $10, NULLIF($11, ''), NULLIF($12, '')
		FROM patients p
		WHERE p.id = $3 AND p.clinic_id = $2
		RETURNING `+appointmentColumns,
		id, clinicID, in.PatientID, in.ServiceType, in.ScheduledAt, in.DurationMinutes, in.Amount,
		in.Status, in.PaymentStatus, ref, in.GCLID, in.Notes,
	)
	a, err := scanAppointment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPatientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("appointments: create: %w", err)
	}
	return a, nil
}

// Get returns one appointment of the clinic.
func (s *PostgresStore) Get(ctx context.Context, clinicID, id string) (*Appointment, error) {
	row := s.db.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1 AND clinic_id = $2`, id, clinicID)
	a, err := scanAppointment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("appointments: get: %w", err)
	}
	return a, nil
}

// List returns the clinic's appointments ordered by start time.
func (s *PostgresStore) List(ctx context.Context, clinicID string, f Filter) ([]Appointment, error) {
	where := []string{"clinic_id = $1"}
	args := []any{clinicID}
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.PatientID != "" {
		add("patient_id = $%d", f.PatientID)
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.PaymentStatus != "" {
		add("payment_status = $%d", f.PaymentStatus)
	}
	if !f.From.IsZero() {
		add("scheduled_at >= $%d", f.From)
	}
	if !f.To.IsZero() {
		add("scheduled_at < $%d", f.To)
	}
	if f.Limit <= 0 {
		f.Limit = 100
	}
	args = append(args, f.Limit)
	query := fmt.Sprintf(`SELECT %s FROM appointments WHERE %s ORDER BY scheduled_at LIMIT $%d`,
		appointmentColumns, strings.Join(where, " AND "), len(args))

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("appointments: list: %w", err)
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("appointments: scan: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// Update applies the non-nil fields of in.
func (s *PostgresStore) Update(ctx context.Context, clinicID, id string, in UpdateInput) (*Appointment, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE appointments SET
			service_type = COALESCE($3, service_type),
			scheduled_at = COALESCE($4, scheduled_at),
			duration_minutes = COALESCE($5, duration_minutes),
			amount = COALESCE($6, amount),
			status = COALESCE($7, status),
			payment_status = COALESCE($8, payment_status),
			notes = COALESCE($9, notes),
			updated_at = now()
		WHERE id = $1 AND clinic_id = $2
		RETURNING `+appointmentColumns,
		id, clinicID, in.ServiceType, in.ScheduledAt, in.DurationMinutes, in.Amount, in.Status, in.PaymentStatus, in.Notes,
	)
	a, err := scanAppointment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("appointments: update: %w", err)
	}
	return a, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.ClinicID, &a.PatientID, &a.ServiceType, &a.ScheduledAt, &a.DurationMinutes, &a.Amount,
		&a.Status, &a.PaymentStatus, &a.ExternalReference, &a.PaymentProvider, &a.PaymentID, &a.PaidAt,
		&a.InvoiceFolio, &a.GCLID, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
