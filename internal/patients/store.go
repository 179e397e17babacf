package patients

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wolfman30/clinic-growth-platform/internal/campaigns"
)

const uniqueViolation = "23505"

const patientColumns = `id, clinic_id, full_name, COALESCE(phone, ''), COALESCE(email, ''), COALESCE(rut, ''),
	COALESCE(psych_profile, ''), scarcity_level, is_abandoned, total_spent, created_at, updated_at`

// PostgresStore keeps the patients table.
type PostgresStore struct {
	db campaigns.DB
}

func NewPostgresStore(db campaigns.DB) *PostgresStore {
	if db == nil {
		panic("patients: db required")
	}
	return &PostgresStore{db: db}
}

// Create inserts a patient from a normalized input.
func (s *PostgresStore) Create(ctx context.Context, clinicID string, in Input) (*Patient, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO patients (id, clinic_id, full_name, phone, email, rut)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''))
		RETURNING `+patientColumns,
		uuid.NewString(), clinicID, deref(in.FullName), deref(in.Phone), deref(in.Email), deref(in.RUT),
	)
	p, err := scanPatient(row)
	if err != nil {
		return nil, translate("create", err)
	}
	return p, nil
}

// Get returns one patient of the clinic.
func (s *PostgresStore) Get(ctx context.Context, clinicID, id string) (*Patient, error) {
	row := s.db.QueryRow(ctx, `SELECT `+patientColumns+` FROM patients WHERE id = $1 AND clinic_id = $2`, id, clinicID)
	p, err := scanPatient(row)
	if err != nil {
		return nil, translate("get", err)
	}
	return p, nil
}

// List returns the clinic's patients, newest first.
func (s *PostgresStore) List(ctx context.Context, clinicID string, f Filter) ([]Patient, error) {
	where := []string{"clinic_id = $1"}
	args := []any{clinicID}
	if f.Search != "" {
		args = append(args, "%"+strings.ToLower(f.Search)+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(LOWER(full_name) LIKE $%d OR phone LIKE $%d OR LOWER(email) LIKE $%d)", n, n, n))
	}
	if f.Profile != "" {
		args = append(args, f.Profile)
		where = append(where, fmt.Sprintf("psych_profile = $%d", len(args)))
	}
	if f.Abandoned != nil {
		args = append(args, *f.Abandoned)
		where = append(where, fmt.Sprintf("is_abandoned = $%d", len(args)))
	}
	if f.Limit <= 0 {
		f.Limit = 50
	}
	args = append(args, f.Limit, f.Offset)
	query := fmt.Sprintf(`SELECT %s FROM patients WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		patientColumns, strings.Join(where, " AND "), len(args)-1, len(args))

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("patients: list: %w", err)
	}
	defer rows.Close()

	var out []Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("patients: scan: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// Update applies the non-nil fields of in.
func (s *PostgresStore) Update(ctx context.Context, clinicID, id string, in Input) (*Patient, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE patients SET
			full_name = COALESCE($3, full_name),
			phone = CASE WHEN $4::text IS NULL THEN phone ELSE NULLIF($4, '') END,
			email = CASE WHEN $5::text IS NULL THEN email ELSE NULLIF($5, '') END,
			rut = CASE WHEN $6::text IS NULL THEN rut ELSE NULLIF($6, '') END,
			updated_at = now()
		WHERE id = $1 AND clinic_id = $2
		RETURNING `+patientColumns,
		id, clinicID, in.FullName, in.Phone, in.Email, in.RUT,
	)
	p, err := scanPatient(row)
	if err != nil {
		return nil, translate("update", err)
	}
	return p, nil
}

// Delete removes the patient. Appointments cascade in the schema.
func (s *PostgresStore) Delete(ctx context.Context, clinicID, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM patients WHERE id = $1 AND clinic_id = $2`, id, clinicID)
	if err != nil {
		return fmt.Errorf("patients: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.ClinicID, &p.FullName, &p.Phone, &p.Email, &p.RUT,
		&p.PsychProfile, &p.ScarcityLevel, &p.IsAbandoned, &p.TotalSpent, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func translate(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicate
	}
	return fmt.Errorf("patients: %s: %w", op, err)
}
