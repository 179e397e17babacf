package behavior

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrPatientNotFound is returned when the patient is not in the clinic.
var ErrPatientNotFound = errors.New("behavior: patient not found")

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore writes profiles onto the patients table.
type PostgresStore struct {
	db execer
}

// NewPostgresStore creates a store over a pgx pool or transaction.
func NewPostgresStore(db execer) *PostgresStore {
	if db == nil {
		panic("behavior: db required")
	}
	return &PostgresStore{db: db}
}

// SaveProfile records the profile and the session snapshot on the patient.
func (s *PostgresStore) SaveProfile(ctx context.Context, clinicID, patientID string, snap Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("behavior: marshal snapshot: %w", err)
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE patients
		SET psych_profile = $1, behavior_snapshot = $2, updated_at = now()
		WHERE id = $3 AND clinic_id = $4`,
		string(snap.Profile), payload, patientID, clinicID,
	)
	if err != nil {
		return fmt.Errorf("behavior: update patient profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPatientNotFound
	}
	return nil
}
