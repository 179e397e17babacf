package bant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wolfman30/clinic-growth-platform/internal/behavior"
)

var (
	// ErrNoScore is returned when a patient was never qualified.
	ErrNoScore = errors.New("bant: no score for patient")
	// ErrPatientNotFound is returned when the patient is not in the clinic.
	ErrPatientNotFound = errors.New("bant: patient not found")
)

// DB is the subset of pgx used by the store.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists scores and reads the patient signals priority depends on.
type Store interface {
	Insert(ctx context.Context, s *Score) error
	Latest(ctx context.Context, clinicID, patientID string) (*Score, error)
	PatientSignals(ctx context.Context, clinicID, patientID string) (behavior.Profile, int, error)
}

// PostgresStore keeps scores in bant_scores, insert-only.
type PostgresStore struct {
	db DB
}

func NewPostgresStore(db DB) *PostgresStore {
	if db == nil {
		panic("bant: db required")
	}
	return &PostgresStore{db: db}
}

// Insert writes a new score row and fills in its id and created_at.
func (s *PostgresStore) Insert(ctx context.Context, sc *Score) error {
	if sc.ID == "" {
		sc.ID = uuid.NewString()
	}
	var createdAt time.Time
	err := s.db.QueryRow(ctx, `
		INSERT INTO bant_scores (
			id, clinic_id, patient_id, budget, budget_score, authority, job_title, authority_score,
			need, need_score, timeline_days, timeline_score, total_score, status, disqualified_reason, qualified_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		RETURNING created_at`,
		sc.ID, sc.ClinicID, sc.PatientID, sc.Budget, sc.BudgetScore, sc.Authority, sc.JobTitle, sc.AuthorityScore,
		sc.Need, sc.NeedScore, sc.TimelineDays, sc.TimelineScore, sc.TotalScore, string(sc.Status),
		nullString(sc.DisqualifiedReason), sc.QualifiedAt,
	).Scan(&createdAt)
	if err != nil {
		return fmt.Errorf("bant: insert score: %w", err)
	}
	sc.CreatedAt = createdAt
	return nil
}

// Latest returns the newest score for the patient.
func (s *PostgresStore) Latest(ctx context.Context, clinicID, patientID string) (*Score, error) {
	var (
		sc     Score
		status string
	)
	err := s.db.QueryRow(ctx, `
		SELECT id, clinic_id, patient_id, budget, budget_score, authority, job_title, authority_score,
			need, need_score, timeline_days, timeline_score, total_score, status,
			COALESCE(disqualified_reason, ''), qualified_at, created_at
		FROM bant_scores
		WHERE clinic_id = $1 AND patient_id = $2
		ORDER BY created_at DESC
		LIMIT 1`, clinicID, patientID,
	).Scan(
		&sc.ID, &sc.ClinicID, &sc.PatientID, &sc.Budget, &sc.BudgetScore, &sc.Authority, &sc.JobTitle,
		&sc.AuthorityScore, &sc.Need, &sc.NeedScore, &sc.TimelineDays, &sc.TimelineScore, &sc.TotalScore,
		&status, &sc.DisqualifiedReason, &sc.QualifiedAt, &sc.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoScore
	}
	if err != nil {
		return nil, fmt.Errorf("bant: latest score: %w", err)
	}
	sc.Status = Status(status)
	return &sc, nil
}

// PatientSignals reads the psychographic profile and scarcity level.
func (s *PostgresStore) PatientSignals(ctx context.Context, clinicID, patientID string) (behavior.Profile, int, error) {
	var (
		profile  string
		scarcity int
	)
	err := s.db.QueryRow(ctx, `
		SELECT COALESCE(psych_profile, ''), scarcity_level FROM patients WHERE id = $1 AND clinic_id = $2`,
		patientID, clinicID,
	).Scan(&profile, &scarcity)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", 0, ErrPatientNotFound
	}
	if err != nil {
		return "", 0, fmt.Errorf("bant: patient signals: %w", err)
	}
	return behavior.Profile(profile), scarcity, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
