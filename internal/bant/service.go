package bant

import (
	"context"
	"fmt"
	"time"

	"github.com/wolfman30/clinic-growth-platform/internal/observability/metrics"
	"github.com/wolfman30/clinic-growth-platform/pkg/logging"
)

// Evaluation bundles a stored score with its routing decision.
type Evaluation struct {
	Score          *Score         `json:"score"`
	Recommendation Recommendation `json:"recommendation"`
	Priority       Priority       `json:"priority"`
}

// Service qualifies leads and records every attempt.
type Service struct {
	store   Store
	logger  *logging.Logger
	metrics *metrics.GrowthMetrics
	now     func() time.Time
}

func NewService(store Store, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{store: store, logger: logger, now: time.Now}
}

// WithMetrics attaches prometheus counters.
func (s *Service) WithMetrics(m *metrics.GrowthMetrics) *Service {
	s.metrics = m
	return s
}

// Evaluate scores the input for a patient, stores it as a new row and
// computes the contact priority from the patient's profile and scarcity.
func (s *Service) Evaluate(ctx context.Context, clinicID, patientID string, in Input) (*Evaluation, error) {
	profile, scarcity, err := s.store.PatientSignals(ctx, clinicID, patientID)
	if err != nil {
		return nil, err
	}

	score := Qualify(in)
	score.ClinicID = clinicID
	score.PatientID = patientID
	if score.Status == StatusQualified {
		at := s.now().UTC()
		score.QualifiedAt = &at
	}
	if err := s.store.Insert(ctx, &score); err != nil {
		return nil, fmt.Errorf("bant: evaluate: %w", err)
	}
	s.metrics.ObserveBANT(string(score.Status))

	eval := &Evaluation{
		Score:          &score,
		Recommendation: Recommend(score),
		Priority:       LeadPriority(score, profile, scarcity),
	}
	s.logger.Info("bant: lead evaluated",
		"clinic_id", clinicID,
		"patient_id", patientID,
		"total", score.TotalScore,
		"status", score.Status,
		"tier", eval.Priority.Tier,
	)
	return eval, nil
}

// Latest returns the newest stored score for the patient.
func (s *Service) Latest(ctx context.Context, clinicID, patientID string) (*Score, error) {
	return s.store.Latest(ctx, clinicID, patientID)
}
