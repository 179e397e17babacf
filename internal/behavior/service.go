package behavior

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/clinic-growth-platform/pkg/logging"
)

// ErrSessionRequired is returned when a classification request carries no session id.
var ErrSessionRequired = errors.New("behavior: session id is required")

// ErrNotReady is returned for samples observed too briefly to classify. The
// session stays unclaimed so a later sample can classify it.
var ErrNotReady = errors.New("behavior: session not ready for classification")

// ProfileStore persists a classified profile against the visitor's patient record.
type ProfileStore interface {
	SaveProfile(ctx context.Context, clinicID, patientID string, snap Snapshot) error
}

// SessionGuard remembers which sessions were already classified.
type SessionGuard interface {
	// Claim records p for the session. When the session was classified before,
	// it returns the stored profile and claimed=false.
	Claim(ctx context.Context, clinicID, sessionID string, p Profile) (stored Profile, claimed bool, err error)
	Release(ctx context.Context, clinicID, sessionID string) error
}

// ClassifyRequest is one session's accumulated behavior.
type ClassifyRequest struct {
	ClinicID  string `json:"clinic_id"`
	PatientID string `json:"patient_id,omitempty"`
	SessionID string `json:"session_id"`
	Sample    Sample `json:"sample"`
}

// ClassifyResult is returned to the landing page.
type ClassifyResult struct {
	Profile      Profile `json:"profile"`
	Reclassified bool    `json:"reclassified"`
	Persisted    bool    `json:"persisted"`
	Content      Variant `json:"content"`
}

// Service classifies sessions and persists the first classification.
type Service struct {
	store  ProfileStore
	guard  SessionGuard
	logger *logging.Logger
	now    func() time.Time
}

// NewService wires a classification service. store may be nil for
// anonymous-only deployments.
func NewService(store ProfileStore, guard SessionGuard, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{store: store, guard: guard, logger: logger, now: time.Now}
}

// ClassifySession classifies the sample once per session. Later calls for the
// same session return the profile stored by the first call. Samples that are
// not Ready are rejected before the session is claimed.
func (s *Service) ClassifySession(ctx context.Context, req ClassifyRequest) (*ClassifyResult, error) {
	if strings.TrimSpace(req.SessionID) == "" {
		return nil, ErrSessionRequired
	}
	if !req.Sample.Ready() {
		return nil, ErrNotReady
	}
	profile := Classify(req.Sample)

	stored, claimed, err := s.guard.Claim(ctx, req.ClinicID, req.SessionID, profile)
	if err != nil {
		return nil, fmt.Errorf("behavior: claim session: %w", err)
	}
	if !claimed {
		return &ClassifyResult{Profile: stored, Content: ContentVariant(stored)}, nil
	}

	result := &ClassifyResult{Profile: profile, Reclassified: true, Content: ContentVariant(profile)}
	if s.store == nil || req.PatientID == "" {
		return result, nil
	}

	snap := Snapshot{
		SessionID:    req.SessionID,
		Profile:      profile,
		Sample:       req.Sample,
		ClassifiedAt: s.now().UTC(),
	}
	if err := s.store.SaveProfile(ctx, req.ClinicID, req.PatientID, snap); err != nil {
		if relErr := s.guard.Release(ctx, req.ClinicID, req.SessionID); relErr != nil {
			s.logger.Warn("behavior: release session after failed save", "error", relErr, "session_id", req.SessionID)
		}
		return nil, fmt.Errorf("behavior: save profile: %w", err)
	}
	result.Persisted = true

	s.logger.Info("behavior: session classified",
		"clinic_id", req.ClinicID,
		"patient_id", req.PatientID,
		"profile", profile,
	)
	return result, nil
}
