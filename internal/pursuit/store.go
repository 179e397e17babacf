package pursuit

import (
	"context"
	"fmt"
	"time"

	"github.com/wolfman30/clinic-growth-platform/internal/behavior"
	"github.com/wolfman30/clinic-growth-platform/internal/campaigns"
)

// Store is what the scheduler needs from persistence.
type Store interface {
	ListAbandonedCarts(ctx context.Context, clinicID string, trigger Trigger, now time.Time) ([]Cart, error)
	CampaignExists(ctx context.Context, appointmentID string, trigger Trigger) (bool, error)
	RecordCampaign(ctx context.Context, entry *campaigns.Log) (bool, error)
	MarkCampaignStatus(ctx context.Context, id string, status campaigns.Status, channel, errMsg string) error
	BumpScarcity(ctx context.Context, clinicID, patientID string, by int) (int, error)
}

// PostgresStore reads carts from appointments/patients and writes campaign_logs.
type PostgresStore struct {
	db   campaigns.DB
	logs *campaigns.PostgresStore
}

func NewPostgresStore(db campaigns.DB) *PostgresStore {
	if db == nil {
		panic("pursuit: db required")
	}
	return &PostgresStore{db: db, logs: campaigns.NewPostgresStore(db)}
}

// ListAbandonedCarts returns pending, unpaid appointments whose age is inside
// the trigger window and that were not yet contacted for it. A declined payment
// leaves the cart in the pool; bookings made by the renewal job never enter it.
func (s *PostgresStore) ListAbandonedCarts(ctx context.Context, clinicID string, trigger Trigger, now time.Time) ([]Cart, error) {
	min, max := trigger.Window()
	rows, err := s.db.Query(ctx, `
		SELECT a.id, a.clinic_id, a.patient_id, p.full_name, COALESCE(p.phone, ''), COALESCE(p.email, ''),
			COALESCE(p.psych_profile, ''), a.service_type, a.amount, a.scheduled_at, a.created_at, p.scarcity_level
		FROM appointments a
		JOIN patients p ON p.id = a.patient_id AND p.clinic_id = a.clinic_id
		WHERE a.clinic_id = $1
			AND a.status = 'pending'
			AND a.payment_status IN ('pending', 'unpaid', 'failed')
			AND a.source = 'booking'
			AND a.created_at <= $2
			AND a.created_at >= $3
			AND NOT EXISTS (
				SELECT 1 FROM campaign_logs c
				WHERE c.appointment_id = a.id AND c.campaign_type = 'pursuit' AND c.trigger = $4
			)
		ORDER BY a.created_at`,
		clinicID, now.Add(-min), now.Add(-max), string(trigger),
	)
	if err != nil {
		return nil, fmt.Errorf("pursuit: list carts: %w", err)
	}
	defer rows.Close()

	var carts []Cart
	for rows.Next() {
		var (
			c       Cart
			profile string
		)
		if err := rows.Scan(&c.AppointmentID, &c.ClinicID, &c.PatientID, &c.PatientName, &c.Phone, &c.Email,
			&profile, &c.ServiceType, &c.Amount, &c.ScheduledAt, &c.CreatedAt, &c.ScarcityLevel); err != nil {
			return nil, fmt.Errorf("pursuit: scan cart: %w", err)
		}
		c.Profile = behavior.Profile(profile)
		carts = append(carts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pursuit: carts rows: %w", err)
	}
	return carts, nil
}

func (s *PostgresStore) CampaignExists(ctx context.Context, appointmentID string, trigger Trigger) (bool, error) {
	return s.logs.Exists(ctx, appointmentID, campaigns.TypePursuit, string(trigger))
}

func (s *PostgresStore) RecordCampaign(ctx context.Context, entry *campaigns.Log) (bool, error) {
	return s.logs.Record(ctx, entry)
}

func (s *PostgresStore) MarkCampaignStatus(ctx context.Context, id string, status campaigns.Status, channel, errMsg string) error {
	return s.logs.MarkStatus(ctx, id, status, channel, errMsg)
}

// BumpScarcity raises the patient's scarcity level, saturating at 100, and
// flags the patient as having abandoned a cart.
func (s *PostgresStore) BumpScarcity(ctx context.Context, clinicID, patientID string, by int) (int, error) {
	var level int
	err := s.db.QueryRow(ctx, `
		UPDATE patients
		SET scarcity_level = LEAST(100, scarcity_level + $3), is_abandoned = true, updated_at = now()
		WHERE id = $1 AND clinic_id = $2
		RETURNING scarcity_level`,
		patientID, clinicID, by,
	).Scan(&level)
	if err != nil {
		return 0, fmt.Errorf("pursuit: bump scarcity: %w", err)
	}
	return level, nil
}
