package flashoffer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/clinic-growth-platform/internal/campaigns"
)

// Store is what the service needs from persistence.
type Store interface {
	BookedBetween(ctx context.Context, clinicID string, from, to time.Time) ([]Booking, error)
	Targets(ctx context.Context, clinicID string, now time.Time) ([]Recipient, error)
	CreateOffer(ctx context.Context, offer *Offer) error
	SetSentCount(ctx context.Context, offerID string, sent int) error
	RecordCampaign(ctx context.Context, entry *campaigns.Log) (bool, error)
	MarkCampaignStatus(ctx context.Context, id string, status campaigns.Status, channel, errMsg string) error
}

// PostgresStore reads the calendar from appointments and writes flash_offers.
type PostgresStore struct {
	db   campaigns.DB
	logs *campaigns.PostgresStore
}

func NewPostgresStore(db campaigns.DB) *PostgresStore {
	if db == nil {
		panic("flashoffer: db required")
	}
	return &PostgresStore{db: db, logs: campaigns.NewPostgresStore(db)}
}

// BookedBetween returns active appointments overlapping [from, to).
func (s *PostgresStore) BookedBetween(ctx context.Context, clinicID string, from, to time.Time) ([]Booking, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, scheduled_at, scheduled_at + make_interval(mins => duration_minutes)
		FROM appointments
		WHERE clinic_id = $1
			AND status IN ('pending', 'confirmed')
			AND scheduled_at < $3
			AND scheduled_at + make_interval(mins => duration_minutes) > $2
		ORDER BY scheduled_at`,
		clinicID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("flashoffer: booked between: %w", err)
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		var b Booking
		if err := rows.Scan(&b.AppointmentID, &b.Start, &b.End); err != nil {
			return nil, fmt.Errorf("flashoffer: scan booking: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("flashoffer: booking rows: %w", err)
	}
	return out, nil
}

// Targets returns price-sensitive patients who abandoned a cart, have no
// scheduled renewal (neither an upcoming appointment nor an active retention
// schedule) and were not sent a flash offer in the last day.
func (s *PostgresStore) Targets(ctx context.Context, clinicID string, now time.Time) ([]Recipient, error) {
	rows, err := s.db.Query(ctx, `
		SELECT p.id, p.full_name, COALESCE(p.phone, ''), COALESCE(p.email, '')
		FROM patients p
		WHERE p.clinic_id = $1
			AND p.psych_profile = 'price_sensitive'
			AND p.is_abandoned = true
			AND NOT EXISTS (
				SELECT 1 FROM appointments a
				WHERE a.patient_id = p.id AND a.status IN ('pending', 'confirmed') AND a.scheduled_at > $2
			)
			AND NOT EXISTS (
				SELECT 1 FROM retention_schedules r
				WHERE r.patient_id = p.id AND r.clinic_id = p.clinic_id AND r.status = 'active'
			)
			AND NOT EXISTS (
				SELECT 1 FROM campaign_logs c
				WHERE c.patient_id = p.id AND c.campaign_type = 'flash_offer' AND c.created_at > $3
			)
		ORDER BY p.scarcity_level DESC, p.created_at`,
		clinicID, now, now.Add(-Window),
	)
	if err != nil {
		return nil, fmt.Errorf("flashoffer: targets: %w", err)
	}
	defer rows.Close()

	var out []Recipient
	for rows.Next() {
		var r Recipient
		if err := rows.Scan(&r.PatientID, &r.Name, &r.Phone, &r.Email); err != nil {
			return nil, fmt.Errorf("flashoffer: scan target: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("flashoffer: target rows: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) CreateOffer(ctx context.Context, o *Offer) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	err := s.db.QueryRow(ctx, `
		INSERT INTO flash_offers (id, clinic_id, gap_start, gap_end, discount_pct, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		o.ID, o.ClinicID, o.GapStart, o.GapEnd, o.DiscountPct, o.ExpiresAt,
	).Scan(&o.CreatedAt)
	if err != nil {
		return fmt.Errorf("flashoffer: create offer: %w", err)
	}
	return nil
}

func (s *PostgresStore) SetSentCount(ctx context.Context, offerID string, sent int) error {
	if _, err := s.db.Exec(ctx, `UPDATE flash_offers SET sent_count = $2 WHERE id = $1`, offerID, sent); err != nil {
		return fmt.Errorf("flashoffer: set sent count: %w", err)
	}
	return nil
}

func (s *PostgresStore) RecordCampaign(ctx context.Context, entry *campaigns.Log) (bool, error) {
	return s.logs.Record(ctx, entry)
}

func (s *PostgresStore) MarkCampaignStatus(ctx context.Context, id string, status campaigns.Status, channel, errMsg string) error {
	return s.logs.MarkStatus(ctx, id, status, channel, errMsg)
}
