package clinic

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// Stats are the dashboard figures for one clinic over a period.
type Stats struct {
	ClinicID         string `json:"clinic_id"`
	PeriodStart      string `json:"period_start"`
	PeriodEnd        string `json:"period_end"`
	Appointments     int64  `json:"appointments"`
	PaidAppointments int64  `json:"paid_appointments"`
	Revenue          int64  `json:"revenue_clp"`
	OpenCarts        int64  `json:"open_carts"`
	PursuitMessages  int64  `json:"pursuit_messages"`
	RecoveredCarts   int64  `json:"recovered_carts"`
	FlashOffersSent  int64  `json:"flash_offers_sent"`
	ActiveRenewals   int64  `json:"active_renewals"`
}

// statsDB defines the database interface needed by StatsRepository
type statsDB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// StatsRepository queries clinic metrics from the database.
type StatsRepository struct {
	db statsDB
}

func NewStatsRepository(db statsDB) *StatsRepository {
	return &StatsRepository{db: db}
}

// GetStats aggregates the period [start, end). A recovered cart is a
// pursued appointment that was later paid.
func (r *StatsRepository) GetStats(ctx context.Context, clinicID string, start, end time.Time) (*Stats, error) {
	stats := &Stats{
		ClinicID:    clinicID,
		PeriodStart: start.Format(time.RFC3339),
		PeriodEnd:   end.Format(time.RFC3339),
	}
	err := r.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM appointments WHERE clinic_id = $1 AND created_at >= $2 AND created_at < $3),
			(SELECT COUNT(*) FROM appointments WHERE clinic_id = $1 AND payment_status = 'paid' AND paid_at >= $2 AND paid_at < $3),
			(SELECT COALESCE(SUM(amount), 0) FROM appointments WHERE clinic_id = $1 AND payment_status = 'paid' AND paid_at >= $2 AND paid_at < $3),
			(SELECT COUNT(*) FROM appointments WHERE clinic_id = $1 AND status = 'pending' AND payment_status IN ('pending', 'unpaid')),
			(SELECT COUNT(*) FROM campaign_logs WHERE clinic_id = $1 AND campaign_type = 'pursuit' AND created_at >= $2 AND created_at < $3),
			(SELECT COUNT(DISTINCT a.id) FROM appointments a JOIN campaign_logs l ON l.appointment_id = a.id
				WHERE a.clinic_id = $1 AND l.campaign_type = 'pursuit' AND a.payment_status = 'paid' AND a.paid_at >= $2 AND a.paid_at < $3),
			(SELECT COUNT(*) FROM campaign_logs WHERE clinic_id = $1 AND campaign_type = 'flash_offer' AND status = 'sent' AND created_at >= $2 AND created_at < $3),
			(SELECT COUNT(*) FROM retention_schedules WHERE clinic_id = $1 AND status = 'active')`,
		clinicID, start, end,
	).Scan(&stats.Appointments, &stats.PaidAppointments, &stats.Revenue, &stats.OpenCarts,
		&stats.PursuitMessages, &stats.RecoveredCarts, &stats.FlashOffersSent, &stats.ActiveRenewals)
	if err != nil {
		return nil, fmt.Errorf("clinic stats: %w", err)
	}
	return stats, nil
}
