package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is satisfied by *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB is a Querier that can open transactions.
type DB interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repository holds the SQL for payment confirmation. Every method takes the
// Querier to run on so callers decide the transaction boundary.
type Repository struct{}

const appointmentSelect = `
	SELECT a.id, a.clinic_id, a.patient_id, a.service_type, a.amount, a.status, a.payment_status,
		p.full_name, COALESCE(p.email, ''), COALESCE(p.rut, ''), COALESCE(a.gclid, ''), a.scheduled_at
	FROM appointments a
	JOIN patients p ON p.id = a.patient_id
	WHERE `

// FindAppointment resolves a provider reference through the
// external_reference column, falling back to parsing a legacy ORD-{id}-{ts}
// reference. The row is locked for the rest of the transaction.
func (Repository) FindAppointment(ctx context.Context, q Querier, ref string) (*Appointment, error) {
	appt, err := scanAppointment(q.QueryRow(ctx, appointmentSelect+`a.external_reference = $1 FOR UPDATE OF a`, ref))
	if err == nil {
		return appt, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("payments: find appointment: %w", err)
	}

	id, _, perr := ParseBuyOrder(ref)
	if perr != nil {
		return nil, ErrAppointmentNotFound
	}
	appt, err = scanAppointment(q.QueryRow(ctx, appointmentSelect+`a.id = $1 FOR UPDATE OF a`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("payments: find appointment by id: %w", err)
	}
	return appt, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	if err := row.Scan(&a.ID, &a.ClinicID, &a.PatientID, &a.ServiceType, &a.Amount, &a.Status, &a.PaymentStatus,
		&a.PatientName, &a.PatientEmail, &a.PatientRUT, &a.GCLID, &a.ScheduledAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// MarkPaid records a successful payment. A pending appointment becomes
// confirmed; the patient's lifetime spend grows and the abandoned-cart flag
// is cleared.
func (Repository) MarkPaid(ctx context.Context, q Querier, appt *Appointment, c Confirmation) error {
	paidAt := c.PaidAt
	if paidAt.IsZero() {
		paidAt = time.Now().UTC()
	}
	if _, err := q.Exec(ctx, `
		UPDATE appointments SET
			payment_status = 'paid',
			status = CASE WHEN status = 'pending' THEN 'confirmed' ELSE status END,
			payment_provider = $2,
			payment_id = $3,
			paid_at = $4,
			updated_at = now()
		WHERE id = $1`,
		appt.ID, c.Provider, c.ProviderPaymentID, paidAt,
	); err != nil {
		return fmt.Errorf("payments: mark appointment paid: %w", err)
	}
	if _, err := q.Exec(ctx, `
		UPDATE patients SET total_spent = total_spent + $2, is_abandoned = false, updated_at = now()
		WHERE id = $1`,
		appt.PatientID, appt.Amount,
	); err != nil {
		return fmt.Errorf("payments: update patient spend: %w", err)
	}
	return nil
}

// MarkFailed records a rejected, cancelled or aborted payment.
func (Repository) MarkFailed(ctx context.Context, q Querier, appt *Appointment, c Confirmation) error {
	if _, err := q.Exec(ctx, `
		UPDATE appointments SET payment_status = 'failed', payment_provider = $2, payment_id = NULLIF($3, ''), updated_at = now()
		WHERE id = $1 AND payment_status <> 'paid'`,
		appt.ID, c.Provider, c.ProviderPaymentID,
	); err != nil {
		return fmt.Errorf("payments: mark appointment failed: %w", err)
	}
	return nil
}

// InsertAudit appends to payment_audit_log.
func (Repository) InsertAudit(ctx context.Context, q Querier, appt *Appointment, c Confirmation, outcome string) error {
	if _, err := q.Exec(ctx, `
		INSERT INTO payment_audit_log (id, clinic_id, appointment_id, provider, provider_payment_id, event_id, outcome, amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.NewString(), appt.ClinicID, appt.ID, c.Provider, c.ProviderPaymentID, c.EventID, outcome, c.Amount,
	); err != nil {
		return fmt.Errorf("payments: audit: %w", err)
	}
	return nil
}

// SetInvoiceFolio stores the receipt folio issued after the payment.
func (Repository) SetInvoiceFolio(ctx context.Context, q Querier, appointmentID, folio string) error {
	if _, err := q.Exec(ctx, `UPDATE appointments SET invoice_folio = $2, updated_at = now() WHERE id = $1`, appointmentID, folio); err != nil {
		return fmt.Errorf("payments: set invoice folio: %w", err)
	}
	return nil
}
