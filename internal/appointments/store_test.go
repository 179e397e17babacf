package appointments

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var appointmentCols = []string{"id", "clinic_id", "patient_id", "service_type", "scheduled_at", "duration_minutes", "amount", "status", "payment_status",
	"external_reference", "payment_provider", "payment_id", "paid_at", "invoice_folio", "gclid", "notes", "created_at", "updated_at"}

func TestPostgresStoreCreateAssignsReference(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewPostgresStore(mock)
	store.now = func() time.Time { return time.Unix(1778000000, 0) }
	at := time.Date(2026, 5, 10, 15, 0, 0, 0, time.UTC)

	var gotRef string
	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs(pgxmock.AnyArg(), "c1", "pat-1", "Botox", at, 60, int64(150000), StatusPending, PaymentPending, pgxmock.AnyArg(), "", "").
		WillReturnRows(pgxmock.NewRows(appointmentCols).AddRow(
			"a1", "c1", "pat-1", "Botox", at, 60, int64(150000), StatusPending, PaymentPending,
			"ORD-a1-1778000000", "", "", (*time.Time)(nil), "", "", "", at, at))

	a, err := store.Create(context.Background(), "c1", CreateInput{
		PatientID: "pat-1", ServiceType: "Botox", ScheduledAt: at, DurationMinutes: 60, Amount: 150000,
		Status: StatusPending, PaymentStatus: PaymentPending,
	})
	require.NoError(t, err)
	gotRef = a.ExternalReference
	assert.Regexp(t, regexp.MustCompile(`^ORD-.+-1778000000$`), gotRef)
	assert.Nil(t, a.PaidAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreCreateForeignPatient(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("INSERT INTO appointments").WillReturnError(pgx.ErrNoRows)
	_, err = NewPostgresStore(mock).Create(context.Background(), "c1", CreateInput{PatientID: "pat-x", ServiceType: "Botox", ScheduledAt: time.Now()})
	assert.ErrorIs(t, err, ErrPatientNotFound)
}

func TestPostgresStoreListFilters(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	from := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`status = \$2 AND scheduled_at >= \$3 ORDER BY scheduled_at LIMIT \$4`).
		WithArgs("c1", StatusConfirmed, from, 100).
		WillReturnRows(pgxmock.NewRows(appointmentCols))

	items, err := NewPostgresStore(mock).List(context.Background(), "c1", Filter{Status: StatusConfirmed, From: from})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreUpdateNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("UPDATE appointments SET").WillReturnError(pgx.ErrNoRows)
	status := StatusConfirmed
	_, err = NewPostgresStore(mock).Update(context.Background(), "c1", "a1", UpdateInput{Status: &status})
	assert.ErrorIs(t, err, ErrNotFound)
}
