package flashoffer

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresStoreBookedBetween(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	from := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	to := from.Add(Window)
	mock.ExpectQuery("FROM appointments").
		WithArgs("clinic-1", from, to).
		WillReturnRows(pgxmock.NewRows([]string{"id", "start", "end"}).
			AddRow("a1", from.Add(time.Hour), from.Add(2*time.Hour)))

	bookings, err := NewPostgresStore(mock).BookedBetween(context.Background(), "clinic-1", from, to)
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, "a1", bookings[0].AppointmentID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreTargetsAndOffer(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`psych_profile = 'price_sensitive'(.|\n)*FROM retention_schedules r(.|\n)*r.status = 'active'`).
		WithArgs("clinic-1", now, now.Add(-Window)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "full_name", "phone", "email"}).
			AddRow("p1", "Ana", "+56911111111", "").
			AddRow("p2", "Luis", "", "luis@example.com"))
	mock.ExpectQuery("INSERT INTO flash_offers").
		WithArgs(pgxmock.AnyArg(), "clinic-1", now, now.Add(time.Hour), 20, now).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(now))
	mock.ExpectExec("UPDATE flash_offers").
		WithArgs(pgxmock.AnyArg(), 2).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	store := NewPostgresStore(mock)
	targets, err := store.Targets(context.Background(), "clinic-1", now)
	require.NoError(t, err)
	assert.Len(t, targets, 2)

	offer := &Offer{ClinicID: "clinic-1", GapStart: now, GapEnd: now.Add(time.Hour), DiscountPct: 20, ExpiresAt: now}
	require.NoError(t, store.CreateOffer(context.Background(), offer))
	assert.NotEmpty(t, offer.ID)
	require.NoError(t, store.SetSentCount(context.Background(), offer.ID, 2))
	require.NoError(t, mock.ExpectationsWereMet())
}
