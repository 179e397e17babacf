package pursuit

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/clinic-growth-platform/internal/behavior"
)

func TestPostgresStoreListAbandonedCarts(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Date(2026, 4, 10, 18, 0, 0, 0, time.UTC)
	created := now.Add(-20 * time.Minute)
	scheduled := now.Add(48 * time.Hour)
	cols := []string{"id", "clinic_id", "patient_id", "full_name", "phone", "email", "psych_profile",
		"service_type", "amount", "scheduled_at", "created_at", "scarcity_level"}

	mock.ExpectQuery(`FROM appointments a(.|\n)*'pending', 'unpaid', 'failed'(.|\n)*a.source = 'booking'`).
		WithArgs("clinic-1", now.Add(-15*time.Minute), now.Add(-30*time.Minute), "15min").
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow("a1", "clinic-1", "p1", "Ana Soto", "+56911111111", "", "impulsive", "Botox", int64(150000), scheduled, created, 15))

	carts, err := NewPostgresStore(mock).ListAbandonedCarts(context.Background(), "clinic-1", Trigger15Min, now)
	require.NoError(t, err)
	require.Len(t, carts, 1)
	assert.Equal(t, behavior.ProfileImpulsive, carts[0].Profile)
	assert.Equal(t, int64(150000), carts[0].Amount)
	assert.Equal(t, 20*time.Minute, carts[0].Elapsed(now))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreBumpScarcity(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("UPDATE patients").
		WithArgs("p1", "clinic-1", 30).
		WillReturnRows(pgxmock.NewRows([]string{"scarcity_level"}).AddRow(100))

	level, err := NewPostgresStore(mock).BumpScarcity(context.Background(), "clinic-1", "p1", 30)
	require.NoError(t, err)
	assert.Equal(t, 100, level)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreCampaignExistsDelegates(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT 1 FROM campaign_logs").
		WithArgs("a1", "pursuit", "eod").
		WillReturnRows(pgxmock.NewRows([]string{"one"}).AddRow(1))

	ok, err := NewPostgresStore(mock).CampaignExists(context.Background(), "a1", TriggerEOD)
	require.NoError(t, err)
	assert.True(t, ok)
}
