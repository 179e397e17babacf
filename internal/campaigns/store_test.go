package campaigns

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordInsertsOnce(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	store := NewPostgresStore(mock)

	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery("INSERT INTO campaign_logs").
		WithArgs(pgxmock.AnyArg(), "clinic-1", "patient-1", pgxmock.AnyArg(), "pursuit", "15min", "whatsapp", "hola", "pending").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(created))
	mock.ExpectQuery("INSERT INTO campaign_logs").
		WithArgs(pgxmock.AnyArg(), "clinic-1", "patient-1", pgxmock.AnyArg(), "pursuit", "15min", "whatsapp", "hola", "pending").
		WillReturnError(pgx.ErrNoRows)

	entry := &Log{ClinicID: "clinic-1", PatientID: "patient-1", AppointmentID: "appt-1", Type: TypePursuit, Trigger: "15min", Channel: "whatsapp", Message: "hola"}
	inserted, err := store.Record(context.Background(), entry)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, created, entry.CreatedAt)

	dup := &Log{ClinicID: "clinic-1", PatientID: "patient-1", AppointmentID: "appt-1", Type: TypePursuit, Trigger: "15min", Channel: "whatsapp", Message: "hola"}
	inserted, err = store.Record(context.Background(), dup)
	require.NoError(t, err)
	assert.False(t, inserted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExistsAndMarkStatus(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	store := NewPostgresStore(mock)

	mock.ExpectQuery("SELECT 1 FROM campaign_logs").
		WithArgs("appt-1", "pursuit", "2h").
		WillReturnRows(pgxmock.NewRows([]string{"one"}).AddRow(1))
	mock.ExpectQuery("SELECT 1 FROM campaign_logs").
		WithArgs("appt-2", "pursuit", "2h").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectExec("UPDATE campaign_logs").
		WithArgs("log-1", "failed", "", "timeout").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	ok, err := store.Exists(context.Background(), "appt-1", TypePursuit, "2h")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = store.Exists(context.Background(), "appt-2", TypePursuit, "2h")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, store.MarkStatus(context.Background(), "log-1", StatusFailed, "", "timeout"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestList(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now().UTC()
	cols := []string{"id", "clinic_id", "patient_id", "appointment_id", "campaign_type", "trigger", "channel", "message", "status", "error", "created_at"}
	mock.ExpectQuery("FROM campaign_logs").
		WithArgs("clinic-1", 100).
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow("l1", "clinic-1", "p1", "a1", "pursuit", "eod", "whatsapp", "m", "sent", "", now).
			AddRow("l2", "clinic-1", "p2", "", "flash_offer", "offer-1", "email", "m", "failed", "bounced", now))

	logs, err := NewPostgresStore(mock).List(context.Background(), "clinic-1", 0)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, TypeFlashOffer, logs[1].Type)
	assert.Equal(t, StatusFailed, logs[1].Status)
	assert.Equal(t, "bounced", logs[1].Error)
}
