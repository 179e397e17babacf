package compliance

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditService_LogEvent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	service := NewAuditService(db)

	tests := []struct {
		name  string
		event AuditEvent
	}{
		{
			name: "clinic onboarded",
			event: AuditEvent{
				EventType: EventClinicOnboarded,
				ClinicID:  uuid.New().String(),
				ActorID:   "user-1",
				Details:   json.RawMessage(`{"name": "Clínica Sur"}`),
			},
		},
		{
			name: "schedule cancelled without details",
			event: AuditEvent{
				EventType: EventScheduleCancelled,
				ClinicID:  uuid.New().String(),
				Subject:   "sched-1",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock.ExpectExec("INSERT INTO compliance_audit_events").
				WithArgs(sqlmock.AnyArg(), string(tt.event.EventType), sqlmock.AnyArg(), sqlmock.AnyArg(),
					sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
				WillReturnResult(sqlmock.NewResult(1, 1))

			assert.NoError(t, service.LogEvent(context.Background(), tt.event))
		})
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditService_LogLogin(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	service := NewAuditService(db)

	mock.ExpectExec("INSERT INTO compliance_audit_events").
		WithArgs(sqlmock.AnyArg(), "admin.login_failed", sqlmock.AnyArg(), nil, "ana@clinica.cl", "10.0.0.1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO compliance_audit_events").
		WithArgs(sqlmock.AnyArg(), "admin.login_succeeded", "clinic-1", "user-1", "ana@clinica.cl", "10.0.0.1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	assert.NoError(t, service.LogLogin(context.Background(), "", "", "ana@clinica.cl", "10.0.0.1", false))
	assert.NoError(t, service.LogLogin(context.Background(), "clinic-1", "user-1", "ana@clinica.cl", "10.0.0.1", true))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditService_QueryEvents(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	service := NewAuditService(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "event_type", "clinic_id", "actor_id", "subject", "remote_ip", "details", "created_at",
	}).AddRow(
		uuid.New().String(), string(EventJobTriggered), "clinic-1", "user-1", "pursuit", nil, []byte(`{}`), now,
	)

	mock.ExpectQuery("SELECT (.+) FROM compliance_audit_events").
		WithArgs("clinic-1", string(EventJobTriggered), sqlmock.AnyArg()).
		WillReturnRows(rows)

	events, err := service.QueryEvents(context.Background(), AuditFilter{
		ClinicID:  "clinic-1",
		EventType: EventJobTriggered,
		StartTime: now.Add(-24 * time.Hour),
		Limit:     50,
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, EventJobTriggered, events[0].EventType)
	assert.Equal(t, "pursuit", events[0].Subject)
	assert.Empty(t, events[0].RemoteIP)
	assert.NoError(t, mock.ExpectationsWereMet())
}
