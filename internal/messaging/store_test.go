package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func TestStoreRecordCallTask(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	store := NewStore(mock)
	mock.ExpectExec("INSERT INTO call_tasks").
		WithArgs(pgxmock.AnyArg(), "clinic-1", "patient-1", "Ana Rojas", "+56911112222", "pursuit", "Llamar por su reserva").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = store.RecordCallTask(context.Background(), Outbound{
		ClinicID:  "clinic-1",
		PatientID: "patient-1",
		Name:      "Ana Rojas",
		Phone:     "+56911112222",
		Category:  "pursuit",
		Body:      "Llamar por su reserva",
		Channel:   ChannelCall,
	})
	if err != nil {
		t.Fatalf("record call task: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStoreListOpen(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	created := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM call_tasks").
		WithArgs("clinic-1", 100).
		WillReturnRows(pgxmock.NewRows([]string{"id", "clinic_id", "patient_id", "patient_name", "phone", "category", "script", "status", "created_at", "completed_at"}).
			AddRow("t1", "clinic-1", "p1", "Ana", "+569", "pursuit", "hola", "open", created, (*time.Time)(nil)))

	tasks, err := NewStore(mock).ListOpen(context.Background(), "clinic-1", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != "t1" || tasks[0].CompletedAt != nil {
		t.Fatalf("unexpected tasks: %+v", tasks)
	}
}

func TestStoreCompleteMissing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec("UPDATE call_tasks").
		WithArgs("t9", "clinic-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = NewStore(mock).Complete(context.Background(), "clinic-1", "t9")
	if !errors.Is(err, ErrCallTaskNotFound) {
		t.Fatalf("expected ErrCallTaskNotFound, got %v", err)
	}
}
