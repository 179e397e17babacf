package clinic

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
)

func TestStatsRepositoryGetStats(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	start := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM appointments WHERE clinic_id = \$1 AND created_at >= \$2`).
		WithArgs("clinic-1", start, end).
		WillReturnRows(pgxmock.NewRows([]string{"a", "b", "c", "d", "e", "f", "g", "h"}).
			AddRow(int64(40), int64(25), int64(3750000), int64(6), int64(18), int64(4), int64(12), int64(21)))

	stats, err := NewStatsRepository(mock).GetStats(context.Background(), "clinic-1", start, end)
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.PaidAppointments != 25 || stats.Revenue != 3750000 {
		t.Errorf("paid = %d revenue = %d", stats.PaidAppointments, stats.Revenue)
	}
	if stats.RecoveredCarts != 4 {
		t.Errorf("RecoveredCarts = %d, want 4", stats.RecoveredCarts)
	}
	if stats.PeriodStart != "2026-05-01T00:00:00Z" {
		t.Errorf("PeriodStart = %q", stats.PeriodStart)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestStatsRepositoryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT`).WillReturnError(errors.New("connection reset"))
	if _, err := NewStatsRepository(mock).GetStats(context.Background(), "clinic-1", time.Now().Add(-time.Hour), time.Now()); err == nil {
		t.Fatal("expected error")
	}
}
