package availability

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func TestStoreActiveForDatePicksFirstInStorageOrder(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	date := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows([]string{"id", "specialty_id", "date", "start_time", "end_time", "is_active", "created_at"}).
		AddRow("ov-1", 1, date, "10:00", "11:00", true, created)
	mock.ExpectQuery("SELECT id, specialty_id, date, start_time, end_time, is_active, created_at").
		WithArgs(1, "2026-03-12").
		WillReturnRows(rows)

	store := NewStore(mock)
	ov, err := store.ActiveForDate(context.Background(), 1, "2026-03-12")
	if err != nil {
		t.Fatal(err)
	}
	if ov == nil {
		t.Fatal("expected an override")
	}
	if ov.Date != "2026-03-12" || ov.StartTime != "10:00" {
		t.Errorf("override = %+v", ov)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestStoreActiveForDateNoRows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery("SELECT id, specialty_id, date, start_time, end_time, is_active, created_at").
		WithArgs(3, "2026-03-12").
		WillReturnRows(pgxmock.NewRows([]string{"id", "specialty_id", "date", "start_time", "end_time", "is_active", "created_at"}))

	store := NewStore(mock)
	ov, err := store.ActiveForDate(context.Background(), 3, "2026-03-12")
	if err != nil {
		t.Fatal(err)
	}
	if ov != nil {
		t.Errorf("expected nil override, got %+v", ov)
	}
}

func TestStoreAddAssignsID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec("INSERT INTO custom_availability").
		WithArgs(pgxmock.AnyArg(), 2, "2026-03-13", "14:00", "16:00", true, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	store := NewStore(mock)
	ov := &Override{SpecialtyID: 2, Date: "2026-03-13", StartTime: "14:00", EndTime: "16:00", IsActive: true}
	if err := store.Add(context.Background(), ov); err != nil {
		t.Fatal(err)
	}
	if ov.ID == "" {
		t.Error("Add must assign an id")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestStoreDeleteAllEmptiesTable(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec("DELETE FROM custom_availability").
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	store := NewStore(mock)
	if err := store.DeleteAll(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestStoreDeactivateUnknownID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec("UPDATE custom_availability SET is_active").
		WithArgs("missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	store := NewStore(mock)
	ok, err := store.Deactivate(context.Background(), "missing")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("expected false for unknown id")
	}
}
