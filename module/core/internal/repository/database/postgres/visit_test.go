package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/Optimus825482/lujobuggy/module/core/domain"
)

func TestVisitRepo_Open_Inserts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	at := time.Unix(1715000000, 0)
	mock.ExpectQuery("INSERT INTO stop_visits").
		WithArgs(int64(7), int64(1), at, at).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))

	repo := NewVisitRepo(db)
	visit := &domain.StopVisit{VehicleID: 7, StopID: 1, EnterTime: at, CreatedAt: at}
	if err := repo.Open(context.Background(), visit); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if visit.ID != 5 {
		t.Fatalf("expected id 5, got %d", visit.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestVisitRepo_Open_ReusesOpenVisit(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	first := time.Unix(1715000000, 0)
	again := first.Add(30 * time.Second)

	// the guarded insert matches nothing because a visit is already open
	mock.ExpectQuery("INSERT INTO stop_visits").
		WithArgs(int64(7), int64(1), again, again).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery("SELECT id, enter_time FROM stop_visits").
		WithArgs(int64(7), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "enter_time"}).AddRow(5, first))

	repo := NewVisitRepo(db)
	visit := &domain.StopVisit{VehicleID: 7, StopID: 1, EnterTime: again, CreatedAt: again}
	if err := repo.Open(context.Background(), visit); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if visit.ID != 5 {
		t.Fatalf("expected existing visit 5, got %d", visit.ID)
	}
	if !visit.EnterTime.Equal(first) {
		t.Fatalf("expected original enter time kept, got %v", visit.EnterTime)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestVisitRepo_Close_StampsDuration(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	exit := time.Unix(1715000090, 0)
	mock.ExpectExec("UPDATE stop_visits").
		WithArgs(int64(7), int64(1), exit).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewVisitRepo(db)
	if err := repo.Close(context.Background(), 7, 1, exit); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestVisitRepo_LastEvent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	at := time.Unix(1715000000, 0)
	rows := sqlmock.NewRows([]string{"id", "vehicle_id", "stop_id", "type", "distance", "occurred_at"}).
		AddRow(3, 7, 1, "exit", 21.5, at)
	mock.ExpectQuery("SELECT id, vehicle_id, stop_id, type, distance, occurred_at").
		WithArgs(int64(7), int64(1)).
		WillReturnRows(rows)

	repo := NewVisitRepo(db)
	event, err := repo.LastEvent(context.Background(), 7, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.Type != domain.GeofenceExit || event.Distance != 21.5 {
		t.Fatalf("unexpected event: %+v", event)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
