package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/Optimus825482/lujobuggy/module/core/domain"
	"github.com/Optimus825482/lujobuggy/module/core/internal/repository/database"
)

func TestCallCreate_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	ts := time.Unix(1715000000, 0)
	mock.ExpectQuery(`INSERT INTO calls`).
		WithArgs(int64(3), domain.CallPending, ts).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

	repo := NewCallRepo(db)
	call := &domain.Call{StopID: 3, Status: domain.CallPending, CreatedAt: ts}
	if err := repo.Create(context.Background(), call); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if call.ID != 42 {
		t.Errorf("expected id 42, got %d", call.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCallCreate_PendingConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	ts := time.Unix(1715000000, 0)
	mock.ExpectQuery(`INSERT INTO calls`).
		WithArgs(int64(3), domain.CallPending, ts).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := NewCallRepo(db)
	call := &domain.Call{StopID: 3, Status: domain.CallPending, CreatedAt: ts}
	err = repo.Create(context.Background(), call)
	if !errors.Is(err, database.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestCallList_ByStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	ts := time.Unix(1715000000, 0)
	rows := sqlmock.NewRows([]string{"id", "stop_id", "status", "assigned_vehicle_id", "assigned_at", "completed_at", "cancelled_at", "cancel_reason", "created_at"}).
		AddRow(1, 3, "pending", nil, nil, nil, nil, nil, ts).
		AddRow(2, 5, "pending", nil, nil, nil, nil, nil, ts)

	mock.ExpectQuery(`SELECT (.+) FROM calls WHERE status = (.+)`).
		WithArgs(domain.CallPending).
		WillReturnRows(rows)

	repo := NewCallRepo(db)
	results, err := repo.List(context.Background(), domain.CallPending)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(results))
	}
	if results[0].StopID != 3 {
		t.Errorf("expected stop 3, got %d", results[0].StopID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
