package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Optimus825482/lujobuggy/module/core/domain"
	"github.com/Optimus825482/lujobuggy/module/core/internal/repository/database"
)

var _ database.TaskRepository = (*TaskRepo)(nil)

type TaskRepo struct {
	db *sql.DB
}

func NewTaskRepo(db *sql.DB) *TaskRepo {
	return &TaskRepo{db: db}
}

const taskColumns = `id, call_id, vehicle_id, pickup_stop_id, dropoff_stop_id, status, auto_completed, picked_up_at, dropped_off_at, completed_at, cancelled_at, created_at`

func scanTask(row interface{ Scan(...any) error }) (*domain.Task, error) {
	var t domain.Task
	err := row.Scan(&t.ID, &t.CallID, &t.VehicleID, &t.PickupStopID, &t.DropoffStopID,
		&t.Status, &t.AutoCompleted, &t.PickedUpAt, &t.DroppedOffAt, &t.CompletedAt, &t.CancelledAt, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *TaskRepo) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	return scanTask(row)
}

// GetActiveByVehicle returns the vehicle's task that is not yet completed or
// cancelled. A vehicle has at most one such task.
func (r *TaskRepo) GetActiveByVehicle(ctx context.Context, vehicleID int64) (*domain.Task, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE vehicle_id = $1 AND status NOT IN ('completed', 'cancelled')`,
		vehicleID)
	return scanTask(row)
}

func (r *TaskRepo) List(ctx context.Context, status domain.TaskStatus) ([]domain.Task, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if status == "" {
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+taskColumns+` FROM tasks ORDER BY created_at DESC LIMIT 200`)
	} else {
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+taskColumns+` FROM tasks WHERE status = $1 ORDER BY created_at DESC LIMIT 200`, status)
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *t)
	}
	return results, rows.Err()
}
