package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Optimus825482/lujobuggy/module/core/domain"
	"github.com/Optimus825482/lujobuggy/module/core/internal/repository/database"
)

var _ database.DispatchRepository = (*DispatchRepo)(nil)

type DispatchRepo struct {
	db *sql.DB
}

func NewDispatchRepo(db *sql.DB) *DispatchRepo {
	return &DispatchRepo{db: db}
}

func (r *DispatchRepo) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func updateCall(ctx context.Context, tx *sql.Tx, call *domain.Call) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE calls SET status = $2, assigned_vehicle_id = $3, assigned_at = $4, completed_at = $5, cancelled_at = $6, cancel_reason = $7 WHERE id = $1`,
		call.ID, call.Status, call.AssignedVehicleID, call.AssignedAt, call.CompletedAt, call.CancelledAt, call.CancelReason,
	)
	return err
}

func updateTask(ctx context.Context, tx *sql.Tx, task *domain.Task) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE tasks SET status = $2, dropoff_stop_id = $3, auto_completed = $4, picked_up_at = $5, dropped_off_at = $6, completed_at = $7, cancelled_at = $8 WHERE id = $1`,
		task.ID, task.Status, task.DropoffStopID, task.AutoCompleted, task.PickedUpAt, task.DroppedOffAt, task.CompletedAt, task.CancelledAt,
	)
	return err
}

func updateVehicleStatus(ctx context.Context, tx *sql.Tx, id int64, status domain.VehicleStatus) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE vehicles SET status = $2 WHERE id = $1`, id, status)
	return err
}

// AssignCall persists a call assignment: the call update, the new task row,
// and the vehicle going busy commit together or not at all.
func (r *DispatchRepo) AssignCall(ctx context.Context, call *domain.Call, task *domain.Task) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if err := updateCall(ctx, tx, call); err != nil {
			return fmt.Errorf("update call: %w", err)
		}
		row := tx.QueryRowContext(ctx,
			`INSERT INTO tasks (call_id, vehicle_id, pickup_stop_id, dropoff_stop_id, status, created_at) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
			task.CallID, task.VehicleID, task.PickupStopID, task.DropoffStopID, task.Status, task.CreatedAt,
		)
		if err := row.Scan(&task.ID); err != nil {
			return fmt.Errorf("insert task: %w", err)
		}
		if err := updateVehicleStatus(ctx, tx, task.VehicleID, domain.VehicleBusy); err != nil {
			return fmt.Errorf("update vehicle: %w", err)
		}
		return nil
	})
}

func (r *DispatchRepo) CompleteTask(ctx context.Context, task *domain.Task, call *domain.Call) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if err := updateTask(ctx, tx, task); err != nil {
			return fmt.Errorf("update task: %w", err)
		}
		if err := updateCall(ctx, tx, call); err != nil {
			return fmt.Errorf("update call: %w", err)
		}
		if err := updateVehicleStatus(ctx, tx, task.VehicleID, domain.VehicleAvailable); err != nil {
			return fmt.Errorf("update vehicle: %w", err)
		}
		return nil
	})
}

// CancelTask writes the cancelled task, the call back in pending, and the
// vehicle freed up.
func (r *DispatchRepo) CancelTask(ctx context.Context, task *domain.Task, call *domain.Call) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if err := updateTask(ctx, tx, task); err != nil {
			return fmt.Errorf("update task: %w", err)
		}
		if err := updateCall(ctx, tx, call); err != nil {
			return fmt.Errorf("update call: %w", err)
		}
		if err := updateVehicleStatus(ctx, tx, task.VehicleID, domain.VehicleAvailable); err != nil {
			return fmt.Errorf("update vehicle: %w", err)
		}
		return nil
	})
}

// CancelCall persists a call cancellation. task is nil when the call was
// still pending.
func (r *DispatchRepo) CancelCall(ctx context.Context, call *domain.Call, task *domain.Task) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if err := updateCall(ctx, tx, call); err != nil {
			return fmt.Errorf("update call: %w", err)
		}
		if task != nil {
			if err := updateTask(ctx, tx, task); err != nil {
				return fmt.Errorf("update task: %w", err)
			}
			if err := updateVehicleStatus(ctx, tx, task.VehicleID, domain.VehicleAvailable); err != nil {
				return fmt.Errorf("update vehicle: %w", err)
			}
		}
		return nil
	})
}

func (r *DispatchRepo) UpdateTask(ctx context.Context, task *domain.Task) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET status = $2, dropoff_stop_id = $3, auto_completed = $4, picked_up_at = $5, dropped_off_at = $6, completed_at = $7, cancelled_at = $8 WHERE id = $1`,
		task.ID, task.Status, task.DropoffStopID, task.AutoCompleted, task.PickedUpAt, task.DroppedOffAt, task.CompletedAt, task.CancelledAt,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return database.ErrNotFound
	}
	return nil
}
