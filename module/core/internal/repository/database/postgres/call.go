package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Optimus825482/lujobuggy/module/core/domain"
	"github.com/Optimus825482/lujobuggy/module/core/internal/repository/database"
)

var _ database.CallRepository = (*CallRepo)(nil)

type CallRepo struct {
	db *sql.DB
}

func NewCallRepo(db *sql.DB) *CallRepo {
	return &CallRepo{db: db}
}

const callColumns = `id, stop_id, status, assigned_vehicle_id, assigned_at, completed_at, cancelled_at, cancel_reason, created_at`

func scanCall(row interface{ Scan(...any) error }) (*domain.Call, error) {
	var c domain.Call
	err := row.Scan(&c.ID, &c.StopID, &c.Status, &c.AssignedVehicleID, &c.AssignedAt,
		&c.CompletedAt, &c.CancelledAt, &c.CancelReason, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Create inserts a pending call unless the stop already has one. The
// conditional insert returns no row in that case, which maps to ErrConflict.
func (r *CallRepo) Create(ctx context.Context, call *domain.Call) error {
	row := r.db.QueryRowContext(ctx,
		`INSERT INTO calls (stop_id, status, created_at)
		 SELECT $1, $2, $3
		 WHERE NOT EXISTS (SELECT 1 FROM calls WHERE stop_id = $1 AND status = 'pending')
		 RETURNING id`,
		call.StopID, call.Status, call.CreatedAt,
	)
	if err := row.Scan(&call.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return database.ErrConflict
		}
		return err
	}
	return nil
}

func (r *CallRepo) GetByID(ctx context.Context, id int64) (*domain.Call, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+callColumns+` FROM calls WHERE id = $1`, id)
	return scanCall(row)
}

func (r *CallRepo) List(ctx context.Context, status domain.CallStatus) ([]domain.Call, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if status == "" {
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+callColumns+` FROM calls ORDER BY created_at DESC LIMIT 200`)
	} else {
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+callColumns+` FROM calls WHERE status = $1 ORDER BY created_at DESC LIMIT 200`, status)
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.Call
	for rows.Next() {
		c, err := scanCall(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *c)
	}
	return results, rows.Err()
}
