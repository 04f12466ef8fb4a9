package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Optimus825482/lujobuggy/module/core/domain"
	"github.com/Optimus825482/lujobuggy/module/core/internal/repository/database"
)

var _ database.VisitRepository = (*VisitRepo)(nil)

type VisitRepo struct {
	db *sql.DB
}

func NewVisitRepo(db *sql.DB) *VisitRepo {
	return &VisitRepo{db: db}
}

// Open inserts a visit unless the vehicle already has an open one at the same
// stop, in which case that visit is reused. A crash between recording an
// enter and persisting the vehicle row would otherwise duplicate the visit on
// the next fix.
func (r *VisitRepo) Open(ctx context.Context, visit *domain.StopVisit) error {
	row := r.db.QueryRowContext(ctx,
		`INSERT INTO stop_visits (vehicle_id, stop_id, enter_time, created_at)
		 SELECT $1, $2, $3, $4
		 WHERE NOT EXISTS (
			SELECT 1 FROM stop_visits WHERE vehicle_id = $1 AND stop_id = $2 AND exit_time IS NULL
		 )
		 RETURNING id`,
		visit.VehicleID, visit.StopID, visit.EnterTime, visit.CreatedAt,
	)
	err := row.Scan(&visit.ID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	row = r.db.QueryRowContext(ctx,
		`SELECT id, enter_time FROM stop_visits WHERE vehicle_id = $1 AND stop_id = $2 AND exit_time IS NULL`,
		visit.VehicleID, visit.StopID,
	)
	return row.Scan(&visit.ID, &visit.EnterTime)
}

// Close stamps the exit time and the whole-second dwell duration on the open
// visit for the vehicle and stop.
func (r *VisitRepo) Close(ctx context.Context, vehicleID, stopID int64, exit time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE stop_visits
		 SET exit_time = $3, duration_sec = EXTRACT(EPOCH FROM ($3 - enter_time))::bigint
		 WHERE vehicle_id = $1 AND stop_id = $2 AND exit_time IS NULL`,
		vehicleID, stopID, exit,
	)
	return err
}

func (r *VisitRepo) ListByVehicle(ctx context.Context, vehicleID int64, limit int) ([]domain.StopVisit, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT v.id, v.vehicle_id, v.stop_id, s.name, v.enter_time, v.exit_time, v.duration_sec, v.created_at
		 FROM stop_visits v JOIN stops s ON s.id = v.stop_id
		 WHERE v.vehicle_id = $1 ORDER BY v.enter_time DESC LIMIT $2`,
		vehicleID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.StopVisit
	for rows.Next() {
		var v domain.StopVisit
		if err := rows.Scan(&v.ID, &v.VehicleID, &v.StopID, &v.StopName, &v.EnterTime, &v.ExitTime, &v.DurationSec, &v.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, v)
	}
	return results, rows.Err()
}

func (r *VisitRepo) InsertEvent(ctx context.Context, event *domain.GeofenceEvent) error {
	row := r.db.QueryRowContext(ctx,
		`INSERT INTO geofence_events (vehicle_id, stop_id, type, distance, occurred_at) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		event.VehicleID, event.StopID, event.Type, event.Distance, event.OccurredAt,
	)
	return row.Scan(&event.ID)
}

func (r *VisitRepo) ListEvents(ctx context.Context, vehicleID int64, limit int) ([]domain.GeofenceEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT e.id, e.vehicle_id, e.stop_id, s.name, e.type, e.distance, e.occurred_at
		 FROM geofence_events e JOIN stops s ON s.id = e.stop_id
		 WHERE e.vehicle_id = $1 ORDER BY e.occurred_at DESC LIMIT $2`,
		vehicleID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.GeofenceEvent
	for rows.Next() {
		var e domain.GeofenceEvent
		if err := rows.Scan(&e.ID, &e.VehicleID, &e.StopID, &e.StopName, &e.Type, &e.Distance, &e.OccurredAt); err != nil {
			return nil, err
		}
		results = append(results, e)
	}
	return results, rows.Err()
}

// LastEvent returns the most recent audit event for the vehicle and stop,
// used to seed the enter debounce after a restart.
func (r *VisitRepo) LastEvent(ctx context.Context, vehicleID, stopID int64) (*domain.GeofenceEvent, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, vehicle_id, stop_id, type, distance, occurred_at
		 FROM geofence_events WHERE vehicle_id = $1 AND stop_id = $2
		 ORDER BY occurred_at DESC LIMIT 1`,
		vehicleID, stopID)

	var e domain.GeofenceEvent
	if err := row.Scan(&e.ID, &e.VehicleID, &e.StopID, &e.Type, &e.Distance, &e.OccurredAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}
