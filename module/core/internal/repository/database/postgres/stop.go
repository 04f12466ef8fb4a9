package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Optimus825482/lujobuggy/module/core/domain"
	"github.com/Optimus825482/lujobuggy/module/core/internal/repository/database"
)

var _ database.StopRepository = (*StopRepo)(nil)

type StopRepo struct {
	db *sql.DB
}

func NewStopRepo(db *sql.DB) *StopRepo {
	return &StopRepo{db: db}
}

func (r *StopRepo) GetByID(ctx context.Context, id int64) (*domain.Stop, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, lat, lng, geofence_radius, is_active FROM stops WHERE id = $1`, id)

	var s domain.Stop
	if err := row.Scan(&s.ID, &s.Name, &s.Lat, &s.Lng, &s.GeofenceRadius, &s.IsActive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *StopRepo) Create(ctx context.Context, stop *domain.Stop) error {
	return r.db.QueryRowContext(ctx,
		`INSERT INTO stops (name, lat, lng, geofence_radius, is_active)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		stop.Name, stop.Lat, stop.Lng, stop.GeofenceRadius, stop.IsActive,
	).Scan(&stop.ID)
}

func (r *StopRepo) Update(ctx context.Context, stop *domain.Stop) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE stops SET name = $1, lat = $2, lng = $3, geofence_radius = $4, is_active = $5 WHERE id = $6`,
		stop.Name, stop.Lat, stop.Lng, stop.GeofenceRadius, stop.IsActive, stop.ID,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return database.ErrNotFound
	}
	return nil
}

// ListActive returns active stops in ascending id order. Snapping and
// geofence checks depend on that order being stable.
func (r *StopRepo) ListActive(ctx context.Context) ([]domain.Stop, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, lat, lng, geofence_radius, is_active FROM stops WHERE is_active ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.Stop
	for rows.Next() {
		var s domain.Stop
		if err := rows.Scan(&s.ID, &s.Name, &s.Lat, &s.Lng, &s.GeofenceRadius, &s.IsActive); err != nil {
			return nil, err
		}
		results = append(results, s)
	}
	return results, rows.Err()
}
