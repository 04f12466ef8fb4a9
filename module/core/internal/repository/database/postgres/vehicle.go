package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Optimus825482/lujobuggy/module/core/domain"
	"github.com/Optimus825482/lujobuggy/module/core/internal/repository/database"
)

var _ database.VehicleRepository = (*VehicleRepo)(nil)

type VehicleRepo struct {
	db *sql.DB
}

func NewVehicleRepo(db *sql.DB) *VehicleRepo {
	return &VehicleRepo{db: db}
}

const vehicleColumns = `id, name, plate_number, lat, lng, speed, heading, status, gps_signal, device_id, last_geofence_stop_id, last_update`

func scanVehicle(row interface{ Scan(...any) error }) (*domain.Vehicle, error) {
	var v domain.Vehicle
	err := row.Scan(&v.ID, &v.Name, &v.PlateNumber, &v.Lat, &v.Lng, &v.Speed, &v.Heading,
		&v.Status, &v.GPSSignal, &v.DeviceID, &v.LastGeofenceStopID, &v.LastUpdate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

func (r *VehicleRepo) GetByID(ctx context.Context, id int64) (*domain.Vehicle, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles WHERE id = $1`, id)
	return scanVehicle(row)
}

func (r *VehicleRepo) GetByDeviceID(ctx context.Context, deviceID int64) (*domain.Vehicle, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles WHERE device_id = $1`, deviceID)
	return scanVehicle(row)
}

func (r *VehicleRepo) List(ctx context.Context) ([]domain.Vehicle, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *v)
	}
	return results, rows.Err()
}

func (r *VehicleRepo) SavePosition(ctx context.Context, v *domain.Vehicle) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE vehicles SET lat = $2, lng = $3, speed = $4, heading = $5, status = $6, gps_signal = $7, last_geofence_stop_id = $8, last_update = $9 WHERE id = $1`,
		v.ID, v.Lat, v.Lng, v.Speed, v.Heading, v.Status, v.GPSSignal, v.LastGeofenceStopID, v.LastUpdate,
	)
	return err
}

func (r *VehicleRepo) UpdateStatus(ctx context.Context, id int64, status domain.VehicleStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE vehicles SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return database.ErrNotFound
	}
	return nil
}
