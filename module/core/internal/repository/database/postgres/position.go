package postgres

import (
	"context"
	"database/sql"

	"github.com/Optimus825482/lujobuggy/module/core/domain"
	"github.com/Optimus825482/lujobuggy/module/core/internal/repository/database"
)

var _ database.PositionRepository = (*PositionRepo)(nil)

type PositionRepo struct {
	db *sql.DB
}

func NewPositionRepo(db *sql.DB) *PositionRepo {
	return &PositionRepo{db: db}
}

func (r *PositionRepo) Insert(ctx context.Context, p *domain.VehiclePosition) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO vehicle_positions (vehicle_id, lat, lng, speed, heading, corrected, recorded_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.VehicleID, p.Lat, p.Lng, p.Speed, p.Heading, p.Corrected, p.RecordedAt,
	)
	return err
}

func (r *PositionRepo) History(ctx context.Context, query *domain.HistoryQuery) ([]domain.VehiclePosition, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = 1000
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, vehicle_id, lat, lng, speed, heading, corrected, recorded_at FROM vehicle_positions WHERE vehicle_id = $1 AND recorded_at >= $2 AND recorded_at <= $3 ORDER BY recorded_at ASC LIMIT $4`,
		query.VehicleID, query.From, query.To, limit,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.VehiclePosition
	for rows.Next() {
		var p domain.VehiclePosition
		if err := rows.Scan(&p.ID, &p.VehicleID, &p.Lat, &p.Lng, &p.Speed, &p.Heading, &p.Corrected, &p.RecordedAt); err != nil {
			return nil, err
		}
		results = append(results, p)
	}
	return results, rows.Err()
}
