package postgres

import (
	"context"
	"database/sql"

	"github.com/Optimus825482/lujobuggy/module/core/domain"
	"github.com/Optimus825482/lujobuggy/module/core/internal/repository/database"
)

var _ database.StatsRepository = (*StatsRepo)(nil)

type StatsRepo struct {
	db *sql.DB
}

func NewStatsRepo(db *sql.DB) *StatsRepo {
	return &StatsRepo{db: db}
}

// Daily aggregates call, trip, and visit activity for one service day. date
// is in YYYY-MM-DD form. Wait time is call creation to assignment; trip time
// is pickup to completion.
func (r *StatsRepo) Daily(ctx context.Context, date string) (*domain.DailyStats, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT
			(SELECT COUNT(*) FROM calls WHERE created_at::date = $1::date),
			(SELECT COUNT(*) FROM calls WHERE created_at::date = $1::date AND status = 'completed'),
			(SELECT COUNT(*) FROM calls WHERE created_at::date = $1::date AND status = 'cancelled'),
			(SELECT COUNT(*) FROM tasks WHERE status = 'completed' AND completed_at::date = $1::date),
			(SELECT COALESCE(EXTRACT(EPOCH FROM AVG(assigned_at - created_at)), 0) FROM calls WHERE created_at::date = $1::date AND assigned_at IS NOT NULL),
			(SELECT COALESCE(EXTRACT(EPOCH FROM AVG(completed_at - picked_up_at)), 0) FROM tasks WHERE status = 'completed' AND completed_at::date = $1::date AND picked_up_at IS NOT NULL),
			(SELECT COUNT(*) FROM stop_visits WHERE enter_time::date = $1::date),
			(SELECT COALESCE(EXTRACT(EPOCH FROM AVG(exit_time - enter_time)), 0) FROM stop_visits WHERE enter_time::date = $1::date AND exit_time IS NOT NULL)`,
		date)

	s := domain.DailyStats{Date: date}
	if err := row.Scan(&s.TotalCalls, &s.CompletedCalls, &s.CancelledCalls, &s.TotalTrips,
		&s.AverageWaitSec, &s.AverageTripSec, &s.TotalVisits, &s.AvgDwellSec); err != nil {
		return nil, err
	}
	return &s, nil
}
