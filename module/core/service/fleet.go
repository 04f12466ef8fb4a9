package service

import (
	"context"
	"fmt"

	"github.com/Optimus825482/lujobuggy/module/core/domain"
	"github.com/Optimus825482/lujobuggy/module/core/geo"
	"github.com/Optimus825482/lujobuggy/module/core/internal/repository/database"
)

// FleetService serves the read side of the API plus the odd manual vehicle
// status change.
type FleetService struct {
	vehicles  database.VehicleRepository
	positions database.PositionRepository
	stops     database.StopRepository
	visits    database.VisitRepository
	stats     database.StatsRepository
}

func NewFleetService(
	vehicles database.VehicleRepository,
	positions database.PositionRepository,
	stops database.StopRepository,
	visits database.VisitRepository,
	stats database.StatsRepository,
) *FleetService {
	return &FleetService{
		vehicles:  vehicles,
		positions: positions,
		stops:     stops,
		visits:    visits,
		stats:     stats,
	}
}

func (s *FleetService) ListVehicles(ctx context.Context) ([]domain.Vehicle, error) {
	return s.vehicles.List(ctx)
}

func (s *FleetService) GetVehicle(ctx context.Context, id int64) (*domain.Vehicle, error) {
	return s.vehicles.GetByID(ctx, id)
}

func (s *FleetService) GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.VehiclePosition, error) {
	return s.positions.History(ctx, query)
}

func (s *FleetService) ListStops(ctx context.Context) ([]domain.Stop, error) {
	return s.stops.ListActive(ctx)
}

// CreateStop registers a new stop. The geofence radius falls back to the
// default when left unset.
func (s *FleetService) CreateStop(ctx context.Context, stop *domain.Stop) error {
	if stop.GeofenceRadius <= 0 {
		stop.GeofenceRadius = domain.DefaultGeofenceRadius
	}
	return s.stops.Create(ctx, stop)
}

func (s *FleetService) UpdateStop(ctx context.Context, stop *domain.Stop) error {
	if stop.GeofenceRadius <= 0 {
		stop.GeofenceRadius = domain.DefaultGeofenceRadius
	}
	return s.stops.Update(ctx, stop)
}

func (s *FleetService) ListVisits(ctx context.Context, vehicleID int64, limit int) ([]domain.StopVisit, error) {
	return s.visits.ListByVehicle(ctx, vehicleID, limit)
}

func (s *FleetService) ListEvents(ctx context.Context, vehicleID int64, limit int) ([]domain.GeofenceEvent, error) {
	return s.visits.ListEvents(ctx, vehicleID, limit)
}

func (s *FleetService) DailyStats(ctx context.Context, date string) (*domain.DailyStats, error) {
	return s.stats.Daily(ctx, date)
}

// SetVehicleStatus applies a manual status change, used for maintenance
// holds and for putting a vehicle back in service.
func (s *FleetService) SetVehicleStatus(ctx context.Context, id int64, status domain.VehicleStatus) error {
	if !status.Valid() {
		return domain.ErrInvalidStatusTransition
	}
	if _, err := s.vehicles.GetByID(ctx, id); err != nil {
		return fmt.Errorf("lookup vehicle %d: %w", id, err)
	}
	return s.vehicles.UpdateStatus(ctx, id, status)
}

// CheckGeofence reports which stop, if any, contains a point. Exposed for
// diagnostics and for tooling that replays recorded tracks.
func (s *FleetService) CheckGeofence(ctx context.Context, p geo.Point) (*domain.Stop, float64, error) {
	stops, err := s.stops.ListActive(ctx)
	if err != nil {
		return nil, 0, err
	}
	stop, dist := ContainingStop(p, stops)
	if stop == nil {
		return nil, 0, nil
	}
	return stop, dist, nil
}
