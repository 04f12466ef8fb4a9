package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Optimus825482/lujobuggy/module/core/domain"
	"github.com/Optimus825482/lujobuggy/module/core/geo"
	"github.com/Optimus825482/lujobuggy/module/core/internal/repository/database"
	"github.com/Optimus825482/lujobuggy/module/core/internal/repository/publisher"
)

// DefaultEnterDebounce suppresses repeated enter events in the audit log for
// a vehicle hovering on a geofence boundary.
const DefaultEnterDebounce = 60 * time.Second

// Arrivals receives confirmed stop arrivals so the dispatch lifecycle can
// advance off them.
type Arrivals interface {
	HandleArrival(ctx context.Context, vehicleID, stopID int64, at time.Time) error
}

// TrackerService turns raw feed positions into corrected vehicle state,
// stop visits, and geofence events. Fixes for the same vehicle are processed
// strictly one at a time.
type TrackerService struct {
	vehicles   database.VehicleRepository
	positions  database.PositionRepository
	stops      database.StopRepository
	visits     database.VisitRepository
	correction *CorrectionService
	publisher  publisher.EventPublisher
	arrivals   Arrivals
	debounce   time.Duration

	mu        sync.Mutex
	locks     map[int64]*sync.Mutex
	lastEnter map[enterKey]time.Time
}

type enterKey struct {
	vehicleID int64
	stopID    int64
}

func NewTrackerService(
	vehicles database.VehicleRepository,
	positions database.PositionRepository,
	stops database.StopRepository,
	visits database.VisitRepository,
	correction *CorrectionService,
	pub publisher.EventPublisher,
	arrivals Arrivals,
	debounce time.Duration,
) *TrackerService {
	if debounce <= 0 {
		debounce = DefaultEnterDebounce
	}
	return &TrackerService{
		vehicles:   vehicles,
		positions:  positions,
		stops:      stops,
		visits:     visits,
		correction: correction,
		publisher:  pub,
		arrivals:   arrivals,
		debounce:   debounce,
		locks:      make(map[int64]*sync.Mutex),
		lastEnter:  make(map[enterKey]time.Time),
	}
}

func (s *TrackerService) vehicleLock(id int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// ProcessPosition handles one raw fix end to end: correction, geofence
// transition, persistence, and the snapshot publish. Fixes from devices with
// no registered vehicle are dropped, as are fixes the device reports without
// a GPS lock, whose coordinates would fire spurious geofence transitions.
func (s *TrackerService) ProcessPosition(ctx context.Context, raw *domain.RawPosition) error {
	if !raw.Valid {
		return nil
	}

	vehicle, err := s.vehicles.GetByDeviceID(ctx, raw.DeviceID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("lookup vehicle for device %d: %w", raw.DeviceID, err)
	}

	lock := s.vehicleLock(vehicle.ID)
	lock.Lock()
	defer lock.Unlock()

	corr, err := s.correction.Correct(ctx, geo.Point{Lat: raw.Lat, Lng: raw.Lng}, raw.Heading)
	if err != nil {
		return fmt.Errorf("correct position: %w", err)
	}

	activeStops, err := s.stops.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list stops: %w", err)
	}
	current, stopDist := ContainingStop(corr.Point, activeStops)

	at := raw.RecordedAt
	if at.IsZero() {
		at = time.Now()
	}

	if err := s.applyGeofenceTransition(ctx, vehicle, current, stopDist, corr.Point, at); err != nil {
		return err
	}

	vehicle.Lat = corr.Point.Lat
	vehicle.Lng = corr.Point.Lng
	vehicle.Speed = raw.SpeedKmh()
	vehicle.Heading = corr.Heading
	vehicle.GPSSignal = raw.Valid
	vehicle.LastUpdate = at
	if current != nil {
		id := current.ID
		vehicle.LastGeofenceStopID = &id
	} else {
		vehicle.LastGeofenceStopID = nil
	}

	if err := s.vehicles.SavePosition(ctx, vehicle); err != nil {
		return fmt.Errorf("save vehicle: %w", err)
	}
	if err := s.positions.Insert(ctx, &domain.VehiclePosition{
		VehicleID:  vehicle.ID,
		Lat:        corr.Point.Lat,
		Lng:        corr.Point.Lng,
		Speed:      vehicle.Speed,
		Heading:    corr.Heading,
		Corrected:  string(corr.Type),
		RecordedAt: at,
	}); err != nil {
		return fmt.Errorf("insert position: %w", err)
	}

	snapshot := &domain.Snapshot{
		VehicleID:   vehicle.ID,
		VehicleName: vehicle.Name,
		Lat:         corr.Point.Lat,
		Lng:         corr.Point.Lng,
		Speed:       vehicle.Speed,
		Heading:     corr.Heading,
		Status:      vehicle.Status,
		Corrected:   string(corr.Type),
		AtStopID:    vehicle.LastGeofenceStopID,
		RecordedAt:  at,
	}
	if err := s.publisher.PublishSnapshot(ctx, snapshot); err != nil {
		log.Printf("publish snapshot for vehicle %d: %v", vehicle.ID, err)
	}
	return nil
}

// applyGeofenceTransition compares the stop containing this fix against the
// stop recorded on the vehicle and opens or closes visits accordingly. The
// recorded stop survives restarts, so a fix after a cold start still produces
// the right exit.
func (s *TrackerService) applyGeofenceTransition(ctx context.Context, vehicle *domain.Vehicle, current *domain.Stop, stopDist float64, p geo.Point, at time.Time) error {
	prev := vehicle.LastGeofenceStopID
	if prev != nil && (current == nil || current.ID != *prev) {
		if err := s.recordExit(ctx, vehicle.ID, *prev, p, at); err != nil {
			return err
		}
	}
	if current != nil && (prev == nil || current.ID != *prev) {
		if err := s.recordEnter(ctx, vehicle.ID, current, stopDist, at); err != nil {
			return err
		}
	}
	return nil
}

func (s *TrackerService) recordEnter(ctx context.Context, vehicleID int64, stop *domain.Stop, dist float64, at time.Time) error {
	if err := s.visits.Open(ctx, &domain.StopVisit{
		VehicleID: vehicleID,
		StopID:    stop.ID,
		EnterTime: at,
		CreatedAt: at,
	}); err != nil {
		return fmt.Errorf("open visit: %w", err)
	}

	// The debounce gates the audit log and downstream events only, not the
	// visit itself.
	if !s.withinDebounce(ctx, vehicleID, stop.ID, at) {
		event := &domain.GeofenceEvent{
			VehicleID:  vehicleID,
			StopID:     stop.ID,
			StopName:   stop.Name,
			Type:       domain.GeofenceEnter,
			Distance:   dist,
			OccurredAt: at,
		}
		if err := s.visits.InsertEvent(ctx, event); err != nil {
			return fmt.Errorf("insert enter event: %w", err)
		}
		if err := s.publisher.PublishGeofence(ctx, event); err != nil {
			log.Printf("publish enter event for vehicle %d: %v", vehicleID, err)
		}
		s.rememberEnter(vehicleID, stop.ID, at)
	}

	if s.arrivals != nil {
		if err := s.arrivals.HandleArrival(ctx, vehicleID, stop.ID, at); err != nil {
			return fmt.Errorf("handle arrival: %w", err)
		}
	}
	return nil
}

func (s *TrackerService) recordExit(ctx context.Context, vehicleID, stopID int64, p geo.Point, at time.Time) error {
	if err := s.visits.Close(ctx, vehicleID, stopID, at); err != nil {
		return fmt.Errorf("close visit: %w", err)
	}
	stop, err := s.stops.GetByID(ctx, stopID)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("lookup stop %d: %w", stopID, err)
	}
	event := &domain.GeofenceEvent{
		VehicleID:  vehicleID,
		StopID:     stopID,
		Type:       domain.GeofenceExit,
		OccurredAt: at,
	}
	if stop != nil {
		event.StopName = stop.Name
		event.Distance = geo.Distance(p, geo.Point{Lat: stop.Lat, Lng: stop.Lng})
	}
	if err := s.visits.InsertEvent(ctx, event); err != nil {
		return fmt.Errorf("insert exit event: %w", err)
	}
	// a logged exit resets the enter debounce for the pair
	s.forgetEnter(vehicleID, stopID)
	if err := s.publisher.PublishGeofence(ctx, event); err != nil {
		log.Printf("publish exit event for vehicle %d: %v", vehicleID, err)
	}
	return nil
}

// withinDebounce reports whether a fresh enter should stay out of the audit
// log: only when the most recent event for the pair is also an enter inside
// the window. A logged exit resets the window.
func (s *TrackerService) withinDebounce(ctx context.Context, vehicleID, stopID int64, at time.Time) bool {
	key := enterKey{vehicleID: vehicleID, stopID: stopID}

	s.mu.Lock()
	last, ok := s.lastEnter[key]
	s.mu.Unlock()

	if !ok {
		// Cold start: fall back to the newest audit event. An exit on top
		// means the window is already reset.
		ev, err := s.visits.LastEvent(ctx, vehicleID, stopID)
		if err != nil || ev.Type != domain.GeofenceEnter {
			return false
		}
		last = ev.OccurredAt
	}
	return at.Sub(last) < s.debounce
}

func (s *TrackerService) rememberEnter(vehicleID, stopID int64, at time.Time) {
	s.mu.Lock()
	s.lastEnter[enterKey{vehicleID: vehicleID, stopID: stopID}] = at
	s.mu.Unlock()
}

func (s *TrackerService) forgetEnter(vehicleID, stopID int64) {
	s.mu.Lock()
	delete(s.lastEnter, enterKey{vehicleID: vehicleID, stopID: stopID})
	s.mu.Unlock()
}

// HandleDeviceStatus applies a device online/offline report to the vehicle
// status. Offline always puts the vehicle offline; coming back online only
// revives a vehicle that went offline, so busy and maintenance stick.
func (s *TrackerService) HandleDeviceStatus(ctx context.Context, deviceID int64, online bool) error {
	vehicle, err := s.vehicles.GetByDeviceID(ctx, deviceID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("lookup vehicle for device %d: %w", deviceID, err)
	}

	lock := s.vehicleLock(vehicle.ID)
	lock.Lock()
	defer lock.Unlock()

	next := vehicle.StatusForDevice(online)
	if next == vehicle.Status {
		return nil
	}
	return s.vehicles.UpdateStatus(ctx, vehicle.ID, next)
}
