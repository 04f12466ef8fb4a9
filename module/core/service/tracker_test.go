package service

import (
	"context"
	"testing"
	"time"

	"github.com/Optimus825482/lujobuggy/module/core/domain"
	"github.com/Optimus825482/lujobuggy/module/core/geo"
	"github.com/Optimus825482/lujobuggy/module/core/internal/repository/database"
)

type mockArrivals struct {
	arrivals []int64
}

func (m *mockArrivals) HandleArrival(_ context.Context, _ int64, stopID int64, _ time.Time) error {
	m.arrivals = append(m.arrivals, stopID)
	return nil
}

// Two stops roughly 111m apart on a straight north-south route.
func trackerFixture() (*TrackerService, *domain.Vehicle, *mockVehicleRepo, *mockVisitRepo, *mockPublisher, *mockArrivals) {
	stops := &mockStopRepo{stops: []domain.Stop{
		{ID: 1, Name: "Lobby", Lat: 0, Lng: 0, GeofenceRadius: 50, IsActive: true},
		{ID: 2, Name: "Beach", Lat: 0.001, Lng: 0, GeofenceRadius: 50, IsActive: true},
	}}
	route := geo.NewRoute([]geo.Point{{Lat: 0, Lng: 0}, {Lat: 0.001, Lng: 0}})
	correction := NewCorrectionService(route, stops, geo.CorrectionOptions{})

	deviceID := int64(101)
	vehicle := &domain.Vehicle{ID: 7, Name: "Buggy 1", Status: domain.VehicleAvailable, DeviceID: &deviceID}
	vehicles := &mockVehicleRepo{
		getByDeviceIDFn: func(_ context.Context, id int64) (*domain.Vehicle, error) {
			if id == deviceID {
				return vehicle, nil
			}
			return nil, database.ErrNotFound
		},
	}
	visits := &mockVisitRepo{}
	positions := &mockPositionRepo{}
	pub := &mockPublisher{}
	arrivals := &mockArrivals{}

	tracker := NewTrackerService(vehicles, positions, stops, visits, correction, pub, arrivals, 60*time.Second)
	return tracker, vehicle, vehicles, visits, pub, arrivals
}

func fix(lat, lng, speedKnots float64, at time.Time) *domain.RawPosition {
	return &domain.RawPosition{DeviceID: 101, Lat: lat, Lng: lng, Speed: speedKnots, Heading: 45, Valid: true, RecordedAt: at}
}

func TestProcessPosition_EnterOpensVisit(t *testing.T) {
	tracker, vehicle, vehicles, visits, pub, arrivals := trackerFixture()
	at := time.Unix(1715000000, 0)

	if err := tracker.ProcessPosition(context.Background(), fix(0, 0, 10, at)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(visits.opened) != 1 || visits.opened[0].StopID != 1 {
		t.Fatalf("expected one visit at stop 1, got %+v", visits.opened)
	}
	if len(visits.events) != 1 || visits.events[0].Type != domain.GeofenceEnter {
		t.Fatalf("expected one enter event, got %+v", visits.events)
	}
	if len(pub.geofence) != 1 {
		t.Fatalf("expected 1 published geofence event, got %d", len(pub.geofence))
	}
	if len(arrivals.arrivals) != 1 || arrivals.arrivals[0] != 1 {
		t.Fatalf("expected arrival at stop 1, got %v", arrivals.arrivals)
	}
	if vehicle.LastGeofenceStopID == nil || *vehicle.LastGeofenceStopID != 1 {
		t.Fatalf("expected last geofence stop 1, got %v", vehicle.LastGeofenceStopID)
	}
	if vehicle.Speed != 18.52 {
		t.Errorf("expected speed 18.52 km/h, got %v", vehicle.Speed)
	}
	if len(vehicles.saved) != 1 {
		t.Fatalf("expected vehicle saved once, got %d", len(vehicles.saved))
	}
	if len(pub.snapshots) != 1 || pub.snapshots[0].AtStopID == nil {
		t.Fatalf("expected snapshot at stop, got %+v", pub.snapshots)
	}
}

func TestProcessPosition_NoDuplicateVisitWhileInside(t *testing.T) {
	tracker, _, _, visits, _, _ := trackerFixture()
	at := time.Unix(1715000000, 0)

	for i := 0; i < 3; i++ {
		if err := tracker.ProcessPosition(context.Background(), fix(0, 0, 5, at.Add(time.Duration(i)*10*time.Second))); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if len(visits.opened) != 1 {
		t.Fatalf("expected 1 visit, got %d", len(visits.opened))
	}
	if len(visits.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(visits.events))
	}
}

func TestProcessPosition_TransitionBetweenStops(t *testing.T) {
	tracker, vehicle, _, visits, _, _ := trackerFixture()
	at := time.Unix(1715000000, 0)

	if err := tracker.ProcessPosition(context.Background(), fix(0, 0, 5, at)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tracker.ProcessPosition(context.Background(), fix(0.001, 0, 5, at.Add(2*time.Minute))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(visits.closed) != 1 || visits.closed[0] != 1 {
		t.Fatalf("expected visit at stop 1 closed, got %v", visits.closed)
	}
	if len(visits.opened) != 2 || visits.opened[1].StopID != 2 {
		t.Fatalf("expected second visit at stop 2, got %+v", visits.opened)
	}
	// enter 1, exit 1, enter 2
	if len(visits.events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(visits.events))
	}
	if visits.events[1].Type != domain.GeofenceExit {
		t.Errorf("expected exit event, got %s", visits.events[1].Type)
	}
	// the exit carries the distance from the new fix to the left stop,
	// roughly 111m for 0.001 degrees of latitude
	if visits.events[1].Distance < 100 || visits.events[1].Distance > 120 {
		t.Errorf("unexpected exit distance: %v", visits.events[1].Distance)
	}
	if vehicle.LastGeofenceStopID == nil || *vehicle.LastGeofenceStopID != 2 {
		t.Fatalf("expected last geofence stop 2, got %v", vehicle.LastGeofenceStopID)
	}
}

func TestProcessPosition_ExitResetsEnterDebounce(t *testing.T) {
	tracker, _, _, visits, pub, arrivals := trackerFixture()
	at := time.Unix(1715000000, 0)

	// enter, leave, and come straight back inside the window
	if err := tracker.ProcessPosition(context.Background(), fix(0, 0, 5, at)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tracker.ProcessPosition(context.Background(), fix(0.0005, 0.0005, 5, at.Add(20*time.Second))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tracker.ProcessPosition(context.Background(), fix(0, 0, 5, at.Add(40*time.Second))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(visits.opened) != 2 {
		t.Fatalf("expected 2 visits, got %d", len(visits.opened))
	}
	// the exit in between resets the window, so the re-enter is logged:
	// enter, exit, enter
	var types []domain.GeofenceEventType
	for _, e := range visits.events {
		types = append(types, e.Type)
	}
	if len(types) != 3 || types[0] != domain.GeofenceEnter || types[1] != domain.GeofenceExit || types[2] != domain.GeofenceEnter {
		t.Fatalf("expected enter/exit/enter, got %v", types)
	}
	if len(pub.geofence) != 3 {
		t.Fatalf("expected 3 published events, got %d", len(pub.geofence))
	}
	if len(arrivals.arrivals) != 2 {
		t.Fatalf("expected 2 arrivals, got %d", len(arrivals.arrivals))
	}
}

func TestProcessPosition_DebounceSuppressesRepeatEnter(t *testing.T) {
	tracker, vehicle, _, visits, _, arrivals := trackerFixture()
	at := time.Unix(1715000000, 0)

	// The audit log ends on an enter from 30s ago with no exit after it,
	// the shape a crash mid-processing leaves behind. The fresh enter stays
	// out of the log but the visit and the arrival hook still run.
	visits.lastEventFn = func(_ context.Context, _, _ int64) (*domain.GeofenceEvent, error) {
		return &domain.GeofenceEvent{VehicleID: 7, StopID: 1, Type: domain.GeofenceEnter, OccurredAt: at.Add(-30 * time.Second)}, nil
	}
	vehicle.LastGeofenceStopID = nil

	if err := tracker.ProcessPosition(context.Background(), fix(0, 0, 5, at)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(visits.opened) != 1 {
		t.Fatalf("expected 1 visit, got %d", len(visits.opened))
	}
	if len(visits.events) != 0 {
		t.Fatalf("expected suppressed enter, got %+v", visits.events)
	}
	if len(arrivals.arrivals) != 1 {
		t.Fatalf("expected 1 arrival, got %d", len(arrivals.arrivals))
	}
}

func TestProcessPosition_ReenterAfterDebounceLogsAgain(t *testing.T) {
	tracker, _, _, visits, _, _ := trackerFixture()
	at := time.Unix(1715000000, 0)

	if err := tracker.ProcessPosition(context.Background(), fix(0, 0, 5, at)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tracker.ProcessPosition(context.Background(), fix(0.0005, 0.0005, 5, at.Add(30*time.Second))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tracker.ProcessPosition(context.Background(), fix(0, 0, 5, at.Add(2*time.Minute))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var enters int
	for _, e := range visits.events {
		if e.Type == domain.GeofenceEnter {
			enters++
		}
	}
	if enters != 2 {
		t.Fatalf("expected 2 logged enters, got %d", enters)
	}
}

func TestProcessPosition_ColdStartExitInLogMeansWindowReset(t *testing.T) {
	tracker, vehicle, _, visits, _, _ := trackerFixture()
	at := time.Unix(1715000000, 0)

	// a fresh process where the audit log ends on a recent exit: the
	// re-enter is a real transition and must be logged
	visits.lastEventFn = func(_ context.Context, _, _ int64) (*domain.GeofenceEvent, error) {
		return &domain.GeofenceEvent{VehicleID: 7, StopID: 1, Type: domain.GeofenceExit, OccurredAt: at.Add(-30 * time.Second)}, nil
	}
	vehicle.LastGeofenceStopID = nil

	if err := tracker.ProcessPosition(context.Background(), fix(0, 0, 5, at)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(visits.events) != 1 || visits.events[0].Type != domain.GeofenceEnter {
		t.Fatalf("expected logged enter, got %+v", visits.events)
	}
}

func TestProcessPosition_InvalidFixDropped(t *testing.T) {
	tracker, _, vehicles, visits, _, _ := trackerFixture()
	at := time.Unix(1715000000, 0)

	raw := fix(0, 0, 5, at)
	raw.Valid = false
	if err := tracker.ProcessPosition(context.Background(), raw); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vehicles.saved) != 0 || len(visits.opened) != 0 || len(visits.events) != 0 {
		t.Fatal("expected invalid fix to be dropped")
	}
}

func TestProcessPosition_UnknownDeviceDropped(t *testing.T) {
	tracker, _, vehicles, visits, _, _ := trackerFixture()

	raw := &domain.RawPosition{DeviceID: 999, Lat: 0, Lng: 0, Valid: true, RecordedAt: time.Unix(1715000000, 0)}
	if err := tracker.ProcessPosition(context.Background(), raw); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vehicles.saved) != 0 || len(visits.opened) != 0 {
		t.Fatal("expected fix to be dropped")
	}
}

func TestHandleDeviceStatus(t *testing.T) {
	cases := []struct {
		name    string
		current domain.VehicleStatus
		online  bool
		want    domain.VehicleStatus
		updates int
	}{
		{"offline always wins", domain.VehicleBusy, false, domain.VehicleOffline, 1},
		{"online revives offline", domain.VehicleOffline, true, domain.VehicleAvailable, 1},
		{"online keeps busy", domain.VehicleBusy, true, domain.VehicleBusy, 0},
		{"online keeps maintenance", domain.VehicleMaintenance, true, domain.VehicleMaintenance, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tracker, vehicle, vehicles, _, _, _ := trackerFixture()
			vehicle.Status = tc.current

			var updates int
			var updatedTo domain.VehicleStatus
			vehicles.updateStatusFn = func(_ context.Context, _ int64, status domain.VehicleStatus) error {
				updates++
				updatedTo = status
				return nil
			}

			if err := tracker.HandleDeviceStatus(context.Background(), 101, tc.online); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if updates != tc.updates {
				t.Fatalf("expected %d updates, got %d", tc.updates, updates)
			}
			if updates > 0 && updatedTo != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, updatedTo)
			}
		})
	}
}
