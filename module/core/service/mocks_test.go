package service

import (
	"context"
	"time"

	"github.com/Optimus825482/lujobuggy/module/core/domain"
	"github.com/Optimus825482/lujobuggy/module/core/internal/repository/database"
)

type mockVehicleRepo struct {
	getByIDFn       func(ctx context.Context, id int64) (*domain.Vehicle, error)
	getByDeviceIDFn func(ctx context.Context, deviceID int64) (*domain.Vehicle, error)
	listFn          func(ctx context.Context) ([]domain.Vehicle, error)
	savePositionFn  func(ctx context.Context, v *domain.Vehicle) error
	updateStatusFn  func(ctx context.Context, id int64, status domain.VehicleStatus) error
	saved           []domain.Vehicle
}

func (m *mockVehicleRepo) GetByID(ctx context.Context, id int64) (*domain.Vehicle, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, database.ErrNotFound
}

func (m *mockVehicleRepo) GetByDeviceID(ctx context.Context, deviceID int64) (*domain.Vehicle, error) {
	if m.getByDeviceIDFn != nil {
		return m.getByDeviceIDFn(ctx, deviceID)
	}
	return nil, database.ErrNotFound
}

func (m *mockVehicleRepo) List(ctx context.Context) ([]domain.Vehicle, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockVehicleRepo) SavePosition(ctx context.Context, v *domain.Vehicle) error {
	m.saved = append(m.saved, *v)
	if m.savePositionFn != nil {
		return m.savePositionFn(ctx, v)
	}
	return nil
}

func (m *mockVehicleRepo) UpdateStatus(ctx context.Context, id int64, status domain.VehicleStatus) error {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, id, status)
	}
	return nil
}

type mockPositionRepo struct {
	inserted  []domain.VehiclePosition
	historyFn func(ctx context.Context, query *domain.HistoryQuery) ([]domain.VehiclePosition, error)
}

func (m *mockPositionRepo) Insert(ctx context.Context, p *domain.VehiclePosition) error {
	m.inserted = append(m.inserted, *p)
	return nil
}

func (m *mockPositionRepo) History(ctx context.Context, query *domain.HistoryQuery) ([]domain.VehiclePosition, error) {
	if m.historyFn != nil {
		return m.historyFn(ctx, query)
	}
	return nil, nil
}

type mockStopRepo struct {
	stops []domain.Stop
}

func (m *mockStopRepo) GetByID(_ context.Context, id int64) (*domain.Stop, error) {
	for i := range m.stops {
		if m.stops[i].ID == id {
			return &m.stops[i], nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *mockStopRepo) ListActive(_ context.Context) ([]domain.Stop, error) {
	var active []domain.Stop
	for _, s := range m.stops {
		if s.IsActive {
			active = append(active, s)
		}
	}
	return active, nil
}

func (m *mockStopRepo) Create(_ context.Context, stop *domain.Stop) error {
	stop.ID = int64(len(m.stops) + 1)
	m.stops = append(m.stops, *stop)
	return nil
}

func (m *mockStopRepo) Update(_ context.Context, stop *domain.Stop) error {
	for i := range m.stops {
		if m.stops[i].ID == stop.ID {
			m.stops[i] = *stop
			return nil
		}
	}
	return database.ErrNotFound
}

type mockVisitRepo struct {
	opened      []domain.StopVisit
	closed      []int64
	events      []domain.GeofenceEvent
	lastEventFn func(ctx context.Context, vehicleID, stopID int64) (*domain.GeofenceEvent, error)
}

func (m *mockVisitRepo) Open(_ context.Context, visit *domain.StopVisit) error {
	visit.ID = int64(len(m.opened) + 1)
	m.opened = append(m.opened, *visit)
	return nil
}

func (m *mockVisitRepo) Close(_ context.Context, vehicleID, stopID int64, _ time.Time) error {
	m.closed = append(m.closed, stopID)
	return nil
}

func (m *mockVisitRepo) ListByVehicle(_ context.Context, _ int64, _ int) ([]domain.StopVisit, error) {
	return m.opened, nil
}

func (m *mockVisitRepo) InsertEvent(_ context.Context, event *domain.GeofenceEvent) error {
	event.ID = int64(len(m.events) + 1)
	m.events = append(m.events, *event)
	return nil
}

func (m *mockVisitRepo) ListEvents(_ context.Context, _ int64, _ int) ([]domain.GeofenceEvent, error) {
	return m.events, nil
}

func (m *mockVisitRepo) LastEvent(ctx context.Context, vehicleID, stopID int64) (*domain.GeofenceEvent, error) {
	if m.lastEventFn != nil {
		return m.lastEventFn(ctx, vehicleID, stopID)
	}
	for i := len(m.events) - 1; i >= 0; i-- {
		if m.events[i].VehicleID == vehicleID && m.events[i].StopID == stopID {
			copied := m.events[i]
			return &copied, nil
		}
	}
	return nil, database.ErrNotFound
}

type mockCallRepo struct {
	createFn func(ctx context.Context, call *domain.Call) error
	calls    map[int64]*domain.Call
}

func (m *mockCallRepo) Create(ctx context.Context, call *domain.Call) error {
	if m.createFn != nil {
		return m.createFn(ctx, call)
	}
	call.ID = int64(len(m.calls) + 1)
	if m.calls == nil {
		m.calls = make(map[int64]*domain.Call)
	}
	m.calls[call.ID] = call
	return nil
}

func (m *mockCallRepo) GetByID(_ context.Context, id int64) (*domain.Call, error) {
	if c, ok := m.calls[id]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, database.ErrNotFound
}

func (m *mockCallRepo) List(_ context.Context, status domain.CallStatus) ([]domain.Call, error) {
	var results []domain.Call
	for _, c := range m.calls {
		if status == "" || c.Status == status {
			results = append(results, *c)
		}
	}
	return results, nil
}

type mockTaskRepo struct {
	tasks map[int64]*domain.Task
}

func (m *mockTaskRepo) GetByID(_ context.Context, id int64) (*domain.Task, error) {
	if t, ok := m.tasks[id]; ok {
		copied := *t
		return &copied, nil
	}
	return nil, database.ErrNotFound
}

func (m *mockTaskRepo) GetActiveByVehicle(_ context.Context, vehicleID int64) (*domain.Task, error) {
	for _, t := range m.tasks {
		if t.VehicleID == vehicleID && t.Status.Active() {
			copied := *t
			return &copied, nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *mockTaskRepo) List(_ context.Context, status domain.TaskStatus) ([]domain.Task, error) {
	var results []domain.Task
	for _, t := range m.tasks {
		if status == "" || t.Status == status {
			results = append(results, *t)
		}
	}
	return results, nil
}

// mockDispatchRepo records the final state handed to each cascade so tests
// can assert on what would have been committed.
type mockDispatchRepo struct {
	assigned   []domain.Task
	completed  []domain.Task
	cancelled  []domain.Task
	callStates []domain.Call
	updated    []domain.Task
}

func (m *mockDispatchRepo) AssignCall(_ context.Context, call *domain.Call, task *domain.Task) error {
	task.ID = int64(len(m.assigned) + 1)
	m.assigned = append(m.assigned, *task)
	m.callStates = append(m.callStates, *call)
	return nil
}

func (m *mockDispatchRepo) CompleteTask(_ context.Context, task *domain.Task, call *domain.Call) error {
	m.completed = append(m.completed, *task)
	m.callStates = append(m.callStates, *call)
	return nil
}

func (m *mockDispatchRepo) CancelTask(_ context.Context, task *domain.Task, call *domain.Call) error {
	m.cancelled = append(m.cancelled, *task)
	m.callStates = append(m.callStates, *call)
	return nil
}

func (m *mockDispatchRepo) CancelCall(_ context.Context, call *domain.Call, task *domain.Task) error {
	m.callStates = append(m.callStates, *call)
	if task != nil {
		m.cancelled = append(m.cancelled, *task)
	}
	return nil
}

func (m *mockDispatchRepo) UpdateTask(_ context.Context, task *domain.Task) error {
	m.updated = append(m.updated, *task)
	return nil
}

type mockPublisher struct {
	geofence  []domain.GeofenceEvent
	snapshots []domain.Snapshot
}

func (m *mockPublisher) PublishGeofence(_ context.Context, event *domain.GeofenceEvent) error {
	m.geofence = append(m.geofence, *event)
	return nil
}

func (m *mockPublisher) PublishSnapshot(_ context.Context, snapshot *domain.Snapshot) error {
	m.snapshots = append(m.snapshots, *snapshot)
	return nil
}
