package database

import (
	"context"
	"errors"
	"time"

	"github.com/Optimus825482/lujobuggy/module/core/domain"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

type VehicleRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Vehicle, error)
	GetByDeviceID(ctx context.Context, deviceID int64) (*domain.Vehicle, error)
	List(ctx context.Context) ([]domain.Vehicle, error)
	SavePosition(ctx context.Context, v *domain.Vehicle) error
	UpdateStatus(ctx context.Context, id int64, status domain.VehicleStatus) error
}

type PositionRepository interface {
	Insert(ctx context.Context, p *domain.VehiclePosition) error
	History(ctx context.Context, query *domain.HistoryQuery) ([]domain.VehiclePosition, error)
}

type StopRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Stop, error)
	ListActive(ctx context.Context) ([]domain.Stop, error)
	Create(ctx context.Context, stop *domain.Stop) error
	Update(ctx context.Context, stop *domain.Stop) error
}

type CallRepository interface {
	// Create inserts a pending call. It fails with ErrConflict when the stop
	// already has a pending call.
	Create(ctx context.Context, call *domain.Call) error
	GetByID(ctx context.Context, id int64) (*domain.Call, error)
	List(ctx context.Context, status domain.CallStatus) ([]domain.Call, error)
}

type TaskRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Task, error)
	GetActiveByVehicle(ctx context.Context, vehicleID int64) (*domain.Task, error)
	List(ctx context.Context, status domain.TaskStatus) ([]domain.Task, error)
}

type VisitRepository interface {
	// Open starts a visit, reusing an existing open visit for the same
	// vehicle and stop instead of duplicating it.
	Open(ctx context.Context, visit *domain.StopVisit) error
	Close(ctx context.Context, vehicleID, stopID int64, exit time.Time) error
	ListByVehicle(ctx context.Context, vehicleID int64, limit int) ([]domain.StopVisit, error)
	InsertEvent(ctx context.Context, event *domain.GeofenceEvent) error
	ListEvents(ctx context.Context, vehicleID int64, limit int) ([]domain.GeofenceEvent, error)
	// LastEvent returns the most recent audit event for the vehicle and
	// stop, used to seed the enter debounce after a restart.
	LastEvent(ctx context.Context, vehicleID, stopID int64) (*domain.GeofenceEvent, error)
}

// DispatchRepository groups the lifecycle writes that must land atomically:
// assigning a call touches the call, a new task, and the vehicle in one
// transaction, and task completion or cancellation unwinds all three.
type DispatchRepository interface {
	AssignCall(ctx context.Context, call *domain.Call, task *domain.Task) error
	CompleteTask(ctx context.Context, task *domain.Task, call *domain.Call) error
	CancelTask(ctx context.Context, task *domain.Task, call *domain.Call) error
	CancelCall(ctx context.Context, call *domain.Call, task *domain.Task) error
	UpdateTask(ctx context.Context, task *domain.Task) error
}

type StatsRepository interface {
	Daily(ctx context.Context, date string) (*domain.DailyStats, error)
}
