package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Optimus825482/lujobuggy/module/core/domain"
	"github.com/Optimus825482/lujobuggy/module/core/internal/repository/database"
)

// DispatchService runs the call and task lifecycles. All status transitions
// go through the domain state machines; this layer loads state, applies the
// transition, and persists the result atomically.
type DispatchService struct {
	vehicles database.VehicleRepository
	stops    database.StopRepository
	calls    database.CallRepository
	tasks    database.TaskRepository
	dispatch database.DispatchRepository
	now      func() time.Time
}

func NewDispatchService(
	vehicles database.VehicleRepository,
	stops database.StopRepository,
	calls database.CallRepository,
	tasks database.TaskRepository,
	dispatch database.DispatchRepository,
) *DispatchService {
	return &DispatchService{
		vehicles: vehicles,
		stops:    stops,
		calls:    calls,
		tasks:    tasks,
		dispatch: dispatch,
		now:      time.Now,
	}
}

// CreateCall opens a pending call at a stop. A stop can have only one
// pending call at a time.
func (s *DispatchService) CreateCall(ctx context.Context, stopID int64) (*domain.Call, error) {
	stop, err := s.stops.GetByID(ctx, stopID)
	if err != nil {
		return nil, fmt.Errorf("lookup stop %d: %w", stopID, err)
	}
	if !stop.IsActive {
		return nil, domain.ErrStopInactive
	}
	call := &domain.Call{
		StopID:    stop.ID,
		Status:    domain.CallPending,
		CreatedAt: s.now(),
	}
	if err := s.calls.Create(ctx, call); err != nil {
		if errors.Is(err, database.ErrConflict) {
			return nil, domain.ErrPendingCallExists
		}
		return nil, err
	}
	return call, nil
}

// AssignCall dispatches an available vehicle to a pending call and opens the
// task that tracks the run.
func (s *DispatchService) AssignCall(ctx context.Context, callID, vehicleID int64) (*domain.Task, error) {
	call, err := s.calls.GetByID(ctx, callID)
	if err != nil {
		return nil, fmt.Errorf("lookup call %d: %w", callID, err)
	}
	vehicle, err := s.vehicles.GetByID(ctx, vehicleID)
	if err != nil {
		return nil, fmt.Errorf("lookup vehicle %d: %w", vehicleID, err)
	}
	if err := vehicle.MarkBusy(); err != nil {
		return nil, err
	}

	now := s.now()
	if err := call.Assign(vehicle.ID, now); err != nil {
		return nil, err
	}
	task := &domain.Task{
		CallID:       call.ID,
		VehicleID:    vehicle.ID,
		PickupStopID: call.StopID,
		Status:       domain.TaskAssigned,
		CreatedAt:    now,
	}
	if err := s.dispatch.AssignCall(ctx, call, task); err != nil {
		return nil, fmt.Errorf("persist assignment: %w", err)
	}
	return task, nil
}

// SetDropoff records where the guest wants to go.
func (s *DispatchService) SetDropoff(ctx context.Context, taskID, stopID int64) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("lookup task %d: %w", taskID, err)
	}
	if _, err := s.stops.GetByID(ctx, stopID); err != nil {
		return nil, fmt.Errorf("lookup stop %d: %w", stopID, err)
	}
	if err := task.SetDropoff(stopID); err != nil {
		return nil, err
	}
	if err := s.dispatch.UpdateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("persist task: %w", err)
	}
	return task, nil
}

// Pickup marks the guest as aboard, for operators advancing a task by hand.
func (s *DispatchService) Pickup(ctx context.Context, taskID int64) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("lookup task %d: %w", taskID, err)
	}
	if err := task.Pickup(s.now()); err != nil {
		return nil, err
	}
	if err := s.dispatch.UpdateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("persist task: %w", err)
	}
	return task, nil
}

// Dropoff marks arrival at the destination by hand.
func (s *DispatchService) Dropoff(ctx context.Context, taskID int64) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("lookup task %d: %w", taskID, err)
	}
	if err := task.Dropoff(s.now()); err != nil {
		return nil, err
	}
	if err := s.dispatch.UpdateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("persist task: %w", err)
	}
	return task, nil
}

// CompleteTask finishes a task on operator request. The call completes and
// the vehicle frees up with it.
func (s *DispatchService) CompleteTask(ctx context.Context, taskID int64) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("lookup task %d: %w", taskID, err)
	}
	return s.completeTask(ctx, task, false)
}

func (s *DispatchService) completeTask(ctx context.Context, task *domain.Task, auto bool) (*domain.Task, error) {
	call, err := s.calls.GetByID(ctx, task.CallID)
	if err != nil {
		return nil, fmt.Errorf("lookup call %d: %w", task.CallID, err)
	}

	now := s.now()
	if err := task.Complete(now, auto); err != nil {
		return nil, err
	}
	if err := call.Complete(now); err != nil {
		return nil, err
	}
	if err := s.dispatch.CompleteTask(ctx, task, call); err != nil {
		return nil, fmt.Errorf("persist completion: %w", err)
	}
	return task, nil
}

// CancelTask aborts a task. The call returns to pending so another vehicle
// can take it, and the vehicle frees up.
func (s *DispatchService) CancelTask(ctx context.Context, taskID int64) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("lookup task %d: %w", taskID, err)
	}
	call, err := s.calls.GetByID(ctx, task.CallID)
	if err != nil {
		return nil, fmt.Errorf("lookup call %d: %w", task.CallID, err)
	}

	if err := task.Cancel(s.now()); err != nil {
		return nil, err
	}
	if err := call.Reopen(); err != nil && !errors.Is(err, domain.ErrInvalidStatusTransition) {
		return nil, err
	}
	if err := s.dispatch.CancelTask(ctx, task, call); err != nil {
		return nil, fmt.Errorf("persist cancellation: %w", err)
	}
	return task, nil
}

// CompleteCall finishes an assigned call by hand. It closes out the live
// task the same way CompleteTask does.
func (s *DispatchService) CompleteCall(ctx context.Context, callID int64) (*domain.Call, error) {
	call, err := s.calls.GetByID(ctx, callID)
	if err != nil {
		return nil, fmt.Errorf("lookup call %d: %w", callID, err)
	}
	if call.Status != domain.CallAssigned || call.AssignedVehicleID == nil {
		return nil, domain.ErrInvalidStatusTransition
	}
	task, err := s.tasks.GetActiveByVehicle(ctx, *call.AssignedVehicleID)
	if err != nil {
		return nil, fmt.Errorf("lookup active task: %w", err)
	}
	if _, err := s.completeTask(ctx, task, false); err != nil {
		return nil, err
	}
	return s.calls.GetByID(ctx, callID)
}

// CancelCall withdraws a call. An assigned call drags its task down with it
// and frees the vehicle.
func (s *DispatchService) CancelCall(ctx context.Context, callID int64, reason string) (*domain.Call, error) {
	call, err := s.calls.GetByID(ctx, callID)
	if err != nil {
		return nil, fmt.Errorf("lookup call %d: %w", callID, err)
	}

	var task *domain.Task
	if call.Status == domain.CallAssigned && call.AssignedVehicleID != nil {
		task, err = s.tasks.GetActiveByVehicle(ctx, *call.AssignedVehicleID)
		if err != nil && !errors.Is(err, database.ErrNotFound) {
			return nil, fmt.Errorf("lookup active task: %w", err)
		}
	}

	now := s.now()
	if err := call.Cancel(reason, now); err != nil {
		return nil, err
	}
	if task != nil {
		if err := task.Cancel(now); err != nil {
			return nil, err
		}
	}
	if err := s.dispatch.CancelCall(ctx, call, task); err != nil {
		return nil, fmt.Errorf("persist cancellation: %w", err)
	}
	return call, nil
}

// HandleArrival advances the vehicle's task when it reaches the stop it was
// headed to. Reaching the pickup stop boards the guest; reaching the dropoff
// stop closes out the whole run.
func (s *DispatchService) HandleArrival(ctx context.Context, vehicleID, stopID int64, at time.Time) error {
	task, err := s.tasks.GetActiveByVehicle(ctx, vehicleID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("lookup active task: %w", err)
	}

	target, ok := task.TargetStopID()
	if !ok || target != stopID {
		return nil
	}

	switch task.Status {
	case domain.TaskAssigned:
		if err := task.Pickup(at); err != nil {
			return err
		}
		if err := s.dispatch.UpdateTask(ctx, task); err != nil {
			return fmt.Errorf("persist task: %w", err)
		}
	case domain.TaskPickup, domain.TaskDropoff:
		if task.Status == domain.TaskPickup {
			if err := task.Dropoff(at); err != nil {
				return err
			}
		}
		if _, err := s.completeTask(ctx, task, true); err != nil {
			return err
		}
	}
	return nil
}
