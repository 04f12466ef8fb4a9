package domain

import "time"

type TaskStatus string

const (
	TaskAssigned  TaskStatus = "assigned"
	TaskPickup    TaskStatus = "pickup"
	TaskDropoff   TaskStatus = "dropoff"
	TaskCompleted TaskStatus = "completed"
	TaskCancelled TaskStatus = "cancelled"
)

func (s TaskStatus) Terminal() bool {
	return s == TaskCompleted || s == TaskCancelled
}

func (s TaskStatus) Active() bool {
	return !s.Terminal()
}

// Task tracks a vehicle working a call: driving to the pickup stop, carrying
// the guest, and arriving at the dropoff stop.
type Task struct {
	ID            int64      `json:"id"`
	CallID        int64      `json:"call_id"`
	VehicleID     int64      `json:"vehicle_id"`
	PickupStopID  int64      `json:"pickup_stop_id"`
	DropoffStopID *int64     `json:"dropoff_stop_id,omitempty"`
	Status        TaskStatus `json:"status"`
	AutoCompleted bool       `json:"auto_completed"`
	PickedUpAt    *time.Time `json:"picked_up_at,omitempty"`
	DroppedOffAt  *time.Time `json:"dropped_off_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// SetDropoff records the dropoff destination. Allowed while the task is
// still active; the dropoff must be known before the dropoff transition.
func (t *Task) SetDropoff(stopID int64) error {
	if t.Status.Terminal() {
		return ErrInvalidStatusTransition
	}
	t.DropoffStopID = &stopID
	return nil
}

// Pickup moves assigned -> pickup when the vehicle reaches the pickup stop.
func (t *Task) Pickup(now time.Time) error {
	if t.Status != TaskAssigned {
		return ErrInvalidStatusTransition
	}
	t.Status = TaskPickup
	t.PickedUpAt = &now
	return nil
}

// Dropoff moves pickup -> dropoff. The dropoff stop must be set first.
func (t *Task) Dropoff(now time.Time) error {
	if t.Status != TaskPickup {
		return ErrInvalidStatusTransition
	}
	if t.DropoffStopID == nil {
		return ErrDropoffNotSet
	}
	t.Status = TaskDropoff
	t.DroppedOffAt = &now
	return nil
}

// Complete finishes the task from any non-terminal state. auto marks
// completions triggered by geofence arrival rather than an operator.
func (t *Task) Complete(now time.Time, auto bool) error {
	if t.Status.Terminal() {
		return ErrInvalidStatusTransition
	}
	t.Status = TaskCompleted
	t.AutoCompleted = auto
	t.CompletedAt = &now
	return nil
}

// Cancel aborts the task from any non-terminal state.
func (t *Task) Cancel(now time.Time) error {
	if t.Status.Terminal() {
		return ErrInvalidStatusTransition
	}
	t.Status = TaskCancelled
	t.CancelledAt = &now
	return nil
}

// TargetStopID reports the stop the vehicle is currently headed to, if any.
// While assigned the target is the pickup stop; once the guest is aboard it
// is the dropoff stop.
func (t *Task) TargetStopID() (int64, bool) {
	switch t.Status {
	case TaskAssigned:
		return t.PickupStopID, true
	case TaskPickup, TaskDropoff:
		if t.DropoffStopID != nil {
			return *t.DropoffStopID, true
		}
	}
	return 0, false
}
