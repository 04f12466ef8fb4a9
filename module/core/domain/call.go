package domain

import "time"

type CallStatus string

const (
	CallPending   CallStatus = "pending"
	CallAssigned  CallStatus = "assigned"
	CallCompleted CallStatus = "completed"
	CallCancelled CallStatus = "cancelled"
)

func (s CallStatus) Terminal() bool {
	return s == CallCompleted || s == CallCancelled
}

// Call is a guest pickup request issued at a stop. At most one pending call
// may exist per stop at a time.
type Call struct {
	ID                int64      `json:"id"`
	StopID            int64      `json:"stop_id"`
	Status            CallStatus `json:"status"`
	AssignedVehicleID *int64     `json:"assigned_vehicle_id,omitempty"`
	AssignedAt        *time.Time `json:"assigned_at,omitempty"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	CancelledAt       *time.Time `json:"cancelled_at,omitempty"`
	CancelReason      *string    `json:"cancel_reason,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// Assign moves pending -> assigned and records the vehicle.
func (c *Call) Assign(vehicleID int64, now time.Time) error {
	if c.Status != CallPending {
		return ErrInvalidStatusTransition
	}
	c.Status = CallAssigned
	c.AssignedVehicleID = &vehicleID
	c.AssignedAt = &now
	return nil
}

// Complete moves assigned -> completed.
func (c *Call) Complete(now time.Time) error {
	if c.Status != CallAssigned {
		return ErrInvalidStatusTransition
	}
	c.Status = CallCompleted
	c.CompletedAt = &now
	return nil
}

// Cancel moves any non-terminal state to cancelled.
func (c *Call) Cancel(reason string, now time.Time) error {
	if c.Status.Terminal() {
		return ErrInvalidStatusTransition
	}
	c.Status = CallCancelled
	c.CancelledAt = &now
	if reason != "" {
		c.CancelReason = &reason
	}
	return nil
}

// Reopen returns an assigned call to pending after its task is cancelled, so
// the call is dispatchable again.
func (c *Call) Reopen() error {
	if c.Status != CallAssigned {
		return ErrInvalidStatusTransition
	}
	c.Status = CallPending
	c.AssignedVehicleID = nil
	c.AssignedAt = nil
	return nil
}
