package domain

import "time"

// StopVisit is one stay of a vehicle inside a stop geofence, opened on entry
// and closed on exit.
type StopVisit struct {
	ID          int64      `json:"id"`
	VehicleID   int64      `json:"vehicle_id"`
	StopID      int64      `json:"stop_id"`
	StopName    string     `json:"stop_name,omitempty"`
	EnterTime   time.Time  `json:"enter_time"`
	ExitTime    *time.Time `json:"exit_time,omitempty"`
	DurationSec *int64     `json:"duration_sec,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Open reports whether the vehicle is still inside the geofence.
func (v *StopVisit) Open() bool {
	return v.ExitTime == nil
}

// Duration is the dwell time of a closed visit, zero while still open.
func (v *StopVisit) Duration() time.Duration {
	if v.ExitTime == nil {
		return 0
	}
	return v.ExitTime.Sub(v.EnterTime)
}

type GeofenceEventType string

const (
	GeofenceEnter GeofenceEventType = "enter"
	GeofenceExit  GeofenceEventType = "exit"
)

// GeofenceEvent is an audit-log row for a geofence boundary crossing.
// An enter is suppressed from the log when the most recent event for the same
// vehicle and stop is also an enter inside the debounce window; an exit in
// between resets the window. Visits still open either way.
type GeofenceEvent struct {
	ID         int64             `json:"id"`
	VehicleID  int64             `json:"vehicle_id"`
	StopID     int64             `json:"stop_id"`
	StopName   string            `json:"stop_name,omitempty"`
	Type       GeofenceEventType `json:"type"`
	Distance   float64           `json:"distance"`
	OccurredAt time.Time         `json:"occurred_at"`
}
