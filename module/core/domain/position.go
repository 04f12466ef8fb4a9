package domain

import "time"

// KnotsToKmh converts a speed reported by the tracking feed in knots to
// kilometers per hour.
const KnotsToKmh = 1.852

// RawPosition is a position fix as received from the tracking feed, before
// any correction. Speed is in knots.
type RawPosition struct {
	DeviceID   int64     `json:"device_id"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	Speed      float64   `json:"speed"`
	Heading    float64   `json:"heading"`
	Valid      bool      `json:"valid"`
	RecordedAt time.Time `json:"recorded_at"`
}

// SpeedKmh converts the feed speed to km/h.
func (p RawPosition) SpeedKmh() float64 {
	return p.Speed * KnotsToKmh
}

// VehiclePosition is a persisted, corrected position sample.
type VehiclePosition struct {
	ID         int64     `json:"id"`
	VehicleID  int64     `json:"vehicle_id"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	Speed      float64   `json:"speed"`
	Heading    float64   `json:"heading"`
	Corrected  string    `json:"corrected"`
	RecordedAt time.Time `json:"recorded_at"`
}

// HistoryQuery selects a window of position history for one vehicle.
type HistoryQuery struct {
	VehicleID int64
	From      time.Time
	To        time.Time
	Limit     int
}

// Snapshot is the live view of a vehicle pushed to event consumers after
// each processed fix.
type Snapshot struct {
	VehicleID   int64         `json:"vehicle_id"`
	VehicleName string        `json:"vehicle_name"`
	Lat         float64       `json:"lat"`
	Lng         float64       `json:"lng"`
	Speed       float64       `json:"speed"`
	Heading     float64       `json:"heading"`
	Status      VehicleStatus `json:"status"`
	Corrected   string        `json:"corrected"`
	AtStopID    *int64        `json:"at_stop_id,omitempty"`
	RecordedAt  time.Time     `json:"recorded_at"`
}

// DailyStats aggregates activity for one service day. Wait time runs from a
// call's creation to its assignment; trip time from pickup to completion.
type DailyStats struct {
	Date           string  `json:"date"`
	TotalCalls     int     `json:"total_calls"`
	CompletedCalls int     `json:"completed_calls"`
	CancelledCalls int     `json:"cancelled_calls"`
	TotalTrips     int     `json:"total_trips"`
	AverageWaitSec float64 `json:"average_wait_sec"`
	AverageTripSec float64 `json:"average_trip_sec"`
	TotalVisits    int     `json:"total_visits"`
	AvgDwellSec    float64 `json:"avg_dwell_sec"`
}
