package domain

import "time"

type VehicleStatus string

const (
	VehicleAvailable   VehicleStatus = "available"
	VehicleBusy        VehicleStatus = "busy"
	VehicleOffline     VehicleStatus = "offline"
	VehicleMaintenance VehicleStatus = "maintenance"
)

func (s VehicleStatus) Valid() bool {
	switch s {
	case VehicleAvailable, VehicleBusy, VehicleOffline, VehicleMaintenance:
		return true
	}
	return false
}

// Vehicle is a buggy in the fleet. Position fields are exclusively mutated by
// the correction pipeline; status flips between available and busy with task
// assignment, while offline and maintenance come from device state and
// operator actions.
type Vehicle struct {
	ID                 int64         `json:"id"`
	Name               string        `json:"name"`
	PlateNumber        string        `json:"plate_number"`
	Lat                float64       `json:"lat"`
	Lng                float64       `json:"lng"`
	Speed              float64       `json:"speed"` // km/h
	Heading            float64       `json:"heading"`
	Status             VehicleStatus `json:"status"`
	GPSSignal          bool          `json:"gps_signal"`
	DeviceID           *int64        `json:"device_id,omitempty"` // external tracker device
	LastGeofenceStopID *int64        `json:"last_geofence_stop_id,omitempty"`
	LastUpdate         time.Time     `json:"last_update"`
}

// MarkBusy flips available -> busy on task assignment.
func (v *Vehicle) MarkBusy() error {
	if v.Status != VehicleAvailable {
		return ErrVehicleNotAvailable
	}
	v.Status = VehicleBusy
	return nil
}

// MarkAvailable releases the vehicle after a task completes or is cancelled.
func (v *Vehicle) MarkAvailable() {
	v.Status = VehicleAvailable
}

// StatusForDevice applies the tracker device state: a device coming online
// only revives an offline vehicle, a device going offline always takes the
// vehicle offline. Busy and maintenance are never overwritten by device state.
func (v *Vehicle) StatusForDevice(online bool) VehicleStatus {
	if online {
		if v.Status == VehicleOffline {
			return VehicleAvailable
		}
		return v.Status
	}
	return VehicleOffline
}
