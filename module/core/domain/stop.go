package domain

// DefaultGeofenceRadius is the stop geofence radius in meters when unset.
const DefaultGeofenceRadius = 15

// Stop is a fixed pickup/dropoff point with a circular geofence.
type Stop struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	Lat            float64 `json:"lat"`
	Lng            float64 `json:"lng"`
	GeofenceRadius float64 `json:"geofence_radius"`
	IsActive       bool    `json:"is_active"`
}

// EffectiveRadius returns the geofence radius, defaulted when unset.
func (s *Stop) EffectiveRadius() float64 {
	if s.GeofenceRadius <= 0 {
		return DefaultGeofenceRadius
	}
	return s.GeofenceRadius
}
