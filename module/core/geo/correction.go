package geo

// DefaultStopSnapRadius is the stop snap radius in meters, independent of each
// stop's own geofence radius.
const DefaultStopSnapRadius = 20

// StopPoint is the subset of a stop the corrector needs.
type StopPoint struct {
	ID   int64
	Name string
	Lat  float64
	Lng  float64
}

// StopSnap reports the outcome of snapping a fix to a stop.
type StopSnap struct {
	Point    Point
	Snapped  bool
	StopID   int64
	StopName string
}

// SnapToStop returns the first stop whose distance to p is within snapRadius,
// moving the fix exactly onto the stop's coordinate. Callers must pass stops in
// ascending id order: the policy is first-match, not nearest-match, so with
// overlapping snap radii the enumeration order decides the outcome.
func SnapToStop(p Point, stops []StopPoint, snapRadius float64) StopSnap {
	for _, stop := range stops {
		if Distance(p, Point{Lat: stop.Lat, Lng: stop.Lng}) <= snapRadius {
			return StopSnap{
				Point:    Point{Lat: stop.Lat, Lng: stop.Lng},
				Snapped:  true,
				StopID:   stop.ID,
				StopName: stop.Name,
			}
		}
	}
	return StopSnap{Point: p}
}

// CorrectionType tells which reference a fix was snapped to.
type CorrectionType string

const (
	CorrectionStop  CorrectionType = "stop"
	CorrectionRoute CorrectionType = "route"
	CorrectionNone  CorrectionType = "none"
)

// Correction is the result of the full stop-then-route correction.
type Correction struct {
	Point    Point
	Type     CorrectionType
	StopID   int64 // set only for stop corrections
	StopName string
	Distance float64 // correction distance; 0 for stop snaps (treated as exact)
}

// CorrectionOptions override the default snap tolerances. Zero values mean
// defaults.
type CorrectionOptions struct {
	StopSnapRadius   float64
	RouteMaxDistance float64
}

// FullCorrection tries stop snapping first and falls back to route snapping.
// Stop priority is absolute: a fix within a stop's snap radius never reports a
// route correction. When neither applies the original coordinates pass through
// with the route engine's measured distance.
func FullCorrection(p Point, route *Route, stops []StopPoint, opts CorrectionOptions) Correction {
	stopRadius := opts.StopSnapRadius
	if stopRadius == 0 {
		stopRadius = DefaultStopSnapRadius
	}
	maxDistance := opts.RouteMaxDistance
	if maxDistance == 0 {
		maxDistance = DefaultMaxSnapDistance
	}

	stopSnap := SnapToStop(p, stops, stopRadius)
	if stopSnap.Snapped {
		return Correction{
			Point:    stopSnap.Point,
			Type:     CorrectionStop,
			StopID:   stopSnap.StopID,
			StopName: stopSnap.StopName,
			Distance: 0,
		}
	}

	routeSnap := route.Snap(p, maxDistance)
	if routeSnap.Snapped {
		return Correction{Point: routeSnap.Point, Type: CorrectionRoute, Distance: routeSnap.Distance}
	}

	return Correction{Point: p, Type: CorrectionNone, Distance: routeSnap.Distance}
}
