// Package geo implements the coordinate math behind GPS correction:
// great-circle distance, forward azimuth and segment projection.
package geo

import "math"

const earthRadiusMeters = 6371000

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64
	Lng float64
}

// Distance returns the haversine great-circle distance between two points in meters.
func Distance(a, b Point) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)

	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Bearing returns the forward azimuth from one point to another, in degrees [0, 360).
func Bearing(from, to Point) float64 {
	dLng := toRad(to.Lng - from.Lng)
	lat1 := toRad(from.Lat)
	lat2 := toRad(to.Lat)

	y := math.Sin(dLng) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLng)

	bearing := math.Atan2(y, x) * 180 / math.Pi
	return math.Mod(bearing+360, 360)
}

// Projection is the result of projecting a point onto a segment.
type Projection struct {
	Point    Point
	Distance float64 // meters from the input point to the projected point
	T        float64 // position along the segment, 0 = start, 1 = end
}

// ProjectOntoSegment projects a point onto the segment from a to b.
//
// The projection itself is planar in (lng, lat) space while the reported
// distance is haversine on the projected point. Route segments are tens of
// meters long, so the planar parameter stays accurate; keeping the mix is
// required to reproduce the correction output exactly.
func ProjectOntoSegment(p, a, b Point) Projection {
	abx := b.Lng - a.Lng
	aby := b.Lat - a.Lat
	apx := p.Lng - a.Lng
	apy := p.Lat - a.Lat

	ab2 := abx*abx + aby*aby
	if ab2 == 0 {
		// degenerate segment
		return Projection{Point: a, Distance: Distance(p, a), T: 0}
	}

	t := (apx*abx + apy*aby) / ab2
	t = math.Max(0, math.Min(1, t))

	projected := Point{
		Lat: a.Lat + t*aby,
		Lng: a.Lng + t*abx,
	}

	return Projection{Point: projected, Distance: Distance(p, projected), T: t}
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
