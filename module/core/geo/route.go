package geo

import "math"

const (
	// DefaultMaxSnapDistance is the route snap cutoff in meters.
	DefaultMaxSnapDistance = 50

	// segmentGapMeters separates unconnected route runs: consecutive vertices
	// farther apart than this belong to different runs and are never bridged.
	segmentGapMeters = 200
)

// Route is an immutable multi-run polyline loaded once at startup.
type Route struct {
	vertices []Point
}

// NewRoute builds a route from an ordered vertex list.
func NewRoute(vertices []Point) *Route {
	vs := make([]Point, len(vertices))
	copy(vs, vertices)
	return &Route{vertices: vs}
}

// Len returns the number of vertices.
func (r *Route) Len() int {
	return len(r.vertices)
}

// Vertex returns the vertex at index i.
func (r *Route) Vertex(i int) Point {
	return r.vertices[i]
}

// SnapResult reports the outcome of snapping a fix to the route.
type SnapResult struct {
	Point    Point
	Snapped  bool
	Distance float64 // meters to the nearest valid segment; +Inf with no segments
}

// Snap maps a raw fix onto the nearest point of the route. Fixes farther than
// maxDistance from every segment pass through unchanged, still reporting the
// measured minimum distance for diagnostics.
func (r *Route) Snap(p Point, maxDistance float64) SnapResult {
	minDistance := math.Inf(1)
	nearest := p

	for i := 0; i+1 < len(r.vertices); i++ {
		start := r.vertices[i]
		end := r.vertices[i+1]

		if Distance(start, end) > segmentGapMeters {
			continue // gap between two route runs
		}

		proj := ProjectOntoSegment(p, start, end)
		if proj.Distance < minDistance {
			minDistance = proj.Distance
			nearest = proj.Point
		}
	}

	if minDistance <= maxDistance {
		return SnapResult{Point: nearest, Snapped: true, Distance: minDistance}
	}
	return SnapResult{Point: p, Snapped: false, Distance: minDistance}
}

// NearestVertex returns the index of the route vertex closest to p and its
// distance in meters. With no vertices it returns (-1, +Inf).
func (r *Route) NearestVertex(p Point) (int, float64) {
	minDistance := math.Inf(1)
	nearestIndex := -1

	for i, v := range r.vertices {
		d := Distance(p, v)
		if d < minDistance {
			minDistance = d
			nearestIndex = i
		}
	}
	return nearestIndex, minDistance
}

// CorrectHeading derives travel heading from the local route direction: the
// bearing from the nearest vertex to the one after it in array order. When the
// nearest vertex is the last one there is no next point to aim at, and the
// current heading is kept.
func (r *Route) CorrectHeading(p Point, currentHeading float64) float64 {
	index, _ := r.NearestVertex(p)
	if index < 0 || index+1 >= len(r.vertices) {
		return currentHeading
	}

	current := r.vertices[index]
	next := r.vertices[index+1]

	// planar heading, accurate at route scale
	heading := math.Atan2(next.Lng-current.Lng, next.Lat-current.Lat) * 180 / math.Pi
	if heading < 0 {
		heading += 360
	}
	return heading
}
