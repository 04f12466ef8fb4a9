package service

import (
	"context"

	"github.com/Optimus825482/lujobuggy/module/core/domain"
	"github.com/Optimus825482/lujobuggy/module/core/geo"
	"github.com/Optimus825482/lujobuggy/module/core/internal/repository/database"
)

// CorrectionService snaps raw GPS fixes onto the shuttle route and its stops
// and straightens reported headings along the route direction.
type CorrectionService struct {
	route *geo.Route
	stops database.StopRepository
	opts  geo.CorrectionOptions
}

func NewCorrectionService(route *geo.Route, stops database.StopRepository, opts geo.CorrectionOptions) *CorrectionService {
	return &CorrectionService{route: route, stops: stops, opts: opts}
}

// CorrectionResult is a corrected fix: the adjusted point plus the heading to
// report for it.
type CorrectionResult struct {
	geo.Correction
	Heading float64
}

// Correct applies stop snapping, route snapping, and heading correction to a
// raw fix. Stops win over the route; a fix inside a stop snap radius lands
// exactly on the stop. Fixes that snapped to nothing keep the device heading.
func (s *CorrectionService) Correct(ctx context.Context, p geo.Point, heading float64) (*CorrectionResult, error) {
	stops, err := s.stopPoints(ctx)
	if err != nil {
		return nil, err
	}
	corr := geo.FullCorrection(p, s.route, stops, s.opts)
	if corr.Type != geo.CorrectionNone {
		heading = s.route.CorrectHeading(corr.Point, heading)
	}
	return &CorrectionResult{
		Correction: corr,
		Heading:    heading,
	}, nil
}

func (s *CorrectionService) stopPoints(ctx context.Context) ([]geo.StopPoint, error) {
	active, err := s.stops.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	points := make([]geo.StopPoint, 0, len(active))
	for _, st := range active {
		points = append(points, geo.StopPoint{ID: st.ID, Name: st.Name, Lat: st.Lat, Lng: st.Lng})
	}
	return points, nil
}

// ContainingStop returns the active stop whose geofence contains the point
// and the distance to its center, choosing the nearest center when geofences
// overlap.
func ContainingStop(p geo.Point, stops []domain.Stop) (*domain.Stop, float64) {
	var (
		best     *domain.Stop
		bestDist float64
	)
	for i := range stops {
		st := &stops[i]
		dist := geo.Distance(p, geo.Point{Lat: st.Lat, Lng: st.Lng})
		if dist > st.EffectiveRadius() {
			continue
		}
		if best == nil || dist < bestDist {
			best = st
			bestDist = dist
		}
	}
	return best, bestDist
}
