package opt

import (
	"fieldnav/internal/geo"
	"fieldnav/internal/model"
)

// Evaluator computes route metrics and feasibility. It holds only immutable
// config, so a single value is safe to share across concurrent searches.
type Evaluator struct {
	cfg Config
}

func NewEvaluator(cfg Config) Evaluator { return Evaluator{cfg: cfg} }

// Metrics walks start -> route[0] -> ... -> route[n-1] -> start, accumulating
// distance, travel time plus dwell per visited site, and collected reward.
// The dwell applies to every visited site but not to the return leg.
func (e Evaluator) Metrics(start model.Site, route []model.Site) model.RouteMetrics {
	var m model.RouteMetrics
	if len(route) == 0 {
		return m
	}
	cur := start
	for _, s := range route {
		d := geo.Distance(cur.Point(), s.Point())
		m.DistanceKm += d
		m.TimeMinutes += geo.TravelMinutes(d, e.cfg.WalkingSpeedKmh) + e.cfg.DwellMinutes
		m.Value += s.Reward
		cur = s
	}
	back := geo.Distance(cur.Point(), start.Point())
	m.DistanceKm += back
	m.TimeMinutes += geo.TravelMinutes(back, e.cfg.WalkingSpeedKmh)
	return m
}

// Feasible reports whether the route respects the stop count, zone purity,
// and time budget constraints. Called combinatorially often inside search
// loops; it is pure and re-entrant.
func (e Evaluator) Feasible(start model.Site, route []model.Site) bool {
	if len(route) > e.cfg.MaxStops {
		return false
	}
	for _, s := range route {
		if s.Zone != start.Zone {
			return false
		}
	}
	return e.Metrics(start, route).TimeMinutes <= e.cfg.MaxTimeMinutes
}
