package opt

import (
	"math"
	"sort"

	"fieldnav/internal/geo"
	"fieldnav/internal/model"
)

// Greedy builds a route by repeatedly taking the candidate with the best
// reward-per-minute score from the current position, keeping only additions
// that stay feasible. Ties break on the lower site id so runs are
// reproducible regardless of catalog order.
func (o *Optimizer) Greedy(start model.Site) []model.Site {
	pool := o.Candidates(start)
	route := make([]model.Site, 0, o.cfg.MaxStops)
	cur := start

	for len(route) < o.cfg.MaxStops && len(pool) > 0 {
		bestIdx := -1
		bestScore := -1.0
		for i, cand := range pool {
			tentative := append(route, cand)
			if !o.eval.Feasible(start, tentative) {
				continue
			}
			cost := geo.TravelMinutes(geo.Distance(cur.Point(), cand.Point()), o.cfg.WalkingSpeedKmh) + o.cfg.DwellMinutes
			// A coincident candidate with zero dwell costs nothing; its
			// reward is free, so it outranks every priced candidate.
			score := math.Inf(1)
			if cost > 0 {
				score = cand.Reward / cost
			}
			if score > bestScore || (score == bestScore && bestIdx >= 0 && cand.ID < pool[bestIdx].ID) {
				bestScore = score
				bestIdx = i
			}
		}
		if bestIdx < 0 {
			break
		}
		cur = pool[bestIdx]
		route = append(route, cur)
		pool = append(pool[:bestIdx], pool[bestIdx+1:]...)
	}
	return route
}

// HighValue fills the route in descending reward order, keeping every
// candidate that still fits. A naive baseline for competitions.
func (o *Optimizer) HighValue(start model.Site) []model.Site {
	pool := o.Candidates(start)
	sort.SliceStable(pool, func(i, j int) bool {
		if pool[i].Reward != pool[j].Reward {
			return pool[i].Reward > pool[j].Reward
		}
		return pool[i].ID < pool[j].ID
	})
	route := make([]model.Site, 0, o.cfg.MaxStops)
	for _, cand := range pool {
		tentative := append(route, cand)
		if o.eval.Feasible(start, tentative) {
			route = append(route, cand)
		}
	}
	return route
}
