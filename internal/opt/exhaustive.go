package opt

import "fieldnav/internal/model"

// Exhaustive enumerates every candidate subset of size 1..MaxStops and keeps
// the feasible one with the highest total reward. Value ties keep the first
// subset in lexicographic combination order. Exponential in the pool size, so
// callers route large pools through Genetic, which only brute-forces pools
// small enough to enumerate.
func (o *Optimizer) Exhaustive(start model.Site) []model.Site {
	return o.bruteForce(start, o.Candidates(start))
}

func (o *Optimizer) bruteForce(start model.Site, pool []model.Site) []model.Site {
	var best []model.Site
	bestValue := 0.0
	maxSize := o.cfg.MaxStops
	if len(pool) < maxSize {
		maxSize = len(pool)
	}
	combo := make([]model.Site, 0, maxSize)
	for size := 1; size <= maxSize; size++ {
		o.combinations(start, pool, combo, 0, size, &best, &bestValue)
	}
	return best
}

// combinations recursively extends combo with candidates from pool[from:],
// checking each completed subset of the target size.
func (o *Optimizer) combinations(start model.Site, pool, combo []model.Site, from, size int, best *[]model.Site, bestValue *float64) {
	if len(combo) == size {
		if !o.eval.Feasible(start, combo) {
			return
		}
		if v := o.eval.Metrics(start, combo).Value; v > *bestValue {
			*bestValue = v
			*best = append([]model.Site(nil), combo...)
		}
		return
	}
	// Not enough candidates left to reach the target size.
	for i := from; i <= len(pool)-(size-len(combo)); i++ {
		o.combinations(start, pool, append(combo, pool[i]), i+1, size, best, bestValue)
	}
}
