package opt

import (
	"math/rand"

	"fieldnav/internal/model"
)

// Genetic runs a population-based search over the zone's candidate pool.
// Pools no larger than MaxStops are brute-forced instead, matching the
// exhaustive strategy's optimality guarantee on small instances. If not a
// single random sample is feasible the search falls back to greedy output.
//
// All randomness flows through the supplied rng, so a fixed seed reproduces
// the run exactly and concurrent searches never share generator state.
func (o *Optimizer) Genetic(start model.Site, rng *rand.Rand) []model.Site {
	pool := o.Candidates(start)
	if len(pool) == 0 {
		return nil
	}
	if len(pool) <= o.cfg.MaxStops {
		return o.bruteForce(start, pool)
	}

	popSize := o.cfg.PopulationSize
	if n := len(pool) * 2; n < popSize {
		popSize = n
	}

	population := make([][]model.Site, 0, popSize)
	for i := 0; i < popSize; i++ {
		member := o.randomRoute(pool, rng)
		if o.eval.Feasible(start, member) {
			population = append(population, member)
		}
	}
	if len(population) == 0 {
		return o.Greedy(start)
	}

	for gen := 0; gen < o.cfg.Generations; gen++ {
		elite := o.selectElite(start, population, popSize)
		next := make([][]model.Site, len(elite), popSize)
		copy(next, elite)
		for len(next) < popSize {
			p1, p2 := pickParents(elite, rng)
			child := crossover(p1, p2, o.cfg.MaxStops, rng)
			if rng.Float64() < o.cfg.MutationRate {
				child = mutate(child, pool, o.cfg.MaxStops, rng)
			}
			if o.eval.Feasible(start, child) {
				next = append(next, child)
			} else {
				// Discard the infeasible child, keep the population full.
				next = append(next, elite[rng.Intn(len(elite))])
			}
		}
		population = next
	}

	best := population[0]
	bestValue := o.eval.Metrics(start, best).Value
	for _, member := range population[1:] {
		if v := o.eval.Metrics(start, member).Value; v > bestValue {
			best = member
			bestValue = v
		}
	}
	return best
}

// randomRoute samples a random count in 1..MaxStops and that many distinct
// sites from the pool.
func (o *Optimizer) randomRoute(pool []model.Site, rng *rand.Rand) []model.Site {
	maxSize := o.cfg.MaxStops
	if len(pool) < maxSize {
		maxSize = len(pool)
	}
	return sampleSites(pool, 1+rng.Intn(maxSize), rng)
}

// selectElite returns the top EliteFraction of the population by total value,
// at least one member, without mutating the input order.
func (o *Optimizer) selectElite(start model.Site, population [][]model.Site, popSize int) [][]model.Site {
	type scored struct {
		route []model.Site
		value float64
	}
	ranked := make([]scored, len(population))
	for i, member := range population {
		ranked[i] = scored{route: member, value: o.eval.Metrics(start, member).Value}
	}
	// Stable insertion by value keeps earlier members ahead on ties.
	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && ranked[j].value > ranked[j-1].value; j-- {
			ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
		}
	}
	n := int(float64(popSize) * o.cfg.EliteFraction)
	if n < 1 {
		n = 1
	}
	if n > len(ranked) {
		n = len(ranked)
	}
	elite := make([][]model.Site, n)
	for i := 0; i < n; i++ {
		elite[i] = ranked[i].route
	}
	return elite
}

func pickParents(elite [][]model.Site, rng *rand.Rand) ([]model.Site, []model.Site) {
	if len(elite) == 1 {
		return elite[0], elite[0]
	}
	i := rng.Intn(len(elite))
	j := rng.Intn(len(elite) - 1)
	if j >= i {
		j++
	}
	return elite[i], elite[j]
}

// crossover unions the parents' sites by id, first-seen order, then resamples
// a random-size subset of the union.
func crossover(p1, p2 []model.Site, maxStops int, rng *rand.Rand) []model.Site {
	seen := make(map[int]struct{}, len(p1)+len(p2))
	union := make([]model.Site, 0, len(p1)+len(p2))
	for _, s := range p1 {
		if _, ok := seen[s.ID]; !ok {
			seen[s.ID] = struct{}{}
			union = append(union, s)
		}
	}
	for _, s := range p2 {
		if _, ok := seen[s.ID]; !ok {
			seen[s.ID] = struct{}{}
			union = append(union, s)
		}
	}
	size := maxStops
	if len(union) < size {
		size = len(union)
	}
	return sampleSites(union, 1+rng.Intn(size), rng)
}

// mutate applies one random edit: add an unused site (if the route has room),
// remove a site (if more than one remains), or replace a site with an unused
// one. The input route is never modified.
func mutate(route, pool []model.Site, maxStops int, rng *rand.Rand) []model.Site {
	if len(route) == 0 {
		return route
	}
	out := append([]model.Site(nil), route...)
	switch rng.Intn(3) {
	case 0: // add
		if len(out) < maxStops {
			if unused := unusedSites(out, pool); len(unused) > 0 {
				out = append(out, unused[rng.Intn(len(unused))])
			}
		}
	case 1: // remove
		if len(out) > 1 {
			i := rng.Intn(len(out))
			out = append(out[:i], out[i+1:]...)
		}
	default: // replace
		if unused := unusedSites(out, pool); len(unused) > 0 {
			out[rng.Intn(len(out))] = unused[rng.Intn(len(unused))]
		}
	}
	return out
}

func unusedSites(route, pool []model.Site) []model.Site {
	used := make(map[int]struct{}, len(route))
	for _, s := range route {
		used[s.ID] = struct{}{}
	}
	out := make([]model.Site, 0, len(pool))
	for _, s := range pool {
		if _, ok := used[s.ID]; !ok {
			out = append(out, s)
		}
	}
	return out
}

// sampleSites draws n distinct sites via a partial Fisher-Yates shuffle of a
// copy of the pool.
func sampleSites(pool []model.Site, n int, rng *rand.Rand) []model.Site {
	if n > len(pool) {
		n = len(pool)
	}
	cp := append([]model.Site(nil), pool...)
	for i := 0; i < n; i++ {
		j := i + rng.Intn(len(cp)-i)
		cp[i], cp[j] = cp[j], cp[i]
	}
	return cp[:n:n]
}

// Random samples feasible subsets until one fits, used as a competition
// baseline. Gives up after a fixed number of attempts and returns an empty
// route.
func (o *Optimizer) Random(start model.Site, rng *rand.Rand) []model.Site {
	pool := o.Candidates(start)
	if len(pool) == 0 {
		return nil
	}
	const maxAttempts = 100
	for i := 0; i < maxAttempts; i++ {
		route := o.randomRoute(pool, rng)
		if o.eval.Feasible(start, route) {
			return route
		}
	}
	return nil
}
