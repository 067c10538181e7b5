package sim

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"fieldnav/internal/model"
	"fieldnav/internal/opt"
)

const DefaultDays = 5

var ErrNoAgents = errors.New("competition needs at least one agent")

// EventFunc receives progress events while a competition runs. May be nil.
type EventFunc func(event string, data map[string]any)

// Spec describes one competition run. Starts fixes the per-day starting sites
// directly (e.g. minted from raw coordinates via zone bounds); StartSiteIDs
// resolves them from the catalog instead. When both are empty they are
// sampled from the catalog with the competition seed, so all agents still
// face identical days.
type Spec struct {
	TenantID     string
	Days         int
	Starts       []model.Site
	StartSiteIDs []int
	Seed         int64
	Agents       []model.AgentSpec
}

// RunCompetition plays every agent over the same starting sites and returns
// the packaged, ranked outcome. Agents run concurrently; the catalog and zone
// index are read-only and each agent owns its RNG, so no locking is needed
// beyond collecting results.
func (s *Simulator) RunCompetition(spec Spec, onEvent EventFunc) (model.Competition, error) {
	if len(spec.Agents) == 0 {
		return model.Competition{}, ErrNoAgents
	}
	strategies := make([]opt.Strategy, len(spec.Agents))
	for i, a := range spec.Agents {
		st, err := opt.ParseStrategy(a.Strategy)
		if err != nil {
			return model.Competition{}, fmt.Errorf("agent %q: %w", a.Name, err)
		}
		strategies[i] = st
	}

	days := spec.Days
	if days <= 0 {
		days = DefaultDays
	}
	seed := spec.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	starts, err := s.resolveStarts(spec.Starts, spec.StartSiteIDs, days, seed)
	if err != nil {
		return model.Competition{}, err
	}
	// Explicit starts override the day count: one day per site.
	days = len(starts)

	results := make([]model.AgentResult, len(spec.Agents))
	var wg sync.WaitGroup
	var mu sync.Mutex // guards onEvent fan-out
	for i, agent := range spec.Agents {
		wg.Add(1)
		go func(i int, agent model.AgentSpec, strategy opt.Strategy) {
			defer wg.Done()
			agentSeed := agent.Seed
			if agentSeed == 0 {
				// Derived per-agent seed keeps the whole run reproducible.
				agentSeed = seed + int64(i) + 1
			}
			res := model.AgentResult{Agent: agent}
			for d, startSite := range starts {
				day := s.SimulateDay(d+1, startSite, strategy, agentSeed+int64(d))
				res.Days = append(res.Days, day)
				res.TotalValue += day.Metrics.Value
				res.TotalDistanceKm += day.Metrics.DistanceKm
				res.TotalTimeMinutes += day.Metrics.TimeMinutes
				res.SitesVisited += len(day.Route)
				if onEvent != nil {
					mu.Lock()
					onEvent("day.completed", map[string]any{
						"agent": agent.Name, "day": d + 1, "zone": day.Zone,
						"value": day.Metrics.Value, "stops": len(day.Route),
					})
					mu.Unlock()
				}
			}
			results[i] = res
		}(i, agent, strategies[i])
	}
	wg.Wait()

	startIDs := make([]int, len(starts))
	for i, st := range starts {
		startIDs[i] = st.ID
	}
	comp := model.Competition{
		ID:           uuid.New().String(),
		TenantID:     spec.TenantID,
		Days:         days,
		StartSiteIDs: startIDs,
		Agents:       results,
		Standings:    Standings(results),
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	if onEvent != nil {
		onEvent("competition.finished", map[string]any{
			"competitionId": comp.ID, "days": days, "agents": len(results),
		})
	}
	return comp, nil
}

// resolveStarts takes explicit starting sites as-is, maps explicit site ids
// to catalog sites, or samples one random site per day: first a random zone,
// then a random site within it, matching how daily assignments are drawn in
// the field.
func (s *Simulator) resolveStarts(explicit []model.Site, ids []int, days int, seed int64) ([]model.Site, error) {
	if len(explicit) > 0 {
		for _, site := range explicit {
			if len(s.cat.Zones().Sites(site.Zone)) == 0 {
				return nil, fmt.Errorf("starting site %d: zone %q not in catalog", site.ID, site.Zone)
			}
		}
		return explicit, nil
	}
	if len(ids) > 0 {
		starts := make([]model.Site, 0, len(ids))
		for _, id := range ids {
			site, ok := s.cat.Site(id)
			if !ok {
				return nil, fmt.Errorf("unknown start site id %d", id)
			}
			starts = append(starts, site)
		}
		return starts, nil
	}
	zones := s.cat.Zones().Zones()
	if len(zones) == 0 {
		return nil, errors.New("catalog has no zones")
	}
	rng := rand.New(rand.NewSource(seed))
	starts := make([]model.Site, 0, days)
	for d := 0; d < days; d++ {
		zone := zones[rng.Intn(len(zones))]
		sites := s.cat.Zones().Sites(zone)
		starts = append(starts, sites[rng.Intn(len(sites))])
	}
	return starts, nil
}

// Standings ranks agents by total collected value, name as tie-break.
func Standings(results []model.AgentResult) []model.Standing {
	out := make([]model.Standing, len(results))
	for i, r := range results {
		out[i] = model.Standing{
			Name:       r.Agent.Name,
			Strategy:   r.Agent.Strategy,
			TotalValue: r.TotalValue,
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalValue != out[j].TotalValue {
			return out[i].TotalValue > out[j].TotalValue
		}
		return out[i].Name < out[j].Name
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
