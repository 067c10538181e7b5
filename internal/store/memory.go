package store

import (
	"context"
	"sync"

	"fieldnav/internal/model"
)

// Memory is a simple in-memory store used when no DATABASE_URL is set.
type Memory struct {
	mu    sync.Mutex
	comps map[string]model.Competition // id -> competition
	byTen map[string][]string          // tenant -> competition ids, insertion order
}

func NewMemory() *Memory {
	return &Memory{
		comps: map[string]model.Competition{},
		byTen: map[string][]string{},
	}
}

func (m *Memory) SaveCompetition(ctx context.Context, comp model.Competition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.comps[comp.ID]; !exists {
		m.byTen[comp.TenantID] = append(m.byTen[comp.TenantID], comp.ID)
	}
	m.comps[comp.ID] = comp
	return nil
}

func (m *Memory) GetCompetition(ctx context.Context, tenantID, id string) (model.Competition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.comps[id]
	if !ok || c.TenantID != tenantID {
		return model.Competition{}, ErrNotFound
	}
	return c, nil
}

func (m *Memory) ListCompetitions(ctx context.Context, tenantID, cursor string, limit int) ([]model.Competition, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := m.byTen[tenantID]
	start := 0
	if cursor != "" {
		for i, id := range ids {
			if id == cursor {
				start = i + 1
				break
			}
		}
	}
	if limit <= 0 {
		limit = 100
	}
	out := []model.Competition{}
	var next string
	for i := start; i < len(ids) && len(out) < limit; i++ {
		out = append(out, m.comps[ids[i]])
		next = ids[i]
	}
	if start+len(out) >= len(ids) {
		next = ""
	}
	return out, next, nil
}

func (m *Memory) ListDayResults(ctx context.Context, tenantID, id, agent string) ([]model.DayResult, error) {
	c, err := m.GetCompetition(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return dayResults(c, agent), nil
}

func (m *Memory) CompetitionStats(ctx context.Context, tenantID string) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	days := 0
	bestValue := 0.0
	bestAgent := ""
	for _, id := range m.byTen[tenantID] {
		c := m.comps[id]
		days += c.Days
		if len(c.Standings) > 0 && c.Standings[0].TotalValue >= bestValue {
			bestValue = c.Standings[0].TotalValue
			bestAgent = c.Standings[0].Name
		}
	}
	return map[string]any{
		"competitions": len(m.byTen[tenantID]),
		"days":         days,
		"bestValue":    bestValue,
		"bestAgent":    bestAgent,
	}, nil
}

func (m *Memory) Ping(ctx context.Context) error { return nil }
