package store

import (
	"context"
	"errors"

	"fieldnav/internal/model"
)

// Store is the persistence interface used by the API server.
type Store interface {
	SaveCompetition(ctx context.Context, comp model.Competition) error
	GetCompetition(ctx context.Context, tenantID, id string) (model.Competition, error)
	ListCompetitions(ctx context.Context, tenantID, cursor string, limit int) ([]model.Competition, string, error)

	// ListDayResults returns the per-day results stored inside a
	// competition record, optionally filtered to one agent name.
	ListDayResults(ctx context.Context, tenantID, id, agent string) ([]model.DayResult, error)

	// CompetitionStats aggregates stored outcomes per tenant: competition
	// count, simulated days, and the best total value seen.
	CompetitionStats(ctx context.Context, tenantID string) (map[string]any, error)

	Ping(ctx context.Context) error
}

var ErrNotFound = errors.New("not found")

// dayResults flattens the day results embedded in a competition, keeping
// agent order; agent filters to one name when non-empty.
func dayResults(c model.Competition, agent string) []model.DayResult {
	out := []model.DayResult{}
	for _, ar := range c.Agents {
		if agent != "" && ar.Agent.Name != agent {
			continue
		}
		out = append(out, ar.Days...)
	}
	return out
}
