package api

import (
	"fmt"

	"fieldnav/internal/model"
	"fieldnav/internal/opt"
)

func validateSimulateRequest(req *model.SimulateRequest) error {
	if req.StartSiteID == 0 {
		return fmt.Errorf("startSiteId is required")
	}
	if _, err := opt.ParseStrategy(req.Strategy); err != nil {
		return err
	}
	return nil
}

func validateCompetitionRequest(req *model.CompetitionRequest) error {
	if len(req.Agents) == 0 {
		return fmt.Errorf("agents must be non-empty")
	}
	if req.Days < 0 || req.Days > 365 {
		return fmt.Errorf("days must be in 0..365")
	}
	seen := map[string]struct{}{}
	for i, a := range req.Agents {
		if a.Name == "" {
			return fmt.Errorf("agent %d: name is required", i)
		}
		if _, dup := seen[a.Name]; dup {
			return fmt.Errorf("agent %d: duplicate name %q", i, a.Name)
		}
		seen[a.Name] = struct{}{}
		if _, err := opt.ParseStrategy(a.Strategy); err != nil {
			return fmt.Errorf("agent %q: %w", a.Name, err)
		}
	}
	return nil
}
