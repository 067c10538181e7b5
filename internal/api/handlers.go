package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"fieldnav/internal/buildinfo"
	"fieldnav/internal/catalog"
	"fieldnav/internal/metrics"
	"fieldnav/internal/model"
	"fieldnav/internal/opt"
	"fieldnav/internal/sim"
)

// CatalogHandler handles POST/GET /v1/catalog. POST replaces the active site
// catalog; JSON {"sites":[...]} or a raw CSV body (Content-Type: text/csv).
func (s *Server) CatalogHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		p := s.getPrincipal(r)
		if !p.IsAdmin() {
			writeProblem(w, http.StatusForbidden, "Forbidden", "admin required", r.URL.Path)
			return
		}
		var sites []model.Site
		if strings.HasPrefix(r.Header.Get("Content-Type"), "text/csv") {
			cat, err := catalog.LoadCSV(r.Body)
			if err != nil {
				writeProblem(w, http.StatusBadRequest, "Invalid CSV", err.Error(), r.URL.Path)
				return
			}
			sites = cat.Sites()
		} else {
			var req struct {
				Sites []model.Site `json:"sites"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
				return
			}
			sites = req.Sites
		}
		if len(sites) == 0 {
			writeProblem(w, http.StatusBadRequest, "Empty catalog", "at least one site required", r.URL.Path)
			return
		}
		if err := s.LoadCatalog(sites); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid catalog", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"sites": len(sites)})
	case http.MethodGet:
		sm, err := s.simulator(nil)
		if err != nil {
			writeProblem(w, http.StatusNotFound, "No catalog", err.Error(), r.URL.Path)
			return
		}
		cat := sm.Catalog()
		writeJSON(w, http.StatusOK, map[string]any{
			"sites": cat.Len(),
			"zones": cat.ZoneSummaries(),
		})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// ZonesHandler handles GET /v1/catalog/zones
func (s *Server) ZonesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sm, err := s.simulator(nil)
	if err != nil {
		writeProblem(w, http.StatusNotFound, "No catalog", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"zones": sm.Catalog().ZoneSummaries()})
}

// SimulateHandler handles POST /v1/simulate: one day, one agent, one start.
func (s *Server) SimulateHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req model.SimulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if err := validateSimulateRequest(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid request", err.Error(), r.URL.Path)
		return
	}
	sm, err := s.simulator(req.Config)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Simulation unavailable", err.Error(), r.URL.Path)
		return
	}
	start, ok := sm.Catalog().Site(req.StartSiteID)
	if !ok {
		writeProblem(w, http.StatusNotFound, "Unknown site", fmt.Sprintf("site %d not in catalog", req.StartSiteID), r.URL.Path)
		return
	}
	strategy, _ := opt.ParseStrategy(req.Strategy)
	t0 := time.Now()
	day := sm.SimulateDay(1, start, strategy, req.Seed)
	metrics.OptimizationDuration.WithLabelValues(string(strategy)).Observe(time.Since(t0).Seconds())
	outcome := "routed"
	if len(day.Route) == 0 {
		outcome = "empty"
	}
	metrics.OptimizationRuns.WithLabelValues(string(strategy), outcome).Inc()
	metrics.CompetitionDaysSimulated.Inc()
	writeJSON(w, http.StatusOK, day)
}

// CompetitionsHandler handles POST/GET /v1/competitions
func (s *Server) CompetitionsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		p := s.getPrincipal(r)
		if !p.CanRun() {
			writeProblem(w, http.StatusForbidden, "Forbidden", "dispatcher or admin required", r.URL.Path)
			return
		}
		var req model.CompetitionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		if err := validateCompetitionRequest(&req); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid request", err.Error(), r.URL.Path)
			return
		}
		tenant := req.TenantID
		if tenant == "" {
			tenant = p.Tenant
		}
		sm, err := s.simulator(req.Config)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Simulation unavailable", err.Error(), r.URL.Path)
			return
		}
		spec := sim.Spec{
			TenantID:     tenant,
			Days:         req.Days,
			StartSiteIDs: req.StartSiteIDs,
			Seed:         req.Seed,
			Agents:       req.Agents,
		}
		comp, err := sm.RunCompetition(spec, func(event string, data map[string]any) {
			if event == "day.completed" {
				metrics.CompetitionDaysSimulated.Inc()
			}
			s.Broker.Publish(GlobalTopic, Event{Type: event, Data: data})
		})
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Competition failed", err.Error(), r.URL.Path)
			return
		}
		for _, ar := range comp.Agents {
			outcome := "routed"
			if ar.SitesVisited == 0 {
				outcome = "empty"
			}
			metrics.OptimizationRuns.WithLabelValues(ar.Agent.Strategy, outcome).Inc()
		}
		if err := s.Store.SaveCompetition(r.Context(), comp); err != nil {
			writeProblem(w, http.StatusInternalServerError, "Save failed", err.Error(), r.URL.Path)
			return
		}
		s.Broker.Publish(comp.ID, Event{Type: "competition.finished", Data: map[string]any{
			"competitionId": comp.ID, "winner": comp.Standings[0].Name,
		}})
		if s.Hooks != nil {
			s.Hooks.Emit("competition.finished", map[string]any{
				"competitionId": comp.ID,
				"tenantId":      comp.TenantID,
				"days":          comp.Days,
				"standings":     comp.Standings,
			})
		}
		writeJSON(w, http.StatusCreated, comp)
	case http.MethodGet:
		p := s.getPrincipal(r)
		cursor := r.URL.Query().Get("cursor")
		limit := 100
		if v := r.URL.Query().Get("limit"); v != "" {
			fmt.Sscanf(v, "%d", &limit)
		}
		items, next, err := s.Store.ListCompetitions(r.Context(), p.Tenant, cursor, limit)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "List failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// CompetitionByIDHandler handles GET /v1/competitions/{id}, /{id}/standings,
// /{id}/days,
// and the SSE feeds /events/stream (global) and /{id}/events/stream.
func (s *Server) CompetitionByIDHandler(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/competitions/")
	if rest == r.URL.Path || rest == "" {
		writeProblem(w, http.StatusNotFound, "Not Found", "missing id", r.URL.Path)
		return
	}
	if rest == "events/stream" {
		s.streamSSE(w, r, GlobalTopic)
		return
	}
	parts := strings.Split(rest, "/")
	id := parts[0]
	if len(parts) > 2 && parts[1] == "events" && parts[2] == "stream" {
		s.streamSSE(w, r, id)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	p := s.getPrincipal(r)
	if len(parts) > 1 && parts[1] == "days" {
		days, err := s.Store.ListDayResults(r.Context(), p.Tenant, id, r.URL.Query().Get("agent"))
		if err != nil {
			writeProblem(w, http.StatusNotFound, "Competition not found", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"competitionId": id, "days": days})
		return
	}
	comp, err := s.Store.GetCompetition(r.Context(), p.Tenant, id)
	if err != nil {
		writeProblem(w, http.StatusNotFound, "Competition not found", err.Error(), r.URL.Path)
		return
	}
	if len(parts) > 1 && parts[1] == "standings" {
		writeJSON(w, http.StatusOK, map[string]any{"competitionId": comp.ID, "standings": comp.Standings})
		return
	}
	writeJSON(w, http.StatusOK, comp)
}

// streamSSE subscribes the client to a broker topic and relays events with
// periodic heartbeats until the request context ends.
func (s *Server) streamSSE(w http.ResponseWriter, r *http.Request, topic string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeProblem(w, http.StatusInternalServerError, "Streaming unsupported", "", r.URL.Path)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	ch := s.Broker.Subscribe(topic)
	defer s.Broker.Unsubscribe(topic, ch)
	fmt.Fprintf(w, "event: heartbeat\n")
	fmt.Fprintf(w, "data: {\"topic\":\"%s\",\"ts\":\"%s\"}\n\n", topic, time.Now().Format(time.RFC3339))
	flusher.Flush()
	notify := r.Context().Done()
	for {
		select {
		case <-notify:
			return
		case evt := <-ch:
			b, _ := json.Marshal(evt.Data)
			fmt.Fprintf(w, "event: %s\n", evt.Type)
			fmt.Fprintf(w, "data: %s\n\n", string(b))
			flusher.Flush()
		case <-time.After(15 * time.Second):
			fmt.Fprintf(w, "event: heartbeat\n")
			fmt.Fprintf(w, "data: {\"topic\":\"%s\",\"ts\":\"%s\"}\n\n", topic, time.Now().Format(time.RFC3339))
			flusher.Flush()
		}
	}
}

// StatsHandler handles GET /v1/admin/stats
func (s *Server) StatsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	p := s.getPrincipal(r)
	if !p.IsAdmin() {
		writeProblem(w, http.StatusForbidden, "Forbidden", "admin required", r.URL.Path)
		return
	}
	stats, err := s.Store.CompetitionStats(r.Context(), p.Tenant)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Stats failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// HealthHandler handles GET /healthz
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ReadyHandler handles GET /readyz; ready means the store answers a ping.
func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.Ping(r.Context()); err != nil {
		writeProblem(w, http.StatusServiceUnavailable, "Not ready", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// VersionHandler handles GET /version
func (s *Server) VersionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Info())
}
