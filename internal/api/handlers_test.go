package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"fieldnav/internal/config"
	"fieldnav/internal/model"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := NewServer(config.Default())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s
}

func loadTestCatalog(t *testing.T, s *Server) {
	t.Helper()
	body, _ := json.Marshal(map[string]any{"sites": []model.Site{
		{ID: 1, Lat: 41.9028, Lon: 12.4964, Category: "retail", Reward: 120, Zone: "Z1"},
		{ID: 2, Lat: 41.9035, Lon: 12.4970, Category: "bar", Reward: 80, Zone: "Z1"},
		{ID: 3, Lat: 41.9010, Lon: 12.4950, Category: "hotel", Reward: 200, Zone: "Z1"},
		{ID: 4, Lat: 45.4642, Lon: 9.1900, Category: "retail", Reward: 150, Zone: "Z2"},
		{ID: 5, Lat: 45.4650, Lon: 9.1910, Category: "bar", Reward: 90, Zone: "Z2"},
	}})
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/catalog", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	s.CatalogHandler(rr, req)
	if rr.Code != 200 {
		t.Fatalf("catalog load: got %d body %s", rr.Code, rr.Body.String())
	}
}

func TestHealthReadyVersion(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	s.HealthHandler(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != 200 {
		t.Fatalf("health: got %d", rr.Code)
	}
	rr = httptest.NewRecorder()
	s.ReadyHandler(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != 200 {
		t.Fatalf("ready: got %d", rr.Code)
	}
	rr = httptest.NewRecorder()
	s.VersionHandler(rr, httptest.NewRequest(http.MethodGet, "/version", nil))
	if rr.Code != 200 {
		t.Fatalf("version: got %d", rr.Code)
	}
}

func TestCatalogLoadAndZones(t *testing.T) {
	s := newTestServer(t)
	// zones before any catalog is loaded
	rr := httptest.NewRecorder()
	s.ZonesHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/catalog/zones", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("zones without catalog: got %d", rr.Code)
	}
	loadTestCatalog(t, s)
	rr = httptest.NewRecorder()
	s.ZonesHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/catalog/zones", nil))
	if rr.Code != 200 {
		t.Fatalf("zones: got %d", rr.Code)
	}
	var zres struct {
		Zones []model.ZoneSummary `json:"zones"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &zres); err != nil {
		t.Fatalf("decode zones: %v", err)
	}
	if len(zres.Zones) != 2 {
		t.Fatalf("expected 2 zones, got %d", len(zres.Zones))
	}
}

func TestCatalogCSVUpload(t *testing.T) {
	s := newTestServer(t)
	csv := "id,lat,lon,category,reward,zone\n1,41.9,12.49,retail,100,Z1\n2,41.91,12.50,bar,50,Z1\n"
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/catalog", bytes.NewReader([]byte(csv)))
	req.Header.Set("Content-Type", "text/csv")
	s.CatalogHandler(rr, req)
	if rr.Code != 200 {
		t.Fatalf("csv load: got %d body %s", rr.Code, rr.Body.String())
	}
	rr = httptest.NewRecorder()
	s.CatalogHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/catalog", nil))
	if rr.Code != 200 {
		t.Fatalf("catalog get: got %d", rr.Code)
	}
}

func TestCatalogRequiresAdmin(t *testing.T) {
	s := newTestServer(t)
	body := []byte(`{"sites":[{"id":1,"lat":41.9,"lon":12.49,"reward":10,"zone":"Z1"}]}`)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/catalog", bytes.NewReader(body))
	req.Header.Set("X-Role", "viewer")
	s.CatalogHandler(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("viewer catalog load: got %d", rr.Code)
	}
}

func TestSimulate(t *testing.T) {
	s := newTestServer(t)
	loadTestCatalog(t, s)
	body := []byte(`{"tenantId":"t_test","startSiteId":1,"strategy":"greedy","seed":7}`)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/simulate", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	s.SimulateHandler(rr, req)
	if rr.Code != 200 {
		t.Fatalf("simulate: got %d body %s", rr.Code, rr.Body.String())
	}
	var day model.DayResult
	if err := json.Unmarshal(rr.Body.Bytes(), &day); err != nil {
		t.Fatalf("decode day: %v", err)
	}
	if day.Start.ID != 1 || day.Zone != "Z1" {
		t.Fatalf("unexpected day: start=%d zone=%s", day.Start.ID, day.Zone)
	}
	for _, site := range day.Route {
		if site.Zone != "Z1" {
			t.Fatalf("route left zone: site %d in %s", site.ID, site.Zone)
		}
	}
	// unknown site
	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/v1/simulate", bytes.NewReader([]byte(`{"startSiteId":999}`)))
	s.SimulateHandler(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown site: got %d", rr.Code)
	}
	// unknown strategy
	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/v1/simulate", bytes.NewReader([]byte(`{"startSiteId":1,"strategy":"annealing"}`)))
	s.SimulateHandler(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad strategy: got %d", rr.Code)
	}
}

func TestSimulateConfigOverride(t *testing.T) {
	s := newTestServer(t)
	loadTestCatalog(t, s)
	// one-minute budget leaves no feasible stop; still a valid empty day
	body := []byte(`{"startSiteId":1,"strategy":"greedy","config":{"maxTimeMinutes":1}}`)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/simulate", bytes.NewReader(body))
	s.SimulateHandler(rr, req)
	if rr.Code != 200 {
		t.Fatalf("simulate override: got %d body %s", rr.Code, rr.Body.String())
	}
	var day model.DayResult
	if err := json.Unmarshal(rr.Body.Bytes(), &day); err != nil {
		t.Fatalf("decode day: %v", err)
	}
	if len(day.Route) != 0 || day.Metrics.Value != 0 {
		t.Fatalf("expected empty route, got %d stops value %v", len(day.Route), day.Metrics.Value)
	}
}

func TestCompetitionFlow(t *testing.T) {
	s := newTestServer(t)
	loadTestCatalog(t, s)
	body := []byte(`{"tenantId":"t_test","days":2,"startSiteIds":[1,4],"seed":42,
		"agents":[{"name":"alice","strategy":"greedy"},{"name":"bob","strategy":"high_value"}]}`)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/competitions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant-Id", "t_test")
	req.Header.Set("X-Role", "admin")
	s.CompetitionsHandler(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("competition: got %d body %s", rr.Code, rr.Body.String())
	}
	var comp model.Competition
	if err := json.Unmarshal(rr.Body.Bytes(), &comp); err != nil {
		t.Fatalf("decode competition: %v", err)
	}
	if comp.ID == "" || len(comp.Agents) != 2 || len(comp.Standings) != 2 {
		t.Fatalf("unexpected competition: %+v", comp)
	}

	// list
	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/v1/competitions?limit=5", nil)
	req.Header.Set("X-Tenant-Id", "t_test")
	s.CompetitionsHandler(rr, req)
	if rr.Code != 200 {
		t.Fatalf("list: got %d", rr.Code)
	}
	var lres struct {
		Items []model.Competition `json:"items"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &lres); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(lres.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(lres.Items))
	}

	// get by id
	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/v1/competitions/"+comp.ID, nil)
	req.Header.Set("X-Tenant-Id", "t_test")
	s.CompetitionByIDHandler(rr, req)
	if rr.Code != 200 {
		t.Fatalf("get by id: got %d", rr.Code)
	}

	// per-day results
	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/v1/competitions/"+comp.ID+"/days?agent=alice", nil)
	req.Header.Set("X-Tenant-Id", "t_test")
	s.CompetitionByIDHandler(rr, req)
	if rr.Code != 200 {
		t.Fatalf("days: got %d", rr.Code)
	}
	var dres struct {
		Days []model.DayResult `json:"days"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &dres); err != nil {
		t.Fatalf("decode days: %v", err)
	}
	if len(dres.Days) != 2 {
		t.Fatalf("expected 2 alice days, got %d", len(dres.Days))
	}

	// standings
	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/v1/competitions/"+comp.ID+"/standings", nil)
	req.Header.Set("X-Tenant-Id", "t_test")
	s.CompetitionByIDHandler(rr, req)
	if rr.Code != 200 {
		t.Fatalf("standings: got %d", rr.Code)
	}

	// admin stats
	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/v1/admin/stats", nil)
	req.Header.Set("X-Tenant-Id", "t_test")
	req.Header.Set("X-Role", "admin")
	s.StatsHandler(rr, req)
	if rr.Code != 200 {
		t.Fatalf("stats: got %d", rr.Code)
	}
}

func TestCompetitionRBACAndValidation(t *testing.T) {
	s := newTestServer(t)
	loadTestCatalog(t, s)
	// viewer cannot launch
	body := []byte(`{"agents":[{"name":"a","strategy":"greedy"}]}`)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/competitions", bytes.NewReader(body))
	req.Header.Set("X-Role", "viewer")
	s.CompetitionsHandler(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("viewer launch: got %d", rr.Code)
	}
	// no agents
	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/v1/competitions", bytes.NewReader([]byte(`{"agents":[]}`)))
	s.CompetitionsHandler(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("no agents: got %d", rr.Code)
	}
	// duplicate names
	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/v1/competitions",
		bytes.NewReader([]byte(`{"agents":[{"name":"a","strategy":"greedy"},{"name":"a","strategy":"random"}]}`)))
	s.CompetitionsHandler(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("duplicate names: got %d", rr.Code)
	}
	// unknown start site
	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/v1/competitions",
		bytes.NewReader([]byte(`{"startSiteIds":[999],"agents":[{"name":"a","strategy":"greedy"}]}`)))
	s.CompetitionsHandler(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unknown start: got %d", rr.Code)
	}
}

func TestCompetitionNotFound(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/competitions/nope", nil)
	s.CompetitionByIDHandler(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("missing competition: got %d", rr.Code)
	}
	var prob Problem
	if err := json.Unmarshal(rr.Body.Bytes(), &prob); err != nil {
		t.Fatalf("decode problem: %v", err)
	}
	if prob.Type != "not-found" || prob.Status != http.StatusNotFound {
		t.Fatalf("problem = %+v", prob)
	}
}

// sseRecorder is a minimal ResponseWriter that implements http.Flusher
// and captures writes for SSE tests.
type sseRecorder struct {
	hdr  http.Header
	mu   sync.Mutex
	buf  bytes.Buffer
	code int
}

func (r *sseRecorder) Header() http.Header {
	if r.hdr == nil {
		r.hdr = http.Header{}
	}
	return r.hdr
}
func (r *sseRecorder) WriteHeader(c int) { r.code = c }
func (r *sseRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.Write(p)
}
func (r *sseRecorder) Flush() {}
func (r *sseRecorder) bytes() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]byte(nil), r.buf.Bytes()...)
}

func TestCompetitionEventsSSE(t *testing.T) {
	s := newTestServer(t)
	sseReq := httptest.NewRequest(http.MethodGet, "/v1/competitions/events/stream", nil)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	sseReq = sseReq.WithContext(ctx)

	rec := &sseRecorder{}
	done := make(chan struct{})
	go func() {
		s.CompetitionByIDHandler(rec, sseReq)
		close(done)
	}()

	// Give handler time to subscribe and send heartbeat
	time.Sleep(50 * time.Millisecond)
	s.Broker.Publish(GlobalTopic, Event{Type: "day.completed", Data: map[string]any{"agent": "alice", "day": 1}})

	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		if bytes.Contains(rec.bytes(), []byte("event: day.completed")) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if !bytes.Contains(rec.bytes(), []byte("event: day.completed")) {
		t.Fatalf("SSE did not contain expected event. Body: %s", rec.bytes())
	}
	cancel()
	select {
	case <-done:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("handler did not exit after cancel")
	}
}

func TestMiddlewareRateLimit(t *testing.T) {
	s := newTestServer(t)
	s.Cfg.Server.RateRPS = 0
	s.Cfg.Server.RateBurst = 0
	h := s.Middleware(http.HandlerFunc(s.HealthHandler))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("limited: got %d", rr.Code)
	}
	var prob Problem
	if err := json.Unmarshal(rr.Body.Bytes(), &prob); err != nil {
		t.Fatalf("decode problem: %v", err)
	}
	if prob.Type != "rate-limited" || prob.Instance != "/healthz" {
		t.Fatalf("problem = %+v", prob)
	}

	s2 := newTestServer(t)
	h2 := s2.Middleware(http.HandlerFunc(s2.HealthHandler))
	rr = httptest.NewRecorder()
	h2.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != 200 {
		t.Fatalf("allowed: got %d", rr.Code)
	}
}
