package model

// Core domain types shared by the catalog, optimizer, simulation, and API layers.

type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Site is one reward-bearing stop in the catalog. Immutable after load.
type Site struct {
	ID       int     `json:"id"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Category string  `json:"category,omitempty"`
	Reward   float64 `json:"reward"`
	Zone     string  `json:"zone"`
}

func (s Site) Point() GeoPoint { return GeoPoint{Lat: s.Lat, Lon: s.Lon} }

// ZoneBounds is a rectangular administrative zone boundary.
type ZoneBounds struct {
	Zone   string  `json:"zone"`
	LatMin float64 `json:"latMin"`
	LatMax float64 `json:"latMax"`
	LonMin float64 `json:"lonMin"`
	LonMax float64 `json:"lonMax"`
}

func (b ZoneBounds) Contains(lat, lon float64) bool {
	return b.LatMin <= lat && lat <= b.LatMax && b.LonMin <= lon && lon <= b.LonMax
}

// RouteMetrics is the derived (distance, time, value) triple for one route.
// Recomputed from scratch on every evaluation, never patched.
type RouteMetrics struct {
	DistanceKm  float64 `json:"distanceKm"`
	TimeMinutes float64 `json:"timeMinutes"`
	Value       float64 `json:"value"`
}

// DayResult packages one simulated day: where the agent started, which sites
// it visited in order, and the resulting totals. An empty route is a valid
// zero-value day, not an error.
type DayResult struct {
	Day      int          `json:"day"`
	Start    Site         `json:"start"`
	Route    []Site       `json:"route"`
	Metrics  RouteMetrics `json:"metrics"`
	Zone     string       `json:"zone"`
	Strategy string       `json:"strategy,omitempty"`
}

// AgentSpec names one competing agent and the strategy it plays.
type AgentSpec struct {
	Name     string `json:"name"`
	Strategy string `json:"strategy"`
	Seed     int64  `json:"seed,omitempty"`
}

type AgentResult struct {
	Agent            AgentSpec   `json:"agent"`
	Days             []DayResult `json:"days"`
	TotalValue       float64     `json:"totalValue"`
	TotalDistanceKm  float64     `json:"totalDistanceKm"`
	TotalTimeMinutes float64     `json:"totalTimeMinutes"`
	SitesVisited     int         `json:"sitesVisited"`
}

type Standing struct {
	Rank       int     `json:"rank"`
	Name       string  `json:"name"`
	Strategy   string  `json:"strategy"`
	TotalValue float64 `json:"totalValue"`
}

// Competition is the stored outcome of one multi-agent run.
type Competition struct {
	ID           string        `json:"id"`
	TenantID     string        `json:"tenantId"`
	Days         int           `json:"days"`
	StartSiteIDs []int         `json:"startSiteIds"`
	Agents       []AgentResult `json:"agents"`
	Standings    []Standing    `json:"standings"`
	CreatedAt    string        `json:"createdAt,omitempty"`
}

type SimulateRequest struct {
	TenantID    string           `json:"tenantId"`
	StartSiteID int              `json:"startSiteId"`
	Strategy    string           `json:"strategy,omitempty"`
	Seed        int64            `json:"seed,omitempty"`
	Config      *OptimizerConfig `json:"config,omitempty"`
}

type CompetitionRequest struct {
	TenantID     string           `json:"tenantId"`
	Days         int              `json:"days,omitempty"`
	StartSiteIDs []int            `json:"startSiteIds,omitempty"`
	Seed         int64            `json:"seed,omitempty"`
	Agents       []AgentSpec      `json:"agents"`
	Config       *OptimizerConfig `json:"config,omitempty"`
}

// OptimizerConfig overrides applied on top of the server defaults.
// Pointer fields distinguish "absent" from zero.
type OptimizerConfig struct {
	MaxTimeMinutes  *float64 `json:"maxTimeMinutes,omitempty"`
	MaxStops        *int     `json:"maxStops,omitempty"`
	DwellMinutes    *float64 `json:"dwellMinutes,omitempty"`
	WalkingSpeedKmh *float64 `json:"walkingSpeedKmh,omitempty"`
	PopulationSize  *int     `json:"populationSize,omitempty"`
	Generations     *int     `json:"generations,omitempty"`
	MutationRate    *float64 `json:"mutationRate,omitempty"`
	EliteFraction   *float64 `json:"eliteFraction,omitempty"`
}

// Read model for GET /v1/catalog/zones.
type ZoneSummary struct {
	Zone        string  `json:"zone"`
	Sites       int     `json:"sites"`
	TotalReward float64 `json:"totalReward"`
}
