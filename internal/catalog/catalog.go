// Package catalog loads and validates the site catalog and answers
// zone-scoped candidate lookups for the optimizer.
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"fieldnav/internal/model"
)

var ErrInvalidSite = errors.New("invalid site")

// Catalog owns the immutable site list for the process lifetime.
type Catalog struct {
	sites []model.Site
	byID  map[int]model.Site
	zones *ZoneIndex
}

// New validates the given sites and builds the catalog plus its zone index.
// Malformed records are rejected here so the search strategies never see them.
func New(sites []model.Site) (*Catalog, error) {
	byID := make(map[int]model.Site, len(sites))
	for i, s := range sites {
		if err := validateSite(s); err != nil {
			return nil, fmt.Errorf("catalog: record %d (id=%d): %w", i, s.ID, err)
		}
		if _, dup := byID[s.ID]; dup {
			return nil, fmt.Errorf("catalog: record %d: duplicate id %d: %w", i, s.ID, ErrInvalidSite)
		}
		byID[s.ID] = s
	}
	cp := make([]model.Site, len(sites))
	copy(cp, sites)
	return &Catalog{sites: cp, byID: byID, zones: NewZoneIndex(cp)}, nil
}

func validateSite(s model.Site) error {
	if math.IsNaN(s.Lat) || math.IsInf(s.Lat, 0) || math.IsNaN(s.Lon) || math.IsInf(s.Lon, 0) {
		return fmt.Errorf("non-finite coordinates: %w", ErrInvalidSite)
	}
	if s.Lat < -90 || s.Lat > 90 || s.Lon < -180 || s.Lon > 180 {
		return fmt.Errorf("coordinates out of range (%v, %v): %w", s.Lat, s.Lon, ErrInvalidSite)
	}
	if math.IsNaN(s.Reward) || s.Reward < 0 {
		return fmt.Errorf("negative reward %v: %w", s.Reward, ErrInvalidSite)
	}
	if s.Zone == "" {
		return fmt.Errorf("empty zone: %w", ErrInvalidSite)
	}
	return nil
}

func (c *Catalog) Sites() []model.Site { return c.sites }

func (c *Catalog) Len() int { return len(c.sites) }

func (c *Catalog) Site(id int) (model.Site, bool) {
	s, ok := c.byID[id]
	return s, ok
}

func (c *Catalog) Zones() *ZoneIndex { return c.zones }

// ZoneSummaries aggregates site counts and total reward per zone, in
// first-seen zone order.
func (c *Catalog) ZoneSummaries() []model.ZoneSummary {
	out := make([]model.ZoneSummary, 0, len(c.zones.order))
	for _, z := range c.zones.order {
		sum := model.ZoneSummary{Zone: z}
		for _, s := range c.zones.byZone[z] {
			sum.Sites++
			sum.TotalReward += s.Reward
		}
		out = append(out, sum)
	}
	return out
}

// LoadCSV reads a site catalog with header id,lat,lon,category,reward,zone.
// Column order follows the header, so extra columns are ignored.
func LoadCSV(r io.Reader) (*Catalog, error) {
	rd := csv.NewReader(r)
	rd.TrimLeadingSpace = true
	header, err := rd.Read()
	if err != nil {
		return nil, fmt.Errorf("catalog: read header: %w", err)
	}
	col := map[string]int{}
	for i, h := range header {
		col[h] = i
	}
	for _, want := range []string{"id", "lat", "lon", "reward", "zone"} {
		if _, ok := col[want]; !ok {
			return nil, fmt.Errorf("catalog: missing column %q", want)
		}
	}
	var sites []model.Site
	line := 1
	for {
		rec, err := rd.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("catalog: line %d: %w", line+1, err)
		}
		line++
		s, err := parseSite(rec, col)
		if err != nil {
			return nil, fmt.Errorf("catalog: line %d: %w", line, err)
		}
		sites = append(sites, s)
	}
	return New(sites)
}

func parseSite(rec []string, col map[string]int) (model.Site, error) {
	var s model.Site
	id, err := strconv.Atoi(rec[col["id"]])
	if err != nil {
		return s, fmt.Errorf("id: %w", err)
	}
	lat, err := strconv.ParseFloat(rec[col["lat"]], 64)
	if err != nil {
		return s, fmt.Errorf("lat: %w", err)
	}
	lon, err := strconv.ParseFloat(rec[col["lon"]], 64)
	if err != nil {
		return s, fmt.Errorf("lon: %w", err)
	}
	reward, err := strconv.ParseFloat(rec[col["reward"]], 64)
	if err != nil {
		return s, fmt.Errorf("reward: %w", err)
	}
	s = model.Site{ID: id, Lat: lat, Lon: lon, Reward: reward, Zone: rec[col["zone"]]}
	if i, ok := col["category"]; ok && i < len(rec) {
		s.Category = rec[i]
	}
	return s, nil
}
