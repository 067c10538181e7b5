package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"fieldnav/internal/model"
)

var ErrNoZone = errors.New("coordinates outside all zone bounds")

// LoadBoundsCSV reads rectangular zone boundaries with header
// zone,lat_min,lat_max,lon_min,lon_max.
func LoadBoundsCSV(r io.Reader) ([]model.ZoneBounds, error) {
	rd := csv.NewReader(r)
	rd.TrimLeadingSpace = true
	header, err := rd.Read()
	if err != nil {
		return nil, fmt.Errorf("bounds: read header: %w", err)
	}
	col := map[string]int{}
	for i, h := range header {
		col[h] = i
	}
	for _, want := range []string{"zone", "lat_min", "lat_max", "lon_min", "lon_max"} {
		if _, ok := col[want]; !ok {
			return nil, fmt.Errorf("bounds: missing column %q", want)
		}
	}
	var out []model.ZoneBounds
	line := 1
	for {
		rec, err := rd.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("bounds: line %d: %w", line+1, err)
		}
		line++
		b := model.ZoneBounds{Zone: rec[col["zone"]]}
		fields := []struct {
			name string
			dst  *float64
		}{
			{"lat_min", &b.LatMin}, {"lat_max", &b.LatMax},
			{"lon_min", &b.LonMin}, {"lon_max", &b.LonMax},
		}
		for _, f := range fields {
			v, err := strconv.ParseFloat(rec[col[f.name]], 64)
			if err != nil {
				return nil, fmt.Errorf("bounds: line %d: %s: %w", line, f.name, err)
			}
			*f.dst = v
		}
		out = append(out, b)
	}
	return out, nil
}

// FindZone returns the first zone whose bounds contain the coordinates.
func FindZone(bounds []model.ZoneBounds, lat, lon float64) (string, bool) {
	for _, b := range bounds {
		if b.Contains(lat, lon) {
			return b.Zone, true
		}
	}
	return "", false
}

// LoadStartingPointsCSV reads raw daily starting coordinates with header
// id,lat,lon and mints one starting site per row via StartingSite.
func LoadStartingPointsCSV(r io.Reader, bounds []model.ZoneBounds) ([]model.Site, error) {
	rd := csv.NewReader(r)
	rd.TrimLeadingSpace = true
	header, err := rd.Read()
	if err != nil {
		return nil, fmt.Errorf("starting points: read header: %w", err)
	}
	col := map[string]int{}
	for i, h := range header {
		col[h] = i
	}
	for _, want := range []string{"id", "lat", "lon"} {
		if _, ok := col[want]; !ok {
			return nil, fmt.Errorf("starting points: missing column %q", want)
		}
	}
	var out []model.Site
	line := 1
	for {
		rec, err := rd.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("starting points: line %d: %w", line+1, err)
		}
		line++
		id, err := strconv.Atoi(rec[col["id"]])
		if err != nil {
			return nil, fmt.Errorf("starting points: line %d: id: %w", line, err)
		}
		lat, err := strconv.ParseFloat(rec[col["lat"]], 64)
		if err != nil {
			return nil, fmt.Errorf("starting points: line %d: lat: %w", line, err)
		}
		lon, err := strconv.ParseFloat(rec[col["lon"]], 64)
		if err != nil {
			return nil, fmt.Errorf("starting points: line %d: lon: %w", line, err)
		}
		site, err := StartingSite(id, lat, lon, bounds)
		if err != nil {
			return nil, fmt.Errorf("starting points: line %d: %w", line, err)
		}
		out = append(out, site)
	}
	return out, nil
}

// StartingSite mints a zero-reward site at raw coordinates, resolving its zone
// through the bounds. Coordinates outside every zone are an error rather than
// being silently assigned a default zone.
func StartingSite(id int, lat, lon float64, bounds []model.ZoneBounds) (model.Site, error) {
	zone, ok := FindZone(bounds, lat, lon)
	if !ok {
		return model.Site{}, fmt.Errorf("starting site %d at (%v, %v): %w", id, lat, lon, ErrNoZone)
	}
	s := model.Site{ID: id, Lat: lat, Lon: lon, Category: "starting_point", Zone: zone}
	if err := validateSite(s); err != nil {
		return model.Site{}, err
	}
	return s, nil
}
