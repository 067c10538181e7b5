package catalog

import "fieldnav/internal/model"

// ZoneIndex groups sites by zone, preserving catalog insertion order.
// Built once at catalog construction and read-only afterwards, so concurrent
// searches share it without locking.
type ZoneIndex struct {
	byZone map[string][]model.Site
	order  []string
}

func NewZoneIndex(sites []model.Site) *ZoneIndex {
	ix := &ZoneIndex{byZone: map[string][]model.Site{}}
	for _, s := range sites {
		if _, seen := ix.byZone[s.Zone]; !seen {
			ix.order = append(ix.order, s.Zone)
		}
		ix.byZone[s.Zone] = append(ix.byZone[s.Zone], s)
	}
	return ix
}

// Zones returns zone identifiers in first-seen order.
func (ix *ZoneIndex) Zones() []string { return ix.order }

// Sites returns the sites of one zone; nil for an unknown zone.
func (ix *ZoneIndex) Sites(zone string) []model.Site { return ix.byZone[zone] }

// Candidates returns the zone's sites excluding excludeID, typically the
// starting site. The result is a fresh slice the caller may mutate.
func (ix *ZoneIndex) Candidates(zone string, excludeID int) []model.Site {
	in := ix.byZone[zone]
	out := make([]model.Site, 0, len(in))
	for _, s := range in {
		if s.ID != excludeID {
			out = append(out, s)
		}
	}
	return out
}
