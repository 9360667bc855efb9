// Package geo classifies coordinates into named neighborhood boundaries and
// filters enriched records by geography.
package geo

import (
	"errors"
	"math"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/jongeeting/development-digest/internal/domain"
)

// Citywide is the sentinel filter value meaning "no geographic filtering".
// Matched case-insensitively.
const Citywide = "citywide"

// Point is a lon/lat coordinate in the boundary data's coordinate system.
// No reprojection happens at match time; inputs must already share the CRS.
type Point struct {
	Lon float64
	Lat float64
}

// Feature is one named boundary: a set of rings, where multipolygon parts and
// interior holes are all flattened into the ring list. Names are not
// guaranteed unique across features.
type Feature struct {
	Name  string
	Rings [][]Point
}

// polygon is a loaded Feature plus its precomputed bounding box.
type polygon struct {
	name  string
	rings [][]Point

	minLon, minLat float64
	maxLon, maxLat float64
}

// Matcher resolves coordinates to neighborhood names via point-in-polygon
// testing. It is immutable after construction and safe for concurrent use;
// the instrumentation counters are atomic.
type Matcher struct {
	polygons []polygon

	bboxRejects      atomic.Int64
	containmentTests atomic.Int64
	matches          atomic.Int64
}

// Stats counts matcher work since construction, mainly for logging and tests.
type Stats struct {
	BBoxRejects      int64
	ContainmentTests int64
	Matches          int64
}

// ErrNoBoundaries is returned when a matcher would have nothing to match
// against. Enrichment cannot proceed without boundary data, so construction
// fails instead of silently matching nothing.
var ErrNoBoundaries = errors.New("geo: no boundary polygons loaded")

// NewMatcher builds a matcher over the given boundary features, precomputing
// each polygon's bounding box. Polygons are tested in the order given; when
// boundaries overlap, the first containing polygon wins.
func NewMatcher(features []Feature) (*Matcher, error) {
	if len(features) == 0 {
		return nil, ErrNoBoundaries
	}

	m := &Matcher{polygons: make([]polygon, 0, len(features))}
	for _, f := range features {
		p := polygon{
			name:   f.Name,
			rings:  f.Rings,
			minLon: math.MaxFloat64, minLat: math.MaxFloat64,
			maxLon: -math.MaxFloat64, maxLat: -math.MaxFloat64,
		}
		for _, ring := range f.Rings {
			for _, pt := range ring {
				p.minLon = math.Min(p.minLon, pt.Lon)
				p.maxLon = math.Max(p.maxLon, pt.Lon)
				p.minLat = math.Min(p.minLat, pt.Lat)
				p.maxLat = math.Max(p.maxLat, pt.Lat)
			}
		}
		m.polygons = append(m.polygons, p)
	}
	return m, nil
}

// NewMatcherFromFile loads boundaries from a GeoJSON feature collection or an
// ESRI shapefile, selected by extension.
func NewMatcherFromFile(path string) (*Matcher, error) {
	var (
		features []Feature
		err      error
	)
	if strings.HasSuffix(strings.ToLower(path), ".shp") {
		features, err = LoadShapefile(path, defaultNameField)
	} else {
		features, err = LoadGeoJSONFile(path)
	}
	if err != nil {
		return nil, err
	}
	return NewMatcher(features)
}

// Len returns the number of loaded boundary polygons.
func (m *Matcher) Len() int { return len(m.polygons) }

// MatchNeighborhood returns the name of the first polygon, in load order,
// containing the point. Missing or zero coordinates never match. Each
// candidate polygon's bounding box is tested first; the exact containment
// test runs only for points inside the box.
//
// Containment uses even-odd ray casting across a feature's rings, so interior
// holes exclude and disjoint multipolygon parts include. Points exactly on a
// boundary edge follow the ray-casting convention and are not guaranteed to
// match either neighbor.
func (m *Matcher) MatchNeighborhood(lon, lat float64) (string, bool) {
	if lon == 0 || lat == 0 {
		return "", false
	}

	for i := range m.polygons {
		p := &m.polygons[i]
		if lon < p.minLon || lon > p.maxLon || lat < p.minLat || lat > p.maxLat {
			m.bboxRejects.Add(1)
			continue
		}
		m.containmentTests.Add(1)
		if p.contains(lon, lat) {
			m.matches.Add(1)
			return p.name, true
		}
	}
	return "", false
}

// Stats returns a snapshot of the instrumentation counters.
func (m *Matcher) Stats() Stats {
	return Stats{
		BBoxRejects:      m.bboxRejects.Load(),
		ContainmentTests: m.containmentTests.Load(),
		Matches:          m.matches.Load(),
	}
}

// contains applies the even-odd rule over all rings: a point inside an odd
// number of rings is inside the feature.
func (p *polygon) contains(lon, lat float64) bool {
	inside := false
	for _, ring := range p.rings {
		if pointInRing(lon, lat, ring) {
			inside = !inside
		}
	}
	return inside
}

// pointInRing is the standard ray-casting test. Rings need not repeat the
// first vertex at the end; the loop closes itself.
func pointInRing(lon, lat float64, ring []Point) bool {
	inside := false
	j := len(ring) - 1
	for i := 0; i < len(ring); i++ {
		yi, xi := ring[i].Lat, ring[i].Lon
		yj, xj := ring[j].Lat, ring[j].Lon
		if ((yi > lat) != (yj > lat)) && (lon < (xj-xi)*(lat-yi)/(yj-yi)+xi) {
			inside = !inside
		}
		j = i
	}
	return inside
}

// FilterByNeighborhoods keeps records whose matched neighborhood is in names.
// An empty list or a Citywide entry disables filtering.
func FilterByNeighborhoods(records []domain.EnrichedRecord, names []string) []domain.EnrichedRecord {
	if passesAll(names) {
		return records
	}
	wanted := make(map[string]struct{}, len(names))
	for _, n := range names {
		wanted[n] = struct{}{}
	}
	out := make([]domain.EnrichedRecord, 0, len(records))
	for _, rec := range records {
		if _, ok := wanted[rec.Neighborhood]; ok {
			out = append(out, rec)
		}
	}
	return out
}

// FilterByDistricts keeps records whose council_district attribute is in
// districts. The district is the source's pass-through field, not a matcher
// product. An empty list or a Citywide entry disables filtering.
func FilterByDistricts(records []domain.EnrichedRecord, districts []string) []domain.EnrichedRecord {
	if passesAll(districts) {
		return records
	}
	wanted := make(map[string]struct{}, len(districts))
	for _, d := range districts {
		wanted[d] = struct{}{}
	}
	out := make([]domain.EnrichedRecord, 0, len(records))
	for _, rec := range records {
		if _, ok := wanted[rec.CouncilDistrict]; ok {
			out = append(out, rec)
		}
	}
	return out
}

func passesAll(values []string) bool {
	if len(values) == 0 {
		return true
	}
	for _, v := range values {
		if strings.EqualFold(v, Citywide) {
			return true
		}
	}
	return false
}

// UniqueNeighborhoods returns the sorted distinct neighborhoods present in
// records, skipping unmatched ones.
func UniqueNeighborhoods(records []domain.EnrichedRecord) []string {
	return uniqueSorted(records, func(r domain.EnrichedRecord) string { return r.Neighborhood })
}

// UniqueDistricts returns the sorted distinct council districts present in
// records, skipping empty ones.
func UniqueDistricts(records []domain.EnrichedRecord) []string {
	return uniqueSorted(records, func(r domain.EnrichedRecord) string { return r.CouncilDistrict })
}

func uniqueSorted(records []domain.EnrichedRecord, key func(domain.EnrichedRecord) string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, rec := range records {
		k := key(rec)
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
