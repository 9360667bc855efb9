package domain

import (
	"sort"
	"strconv"
)

// UnknownDistrict is the grouping key for records with no council district.
const UnknownDistrict = "Unknown"

// DistrictGroups is an ordered grouping of enriched records by council
// district. Each group preserves the records' relative input order. Built
// once per call; no shared state survives between digest runs.
type DistrictGroups struct {
	keys   []string
	groups map[string][]EnrichedRecord
}

// GroupByDistrict groups records by their council district attribute,
// substituting UnknownDistrict for an empty one.
func GroupByDistrict(records []EnrichedRecord) *DistrictGroups {
	g := &DistrictGroups{groups: make(map[string][]EnrichedRecord)}

	for _, rec := range records {
		key := rec.CouncilDistrict
		if key == "" {
			key = UnknownDistrict
		}
		if _, seen := g.groups[key]; !seen {
			g.keys = append(g.keys, key)
		}
		g.groups[key] = append(g.groups[key], rec)
	}

	sortDistricts(g.keys)
	return g
}

// sortDistricts orders numeric keys ascending by value with every non-numeric
// key (typically "Unknown") after them. Non-numeric keys keep their relative
// first-seen order.
func sortDistricts(keys []string) {
	sort.SliceStable(keys, func(i, j int) bool {
		ni, errI := strconv.Atoi(keys[i])
		nj, errJ := strconv.Atoi(keys[j])
		switch {
		case errI == nil && errJ == nil:
			return ni < nj
		case errI == nil:
			return true
		case errJ == nil:
			return false
		default:
			return false
		}
	})
}

// Districts returns the ordered group keys.
func (g *DistrictGroups) Districts() []string { return g.keys }

// Records returns the group for a district, nil if the district has none.
func (g *DistrictGroups) Records(district string) []EnrichedRecord {
	return g.groups[district]
}

// Len returns the total record count across all groups.
func (g *DistrictGroups) Len() int {
	n := 0
	for _, recs := range g.groups {
		n += len(recs)
	}
	return n
}

// LargestProject is the digest's highlighted record: the single largest
// known unit count across the combined permit and appeal pool.
type LargestProject struct {
	Units    int
	Address  string
	District string
	// Kind is the display label: "by-right permit" or "variance application".
	Kind string
}

// Largest selects the record with the greatest known unit count from the
// combined pool. Only Known counts compete; Unset and UnknownMultiFamily are
// excluded. Ties go to the earliest record in pool order. ok is false when
// no record has a known count.
func Largest(pool []EnrichedRecord) (LargestProject, bool) {
	var best LargestProject
	found := false

	for _, rec := range pool {
		n, ok := rec.Units.Value()
		if !ok {
			continue
		}
		if !found || n > best.Units {
			best = LargestProject{
				Units:    n,
				Address:  rec.Address,
				District: rec.CouncilDistrict,
				Kind:     projectKind(rec.Kind),
			}
			found = true
		}
	}

	return best, found
}

func projectKind(kind RecordKind) string {
	if kind == KindAppeal {
		return "variance application"
	}
	return "by-right permit"
}
