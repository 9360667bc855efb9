package domain

import "strings"

// zoningPermitPrefix is the city's identifier convention for zoning permits.
// A ZP record describing a multi-family project is presumed significant even
// when no unit count can be extracted.
const zoningPermitPrefix = "ZP-"

// NeighborhoodMatcher resolves a coordinate pair to a neighborhood name.
// Implemented by geo.Matcher; the ok result is false when no boundary
// contains the point.
type NeighborhoodMatcher interface {
	MatchNeighborhood(lon, lat float64) (string, bool)
}

// Enricher derives unit counts and neighborhoods for raw records. A nil
// matcher disables geographic enrichment; unit derivation still runs.
// Enrichers are stateless after construction and safe for concurrent use.
type Enricher struct {
	matcher NeighborhoodMatcher

	// extract is swappable so tests can verify it is never invoked when the
	// source field is authoritative.
	extract func(string) UnitCount
}

// NewEnricher creates an Enricher using the standard text extractor.
func NewEnricher(matcher NeighborhoodMatcher) *Enricher {
	return &Enricher{matcher: matcher, extract: ExtractUnitCount}
}

// Enrich produces an EnrichedRecord without mutating the input.
//
// Unit derivation, in priority order: a populated source field is
// authoritative and suppresses extraction entirely; otherwise extraction runs
// over the primary narrative, then the secondary description; otherwise a
// zoning permit whose narrative mentions "multi-family" is marked
// UnknownMultiFamily; otherwise the count stays unset.
//
// Neighborhood matching is independent of unit derivation and is skipped
// without error when coordinates are absent.
func (e *Enricher) Enrich(raw RawRecord) EnrichedRecord {
	rec := EnrichedRecord{RawRecord: raw}

	switch {
	case raw.NumberOfUnits != 0:
		rec.Units = Known(raw.NumberOfUnits)
		rec.UnitsSource = UnitsFromField
	default:
		units := e.extract(raw.Narrative)
		if !units.IsSet() {
			units = e.extract(raw.Description)
		}
		switch {
		case units.IsSet():
			rec.Units = units
			rec.UnitsSource = UnitsExtracted
		case strings.HasPrefix(raw.ID, zoningPermitPrefix) &&
			strings.Contains(strings.ToLower(raw.Narrative), "multi-family"):
			rec.Units = UnknownMultiFamily()
			rec.UnitsSource = UnitsZoningMultiFamily
		default:
			rec.Units = Unset()
			rec.UnitsSource = UnitsUnknown
		}
	}

	if e.matcher != nil && raw.HasCoordinates() {
		if name, ok := e.matcher.MatchNeighborhood(raw.Lon, raw.Lat); ok {
			rec.Neighborhood = name
		}
	}

	return rec
}

// EnrichAll enriches records in order.
func (e *Enricher) EnrichAll(raws []RawRecord) []EnrichedRecord {
	out := make([]EnrichedRecord, len(raws))
	for i, raw := range raws {
		out[i] = e.Enrich(raw)
	}
	return out
}

// FilterByMinUnits drops records below the unit threshold. Unset counts are
// always dropped; unknown-multi-family records are always kept regardless of
// threshold, since they are presumptively large projects.
func FilterByMinUnits(records []EnrichedRecord, minUnits int) []EnrichedRecord {
	out := make([]EnrichedRecord, 0, len(records))
	for _, rec := range records {
		if rec.Units.IsMultiFamily() {
			out = append(out, rec)
			continue
		}
		if n, ok := rec.Units.Value(); ok && n >= minUnits {
			out = append(out, rec)
		}
	}
	return out
}
