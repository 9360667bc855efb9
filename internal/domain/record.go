package domain

// RecordKind distinguishes the two civic record streams.
type RecordKind string

const (
	KindPermit RecordKind = "permit"
	KindAppeal RecordKind = "appeal"
)

// RawRecord is a permit or zoning appeal as delivered by the open-data
// backend, normalized to a single shape. Field presence varies by source:
// permits carry NumberOfUnits and TypeOfWork, appeals carry AppealType and
// ApplicationType. Zero values mean the source omitted the field.
type RawRecord struct {
	Kind RecordKind

	// ID is permitnumber for permits and appealnumber for appeals.
	// Records without an ID are never deduplicated.
	ID string

	Address         string
	CouncilDistrict string

	PermitType      string
	TypeOfWork      string
	AppealType      string
	ApplicationType string

	// NumberOfUnits is the source's own unit count field. Zero means absent;
	// a non-zero value is authoritative and suppresses text extraction.
	NumberOfUnits int

	// Developer holds contractorname for permits and primaryappellant for appeals.
	Developer string

	// Narrative is the primary free-text field mined for unit counts:
	// approvedscopeofwork for permits, appealgrounds for appeals.
	Narrative string

	// Description is the optional secondary narrative (permitdescription).
	Description string

	// Timestamp is permitissuedate or createddate as an ISO-8601-like string.
	// Dedup compares these lexically, which assumes a uniform format and
	// timezone across a source. That holds for the city feeds and is not
	// verified here.
	Timestamp string

	// Lon and Lat locate the record for neighborhood matching. Zero means
	// the source did not geocode the record.
	Lon float64
	Lat float64
}

// HasCoordinates reports whether the record carries a usable coordinate pair.
// The backends emit 0,0 for ungeocoded records, so zero on either axis is
// treated as absent.
func (r RawRecord) HasCoordinates() bool {
	return r.Lon != 0 && r.Lat != 0
}

// EnrichedRecord is a RawRecord plus the derived unit count and neighborhood.
// Enrichment produces a new value; RawRecords are never mutated.
type EnrichedRecord struct {
	RawRecord

	Units       UnitCount
	UnitsSource UnitsSource

	// Neighborhood is empty when the record had no coordinates or no
	// boundary polygon contained them.
	Neighborhood string
}
