// Package domain models Philadelphia construction-permit and zoning-appeal
// records and the derivations the development digest needs: unit counts,
// duplicates, district grouping, and feed freshness.
//
// # Data Source
//
// Records come from the city's Licenses & Inspections open data, served by
// ArcGIS FeatureServer endpoints (PERMITS and APPEALS layers). The adapter
// layer flattens feature attributes into [RawRecord] values; this package
// never talks to the network.
//
// # Field Conventions
//
// Identifiers:
//
//	permitnumber / appealnumber. Unique per record but repeated across
//	submissions of the same permit, which is why [Dedup] exists. Zoning
//	permits use a "ZP-" prefix; see the multi-family rule below.
//
// Timestamps:
//
//	permitissuedate / createddate arrive as ISO-8601-like strings in a
//	uniform format and timezone per source. Dedup relies on lexical
//	comparison of those strings and does not parse them.
//
// Narratives:
//
//	approvedscopeofwork / appealgrounds are inconsistent free text. Unit
//	counts appear in forms like "19 unit", "(8) dwelling units", "8-family",
//	"eight family dwelling". [ExtractUnitCount] recognizes exactly that
//	small vocabulary — digits adjacent to unit/dwelling/family/household,
//	plus word-numbers single through twenty and double/triple/quad — and is
//	not a general language system.
//
// Unit counts:
//
//	numberofunits, when populated and non-zero, is authoritative: extraction
//	is never attempted and units_source is "field". Counts derived from text
//	are "extracted". A ZP- permit whose scope mentions "multi-family" but
//	yields no count is flagged [UnknownMultiFamily] ("zoning_multifamily")
//	and always survives threshold filtering, since such projects are
//	presumptively significant.
//
// Council districts:
//
//	council_district is a pass-through political-geography attribute, "1"
//	through "10" or empty. Grouping substitutes "Unknown" for empty and
//	sorts it after the numeric districts.
//
// # Freshness
//
// The city pauses publishing around holidays and outages. [CheckFreshness]
// compares each feed's most recent timestamp against the current time in UTC
// and raises an accumulated warning, never an error, when a feed is more than
// the configured number of whole days old.
package domain
