package domain

import (
	"encoding/json"
	"strconv"
)

// UnitsSource records how a unit count was determined.
type UnitsSource string

const (
	// UnitsFromField means the source's numeric field was populated.
	UnitsFromField UnitsSource = "field"
	// UnitsExtracted means the count was mined from narrative text.
	UnitsExtracted UnitsSource = "extracted"
	// UnitsZoningMultiFamily marks a zoning permit describing a multi-family
	// project whose exact count is unknown.
	UnitsZoningMultiFamily UnitsSource = "zoning_multifamily"
	// UnitsUnknown means no count could be determined.
	UnitsUnknown UnitsSource = "unknown"
)

type unitCountKind int

const (
	unitUnset unitCountKind = iota
	unitKnown
	unitMultiFamily
)

// UnitCount is a residential unit count with three states: a known integer,
// a known-multi-family-but-uncounted marker, and unset. The zero value is
// unset. It replaces the upstream convention of mixing integers with the
// string "Unknown (Multi-Family)" in a single field.
type UnitCount struct {
	kind unitCountKind
	n    int
}

// Known returns a UnitCount carrying an exact count.
func Known(n int) UnitCount { return UnitCount{kind: unitKnown, n: n} }

// UnknownMultiFamily returns the marker for multi-family projects whose
// unit count could not be determined.
func UnknownMultiFamily() UnitCount { return UnitCount{kind: unitMultiFamily} }

// Unset returns the zero UnitCount.
func Unset() UnitCount { return UnitCount{} }

// Value returns the exact count and true when the count is known.
func (u UnitCount) Value() (int, bool) {
	return u.n, u.kind == unitKnown
}

// IsMultiFamily reports whether this is the unknown-multi-family marker.
func (u UnitCount) IsMultiFamily() bool { return u.kind == unitMultiFamily }

// IsSet reports whether any count state was determined.
func (u UnitCount) IsSet() bool { return u.kind != unitUnset }

// String renders the count the way digests display it.
func (u UnitCount) String() string {
	switch u.kind {
	case unitKnown:
		return strconv.Itoa(u.n)
	case unitMultiFamily:
		return "Unknown (Multi-Family)"
	default:
		return "N/A"
	}
}

// MarshalJSON emits the known count as a number, the multi-family marker as
// its display string, and unset as null. This is the wire shape the archive
// and event sinks publish.
func (u UnitCount) MarshalJSON() ([]byte, error) {
	switch u.kind {
	case unitKnown:
		return json.Marshal(u.n)
	case unitMultiFamily:
		return json.Marshal(u.String())
	default:
		return []byte("null"), nil
	}
}
