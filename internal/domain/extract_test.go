package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractUnitCount(t *testing.T) {
	tests := []struct {
		name string
		text string
		want UnitCount
	}{
		{"empty string", "", Unset()},
		{"no unit language", "install new HVAC system on roof", Unset()},
		{"numeric unit", "construction of a 19 unit apartment building", Known(19)},
		{"numeric units plural", "erect 6 units over commercial space", Known(6)},
		{"parenthesized dwelling", "new (8) dwelling units per plans", Known(8)},
		{"hyphenated unit", "requesting a 12-unit multi-family dwelling", Known(12)},
		{"numeric family", "convert to 8-family household living", Known(8)},
		{"numeric family spaced", "19 family dwelling as per zoning approval", Known(19)},
		{"word number single", "single family home", Known(1)},
		{"word number distant keyword", "eight separate residential dwelling units", Known(8)},
		{"double counts as two", "double occupancy family structure", Known(2)},
		{"quad counts as four", "quad unit conversion", Known(4)},
		{"word number without keyword", "three story commercial building", Unset()},
		{"uppercase input", "FOUR (4) FAMILY DWELLING", Known(4)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractUnitCount(tt.text))
		})
	}
}

// The maximum candidate wins when heuristics disagree: "single" contributes 1
// but the explicit 12 dominates.
func TestExtractUnitCount_MaxCandidateWins(t *testing.T) {
	got := ExtractUnitCount("requesting a 12-unit multi-family dwelling on a single lot")
	assert.Equal(t, Known(12), got)

	got = ExtractUnitCount("demolish 2 unit structure, erect twenty unit building")
	assert.Equal(t, Known(20), got)
}

func TestUnitCount_States(t *testing.T) {
	n, ok := Known(7).Value()
	assert.True(t, ok)
	assert.Equal(t, 7, n)
	assert.True(t, Known(7).IsSet())

	_, ok = UnknownMultiFamily().Value()
	assert.False(t, ok)
	assert.True(t, UnknownMultiFamily().IsMultiFamily())
	assert.True(t, UnknownMultiFamily().IsSet())
	assert.Equal(t, "Unknown (Multi-Family)", UnknownMultiFamily().String())

	assert.False(t, Unset().IsSet())
	assert.False(t, Unset().IsMultiFamily())
}

func TestUnitCount_MarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		u    UnitCount
		want string
	}{
		{"known", Known(12), "12"},
		{"multi-family", UnknownMultiFamily(), `"Unknown (Multi-Family)"`},
		{"unset", Unset(), "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := tt.u.MarshalJSON()
			assert.NoError(t, err)
			assert.Equal(t, tt.want, string(data))
		})
	}
}
