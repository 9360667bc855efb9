package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func permit(id, timestamp string) RawRecord {
	return RawRecord{Kind: KindPermit, ID: id, Timestamp: timestamp}
}

func TestDedup_KeepsMaximalTimestamp(t *testing.T) {
	records := []RawRecord{
		permit("RES-2024-001", "2024-01-01"),
		permit("RES-2024-002", "2024-01-03"),
		permit("RES-2024-001", "2024-01-05"),
	}

	out := Dedup(records)

	require.Len(t, out, 2)
	assert.Equal(t, "RES-2024-001", out[0].ID)
	assert.Equal(t, "2024-01-05", out[0].Timestamp)
	assert.Equal(t, "RES-2024-002", out[1].ID)
}

func TestDedup_EarlierDuplicateDoesNotReplace(t *testing.T) {
	records := []RawRecord{
		permit("RES-2024-001", "2024-01-05"),
		permit("RES-2024-001", "2024-01-01"),
	}

	out := Dedup(records)

	require.Len(t, out, 1)
	assert.Equal(t, "2024-01-05", out[0].Timestamp)
}

func TestDedup_TieLastSeenWins(t *testing.T) {
	first := permit("ZP-2024-009", "2024-02-02")
	first.Address = "100 Main St"
	second := permit("ZP-2024-009", "2024-02-02")
	second.Address = "100 Main St Unit B"

	out := Dedup([]RawRecord{first, second})

	require.Len(t, out, 1)
	assert.Equal(t, "100 Main St Unit B", out[0].Address)
}

func TestDedup_MissingIDPassesThrough(t *testing.T) {
	records := []RawRecord{
		permit("", "2024-01-01"),
		permit("", "2024-01-01"),
		permit("RES-2024-001", "2024-01-02"),
	}

	out := Dedup(records)

	assert.Len(t, out, 3)
}

func TestDedup_AtMostOnePerIdentifier(t *testing.T) {
	records := []RawRecord{
		permit("A", "2024-01-01"),
		permit("B", "2024-01-02"),
		permit("A", "2024-01-03"),
		permit("B", "2024-01-01"),
		permit("A", "2024-01-02"),
	}

	out := Dedup(records)

	seen := map[string]string{}
	for _, rec := range out {
		_, dup := seen[rec.ID]
		assert.False(t, dup, "identifier %q appears more than once", rec.ID)
		seen[rec.ID] = rec.Timestamp
	}
	assert.Equal(t, "2024-01-03", seen["A"])
	assert.Equal(t, "2024-01-02", seen["B"])
}

func TestDedup_Empty(t *testing.T) {
	assert.Empty(t, Dedup(nil))
}
