package render

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/jongeeting/development-digest/internal/domain"
	"github.com/jongeeting/development-digest/internal/pipeline"
)

func sampleDigest() *pipeline.Digest {
	permits := domain.GroupByDistrict([]domain.EnrichedRecord{
		{
			RawRecord: domain.RawRecord{
				Kind: domain.KindPermit, ID: "RES-2024-001",
				Address: "1300 Frankford Ave", CouncilDistrict: "1",
				Developer: "Frankford Partners LLC",
			},
			Units: domain.Known(12),
		},
	})
	appeals := domain.GroupByDistrict([]domain.EnrichedRecord{
		{
			RawRecord: domain.RawRecord{
				Kind: domain.KindAppeal, ID: "ZP-2024-0042",
				Address: "400 N Broad St", CouncilDistrict: "5",
				Developer: "Broad Street Holdings",
				Narrative: "variance for an\neight-unit multi-family building",
			},
			Units: domain.Known(8),
		},
	})
	d := &pipeline.Digest{
		GeneratedAt: time.Date(2024, 3, 8, 6, 0, 0, 0, time.UTC),
		Since:       time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC),
		Permits:     permits,
		Appeals:     appeals,
		Warnings:    []string{"⚠️ Permit data last updated: March 03, 2024 (5 days ago)"},
	}
	d.Largest, d.HasLargest = domain.Largest(append(permits.Records("1"), appeals.Records("5")...))
	return d
}

func TestMarkdown(t *testing.T) {
	got := NewRenderer(1, 7).Markdown(sampleDigest())

	want := `# PHILADELPHIA DEVELOPMENT DIGEST
Week of March 1 - March 8, 2024

## DATA STATUS
⚠️ Permit data last updated: March 03, 2024 (5 days ago)

## SUMMARY
- 1 new by-right housing permits (1+ units)
- 1 zoning variance applications filed

**Largest project:** 12-unit by-right permit at 1300 Frankford Ave (District 1)

## BY-RIGHT HOUSING PERMITS

### COUNCIL DISTRICT 1

- **1300 Frankford Ave** | Units: 12 | Developer: Frankford Partners LLC
  - [View permit details](https://li.phila.gov/#details?entity=permits&eid=RES-2024-001)

## ZONING VARIANCE APPLICATIONS

### COUNCIL DISTRICT 5

- **400 N Broad St | 8 units**
  - Appeal: ZP-2024-0042 | Appellant: Broad Street Holdings
  - Requested variance: variance for an eight-unit multi-family building

---
*Data source: City of Philadelphia L&I Open Data via ArcGIS*
`

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("markdown mismatch (-want +got):\n%s", diff)
	}
}

func TestMarkdown_EmptyWindow(t *testing.T) {
	d := &pipeline.Digest{
		GeneratedAt: time.Date(2024, 3, 8, 6, 0, 0, 0, time.UTC),
		Since:       time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC),
		Permits:     domain.GroupByDistrict(nil),
		Appeals:     domain.GroupByDistrict(nil),
	}

	got := NewRenderer(5, 7).Markdown(d)

	assert.Contains(t, got, "No permits with 5+ units found in the last 7 days.")
	assert.Contains(t, got, "No zoning variance applications found in the last 7 days.")
	assert.NotContains(t, got, "DATA STATUS")
	assert.NotContains(t, got, "Largest project")
}

func TestMarkdown_MultiFamilyUnits(t *testing.T) {
	permits := domain.GroupByDistrict([]domain.EnrichedRecord{
		{
			RawRecord: domain.RawRecord{Kind: domain.KindPermit, ID: "ZP-1", Address: "123 Main St", CouncilDistrict: "2"},
			Units:     domain.UnknownMultiFamily(),
		},
	})
	d := &pipeline.Digest{
		GeneratedAt: time.Now(),
		Since:       time.Now().AddDate(0, 0, -7),
		Permits:     permits,
		Appeals:     domain.GroupByDistrict(nil),
	}

	got := NewRenderer(1, 7).Markdown(d)

	assert.Contains(t, got, "Units: Unknown (Multi-Family)")
}

func TestHTML(t *testing.T) {
	got := NewRenderer(1, 7).HTML(sampleDigest())

	assert.Contains(t, got, "<h1>PHILADELPHIA DEVELOPMENT DIGEST</h1>")
	assert.Contains(t, got, "<h2>DATA STATUS</h2>")
	assert.Contains(t, got, "<h3>COUNCIL DISTRICT 1</h3>")
	assert.Contains(t, got, `<a href="https://li.phila.gov/#details?entity=permits&eid=RES-2024-001">View permit details</a>`)
	assert.Contains(t, got, "<li>Appeal: ZP-2024-0042 | Appellant: Broad Street Holdings</li>")
	assert.Contains(t, got, "<p><em>Data source: City of Philadelphia L&I Open Data via ArcGIS</em></p>")
}

func TestAppealUnitsSuffixHidesSmallCounts(t *testing.T) {
	rec := domain.EnrichedRecord{Units: domain.Known(3)}
	assert.Empty(t, appealUnitsSuffix(rec))

	rec.Units = domain.Known(5)
	assert.Equal(t, " | 5 units", appealUnitsSuffix(rec))
}
