// Package render turns a built digest into the markdown body sent to
// subscribers and an HTML variant for web preview.
package render

import (
	"fmt"
	"strings"

	"github.com/jongeeting/development-digest/internal/domain"
	"github.com/jongeeting/development-digest/internal/pipeline"
)

// appealUnitsFloor hides small extracted counts on appeal lines; tiny
// variances are noise there.
const appealUnitsFloor = 5

const permitLinkBase = "https://li.phila.gov/#details?entity=permits&eid="

// Renderer formats digests. MinUnits and DaysBack only affect display copy;
// filtering happened upstream.
type Renderer struct {
	minUnits int
	daysBack int
}

// NewRenderer creates a digest renderer.
func NewRenderer(minUnits, daysBack int) *Renderer {
	return &Renderer{minUnits: minUnits, daysBack: daysBack}
}

// Markdown renders the digest body for email delivery.
func (r *Renderer) Markdown(d *pipeline.Digest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# PHILADELPHIA DEVELOPMENT DIGEST\n")
	fmt.Fprintf(&b, "Week of %s\n\n", dateRange(d))

	if len(d.Warnings) > 0 {
		b.WriteString("## DATA STATUS\n")
		for _, w := range d.Warnings {
			b.WriteString(w)
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}

	b.WriteString("## SUMMARY\n")
	fmt.Fprintf(&b, "- %d new by-right housing permits (%d+ units)\n", d.Permits.Len(), r.minUnits)
	fmt.Fprintf(&b, "- %d zoning variance applications filed\n\n", d.Appeals.Len())

	if d.HasLargest {
		fmt.Fprintf(&b, "**Largest project:** %d-unit %s at %s (District %s)\n\n",
			d.Largest.Units, d.Largest.Kind, d.Largest.Address, d.Largest.District)
	}

	b.WriteString("## BY-RIGHT HOUSING PERMITS\n\n")
	if d.Permits.Len() > 0 {
		for _, district := range d.Permits.Districts() {
			fmt.Fprintf(&b, "### COUNCIL DISTRICT %s\n\n", district)
			for _, rec := range d.Permits.Records(district) {
				b.WriteString(permitMarkdown(rec))
				b.WriteByte('\n')
			}
		}
	} else {
		fmt.Fprintf(&b, "No permits with %d+ units found in the last %d days.\n\n", r.minUnits, r.daysBack)
	}

	b.WriteString("## ZONING VARIANCE APPLICATIONS\n\n")
	if d.Appeals.Len() > 0 {
		for _, district := range d.Appeals.Districts() {
			fmt.Fprintf(&b, "### COUNCIL DISTRICT %s\n\n", district)
			for _, rec := range d.Appeals.Records(district) {
				b.WriteString(appealMarkdown(rec))
				b.WriteByte('\n')
			}
		}
	} else {
		fmt.Fprintf(&b, "No zoning variance applications found in the last %d days.\n\n", r.daysBack)
	}

	b.WriteString("---\n")
	b.WriteString("*Data source: City of Philadelphia L&I Open Data via ArcGIS*\n")
	return b.String()
}

// HTML renders the digest as a self-contained HTML fragment.
func (r *Renderer) HTML(d *pipeline.Digest) string {
	var b strings.Builder

	b.WriteString("<h1>PHILADELPHIA DEVELOPMENT DIGEST</h1>\n")
	fmt.Fprintf(&b, "<p>Week of %s</p>\n", dateRange(d))

	if len(d.Warnings) > 0 {
		b.WriteString("<h2>DATA STATUS</h2>\n")
		b.WriteString("<div style='background-color: #fff3cd; border-left: 4px solid #ffc107; padding: 12px; margin-bottom: 20px;'>\n")
		for _, w := range d.Warnings {
			fmt.Fprintf(&b, "<p style='margin: 4px 0;'>%s</p>\n", w)
		}
		b.WriteString("</div>\n")
	}

	b.WriteString("<h2>SUMMARY</h2>\n<ul>\n")
	fmt.Fprintf(&b, "<li>%d new by-right housing permits (%d+ units)</li>\n", d.Permits.Len(), r.minUnits)
	fmt.Fprintf(&b, "<li>%d zoning variance applications filed</li>\n</ul>\n", d.Appeals.Len())

	if d.HasLargest {
		fmt.Fprintf(&b, "<p><strong>Largest project:</strong> %d-unit %s at %s (District %s)</p>\n",
			d.Largest.Units, d.Largest.Kind, d.Largest.Address, d.Largest.District)
	}

	b.WriteString("<h2>BY-RIGHT HOUSING PERMITS</h2>\n")
	if d.Permits.Len() > 0 {
		for _, district := range d.Permits.Districts() {
			fmt.Fprintf(&b, "<h3>COUNCIL DISTRICT %s</h3>\n<ul>\n", district)
			for _, rec := range d.Permits.Records(district) {
				b.WriteString(permitHTML(rec))
				b.WriteByte('\n')
			}
			b.WriteString("</ul>\n")
		}
	} else {
		fmt.Fprintf(&b, "<p>No permits with %d+ units found in the last %d days.</p>\n", r.minUnits, r.daysBack)
	}

	b.WriteString("<h2>ZONING VARIANCE APPLICATIONS</h2>\n")
	if d.Appeals.Len() > 0 {
		for _, district := range d.Appeals.Districts() {
			fmt.Fprintf(&b, "<h3>COUNCIL DISTRICT %s</h3>\n<ul>\n", district)
			for _, rec := range d.Appeals.Records(district) {
				b.WriteString(appealHTML(rec))
				b.WriteByte('\n')
			}
			b.WriteString("</ul>\n")
		}
	} else {
		fmt.Fprintf(&b, "<p>No zoning variance applications found in the last %d days.</p>\n", r.daysBack)
	}

	b.WriteString("<hr>\n")
	b.WriteString("<p><em>Data source: City of Philadelphia L&I Open Data via ArcGIS</em></p>\n")
	return b.String()
}

func dateRange(d *pipeline.Digest) string {
	return fmt.Sprintf("%s - %s",
		d.Since.Format("January 2"), d.GeneratedAt.Format("January 2, 2006"))
}

func permitMarkdown(rec domain.EnrichedRecord) string {
	return fmt.Sprintf("- **%s** | Units: %s | Developer: %s\n  - [View permit details](%s%s)\n",
		orNA(rec.Address), rec.Units.String(), orNA(rec.Developer), permitLinkBase, rec.ID)
}

func permitHTML(rec domain.EnrichedRecord) string {
	return fmt.Sprintf("<li><strong>%s | Units: %s | Developer: %s</strong>\n<ul>\n<li><a href=\"%s%s\">View permit details</a></li>\n</ul>\n</li>",
		orNA(rec.Address), rec.Units.String(), orNA(rec.Developer), permitLinkBase, rec.ID)
}

func appealMarkdown(rec domain.EnrichedRecord) string {
	return fmt.Sprintf("- **%s%s**\n  - Appeal: %s | Appellant: %s\n  - Requested variance: %s\n",
		orNA(rec.Address), appealUnitsSuffix(rec), orNA(rec.ID), orNA(rec.Developer), varianceDescription(rec))
}

func appealHTML(rec domain.EnrichedRecord) string {
	return fmt.Sprintf("<li><strong>%s%s</strong>\n<ul>\n<li>Appeal: %s | Appellant: %s</li>\n<li>Requested variance: %s</li>\n</ul>\n</li>",
		orNA(rec.Address), appealUnitsSuffix(rec), orNA(rec.ID), orNA(rec.Developer), varianceDescription(rec))
}

func appealUnitsSuffix(rec domain.EnrichedRecord) string {
	if n, ok := rec.Units.Value(); ok && n >= appealUnitsFloor {
		return fmt.Sprintf(" | %d units", n)
	}
	return ""
}

func varianceDescription(rec domain.EnrichedRecord) string {
	grounds := strings.TrimSpace(strings.NewReplacer("\n", " ", "\r", " ").Replace(rec.Narrative))
	if grounds == "" {
		return "Variance details not available"
	}
	return grounds
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
