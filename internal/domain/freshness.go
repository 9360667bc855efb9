package domain

import (
	"fmt"
	"time"
)

// DefaultStaleAfterDays is the staleness threshold for source feeds.
const DefaultStaleAfterDays = 3

// FreshnessReport captures how current each source feed is. Pointer fields
// are nil when the corresponding source query failed; a failed side never
// blocks the other.
type FreshnessReport struct {
	MostRecentPermit *time.Time
	MostRecentAppeal *time.Time
	PermitAgeDays    *int
	AppealAgeDays    *int
	Warnings         []string
}

// HasWarnings reports whether any staleness warning was raised.
func (r FreshnessReport) HasWarnings() bool { return len(r.Warnings) > 0 }

// CheckFreshness computes the whole-day age of each source's most recent
// record against the current time and raises a warning per source whose feed
// is older than staleAfterDays. Both sides are normalized to UTC before
// subtraction. Pass nil for a source whose timestamp query failed; that side
// is simply absent from the report.
func CheckFreshness(mostRecentPermit, mostRecentAppeal *time.Time, staleAfterDays int) FreshnessReport {
	now := clock.Now().UTC()
	report := FreshnessReport{}

	if mostRecentPermit != nil {
		t := mostRecentPermit.UTC()
		age := wholeDays(now.Sub(t))
		report.MostRecentPermit = &t
		report.PermitAgeDays = &age
		if age > staleAfterDays {
			report.Warnings = append(report.Warnings, staleWarning("Permit", t, age))
		}
	}

	if mostRecentAppeal != nil {
		t := mostRecentAppeal.UTC()
		age := wholeDays(now.Sub(t))
		report.MostRecentAppeal = &t
		report.AppealAgeDays = &age
		if age > staleAfterDays {
			report.Warnings = append(report.Warnings, staleWarning("Variance", t, age))
		}
	}

	return report
}

func wholeDays(d time.Duration) int {
	return int(d.Hours() / 24)
}

func staleWarning(source string, t time.Time, ageDays int) string {
	return fmt.Sprintf("⚠️ %s data last updated: %s (%d days ago)",
		source, t.Format("January 02, 2006"), ageDays)
}
