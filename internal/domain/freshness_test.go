package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckFreshness(t *testing.T) {
	now := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(now))
	t.Cleanup(func() { SetClock(nil) })

	t.Run("stale permits fresh appeals", func(t *testing.T) {
		permitTS := now.AddDate(0, 0, -5)
		appealTS := now.AddDate(0, 0, -1)

		report := CheckFreshness(&permitTS, &appealTS, DefaultStaleAfterDays)

		require.NotNil(t, report.PermitAgeDays)
		require.NotNil(t, report.AppealAgeDays)
		assert.Equal(t, 5, *report.PermitAgeDays)
		assert.Equal(t, 1, *report.AppealAgeDays)

		require.Len(t, report.Warnings, 1)
		assert.Contains(t, report.Warnings[0], "Permit data last updated")
		assert.Contains(t, report.Warnings[0], "March 05, 2024")
		assert.Contains(t, report.Warnings[0], "5 days ago")
	})

	t.Run("both fresh", func(t *testing.T) {
		permitTS := now.AddDate(0, 0, -2)
		appealTS := now.Add(-12 * time.Hour)

		report := CheckFreshness(&permitTS, &appealTS, DefaultStaleAfterDays)

		assert.False(t, report.HasWarnings())
		assert.Equal(t, 2, *report.PermitAgeDays)
		assert.Equal(t, 0, *report.AppealAgeDays)
	})

	t.Run("both stale", func(t *testing.T) {
		permitTS := now.AddDate(0, 0, -10)
		appealTS := now.AddDate(0, 0, -4)

		report := CheckFreshness(&permitTS, &appealTS, DefaultStaleAfterDays)

		require.Len(t, report.Warnings, 2)
		assert.Contains(t, report.Warnings[0], "Permit")
		assert.Contains(t, report.Warnings[1], "Variance")
	})

	t.Run("failed source queries are independently absent", func(t *testing.T) {
		appealTS := now.AddDate(0, 0, -4)

		report := CheckFreshness(nil, &appealTS, DefaultStaleAfterDays)

		assert.Nil(t, report.MostRecentPermit)
		assert.Nil(t, report.PermitAgeDays)
		require.Len(t, report.Warnings, 1)
		assert.Contains(t, report.Warnings[0], "Variance")
	})

	t.Run("non-UTC timestamps normalized", func(t *testing.T) {
		est := time.FixedZone("EST", -5*3600)
		permitTS := time.Date(2024, time.March, 5, 7, 0, 0, 0, est)

		report := CheckFreshness(&permitTS, nil, DefaultStaleAfterDays)

		require.NotNil(t, report.PermitAgeDays)
		assert.Equal(t, 5, *report.PermitAgeDays)
	})
}
