package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jongeeting/development-digest/internal/domain"
)

var freshnessCmd = &cobra.Command{
	Use:   "freshness",
	Short: "Report how current each source feed is",
	RunE:  runFreshness,
}

func runFreshness(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()

	var permitTS, appealTS *time.Time
	if ts, err := a.source.MostRecentPermit(ctx); err == nil {
		permitTS = &ts
	} else {
		a.logger.Warn("permit freshness query failed", "error", err)
	}
	if ts, err := a.source.MostRecentAppeal(ctx); err == nil {
		appealTS = &ts
	} else {
		a.logger.Warn("appeal freshness query failed", "error", err)
	}

	report := domain.CheckFreshness(permitTS, appealTS, a.cfg.StaleAfterDays)

	printSource("Permits", report.MostRecentPermit, report.PermitAgeDays)
	printSource("Variances", report.MostRecentAppeal, report.AppealAgeDays)

	if report.HasWarnings() {
		fmt.Println()
		for _, w := range report.Warnings {
			fmt.Println(w)
		}
	} else {
		fmt.Println("\nAll sources are current.")
	}
	return nil
}

func printSource(name string, ts *time.Time, ageDays *int) {
	if ts == nil {
		fmt.Printf("%-10s unavailable\n", name+":")
		return
	}
	fmt.Printf("%-10s %s (%d days ago)\n", name+":", ts.Format("January 02, 2006"), *ageDays)
}
