package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jongeeting/development-digest/internal/config"
	"github.com/jongeeting/development-digest/internal/domain"
	"github.com/jongeeting/development-digest/internal/geo"
	"github.com/jongeeting/development-digest/internal/pipeline"
)

var generateOpts struct {
	days     int
	minUnits int
	html     bool
	profile  string
	output   string
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Build a digest and write it to stdout or a file",
	RunE:  runGenerate,
}

func init() {
	generateCmd.Flags().IntVar(&generateOpts.days, "days", 7, "number of days to look back")
	generateCmd.Flags().IntVar(&generateOpts.minUnits, "min-units", 0, "minimum unit count (0 uses MIN_UNITS)")
	generateCmd.Flags().BoolVar(&generateOpts.html, "html", false, "render HTML instead of markdown")
	generateCmd.Flags().StringVar(&generateOpts.profile, "profile", "", "YAML digest profile path")
	generateCmd.Flags().StringVarP(&generateOpts.output, "output", "o", "", "output path (default stdout)")
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	minUnits := a.cfg.MinUnits
	if generateOpts.minUnits > 0 {
		minUnits = generateOpts.minUnits
	}

	var profile *config.Profile
	if generateOpts.profile != "" {
		profile, err = config.LoadProfile(generateOpts.profile)
		if err != nil {
			return err
		}
		if profile.MinUnits > 0 {
			minUnits = profile.MinUnits
		}
	}

	a.builder.SetMinUnits(minUnits)

	since := time.Now().UTC().AddDate(0, 0, -generateOpts.days)
	digest, err := a.builder.Build(cmd.Context(), since)
	if err != nil {
		return err
	}
	if profile != nil {
		digest = applyProfile(digest, profile)
	}

	renderer := a.renderer(minUnits, generateOpts.days)
	body := renderer.Markdown(digest)
	if generateOpts.html {
		body = renderer.HTML(digest)
	}

	if generateOpts.output == "" {
		fmt.Print(body)
		return nil
	}
	if err := os.WriteFile(generateOpts.output, []byte(body), 0o600); err != nil {
		return fmt.Errorf("write digest: %w", err)
	}
	a.logger.Info("digest written", "path", generateOpts.output)
	return nil
}

// applyProfile narrows a digest to the profile's geography. Neighborhood and
// district filters compose: a record must pass both.
func applyProfile(digest *pipeline.Digest, p *config.Profile) *pipeline.Digest {
	permits := filterRecords(digest.PermitRecords(), p)
	appeals := filterRecords(digest.AppealRecords(), p)

	out := &pipeline.Digest{
		GeneratedAt: digest.GeneratedAt,
		Since:       digest.Since,
		Permits:     domain.GroupByDistrict(permits),
		Appeals:     domain.GroupByDistrict(appeals),
		Freshness:   digest.Freshness,
		Warnings:    digest.Warnings,
	}
	pool := make([]domain.EnrichedRecord, 0, len(permits)+len(appeals))
	pool = append(pool, permits...)
	pool = append(pool, appeals...)
	out.Largest, out.HasLargest = domain.Largest(pool)
	return out
}

func filterRecords(records []domain.EnrichedRecord, p *config.Profile) []domain.EnrichedRecord {
	records = geo.FilterByNeighborhoods(records, p.Neighborhoods)
	return geo.FilterByDistricts(records, p.Districts)
}
