package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jongeeting/development-digest/internal/adapter/geodata"
	"github.com/jongeeting/development-digest/internal/config"
	"github.com/jongeeting/development-digest/internal/observability"
)

var geodataCmd = &cobra.Command{
	Use:   "geodata",
	Short: "Download boundary files into the geodata directory",
	RunE:  runGeodata,
}

// runGeodata wires only what the downloader needs. It must keep working
// when the boundary file is absent, since downloading it is the point.
func runGeodata(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)

	d := geodata.NewDownloader(cfg, logger)

	path, err := d.DownloadNeighborhoods(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("neighborhoods: %s\n", path)

	// District boundaries are a convenience; records carry their district
	// attribute already.
	if path, err := d.DownloadCouncilDistricts(cmd.Context()); err != nil {
		logger.Warn("council district download failed", "error", err)
	} else {
		fmt.Printf("council districts: %s\n", path)
	}
	return nil
}
