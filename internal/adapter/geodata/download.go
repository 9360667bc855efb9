// Package geodata downloads and caches the boundary files the matcher loads:
// neighborhood polygons from the open-geo-data mirror and council districts
// from the city's Carto SQL endpoint.
package geodata

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/jongeeting/development-digest/internal/config"
)

const (
	NeighborhoodsFile    = "neighborhoods.geojson"
	CouncilDistrictsFile = "council_districts.geojson"

	councilDistrictsSQL = "SELECT * FROM council_districts_2024"
)

// Downloader fetches boundary files into a local geodata directory.
type Downloader struct {
	neighborhoodsURL string
	cartoURL         string
	dir              string
	httpClient       *http.Client
	logger           *slog.Logger
}

// NewDownloader creates a boundary downloader writing into cfg.GeodataDir.
func NewDownloader(cfg *config.Config, logger *slog.Logger) *Downloader {
	return &Downloader{
		neighborhoodsURL: cfg.NeighborhoodsURL,
		cartoURL:         cfg.CartoURL,
		dir:              cfg.GeodataDir,
		httpClient:       &http.Client{Timeout: 2 * time.Minute},
		logger:           logger,
	}
}

// DownloadNeighborhoods fetches the neighborhood boundary collection and
// writes it to the geodata directory, returning the file path.
func (d *Downloader) DownloadNeighborhoods(ctx context.Context) (string, error) {
	path := filepath.Join(d.dir, NeighborhoodsFile)
	if err := d.fetchTo(ctx, d.neighborhoodsURL, path); err != nil {
		return "", fmt.Errorf("download neighborhoods: %w", err)
	}
	d.logger.Info("downloaded neighborhood boundaries", "path", path)
	return path, nil
}

// DownloadCouncilDistricts fetches district boundaries from the Carto SQL
// endpoint as GeoJSON. Districts are optional: the council_district record
// attribute usually suffices, so callers may treat failure as non-fatal.
func (d *Downloader) DownloadCouncilDistricts(ctx context.Context) (string, error) {
	q := url.Values{
		"q":      {councilDistrictsSQL},
		"format": {"geojson"},
	}
	path := filepath.Join(d.dir, CouncilDistrictsFile)
	if err := d.fetchTo(ctx, d.cartoURL+"?"+q.Encode(), path); err != nil {
		return "", fmt.Errorf("download council districts: %w", err)
	}
	d.logger.Info("downloaded council district boundaries", "path", path)
	return path, nil
}

func (d *Downloader) fetchTo(ctx context.Context, fullURL, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, body)
	}

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("create geodata dir: %w", err)
	}

	// Write via a temp file so a failed download never clobbers a good cache.
	tmp, err := os.CreateTemp(d.dir, ".download-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("write boundary file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
