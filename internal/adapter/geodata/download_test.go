package geodata

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDownloader(t *testing.T, neighborhoodsURL, cartoURL string) *Downloader {
	t.Helper()
	return &Downloader{
		neighborhoodsURL: neighborhoodsURL,
		cartoURL:         cartoURL,
		dir:              t.TempDir(),
		httpClient:       &http.Client{Timeout: 5 * time.Second},
		logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestDownloadNeighborhoods(t *testing.T) {
	const body = `{"type":"FeatureCollection","features":[]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	d := testDownloader(t, srv.URL, srv.URL)
	path, err := d.DownloadNeighborhoods(context.Background())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(d.dir, NeighborhoodsFile), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, body, string(data))
}

func TestDownloadCouncilDistricts_QueryShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "geojson", r.URL.Query().Get("format"))
		assert.Contains(t, r.URL.Query().Get("q"), "council_districts_2024")
		_, _ = w.Write([]byte(`{"type":"FeatureCollection","features":[]}`))
	}))
	defer srv.Close()

	d := testDownloader(t, srv.URL, srv.URL)
	_, err := d.DownloadCouncilDistricts(context.Background())
	require.NoError(t, err)
}

func TestDownload_FailureLeavesCacheIntact(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	d := testDownloader(t, srv.URL, srv.URL)
	cached := filepath.Join(d.dir, NeighborhoodsFile)
	require.NoError(t, os.WriteFile(cached, []byte("cached"), 0o600))

	_, err := d.DownloadNeighborhoods(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")

	data, err := os.ReadFile(cached)
	require.NoError(t, err)
	assert.Equal(t, "cached", string(data), "failed download must not clobber the cache")
}
