package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewApp_MissingBoundaryFileIsFatal(t *testing.T) {
	t.Setenv("BOUNDARY_FILE", filepath.Join(t.TempDir(), "missing.geojson"))

	_, err := newApp()
	require.Error(t, err, "startup must fail without boundary data")
	assert.Contains(t, err.Error(), "digest geodata", "error should point at the downloader")
}
