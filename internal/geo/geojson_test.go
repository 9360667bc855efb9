package geo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCollection = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"name": "Fishtown", "cartodb_id": 42},
      "geometry": {
        "type": "Polygon",
        "coordinates": [[[-75.14, 39.96], [-75.12, 39.96], [-75.12, 39.99], [-75.14, 39.99], [-75.14, 39.96]]]
      }
    },
    {
      "type": "Feature",
      "properties": {"name": "Eastwick"},
      "geometry": {
        "type": "MultiPolygon",
        "coordinates": [
          [[[-75.25, 39.88], [-75.23, 39.88], [-75.23, 39.90], [-75.25, 39.88]]],
          [[[-75.22, 39.87], [-75.21, 39.87], [-75.21, 39.88], [-75.22, 39.87]]]
        ]
      }
    },
    {
      "type": "Feature",
      "properties": {},
      "geometry": {
        "type": "Polygon",
        "coordinates": [[[0, 0], [1, 0], [1, 1], [0, 0]]]
      }
    },
    {
      "type": "Feature",
      "properties": {"name": "Skipped"},
      "geometry": {"type": "Point", "coordinates": [1, 2]}
    }
  ]
}`

func TestLoadGeoJSON(t *testing.T) {
	features, err := LoadGeoJSON(strings.NewReader(sampleCollection))
	require.NoError(t, err)
	require.Len(t, features, 3, "point geometry should be skipped")

	assert.Equal(t, "Fishtown", features[0].Name)
	require.Len(t, features[0].Rings, 1)
	assert.Equal(t, Point{Lon: -75.14, Lat: 39.96}, features[0].Rings[0][0])

	assert.Equal(t, "Eastwick", features[1].Name)
	assert.Len(t, features[1].Rings, 2, "multipolygon parts flatten into rings")

	assert.Equal(t, "Unknown", features[2].Name, "missing name property defaults")
}

func TestLoadGeoJSON_Invalid(t *testing.T) {
	_, err := LoadGeoJSON(strings.NewReader("{not json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode boundary geojson")
}

func TestLoadGeoJSON_FeedsMatcher(t *testing.T) {
	features, err := LoadGeoJSON(strings.NewReader(sampleCollection))
	require.NoError(t, err)

	m, err := NewMatcher(features)
	require.NoError(t, err)

	name, ok := m.MatchNeighborhood(-75.13, 39.97)
	require.True(t, ok)
	assert.Equal(t, "Fishtown", name)
}

func TestLoadGeoJSONFile_Missing(t *testing.T) {
	_, err := LoadGeoJSONFile("testdata/does-not-exist.geojson")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open boundary file")
}
