package geo

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// GeoJSON wire types, limited to what the boundary files carry.

type featureCollection struct {
	Features []geojsonFeature `json:"features"`
}

type geojsonFeature struct {
	Properties map[string]any  `json:"properties"`
	Geometry   geojsonGeometry `json:"geometry"`
}

type geojsonGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// LoadGeoJSONFile reads a boundary feature collection from disk. A missing
// file is an error; the matcher cannot be built without boundaries.
func LoadGeoJSONFile(path string) ([]Feature, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open boundary file: %w", err)
	}
	defer f.Close()
	return LoadGeoJSON(f)
}

// LoadGeoJSON parses a GeoJSON FeatureCollection of Polygon and MultiPolygon
// features. Each feature's name comes from its "name" property, defaulting to
// "Unknown" when absent. Geometries of other types are skipped.
func LoadGeoJSON(r io.Reader) ([]Feature, error) {
	var fc featureCollection
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return nil, fmt.Errorf("decode boundary geojson: %w", err)
	}

	features := make([]Feature, 0, len(fc.Features))
	for i, gf := range fc.Features {
		rings, err := geometryRings(gf.Geometry)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		if rings == nil {
			continue
		}
		features = append(features, Feature{
			Name:  featureName(gf.Properties),
			Rings: rings,
		})
	}
	return features, nil
}

func featureName(props map[string]any) string {
	if name, ok := props["name"].(string); ok && name != "" {
		return name
	}
	return "Unknown"
}

// geometryRings flattens a Polygon or MultiPolygon into a ring list. A nil
// result with nil error means the geometry type is unsupported.
func geometryRings(g geojsonGeometry) ([][]Point, error) {
	switch g.Type {
	case "Polygon":
		var coords [][][]float64
		if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
			return nil, fmt.Errorf("polygon coordinates: %w", err)
		}
		return ringsFromCoords(coords)
	case "MultiPolygon":
		var coords [][][][]float64
		if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
			return nil, fmt.Errorf("multipolygon coordinates: %w", err)
		}
		var rings [][]Point
		for _, poly := range coords {
			r, err := ringsFromCoords(poly)
			if err != nil {
				return nil, err
			}
			rings = append(rings, r...)
		}
		return rings, nil
	default:
		return nil, nil
	}
}

func ringsFromCoords(coords [][][]float64) ([][]Point, error) {
	rings := make([][]Point, 0, len(coords))
	for _, raw := range coords {
		ring := make([]Point, 0, len(raw))
		for _, pos := range raw {
			if len(pos) < 2 {
				return nil, fmt.Errorf("ring position has %d ordinates", len(pos))
			}
			ring = append(ring, Point{Lon: pos[0], Lat: pos[1]})
		}
		rings = append(rings, ring)
	}
	return rings, nil
}
