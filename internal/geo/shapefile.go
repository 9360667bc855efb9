package geo

import (
	"fmt"
	"strings"

	shp "github.com/jonas-p/go-shp"
)

// defaultNameField is the DBF attribute holding the boundary name in the
// city's exports.
const defaultNameField = "NAME"

// LoadShapefile reads boundary polygons from an ESRI shapefile, taking each
// feature's name from the DBF attribute nameField (matched
// case-insensitively, falling back to "Unknown"). Non-polygon shapes are
// skipped. Shapefile ring parts are flattened the same way MultiPolygon
// GeoJSON is.
func LoadShapefile(path, nameField string) ([]Feature, error) {
	r, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open boundary shapefile: %w", err)
	}
	defer r.Close()

	fields := r.Fields()
	nameIdx := -1
	for i, f := range fields {
		if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), nameField) {
			nameIdx = i
			break
		}
	}

	var features []Feature
	for r.Next() {
		idx, shape := r.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok {
			continue
		}

		rings := splitParts(poly)

		name := "Unknown"
		if nameIdx >= 0 {
			if v := r.ReadAttribute(idx, nameIdx); v != "" {
				name = v
			}
		}

		features = append(features, Feature{Name: name, Rings: rings})
	}
	return features, nil
}

// splitParts slices the shapefile's flat point array into its rings.
func splitParts(poly *shp.Polygon) [][]Point {
	numParts := len(poly.Parts)
	rings := make([][]Point, numParts)

	for partIdx := 0; partIdx < numParts; partIdx++ {
		start := poly.Parts[partIdx]
		end := int32(len(poly.Points))
		if partIdx+1 < numParts {
			end = poly.Parts[partIdx+1]
		}
		ring := make([]Point, 0, end-start)
		for i := start; i < end; i++ {
			pt := poly.Points[i]
			ring = append(ring, Point{Lon: pt.X, Lat: pt.Y})
		}
		rings[partIdx] = ring
	}
	return rings
}
