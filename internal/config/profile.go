package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile is an optional YAML digest profile narrowing a run's geographic
// scope and thresholds, e.g.:
//
//	min_units: 5
//	frequency: daily
//	neighborhoods: [Fishtown, "Northern Liberties"]
//	districts: ["1", "5"]
//
// Empty filter lists mean citywide. Zero MinUnits defers to the env config.
type Profile struct {
	MinUnits      int      `yaml:"min_units"`
	Frequency     string   `yaml:"frequency"`
	Neighborhoods []string `yaml:"neighborhoods"`
	Districts     []string `yaml:"districts"`
}

// LoadProfile reads a digest profile from a YAML file.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", path, err)
	}
	if p.MinUnits < 0 {
		return nil, fmt.Errorf("profile %s: min_units must not be negative", path)
	}
	return &p, nil
}
