// Package config loads and saves flowmark's YAML configuration document.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"flowmark/internal/catalog"
	"flowmark/internal/layout"
)

// Config aggregates every tunable concern behind one YAML document.
type Config struct {
	Layout        layout.Config                    `yaml:"layout"`
	CatalogIndex  catalog.IndexConfig              `yaml:"catalog_index"`
	CatalogHealth catalog.HealthConfig             `yaml:"catalog_health"`
	TeamGraph     catalog.TeamProcedureGraphConfig `yaml:"team_graph"`
}

// DefaultConfig returns the default configuration, one default per
// concern's own constructor.
func DefaultConfig() *Config {
	return &Config{
		Layout:        layout.DefaultConfig(),
		CatalogIndex:  catalog.DefaultIndexConfig(),
		CatalogHealth: catalog.DefaultHealthConfig(),
		TeamGraph:     catalog.DefaultTeamProcedureGraphConfig(),
	}
}

// Load reads a YAML config file, falling back to defaults if the file does
// not exist. Environment overrides are always applied afterward.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to path as YAML, creating parent
// directories as needed.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides honors the two thresholds spec.md §6 calls out by name.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("FLOWMARK_SAME_TEAM_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.CatalogHealth.SameTeamThresholdPercent = f
		}
	}
	if v := os.Getenv("FLOWMARK_CROSS_TEAM_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.CatalogHealth.CrossTeamThresholdPercent = f
		}
	}
}
