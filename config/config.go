package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kochimetro/inductd/core/induction"
	"github.com/kochimetro/inductd/core/metrics"
	"github.com/kochimetro/inductd/core/scheduler"
	"github.com/kochimetro/inductd/infra/mqtt"
)

// FleetConfig locates the fleet snapshot supplied per planning cycle.
type FleetConfig struct {
	// SnapshotPath is the YAML snapshot file read at the start of each run.
	SnapshotPath string `json:"snapshot_path"`
}

// Validate checks mandatory fields.
func (c FleetConfig) Validate() error {
	if c.SnapshotPath == "" {
		return fmt.Errorf("fleet: snapshot_path is required")
	}
	return nil
}

// Config aggregates all service settings.
type Config struct {
	Engine    induction.Config `json:"engine"`
	Scheduler scheduler.Config `json:"scheduler"`
	Fleet     FleetConfig      `json:"fleet"`
	Metrics   metrics.Config   `json:"metrics"`
	MQTT      mqtt.Config      `json:"mqtt"`
}

// Load reads the configuration file, applies optional K_ environment
// overrides, fills defaults, and validates every section.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides, e.g. K_ENGINE__STRICT=true.
	if err := k.Load(env.Provider("K_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Engine.SetDefaults()
	cfg.Scheduler.SetDefaults()
	cfg.MQTT.SetDefaults()
	if err := cfg.Engine.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Scheduler.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Fleet.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
