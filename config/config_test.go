package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kochimetro/inductd/core/induction"
)

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `engine:
  induction_threshold: 75
  blocking_job_cards: 1
  weights:
    service_readiness: 0.3
    cost_efficiency: 0.2
    branding_compliance: 0.2
    maintenance_optimization: 0.2
    stabling_efficiency: 0.1
  bay_tie_break: "trainset_id"
scheduler:
  hour: 22
  minute: 30
fleet:
  snapshot_path: "fleet.yaml"
metrics:
  sinks:
    - type: "nop"
mqtt:
  enabled: true
  broker: "tcp://localhost:1883"
  client_id: "inductd"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"induction_threshold", cfg.Engine.Threshold(), 75.0},
		{"blocking_job_cards", cfg.Engine.BlockingJobCards, 1},
		{"weights.service_readiness", cfg.Engine.Weights.ServiceReadiness, 0.3},
		{"bay_tie_break", cfg.Engine.BayTieBreak, induction.TieBreakTrainsetID},
		{"cert_warning_hours default", *cfg.Engine.CertWarningHours, 6.0},
		{"workers default", cfg.Engine.Workers, 4},
		{"scheduler.hour", *cfg.Scheduler.Hour, 22},
		{"scheduler.minute", cfg.Scheduler.Minute, 30},
		{"fleet.snapshot_path", cfg.Fleet.SnapshotPath, "fleet.yaml"},
		{"metrics_sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"mqtt.enabled", cfg.MQTT.Enabled, true},
		{"mqtt.broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"mqtt.topic_prefix default", cfg.MQTT.TopicPrefix, "induction"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, `fleet:
  snapshot_path: "fleet.yaml"
`)
	t.Setenv("K_ENGINE__INDUCTION_THRESHOLD", "82")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Engine.Threshold() != 82 {
		t.Errorf("threshold = %.1f, expected env override 82", cfg.Engine.Threshold())
	}
}

func TestLoadExplicitZeroThreshold(t *testing.T) {
	path := writeConfig(t, `engine:
  induction_threshold: 0
  cert_warning_hours: 0
scheduler:
  hour: 0
fleet:
  snapshot_path: "fleet.yaml"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Engine.Threshold() != 0 {
		t.Errorf("threshold = %.1f, explicit 0 must not be replaced by the default", cfg.Engine.Threshold())
	}
	if cfg.Engine.CertWarningWindow() != 0 {
		t.Errorf("warning window = %s, explicit 0 must not be replaced by the default", cfg.Engine.CertWarningWindow())
	}
	if cfg.Scheduler.Hour == nil || *cfg.Scheduler.Hour != 0 {
		t.Errorf("scheduler hour = %v, explicit 0 must schedule midnight", cfg.Scheduler.Hour)
	}
}

func TestLoadRejectsBadWeights(t *testing.T) {
	path := writeConfig(t, `engine:
  weights:
    service_readiness: 0.9
    cost_efficiency: 0.9
    branding_compliance: 0.1
    maintenance_optimization: 0.1
    stabling_efficiency: 0.1
fleet:
  snapshot_path: "fleet.yaml"
`)

	_, err := Load(path)
	var cerr *induction.ConfigurationError
	if !errors.As(err, &cerr) {
		t.Fatalf("err = %v, expected ConfigurationError", err)
	}
	if cerr.Field != "weights" {
		t.Errorf("field = %s, expected weights", cerr.Field)
	}
}

func TestLoadRequiresSnapshotPath(t *testing.T) {
	path := writeConfig(t, `engine: {}
`)
	if _, err := Load(path); err == nil {
		t.Fatal("missing snapshot_path must fail validation")
	}
}

func TestLoadRejectsUnknownFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(""), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("unknown extension must be rejected")
	}
}
