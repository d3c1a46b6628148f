package metrics

import "github.com/kochimetro/inductd/core/factory"

// Config defines the metrics sinks to instantiate for a deployment.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// PrometheusPort is the listen address of the /metrics endpoint when a
	// prometheus sink is configured, e.g. ":9090".
	PrometheusPort string `json:"prometheus_port"`
}
