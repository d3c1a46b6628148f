package metrics

import "github.com/kochimetro/inductd/core/factory"

var registry = factory.NewRegistry[MetricsSink]()

// RegisterMetricsSink registers a sink builder under the given type name.
// Implementations register themselves from an init function in
// infra/metrics.
func RegisterMetricsSink(name string, b factory.Builder[MetricsSink]) error {
	return registry.Register(name, b)
}

// NewMetricsSink instantiates a sink from its configuration block.
func NewMetricsSink(cfg factory.ModuleConfig) (MetricsSink, error) {
	return registry.Create(cfg)
}
