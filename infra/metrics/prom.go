package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kochimetro/inductd/core/metrics"
)

// PromSink records optimization runs in Prometheus metrics.
type PromSink struct {
	runs       *prometheus.CounterVec
	decisions  *prometheus.CounterVec
	objectives *prometheus.GaugeVec
	overall    prometheus.Gauge
	excluded   prometheus.Gauge
	duration   prometheus.Histogram
}

// NewPromSink registers run metrics on the default Prometheus registerer.
// The /metrics HTTP server is started separately using the configured port.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "induction_runs_total",
		Help: "Total number of optimization runs by terminal status",
	}, []string{"status"})
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "induction_decisions_total",
		Help: "Total number of per-trainset decisions by action",
	}, []string{"action"})
	objectives := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "induction_fleet_objective_score",
		Help: "Fleet-average objective score of the latest run",
	}, []string{"objective"})
	overall := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "induction_fleet_overall_score",
		Help: "Fleet-average composite score of the latest run",
	})
	excluded := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "induction_excluded_trainsets",
		Help: "Trainsets excluded from the latest run for data integrity errors",
	})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "induction_run_duration_seconds",
		Help:    "Wall-clock duration of optimization runs",
		Buckets: prometheus.DefBuckets,
	})

	s := &PromSink{runs: runs, decisions: decisions, objectives: objectives,
		overall: overall, excluded: excluded, duration: duration}
	collectors := []prometheus.Collector{runs, decisions, objectives, overall, excluded, duration}
	for i, c := range collectors {
		if err := reg.Register(c); err != nil {
			are, ok := err.(prometheus.AlreadyRegisteredError)
			if !ok {
				return nil, err
			}
			switch i {
			case 0:
				s.runs = are.ExistingCollector.(*prometheus.CounterVec)
			case 1:
				s.decisions = are.ExistingCollector.(*prometheus.CounterVec)
			case 2:
				s.objectives = are.ExistingCollector.(*prometheus.GaugeVec)
			case 3:
				s.overall = are.ExistingCollector.(prometheus.Gauge)
			case 4:
				s.excluded = are.ExistingCollector.(prometheus.Gauge)
			case 5:
				s.duration = are.ExistingCollector.(prometheus.Histogram)
			}
		}
	}
	return s, nil
}

// RecordRun updates the run counters and fleet gauges.
func (s *PromSink) RecordRun(rec coremetrics.RunRecord) error {
	s.runs.WithLabelValues(rec.Status).Inc()
	s.duration.Observe(rec.Duration.Seconds())
	if rec.Status != "complete" {
		return nil
	}
	s.decisions.WithLabelValues("induct").Add(float64(rec.Inducted))
	s.decisions.WithLabelValues("standby").Add(float64(rec.Standby))
	s.decisions.WithLabelValues("maintenance").Add(float64(rec.Pulled))
	s.objectives.WithLabelValues("service_readiness").Set(rec.Metrics.ServiceReadiness)
	s.objectives.WithLabelValues("cost_efficiency").Set(rec.Metrics.CostEfficiency)
	s.objectives.WithLabelValues("branding_compliance").Set(rec.Metrics.BrandingCompliance)
	s.objectives.WithLabelValues("maintenance_optimization").Set(rec.Metrics.MaintenanceOptimization)
	s.objectives.WithLabelValues("stabling_efficiency").Set(rec.Metrics.StablingEfficiency)
	s.overall.Set(rec.Metrics.OverallScore)
	s.excluded.Set(float64(rec.Excluded))
	return nil
}
