package metrics

import coremetrics "github.com/kochimetro/inductd/core/metrics"

// MultiSink fans run records out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordRun forwards the record to all sinks, returning the first error
// encountered.
func (m *MultiSink) RecordRun(rec coremetrics.RunRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordRun(rec); err != nil {
			return err
		}
	}
	return nil
}

// RecordDecisions forwards decision records to the sinks that support them.
func (m *MultiSink) RecordDecisions(recs []coremetrics.DecisionRecord) error {
	for _, s := range m.Sinks {
		if dr, ok := s.(coremetrics.DecisionRecorder); ok {
			if err := dr.RecordDecisions(recs); err != nil {
				return err
			}
		}
	}
	return nil
}
