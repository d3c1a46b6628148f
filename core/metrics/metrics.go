package metrics

import (
	"time"

	"github.com/kochimetro/inductd/core/model"
)

// DecisionRecord is a per-trainset decision event to be recorded by a sink.
type DecisionRecord struct {
	RunID          string
	TrainsetID     string
	Action         model.Action
	CompositeScore int
	Scores         model.ObjectiveScores
	Time           time.Time
}

// RunRecord summarises one completed optimization run.
type RunRecord struct {
	RunID     string
	Status    string
	FleetSize int
	Inducted  int
	Standby   int
	Pulled    int
	Excluded  int
	Metrics   model.FleetMetrics
	Duration  time.Duration
	Time      time.Time
}

// MetricsSink records run outcomes for observability purposes.
type MetricsSink interface {
	RecordRun(rec RunRecord) error
}

// DecisionRecorder is implemented by sinks able to record per-trainset
// decisions.
type DecisionRecorder interface {
	RecordDecisions(recs []DecisionRecord) error
}

// NopSink implements every recorder interface with no-op methods.
type NopSink struct{}

func (NopSink) RecordRun(RunRecord) error              { return nil }
func (NopSink) RecordDecisions([]DecisionRecord) error { return nil }
