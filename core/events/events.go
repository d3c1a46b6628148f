// Package events defines the notifications published on the internal event
// bus during an optimization run. The progress contract is advisory:
// percentages are monotonic within a run but carry no correctness
// guarantee for consumers.
package events

import (
	"time"

	"github.com/kochimetro/inductd/core/model"
)

// ProgressEvent reports run advancement as a monotonic 0-100 percentage
// with a human-readable stage label.
type ProgressEvent struct {
	RunID   string
	Percent int
	Stage   string
}

// TrainsetEvaluatedEvent is published after each trainset completes
// feasibility filtering and scoring.
type TrainsetEvaluatedEvent struct {
	RunID      string
	TrainsetID string
	Composite  int
}

// TrainsetExcludedEvent is published when a snapshot fails validation and
// the trainset is dropped from the run (non-strict mode).
type TrainsetExcludedEvent struct {
	RunID      string
	TrainsetID string
	Err        error
}

// RunCompletedEvent is published once a run reaches a terminal state.
type RunCompletedEvent struct {
	RunID       string
	Status      string
	Fleet       int
	Excluded    int
	Metrics     model.FleetMetrics
	CompletedAt time.Time
}
