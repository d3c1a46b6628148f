package model

import "time"

// Action is the decision taken for one trainset in a planning cycle.
type Action int

const (
	// ActionInduct assigns the trainset to revenue service.
	ActionInduct Action = iota
	// ActionStandby holds the trainset in reserve.
	ActionStandby
	// ActionMaintenance pulls the trainset to the inspection bay line.
	ActionMaintenance
)

func (a Action) String() string {
	switch a {
	case ActionInduct:
		return "induct"
	case ActionStandby:
		return "standby"
	case ActionMaintenance:
		return "maintenance"
	default:
		return "unknown"
	}
}

// MarshalText renders the action name, so results serialize readably.
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// ObjectiveScores carries the five per-dimension scores, each in [0,100].
type ObjectiveScores struct {
	ServiceReadiness        float64 `json:"service_readiness"`
	CostEfficiency          float64 `json:"cost_efficiency"`
	BrandingCompliance      float64 `json:"branding_compliance"`
	MaintenanceOptimization float64 `json:"maintenance_optimization"`
	StablingEfficiency      float64 `json:"stabling_efficiency"`
}

// OptimizationResult is the engine's decision for one trainset. It is
// immutable once produced; the next run supersedes it with a new set.
type OptimizationResult struct {
	TrainsetID     string          `json:"trainset_id"`
	Action         Action          `json:"action"`
	CompositeScore int             `json:"composite_score"`
	Scores         ObjectiveScores `json:"scores"`
	// Reasoning lists the positive factors behind the decision, most
	// significant first. Each entry maps to a specific scorer predicate.
	Reasoning []string `json:"reasoning"`
	// Constraints lists caveats that did not veto the action but should be
	// surfaced to the supervisor.
	Constraints []string `json:"constraints"`
}

// FleetMetrics aggregates one run. Values are always recomputed from the
// run's result set, never settable independently.
type FleetMetrics struct {
	ServiceReadiness        float64   `json:"service_readiness"`
	CostEfficiency          float64   `json:"cost_efficiency"`
	BrandingCompliance      float64   `json:"branding_compliance"`
	MaintenanceOptimization float64   `json:"maintenance_optimization"`
	StablingEfficiency      float64   `json:"stabling_efficiency"`
	OverallScore            float64   `json:"overall_score"`
	Timestamp               time.Time `json:"timestamp"`
}
