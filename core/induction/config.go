package induction

import (
	"math"
	"time"
)

// Bay tie-break policies applied when two trainsets claim the same
// optimal bay.
const (
	// TieBreakShuntingTime lets the cheaper move win the bay (default).
	TieBreakShuntingTime = "shunting_time"
	// TieBreakTrainsetID awards the bay to the lexicographically lower ID.
	TieBreakTrainsetID = "trainset_id"
)

const weightSumTolerance = 1e-9

// Defaults applied by SetDefaults for unset fields.
const (
	defaultInductionThreshold = 70.0
	defaultCertWarningHours   = 6.0
)

// Weights defines the per-objective contribution to the composite score.
// The five weights must sum to 1.
type Weights struct {
	ServiceReadiness        float64 `json:"service_readiness" yaml:"service_readiness"`
	CostEfficiency          float64 `json:"cost_efficiency" yaml:"cost_efficiency"`
	BrandingCompliance      float64 `json:"branding_compliance" yaml:"branding_compliance"`
	MaintenanceOptimization float64 `json:"maintenance_optimization" yaml:"maintenance_optimization"`
	StablingEfficiency      float64 `json:"stabling_efficiency" yaml:"stabling_efficiency"`
}

// EqualWeights returns the default even split across the five objectives.
func EqualWeights() Weights {
	return Weights{
		ServiceReadiness:        0.2,
		CostEfficiency:          0.2,
		BrandingCompliance:      0.2,
		MaintenanceOptimization: 0.2,
		StablingEfficiency:      0.2,
	}
}

func (w Weights) sum() float64 {
	return w.ServiceReadiness + w.CostEfficiency + w.BrandingCompliance +
		w.MaintenanceOptimization + w.StablingEfficiency
}

func (w Weights) isZero() bool { return w.sum() == 0 }

// Config defines planning parameters for one optimization run.
type Config struct {
	// InductionThreshold is the minimum composite score for revenue
	// service, in [0,100]. Unset means 70; an explicit 0 inducts every
	// feasible trainset.
	InductionThreshold *float64 `json:"induction_threshold" yaml:"induction_threshold"`
	// BlockingJobCards is the number of open job cards tolerated before
	// induction is vetoed.
	BlockingJobCards int `json:"blocking_job_cards" yaml:"blocking_job_cards"`
	// CertWarningHours flags certificates expiring within this window as
	// constraints on the chosen action. Unset means 6; an explicit 0
	// disables the warning.
	CertWarningHours *float64 `json:"cert_warning_hours" yaml:"cert_warning_hours"`
	// Weights drives the composite score; zero value means equal weights.
	Weights Weights `json:"weights" yaml:"weights"`
	// BayTieBreak selects the contention rule for shared optimal bays.
	BayTieBreak string `json:"bay_tie_break" yaml:"bay_tie_break"`
	// Strict fails the whole run on the first data integrity error instead
	// of excluding the offending trainset.
	Strict bool `json:"strict" yaml:"strict"`
	// Workers bounds the evaluation fan-out; 0 picks a sensible default.
	Workers int `json:"workers" yaml:"workers"`
}

// SetDefaults applies the documented defaults for unset fields.
func (c *Config) SetDefaults() {
	if c.InductionThreshold == nil {
		v := defaultInductionThreshold
		c.InductionThreshold = &v
	}
	if c.CertWarningHours == nil {
		v := defaultCertWarningHours
		c.CertWarningHours = &v
	}
	if c.Weights.isZero() {
		c.Weights = EqualWeights()
	}
	if c.BayTieBreak == "" {
		c.BayTieBreak = TieBreakShuntingTime
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
}

// Validate checks the configuration before a run may start. Violations are
// fatal: the run never leaves the idle state.
func (c Config) Validate() error {
	if t := c.Threshold(); t < 0 || t > 100 {
		return &ConfigurationError{Field: "induction_threshold", Reason: "must be within [0,100]"}
	}
	if c.BlockingJobCards < 0 {
		return &ConfigurationError{Field: "blocking_job_cards", Reason: "must be non-negative"}
	}
	if c.CertWarningHours != nil && *c.CertWarningHours < 0 {
		return &ConfigurationError{Field: "cert_warning_hours", Reason: "must be non-negative"}
	}
	for _, w := range []struct {
		name  string
		value float64
	}{
		{"weights.service_readiness", c.Weights.ServiceReadiness},
		{"weights.cost_efficiency", c.Weights.CostEfficiency},
		{"weights.branding_compliance", c.Weights.BrandingCompliance},
		{"weights.maintenance_optimization", c.Weights.MaintenanceOptimization},
		{"weights.stabling_efficiency", c.Weights.StablingEfficiency},
	} {
		if w.value < 0 || w.value > 1 {
			return &ConfigurationError{Field: w.name, Reason: "must be within [0,1]"}
		}
	}
	if math.Abs(c.Weights.sum()-1) > weightSumTolerance {
		return &ConfigurationError{Field: "weights", Reason: "must sum to 1"}
	}
	if c.BayTieBreak != TieBreakShuntingTime && c.BayTieBreak != TieBreakTrainsetID {
		return &ConfigurationError{Field: "bay_tie_break", Reason: "unknown policy"}
	}
	return nil
}

// Threshold returns the induction threshold, defaulted when unset.
func (c Config) Threshold() float64 {
	if c.InductionThreshold == nil {
		return defaultInductionThreshold
	}
	return *c.InductionThreshold
}

// CertWarningWindow returns the certificate warning window as a duration,
// defaulted when unset.
func (c Config) CertWarningWindow() time.Duration {
	hours := defaultCertWarningHours
	if c.CertWarningHours != nil {
		hours = *c.CertWarningHours
	}
	return time.Duration(hours * float64(time.Hour))
}
