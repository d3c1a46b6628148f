package induction

import (
	"math"
	"time"

	"github.com/kochimetro/inductd/core/model"
)

// Scoring constants. These are policy defaults; the relative weighting of
// whole objectives is configured through Weights, while the constants below
// shape each objective's internal curve.
const (
	// scoreCeiling bounds every objective score.
	scoreCeiling = 100.0

	// certPenalty is deducted per invalid fitness certificate.
	certPenalty = 30.0
	// jobCardPenalty is deducted per open job card.
	jobCardPenalty = 12.0

	// shuntingSpanMinutes is the repositioning cost treated as a full
	// penalty. Moves at or beyond this span score zero on that component.
	shuntingSpanMinutes = 60.0

	// Branding deficit multipliers by campaign priority. A high-priority
	// wrap under target is penalised harder than a low-priority one.
	brandingFactorHigh   = 1.5
	brandingFactorMedium = 1.0
	brandingFactorLow    = 0.6

	// Maintenance objective split between job-card backlog and cleaning.
	backlogShare  = 0.6
	cleaningShare = 0.4
	// cleaningUrgencyStep scales the penalty for an unscheduled clean by
	// its urgency (priority 1 is most urgent).
	cleaningUrgencyStep = 20.0

	// mileageBalancedKM is the variance magnitude still reported as
	// balanced in the reasoning output.
	mileageBalancedKM = 500.0
)

// FleetContext carries the read-only fleet-wide inputs a scorer needs for
// normalization: the evaluation instant, the mileage spread, and the
// stabling positions after bay contention has been resolved.
type FleetContext struct {
	Now                   time.Time
	MaxAbsMileageVariance float64

	// effectiveStabling overrides a trainset's declared stabling once the
	// reconciliation pass has reassigned contested bays.
	effectiveStabling map[string]model.Stabling
}

// NewFleetContext derives normalization data from the snapshot.
func NewFleetContext(now time.Time, fleet []model.Trainset) *FleetContext {
	ctx := &FleetContext{Now: now, effectiveStabling: make(map[string]model.Stabling, len(fleet))}
	for _, ts := range fleet {
		if v := math.Abs(ts.Mileage.Variance()); v > ctx.MaxAbsMileageVariance {
			ctx.MaxAbsMileageVariance = v
		}
	}
	return ctx
}

// SetEffectiveStabling records the post-reconciliation stabling for a
// trainset that lost a contested bay.
func (c *FleetContext) SetEffectiveStabling(id string, s model.Stabling) {
	c.effectiveStabling[id] = s
}

// StablingFor returns the stabling facts to score against: the reconciled
// position when the bay was contested, the declared one otherwise.
func (c *FleetContext) StablingFor(ts model.Trainset) model.Stabling {
	if s, ok := c.effectiveStabling[ts.ID]; ok {
		return s
	}
	return ts.Stabling
}

// Scorer computes the five objective scores and their weighted composite.
// All scorers are pure: identical input yields identical output.
type Scorer struct {
	Weights Weights
}

// ServiceReadiness scores certificate validity and job-card pressure. A
// trainset with all certificates valid and a clean backlog scores the
// ceiling; each defect deducts a fixed penalty, floored at zero.
func (s Scorer) ServiceReadiness(ts model.Trainset, now time.Time) float64 {
	score := scoreCeiling
	score -= certPenalty * float64(len(ts.Fitness.ExpiredAt(now)))
	score -= jobCardPenalty * float64(ts.JobCards.Open)
	return clampScore(score)
}

// CostEfficiency rewards cheap repositioning and tight mileage balance.
// Mileage variance is normalised against the widest deviation in the fleet.
func (s Scorer) CostEfficiency(ts model.Trainset, ctx *FleetContext) float64 {
	shunt := math.Min(ctx.StablingFor(ts).ShuntingMinutes/shuntingSpanMinutes, 1)
	variance := 0.0
	if ctx.MaxAbsMileageVariance > 0 {
		variance = math.Abs(ts.Mileage.Variance()) / ctx.MaxAbsMileageVariance
	}
	return clampScore(scoreCeiling * (1 - 0.5*shunt - 0.5*variance))
}

// BrandingCompliance scores exposure attainment against the campaign
// target, weighted by priority. A trainset with no exposure contract scores
// the ceiling.
func (s Scorer) BrandingCompliance(ts model.Trainset) float64 {
	if ts.Branding.ExposureTarget == 0 {
		return scoreCeiling
	}
	attainment := math.Min(ts.Branding.ExposureAchieved/ts.Branding.ExposureTarget, 1)
	factor := brandingFactorLow
	switch ts.Branding.Priority {
	case model.BrandingHigh:
		factor = brandingFactorHigh
	case model.BrandingMedium:
		factor = brandingFactorMedium
	}
	return clampScore(scoreCeiling - scoreCeiling*(1-attainment)*factor)
}

// MaintenanceOptimization rewards a shrinking job-card backlog and a
// satisfied cleaning schedule. An unscheduled clean is penalised by its
// urgency.
func (s Scorer) MaintenanceOptimization(ts model.Trainset) float64 {
	backlog := ts.JobCards.ClosedRatio() * scoreCeiling
	cleaning := scoreCeiling
	if !ts.Cleaning.Scheduled {
		cleaning = cleaningUrgencyStep * float64(ts.Cleaning.Priority-1)
	}
	return clampScore(backlogShare*backlog + cleaningShare*cleaning)
}

// StablingEfficiency scores the repositioning effort. A trainset already at
// its (effective) optimal bay scores the ceiling; otherwise the score falls
// linearly with shunting time.
func (s Scorer) StablingEfficiency(ts model.Trainset, ctx *FleetContext) float64 {
	st := ctx.StablingFor(ts)
	if st.AtOptimal() {
		return scoreCeiling
	}
	return clampScore(scoreCeiling * (1 - math.Min(st.ShuntingMinutes/shuntingSpanMinutes, 1)))
}

// Score evaluates all objectives and the weighted composite, rounded to an
// integer percentage.
func (s Scorer) Score(ts model.Trainset, ctx *FleetContext) (model.ObjectiveScores, int) {
	scores := model.ObjectiveScores{
		ServiceReadiness:        s.ServiceReadiness(ts, ctx.Now),
		CostEfficiency:          s.CostEfficiency(ts, ctx),
		BrandingCompliance:      s.BrandingCompliance(ts),
		MaintenanceOptimization: s.MaintenanceOptimization(ts),
		StablingEfficiency:      s.StablingEfficiency(ts, ctx),
	}
	return scores, s.Composite(scores)
}

// Composite folds the five objective scores into the configured weighted
// sum.
func (s Scorer) Composite(scores model.ObjectiveScores) int {
	w := s.Weights
	sum := scores.ServiceReadiness*w.ServiceReadiness +
		scores.CostEfficiency*w.CostEfficiency +
		scores.BrandingCompliance*w.BrandingCompliance +
		scores.MaintenanceOptimization*w.MaintenanceOptimization +
		scores.StablingEfficiency*w.StablingEfficiency
	return int(math.Round(clampScore(sum)))
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > scoreCeiling {
		return scoreCeiling
	}
	return v
}
