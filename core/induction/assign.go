package induction

import (
	"fmt"
	"math"
	"sort"

	"github.com/kochimetro/inductd/core/model"
)

// Assigner picks the action for a trainset from its feasible set and
// derives the rule-based reasoning and constraint strings. Every string
// maps to a specific predicate; none are cosmetic.
type Assigner struct {
	Config Config
}

// Assign chooses the best feasible action: induct when feasible and the
// composite clears the threshold, otherwise standby when feasible,
// otherwise maintenance.
func (a Assigner) Assign(ts model.Trainset, feasible ActionSet, scores model.ObjectiveScores,
	composite int, ctx *FleetContext, conflict *BayConflict) model.OptimizationResult {

	action := model.ActionMaintenance
	switch {
	case feasible.Has(model.ActionInduct) && float64(composite) >= a.Config.Threshold():
		action = model.ActionInduct
	case feasible.Has(model.ActionStandby):
		action = model.ActionStandby
	}

	return model.OptimizationResult{
		TrainsetID:     ts.ID,
		Action:         action,
		CompositeScore: composite,
		Scores:         scores,
		Reasoning:      a.reasoning(ts, action, ctx),
		Constraints:    a.constraints(ts, feasible, action, composite, ctx, conflict),
	}
}

// reasoning lists the positive factors behind the decision, most
// significant first. For a forced maintenance pull the vetoing facts are
// the justification.
func (a Assigner) reasoning(ts model.Trainset, action model.Action, ctx *FleetContext) []string {
	var out []string
	now := ctx.Now

	if action == model.ActionMaintenance {
		for _, name := range ts.Fitness.ExpiredAt(now) {
			out = append(out, fmt.Sprintf("%s certificate expired", name))
		}
	}
	if ts.Fitness.AllValidAt(now) {
		out = append(out, "all fitness certificates valid")
	}
	if ts.JobCards.Open == 0 {
		out = append(out, "zero open job cards")
	}
	if ts.Branding.ExposureTarget > 0 && ts.Branding.Deficit() == 0 {
		out = append(out, "branding exposure target met")
	}
	if math.Abs(ts.Mileage.Variance()) <= mileageBalancedKM {
		out = append(out, fmt.Sprintf("mileage within %.0f km of fleet target", mileageBalancedKM))
	}
	if st := ctx.StablingFor(ts); st.AtOptimal() {
		out = append(out, fmt.Sprintf("already stabled at optimal bay %s", st.CurrentBay))
	}
	if ts.Cleaning.Scheduled {
		out = append(out, "cleaning slot scheduled")
	}
	return out
}

// constraints lists the near-miss conditions that did not veto the chosen
// action but merit supervisor attention.
func (a Assigner) constraints(ts model.Trainset, feasible ActionSet, action model.Action,
	composite int, ctx *FleetContext, conflict *BayConflict) []string {

	var out []string
	now := ctx.Now
	window := a.Config.CertWarningWindow()

	for _, name := range ts.Fitness.ExpiringWithin(now, window) {
		out = append(out, fmt.Sprintf("%s certificate expires within %s", name, window))
	}
	if ts.JobCards.Open > 0 {
		if action == model.ActionInduct {
			out = append(out, fmt.Sprintf("%d open job cards within induction tolerance", ts.JobCards.Open))
		} else if !feasible.Has(model.ActionInduct) && feasible.Has(model.ActionStandby) {
			out = append(out, fmt.Sprintf("induction blocked: %d open job cards", ts.JobCards.Open))
		}
	}
	if feasible.Has(model.ActionInduct) && action != model.ActionInduct {
		out = append(out, fmt.Sprintf("composite score %d below induction threshold %.0f",
			composite, a.Config.Threshold()))
	}
	if d := ts.Branding.Deficit(); d > 0 {
		out = append(out, fmt.Sprintf("branding exposure %.1fh below target (%s priority)",
			d, ts.Branding.Priority))
	}
	if v := ts.Mileage.Variance(); math.Abs(v) > mileageBalancedKM {
		out = append(out, fmt.Sprintf("mileage variance %+.0f km against fleet target", v))
	}
	if !ts.Cleaning.Scheduled {
		out = append(out, fmt.Sprintf("cleaning unscheduled (priority %d)", ts.Cleaning.Priority))
	}
	if conflict != nil {
		out = append(out, fmt.Sprintf("optimal bay %s ceded to %s; retaining bay %s",
			conflict.Bay, conflict.Winner, ts.Stabling.CurrentBay))
	}
	return out
}

// rankResults orders the fleet for presentation: descending composite
// score, ties broken by ascending trainset ID so identical snapshots always
// render identically. Rank has no effect on the assigned actions.
func rankResults(results []model.OptimizationResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].CompositeScore != results[j].CompositeScore {
			return results[i].CompositeScore > results[j].CompositeScore
		}
		return results[i].TrainsetID < results[j].TrainsetID
	})
}
