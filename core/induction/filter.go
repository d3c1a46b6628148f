package induction

import (
	"time"

	"github.com/kochimetro/inductd/core/model"
)

// ActionSet is the set of actions legal for a trainset under the hard
// constraints. Maintenance is always a member, so the set is never empty.
type ActionSet uint8

const (
	actionBitInduct ActionSet = 1 << iota
	actionBitStandby
	actionBitMaintenance
)

func bitFor(a model.Action) ActionSet {
	switch a {
	case model.ActionInduct:
		return actionBitInduct
	case model.ActionStandby:
		return actionBitStandby
	default:
		return actionBitMaintenance
	}
}

// Has reports whether the action is feasible.
func (s ActionSet) Has(a model.Action) bool { return s&bitFor(a) != 0 }

// Actions expands the set in induct, standby, maintenance order.
func (s ActionSet) Actions() []model.Action {
	var out []model.Action
	for _, a := range []model.Action{model.ActionInduct, model.ActionStandby, model.ActionMaintenance} {
		if s.Has(a) {
			out = append(out, a)
		}
	}
	return out
}

// FeasibilityFilter applies the hard service-eligibility rules.
type FeasibilityFilter struct {
	// BlockingJobCards is the open job-card count above which induction is
	// vetoed. Default 0: any open card blocks revenue service.
	BlockingJobCards int
}

// FeasibleActions returns the actions legal for the trainset at the given
// instant. An expired certificate forces maintenance; open job cards above
// the threshold veto induction but tolerate standby.
func (f FeasibilityFilter) FeasibleActions(ts model.Trainset, now time.Time) ActionSet {
	set := actionBitMaintenance
	if !ts.Fitness.AllValidAt(now) {
		return set
	}
	set |= actionBitStandby
	if ts.JobCards.Open <= f.BlockingJobCards {
		set |= actionBitInduct
	}
	return set
}
