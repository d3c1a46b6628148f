package induction

import (
	"sort"

	"github.com/kochimetro/inductd/core/model"
)

// BayConflict records a lost bay contention for reporting purposes.
type BayConflict struct {
	Bay    string // the contested optimal bay
	Winner string // trainset awarded the bay
}

// reconcileStabling resolves optimal-bay contention across the fleet. When
// several trainsets claim the same optimal bay, one keeps the claim per the
// configured tie-break and the rest retain their current bay as effective
// optimal (no repositioning planned). The pass is single-threaded and runs
// after individual scoring inputs are fixed, before aggregation.
//
// Losers are recorded in the returned map and their effective stabling is
// written into the fleet context.
func reconcileStabling(fleet []model.Trainset, policy string, ctx *FleetContext) map[string]BayConflict {
	claims := make(map[string][]model.Trainset)
	for _, ts := range fleet {
		claims[ts.Stabling.OptimalBay] = append(claims[ts.Stabling.OptimalBay], ts)
	}

	bays := make([]string, 0, len(claims))
	for bay, claimants := range claims {
		if len(claimants) > 1 {
			bays = append(bays, bay)
		}
	}
	sort.Strings(bays)

	conflicts := make(map[string]BayConflict)
	for _, bay := range bays {
		claimants := claims[bay]
		sort.Slice(claimants, func(i, j int) bool {
			a, b := claimants[i], claimants[j]
			if policy == TieBreakShuntingTime && a.Stabling.ShuntingMinutes != b.Stabling.ShuntingMinutes {
				return a.Stabling.ShuntingMinutes < b.Stabling.ShuntingMinutes
			}
			return a.ID < b.ID
		})
		winner := claimants[0]
		for _, loser := range claimants[1:] {
			conflicts[loser.ID] = BayConflict{Bay: bay, Winner: winner.ID}
			ctx.SetEffectiveStabling(loser.ID, model.Stabling{
				CurrentBay:      loser.Stabling.CurrentBay,
				OptimalBay:      loser.Stabling.CurrentBay,
				ShuntingMinutes: 0,
			})
		}
	}
	return conflicts
}
