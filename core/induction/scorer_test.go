package induction

import (
	"math"
	"testing"
	"time"

	"github.com/kochimetro/inductd/core/model"
)

func TestScorer_PerfectTrainsetScoresCeiling(t *testing.T) {
	now := time.Now()
	ts := fitTrainset("TS-01", now)
	ctx := NewFleetContext(now, []model.Trainset{ts})
	s := Scorer{Weights: EqualWeights()}

	scores, composite := s.Score(ts, ctx)
	for name, got := range map[string]float64{
		"service_readiness":        scores.ServiceReadiness,
		"cost_efficiency":          scores.CostEfficiency,
		"branding_compliance":      scores.BrandingCompliance,
		"maintenance_optimization": scores.MaintenanceOptimization,
		"stabling_efficiency":      scores.StablingEfficiency,
	} {
		if got != 100 {
			t.Errorf("%s = %.2f, expected 100", name, got)
		}
	}
	if composite != 100 {
		t.Errorf("composite = %d, expected 100", composite)
	}
}

func TestScorer_ServiceReadinessPenalties(t *testing.T) {
	now := time.Now()
	ts := fitTrainset("TS-02", now)
	ts.Fitness.Signalling = model.Certificate{ExpiresAt: now.Add(-time.Hour)}
	ts.JobCards.Open = 2

	got := Scorer{}.ServiceReadiness(ts, now)
	want := 100.0 - certPenalty - 2*jobCardPenalty
	if got != want {
		t.Errorf("readiness = %.2f, expected %.2f", got, want)
	}
}

func TestScorer_ServiceReadinessFloorsAtZero(t *testing.T) {
	now := time.Now()
	ts := fitTrainset("TS-03", now)
	ts.JobCards.Open = 20

	if got := (Scorer{}).ServiceReadiness(ts, now); got != 0 {
		t.Errorf("readiness = %.2f, expected floor at 0", got)
	}
}

func TestScorer_CostEfficiencyNormalisesVariance(t *testing.T) {
	now := time.Now()
	worst := fitTrainset("TS-04", now)
	worst.Mileage = model.Mileage{Current: 44000, Target: 42000}
	half := fitTrainset("TS-05", now)
	half.Mileage = model.Mileage{Current: 43000, Target: 42000}
	ctx := NewFleetContext(now, []model.Trainset{worst, half})

	s := Scorer{}
	if got := s.CostEfficiency(worst, ctx); got != 50 {
		t.Errorf("worst variance = %.2f, expected 50", got)
	}
	if got := s.CostEfficiency(half, ctx); got != 75 {
		t.Errorf("half variance = %.2f, expected 75", got)
	}
}

func TestScorer_CostEfficiencyShuntingCapped(t *testing.T) {
	now := time.Now()
	ts := fitTrainset("TS-06", now)
	ts.Stabling = model.Stabling{CurrentBay: "SBL1", OptimalBay: "SBL9", ShuntingMinutes: 240}
	ctx := NewFleetContext(now, []model.Trainset{ts})

	if got := (Scorer{}).CostEfficiency(ts, ctx); got != 50 {
		t.Errorf("capped shunting = %.2f, expected 50", got)
	}
}

func TestScorer_BrandingCompliance(t *testing.T) {
	cases := []struct {
		name     string
		branding model.Branding
		want     float64
	}{
		{"no contract", model.Branding{}, 100},
		{"on target", model.Branding{Priority: model.BrandingHigh, ExposureAchieved: 80, ExposureTarget: 80}, 100},
		{"high priority deficit", model.Branding{Priority: model.BrandingHigh, ExposureAchieved: 60, ExposureTarget: 80}, 62.5},
		{"low priority deficit", model.Branding{Priority: model.BrandingLow, ExposureAchieved: 60, ExposureTarget: 80}, 85},
		{"overshoot clamps to target", model.Branding{Priority: model.BrandingMedium, ExposureAchieved: 120, ExposureTarget: 80}, 100},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ts := model.Trainset{Branding: c.branding}
			if got := (Scorer{}).BrandingCompliance(ts); math.Abs(got-c.want) > 1e-9 {
				t.Errorf("score = %.2f, expected %.2f", got, c.want)
			}
		})
	}
}

func TestScorer_MaintenanceOptimizationUnscheduledCleaning(t *testing.T) {
	now := time.Now()
	ts := fitTrainset("TS-07", now)
	ts.Cleaning = model.Cleaning{Scheduled: false, Priority: 1}

	got := Scorer{}.MaintenanceOptimization(ts)
	want := backlogShare*100 + cleaningShare*0
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("score = %.2f, expected %.2f", got, want)
	}
}

func TestScorer_StablingEfficiencyUsesEffectivePosition(t *testing.T) {
	now := time.Now()
	ts := fitTrainset("TS-08", now)
	ts.Stabling = model.Stabling{CurrentBay: "SBL2", OptimalBay: "SBL5", ShuntingMinutes: 30}
	ctx := NewFleetContext(now, []model.Trainset{ts})

	s := Scorer{}
	if got := s.StablingEfficiency(ts, ctx); got != 50 {
		t.Fatalf("declared position = %.2f, expected 50", got)
	}

	// After losing bay contention the trainset stays where it is and the
	// repositioning cost disappears.
	ctx.SetEffectiveStabling(ts.ID, model.Stabling{CurrentBay: "SBL2", OptimalBay: "SBL2"})
	if got := s.StablingEfficiency(ts, ctx); got != 100 {
		t.Errorf("effective position = %.2f, expected 100", got)
	}
}

func TestScorer_CompositeIsWeightedSum(t *testing.T) {
	scores := model.ObjectiveScores{
		ServiceReadiness:        90,
		CostEfficiency:          80,
		BrandingCompliance:      70,
		MaintenanceOptimization: 60,
		StablingEfficiency:      50,
	}
	s := Scorer{Weights: Weights{
		ServiceReadiness:        0.4,
		CostEfficiency:          0.3,
		BrandingCompliance:      0.1,
		MaintenanceOptimization: 0.1,
		StablingEfficiency:      0.1,
	}}
	// 36 + 24 + 7 + 6 + 5 = 78
	if got := s.Composite(scores); got != 78 {
		t.Errorf("composite = %d, expected 78", got)
	}
}

func TestScorer_DeterministicAcrossRuns(t *testing.T) {
	now := time.Now()
	ts := fitTrainset("TS-09", now)
	ts.JobCards.Open = 1
	ts.Branding = model.Branding{Priority: model.BrandingHigh, ExposureAchieved: 55, ExposureTarget: 70}
	ctx := NewFleetContext(now, []model.Trainset{ts})
	s := Scorer{Weights: EqualWeights()}

	first, firstComposite := s.Score(ts, ctx)
	for i := 0; i < 10; i++ {
		again, composite := s.Score(ts, ctx)
		if again != first || composite != firstComposite {
			t.Fatalf("run %d diverged: %+v (%d) vs %+v (%d)", i, again, composite, first, firstComposite)
		}
	}
}
